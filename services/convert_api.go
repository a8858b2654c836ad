package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// DocumentConverter normalizes a non-PDF source (docx, pptx, odt, ...) to
// PDF. The real work happens in an external conversion service; this side
// only moves bytes.
type DocumentConverter interface {
	Convert(ctx context.Context, filename string, src []byte) ([]byte, error)
}

type ConverterClient struct {
	url    string
	client *http.Client
}

func NewConverterClient(url string, timeout time.Duration) *ConverterClient {
	return &ConverterClient{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (c *ConverterClient) Convert(ctx context.Context, filename string, src []byte) ([]byte, error) {
	if c.url == "" {
		return nil, fmt.Errorf("converter url not configured")
	}

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("files", filename)
	if err != nil {
		return nil, err
	}
	if _, err = part.Write(src); err != nil {
		return nil, err
	}
	if err = writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("converter returned %d: %s", resp.StatusCode, snippet)
	}
	return io.ReadAll(resp.Body)
}
