package utils

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FileKeyGenerator builds object-storage keys for the three places the
// pipeline writes: public library uploads, private staged sources, and the
// deterministic rendered-output slot per asset.
type FileKeyGenerator struct {
	publicPrefix  string
	stagingPrefix string
	renderPrefix  string
	maxNameLen    int
}

func NewFileKeyGenerator() *FileKeyGenerator {
	return &FileKeyGenerator{
		publicPrefix:  "library",
		stagingPrefix: "staging",
		renderPrefix:  "rendered",
		maxNameLen:    50,
	}
}

// PublicKey names a direct-published document, date-partitioned so bucket
// listings stay manageable.
func (fkg *FileKeyGenerator) PublicKey(filename string) string {
	now := time.Now()
	uid := uuid.New().String()[:8]
	return fmt.Sprintf("%s/%s/%s_%s",
		fkg.publicPrefix, now.Format("2006/01/02"), uid, fkg.CleanFilename(filename))
}

// StagingKey names an assembled source awaiting conversion.
func (fkg *FileKeyGenerator) StagingKey(filename string) string {
	uid := uuid.New().String()[:8]
	return fmt.Sprintf("%s/%d_%s_%s",
		fkg.stagingPrefix, time.Now().Unix(), uid, fkg.CleanFilename(filename))
}

// RenderedKey is deterministic per asset so redelivered render jobs
// overwrite the same object instead of accumulating copies.
func (fkg *FileKeyGenerator) RenderedKey(assetID string) string {
	return fmt.Sprintf("%s/%s.pdf", fkg.renderPrefix, assetID)
}

// DisplayName normalizes a source filename to the canonical document
// extension for the rendered output.
func (fkg *FileKeyGenerator) DisplayName(filename string) string {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	clean := fkg.sanitize(base)
	if clean == "" {
		clean = "document"
	}
	return clean + ".pdf"
}

func (fkg *FileKeyGenerator) CleanFilename(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := strings.TrimSuffix(filename, filepath.Ext(filename))

	clean := fkg.sanitize(base)
	if len(clean) > fkg.maxNameLen {
		clean = clean[:fkg.maxNameLen]
		clean = ensureValidUTF8End(clean)
	}
	if clean == "" || clean == "_" {
		clean = "document"
	}
	return clean + ext
}

func (fkg *FileKeyGenerator) sanitize(name string) string {
	name = strings.ReplaceAll(name, " ", "_")

	dangerous := regexp.MustCompile(`[<>:"/\\|?*]`)
	name = dangerous.ReplaceAllString(name, "")

	// keep letters, digits, underscore, hyphen, dot
	safe := regexp.MustCompile(`[^\p{L}\p{N}_\-.]`)
	name = safe.ReplaceAllString(name, "_")

	name = regexp.MustCompile(`[_\-.]{2,}`).ReplaceAllString(name, "_")
	return strings.Trim(name, "_-.")
}

// ensureValidUTF8End trims a trailing partial multi-byte rune left by a
// byte-length cut.
func ensureValidUTF8End(s string) string {
	if len(s) == 0 {
		return s
	}
	for i := len(s) - 1; i >= 0 && i >= len(s)-4; i-- {
		if s[i]&0x80 == 0 {
			return s
		}
		if s[i]&0xC0 == 0xC0 {
			return s[:i]
		}
	}
	return s
}
