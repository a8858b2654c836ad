// Package watermark stamps every page of a PDF with the visible ownership
// marks applied before a document is distributed: a primary brand label and
// a secondary contact label crossing the page center at ~34 degrees, plus a
// small footer mark bottom-right. Opacity stays low so the underlying
// content remains legible.
package watermark

import (
	"bytes"
	"fmt"
	"math"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

const (
	primaryOpacity   = 0.20
	secondaryOpacity = 0.18
	footerOpacity    = 0.30
	rotationDeg      = 34

	minPrimaryPts = 18
	maxPrimaryPts = 72
	footerPts     = 9
)

type Stamper struct {
	conf *model.Configuration
}

func NewStamper() *Stamper {
	return &Stamper{conf: model.NewDefaultConfiguration()}
}

// Stamp returns the watermarked document and the number of pages stamped.
// Font sizes derive from the shortest page dimension so the marks cover
// roughly the same share of any page format.
func (s *Stamper) Stamp(src []byte, primary, secondary string) ([]byte, int, error) {
	pageCount, err := api.PageCount(bytes.NewReader(src), s.conf)
	if err != nil {
		return nil, 0, fmt.Errorf("page count: %w", err)
	}
	if pageCount == 0 {
		return nil, 0, fmt.Errorf("document has no pages")
	}

	short, err := s.shortestDim(src)
	if err != nil {
		return nil, 0, err
	}

	primaryPts := clamp(short*0.055, minPrimaryPts, maxPrimaryPts)
	secondaryPts := clamp(short*0.035, minPrimaryPts*0.7, maxPrimaryPts*0.7)

	marks := []string{
		fmt.Sprintf("fontname:Helvetica, points:%d, position:c, rotation:%d, opacity:%.2f, fillcolor:#4A4A4A, scalefactor:1 abs",
			int(primaryPts), rotationDeg, primaryOpacity),
		fmt.Sprintf("fontname:Helvetica, points:%d, position:c, offset:0 -%d, rotation:%d, opacity:%.2f, fillcolor:#4A4A4A, scalefactor:1 abs",
			int(secondaryPts), int(primaryPts*1.6), rotationDeg, secondaryOpacity),
		fmt.Sprintf("fontname:Helvetica, points:%d, position:br, offset:-15 12, rotation:0, opacity:%.2f, fillcolor:#4A4A4A, scalefactor:1 abs",
			footerPts, footerOpacity),
	}
	texts := []string{primary, secondary, primary + " · " + secondary}

	out := src
	for i, desc := range marks {
		if texts[i] == "" {
			continue
		}
		wm, err := api.TextWatermark(texts[i], desc, true, false, types.POINTS)
		if err != nil {
			return nil, 0, fmt.Errorf("build watermark: %w", err)
		}
		var buf bytes.Buffer
		if err := api.AddWatermarks(bytes.NewReader(out), &buf, nil, wm, s.conf); err != nil {
			return nil, 0, fmt.Errorf("apply watermark: %w", err)
		}
		out = buf.Bytes()
	}
	return out, pageCount, nil
}

func (s *Stamper) shortestDim(src []byte) (float64, error) {
	dims, err := api.PageDims(bytes.NewReader(src), s.conf)
	if err != nil {
		return 0, fmt.Errorf("page dims: %w", err)
	}
	short := math.MaxFloat64
	for _, d := range dims {
		short = math.Min(short, math.Min(d.Width, d.Height))
	}
	if short == math.MaxFloat64 || short <= 0 {
		return 0, fmt.Errorf("no usable page dimensions")
	}
	return short, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
