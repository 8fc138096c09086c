// Package pdfcheck inspects a PDF locally before it is sent to the analysis
// backend, so obviously broken uploads fail fast.
package pdfcheck

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrNotPDF is returned when the input does not start with a PDF header.
var ErrNotPDF = errors.New("not a PDF file")

// ErrNoPages is returned for a structurally valid PDF with zero pages.
var ErrNoPages = errors.New("PDF has no pages")

var pdfMagic = []byte("%PDF-")

// PageSize is one page's media box size in points.
type PageSize struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Report summarises a validated PDF.
type Report struct {
	Version   string     `json:"version" yaml:"version"`
	PageCount int        `json:"page_count" yaml:"page_count"`
	Pages     []PageSize `json:"pages" yaml:"pages"`
	Encrypted bool       `json:"encrypted" yaml:"encrypted"`
	Title     string     `json:"title,omitempty" yaml:"title,omitempty"`
	Author    string     `json:"author,omitempty" yaml:"author,omitempty"`
	Producer  string     `json:"producer,omitempty" yaml:"producer,omitempty"`
}

// Inspect validates rs with pdfcpu (relaxed mode) and reports its page count
// and page sizes. rs is rewound before reading.
func Inspect(rs io.ReadSeeker) (*Report, error) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind: %w", err)
	}
	head := make([]byte, 1024)
	n, err := io.ReadFull(rs, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if !bytes.Contains(head[:n], pdfMagic) {
		return nil, ErrNotPDF
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind: %w", err)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadValidateAndOptimize(rs, conf)
	if err != nil {
		return nil, fmt.Errorf("invalid PDF: %w", err)
	}
	if ctx.PageCount == 0 {
		return nil, ErrNoPages
	}

	dims, err := ctx.PageDims()
	if err != nil {
		return nil, fmt.Errorf("failed to read page dimensions: %w", err)
	}

	report := &Report{
		Version:   ctx.XRefTable.Version().String(),
		PageCount: ctx.PageCount,
		Pages:     make([]PageSize, 0, len(dims)),
		Encrypted: ctx.Encrypt != nil,
		Title:     ctx.Title,
		Author:    ctx.Author,
		Producer:  ctx.Producer,
	}
	for _, d := range dims {
		report.Pages = append(report.Pages, PageSize{Width: d.Width, Height: d.Height})
	}
	return report, nil
}

// UniformSize reports the shared page size when every page has the same
// dimensions.
func (r *Report) UniformSize() (PageSize, bool) {
	if len(r.Pages) == 0 {
		return PageSize{}, false
	}
	first := r.Pages[0]
	for _, p := range r.Pages[1:] {
		if p != first {
			return PageSize{}, false
		}
	}
	return first, true
}
