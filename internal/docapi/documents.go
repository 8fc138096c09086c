package docapi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Document statuses reported by the backend.
const (
	StatusComplete   = "complete"
	StatusProcessing = "processing"
	StatusFailed     = "failed"
	StatusAll        = "all"
)

// DefaultListLimit is the page size used when none is given.
const DefaultListLimit = 20

// Document is a processed (or processing) PDF as listed by the backend.
type Document struct {
	ID          string        `json:"document_id" yaml:"document_id"`
	Name        string        `json:"name" yaml:"name"`
	Status      string        `json:"status" yaml:"status"`
	Uploaded    string        `json:"uploaded,omitempty" yaml:"uploaded,omitempty"`
	PageCount   int           `json:"page_count,omitempty" yaml:"page_count,omitempty"`
	SizeInBytes int64         `json:"size_in_bytes,omitempty" yaml:"size_in_bytes,omitempty"`
	Source      string        `json:"source,omitempty" yaml:"source,omitempty"`
	SourceURL   string        `json:"source_url,omitempty" yaml:"source_url,omitempty"`
	Error       string        `json:"error,omitempty" yaml:"error,omitempty"`
	Info        *DocumentInfo `json:"info,omitempty" yaml:"info,omitempty"`
}

// IsComplete reports whether processing finished successfully.
func (d Document) IsComplete() bool {
	return strings.EqualFold(d.Status, StatusComplete)
}

// DocumentInfo is the PDF-level metadata extracted by the backend.
type DocumentInfo struct {
	Meta     map[string]string `json:"meta,omitempty" yaml:"meta,omitempty"`
	IsTagged bool              `json:"is_tagged" yaml:"is_tagged"`
	TOC      []TOCEntry        `json:"toc,omitempty" yaml:"toc,omitempty"`
}

// TOCEntry is one outline entry. Page is zero-based.
type TOCEntry struct {
	Level int    `json:"level" yaml:"level"`
	Title string `json:"title" yaml:"title"`
	Page  int    `json:"page" yaml:"page"`
}

// ListOptions filters ListDocuments.
type ListOptions struct {
	// Status filters by processing status; "" or "all" means no filter
	Status string
	// Limit caps the number of documents (default 20)
	Limit int
}

// ListDocuments returns the caller's documents.
func (c *Client) ListDocuments(ctx context.Context, opts ListOptions) ([]Document, error) {
	q := url.Values{}
	if opts.Status != "" && !strings.EqualFold(opts.Status, StatusAll) {
		q.Set("status", opts.Status)
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	q.Set("limit", strconv.Itoa(limit))

	var docs []Document
	if err := c.getJSON(ctx, "/documents", q, &docs); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// GetDocument returns one document with its metadata.
func (c *Client) GetDocument(ctx context.Context, id string) (*Document, error) {
	var doc Document
	if err := c.getJSON(ctx, "/documents/"+url.PathEscape(id), nil, &doc); err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	return &doc, nil
}

// VersionInfo is the backend's version answer.
type VersionInfo struct {
	Version string `json:"version" yaml:"version"`
}

// Version returns the backend version, "Beta" when it does not say.
func (c *Client) Version(ctx context.Context) (VersionInfo, error) {
	var v VersionInfo
	if err := c.getJSON(ctx, "/version", nil, &v); err != nil {
		return VersionInfo{}, fmt.Errorf("get version: %w", err)
	}
	if v.Version == "" {
		v.Version = "Beta"
	}
	return v, nil
}

// FilterDocuments applies the dashboard's client-side filters: a
// case-insensitive name search and a status match ("all" matches anything).
func FilterDocuments(docs []Document, search, status string) []Document {
	search = strings.ToLower(strings.TrimSpace(search))
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		if search != "" && !strings.Contains(strings.ToLower(d.Name), search) {
			continue
		}
		if status != "" && !strings.EqualFold(status, StatusAll) && !strings.EqualFold(d.Status, status) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// HumanFileSize formats a byte count with binary units, e.g. "2.4 MB".
func HumanFileSize(bytes int64) string {
	if bytes < 0 {
		return "N/A"
	}
	units := []string{"B", "KB", "MB", "GB", "TB"}
	size := float64(bytes)
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	return fmt.Sprintf("%.1f %s", size, units[i])
}
