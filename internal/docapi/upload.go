package docapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sync"
)

// UploadResult is the backend's answer to an accepted upload.
type UploadResult struct {
	DocumentID string `json:"document_id" yaml:"document_id"`
	Name       string `json:"name,omitempty" yaml:"name,omitempty"`
	Status     string `json:"status" yaml:"status"`
}

// ProgressFunc receives upload progress as a percentage from 0 to 100.
type ProgressFunc func(percent int)

// Upload streams a PDF to the backend as multipart field "file".
// size is the file length in bytes and drives progress reporting; progress
// may be nil. Uploads are never retried since the body is a stream.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader, size int64, progress ProgressFunc) (*UploadResult, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	src := &progressReader{r: r, total: size, fn: progress}
	go func() {
		err := writeUploadBody(mw, filename, src)
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/documents", pr)
	if err != nil {
		pr.Close()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(req, false)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	body, err := c.do(req)
	if err != nil {
		// Unblock the writer goroutine if the server gave up early.
		pr.CloseWithError(err)
		return nil, fmt.Errorf("upload %s: %w", filename, err)
	}
	src.finish()

	var result UploadResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}
	return &result, nil
}

func writeUploadBody(mw *multipart.Writer, filename string, src io.Reader) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	h.Set("Content-Type", "application/pdf")
	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, src); err != nil {
		return err
	}
	return mw.Close()
}

// progressReader reports whole-percent steps as the file is read.
type progressReader struct {
	r     io.Reader
	total int64
	fn    ProgressFunc

	mu   sync.Mutex
	read int64
	last int
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.mu.Lock()
		p.read += int64(n)
		p.report(p.percent())
		p.mu.Unlock()
	}
	return n, err
}

func (p *progressReader) percent() int {
	if p.total <= 0 {
		return 0
	}
	pct := int(p.read * 100 / p.total)
	if pct > 100 {
		pct = 100
	}
	return pct
}

// report must be called with mu held.
func (p *progressReader) report(pct int) {
	if p.fn == nil || pct <= p.last {
		return
	}
	p.last = pct
	p.fn(pct)
}

// finish reports 100% once the server has accepted the upload.
func (p *progressReader) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.report(100)
}
