package pdfcheck

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/jackzampolin/layerscope/internal/testutil"
)

func TestInspect(t *testing.T) {
	raw := testutil.BuildPDF([2]int{612, 792}, [2]int{842, 595})

	report, err := Inspect(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	if report.PageCount != 2 {
		t.Errorf("PageCount = %d, want 2", report.PageCount)
	}
	if len(report.Pages) != 2 {
		t.Fatalf("Pages = %+v", report.Pages)
	}
	if report.Pages[0] != (PageSize{Width: 612, Height: 792}) {
		t.Errorf("page 1 = %+v", report.Pages[0])
	}
	if report.Pages[1] != (PageSize{Width: 842, Height: 595}) {
		t.Errorf("page 2 = %+v", report.Pages[1])
	}
	if _, ok := report.UniformSize(); ok {
		t.Error("mixed page sizes reported as uniform")
	}
}

func TestInspect_Uniform(t *testing.T) {
	report, err := Inspect(bytes.NewReader(testutil.BuildPDF([2]int{612, 792}, [2]int{612, 792}, [2]int{612, 792})))
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	size, ok := report.UniformSize()
	if !ok || size.Width != 612 || size.Height != 792 {
		t.Errorf("UniformSize() = %+v, %v", size, ok)
	}
}

func TestInspect_Rewinds(t *testing.T) {
	r := bytes.NewReader(testutil.BuildPDF([2]int{612, 792}))
	// Simulate a reader that was already consumed, e.g. by a size check.
	r.Seek(0, io.SeekEnd)
	if _, err := Inspect(r); err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
}

func TestInspect_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  error
	}{
		{"empty", nil, ErrNotPDF},
		{"text file", []byte("hello, world\n"), ErrNotPDF},
		{"png", []byte("\x89PNG\r\n\x1a\n...."), ErrNotPDF},
		{"truncated pdf", []byte("%PDF-1.4\n1 0 obj\n<<"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Inspect(bytes.NewReader(tt.input))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}
