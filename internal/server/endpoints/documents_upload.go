package endpoints

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/layerscope/internal/api"
	"github.com/jackzampolin/layerscope/internal/config"
	"github.com/jackzampolin/layerscope/internal/docapi"
	"github.com/jackzampolin/layerscope/internal/pdfcheck"
	"github.com/jackzampolin/layerscope/internal/svcctx"
)

// UploadResponse is the response for an accepted upload.
type UploadResponse struct {
	Document  docapi.UploadResult `json:"document" yaml:"document"`
	Preflight *pdfcheck.Report    `json:"preflight" yaml:"preflight"`
}

// UploadDocumentEndpoint handles POST /api/documents with a multipart "file".
// The PDF is staged in the home directory, checked locally, then forwarded.
type UploadDocumentEndpoint struct{}

var _ api.Endpoint = (*UploadDocumentEndpoint)(nil)

func (e *UploadDocumentEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/documents", e.handler
}

func (e *UploadDocumentEndpoint) RequiresInit() bool { return true }

func (e *UploadDocumentEndpoint) Group() string { return "documents" }

// handler godoc
//
//	@Summary		Upload a PDF
//	@Description	Validate a PDF locally and forward it to the analysis API
//	@Tags			documents
//	@Accept			mpfd
//	@Produce		json
//	@Param			file	formData	file	true	"PDF file"
//	@Success		201		{object}	UploadResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		413		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/documents [post]
func (e *UploadDocumentEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	client := svcctx.BackendFrom(ctx)
	if client == nil {
		writeError(w, http.StatusServiceUnavailable, "document API not configured")
		return
	}
	homeDir := svcctx.HomeFrom(ctx)
	if homeDir == nil {
		writeError(w, http.StatusServiceUnavailable, "home directory not initialized")
		return
	}
	logger := svcctx.LoggerFrom(ctx)

	maxBytes := config.DefaultConfig().Upload.MaxBytes
	if cm := svcctx.ConfigFrom(ctx); cm != nil && cm.Get().Upload.MaxBytes > 0 {
		maxBytes = cm.Get().Upload.MaxBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	mr, err := r.MultipartReader()
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("expected multipart form: %v", err))
		return
	}

	var filename string
	var src io.Reader
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			writeUploadReadError(w, err)
			return
		}
		if part.FormName() == "file" {
			filename = part.FileName()
			src = part
			break
		}
		part.Close()
	}
	if src == nil {
		writeError(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	if filename == "" {
		filename = "upload.pdf"
	}

	staged, err := homeDir.CreateStagingFile()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer func() {
		staged.Close()
		os.Remove(staged.Name())
	}()

	size, err := io.Copy(staged, src)
	if err != nil {
		writeUploadReadError(w, err)
		return
	}

	report, err := pdfcheck.Inspect(staged)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s: %v", filename, err))
		return
	}
	if _, err := staged.Seek(0, io.SeekStart); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("forwarding upload", "file", filename, "bytes", size, "pages", report.PageCount)
	result, err := client.Upload(ctx, filename, staged, size, func(pct int) {
		if pct%25 == 0 {
			logger.Debug("upload progress", "file", filename, "percent", pct)
		}
	})
	if err != nil {
		writeBackendError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, UploadResponse{Document: *result, Preflight: report})
}

func writeUploadReadError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit))
		return
	}
	writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to read upload: %v", err))
}

func (e *UploadDocumentEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file.pdf>",
		Short: "Upload a PDF for analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp UploadResponse
			if err := client.UploadFile(cmd.Context(), "/api/documents", args[0], &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
