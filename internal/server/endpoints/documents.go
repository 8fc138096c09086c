package endpoints

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/layerscope/internal/api"
	"github.com/jackzampolin/layerscope/internal/docapi"
	"github.com/jackzampolin/layerscope/internal/svcctx"
)

// DocumentItem is a listed document with its size formatted for display.
type DocumentItem struct {
	docapi.Document `yaml:",inline"`
	Size            string `json:"size,omitempty" yaml:"size,omitempty"`
}

// ListDocumentsResponse is the response for listing documents.
type ListDocumentsResponse struct {
	Documents []DocumentItem `json:"documents" yaml:"documents"`
	Total     int            `json:"total" yaml:"total"`
}

// ListDocumentsEndpoint handles GET /api/documents.
type ListDocumentsEndpoint struct{}

func (e *ListDocumentsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/documents", e.handler
}

func (e *ListDocumentsEndpoint) RequiresInit() bool { return true }

func (e *ListDocumentsEndpoint) Group() string { return "documents" }

// handler godoc
//
//	@Summary		List documents
//	@Description	List documents known to the analysis API, optionally filtered
//	@Tags			documents
//	@Produce		json
//	@Param			status	query		string	false	"complete, processing, failed or all"
//	@Param			limit	query		int		false	"Maximum number of documents (default 20)"
//	@Param			search	query		string	false	"Case-insensitive name filter"
//	@Success		200		{object}	ListDocumentsResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/documents [get]
func (e *ListDocumentsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	client := svcctx.BackendFrom(r.Context())
	if client == nil {
		writeError(w, http.StatusServiceUnavailable, "document API not configured")
		return
	}

	q := r.URL.Query()
	opts := docapi.ListOptions{Status: q.Get("status")}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		opts.Limit = limit
	}

	docs, err := client.ListDocuments(r.Context(), opts)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	docs = docapi.FilterDocuments(docs, q.Get("search"), opts.Status)

	resp := ListDocumentsResponse{Documents: make([]DocumentItem, 0, len(docs))}
	for _, d := range docs {
		item := DocumentItem{Document: d}
		if d.SizeInBytes > 0 {
			item.Size = docapi.HumanFileSize(d.SizeInBytes)
		}
		resp.Documents = append(resp.Documents, item)
	}
	resp.Total = len(resp.Documents)

	writeJSON(w, http.StatusOK, resp)
}

func (e *ListDocumentsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var status, search string
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if status != "" {
				q.Set("status", status)
			}
			if search != "" {
				q.Set("search", search)
			}
			if limit > 0 {
				q.Set("limit", strconv.Itoa(limit))
			}
			path := "/api/documents"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}

			client := api.NewClient(getServerURL())
			var resp ListDocumentsResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (complete, processing, failed, all)")
	cmd.Flags().StringVar(&search, "search", "", "Filter by name (case-insensitive)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of documents (default 20)")
	return cmd
}

// GetDocumentEndpoint handles GET /api/documents/{id}.
type GetDocumentEndpoint struct{}

func (e *GetDocumentEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/documents/{id}", e.handler
}

func (e *GetDocumentEndpoint) RequiresInit() bool { return true }

func (e *GetDocumentEndpoint) Group() string { return "documents" }

// handler godoc
//
//	@Summary		Get a document
//	@Description	Get one document with its PDF metadata and outline
//	@Tags			documents
//	@Produce		json
//	@Param			id	path		string	true	"Document ID"
//	@Success		200	{object}	docapi.Document
//	@Failure		404	{object}	ErrorResponse
//	@Failure		502	{object}	ErrorResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/api/documents/{id} [get]
func (e *GetDocumentEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "document id is required")
		return
	}

	client := svcctx.BackendFrom(r.Context())
	if client == nil {
		writeError(w, http.StatusServiceUnavailable, "document API not configured")
		return
	}

	doc, err := client.GetDocument(r.Context(), id)
	if err != nil {
		writeBackendError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

func (e *GetDocumentEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <document-id>",
		Short: "Get document details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var doc docapi.Document
			if err := client.Get(cmd.Context(), "/api/documents/"+url.PathEscape(args[0]), &doc); err != nil {
				return err
			}
			return api.Output(doc)
		},
	}
}
