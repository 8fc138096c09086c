package endpoints

import (
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/layerscope/internal/api"
	"github.com/jackzampolin/layerscope/internal/svcctx"
	"github.com/jackzampolin/layerscope/internal/viewer"
)

// SetPageRequest selects a page. DocumentID defaults to the session's
// current document.
type SetPageRequest struct {
	DocumentID string `json:"document_id,omitempty"`
	Page       int    `json:"page"`
}

// SetPageEndpoint handles PUT /api/sessions/{id}/page.
type SetPageEndpoint struct{}

func (e *SetPageEndpoint) Route() (string, string, http.HandlerFunc) {
	return "PUT", "/api/sessions/{id}/page", e.handler
}

func (e *SetPageEndpoint) RequiresInit() bool { return true }

func (e *SetPageEndpoint) Group() string { return sessionsGroup }

// handler godoc
//
//	@Summary		Select a page
//	@Description	Load a page bundle into the session. A request overtaken by a newer one answers 409.
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Session ID"
//	@Param			request	body		SetPageRequest	true	"Page to load"
//	@Success		200		{object}	viewer.State
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/sessions/{id}/page [put]
func (e *SetPageEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req SetPageRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Page < 1 {
		writeError(w, http.StatusBadRequest, "page must be 1 or greater")
		return
	}

	client := svcctx.BackendFrom(r.Context())
	if client == nil {
		writeError(w, http.StatusServiceUnavailable, "document API not configured")
		return
	}
	sess, ok := lookupSession(w, r)
	if !ok {
		return
	}

	ref := viewer.PageRef{DocumentID: req.DocumentID, Page: req.Page}
	if ref.DocumentID == "" {
		ref.DocumentID = sess.State().Requested.DocumentID
	}
	if ref.DocumentID == "" {
		writeError(w, http.StatusBadRequest, "document_id is required for a session with no document")
		return
	}

	if err := sess.Load(r.Context(), client, ref); err != nil {
		svcctx.LoggerFrom(r.Context()).Debug("page load failed",
			"session_id", sess.ID(), "document_id", ref.DocumentID, "page", ref.Page, "error", err)
		writeBackendError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sess.State())
}

func (e *SetPageEndpoint) Command(getServerURL func() string) *cobra.Command {
	var documentID string
	cmd := &cobra.Command{
		Use:   "page <session-id> <page>",
		Short: "Select a page in a viewer session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := strconv.Atoi(args[1])
			if err != nil {
				return err
			}
			client := api.NewClient(getServerURL())
			var state viewer.State
			req := SetPageRequest{DocumentID: documentID, Page: page}
			if err := client.Put(cmd.Context(), sessionPath(args[0], "/page"), req, &state); err != nil {
				return err
			}
			return api.Output(state)
		},
	}
	cmd.Flags().StringVar(&documentID, "document", "", "Switch to another document")
	return cmd
}
