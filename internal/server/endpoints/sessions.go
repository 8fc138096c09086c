package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/layerscope/internal/api"
	"github.com/jackzampolin/layerscope/internal/svcctx"
	"github.com/jackzampolin/layerscope/internal/viewer"
)

const sessionsGroup = "sessions"

// CreateSessionRequest is the request body for creating a viewer session.
// With a document ID the first page (or Page) is loaded straight away.
type CreateSessionRequest struct {
	DocumentID string `json:"document_id,omitempty"`
	Page       int    `json:"page,omitempty"`
}

// ListSessionsResponse is the response for listing sessions.
type ListSessionsResponse struct {
	Sessions []viewer.State `json:"sessions" yaml:"sessions"`
}

// decodeOptional decodes a JSON body into v, accepting an empty body.
func decodeOptional(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// CreateSessionEndpoint handles POST /api/sessions.
type CreateSessionEndpoint struct{}

func (e *CreateSessionEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/sessions", e.handler
}

func (e *CreateSessionEndpoint) RequiresInit() bool { return true }

func (e *CreateSessionEndpoint) Group() string { return sessionsGroup }

// handler godoc
//
//	@Summary		Create a viewer session
//	@Description	Open a viewer session, optionally loading a document page
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateSessionRequest	false	"Document to open"
//	@Success		201		{object}	viewer.State
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/sessions [post]
func (e *CreateSessionEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Page < 0 {
		writeError(w, http.StatusBadRequest, "page must be 1 or greater")
		return
	}

	mgr := svcctx.SessionsFrom(r.Context())
	if mgr == nil {
		writeError(w, http.StatusServiceUnavailable, "session manager not initialized")
		return
	}
	client := svcctx.BackendFrom(r.Context())
	if client == nil {
		writeError(w, http.StatusServiceUnavailable, "document API not configured")
		return
	}

	sess := mgr.Create()
	if req.DocumentID != "" {
		if req.Page == 0 {
			req.Page = 1
		}
		ref := viewer.PageRef{DocumentID: req.DocumentID, Page: req.Page}
		if err := sess.Load(r.Context(), client, ref); err != nil {
			mgr.Delete(sess.ID())
			writeBackendError(w, err)
			return
		}
	}

	svcctx.LoggerFrom(r.Context()).Info("session created",
		"session_id", sess.ID(), "document_id", req.DocumentID, "page", req.Page)
	writeJSON(w, http.StatusCreated, sess.State())
}

func (e *CreateSessionEndpoint) Command(getServerURL func() string) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "create [document-id]",
		Short: "Open a viewer session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := CreateSessionRequest{Page: page}
			if len(args) == 1 {
				req.DocumentID = args[0]
			}
			client := api.NewClient(getServerURL())
			var state viewer.State
			if err := client.Post(cmd.Context(), "/api/sessions", req, &state); err != nil {
				return err
			}
			return api.Output(state)
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "Page to open (default 1)")
	return cmd
}

// ListSessionsEndpoint handles GET /api/sessions.
type ListSessionsEndpoint struct{}

func (e *ListSessionsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/sessions", e.handler
}

func (e *ListSessionsEndpoint) RequiresInit() bool { return false }

func (e *ListSessionsEndpoint) Group() string { return sessionsGroup }

// handler godoc
//
//	@Summary		List viewer sessions
//	@Description	List all open viewer sessions
//	@Tags			sessions
//	@Produce		json
//	@Success		200	{object}	ListSessionsResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/api/sessions [get]
func (e *ListSessionsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	mgr := svcctx.SessionsFrom(r.Context())
	if mgr == nil {
		writeError(w, http.StatusServiceUnavailable, "session manager not initialized")
		return
	}

	resp := ListSessionsResponse{Sessions: []viewer.State{}}
	for _, s := range mgr.List() {
		resp.Sessions = append(resp.Sessions, s.State())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *ListSessionsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List viewer sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ListSessionsResponse
			if err := client.Get(cmd.Context(), "/api/sessions", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// GetSessionEndpoint handles GET /api/sessions/{id}.
type GetSessionEndpoint struct{}

func (e *GetSessionEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/sessions/{id}", e.handler
}

func (e *GetSessionEndpoint) RequiresInit() bool { return false }

func (e *GetSessionEndpoint) Group() string { return sessionsGroup }

// handler godoc
//
//	@Summary		Get a viewer session
//	@Description	Get a session's page, layer views and toggle state
//	@Tags			sessions
//	@Produce		json
//	@Param			id	path		string	true	"Session ID"
//	@Success		200	{object}	viewer.State
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/sessions/{id} [get]
func (e *GetSessionEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	sess, ok := lookupSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.State())
}

func (e *GetSessionEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <session-id>",
		Short: "Get a viewer session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var state viewer.State
			if err := client.Get(cmd.Context(), sessionPath(args[0], ""), &state); err != nil {
				return err
			}
			return api.Output(state)
		},
	}
}

// DeleteSessionEndpoint handles DELETE /api/sessions/{id}.
type DeleteSessionEndpoint struct{}

func (e *DeleteSessionEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/sessions/{id}", e.handler
}

func (e *DeleteSessionEndpoint) RequiresInit() bool { return false }

func (e *DeleteSessionEndpoint) Group() string { return sessionsGroup }

// handler godoc
//
//	@Summary		Close a viewer session
//	@Description	Delete a session and its layer state
//	@Tags			sessions
//	@Param			id	path	string	true	"Session ID"
//	@Success		204	"No Content"
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/sessions/{id} [delete]
func (e *DeleteSessionEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	mgr := svcctx.SessionsFrom(r.Context())
	if mgr == nil {
		writeError(w, http.StatusServiceUnavailable, "session manager not initialized")
		return
	}
	id := r.PathValue("id")
	if err := mgr.Delete(id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (e *DeleteSessionEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Close a viewer session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			if err := client.Delete(cmd.Context(), sessionPath(args[0], "")); err != nil {
				return err
			}
			fmt.Println("Session closed")
			return nil
		},
	}
}

// sessionPath builds the API path of a session resource.
func sessionPath(id, suffix string) string {
	return "/api/sessions/" + url.PathEscape(id) + suffix
}
