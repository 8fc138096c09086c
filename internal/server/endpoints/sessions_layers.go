package endpoints

import (
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/layerscope/internal/api"
	"github.com/jackzampolin/layerscope/internal/viewer"
)

// The endpoints in this file drive a session's layer state. Each answers with
// the updated viewer.State.

// postAction runs a state transition from the CLI and prints the new state.
func postAction(cmd *cobra.Command, serverURL, path string) error {
	client := api.NewClient(serverURL)
	var state viewer.State
	if err := client.Post(cmd.Context(), path, nil, &state); err != nil {
		return err
	}
	return api.Output(state)
}

// applyToSession resolves the session, applies fn and writes the new state.
func applyToSession(w http.ResponseWriter, r *http.Request, fn func(*viewer.Session)) {
	sess, ok := lookupSession(w, r)
	if !ok {
		return
	}
	fn(sess)
	writeJSON(w, http.StatusOK, sess.State())
}

// applyToLayer is applyToSession for transitions that target one layer.
func applyToLayer(w http.ResponseWriter, r *http.Request, fn func(*viewer.Session, int)) {
	z, ok := zIndexParam(w, r)
	if !ok {
		return
	}
	applyToSession(w, r, func(s *viewer.Session) { fn(s, z) })
}

func layerArgs(args []string) (string, int, error) {
	z, err := strconv.Atoi(args[1])
	return args[0], z, err
}

// ToggleAllLayersEndpoint handles POST /api/sessions/{id}/layers/toggle-all.
type ToggleAllLayersEndpoint struct{}

func (e *ToggleAllLayersEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/sessions/{id}/layers/toggle-all", e.handler
}

func (e *ToggleAllLayersEndpoint) RequiresInit() bool { return false }

func (e *ToggleAllLayersEndpoint) Group() string { return sessionsGroup }

// handler godoc
//
//	@Summary		Toggle all layers
//	@Description	Show every layer, or hide every layer when all are shown
//	@Tags			sessions
//	@Produce		json
//	@Param			id	path		string	true	"Session ID"
//	@Success		200	{object}	viewer.State
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/sessions/{id}/layers/toggle-all [post]
func (e *ToggleAllLayersEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	applyToSession(w, r, (*viewer.Session).ToggleAllLayers)
}

func (e *ToggleAllLayersEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle-all <session-id>",
		Short: "Toggle visibility of all layers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return postAction(cmd, getServerURL(), sessionPath(args[0], "/layers/toggle-all"))
		},
	}
}

// ToggleLayerVisibilityEndpoint handles POST /api/sessions/{id}/layers/{z}/visibility.
type ToggleLayerVisibilityEndpoint struct{}

func (e *ToggleLayerVisibilityEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/sessions/{id}/layers/{z}/visibility", e.handler
}

func (e *ToggleLayerVisibilityEndpoint) RequiresInit() bool { return false }

func (e *ToggleLayerVisibilityEndpoint) Group() string { return sessionsGroup }

// handler godoc
//
//	@Summary		Toggle a layer
//	@Description	Show or hide one layer. Hiding also turns its outline off.
//	@Tags			sessions
//	@Produce		json
//	@Param			id	path		string	true	"Session ID"
//	@Param			z	path		int		true	"Layer z-index"
//	@Success		200	{object}	viewer.State
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/sessions/{id}/layers/{z}/visibility [post]
func (e *ToggleLayerVisibilityEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	applyToLayer(w, r, (*viewer.Session).ToggleLayerVisibility)
}

func (e *ToggleLayerVisibilityEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle-layer <session-id> <z-index>",
		Short: "Toggle visibility of one layer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, z, err := layerArgs(args)
			if err != nil {
				return err
			}
			return postAction(cmd, getServerURL(), sessionPath(id, "/layers/"+strconv.Itoa(z)+"/visibility"))
		},
	}
}

// ToggleOutliningEndpoint handles POST /api/sessions/{id}/outlines/toggle.
type ToggleOutliningEndpoint struct{}

func (e *ToggleOutliningEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/sessions/{id}/outlines/toggle", e.handler
}

func (e *ToggleOutliningEndpoint) RequiresInit() bool { return false }

func (e *ToggleOutliningEndpoint) Group() string { return sessionsGroup }

// handler godoc
//
//	@Summary		Toggle object outlines
//	@Description	Turn object outlining on for every visible layer, or off for all
//	@Tags			sessions
//	@Produce		json
//	@Param			id	path		string	true	"Session ID"
//	@Success		200	{object}	viewer.State
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/sessions/{id}/outlines/toggle [post]
func (e *ToggleOutliningEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	applyToSession(w, r, (*viewer.Session).ToggleOutlining)
}

func (e *ToggleOutliningEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "outlines <session-id>",
		Short: "Toggle object outlines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return postAction(cmd, getServerURL(), sessionPath(args[0], "/outlines/toggle"))
		},
	}
}

// ToggleLayerOutlineEndpoint handles POST /api/sessions/{id}/layers/{z}/outline.
type ToggleLayerOutlineEndpoint struct{}

func (e *ToggleLayerOutlineEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/sessions/{id}/layers/{z}/outline", e.handler
}

func (e *ToggleLayerOutlineEndpoint) RequiresInit() bool { return false }

func (e *ToggleLayerOutlineEndpoint) Group() string { return sessionsGroup }

// handler godoc
//
//	@Summary		Toggle a layer's outline
//	@Description	Outline one layer's objects. Has no effect on a hidden layer.
//	@Tags			sessions
//	@Produce		json
//	@Param			id	path		string	true	"Session ID"
//	@Param			z	path		int		true	"Layer z-index"
//	@Success		200	{object}	viewer.State
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/sessions/{id}/layers/{z}/outline [post]
func (e *ToggleLayerOutlineEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	applyToLayer(w, r, (*viewer.Session).ToggleLayerOutlining)
}

func (e *ToggleLayerOutlineEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "outline-layer <session-id> <z-index>",
		Short: "Toggle the outline of one layer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, z, err := layerArgs(args)
			if err != nil {
				return err
			}
			return postAction(cmd, getServerURL(), sessionPath(id, "/layers/"+strconv.Itoa(z)+"/outline"))
		},
	}
}

// ToggleMarkersEndpoint handles POST /api/sessions/{id}/markers/toggle.
type ToggleMarkersEndpoint struct{}

func (e *ToggleMarkersEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/sessions/{id}/markers/toggle", e.handler
}

func (e *ToggleMarkersEndpoint) RequiresInit() bool { return false }

func (e *ToggleMarkersEndpoint) Group() string { return sessionsGroup }

// handler godoc
//
//	@Summary		Toggle zero-area markers
//	@Description	Show or hide markers for objects with a zero-area bounding box
//	@Tags			sessions
//	@Produce		json
//	@Param			id	path		string	true	"Session ID"
//	@Success		200	{object}	viewer.State
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/sessions/{id}/markers/toggle [post]
func (e *ToggleMarkersEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	applyToSession(w, r, (*viewer.Session).ToggleMarkers)
}

func (e *ToggleMarkersEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "markers <session-id>",
		Short: "Toggle zero-area markers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return postAction(cmd, getServerURL(), sessionPath(args[0], "/markers/toggle"))
		},
	}
}

// ResetSessionEndpoint handles POST /api/sessions/{id}/reset.
type ResetSessionEndpoint struct{}

func (e *ResetSessionEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/sessions/{id}/reset", e.handler
}

func (e *ResetSessionEndpoint) RequiresInit() bool { return false }

func (e *ResetSessionEndpoint) Group() string { return sessionsGroup }

// handler godoc
//
//	@Summary		Reset layer state
//	@Description	Show every layer, turn outlines and markers off and drop per-layer overrides
//	@Tags			sessions
//	@Produce		json
//	@Param			id	path		string	true	"Session ID"
//	@Success		200	{object}	viewer.State
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/sessions/{id}/reset [post]
func (e *ResetSessionEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	applyToSession(w, r, (*viewer.Session).Reset)
}

func (e *ResetSessionEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <session-id>",
		Short: "Reset a session's layer state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return postAction(cmd, getServerURL(), sessionPath(args[0], "/reset"))
		},
	}
}
