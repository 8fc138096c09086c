package endpoints

import (
	"bytes"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/layerscope/internal/api"
	"github.com/jackzampolin/layerscope/internal/home"
	"github.com/jackzampolin/layerscope/internal/viewer"
)

// PlanEndpoint handles GET /api/sessions/{id}/plan.
type PlanEndpoint struct{}

func (e *PlanEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/sessions/{id}/plan", e.handler
}

func (e *PlanEndpoint) RequiresInit() bool { return false }

func (e *PlanEndpoint) Group() string { return sessionsGroup }

// handler godoc
//
//	@Summary		Get the render plan
//	@Description	Raster layers, object outlines, zero-area anomalies and markers for the session's page
//	@Tags			sessions
//	@Produce		json
//	@Param			id	path		string	true	"Session ID"
//	@Success		200	{object}	viewer.Plan
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/sessions/{id}/plan [get]
func (e *PlanEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	sess, ok := lookupSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Plan())
}

func (e *PlanEndpoint) Command(getServerURL func() string) *cobra.Command {
	var outputFile string
	cmd := &cobra.Command{
		Use:   "plan <session-id>",
		Short: "Show the render plan of a session's page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var plan viewer.Plan
			if err := client.Get(cmd.Context(), sessionPath(args[0], "/plan"), &plan); err != nil {
				return err
			}
			if outputFile != "" {
				return api.OutputToFile(plan, outputFile)
			}
			return api.Output(plan)
		},
	}
	cmd.Flags().StringVar(&outputFile, "file", "", "Write the plan to a file (.json or .yaml)")
	return cmd
}

// OverlayEndpoint handles GET /api/sessions/{id}/overlay.svg.
type OverlayEndpoint struct{}

func (e *OverlayEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/sessions/{id}/overlay.svg", e.handler
}

func (e *OverlayEndpoint) RequiresInit() bool { return false }

func (e *OverlayEndpoint) Group() string { return sessionsGroup }

// handler godoc
//
//	@Summary		Render the overlay
//	@Description	The session's page as an SVG: layer images with outlines and markers on top
//	@Tags			sessions
//	@Produce		image/svg+xml
//	@Param			id	path		string	true	"Session ID"
//	@Success		200	{string}	string	"SVG document"
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/sessions/{id}/overlay.svg [get]
func (e *OverlayEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	sess, ok := lookupSession(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := viewer.RenderSVG(&buf, sess.Plan()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

func (e *OverlayEndpoint) Command(getServerURL func() string) *cobra.Command {
	var outputFile string
	var save bool
	cmd := &cobra.Command{
		Use:   "overlay <session-id>",
		Short: "Render a session's page overlay as SVG",
		Long: `Render a session's page overlay as SVG.

Without --file or --save the SVG is written to stdout. --save stores it in
the exports directory of the layerscope home as <document>_page_<n>.svg.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := api.NewClient(getServerURL())

			svg, err := client.GetRaw(ctx, sessionPath(args[0], "/overlay.svg"))
			if err != nil {
				return err
			}

			if save && outputFile == "" {
				var state viewer.State
				if err := client.Get(ctx, sessionPath(args[0], ""), &state); err != nil {
					return err
				}
				if state.DocumentID == "" {
					return fmt.Errorf("session %s has no page loaded", args[0])
				}
				homePath, _ := cmd.Flags().GetString("home")
				h, err := home.New(homePath)
				if err != nil {
					return err
				}
				if err := h.EnsureExists(); err != nil {
					return err
				}
				outputFile = h.ExportPath(state.DocumentID, state.Page)
			}

			if outputFile == "" {
				_, err := os.Stdout.Write(svg)
				return err
			}
			if err := os.WriteFile(outputFile, svg, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", outputFile, err)
			}
			fmt.Fprintf(os.Stderr, "Saved %s\n", outputFile)
			return nil
		},
	}
	cmd.Flags().StringVar(&outputFile, "file", "", "Write the SVG to this path")
	cmd.Flags().BoolVar(&save, "save", false, "Save the SVG to the home exports directory")
	return cmd
}
