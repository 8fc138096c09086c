package endpoints

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/layerscope/internal/api"
	"github.com/jackzampolin/layerscope/internal/svcctx"
	"github.com/jackzampolin/layerscope/version"
)

// HealthResponse is the response for health check endpoints.
type HealthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend,omitempty"`
}

// HealthEndpoint handles GET /health.
type HealthEndpoint struct{}

func (e *HealthEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/health", e.handler
}

func (e *HealthEndpoint) RequiresInit() bool { return false }

func (e *HealthEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (e *HealthEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp HealthResponse
			if err := client.Get(cmd.Context(), "/health", &resp); err != nil {
				return err
			}
			fmt.Printf("Status: %s\n", resp.Status)
			return nil
		},
	}
}

// ReadyEndpoint handles GET /ready.
type ReadyEndpoint struct{}

func (e *ReadyEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/ready", e.handler
}

func (e *ReadyEndpoint) RequiresInit() bool { return false }

// handler reports ready only when the document API answers /version.
func (e *ReadyEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Backend: "ok"}

	client := svcctx.BackendFrom(r.Context())
	if client == nil {
		resp.Status = "degraded"
		resp.Backend = "not_configured"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	if _, err := client.Version(r.Context()); err != nil {
		svcctx.LoggerFrom(r.Context()).Warn("document API not reachable", "error", err)
		resp.Status = "degraded"
		resp.Backend = "unreachable"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *ReadyEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "ready",
		Short: "Check server readiness (includes the document API)",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp HealthResponse
			if err := client.Get(cmd.Context(), "/ready", &resp); err != nil {
				return err
			}
			fmt.Printf("Status:  %s\n", resp.Status)
			if resp.Backend != "" {
				fmt.Printf("Backend: %s\n", resp.Backend)
			}
			return nil
		},
	}
}

// VersionResponse pairs the backend's version with this server's.
type VersionResponse struct {
	Backend string `json:"backend" yaml:"backend"`
	Server  string `json:"server" yaml:"server"`
	BaseURL string `json:"base_url" yaml:"base_url"`
}

// VersionEndpoint handles GET /api/version.
type VersionEndpoint struct{}

func (e *VersionEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/version", e.handler
}

func (e *VersionEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Get versions
//	@Description	Get the document API version and the layerscope server version
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	VersionResponse
//	@Failure		502	{object}	ErrorResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/api/version [get]
func (e *VersionEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	client := svcctx.BackendFrom(r.Context())
	if client == nil {
		writeError(w, http.StatusServiceUnavailable, "document API not configured")
		return
	}

	v, err := client.Version(r.Context())
	if err != nil {
		writeBackendError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, VersionResponse{
		Backend: v.Version,
		Server:  version.GitRelease,
		BaseURL: client.BaseURL(),
	})
}

func (e *VersionEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the document API and server versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp VersionResponse
			if err := client.Get(cmd.Context(), "/api/version", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
