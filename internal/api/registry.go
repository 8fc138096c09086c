package api

import (
	"net/http"

	"github.com/spf13/cobra"
)

// Grouped is implemented by endpoints whose CLI command lives under a
// subcommand, e.g. "sessions" for `layerscope api sessions get`.
type Grouped interface {
	Group() string
}

// Group describes a CLI subcommand that collects related endpoints.
type Group struct {
	Name  string
	Short string
}

// Registry holds all registered endpoints.
type Registry struct {
	endpoints []Endpoint
	groups    []Group
}

// NewRegistry creates a new endpoint registry.
func NewRegistry(groups ...Group) *Registry {
	return &Registry{groups: groups}
}

// Register adds an endpoint to the registry.
func (r *Registry) Register(ep Endpoint) {
	r.endpoints = append(r.endpoints, ep)
}

// RegisterRoutes registers all endpoint HTTP routes with the given mux.
// initMiddleware wraps handlers that require full server initialization.
func (r *Registry) RegisterRoutes(mux *http.ServeMux, initMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	for _, ep := range r.endpoints {
		method, path, handler := ep.Route()
		if ep.RequiresInit() {
			handler = initMiddleware(handler)
		}
		mux.HandleFunc(method+" "+path, handler)
	}
}

// BuildCommands returns a cobra.Command tree for all registered endpoints.
// Commands of Grouped endpoints go under their group's subcommand; endpoints
// without a command are skipped. getServerURL is called at runtime.
func (r *Registry) BuildCommands(getServerURL func() string) *cobra.Command {
	apiCmd := &cobra.Command{
		Use:   "api",
		Short: "Commands that call the running server",
		Long: `API commands call the running layerscope server via HTTP.

These commands require a running server (layerscope serve).
Use --server to specify a custom server URL.

Examples:
  layerscope api health                          # Check server health
  layerscope api documents list --status failed  # List failed documents
  layerscope api sessions create <doc-id>        # Open a viewer session`,
	}

	groupCmds := make(map[string]*cobra.Command, len(r.groups))
	for _, g := range r.groups {
		cmd := &cobra.Command{Use: g.Name, Short: g.Short}
		groupCmds[g.Name] = cmd
		apiCmd.AddCommand(cmd)
	}

	for _, ep := range r.endpoints {
		cmd := ep.Command(getServerURL)
		if cmd == nil {
			continue
		}
		parent := apiCmd
		if g, ok := ep.(Grouped); ok {
			if gc, ok := groupCmds[g.Group()]; ok {
				parent = gc
			}
		}
		parent.AddCommand(cmd)
	}

	return apiCmd
}

// Endpoints returns all registered endpoints.
func (r *Registry) Endpoints() []Endpoint {
	return r.endpoints
}
