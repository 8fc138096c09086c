package endpoints

import (
	"github.com/jackzampolin/layerscope/internal/api"
)

// Config holds dependencies needed by some endpoints.
type Config struct {
	SwaggerSpecPath string
}

// Groups are the CLI subcommands endpoint commands are filed under.
func Groups() []api.Group {
	return []api.Group{
		{Name: "documents", Short: "Document commands (list, get, upload)"},
		{Name: sessionsGroup, Short: "Viewer session commands"},
		{Name: settingsGroup, Short: "Configuration settings commands"},
	}
}

// All returns all endpoint instances.
func All(cfg Config) []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ReadyEndpoint{},
		&VersionEndpoint{},

		// Document endpoints
		&ListDocumentsEndpoint{},
		&GetDocumentEndpoint{},
		&UploadDocumentEndpoint{},

		// Session endpoints
		&CreateSessionEndpoint{},
		&ListSessionsEndpoint{},
		&GetSessionEndpoint{},
		&DeleteSessionEndpoint{},
		&SetPageEndpoint{},
		&ToggleAllLayersEndpoint{},
		&ToggleLayerVisibilityEndpoint{},
		&ToggleOutliningEndpoint{},
		&ToggleLayerOutlineEndpoint{},
		&ToggleMarkersEndpoint{},
		&ResetSessionEndpoint{},
		&PlanEndpoint{},
		&OverlayEndpoint{},

		// Settings endpoints
		&ListSettingsEndpoint{},
		&GetSettingEndpoint{},

		// Swagger/OpenAPI endpoints
		&SwaggerEndpoint{SpecPath: cfg.SwaggerSpecPath},
		&SwaggerUIEndpoint{},

		// Static files (catch-all, must be last)
		&StaticEndpoint{},
	}
}

// Registry returns a registry holding every endpoint, with the CLI groups set.
func Registry(cfg Config) *api.Registry {
	r := api.NewRegistry(Groups()...)
	for _, ep := range All(cfg) {
		r.Register(ep)
	}
	return r
}
