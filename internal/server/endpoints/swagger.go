package endpoints

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/layerscope/internal/api"
	"github.com/jackzampolin/layerscope/version"
)

// SwaggerEndpoint serves the generated OpenAPI document (see docs/doc.go).
// The host and version fields are rewritten to match the answering server,
// so "try it out" works whatever --host/--port the server runs with.
type SwaggerEndpoint struct {
	SpecPath string
}

func (e *SwaggerEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/swagger.json", e.handler
}

func (e *SwaggerEndpoint) RequiresInit() bool { return false }

func (e *SwaggerEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	path := e.SpecPath
	if path == "" {
		path = GetSwaggerSpecPath()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		writeError(w, http.StatusNotFound, "swagger.json not found, run go generate ./docs")
		return
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		writeError(w, http.StatusInternalServerError, "swagger.json is not valid JSON")
		return
	}

	doc["host"] = r.Host
	if info, ok := doc["info"].(map[string]any); ok {
		info["version"] = version.GitRelease
	}
	writeJSON(w, http.StatusOK, doc)
}

func (e *SwaggerEndpoint) Command(getServerURL func() string) *cobra.Command {
	var outputFile string
	cmd := &cobra.Command{
		Use:   "swagger",
		Short: "Fetch the server's OpenAPI document",
		RunE: func(cmd *cobra.Command, args []string) error {
			var doc map[string]any
			if err := api.NewClient(getServerURL()).Get(cmd.Context(), "/swagger.json", &doc); err != nil {
				return err
			}
			if outputFile == "" {
				return api.Output(doc)
			}
			return api.OutputToFile(doc, outputFile)
		},
	}
	cmd.Flags().StringVar(&outputFile, "file", "", "Write to a .json or .yaml file instead of stdout")
	return cmd
}

// SwaggerUIEndpoint serves a Swagger UI page backed by /swagger.json.
type SwaggerUIEndpoint struct{}

func (e *SwaggerUIEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/swagger", e.handler
}

func (e *SwaggerUIEndpoint) RequiresInit() bool { return false }

const swaggerUIPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>layerscope API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="api-docs"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/swagger.json',
      dom_id: '#api-docs',
      deepLinking: true,
      tryItOutEnabled: true,
      tagsSorter: 'alpha',
    });
  </script>
</body>
</html>`

func (e *SwaggerUIEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(swaggerUIPage))
}

func (e *SwaggerUIEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:    "swagger-ui",
		Hidden: true,
		Short:  "Print the API docs address",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Println(getServerURL() + "/swagger")
			return nil
		},
	}
}

// GetSwaggerSpecPath looks for docs/swagger/swagger.json next to the binary,
// then relative to the working directory.
func GetSwaggerSpecPath() string {
	rel := filepath.Join("docs", "swagger", "swagger.json")
	if exe, err := os.Executable(); err == nil {
		p := filepath.Join(filepath.Dir(exe), rel)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return rel
}
