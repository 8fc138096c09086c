// Package docs provides generated OpenAPI documentation.
//
// layerscope API
//
//	@title			layerscope API
//	@version		1.0
//	@description	Local viewer server for PDF layer structure: documents, viewer sessions and overlays.
//
//	@contact.name	API Support
//	@contact.url	https://github.com/jackzampolin/layerscope
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@schemes	http
package docs

//go:generate swag init -g ../cmd/layerscope/serve.go -o ./swagger --parseDependency --parseInternal
