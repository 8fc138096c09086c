package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/layerscope/internal/config"
	"github.com/jackzampolin/layerscope/internal/server"
	"github.com/jackzampolin/layerscope/internal/server/endpoints"
)

var (
	serveHost  string
	servePort  string
	serveDebug bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the layerscope server",
	Long: `Start the layerscope HTTP server.

The server proxies the document analysis API configured under backend.base_url
and keeps viewer sessions in memory. Without a base URL it still starts, but
document and page endpoints answer 503 until the config file provides one.
Edits to the config file are picked up without a restart.

The server provides:
  - /health      - Basic server health check
  - /ready       - Readiness check (includes document API status)
  - /api/...     - Documents, sessions and settings
  - /swagger     - API documentation

Examples:
  layerscope serve                    # Start on default port 8080
  layerscope serve --port 3000        # Start on custom port
  layerscope serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		level := slog.LevelInfo
		if serveDebug {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		}))

		h, err := getHome()
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		// Explicit --config wins, then the home directory's config.yaml
		path := cfgFile
		if path == "" && h.ConfigExists() {
			path = h.ConfigPath()
		}
		cfgMgr, err := config.NewManager(path)
		if err != nil {
			return err
		}
		cfgMgr.OnError(func(err error) {
			logger.Error("config reload failed, keeping previous config", "error", err)
		})
		cfgMgr.WatchConfig()
		if f := cfgMgr.ConfigFile(); f != "" {
			logger.Info("using config file", "path", f)
		}

		srv, err := server.New(server.Config{
			Host:            serveHost,
			Port:            servePort,
			ConfigManager:   cfgMgr,
			Home:            h,
			SwaggerSpecPath: endpoints.GetSwaggerSpecPath(),
			Logger:          logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to")
	serveCmd.Flags().StringVar(&servePort, "port", "8080", "Port to listen on")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Log every API request")

	rootCmd.AddCommand(serveCmd)
}
