package config

import "time"

// Config holds layerscope configuration.
// Stored at: {home}/config.yaml
type Config struct {
	Backend  BackendCfg  `mapstructure:"backend" yaml:"backend"`
	Viewer   ViewerCfg   `mapstructure:"viewer" yaml:"viewer"`
	Sessions SessionsCfg `mapstructure:"sessions" yaml:"sessions"`
	Upload   UploadCfg   `mapstructure:"upload" yaml:"upload"`
}

// BackendCfg configures the document analysis API.
type BackendCfg struct {
	BaseURL         string `mapstructure:"base_url" yaml:"base_url"`
	Token           string `mapstructure:"token" yaml:"token"` // supports ${ENV_VAR} syntax
	TimeoutSeconds  int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	MaxRetries      int    `mapstructure:"max_retries" yaml:"max_retries"`
	ValidateBundles bool   `mapstructure:"validate_bundles" yaml:"validate_bundles"`
}

// ViewerCfg holds page geometry defaults.
type ViewerCfg struct {
	DefaultPageWidth  float64 `mapstructure:"default_page_width" yaml:"default_page_width"`
	DefaultPageHeight float64 `mapstructure:"default_page_height" yaml:"default_page_height"`
	MarkerInset       float64 `mapstructure:"marker_inset" yaml:"marker_inset"`
	MarkerSize        float64 `mapstructure:"marker_size" yaml:"marker_size"`
}

// SessionsCfg configures viewer session lifetime.
type SessionsCfg struct {
	IdleTimeoutMinutes int `mapstructure:"idle_timeout_minutes" yaml:"idle_timeout_minutes"`
}

// UploadCfg limits uploads accepted by the server.
type UploadCfg struct {
	MaxBytes int64 `mapstructure:"max_bytes" yaml:"max_bytes"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendCfg{
			BaseURL:         "http://localhost:8000/api",
			Token:           "${LAYERSCOPE_TOKEN}",
			TimeoutSeconds:  30,
			MaxRetries:      3,
			ValidateBundles: true,
		},
		Viewer: ViewerCfg{
			DefaultPageWidth:  612,
			DefaultPageHeight: 792,
			MarkerInset:       24,
			MarkerSize:        20,
		},
		Sessions: SessionsCfg{
			IdleTimeoutMinutes: 60,
		},
		Upload: UploadCfg{
			MaxBytes: 100 << 20,
		},
	}
}

// ResolvedToken returns the bearer token with ${ENV_VAR} references expanded.
func (b BackendCfg) ResolvedToken() string {
	return ResolveEnvVars(b.Token)
}

// Timeout returns the request timeout as a duration.
func (b BackendCfg) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// IdleTimeout returns the session idle timeout as a duration.
func (s SessionsCfg) IdleTimeout() time.Duration {
	return time.Duration(s.IdleTimeoutMinutes) * time.Minute
}
