package config

import (
	"errors"
	"fmt"
	"unicode"
)

// ErrNoDefault is returned when no default value exists for a config key.
var ErrNoDefault = errors.New("no default exists")

// ErrInvalidKey is returned when a config key contains invalid characters.
var ErrInvalidKey = errors.New("invalid config key")

// Entry is a single configuration key with its value and description.
type Entry struct {
	Key         string `json:"key" yaml:"key"`
	Value       any    `json:"value" yaml:"value"`
	Description string `json:"description" yaml:"description"`
}

// DefaultEntries returns the default configuration entries. They seed viper's
// defaults and document every key.
func DefaultEntries() []Entry {
	d := DefaultConfig()
	return []Entry{
		// Backend
		{
			Key:         "backend.base_url",
			Value:       d.Backend.BaseURL,
			Description: "Base URL of the document analysis API",
		},
		{
			Key:         "backend.token",
			Value:       d.Backend.Token,
			Description: "Bearer token sent to the API (uses environment variable)",
		},
		{
			Key:         "backend.timeout_seconds",
			Value:       d.Backend.TimeoutSeconds,
			Description: "HTTP timeout in seconds for API requests",
		},
		{
			Key:         "backend.max_retries",
			Value:       d.Backend.MaxRetries,
			Description: "Retry attempts for failed idempotent API requests",
		},
		{
			Key:         "backend.validate_bundles",
			Value:       d.Backend.ValidateBundles,
			Description: "Validate page bundles against the JSON schema before use",
		},

		// Viewer
		{
			Key:         "viewer.default_page_width",
			Value:       d.Viewer.DefaultPageWidth,
			Description: "Page width in points when a bundle has no size",
		},
		{
			Key:         "viewer.default_page_height",
			Value:       d.Viewer.DefaultPageHeight,
			Description: "Page height in points when a bundle has no size",
		},
		{
			Key:         "viewer.marker_inset",
			Value:       d.Viewer.MarkerInset,
			Description: "Distance from the page edge zero-area markers are clamped to",
		},
		{
			Key:         "viewer.marker_size",
			Value:       d.Viewer.MarkerSize,
			Description: "Side length of zero-area marker squares",
		},

		// Sessions and uploads
		{
			Key:         "sessions.idle_timeout_minutes",
			Value:       d.Sessions.IdleTimeoutMinutes,
			Description: "Minutes of inactivity before a viewer session is evicted (0 disables)",
		},
		{
			Key:         "upload.max_bytes",
			Value:       d.Upload.MaxBytes,
			Description: "Largest PDF accepted for upload, in bytes",
		},
	}
}

// GetDefault returns the default entry for a config key.
// Returns ErrNoDefault if no default exists for the key.
func GetDefault(key string) (*Entry, error) {
	for _, entry := range DefaultEntries() {
		if entry.Key == key {
			return &entry, nil
		}
	}
	return nil, fmt.Errorf("%w for key %q", ErrNoDefault, key)
}

// ValidateKey checks if a config key contains only allowed characters.
// Valid keys contain: letters, digits, dots, underscores, and hyphens.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key cannot be empty", ErrInvalidKey)
	}
	for i, r := range key {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.' && r != '_' && r != '-' {
			return fmt.Errorf("%w: invalid character %q at position %d", ErrInvalidKey, r, i)
		}
	}
	if key[0] == '.' || key[len(key)-1] == '.' {
		return fmt.Errorf("%w: key cannot start or end with a dot", ErrInvalidKey)
	}
	return nil
}
