package endpoints

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/layerscope/internal/api"
	"github.com/jackzampolin/layerscope/internal/config"
	"github.com/jackzampolin/layerscope/internal/svcctx"
)

const settingsGroup = "settings"

// SettingsResponse lists every configuration key with its effective value.
type SettingsResponse struct {
	Settings   []config.Entry `json:"settings" yaml:"settings"`
	ConfigFile string         `json:"config_file,omitempty" yaml:"config_file,omitempty"`
}

// redacted replaces secret values that are not environment references.
func redacted(e config.Entry) config.Entry {
	if !strings.HasSuffix(e.Key, "token") {
		return e
	}
	if s, ok := e.Value.(string); ok && s != "" && !strings.HasPrefix(s, "${") {
		e.Value = "********"
	}
	return e
}

// ListSettingsEndpoint handles GET /api/settings.
type ListSettingsEndpoint struct{}

func (e *ListSettingsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/settings", e.handler
}

func (e *ListSettingsEndpoint) RequiresInit() bool { return false }

func (e *ListSettingsEndpoint) Group() string { return settingsGroup }

// handler godoc
//
//	@Summary		List all settings
//	@Description	Get every configuration key with its effective value. Tokens are redacted.
//	@Tags			settings
//	@Produce		json
//	@Success		200	{object}	SettingsResponse
//	@Router			/api/settings [get]
func (e *ListSettingsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var resp SettingsResponse
	entries := config.DefaultEntries()
	if cm := svcctx.ConfigFrom(r.Context()); cm != nil {
		entries = cm.Entries()
		resp.ConfigFile = cm.ConfigFile()
	}
	for _, entry := range entries {
		resp.Settings = append(resp.Settings, redacted(entry))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *ListSettingsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var prefix string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp SettingsResponse
			if err := client.Get(cmd.Context(), "/api/settings", &resp); err != nil {
				return err
			}

			if prefix != "" {
				filtered := resp.Settings[:0]
				for _, s := range resp.Settings {
					if strings.HasPrefix(s.Key, prefix) {
						filtered = append(filtered, s)
					}
				}
				resp.Settings = filtered
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "Filter by key prefix (e.g., 'viewer.')")
	return cmd
}

// GetSettingEndpoint handles GET /api/settings/{key...}.
type GetSettingEndpoint struct{}

func (e *GetSettingEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/settings/{key...}", e.handler
}

func (e *GetSettingEndpoint) RequiresInit() bool { return false }

func (e *GetSettingEndpoint) Group() string { return settingsGroup }

// handler godoc
//
//	@Summary		Get a setting
//	@Description	Get a single configuration setting by key
//	@Tags			settings
//	@Produce		json
//	@Param			key	path		string	true	"Setting key (URL-encoded)"
//	@Success		200	{object}	config.Entry
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/settings/{key} [get]
func (e *GetSettingEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	key, err := url.PathUnescape(r.PathValue("key"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid key encoding")
		return
	}

	var entry *config.Entry
	if cm := svcctx.ConfigFrom(r.Context()); cm != nil {
		entry, err = cm.Lookup(key)
	} else if err = config.ValidateKey(key); err == nil {
		entry, err = config.GetDefault(key)
	}
	switch {
	case errors.Is(err, config.ErrInvalidKey):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, config.ErrNoDefault):
		writeError(w, http.StatusNotFound, "setting not found")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, redacted(*entry))
}

func (e *GetSettingEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a setting by key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var entry config.Entry
			if err := client.Get(cmd.Context(), "/api/settings/"+url.PathEscape(args[0]), &entry); err != nil {
				return err
			}
			return api.Output(entry)
		},
	}
}
