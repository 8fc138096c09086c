package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/layerscope/internal/api"
	"github.com/jackzampolin/layerscope/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the local configuration file",
	Long: `Manage the layerscope configuration file.

The file lives at ~/.layerscope/config.yaml unless --home or --config says
otherwise. Every key can also be set with a LAYERSCOPE_ environment variable.

Examples:
  layerscope config init           # Write the default config
  layerscope config show           # Print the effective config`,
}

var configForce bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := getHome()
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		path := cfgFile
		if path == "" {
			path = h.ConfigPath()
		}
		if h.ConfigExists() && path == h.ConfigPath() && !configForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}

		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			h, err := getHome()
			if err != nil {
				return err
			}
			if h.ConfigExists() {
				path = h.ConfigPath()
			}
		}
		cm, err := config.NewManager(path)
		if err != nil {
			return err
		}
		return api.Output(cm.Get())
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing config file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
