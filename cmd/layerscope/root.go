package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/layerscope/internal/api"
	"github.com/jackzampolin/layerscope/internal/home"
	"github.com/jackzampolin/layerscope/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "layerscope",
	Short: "Inspect the layer structure of analysed PDF pages",
	Long: `layerscope is a local viewer for PDF structure analysis.

It fronts a document analysis API and keeps viewer sessions in memory:
  - Upload PDFs and list analysed documents
  - Page through documents, stacking per-layer rasters
  - Toggle layer visibility and object outlines
  - Mark zero-area objects that would otherwise be invisible
  - Export the overlay of any page as SVG`,
	Version:      version.GitRelease,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.layerscope/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "layerscope home directory (default: ~/.layerscope)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}

func getHome() (*home.Dir, error) {
	return home.New(homeDir)
}
