package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/layerscope/internal/api"
	"github.com/jackzampolin/layerscope/internal/pdfcheck"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.pdf>",
	Short: "Validate a PDF locally",
	Long: `Run the same checks the server applies to uploads, without a server.

Prints the PDF version, page count and page sizes.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		report, err := pdfcheck.Inspect(f)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		return api.Output(report)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
