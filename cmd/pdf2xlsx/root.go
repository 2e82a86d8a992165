package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/kirillkom/pdf-to-excel/internal/observability/logging"
)

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "pdf2xlsx",
		Short: "Convert PDF documents into styled Excel workbooks",
		Long: `pdf2xlsx extracts tables and text from a PDF and writes them to a single
styled worksheet. Ruled tables are tried first, then whitespace tables, layout
text, Unicode text and finally OCR.

Usage:
  pdf2xlsx convert <input.pdf> [flags]`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), "cli", logLevel, "text"))
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(newConvertCmd())
	return root
}
