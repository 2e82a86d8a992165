package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kirillkom/pdf-to-excel/internal/bootstrap"
	"github.com/kirillkom/pdf-to-excel/internal/config"
	"github.com/kirillkom/pdf-to-excel/internal/core/domain"
)

type convertFlags struct {
	output       string
	strategies   string
	ocrLanguages string
	styleRules   string
	scratchDir   string
}

func newConvertCmd() *cobra.Command {
	var flags convertFlags

	cmd := &cobra.Command{
		Use:   "convert <input.pdf>",
		Short: "Convert one PDF into an .xlsx workbook",
		Example: `  pdf2xlsx convert statement.pdf
  pdf2xlsx convert scan.pdf -o scan.xlsx --strategies ocr --ocr-languages eng,hin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd.Context(), cmd.OutOrStdout(), args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output path (default: <input>_converted.xlsx next to the input)")
	cmd.Flags().StringVar(&flags.strategies, "strategies", "", "Comma separated strategies to try (default: EXTRACTION_STRATEGIES or the full chain)")
	cmd.Flags().StringVar(&flags.ocrLanguages, "ocr-languages", "", "Tesseract languages for OCR, e.g. eng,hin")
	cmd.Flags().StringVar(&flags.styleRules, "style-rules", "", "YAML file with header style rules")
	cmd.Flags().StringVar(&flags.scratchDir, "scratch-dir", "", "Directory for transient files (default: a fresh temp dir)")
	return cmd
}

func runConvert(ctx context.Context, stdout io.Writer, input string, flags convertFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := config.Load()
	if flags.strategies != "" {
		cfg.ExtractionStrategies = flags.strategies
	}
	if flags.ocrLanguages != "" {
		cfg.OCRLanguages = flags.ocrLanguages
	}
	if flags.styleRules != "" {
		cfg.StyleRulesFile = flags.styleRules
	}

	cfg.StoragePath = flags.scratchDir
	if cfg.StoragePath == "" {
		dir, err := os.MkdirTemp("", "pdf2xlsx-*")
		if err != nil {
			return fmt.Errorf("create scratch dir: %w", err)
		}
		defer os.RemoveAll(dir)
		cfg.StoragePath = dir
	}

	source, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer source.Close()

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Service: "cli"})
	if err != nil {
		return err
	}
	defer app.Close()

	result, err := app.Converter.Convert(ctx, filepath.Base(input), source)
	if result != nil {
		defer app.Lifecycle.Purge(result.Job.InputPath, result.Job.OutputPath)
	}
	if err != nil {
		if domain.IsKind(err, domain.ErrNoContentFound) {
			return fmt.Errorf("no extractable content found in %s", input)
		}
		return fmt.Errorf("convert %s: %w", input, err)
	}

	output := flags.output
	if output == "" {
		output = filepath.Join(filepath.Dir(input), result.DownloadName)
	}
	if err := copyArtifact(ctx, app, result.OutputKey, output); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "written: %s (strategy=%s rows=%d columns=%d)\n",
		output, result.Job.Strategy, result.Job.Rows, result.Job.Columns)
	return nil
}

func copyArtifact(ctx context.Context, app *bootstrap.App, key, output string) error {
	body, err := app.Storage.Open(ctx, key)
	if err != nil {
		return fmt.Errorf("open converted workbook: %w", err)
	}
	defer body.Close()

	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	out, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if _, err := io.Copy(out, body); err != nil {
		_ = out.Close()
		return fmt.Errorf("write output: %w", err)
	}
	return out.Close()
}
