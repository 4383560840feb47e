package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"docextract/internal/export"
	"docextract/internal/logger"
	"docextract/internal/processing"
	"docextract/internal/report"
	"docextract/internal/sheets"
)

var processCmd = &cobra.Command{
	Use:   "process <file|dir>...",
	Short: "OCR, classify and parse documents",
	Long: `Run the full pipeline over one or more files or directories:

  1. validate the file (existence, format, size)
  2. extract text with the configured OCR engine
  3. optionally clean the text up with a language model (--enhance)
  4. detect the document type and, with --type, reject other types
  5. extract the document fields

Directories contribute their supported files (not recursive). Files are
processed concurrently; a failing file does not stop the others. Results
can additionally be appended to a Google Sheet (--sheet, needs
GOOGLE_SHEET_URL) and/or written to an xlsx workbook (--xlsx).`,
	Example: `  # Process a single passport scan
  docextract process passport.jpg --type passport

  # Process a folder and export to Excel
  docextract process ./scans --xlsx documents.xlsx

  # JSON output with LLM clean-up, appended to the configured Google Sheet
  docextract process ./scans --enhance --format json --sheet`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringP("type", "t", "", "Expected document type: Passport, EmiratesID or UAETradeLicense")
	processCmd.Flags().Bool("enhance", false, "Clean up OCR text with the configured language model")
	processCmd.Flags().StringP("format", "f", "text", "Output format: text, json or yaml")
	processCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	processCmd.Flags().Bool("sheet", false, "Append results to the Google Sheet in GOOGLE_SHEET_URL")
	processCmd.Flags().String("sheet-name", "", "Worksheet name (default: GOOGLE_SHEET_WORKSHEET)")
	processCmd.Flags().String("xlsx", "", "Write results to this xlsx file")
	processCmd.Flags().IntP("workers", "w", processing.DefaultWorkers, "Number of documents processed in parallel")
	processCmd.Flags().Int("timeout", 600, "Overall timeout in seconds")
}

func runProcess(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("process")

	forceEnhance, _ := cmd.Flags().GetBool("enhance")
	writeSheet, _ := cmd.Flags().GetBool("sheet")
	sheetName, _ := cmd.Flags().GetString("sheet-name")
	xlsxPath, _ := cmd.Flags().GetString("xlsx")
	workers, _ := cmd.Flags().GetInt("workers")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	cfg, err := appConfig()
	if err != nil {
		return err
	}

	expected, err := familyFlag(cmd)
	if err != nil {
		return err
	}

	printer, err := newPrinter(cmd)
	if err != nil {
		return err
	}

	if writeSheet && cfg.GoogleSheetURL == "" {
		return fmt.Errorf("GOOGLE_SHEET_URL environment variable is required for --sheet")
	}
	if sheetName == "" {
		sheetName = cfg.GoogleSheetWorksheet
	}

	files, err := processing.CollectFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no supported documents found in %s", strings.Join(args, ", "))
	}

	log.Info().
		Int("files", len(files)).
		Int("workers", workers).
		Bool("enhance", forceEnhance || cfg.EnhanceEnabled).
		Msg("Starting document processing")

	ctx, cancel := createContextWithTimeout(time.Duration(timeoutSecs)*time.Second, log)
	defer cancel()

	p, err := newPipeline(ctx, cfg, forceEnhance, log)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := p.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close OCR service")
		}
	}()

	if p.enhancer != nil && !p.enhancer.IsServerAvailable(ctx) {
		log.Warn().Str("url", cfg.EnhanceBaseURL).Msg("Enhancement server not reachable, raw OCR text will be used")
	}

	noColor, _ := cmd.Flags().GetBool("no-color")
	progress := color.New(color.FgCyan)
	if noColor {
		progress.DisableColor()
	}
	stderr := cmd.ErrOrStderr()

	items := p.service.ProcessAll(ctx, files, expected, workers, func(done, total int, item processing.BatchItem) {
		status := "ok"
		if !item.OK() {
			status = "failed"
		}
		progress.Fprintf(stderr, "[%d/%d] %s: %s\n", done, total, item.Path, status)
	})

	if err := emit(cmd, printer, printable(items), log); err != nil {
		return err
	}

	now := time.Now()
	if xlsxPath != "" {
		if err := export.WriteFile(xlsxPath, items, now); err != nil {
			return fmt.Errorf("failed to write xlsx: %w", err)
		}
		log.Info().Str("file", xlsxPath).Int("rows", len(items)).Msg("Workbook written")
	}

	if writeSheet {
		sheetsService, err := sheets.NewSheetsService(ctx, cfg.GoogleSheetURL, cfg.GoogleServiceAccountKey)
		if err != nil {
			return fmt.Errorf("failed to create Google Sheets service: %w", err)
		}
		n, err := sheetsService.WriteBatchResults(ctx, items, sheetName)
		if err != nil {
			return fmt.Errorf("failed to write to Google Sheet: %w", err)
		}
		fmt.Fprintf(stderr, "Sheet: %s, rows added: %d\n", sheetName, n)
	}

	summary := report.Summarize(report.BuildRows(items, now))
	if summary.Errors > 0 {
		return fmt.Errorf("%d of %d documents failed", summary.Errors, len(items))
	}
	return nil
}

// printable returns the single result for one-file runs so that JSON and
// YAML output is the document itself rather than a one-element list.
func printable(items []processing.BatchItem) any {
	if len(items) == 1 && items[0].OK() {
		return items[0].Result
	}
	return items
}
