package cmd

import (
	"github.com/spf13/cobra"

	"docextract/internal/document"
	"docextract/internal/logger"
)

var parseCmd = &cobra.Command{
	Use:   "parse [text-file|-]",
	Short: "Extract document fields from OCR text",
	Long: `Parse already extracted text into structured fields. Without --type the
document type is detected first. Reads stdin when no file (or "-") is given.

A document whose fields cannot be found is reported with isValid=false and
the reasons in errors; this is not a command failure.`,
	Example: `  docextract parse mrz.txt --type passport
  docextract ocr card.jpg | docextract parse --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringP("type", "t", "", "Document type: Passport, EmiratesID or UAETradeLicense (default: detect)")
	parseCmd.Flags().StringP("format", "f", "text", "Output format: text, json or yaml")
	parseCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
}

func runParse(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("parse")

	printer, err := newPrinter(cmd)
	if err != nil {
		return err
	}

	family, err := familyFlag(cmd)
	if err != nil {
		return err
	}

	text, err := readTextInput(cmd, args)
	if err != nil {
		return err
	}

	if family == nil {
		detected, err := document.NewClassifier().Classify(text)
		if err != nil {
			return err
		}
		family = &detected
	}

	result := document.NewParser().Parse(text, *family)

	log.Info().
		Str("family", result.Family.String()).
		Bool("valid", result.IsValid).
		Int("errors", len(result.Errors)).
		Msg("Parsed text")

	return emit(cmd, printer, result, log)
}
