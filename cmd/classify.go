package cmd

import (
	"github.com/spf13/cobra"

	"docextract/internal/document"
	"docextract/internal/logger"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [text-file|-]",
	Short: "Detect the document type of OCR text",
	Long: `Classify already extracted text as Passport, EmiratesID or UAETradeLicense
and report which rule decided. Reads stdin when no file (or "-") is given.`,
	Example: `  docextract ocr scan.png | docextract classify
  docextract classify extracted.txt --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)

	classifyCmd.Flags().StringP("format", "f", "text", "Output format: text, json or yaml")
	classifyCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
}

func runClassify(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("classify")

	printer, err := newPrinter(cmd)
	if err != nil {
		return err
	}

	text, err := readTextInput(cmd, args)
	if err != nil {
		return err
	}

	cls, err := document.NewClassifier().Explain(text)
	if err != nil {
		return err
	}

	log.Debug().
		Str("family", cls.Family.String()).
		Str("reason", cls.Reason).
		Msg("Classified text")

	return emit(cmd, printer, cls, log)
}
