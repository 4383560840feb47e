package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"docextract/internal/logger"
	"docextract/internal/ocr"
	"docextract/pkg/models"
)

var ocrCmd = &cobra.Command{
	Use:   "ocr [file]",
	Short: "Extract raw text from a document image or PDF",
	Long: `Run the configured OCR engine over a single file and print the text.

Supported formats: .jpg .jpeg .png .bmp .tiff .tif .pdf

The engine is chosen by OCR_ENGINE (auto, vision, documentai, tesseract,
pdftext) or the --engine flag. The auto engine reads the text layer of
digital PDFs first and falls back to Google Cloud Vision when credentials
are configured, or to tesseract otherwise.`,
	Example: `  # Extract text to stdout
  docextract ocr passport.jpg

  # Tune recognition for a passport MRZ and save to a file
  docextract ocr passport.jpg --type passport -o passport.txt

  # Include metadata and output as JSON
  docextract ocr license.pdf --metadata --json`,
	Args: cobra.ExactArgs(1),
	RunE: runOCR,
}

// OCROutput represents the JSON output structure when --json flag is used
type OCROutput struct {
	Text               string    `json:"text"`
	Engine             string    `json:"engine"`
	PageCount          int       `json:"page_count,omitempty"`
	Confidence         float32   `json:"confidence,omitempty"`
	LanguageCodes      []string  `json:"language_codes,omitempty"`
	ProcessedAt        time.Time `json:"processed_at,omitempty"`
	ProcessingDuration string    `json:"processing_duration,omitempty"`
	FileName           string    `json:"file_name"`
	FileSize           int64     `json:"file_size"`
	Orientation        int       `json:"orientation,omitempty"`
}

func init() {
	rootCmd.AddCommand(ocrCmd)

	ocrCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	ocrCmd.Flags().BoolP("metadata", "m", false, "Include metadata in output")
	ocrCmd.Flags().Bool("json", false, "Output as JSON")
	ocrCmd.Flags().String("engine", "", "Override OCR_ENGINE")
	ocrCmd.Flags().StringP("type", "t", "", "Expected document type, used as a recognition hint")
	ocrCmd.Flags().Int("timeout", 300, "Processing timeout in seconds")
}

func runOCR(cmd *cobra.Command, args []string) error {
	path := args[0]
	log := logger.WithFile("ocr", path)

	outputPath, _ := cmd.Flags().GetString("output")
	includeMetadata, _ := cmd.Flags().GetBool("metadata")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	engine, _ := cmd.Flags().GetString("engine")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	cfg, err := appConfig()
	if err != nil {
		return err
	}
	if engine != "" {
		copied := *cfg
		copied.OCREngine = strings.ToLower(engine)
		cfg = &copied
	}

	hint, err := familyFlag(cmd)
	if err != nil {
		return err
	}

	log.Info().
		Str("engine", cfg.OCREngine).
		Str("output", outputPath).
		Bool("metadata", includeMetadata).
		Bool("json", jsonOutput).
		Int("timeout", timeoutSecs).
		Msg("Starting OCR processing")

	info, err := ocr.Inspect(path, cfg.MaxUploadBytes)
	if err != nil {
		return handleOCRError(err, log)
	}

	ctx, cancel := createContextWithTimeout(time.Duration(timeoutSecs)*time.Second, log)
	defer cancel()

	p, err := newPipeline(ctx, cfg, false, log)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := p.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close OCR service")
		}
	}()

	var family models.DocumentFamily
	if hint != nil {
		family = *hint
	}

	result, err := p.ocr.ExtractText(ctx, path, family)
	if err != nil {
		return handleOCRError(err, log)
	}

	log.Info().
		Str("engine", result.Engine).
		Int("page_count", result.PageCount).
		Float32("confidence", result.Confidence).
		Dur("duration", result.ProcessingDuration).
		Int("text_length", len(result.Text)).
		Msg("OCR processing completed successfully")

	return outputOCRResults(cmd, result, info, outputPath, jsonOutput, includeMetadata, log)
}

// outputOCRResults formats and outputs the OCR results
func outputOCRResults(cmd *cobra.Command, result *ocr.OCRResult, info *ocr.FileInfo, outputPath string, jsonOutput, includeMetadata bool, log zerolog.Logger) error {
	var outputData []byte

	if jsonOutput {
		ocrOutput := OCROutput{
			Text:               result.Text,
			Engine:             result.Engine,
			FileName:           info.Name,
			FileSize:           info.Size,
			Orientation:        info.Orientation,
			PageCount:          result.PageCount,
			Confidence:         result.Confidence,
			LanguageCodes:      result.LanguageCodes,
			ProcessedAt:        result.ProcessedAt,
			ProcessingDuration: result.ProcessingDuration.String(),
		}

		var err error
		outputData, err = json.MarshalIndent(ocrOutput, "", "  ")
		if err != nil {
			log.Error().Err(err).Msg("Failed to marshal JSON output")
			return fmt.Errorf("failed to create JSON output: %w", err)
		}
		outputData = append(outputData, '\n')
	} else {
		var output strings.Builder
		if includeMetadata {
			output.WriteString(fmt.Sprintf("=== OCR Results for %s ===\n", info.Name))
			output.WriteString(fmt.Sprintf("Engine: %s\n", result.Engine))
			output.WriteString(fmt.Sprintf("File size: %d bytes\n", info.Size))
			if result.PageCount > 0 {
				output.WriteString(fmt.Sprintf("Pages processed: %d\n", result.PageCount))
			}
			if result.Confidence > 0 {
				output.WriteString(fmt.Sprintf("Confidence: %.1f%%\n", result.Confidence*100))
			}
			if len(result.LanguageCodes) > 0 {
				output.WriteString(fmt.Sprintf("Languages: %s\n", strings.Join(result.LanguageCodes, ", ")))
			}
			if info.Orientation > 1 {
				output.WriteString(fmt.Sprintf("EXIF orientation: %d\n", info.Orientation))
			}
			output.WriteString(fmt.Sprintf("Processing time: %v\n", result.ProcessingDuration))
			output.WriteString(fmt.Sprintf("Processed at: %s\n", result.ProcessedAt.Format(time.RFC3339)))
			output.WriteString("\n=== Extracted Text ===\n\n")
		}
		output.WriteString(result.Text)
		output.WriteString("\n")
		outputData = []byte(output.String())
	}

	if outputPath == "" {
		if _, err := cmd.OutOrStdout().Write(outputData); err != nil {
			log.Error().Err(err).Msg("Failed to write to stdout")
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	if err := os.WriteFile(outputPath, outputData, 0o644); err != nil {
		log.Error().
			Err(err).
			Str("output_file", outputPath).
			Msg("Failed to write output file")
		return fmt.Errorf("failed to write output file: %w", err)
	}

	log.Info().
		Str("output_file", outputPath).
		Int("bytes", len(outputData)).
		Msg("OCR results written to file")
	return nil
}
