package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"docextract/internal/config"
	"docextract/internal/enhance"
	"docextract/internal/ocr"
	"docextract/internal/output"
	"docextract/internal/processing"
	"docextract/pkg/models"
)

// createContextWithTimeout creates a context with timeout and signal handling.
// A non-positive timeout only cancels on signals.
func createContextWithTimeout(timeout time.Duration, log zerolog.Logger) (context.Context, context.CancelFunc) {
	var ctx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling processing")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// readTextInput returns the contents of path, or of stdin when path is "-"
// or absent.
func readTextInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("text file not found: %s", args[0])
		}
		return "", fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return string(data), nil
}

// familyFlag parses the --type flag; an empty value means "detect".
func familyFlag(cmd *cobra.Command) (*models.DocumentFamily, error) {
	raw, _ := cmd.Flags().GetString("type")
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	family, err := models.ParseFamily(raw)
	if err != nil {
		return nil, fmt.Errorf("--type must be one of Passport, EmiratesID, UAETradeLicense: %w", err)
	}
	return &family, nil
}

// newPrinter builds the printer selected by --format and --no-color.
func newPrinter(cmd *cobra.Command) (*output.Printer, error) {
	raw, _ := cmd.Flags().GetString("format")
	format, err := output.ParseFormat(raw)
	if err != nil {
		return nil, err
	}
	noColor, _ := cmd.Flags().GetBool("no-color")
	outputPath, _ := cmd.Flags().GetString("output")
	return output.NewPrinter(format, noColor || outputPath != ""), nil
}

// emit renders v and writes it to --output or stdout.
func emit(cmd *cobra.Command, printer *output.Printer, v any, log zerolog.Logger) error {
	var buf bytes.Buffer
	if err := printer.Print(&buf, v); err != nil {
		return err
	}

	outputPath, _ := cmd.Flags().GetString("output")
	if outputPath == "" {
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}

	if err := os.WriteFile(outputPath, buf.Bytes(), 0o644); err != nil {
		log.Error().
			Err(err).
			Str("output_file", outputPath).
			Msg("Failed to write output file")
		return fmt.Errorf("failed to write output file: %w", err)
	}

	log.Info().
		Str("output_file", outputPath).
		Int("bytes", buf.Len()).
		Msg("Results written to file")
	return nil
}

// pipeline bundles the collaborators a processing run needs.
type pipeline struct {
	service  *processing.Service
	ocr      ocr.OCRService
	enhancer *enhance.Service
}

// Close releases engine clients.
func (p *pipeline) Close() error {
	if c, ok := p.ocr.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// newPipeline builds the OCR engine, the optional enhancer and the
// processing service from cfg.
func newPipeline(ctx context.Context, cfg *config.Config, forceEnhance bool, log zerolog.Logger) (*pipeline, error) {
	ocrService, err := ocr.New(ctx, cfg)
	if err != nil {
		if errors.Is(err, ocr.ErrMissingCredentials) {
			log.Error().Err(err).Msg("Google Cloud credentials validation failed")
			return nil, fmt.Errorf("Google Cloud credentials validation failed. Please verify:\n\n" +
				"1. Credentials file exists and is readable\n" +
				"2. JSON format is valid\n" +
				"3. Service account has proper permissions\n\n" +
				"Original error: %w", err)
		}
		log.Error().Err(err).Str("engine", cfg.OCREngine).Msg("Failed to create OCR service")
		return nil, fmt.Errorf("failed to create OCR service: %w", err)
	}

	enhanceCfg := enhance.ConfigFrom(cfg)
	enhanceCfg.Enabled = enhanceCfg.Enabled || forceEnhance

	p := &pipeline{ocr: ocrService}
	var enhancer processing.Enhancer
	if enhanceCfg.Enabled {
		p.enhancer = enhance.New(enhanceCfg)
		enhancer = p.enhancer
	}

	p.service = processing.NewService(ocrService, enhancer, processing.Options{
		MaxFileBytes: cfg.MaxUploadBytes,
		OCRTimeout:   cfg.OCRTimeout,
	})

	log.Debug().
		Str("engine", ocrService.Name()).
		Bool("enhance", enhanceCfg.Enabled).
		Msg("Pipeline created")

	return p, nil
}

// handleOCRError provides user-friendly error messages for OCR failures
func handleOCRError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("OCR processing failed")

	errStr := err.Error()

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("OCR processing timed out. Try increasing --timeout or processing a smaller file")
	case errors.Is(err, context.Canceled), errors.Is(err, ocr.ErrContextCanceled):
		return fmt.Errorf("OCR processing was canceled")
	case errors.Is(err, ocr.ErrFileNotFound), errors.Is(err, processing.ErrFileNotFound):
		return fmt.Errorf("file not found. Please check the path")
	case errors.Is(err, ocr.ErrFileTooLarge), errors.Is(err, processing.ErrFileTooLarge):
		return fmt.Errorf("file is too large (maximum %d bytes). Try compressing or splitting the file", ocr.MaxFileSizeBytes)
	case errors.Is(err, ocr.ErrTooManyPages):
		return fmt.Errorf("PDF has too many pages for synchronous OCR. Try splitting into smaller files")
	case errors.Is(err, ocr.ErrInvalidPDF):
		return fmt.Errorf("invalid or corrupted PDF file. Please check the file integrity")
	case errors.Is(err, ocr.ErrUnsupportedFormat), errors.Is(err, processing.ErrInvalidFileFormat):
		return fmt.Errorf("unsupported file format. Allowed formats are: %s", strings.Join(ocr.SupportedExtensions(), ", "))
	case errors.Is(err, ocr.ErrEmptyDocument):
		return fmt.Errorf("no readable text found in the document. The file may be blank or too low quality")
	case errors.Is(err, ocr.ErrInvalidConfiguration):
		return fmt.Errorf("OCR engine is not configured correctly (is tesseract installed?): %w", err)
	case strings.Contains(errStr, "Unauthenticated") ||
		strings.Contains(errStr, "invalid_grant") ||
		strings.Contains(errStr, "invalid_rapt") ||
		strings.Contains(errStr, "auth:") ||
		strings.Contains(errStr, "transport: per-RPC creds failed"):
		return fmt.Errorf("Google Cloud authentication failed. Please check your credentials:\n\n" +
			"1. Set GOOGLE_APPLICATION_CREDENTIALS to your service account JSON file path:\n" +
			"   export GOOGLE_APPLICATION_CREDENTIALS=/path/to/service-account-key.json\n\n" +
			"2. Or set GOOGLE_CREDENTIALS with inline JSON\n\n" +
			"3. Ensure the service account has the 'Cloud Vision API User' or 'Document AI API User' role\n\n" +
			"Original error: %v", err)
	case strings.Contains(errStr, "PERMISSION_DENIED") ||
		strings.Contains(errStr, "forbidden"):
		return fmt.Errorf("permission denied. Please ensure your Google Cloud service account has access to the OCR API")
	case errors.Is(err, ocr.ErrQuotaExceeded):
		return fmt.Errorf("OCR API quota exceeded. Check your project quotas in the Google Cloud Console")
	case errors.Is(err, ocr.ErrOCRFailed):
		return fmt.Errorf("OCR processing failed. This may be due to network issues, API quota limits, or service unavailability: %w", err)
	default:
		return fmt.Errorf("OCR processing failed: %w", err)
	}
}
