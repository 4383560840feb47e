// Package ocr turns document files (scanned images and PDFs) into plain text.
//
// Several engines implement OCRService:
//   - GoogleVisionOCRService: Google Cloud Vision document text detection
//   - DocumentAIOCRService: a Google Document AI OCR processor
//   - TesseractOCRService: the local tesseract binary
//   - PDFTextService: the embedded text layer of digital PDFs
//
// ChainOCRService tries engines in order and moves on when one cannot handle
// the file format or finds no text, so a digital PDF is read from its text
// layer while a scanned one falls through to a real OCR engine.
//
// Required Environment Variables (cloud engines only):
//   - GOOGLE_APPLICATION_CREDENTIALS: Path to service account JSON file, OR
//   - GOOGLE_CREDENTIALS: Inline JSON credentials string
//   - GOOGLE_CLOUD_PROJECT: Google Cloud project ID (Document AI)
//
// Cloud Vision API Limitations:
//   - Maximum file size: 20MB for synchronous processing
//   - Maximum pages: 5 pages for synchronous PDF processing
package ocr

import (
	"context"
	"fmt"
	"time"

	"docextract/internal/config"
	"docextract/pkg/models"
)

// OCRService defines the interface for OCR text extraction services.
type OCRService interface {
	// ExtractText reads the file at path and returns its text. The family
	// hint lets engines tune recognition (for example an MRZ character set
	// for passports); an empty hint means unknown.
	ExtractText(ctx context.Context, path string, hint models.DocumentFamily) (*OCRResult, error)

	// Name identifies the engine in logs and results.
	Name() string
}

// OCRResult contains the results of OCR processing with metadata.
type OCRResult struct {
	// Text is the extracted text content from all pages, concatenated in reading order.
	Text string `json:"text" yaml:"text"`

	// PageCount is the number of pages that were processed.
	PageCount int `json:"page_count" yaml:"page_count"`

	// Confidence is the average confidence score across all detected text (0.0 to 1.0).
	// Engines that do not report confidence leave it at zero.
	Confidence float32 `json:"confidence" yaml:"confidence"`

	// ProcessedAt is the timestamp when the OCR processing completed.
	ProcessedAt time.Time `json:"processed_at" yaml:"processed_at"`

	// LanguageCodes contains the detected languages in the document.
	LanguageCodes []string `json:"language_codes,omitempty" yaml:"language_codes,omitempty"`

	// ProcessingDuration is how long the OCR processing took.
	ProcessingDuration time.Duration `json:"processing_duration" yaml:"processing_duration"`

	// Engine is the name of the engine that produced Text.
	Engine string `json:"engine" yaml:"engine"`
}

// finish stamps timing metadata on r.
func (r *OCRResult) finish(engine string, start time.Time) *OCRResult {
	r.Engine = engine
	r.ProcessedAt = time.Now()
	r.ProcessingDuration = r.ProcessedAt.Sub(start)
	return r
}

// New builds the OCR service selected by cfg.OCREngine. The auto engine reads
// PDF text layers first and falls back to Cloud Vision when Google
// credentials are present, or to tesseract otherwise.
func New(ctx context.Context, cfg *config.Config) (OCRService, error) {
	const op = "New"

	tess := func() OCRService {
		return NewTesseractOCRService(TesseractConfig{Path: cfg.TesseractPath, Lang: cfg.TesseractLang})
	}

	switch cfg.OCREngine {
	case config.EnginePDFText:
		return NewPDFTextService(), nil
	case config.EngineTesseract:
		return tess(), nil
	case config.EngineVision:
		return NewGoogleVisionOCRService(ctx)
	case config.EngineDocumentAI:
		return NewDocumentAIOCRService(ctx, DocumentAIConfig{
			ProjectID:        cfg.GoogleCloudProject,
			Location:         cfg.GoogleCloudLocation,
			ProcessorID:      cfg.DocumentAIProcessorID,
			ProcessorVersion: cfg.DocumentAIProcessorVersion,
			Timeout:          cfg.OCRTimeout,
		})
	case config.EngineAuto, "":
		if config.HasGoogleCredentials() {
			vision, err := NewGoogleVisionOCRService(ctx)
			if err != nil {
				return nil, err
			}
			return NewChainOCRService(NewPDFTextService(), vision), nil
		}
		return NewChainOCRService(NewPDFTextService(), tess()), nil
	default:
		return nil, WrapOCRError(op, ErrUnknownEngine, fmt.Sprintf("engine %q", cfg.OCREngine))
	}
}
