// Package processing runs the document pipeline: file validation, OCR,
// optional text enhancement, classification, the expected-type check and
// field extraction.
package processing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"docextract/internal/document"
	"docextract/internal/logger"
	"docextract/internal/ocr"
	"docextract/pkg/models"
)

// Enhancer post-processes OCR text. It returns the input unchanged (and
// false) when it cannot improve it.
type Enhancer interface {
	Enhance(ctx context.Context, raw string, family models.DocumentFamily) (string, bool)
}

// Classifier decides the document family of OCR text.
type Classifier interface {
	Explain(raw string) (document.Classification, error)
}

// Parser extracts typed fields for a family.
type Parser interface {
	Parse(raw string, family models.DocumentFamily) *models.ParseResult
}

// Request describes one document to process.
type Request struct {
	// Path is the local file to read.
	Path string

	// Expected is the family the caller asserts, or nil to accept whatever
	// the classifier detects.
	Expected *models.DocumentFamily

	// DisplayName replaces the base name of Path in results (for uploads
	// stored under generated names).
	DisplayName string
}

// Result is the outcome of processing one document.
type Result struct {
	FileName       string                  `json:"fileName" yaml:"file_name"`
	File           *ocr.FileInfo           `json:"file,omitempty" yaml:"file,omitempty"`
	OCR            *ocr.OCRResult          `json:"ocr,omitempty" yaml:"ocr,omitempty"`
	Enhanced       bool                    `json:"enhanced" yaml:"enhanced"`
	Detected       models.DocumentFamily   `json:"detectedType" yaml:"detected_type"`
	Classification document.Classification `json:"classification" yaml:"classification"`
	Parse          *models.ParseResult     `json:"result" yaml:"result"`
	ProcessedAt    time.Time               `json:"processedAt" yaml:"processed_at"`
}

// Options tune the pipeline.
type Options struct {
	// MaxFileBytes caps input size; zero means the OCR default.
	MaxFileBytes int64

	// OCRTimeout bounds a single OCR call; zero means no extra deadline.
	OCRTimeout time.Duration
}

// Service wires the pipeline stages together. It holds no per-request
// state and is safe for concurrent use.
type Service struct {
	ocr        ocr.OCRService
	enhancer   Enhancer
	classifier Classifier
	parser     Parser
	opts       Options
	now        func() time.Time
	log        zerolog.Logger
}

// NewService creates a pipeline with the default classifier and parser.
// enhancer may be nil.
func NewService(ocrService ocr.OCRService, enhancer Enhancer, opts Options) *Service {
	return NewServiceWithDeps(ocrService, enhancer, document.NewClassifier(), document.NewParser(), opts)
}

// NewServiceWithDeps creates a pipeline with explicit dependencies.
func NewServiceWithDeps(ocrService ocr.OCRService, enhancer Enhancer, classifier Classifier, parser Parser, opts Options) *Service {
	return &Service{
		ocr:        ocrService,
		enhancer:   enhancer,
		classifier: classifier,
		parser:     parser,
		opts:       opts,
		now:        time.Now,
		log:        logger.WithComponent("processing"),
	}
}

// WithLogger returns a copy of s that logs to log.
func (s *Service) WithLogger(log zerolog.Logger) *Service {
	cp := *s
	cp.log = log
	return &cp
}

// Process runs the full pipeline over req.Path.
func (s *Service) Process(ctx context.Context, req Request) (*Result, error) {
	info, err := s.validate(req.Path)
	if err != nil {
		return nil, err
	}

	log := s.log.With().Str("file", req.Path).Logger()

	hint := models.DocumentFamily("")
	if req.Expected != nil {
		hint = *req.Expected
	}

	ocrCtx, cancel := s.ocrContext(ctx)
	defer cancel()

	ocrResult, err := s.ocr.ExtractText(ocrCtx, req.Path, hint)
	if err != nil {
		log.Error().Err(err).Str("engine", s.ocr.Name()).Msg("Text extraction failed")
		return nil, WrapProcessingError("ExtractText", req.Path, err)
	}

	log.Info().
		Str("engine", ocrResult.Engine).
		Int("pages", ocrResult.PageCount).
		Int("chars", len(ocrResult.Text)).
		Dur("duration", ocrResult.ProcessingDuration).
		Msg("Text extracted")

	text, enhanced := ocrResult.Text, false
	if s.enhancer != nil {
		text, enhanced = s.enhancer.Enhance(ctx, ocrResult.Text, hint)
	}

	res, err := s.ProcessText(text, req.Expected)
	if err != nil {
		var mismatch *MismatchError
		if errors.As(err, &mismatch) {
			log.Warn().
				Str("expected", mismatch.Expected.String()).
				Str("detected", mismatch.Detected.String()).
				Msg("Document type mismatch")
		}
		return nil, WrapProcessingError("ProcessText", req.Path, err)
	}

	res.FileName = info.Name
	if req.DisplayName != "" {
		res.FileName = req.DisplayName
	}
	res.File = info
	res.OCR = ocrResult
	res.Enhanced = enhanced

	log.Info().
		Str("family", res.Detected.String()).
		Bool("valid", res.Parse.IsValid).
		Bool("enhanced", enhanced).
		Msg("Document processed")

	return res, nil
}

// ProcessText classifies raw, checks it against expected and parses it with
// the detected family.
func (s *Service) ProcessText(raw string, expected *models.DocumentFamily) (*Result, error) {
	if expected != nil && !expected.IsValid() {
		return nil, document.WrapExtractionError("ProcessText", document.ErrUnsupportedDocumentType, expected.String())
	}

	cls, err := s.classifier.Explain(raw)
	if err != nil {
		return nil, err
	}

	if expected != nil && *expected != cls.Family {
		return nil, &MismatchError{Expected: *expected, Detected: cls.Family}
	}

	return &Result{
		Detected:       cls.Family,
		Classification: cls,
		Parse:          s.parser.Parse(raw, cls.Family),
		ProcessedAt:    s.now(),
	}, nil
}

// validate checks the path before any engine is called.
func (s *Service) validate(path string) (*ocr.FileInfo, error) {
	const op = "Validate"

	if strings.TrimSpace(path) == "" {
		return nil, WrapProcessingError(op, "", ErrEmptyPath)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !ocr.IsSupportedExtension(ext) {
		if _, err := os.Stat(path); err != nil {
			return nil, WrapProcessingError(op, path, ErrFileNotFound)
		}
		return nil, WrapProcessingError(op, path, &InvalidFormatError{Ext: ext})
	}

	info, err := ocr.Inspect(path, s.opts.MaxFileBytes)
	switch {
	case err == nil:
		return info, nil
	case errors.Is(err, ocr.ErrFileNotFound):
		return nil, WrapProcessingError(op, path, ErrFileNotFound)
	case errors.Is(err, ocr.ErrFileTooLarge):
		return nil, WrapProcessingError(op, path, errors.Join(ErrFileTooLarge, err))
	case errors.Is(err, ocr.ErrUnsupportedFormat):
		return nil, WrapProcessingError(op, path, &InvalidFormatError{Ext: ext})
	default:
		return nil, WrapProcessingError(op, path, err)
	}
}

func (s *Service) ocrContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.OCRTimeout > 0 {
		return context.WithTimeout(ctx, s.opts.OCRTimeout)
	}
	return context.WithCancel(ctx)
}

func allowedFormats() string {
	return strings.Join(ocr.SupportedExtensions(), ", ")
}
