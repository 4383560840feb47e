package ocr

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"docextract/internal/logger"
	"docextract/pkg/models"
)

// ChainOCRService tries each engine in order. An engine that reports an
// unsupported format or an empty document hands over to the next one; any
// other failure ends the chain.
type ChainOCRService struct {
	services []OCRService
	log      zerolog.Logger
}

// NewChainOCRService returns a chain over services.
func NewChainOCRService(services ...OCRService) *ChainOCRService {
	return &ChainOCRService{
		services: services,
		log:      logger.WithComponent("ocr-chain"),
	}
}

// Name implements OCRService.
func (c *ChainOCRService) Name() string {
	names := make([]string, len(c.services))
	for i, s := range c.services {
		names[i] = s.Name()
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

// ExtractText implements OCRService.
func (c *ChainOCRService) ExtractText(ctx context.Context, path string, hint models.DocumentFamily) (*OCRResult, error) {
	const op = "ChainExtractText"

	if len(c.services) == 0 {
		return nil, WrapOCRError(op, ErrInvalidConfiguration, "no OCR engines configured")
	}

	var lastErr error
	for _, svc := range c.services {
		res, err := svc.ExtractText(ctx, path, hint)
		if err == nil {
			return res, nil
		}
		if !IsSkippable(err) {
			return nil, err
		}

		c.log.Debug().
			Err(err).
			Str("engine", svc.Name()).
			Str("file", path).
			Msg("Engine skipped document, trying next")
		lastErr = err
	}

	return nil, lastErr
}

// Close closes every engine that holds resources.
func (c *ChainOCRService) Close() error {
	var errs []error
	for _, s := range c.services {
		if closer, ok := s.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
