// Package document classifies OCR text into a document family and extracts
// typed fields for passports, Emirates ID cards and UAE trade licenses.
//
// Every operation is a pure function of its input text (plus an injectable
// clock for the trade license expiry heuristic), so Classifier and Parser
// values may be shared between goroutines.
package document

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"docextract/internal/logger"
	"docextract/pkg/models"
)

// Parser dispatches raw text to the parser for a document family.
type Parser struct {
	license *TradeLicenseParser
	log     zerolog.Logger
}

// NewParser returns a parser that uses the wall clock.
func NewParser() *Parser {
	return NewParserWithClock(time.Now)
}

// NewParserWithClock returns a parser whose trade license expiry check is
// relative to now.
func NewParserWithClock(now func() time.Time) *Parser {
	return &Parser{
		license: NewTradeLicenseParser(now),
		log:     logger.WithComponent("parser"),
	}
}

// WithLogger returns a copy of p that logs to log.
func (p *Parser) WithLogger(log zerolog.Logger) *Parser {
	cp := *p
	cp.log = log
	return &cp
}

// Parse runs the parser for family over raw. Extraction failures never
// escape as errors: they come back as an invalid result carrying the
// failure message.
func (p *Parser) Parse(raw string, family models.DocumentFamily) (result *models.ParseResult) {
	result = models.NewParseResult(family, raw)

	defer func() {
		if r := recover(); r != nil {
			p.log.Error().
				Str("family", family.String()).
				Interface("panic", r).
				Msg("Parser panicked")
			result.Fail(fmt.Sprintf("%v", r))
		}
	}()

	fields, err := p.extract(raw, family)
	if err != nil {
		p.log.Debug().
			Err(err).
			Str("family", family.String()).
			Msg("Extraction failed")
		result.Fail(userMessage(err))
		return result
	}

	result.SetFields(fields)
	p.log.Debug().
		Str("family", family.String()).
		Bool("valid", result.IsValid).
		Msg("Document parsed")
	return result
}

func (p *Parser) extract(raw string, family models.DocumentFamily) (models.FamilyFields, error) {
	switch family {
	case models.FamilyPassport:
		return nonNil(ParsePassport(raw))
	case models.FamilyEmiratesID:
		return nonNil(ParseEmiratesID(raw))
	case models.FamilyTradeLicense:
		return nonNil(p.license.Parse(raw))
	default:
		return nil, WrapExtractionError("Parse", ErrUnsupportedDocumentType, string(family))
	}
}

// nonNil keeps a typed nil pointer from becoming a non-nil interface.
func nonNil[T models.FamilyFields](f T, err error) (models.FamilyFields, error) {
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Classify classifies raw with a fresh Classifier.
func Classify(raw string) (models.DocumentFamily, error) {
	return NewClassifier().Classify(raw)
}

// Parse parses raw as family with a fresh Parser.
func Parse(raw string, family models.DocumentFamily) *models.ParseResult {
	return NewParser().Parse(raw, family)
}
