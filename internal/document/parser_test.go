package document

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docextract/pkg/models"
)

func newTestParser() *Parser {
	return NewParserWithClock(fixedNow).WithLogger(zerolog.Nop())
}

func TestParser_ValidResults(t *testing.T) {
	p := newTestParser()

	tests := []struct {
		name   string
		text   string
		family models.DocumentFamily
		wantID string
	}{
		{"passport", samplePassportText(), models.FamilyPassport, "L898902C3"},
		{"emirates id", sampleEmiratesIDText, models.FamilyEmiratesID, "784-1990-1234567-1"},
		{"trade license", sampleTradeLicenseText, models.FamilyTradeLicense, "123822"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := p.Parse(tt.text, tt.family)

			require.True(t, res.IsValid)
			assert.Equal(t, tt.family, res.Family)
			assert.Equal(t, tt.text, res.RawText)
			assert.NotNil(t, res.Errors)
			assert.Empty(t, res.Errors)
			assert.Equal(t, tt.wantID, res.Identifier())
			require.NotNil(t, res.Fields())
			assert.Equal(t, tt.family, res.Fields().Family())
		})
	}
}

func TestParser_OnlyRequestedSlotIsSet(t *testing.T) {
	res := newTestParser().Parse(sampleEmiratesIDText, models.FamilyEmiratesID)

	assert.NotNil(t, res.EmiratesID)
	assert.Nil(t, res.Passport)
	assert.Nil(t, res.TradeLicense)
}

func TestParser_FailuresBecomeMessages(t *testing.T) {
	p := newTestParser()

	tests := []struct {
		name    string
		text    string
		family  models.DocumentFamily
		wantMsg string
	}{
		{"no mrz", "just some words", models.FamilyPassport, "no MRZ candidates found"},
		{"no emirates id", "Name: Sara Khan", models.FamilyEmiratesID, "Emirates ID number not detected"},
		{"no license identifiers", "Activities: Trading", models.FamilyTradeLicense, "UAE Trade License number or company name not detected"},
		{"unsupported family", "anything", models.DocumentFamily("Visa"), "Unsupported document type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := p.Parse(tt.text, tt.family)

			assert.False(t, res.IsValid)
			assert.Nil(t, res.Fields())
			assert.Equal(t, []string{tt.wantMsg}, res.Errors)
			assert.Equal(t, tt.family, res.Family)
		})
	}
}

func TestParser_WrongFamilyIsInvalidNotError(t *testing.T) {
	res := newTestParser().Parse(sampleEmiratesIDText, models.FamilyPassport)
	assert.False(t, res.IsValid)
	assert.Len(t, res.Errors, 1)
}

func TestParser_Idempotent(t *testing.T) {
	p := newTestParser()
	first := p.Parse(sampleTradeLicenseText, models.FamilyTradeLicense)
	second := p.Parse(sampleTradeLicenseText, models.FamilyTradeLicense)
	assert.Equal(t, first, second)
}

func TestParser_ConcurrentUse(t *testing.T) {
	p := newTestParser()
	done := make(chan *models.ParseResult, 8)
	for i := 0; i < cap(done); i++ {
		go func() { done <- p.Parse(samplePassportText(), models.FamilyPassport) }()
	}
	for i := 0; i < cap(done); i++ {
		res := <-done
		assert.True(t, res.IsValid)
		assert.Equal(t, "SMITH", res.Passport.Surname)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want error
	}{
		{nil, nil},
		{ErrEmptyText, ErrInvalidArgument},
		{ErrNoMRZCandidates, ErrNotFound},
		{WrapExtractionError("ParsePassport", ErrMRZLine2NotFound, ""), ErrNotFound},
		{fmt.Errorf("ctx: %w", ErrUnsupportedDocumentType), ErrUnsupportedFamily},
		{errors.New("foreign"), ErrInvalidArgument},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, KindOf(tt.err))
	}
}

func TestWrapExtractionError(t *testing.T) {
	assert.NoError(t, WrapExtractionError("op", nil, ""))

	err := WrapExtractionError("ParsePassport", ErrNoMRZCandidates, "page 1")
	assert.EqualError(t, err, "document: ParsePassport failed: page 1: no MRZ candidates found")
	assert.ErrorIs(t, err, ErrNoMRZCandidates)

	again := WrapExtractionError("Parse", err, "")
	assert.Same(t, err, again)

	assert.Equal(t, "no MRZ candidates found", userMessage(err))
}
