package processing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docextract/internal/document"
	"docextract/internal/ocr"
	"docextract/pkg/models"
)

const (
	emiratesIDText   = "United Arab Emirates\n784-1990-1234567-1\nName: Ali Hassan Nationality: India"
	tradeLicenseText = "TRADE LICENSE\nLicense No.: 123822\nDepartment of Economic Development"
)

type MockOCRService struct {
	mock.Mock
}

func (m *MockOCRService) ExtractText(ctx context.Context, path string, hint models.DocumentFamily) (*ocr.OCRResult, error) {
	args := m.Called(ctx, path, hint)
	res, _ := args.Get(0).(*ocr.OCRResult)
	return res, args.Error(1)
}

func (m *MockOCRService) Name() string { return "mock" }

type MockEnhancer struct {
	mock.Mock
}

func (m *MockEnhancer) Enhance(ctx context.Context, raw string, family models.DocumentFamily) (string, bool) {
	args := m.Called(ctx, raw, family)
	return args.String(0), args.Bool(1)
}

func newTestService(o ocr.OCRService, e Enhancer) *Service {
	s := NewService(o, e, Options{OCRTimeout: time.Minute}).WithLogger(zerolog.Nop())
	s.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func writeDoc(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("not really an image"), 0o600))
	return path
}

func family(f models.DocumentFamily) *models.DocumentFamily { return &f }

func TestProcess_DetectsAndParses(t *testing.T) {
	path := writeDoc(t, t.TempDir(), "eid.png")
	o := &MockOCRService{}
	o.On("ExtractText", mock.Anything, path, models.DocumentFamily("")).
		Return(&ocr.OCRResult{Text: emiratesIDText, PageCount: 1, Engine: "mock"}, nil)

	res, err := newTestService(o, nil).Process(context.Background(), Request{Path: path})
	require.NoError(t, err)

	assert.Equal(t, "eid.png", res.FileName)
	assert.Equal(t, models.FamilyEmiratesID, res.Detected)
	assert.Equal(t, document.ReasonEmiratesIDNumber, res.Classification.Reason)
	require.True(t, res.Parse.IsValid)
	assert.Equal(t, "784-1990-1234567-1", res.Parse.EmiratesID.IDNumber)
	assert.False(t, res.Enhanced)
	assert.Equal(t, "mock", res.OCR.Engine)
	require.NotNil(t, res.File)
	assert.Equal(t, "image/png", res.File.MIMEType)
	o.AssertExpectations(t)
}

func TestProcess_ExpectedTypeIsPassedAsHint(t *testing.T) {
	path := writeDoc(t, t.TempDir(), "licence.pdf.png")
	o := &MockOCRService{}
	o.On("ExtractText", mock.Anything, path, models.FamilyTradeLicense).
		Return(&ocr.OCRResult{Text: tradeLicenseText, Engine: "mock"}, nil)

	res, err := newTestService(o, nil).Process(context.Background(),
		Request{Path: path, Expected: family(models.FamilyTradeLicense), DisplayName: "licence.png"})
	require.NoError(t, err)

	assert.Equal(t, "licence.png", res.FileName)
	assert.Equal(t, models.FamilyTradeLicense, res.Detected)
	require.True(t, res.Parse.IsValid)
	assert.Equal(t, "123822", res.Parse.TradeLicense.TradeLicenseNumber)
	o.AssertExpectations(t)
}

func TestProcess_Mismatch(t *testing.T) {
	path := writeDoc(t, t.TempDir(), "eid.jpg")
	o := &MockOCRService{}
	o.On("ExtractText", mock.Anything, path, models.FamilyPassport).
		Return(&ocr.OCRResult{Text: emiratesIDText}, nil)

	_, err := newTestService(o, nil).Process(context.Background(),
		Request{Path: path, Expected: family(models.FamilyPassport)})
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrDocumentTypeMismatch)
	var mismatch *MismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, models.FamilyPassport, mismatch.Expected)
	assert.Equal(t, models.FamilyEmiratesID, mismatch.Detected)
	assert.Equal(t,
		"Document type mismatch. Expected: Passport, but detected: EmiratesID. The uploaded document does not match the selected document type.",
		mismatch.Error())
}

func TestProcess_EnhancedTextIsClassified(t *testing.T) {
	path := writeDoc(t, t.TempDir(), "scan.png")
	o := &MockOCRService{}
	o.On("ExtractText", mock.Anything, path, models.DocumentFamily("")).
		Return(&ocr.OCRResult{Text: "garbled"}, nil)
	e := &MockEnhancer{}
	e.On("Enhance", mock.Anything, "garbled", models.DocumentFamily("")).Return(tradeLicenseText, true)

	res, err := newTestService(o, e).Process(context.Background(), Request{Path: path})
	require.NoError(t, err)

	assert.True(t, res.Enhanced)
	assert.Equal(t, models.FamilyTradeLicense, res.Detected)
	assert.Equal(t, "garbled", res.OCR.Text)
	assert.Equal(t, tradeLicenseText, res.Parse.RawText)
	e.AssertExpectations(t)
}

func TestProcess_Validation(t *testing.T) {
	dir := t.TempDir()
	txt := writeDoc(t, dir, "notes.txt")
	o := &MockOCRService{}
	s := newTestService(o, nil)

	tests := []struct {
		name    string
		path    string
		wantErr error
		wantMsg string
	}{
		{"empty path", "  ", ErrEmptyPath, "File path cannot be empty"},
		{"missing file", filepath.Join(dir, "missing.png"), ErrFileNotFound, ""},
		{"missing file with bad extension", filepath.Join(dir, "missing.doc"), ErrFileNotFound, ""},
		{"unsupported extension", txt, ErrInvalidFileFormat,
			"Invalid file format. Allowed formats are: .jpg, .jpeg, .png, .bmp, .tiff, .tif, .pdf. Provided: .txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Process(context.Background(), Request{Path: tt.path})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}

	o.AssertNotCalled(t, "ExtractText", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcess_FileTooLarge(t *testing.T) {
	path := writeDoc(t, t.TempDir(), "big.png")
	o := &MockOCRService{}
	s := NewService(o, nil, Options{MaxFileBytes: 4}).WithLogger(zerolog.Nop())

	_, err := s.Process(context.Background(), Request{Path: path})
	assert.ErrorIs(t, err, ErrFileTooLarge)
	assert.ErrorIs(t, err, ocr.ErrFileTooLarge)
}

func TestProcess_OCRFailure(t *testing.T) {
	path := writeDoc(t, t.TempDir(), "scan.png")
	o := &MockOCRService{}
	o.On("ExtractText", mock.Anything, path, models.DocumentFamily("")).
		Return(nil, ocr.WrapOCRError("ExtractText", ocr.ErrOCRFailed, "boom"))

	_, err := newTestService(o, nil).Process(context.Background(), Request{Path: path})
	assert.ErrorIs(t, err, ocr.ErrOCRFailed)

	var procErr *ProcessingError
	require.True(t, errors.As(err, &procErr))
	assert.Equal(t, "ExtractText", procErr.Op)
	assert.Equal(t, path, procErr.Path)
}

func TestProcessText(t *testing.T) {
	s := newTestService(&MockOCRService{}, nil)

	res, err := s.ProcessText(emiratesIDText, nil)
	require.NoError(t, err)
	assert.Equal(t, models.FamilyEmiratesID, res.Detected)
	assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), res.ProcessedAt)

	_, err = s.ProcessText("", nil)
	assert.ErrorIs(t, err, document.ErrEmptyText)

	_, err = s.ProcessText(emiratesIDText, family("Visa"))
	assert.ErrorIs(t, err, document.ErrUnsupportedFamily)
}

func TestProcessText_UnrecognisedTextFailsAsPassport(t *testing.T) {
	res, err := newTestService(&MockOCRService{}, nil).ProcessText("hello world", nil)
	require.NoError(t, err)

	assert.Equal(t, models.FamilyPassport, res.Detected)
	assert.False(t, res.Parse.IsValid)
	assert.NotEmpty(t, res.Parse.Errors)
}

func TestWrapProcessingError(t *testing.T) {
	assert.Nil(t, WrapProcessingError("op", "p", nil))

	inner := WrapProcessingError("Validate", "a.png", ErrFileNotFound)
	assert.Same(t, inner, WrapProcessingError("Process", "a.png", inner))
	assert.Equal(t, "processing: Validate failed for a.png: file not found", inner.Error())
	assert.Equal(t, "processing: Validate failed: File path cannot be empty",
		WrapProcessingError("Validate", "", ErrEmptyPath).Error())
}
