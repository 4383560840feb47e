package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docextract/internal/document"
	"docextract/internal/ocr"
	"docextract/internal/processing"
	"docextract/pkg/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type MockProcessor struct {
	mock.Mock
}

func (m *MockProcessor) Process(ctx context.Context, req processing.Request) (*processing.Result, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*processing.Result)
	return res, args.Error(1)
}

func (m *MockProcessor) ProcessText(raw string, expected *models.DocumentFamily) (*processing.Result, error) {
	args := m.Called(raw, expected)
	res, _ := args.Get(0).(*processing.Result)
	return res, args.Error(1)
}

type stubPinger bool

func (p stubPinger) IsServerAvailable(context.Context) bool { return bool(p) }

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func eidResult() *processing.Result {
	pr := models.NewParseResult(models.FamilyEmiratesID, "raw")
	pr.SetFields(&models.EmiratesIDFields{IDNumber: "784-1990-1234567-1", FullName: "Muhammad Aamar"})
	return &processing.Result{
		FileName: "card.png",
		Detected: models.FamilyEmiratesID,
		OCR:      &ocr.OCRResult{Engine: "vision"},
		Parse:    pr,
	}
}

func multipartBody(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, _ = part.Write(content)
	}
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func newRouter(p Processor, uploadDir string, pinger Pinger) *gin.Engine {
	return NewRouter(NewHandler(p, document.NewParser(), pinger, uploadDir, 1024), 1024)
}

func TestProcessOCR_Upload(t *testing.T) {
	uploadDir := t.TempDir()
	p := &MockProcessor{}

	var storedPath string
	p.On("Process", mock.Anything, mock.MatchedBy(func(req processing.Request) bool {
		return req.DisplayName == "card.PNG" &&
			req.Expected != nil && *req.Expected == models.FamilyEmiratesID &&
			filepath.Dir(req.Path) == uploadDir &&
			strings.HasSuffix(req.Path, ".png")
	})).Run(func(args mock.Arguments) {
		storedPath = args.Get(1).(processing.Request).Path
		_, err := os.Stat(storedPath)
		assert.NoError(t, err, "upload should exist while processing")
	}).Return(eidResult(), nil)

	body, ct := multipartBody(t, "card.PNG", []byte("image bytes"), map[string]string{"documentType": "EmiratesID"})
	req := httptest.NewRequest(http.MethodPost, "/api/ocr/process", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	newRouter(p, uploadDir, nil).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	env := decode(t, w)
	assert.True(t, env.Success)

	var data map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, true, data["isValid"])
	assert.Equal(t, "EmiratesID", data["documentType"])
	assert.Equal(t, "card.png", data["fileName"])
	assert.Equal(t, "vision", data["engine"])
	assert.Equal(t, "784-1990-1234567-1", data["emiratesId"].(map[string]any)["idNumber"])

	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	_, err := os.Stat(storedPath)
	assert.True(t, os.IsNotExist(err), "upload should be removed afterwards")
	p.AssertExpectations(t)
}

func TestProcessOCR_ImagePath(t *testing.T) {
	p := &MockProcessor{}
	p.On("Process", mock.Anything, processing.Request{Path: "/data/card.png"}).Return(eidResult(), nil)

	body, ct := multipartBody(t, "", nil, map[string]string{"imagePath": "/data/card.png"})
	req := httptest.NewRequest(http.MethodPost, "/api/ocr/process", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	h := NewHandler(p, document.NewParser(), nil, t.TempDir(), 1024).WithImagePaths(true)
	NewRouter(h, 1024).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	p.AssertExpectations(t)
}

func TestProcessOCR_ImagePathDisabledByDefault(t *testing.T) {
	p := &MockProcessor{}

	body, ct := multipartBody(t, "", nil, map[string]string{"imagePath": "/etc/secrets.png"})
	req := httptest.NewRequest(http.MethodPost, "/api/ocr/process", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	newRouter(p, t.TempDir(), nil).ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_ARGUMENT", env.Error.Code)
	assert.Contains(t, env.Error.Message, "imagePath is disabled")
	p.AssertNotCalled(t, "Process", mock.Anything, mock.Anything)
}

func TestProcessOCR_Mismatch(t *testing.T) {
	p := &MockProcessor{}
	mismatch := &processing.MismatchError{Expected: models.FamilyPassport, Detected: models.FamilyEmiratesID}
	p.On("Process", mock.Anything, mock.Anything).
		Return(nil, processing.WrapProcessingError("ProcessText", "/x.png", mismatch))

	body, ct := multipartBody(t, "x.png", []byte("img"), map[string]string{"documentType": "passport"})
	req := httptest.NewRequest(http.MethodPost, "/api/ocr/process", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	newRouter(p, t.TempDir(), nil).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	env := decode(t, w)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "DOCUMENT_TYPE_MISMATCH", env.Error.Code)
	assert.Equal(t, mismatch.Error(), env.Error.Message)
}

func TestProcessOCR_RejectedInputs(t *testing.T) {
	tests := []struct {
		name       string
		filename   string
		content    []byte
		fields     map[string]string
		wantStatus int
		wantCode   string
	}{
		{"no input", "", nil, nil, http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"bad extension", "notes.txt", []byte("x"), nil, http.StatusBadRequest, "INVALID_FILE_FORMAT"},
		{"unknown document type", "x.png", []byte("x"), map[string]string{"documentType": "Visa"}, http.StatusBadRequest, "UNSUPPORTED_DOCUMENT_TYPE"},
		{"too large", "big.png", bytes.Repeat([]byte("x"), 2048), nil, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &MockProcessor{}
			body, ct := multipartBody(t, tt.filename, tt.content, tt.fields)
			req := httptest.NewRequest(http.MethodPost, "/api/ocr/process", body)
			req.Header.Set("Content-Type", ct)
			w := httptest.NewRecorder()
			newRouter(p, t.TempDir(), nil).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			env := decode(t, w)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantCode, env.Error.Code)
			p.AssertNotCalled(t, "Process", mock.Anything, mock.Anything)
		})
	}
}

func TestClassify(t *testing.T) {
	p := &MockProcessor{}
	p.On("ProcessText", "TRADE LICENSE", (*models.DocumentFamily)(nil)).Return(&processing.Result{
		Classification: document.Classification{Family: models.FamilyTradeLicense, Score: 7, Reason: document.ReasonTradeLicenseScore},
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/documents/classify", strings.NewReader(`{"text":"TRADE LICENSE"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	newRouter(p, t.TempDir(), nil).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var cls document.Classification
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &cls))
	assert.Equal(t, models.FamilyTradeLicense, cls.Family)
	assert.Equal(t, 7, cls.Score)
}

func TestClassify_EmptyText(t *testing.T) {
	p := &MockProcessor{}
	p.On("ProcessText", "", (*models.DocumentFamily)(nil)).Return(nil, document.ErrEmptyText)

	req := httptest.NewRequest(http.MethodPost, "/api/documents/classify", strings.NewReader(`{"text":""}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	newRouter(p, t.TempDir(), nil).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ARGUMENT", decode(t, w).Error.Code)
}

func TestClassify_BadJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/documents/classify", strings.NewReader(`{`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	newRouter(&MockProcessor{}, t.TempDir(), nil).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", decode(t, w).Error.Code)
}

func TestParse_ExplicitType(t *testing.T) {
	body := `{"text":"Resident Identity Card\nID 784199012345671","documentType":"EmiratesID"}`
	req := httptest.NewRequest(http.MethodPost, "/api/documents/parse", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	newRouter(&MockProcessor{}, t.TempDir(), nil).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var pr models.ParseResult
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &pr))
	assert.True(t, pr.IsValid)
	require.NotNil(t, pr.EmiratesID)
	assert.Equal(t, "784-1990-1234567-1", pr.EmiratesID.IDNumber)
}

func TestParse_DetectsWhenTypeMissing(t *testing.T) {
	p := &MockProcessor{}
	p.On("ProcessText", "some text", (*models.DocumentFamily)(nil)).Return(eidResult(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/documents/parse", strings.NewReader(`{"text":"some text"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	newRouter(p, t.TempDir(), nil).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	p.AssertExpectations(t)
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name   string
		pinger Pinger
		want   string
	}{
		{"disabled", nil, "disabled"},
		{"available", stubPinger(true), "available"},
		{"unavailable", stubPinger(false), "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(&MockProcessor{}, t.TempDir(), tt.pinger)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			require.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `{"status":"ok","enhancer":"`+tt.want+`"}`, w.Body.String())

			w = httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
		})
	}
}

func TestRequestID_Propagated(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	newRouter(&MockProcessor{}, t.TempDir(), nil).ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", processing.WrapProcessingError("Validate", "a", processing.ErrFileNotFound), http.StatusNotFound, "FILE_NOT_FOUND"},
		{"empty path", processing.ErrEmptyPath, http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"invalid format", &processing.InvalidFormatError{Ext: ".doc"}, http.StatusBadRequest, "INVALID_FILE_FORMAT"},
		{"unsupported family", document.WrapExtractionError("Parse", document.ErrUnsupportedDocumentType, ""), http.StatusBadRequest, "UNSUPPORTED_DOCUMENT_TYPE"},
		{"invalid pdf", ocr.WrapOCRError("Inspect", ocr.ErrInvalidPDF, ""), http.StatusBadRequest, "INVALID_PDF"},
		{"quota", ocr.ErrQuotaExceeded, http.StatusTooManyRequests, "QUOTA_EXCEEDED"},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout, "TIMEOUT"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code, msg := MapError(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, code)
			assert.NotEmpty(t, msg)
		})
	}
}
