package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"docextract/internal/document"
	"docextract/internal/logger"
	"docextract/internal/ocr"
	"docextract/internal/processing"
	"docextract/pkg/models"
)

// Processor runs the document pipeline.
type Processor interface {
	Process(ctx context.Context, req processing.Request) (*processing.Result, error)
	ProcessText(raw string, expected *models.DocumentFamily) (*processing.Result, error)
}

// Parser extracts fields for an explicitly chosen family.
type Parser interface {
	Parse(raw string, family models.DocumentFamily) *models.ParseResult
}

// Pinger reports whether an optional backend answers.
type Pinger interface {
	IsServerAvailable(ctx context.Context) bool
}

// ProcessOCRResponse is the body of a successful /api/ocr/process call.
type ProcessOCRResponse struct {
	*models.ParseResult
	FileName string `json:"fileName"`
	Engine   string `json:"engine,omitempty"`
	Enhanced bool   `json:"enhanced"`
}

// ClassifyRequest is the body of /api/documents/classify.
type ClassifyRequest struct {
	Text string `json:"text"`
}

// ParseRequest is the body of /api/documents/parse. An empty DocumentType
// parses with the detected family.
type ParseRequest struct {
	Text         string `json:"text"`
	DocumentType string `json:"documentType"`
}

// Handler serves the document endpoints.
type Handler struct {
	processor Processor
	parser    Parser
	enhancer  Pinger
	uploadDir string
	maxBytes  int64

	allowImagePath bool
}

// NewHandler creates a Handler. enhancer may be nil when enhancement is off.
func NewHandler(processor Processor, parser Parser, enhancer Pinger, uploadDir string, maxBytes int64) *Handler {
	return &Handler{
		processor: processor,
		parser:    parser,
		enhancer:  enhancer,
		uploadDir: uploadDir,
		maxBytes:  maxBytes,
	}
}

// WithImagePaths lets clients name a file already on the server through the
// imagePath form field instead of uploading it. Off by default.
func (h *Handler) WithImagePaths(allow bool) *Handler {
	h.allowImagePath = allow
	return h
}

// Liveness handles GET /healthz
func (h *Handler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles GET /readyz. The enhancer is optional, so an unreachable
// one is reported without failing the check.
func (h *Handler) Readiness(c *gin.Context) {
	if err := os.MkdirAll(h.uploadDir, 0o750); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "upload directory not writable"})
		return
	}

	enhancer := "disabled"
	if h.enhancer != nil {
		enhancer = "unavailable"
		if h.enhancer.IsServerAvailable(c.Request.Context()) {
			enhancer = "available"
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "enhancer": enhancer})
}

// ProcessOCR handles POST /api/ocr/process. The document comes either as a
// multipart "file" or as an "imagePath" readable by the server.
func (h *Handler) ProcessOCR(c *gin.Context) {
	expected, ok := h.expectedFamily(c, c.PostForm("documentType"))
	if !ok {
		return
	}

	path, displayName, cleanup, ok := h.resolveInput(c)
	if !ok {
		return
	}
	defer cleanup()

	res, err := h.processor.Process(c.Request.Context(), processing.Request{
		Path:        path,
		Expected:    expected,
		DisplayName: displayName,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	resp := ProcessOCRResponse{
		ParseResult: res.Parse,
		FileName:    res.FileName,
		Enhanced:    res.Enhanced,
	}
	if res.OCR != nil {
		resp.Engine = res.OCR.Engine
	}
	RespondOK(c, resp)
}

// Classify handles POST /api/documents/classify.
func (h *Handler) Classify(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}

	res, err := h.processor.ProcessText(req.Text, nil)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, res.Classification)
}

// Parse handles POST /api/documents/parse.
func (h *Handler) Parse(c *gin.Context) {
	var req ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}

	if strings.TrimSpace(req.DocumentType) == "" {
		res, err := h.processor.ProcessText(req.Text, nil)
		if err != nil {
			HandleError(c, err)
			return
		}
		RespondOK(c, res.Parse)
		return
	}

	family, ok := h.expectedFamily(c, req.DocumentType)
	if !ok {
		return
	}
	RespondOK(c, h.parser.Parse(req.Text, *family))
}

// expectedFamily parses an optional documentType value. It writes the error
// response itself and returns false when the value is not a known family.
func (h *Handler) expectedFamily(c *gin.Context, raw string) (*models.DocumentFamily, bool) {
	if strings.TrimSpace(raw) == "" {
		return nil, true
	}
	family, err := models.ParseFamily(raw)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "UNSUPPORTED_DOCUMENT_TYPE",
			fmt.Sprintf("%s: %s", document.ErrUnsupportedDocumentType, raw))
		return nil, false
	}
	return &family, true
}

// resolveInput stores an uploaded file under a generated name, or falls back
// to the imagePath form value. cleanup removes the stored upload.
func (h *Handler) resolveInput(c *gin.Context) (path, displayName string, cleanup func(), ok bool) {
	noop := func() {}

	fh, err := c.FormFile("file")
	if err != nil {
		imagePath := strings.TrimSpace(c.PostForm("imagePath"))
		switch {
		case imagePath != "" && h.allowImagePath:
			return imagePath, "", noop, true
		case imagePath != "":
			RespondError(c, http.StatusBadRequest, "INVALID_ARGUMENT", "imagePath is disabled on this server, upload the file instead")
		case h.allowImagePath:
			RespondError(c, http.StatusBadRequest, "INVALID_ARGUMENT", "a file upload or imagePath is required")
		default:
			RespondError(c, http.StatusBadRequest, "INVALID_ARGUMENT", "a file upload is required")
		}
		return "", "", noop, false
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !ocr.IsSupportedExtension(ext) {
		HandleError(c, &processing.InvalidFormatError{Ext: ext})
		return "", "", noop, false
	}
	if h.maxBytes > 0 && fh.Size > h.maxBytes {
		HandleError(c, processing.ErrFileTooLarge)
		return "", "", noop, false
	}

	if err := os.MkdirAll(h.uploadDir, 0o750); err != nil {
		HandleError(c, fmt.Errorf("create upload dir: %w", err))
		return "", "", noop, false
	}

	stored := filepath.Join(h.uploadDir, uuid.New().String()+ext)
	if err := c.SaveUploadedFile(fh, stored); err != nil {
		HandleError(c, fmt.Errorf("save upload: %w", err))
		return "", "", noop, false
	}

	log := logger.WithContext(c.Request.Context())
	log.Debug().Str("upload", fh.Filename).Str("stored", stored).Int64("size", fh.Size).Msg("Upload stored")

	cleanup = func() {
		if err := os.Remove(stored); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("stored", stored).Msg("Failed to remove upload")
		}
	}
	return stored, filepath.Base(fh.Filename), cleanup, true
}
