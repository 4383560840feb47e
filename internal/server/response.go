package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"docextract/internal/document"
	"docextract/internal/logger"
	"docextract/internal/ocr"
	"docextract/internal/processing"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapError translates pipeline errors to HTTP status codes and error codes.
// Messages of user-correctable errors are passed through verbatim.
func MapError(err error) (status int, code, msg string) {
	var mismatch *processing.MismatchError
	var format *processing.InvalidFormatError

	switch {
	case errors.As(err, &mismatch):
		return http.StatusUnprocessableEntity, "DOCUMENT_TYPE_MISMATCH", mismatch.Error()
	case errors.As(err, &format):
		return http.StatusBadRequest, "INVALID_FILE_FORMAT", format.Error()
	case errors.Is(err, processing.ErrEmptyPath):
		return http.StatusBadRequest, "INVALID_ARGUMENT", processing.ErrEmptyPath.Error()
	case errors.Is(err, processing.ErrFileNotFound):
		return http.StatusNotFound, "FILE_NOT_FOUND", "file not found"
	case errors.Is(err, processing.ErrFileTooLarge), errors.Is(err, ocr.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds maximum allowed size"
	case errors.Is(err, ocr.ErrInvalidPDF):
		return http.StatusBadRequest, "INVALID_PDF", "the PDF file is corrupted or invalid"
	case errors.Is(err, ocr.ErrTooManyPages):
		return http.StatusBadRequest, "TOO_MANY_PAGES", "the PDF has too many pages for synchronous processing"
	case errors.Is(err, ocr.ErrQuotaExceeded):
		return http.StatusTooManyRequests, "QUOTA_EXCEEDED", "OCR quota exceeded, try again later"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, ocr.ErrContextCanceled):
		return http.StatusGatewayTimeout, "TIMEOUT", "document processing timed out"
	case errors.Is(err, document.ErrUnsupportedFamily):
		return http.StatusBadRequest, "UNSUPPORTED_DOCUMENT_TYPE", document.ErrUnsupportedDocumentType.Error()
	case errors.Is(err, document.ErrEmptyText):
		return http.StatusBadRequest, "INVALID_ARGUMENT", document.ErrEmptyText.Error()
	case errors.Is(err, document.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", err.Error()
	case errors.Is(err, document.ErrInvalidArgument):
		return http.StatusBadRequest, "INVALID_ARGUMENT", err.Error()
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps err and sends the matching error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapError(err)
	log := logger.WithContext(c.Request.Context())
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("code", code).Msg("Request failed")
	} else {
		log.Warn().Err(err).Str("code", code).Msg("Request rejected")
	}
	RespondError(c, status, code, msg)
}
