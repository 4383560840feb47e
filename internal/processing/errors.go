package processing

import (
	"errors"
	"fmt"

	"docextract/pkg/models"
)

// Common processing errors
var (
	// ErrEmptyPath is returned when no file path was supplied.
	ErrEmptyPath = errors.New("File path cannot be empty")

	// ErrFileNotFound is returned when the input file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrInvalidFileFormat is returned for extensions outside the allow-list.
	ErrInvalidFileFormat = errors.New("invalid file format")

	// ErrFileTooLarge is returned when the input exceeds the upload limit.
	ErrFileTooLarge = errors.New("file exceeds the maximum size")

	// ErrDocumentTypeMismatch is matched by every *MismatchError.
	ErrDocumentTypeMismatch = errors.New("document type mismatch")
)

// ProcessingError wraps errors with the file and stage that failed.
type ProcessingError struct {
	// Op is the stage that failed (e.g., "Validate", "ExtractText").
	Op string

	// Path is the input file, if any.
	Path string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ProcessingError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("processing: %s failed for %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("processing: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *ProcessingError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapProcessingError wraps err as a ProcessingError unless it already is one.
func WrapProcessingError(op, path string, err error) error {
	if err == nil {
		return nil
	}

	var procErr *ProcessingError
	if errors.As(err, &procErr) {
		return err
	}

	return &ProcessingError{Op: op, Path: path, Err: err}
}

// MismatchError reports that the classifier disagreed with the family the
// caller asked for.
type MismatchError struct {
	Expected models.DocumentFamily
	Detected models.DocumentFamily
}

// Error implements the error interface. The text is shown to end users.
func (e *MismatchError) Error() string {
	return fmt.Sprintf("Document type mismatch. Expected: %s, but detected: %s. The uploaded document does not match the selected document type.",
		e.Expected, e.Detected)
}

// Is matches ErrDocumentTypeMismatch.
func (e *MismatchError) Is(target error) bool {
	return target == ErrDocumentTypeMismatch
}

// InvalidFormatError carries the friendly message for a rejected extension.
type InvalidFormatError struct {
	Ext string
}

// Error implements the error interface.
func (e *InvalidFormatError) Error() string {
	ext := e.Ext
	if ext == "" {
		ext = "none"
	}
	return fmt.Sprintf("Invalid file format. Allowed formats are: %s. Provided: %s", allowedFormats(), ext)
}

// Is matches ErrInvalidFileFormat.
func (e *InvalidFormatError) Is(target error) bool {
	return target == ErrInvalidFileFormat
}
