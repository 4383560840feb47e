package document

import (
	"errors"
	"fmt"
)

// Error kinds. Every error produced by this package unwraps to exactly one of them.
var (
	// ErrInvalidArgument marks missing or malformed caller input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound marks a required element that could not be located in the text.
	ErrNotFound = errors.New("not found")

	// ErrUnsupportedFamily marks a family value outside the supported set.
	ErrUnsupportedFamily = errors.New("unsupported document family")
)

// Concrete failures. Their messages are what ParseResult.Errors carries.
var (
	ErrEmptyText                          = newKindError(ErrInvalidArgument, "raw text cannot be empty")
	ErrNoMRZCandidates                    = newKindError(ErrNotFound, "no MRZ candidates found")
	ErrMRZLine1NotFound                   = newKindError(ErrNotFound, "MRZ line 1 not detected")
	ErrMRZLine2NotFound                   = newKindError(ErrNotFound, "MRZ line 2 not detected")
	ErrEmiratesIDNotDetected              = newKindError(ErrNotFound, "Emirates ID number not detected")
	ErrTradeLicenseIdentifiersNotDetected = newKindError(ErrNotFound, "UAE Trade License number or company name not detected")
	ErrUnsupportedDocumentType            = newKindError(ErrUnsupportedFamily, "Unsupported document type")
)

// kindError is a fixed message bound to one error kind.
type kindError struct {
	kind error
	msg  string
}

func newKindError(kind error, msg string) *kindError {
	return &kindError{kind: kind, msg: msg}
}

func (e *kindError) Error() string {
	return e.msg
}

func (e *kindError) Unwrap() error {
	return e.kind
}

// ExtractionError records which operation failed while extracting fields.
type ExtractionError struct {
	// Op is the operation that failed (e.g., "ParsePassport").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("document: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("document: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *ExtractionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapExtractionError wraps err as an ExtractionError unless it already is one.
func WrapExtractionError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var extErr *ExtractionError
	if errors.As(err, &extErr) {
		return err
	}

	return &ExtractionError{Op: op, Err: err, Details: details}
}

// KindOf maps err onto one of the three error kinds. Errors from outside
// this package are reported as ErrInvalidArgument.
func KindOf(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return ErrNotFound
	case errors.Is(err, ErrUnsupportedFamily):
		return ErrUnsupportedFamily
	default:
		return ErrInvalidArgument
	}
}

// userMessage returns the text recorded in ParseResult.Errors for err.
// Known failures keep their fixed message without the operation prefix.
func userMessage(err error) string {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.msg
	}
	return err.Error()
}
