package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/usestring/storeadvisor/internal/eventlog"
	"github.com/usestring/storeadvisor/internal/validate"
	"github.com/usestring/storeadvisor/pkg/analyzer"
	"github.com/usestring/storeadvisor/pkg/contenttype"
)

var (
	// ErrEmptyUpload is returned for uploads without content.
	ErrEmptyUpload = errors.New("empty upload")
	// ErrTooLarge is returned for uploads over the configured size limit.
	ErrTooLarge = errors.New("upload exceeds size limit")
	// ErrRecordsPath wraps records-path compile and match failures.
	ErrRecordsPath = errors.New("records path")
)

// Error codes shared by the HTTP API and the MCP tools.
const (
	ErrCodeInvalidInput         = "INVALID_INPUT"
	ErrCodeParseError           = "PARSE_ERROR"
	ErrCodeUnsupportedStructure = "UNSUPPORTED_STRUCTURE"
	ErrCodeSchemaDrift          = "SCHEMA_DRIFT"
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeTooLarge             = "TOO_LARGE"
	ErrCodeUnsupportedMedia     = "UNSUPPORTED_MEDIA"
	ErrCodeStoreError           = "STORE_ERROR"
	ErrCodeTimeout              = "TIMEOUT"
	ErrCodeInternal             = "INTERNAL"
)

// ValidationError reports records that do not match the schema inferred
// from the sample.
type ValidationError struct {
	Report *validate.Report
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%d of %d records do not match the inferred schema", e.Report.Invalid, e.Report.Checked)
}

// StoreError reports a failed write to a backend.
type StoreError struct {
	Backend string
	Err     error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Backend, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// CodedError is an error with an associated error code.
type CodedError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CodedError) Error() string {
	if e.Cause != nil && e.Cause.Error() != e.Message {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CodedError) Unwrap() error {
	return e.Cause
}

// Wrap converts any pipeline error into a coded error. Nil stays nil.
func Wrap(err error) *CodedError {
	if err == nil {
		return nil
	}

	var coded *CodedError
	if errors.As(err, &coded) {
		return coded
	}

	code := ErrCodeInternal
	var (
		validationErr *ValidationError
		storeErr      *StoreError
	)
	switch {
	case errors.Is(err, ErrEmptyUpload), errors.Is(err, ErrRecordsPath):
		code = ErrCodeInvalidInput
	case analyzer.IsParseError(err):
		code = ErrCodeParseError
	case analyzer.IsUnsupportedStructure(err):
		code = ErrCodeUnsupportedStructure
	case errors.As(err, &validationErr):
		code = ErrCodeSchemaDrift
	case errors.Is(err, ErrTooLarge):
		code = ErrCodeTooLarge
	case errors.Is(err, contenttype.ErrNotJSON):
		code = ErrCodeUnsupportedMedia
	case errors.As(err, &storeErr):
		code = ErrCodeStoreError
	case errors.Is(err, eventlog.ErrNotFound), errors.Is(err, os.ErrNotExist):
		code = ErrCodeNotFound
	case errors.Is(err, context.DeadlineExceeded):
		code = ErrCodeTimeout
	}
	return &CodedError{Code: code, Message: err.Error(), Cause: err}
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) error {
	return &CodedError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// ErrInvalidInput creates an invalid input error.
func ErrInvalidInput(message string) error {
	return &CodedError{
		Code:    ErrCodeInvalidInput,
		Message: message,
	}
}
