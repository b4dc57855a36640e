package errors

import (
	"fmt"
	"strings"
)

// IndexError is the structured error type for storyindex.
// It provides context for error handling, logging, and user presentation.
type IndexError struct {
	// Code is the unique error code (e.g., "ERR_301_EXTRACTION_FAILED").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Extraction, Index).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Paths are the source file paths involved in the error.
	// Duplicate conflicts carry both offending import paths.
	Paths []string

	// Cause is the underlying error that caused this error.
	Cause error
}

// Error implements the error interface.
func (e *IndexError) Error() string {
	if len(e.Paths) > 0 {
		return fmt.Sprintf("[%s] %s (%s)", e.Code, e.Message, strings.Join(e.Paths, ", "))
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *IndexError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with IndexError.
func (e *IndexError) Is(target error) bool {
	if t, ok := target.(*IndexError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithPath appends a source file path to the error.
// Returns the error for method chaining.
func (e *IndexError) WithPath(path string) *IndexError {
	e.Paths = append(e.Paths, path)
	return e
}

// New creates a new IndexError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *IndexError {
	return &IndexError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Extraction creates a per-file extraction error.
// Extraction errors are isolated and never abort the batch.
func Extraction(path string, cause error) *IndexError {
	return New(ErrCodeExtraction, fmt.Sprintf("could not extract entries: %v", cause), cause).WithPath(path)
}

// MissingIndexer creates a fatal configuration error for a story file
// that no registered indexer handles.
func MissingIndexer(path string) *IndexError {
	return New(ErrCodeMissingIndexer, "no matching indexer found", nil).WithPath(path)
}

// UnresolvedRef creates an error for a documentation file whose explicit
// reference names a story file that cannot be found.
func UnresolvedRef(docsPath, ref string) *IndexError {
	return New(ErrCodeUnresolvedRef, fmt.Sprintf("could not resolve reference %q", ref), nil).WithPath(docsPath)
}

// Duplicate creates a conflict error naming both offending import paths.
func Duplicate(reason, firstPath, secondPath string) *IndexError {
	return New(ErrCodeDuplicate, reason, nil).WithPath(firstPath).WithPath(secondPath)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *IndexError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// IsFatal checks if an error has fatal severity.
// Fatal errors indicate a configuration defect, not a broken source file.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if ie, ok := err.(*IndexError); ok {
		return ie.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from an IndexError.
// Returns empty string if not an IndexError.
func GetCode(err error) string {
	if ie, ok := err.(*IndexError); ok {
		return ie.Code
	}
	return ""
}
