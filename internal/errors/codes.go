// Package errors provides structured error handling for storyindex.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (file, glob)
//   - 3XX: Extraction errors
//   - 4XX: Index assembly errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file and glob I/O errors.
	CategoryIO Category = "IO"
	// CategoryExtraction indicates per-file extraction errors.
	CategoryExtraction Category = "EXTRACTION"
	// CategoryIndex indicates index assembly errors.
	CategoryIndex Category = "INDEX"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates an unrecoverable defect, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates the operation failed but indexing can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// IO errors (200-299)
	ErrCodeFileNotFound = "ERR_201_FILE_NOT_FOUND"
	ErrCodeGlobFailed   = "ERR_202_GLOB_FAILED"

	// Extraction errors (300-399)
	ErrCodeExtraction     = "ERR_301_EXTRACTION_FAILED"
	ErrCodeMissingIndexer = "ERR_302_MISSING_INDEXER"
	ErrCodeUnresolvedRef  = "ERR_303_UNRESOLVED_REFERENCE"

	// Index assembly errors (400-499)
	ErrCodeDuplicate = "ERR_401_DUPLICATE_ENTRY"
	ErrCodeAggregate = "ERR_402_INDEXING_FAILED"
)

// categoryFromCode extracts the category from an error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryIndex
	}

	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryExtraction
	default:
		return CategoryIndex
	}
}

// severityFromCode derives the severity from an error code.
// Missing indexers are a configuration defect and therefore fatal;
// everything else is isolated to a file or entry pair.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeMissingIndexer, ErrCodeConfigInvalid, ErrCodeConfigNotFound:
		return SeverityFatal
	default:
		return SeverityError
	}
}
