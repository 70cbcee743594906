package errors

// ErrorCode is a typed identifier for a failure category.  Codes are stable
// strings so they can be used as log fields and metric labels.
type ErrorCode string

// Common codes shared by every job.
const (
	ErrCodeInternal        ErrorCode = "COMMON_001"
	ErrCodeNotFound        ErrorCode = "COMMON_002"
	ErrCodeValidation      ErrorCode = "COMMON_003"
	ErrCodeDatabaseError   ErrorCode = "COMMON_004"
	ErrCodeStorageError    ErrorCode = "COMMON_005"
	ErrCodeExternalService ErrorCode = "COMMON_006"
	ErrCodeTimeout         ErrorCode = "COMMON_007"
)

// Extraction and pipeline codes.
const (
	ErrCodeMalformedXML       ErrorCode = "EXTRACT_001"
	ErrCodeMissingField       ErrorCode = "EXTRACT_002"
	ErrCodeDecodeFailure      ErrorCode = "EXTRACT_003"
	ErrCodeUnsupportedArchive ErrorCode = "ARCHIVE_001"
	ErrCodeBadArchive         ErrorCode = "ARCHIVE_002"
	ErrCodeSchemaMismatch     ErrorCode = "COLUMNAR_001"
	ErrCodeEmbeddingFailed    ErrorCode = "EMBED_001"
	ErrCodeDownloadTimeout    ErrorCode = "SCRAPE_001"
	ErrCodeListingNotFound    ErrorCode = "SCRAPE_002"
)

// CodeOK is the sentinel returned by GetCode for a nil error.
const CodeOK = ErrorCode("OK")

// CodeUnknown is returned by GetCode when no AppError is present in a chain.
const CodeUnknown = ErrorCode("UNKNOWN")

// String returns the code's string form.
func (c ErrorCode) String() string { return string(c) }
