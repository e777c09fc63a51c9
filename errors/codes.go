package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Manifest errors
const (
	// ErrCodeFileAccess indicates the manifest file could not be read.
	ErrCodeFileAccess ErrorCode = "FILE_ACCESS"
	// ErrCodeManifestParse indicates the manifest text is malformed.
	ErrCodeManifestParse ErrorCode = "MANIFEST_PARSE"
)

// Run errors
const (
	// ErrCodeStepFailed indicates a step body returned an error.
	ErrCodeStepFailed ErrorCode = "STEP_FAILED"
	// ErrCodeRunState indicates the runner was used outside its lifecycle.
	ErrCodeRunState ErrorCode = "RUN_STATE"
)

// Infrastructure errors
const (
	// ErrCodeNotifyFailed indicates a progress notification could not be delivered.
	ErrCodeNotifyFailed ErrorCode = "NOTIFY_FAILED"
	// ErrCodeInvalidConfig indicates the configuration failed validation.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	// ErrCodeUsage indicates invalid command-line usage.
	ErrCodeUsage ErrorCode = "USAGE"
	// ErrCodeInternal indicates an unexpected failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var exitCodes = map[ErrorCode]int{
	ErrCodeUsage: 2,
}

// ExitCodeFor returns the process exit status for an error code.
func ExitCodeFor(code ErrorCode) int {
	if c, ok := exitCodes[code]; ok {
		return c
	}
	return 1
}
