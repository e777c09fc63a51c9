// Package errors defines the error kinds a pipeline run can end with.
//
// Every fatal condition is an *AppError carrying a machine-readable
// ErrorCode: the manifest could not be read, the manifest text is
// structurally invalid, or a step failed. Notifier transport failures have
// their own code but are only ever logged, never returned to callers.
//
// The process exit status is derived from the error with ExitCode.
package errors
