package cli

// Error codes for structured error responses.
// These codes are stable and can be relied upon by scripts.
const (
	ErrConfigInvalid = "CONFIG_INVALID"

	// File errors
	ErrFileReadError   = "FILE_READ_ERROR"
	ErrFileWriteError  = "FILE_WRITE_ERROR"
	ErrNotebookInvalid = "NOTEBOOK_INVALID"

	// Input errors
	ErrInvalidInput    = "INVALID_INPUT"
	ErrMissingArgument = "MISSING_ARGUMENT"

	ErrInternal = "INTERNAL_ERROR"
)
