package widgets

import "fmt"

// Op names the stage of Fix that failed.
type Op string

const (
	OpRead   Op = "read"
	OpDecode Op = "decode"
	OpWrite  Op = "write"
)

// FileError records a failure to read, decode or write one notebook.
type FileError struct {
	Path string
	Op   Op
	Err  error
}

func (e *FileError) Error() string {
	if e.Op == OpWrite {
		return fmt.Sprintf("write %s: %v", e.Path, e.Err)
	}
	// Read and decode errors already name the file.
	return e.Err.Error()
}

func (e *FileError) Unwrap() error {
	return e.Err
}
