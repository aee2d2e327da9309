package common

import "fmt"

// FetchError reports a failed HTTP retrieval of a page or artifact
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// FileSystemError reports a failed directory or file operation
type FileSystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileSystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileSystemError) Unwrap() error {
	return e.Err
}

// FSError wraps err as a FileSystemError, passing nil through
func FSError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &FileSystemError{Op: op, Path: path, Err: err}
}
