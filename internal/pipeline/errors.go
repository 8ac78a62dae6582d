package pipeline

import "errors"

// ErrNoFiles is returned by Run when planning found nothing to process. It
// is not a job failure.
var ErrNoFiles = errors.New("no files found")

// IOError is a filesystem failure while processing one job.
type IOError struct {
	Op   string // "read", "mkdir", "write", "rename"
	Path string
	Err  error
}

func (e *IOError) Error() string { return e.Op + " " + e.Path + ": " + e.Err.Error() }
func (e *IOError) Unwrap() error { return e.Err }
