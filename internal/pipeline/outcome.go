package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/fixmyhalo/fixmyhalo/internal/codec"
	"github.com/fixmyhalo/fixmyhalo/internal/planner"
	"github.com/fixmyhalo/fixmyhalo/internal/probe"
)

// ErrorKind classifies a failed job. The empty kind means success.
type ErrorKind string

const (
	KindNone      ErrorKind = ""
	KindDecode    ErrorKind = "decode"    // input is not a decodable image
	KindEncode    ErrorKind = "encode"    // fixed image could not be encoded
	KindIO        ErrorKind = "io"        // read, mkdir or write failed
	KindCancelled ErrorKind = "cancelled" // never started: the run was interrupted
	KindRemote    ErrorKind = "remote"    // no worker reported before the deadline
)

// Outcome is the result of one job. Exactly one Outcome exists per job.
type Outcome struct {
	Job           planner.Job
	Kind          ErrorKind
	Err           string // failure description, empty on success
	InputBytes    int64
	OutputBytes   int64
	Stats         probe.Stats
	PixelsChanged int
	Elapsed       time.Duration
	Worker        string // consumer name in distributed mode
}

// OK reports whether the job succeeded.
func (o Outcome) OK() bool { return o.Kind == KindNone }

// Path is the output path on success and the input path on failure.
func (o Outcome) Path() string {
	if o.OK() {
		return o.Job.Output
	}
	return o.Job.Input
}

func failed(job planner.Job, err error) Outcome {
	return Outcome{Job: job, Kind: classify(err), Err: err.Error()}
}

func classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case codec.IsDecodeError(err):
		return KindDecode
	case codec.IsEncodeError(err):
		return KindEncode
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCancelled
	default:
		return KindIO
	}
}
