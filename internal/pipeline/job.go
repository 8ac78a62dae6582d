package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fixmyhalo/fixmyhalo/internal/codec"
	"github.com/fixmyhalo/fixmyhalo/internal/dilate"
	"github.com/fixmyhalo/fixmyhalo/internal/planner"
	"github.com/fixmyhalo/fixmyhalo/internal/probe"
)

// ProcessJob runs one job end to end: read, decode, dilate, encode, write.
// The output keeps its extension's format only when that format stores alpha
// losslessly; otherwise it carries PNG data (see codec.FormatForPath). It never returns
// an error; failures are recorded in the Outcome. The output is written to a
// temp file in the output directory and renamed into place, so a failed job
// leaves no partial file and in-place jobs never truncate their input early.
func ProcessJob(ctx context.Context, job planner.Job, padding int) Outcome {
	if err := ctx.Err(); err != nil {
		return Outcome{Job: job, Kind: KindCancelled, Err: "not started: " + err.Error()}
	}
	start := time.Now()

	data, err := os.ReadFile(job.Input)
	if err != nil {
		return failed(job, &IOError{Op: "read", Path: job.Input, Err: err})
	}

	img, err := codec.Decode(data)
	if err != nil {
		o := failed(job, err)
		o.InputBytes = int64(len(data))
		return o
	}

	stats := probe.Inspect(img)
	fixed := img
	if stats.NeedsDilation() {
		fixed = dilate.Dilate(img, padding)
	}

	encoded, err := codec.Encode(fixed, codec.FormatForPath(job.Output))
	if err != nil {
		return failed(job, err)
	}
	if err := writeAtomic(job.Output, encoded); err != nil {
		return failed(job, err)
	}

	return Outcome{
		Job:           job,
		InputBytes:    int64(len(data)),
		OutputBytes:   int64(len(encoded)),
		Stats:         stats,
		PixelsChanged: probe.CountChanged(img, fixed),
		Elapsed:       time.Since(start),
	}
}

// writeAtomic creates the parent directory (racing creators are fine) and
// replaces path with data via temp file and rename.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &IOError{Op: "mkdir", Path: dir, Err: err}
	}
	tmp, err := os.CreateTemp(dir, ".fixmyhalo-*.tmp")
	if err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &IOError{Op: "write", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &IOError{Op: "write", Path: path, Err: err}
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return &IOError{Op: "write", Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &IOError{Op: "rename", Path: path, Err: err}
	}
	return nil
}
