package pipeline

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fixmyhalo/fixmyhalo/internal/display"
	"github.com/fixmyhalo/fixmyhalo/internal/logging"
)

// ProgressSink is notified once per finished job. Workers call JobDone
// concurrently, so implementations must be goroutine-safe.
type ProgressSink interface {
	JobDone(o Outcome)
}

// Counter counts finished jobs without locks.
type Counter struct {
	done   atomic.Int64
	failed atomic.Int64
}

func (c *Counter) JobDone(o Outcome) {
	c.done.Add(1)
	if !o.OK() {
		c.failed.Add(1)
	}
}

// Done returns the number of finished jobs so far.
func (c *Counter) Done() int { return int(c.done.Load()) }

// Failed returns the number of failed jobs so far.
func (c *Counter) Failed() int { return int(c.failed.Load()) }

// LogProgress writes one line per job through the logger:
//
//	[3/12] brick.png (412 px)
//	[4/12] broken.png failed: decode
//
// Failure details and per-job stats are shown only when Verbose is set.
type LogProgress struct {
	Log     *logging.Logger
	Total   int
	Verbose bool

	n atomic.Int64
}

func (p *LogProgress) JobDone(o Outcome) {
	n := p.n.Add(1)
	name := filepath.Base(o.Path())
	prefix := fmt.Sprintf("[%d/%d] %s", n, p.Total, name)

	if !o.OK() {
		if p.Verbose {
			p.Log.Error("%s failed (%s): %s", prefix, o.Kind, o.Err)
		} else {
			p.Log.Error("%s failed: %s", prefix, o.Kind)
		}
		return
	}
	if !p.Verbose {
		p.Log.Success("%s", prefix)
		return
	}
	p.Log.Success("%s (%s, %s changed, %s)", prefix,
		o.Stats.Resolution(),
		display.FormatCount(o.PixelsChanged, "pixel"),
		display.FormatDuration(o.Elapsed))
	if o.Worker != "" {
		p.Log.Debug("  worker: %s", o.Worker)
	}
}

// InlineProgress keeps a single \r-overwritten status line on a terminal.
// Call Finish to erase it before printing anything else.
type InlineProgress struct {
	W     io.Writer
	Total int
	Label string // e.g. "Fixing"

	mu     sync.Mutex
	done   int
	failed int
}

func (p *InlineProgress) JobDone(o Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	if !o.OK() {
		p.failed++
	}
	pct := 100
	if p.Total > 0 {
		pct = p.done * 100 / p.Total
	}
	status := fmt.Sprintf("  %s [%d/%d] %d%% ", p.Label, p.done, p.Total, pct)
	if p.failed > 0 {
		status += fmt.Sprintf("(%d failed) ", p.failed)
	}

	name := filepath.Base(o.Path())
	const maxName = 40
	if len(name) > maxName {
		name = name[:maxName-1] + "…"
	}
	status += name

	// Pad to 80 chars to overwrite previous longer lines.
	if len(status) < 80 {
		status += strings.Repeat(" ", 80-len(status))
	}
	fmt.Fprintf(p.W, "\r%s", status)
}

// Finish erases the status line.
func (p *InlineProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.W, "\r%s\r", strings.Repeat(" ", 80))
}

// MultiSink fans one notification out to several sinks in order.
type MultiSink []ProgressSink

func (m MultiSink) JobDone(o Outcome) {
	for _, s := range m {
		if s != nil {
			s.JobDone(o)
		}
	}
}
