package pipeline

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fixmyhalo/fixmyhalo/internal/display"
	"github.com/fixmyhalo/fixmyhalo/internal/logging"
	"github.com/fixmyhalo/fixmyhalo/internal/planner"
)

// pollInterval caps how long one Collect or Next call blocks, so deadlines
// and cancellation are noticed promptly.
const pollInterval = time.Second

// Broker is the coordinator's view of the job queue.
type Broker interface {
	Enqueue(ctx context.Context, task Task) error
	// Collect returns outcomes published since the previous call for the
	// batch, blocking up to block when there are none.
	Collect(ctx context.Context, batchID string, block time.Duration) ([]Outcome, error)
	Drop(ctx context.Context, batchID string) error
}

// WorkQueue is a worker's view of the job queue.
type WorkQueue interface {
	// Next returns the next task, or nil after block elapsed with none.
	Next(ctx context.Context, consumer string, block time.Duration) (*Task, error)
	// Reclaim takes over tasks left pending by consumers idle for minIdle.
	Reclaim(ctx context.Context, consumer string, minIdle time.Duration) ([]Task, error)
	// Complete publishes the outcome and acknowledges the task.
	Complete(ctx context.Context, task Task, out Outcome) error
}

// Task is a job in transit together with its execution parameters.
type Task struct {
	ID      string // queue entry ID, set on delivery
	BatchID string
	Job     planner.Job
	Padding int
	DryRun  bool
}

// Coordinate enqueues every job for remote workers and collects outcomes
// until all jobs reported, wait elapsed, or ctx was cancelled. Jobs without
// an outcome are reported as KindRemote (or KindCancelled after an
// interrupt), so the Summary always has one outcome per job. Duplicate
// outcomes from re-delivered tasks are ignored.
//
// An error is returned only when jobs could not be enqueued.
func Coordinate(ctx context.Context, broker Broker, batchID string, jobs []planner.Job, opts Options, wait time.Duration) (Summary, error) {
	start := time.Now()
	index := make(map[string]int, len(jobs))
	for i, job := range jobs {
		index[job.ID] = i
		task := Task{BatchID: batchID, Job: job, Padding: opts.Padding, DryRun: opts.DryRun}
		if err := broker.Enqueue(ctx, task); err != nil {
			return Summary{}, fmt.Errorf("enqueue %s: %w", job.Input, err)
		}
	}

	outcomes := make([]Outcome, len(jobs))
	reported := make([]bool, len(jobs))
	remaining := len(jobs)
	deadline := start.Add(wait)

	for remaining > 0 && ctx.Err() == nil {
		left := time.Until(deadline)
		if left <= 0 {
			break
		}
		outs, err := broker.Collect(ctx, batchID, min(left, pollInterval))
		if err != nil {
			// Transient broker errors are retried until the deadline.
			sleep(ctx, min(left, pollInterval))
			continue
		}
		for _, o := range outs {
			i, ok := index[o.Job.ID]
			if !ok || reported[i] {
				continue
			}
			o.Job = jobs[i]
			outcomes[i] = o
			reported[i] = true
			remaining--
			notify(opts.Progress, o)
		}
	}

	for i, job := range jobs {
		if reported[i] {
			continue
		}
		o := Outcome{Job: job, Kind: KindRemote, Err: fmt.Sprintf("no worker reported within %s", wait)}
		if ctx.Err() != nil {
			o.Kind, o.Err = KindCancelled, "interrupted before a worker reported"
		}
		outcomes[i] = o
		notify(opts.Progress, o)
	}

	_ = broker.Drop(context.WithoutCancel(ctx), batchID)

	s := Summarize(outcomes, time.Since(start))
	s.BatchID = batchID
	return s, nil
}

// ServeOptions configures a worker process.
type ServeOptions struct {
	Consumer     string        // base consumer name, unique per process
	Concurrency  int           // parallel consumers; values < 1 mean 1
	Block        time.Duration // per-read block; default pollInterval
	ReclaimEvery time.Duration // default 30s
	MinIdle      time.Duration // pending age before reclaim; default 1m
	Log          *logging.Logger
}

// Serve consumes tasks until ctx is cancelled. Each of the Concurrency
// consumers reads one task at a time, runs it with ProcessJob, publishes the
// outcome and acks. A monitor goroutine periodically reclaims tasks stranded
// by dead consumers. A task interrupted before it started is not acked and
// will be reclaimed by another worker.
func Serve(ctx context.Context, q WorkQueue, opts ServeOptions) int64 {
	opts = serveDefaults(opts)
	var processed atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < opts.Concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			consumer := fmt.Sprintf("%s-%d", opts.Consumer, id)
			opts.Log.Debug("Consumer %s started", consumer)
			for ctx.Err() == nil {
				task, err := q.Next(ctx, consumer, opts.Block)
				if err != nil {
					if ctx.Err() == nil {
						opts.Log.Warn("Read failed on %s: %v", consumer, err)
						sleep(ctx, opts.Block)
					}
					continue
				}
				if task == nil {
					continue
				}
				if handleTask(ctx, q, *task, consumer, opts.Log) {
					processed.Add(1)
				}
			}
		}(i)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		consumer := opts.Consumer + "-reclaim"
		ticker := time.NewTicker(opts.ReclaimEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tasks, err := q.Reclaim(ctx, consumer, opts.MinIdle)
				if err != nil {
					opts.Log.Warn("Reclaim failed: %v", err)
					continue
				}
				if len(tasks) > 0 {
					opts.Log.Info("Reclaimed %d stale job(s)", len(tasks))
				}
				for _, t := range tasks {
					if handleTask(ctx, q, t, consumer, opts.Log) {
						processed.Add(1)
					}
				}
			}
		}
	}()

	wg.Wait()
	return processed.Load()
}

// handleTask runs one task and reports it. It returns false when the task
// was left pending.
func handleTask(ctx context.Context, q WorkQueue, task Task, consumer string, log *logging.Logger) bool {
	if ctx.Err() != nil {
		return false
	}
	var out Outcome
	if task.DryRun {
		out = Outcome{Job: task.Job}
	} else {
		out = ProcessJob(ctx, task.Job, task.Padding)
	}
	out.Worker = consumer

	if err := q.Complete(ctx, task, out); err != nil {
		log.Warn("Publish failed for %s: %v", task.Job.Input, err)
		return false
	}
	if out.OK() {
		log.Success("%s (%s)", task.Job.Input, display.FormatDuration(out.Elapsed))
	} else {
		log.Error("%s failed (%s): %s", task.Job.Input, out.Kind, out.Err)
	}
	return true
}

func serveDefaults(o ServeOptions) ServeOptions {
	if o.Concurrency < 1 {
		o.Concurrency = 1
	}
	if o.Block <= 0 {
		o.Block = pollInterval
	}
	if o.ReclaimEvery <= 0 {
		o.ReclaimEvery = 30 * time.Second
	}
	if o.MinIdle <= 0 {
		o.MinIdle = time.Minute
	}
	if o.Consumer == "" {
		o.Consumer = "worker"
	}
	if o.Log == nil {
		o.Log = logging.NewWriterLogger(io.Discard, false)
	}
	return o
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
