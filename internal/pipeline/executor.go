package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/fixmyhalo/fixmyhalo/internal/planner"
)

// Options configures local and distributed execution.
type Options struct {
	Padding  int
	Workers  int          // local pool size; values < 1 mean 1
	Progress ProgressSink // optional
	DryRun   bool         // report every job as done without touching disk
}

// Execute runs jobs on a fixed pool of opts.Workers goroutines and returns
// once every job has an outcome. Each worker writes only the outcome slot of
// the job index it received, so the slice needs no lock; aggregation happens
// after the single WaitGroup join.
//
// When ctx is cancelled, jobs already running finish and every job not yet
// started is reported with KindCancelled.
func Execute(ctx context.Context, jobs []planner.Job, opts Options) Summary {
	start := time.Now()
	outcomes := make([]Outcome, len(jobs))
	started := make([]bool, len(jobs))

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	indices := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				outcomes[i] = runJob(ctx, jobs[i], opts)
				notify(opts.Progress, outcomes[i])
			}
		}()
	}

feed:
	for i := range jobs {
		if ctx.Err() != nil {
			break
		}
		select {
		case indices <- i:
			started[i] = true
		case <-ctx.Done():
			break feed
		}
	}
	close(indices)
	wg.Wait()

	for i, job := range jobs {
		if !started[i] {
			outcomes[i] = Outcome{Job: job, Kind: KindCancelled, Err: "not started: " + context.Cause(ctx).Error()}
			notify(opts.Progress, outcomes[i])
		}
	}
	return Summarize(outcomes, time.Since(start))
}

func runJob(ctx context.Context, job planner.Job, opts Options) Outcome {
	if opts.DryRun && ctx.Err() == nil {
		return Outcome{Job: job}
	}
	return ProcessJob(ctx, job, opts.Padding)
}

func notify(p ProgressSink, o Outcome) {
	if p != nil {
		p.JobDone(o)
	}
}
