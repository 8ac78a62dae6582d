package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/fixmyhalo/fixmyhalo/internal/archive"
	"github.com/fixmyhalo/fixmyhalo/internal/config"
	"github.com/fixmyhalo/fixmyhalo/internal/display"
	"github.com/fixmyhalo/fixmyhalo/internal/logging"
	"github.com/fixmyhalo/fixmyhalo/internal/naming"
	"github.com/fixmyhalo/fixmyhalo/internal/planner"
	"github.com/fixmyhalo/fixmyhalo/internal/queue"
	"github.com/fixmyhalo/fixmyhalo/internal/term"
)

// Run is the top-level batch entry point: plan, execute locally or through
// Redis, optionally bundle outputs, and log a summary.
//
// A *planner.PlanningError (or any other planning failure) is returned
// before any job runs. ErrNoFiles is returned for an empty plan. Individual
// job failures are not errors; they are counted in the Summary.
func Run(ctx context.Context, cfg *config.Config, log *logging.Logger) (Summary, error) {
	plan, err := planner.Build(planner.RequestFromConfig(cfg))
	if err != nil {
		return Summary{}, err
	}

	logBatchHeader(cfg, log, plan)
	for _, s := range plan.Skipped {
		log.Skip("Duplicate output, skipped: %s (already written by %s)", s.Input, s.Owner)
	}
	if plan.Empty() {
		return Summary{}, ErrNoFiles
	}

	opts := Options{
		Padding: cfg.Padding,
		Workers: cfg.Workers,
		DryRun:  cfg.DryRun,
	}
	var (
		inline  *InlineProgress
		counter Counter
	)
	if !cfg.Verbose && !cfg.LogToStderr && term.IsTerminal(os.Stdout) {
		inline = &InlineProgress{W: os.Stdout, Total: len(plan.Jobs), Label: "Fixing"}
		opts.Progress = MultiSink{inline, &counter}
	} else {
		opts.Progress = MultiSink{&LogProgress{Log: log, Total: len(plan.Jobs), Verbose: cfg.Verbose}, &counter}
	}

	batchID := uuid.NewString()
	var sum Summary
	if cfg.Distributed() {
		sum, err = runDistributed(ctx, cfg, log, batchID, plan.Jobs, opts)
		if err != nil {
			if inline != nil {
				inline.Finish()
			}
			return Summary{}, err
		}
	} else {
		sum = Execute(ctx, plan.Jobs, opts)
		sum.BatchID = batchID
	}
	if inline != nil {
		inline.Finish()
	}
	if ctx.Err() != nil {
		log.Warn("Interrupted: %d of %d jobs had finished", counter.Done()-countKind(&sum, KindCancelled), len(plan.Jobs))
	}

	if cfg.ArchivePath != "" {
		bundle(cfg, log, plan, &sum)
	}
	if cfg.Verbose && !cfg.DryRun {
		fmt.Println()
		PrintReport(os.Stdout, &sum)
	}
	logSummary(cfg, log, &sum)
	return sum, nil
}

func runDistributed(ctx context.Context, cfg *config.Config, log *logging.Logger, batchID string, jobs []planner.Job, opts Options) (Summary, error) {
	client, err := queue.New(ctx, cfg.RedisAddr, cfg.StreamPrefix)
	if err != nil {
		return Summary{}, err
	}
	defer client.Close()
	if err := client.EnsureGroup(ctx); err != nil {
		return Summary{}, fmt.Errorf("create consumer group: %w", err)
	}
	log.Info("Batch %s: queued %s on %s, waiting up to %s",
		batchID, display.FormatCount(len(jobs), "job"), cfg.RedisAddr, cfg.Wait)
	return Coordinate(ctx, NewRedisBroker(client), batchID, jobs, opts, cfg.Wait)
}

// bundle zips every successful output. Entry names are relative to the
// output root (or the base directory for in-place runs).
func bundle(cfg *config.Config, log *logging.Logger, plan *planner.Plan, sum *Summary) {
	if cfg.DryRun {
		log.Info("[DRY] Would bundle %s into %s", display.FormatCount(sum.Succeeded, "file"), cfg.ArchivePath)
		return
	}
	root := plan.OutputRoot
	if root == "" {
		root = plan.Base
	}
	successes := sum.Successes()
	if len(successes) == 0 {
		log.Warn("Nothing to bundle: no job succeeded")
		return
	}
	entries := make([]archive.Entry, 0, len(successes))
	for _, o := range successes {
		entries = append(entries, archive.Entry{
			Name: naming.RelativeName(root, o.Job.Output),
			Path: o.Job.Output,
		})
	}
	size, err := archive.Bundle(cfg.ArchivePath, entries)
	if err != nil {
		log.Error("Zip bundle failed: %v", err)
		return
	}
	log.Success("Bundled %s into %s (%s)", display.FormatCount(len(entries), "file"), cfg.ArchivePath, display.FormatBytes(size))
}

func countKind(s *Summary, kind ErrorKind) int {
	n := 0
	for _, o := range s.Failures {
		if o.Kind == kind {
			n++
		}
	}
	return n
}

// --- Logging helpers ---

func logBatchHeader(cfg *config.Config, log *logging.Logger, plan *planner.Plan) {
	log.Info("Found %s (%s root, base %s)", display.FormatCount(len(plan.Jobs), "file"), plan.Kind, plan.Base)
	switch plan.Policy.Kind {
	case planner.PolicyInPlace:
		log.Info("Output: in place (inputs are overwritten)")
	default:
		log.Info("Output: %s", plan.OutputRoot)
	}
	log.Info("Padding: %d px", cfg.Padding)
	if cfg.Distributed() {
		log.Info("Execution: distributed via Redis %s", cfg.RedisAddr)
	} else {
		log.Info("Execution: %s", display.FormatCount(min(cfg.Workers, max(len(plan.Jobs), 1)), "worker"))
	}
	if cfg.DryRun {
		log.Info("Dry run: no files are read or written")
	}
	if cfg.Strict {
		log.Info("Strict mode: any failed file fails the run")
	}
	fmt.Println()
}

func logSummary(cfg *config.Config, log *logging.Logger, s *Summary) {
	log.Info("==============================")
	log.Info("Done: %d fixed, %d failed (of %d) in %s",
		s.Succeeded, s.Failed, s.Total, display.FormatDuration(s.Elapsed))

	for _, o := range s.Failures {
		if cfg.Verbose {
			log.Error("  %s: %s (%s)", o.Job.Input, o.Err, o.Kind)
		} else {
			log.Error("  %s (%s)", o.Job.Input, o.Kind)
		}
	}

	if cfg.DryRun {
		log.Info("  Size change: n/a (dry run)")
		return
	}
	if s.Succeeded == 0 {
		return
	}
	log.Info("  Pixels recolored: %d", s.PixelsChanged)
	log.Info("  Size change: %s (input %s -> output %s)",
		display.FormatBytesWithSign(s.SizeDelta()),
		display.FormatBytes(s.InputBytes),
		display.FormatBytes(s.OutputBytes))
}
