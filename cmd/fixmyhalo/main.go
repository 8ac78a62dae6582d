// Command fixmyhalo is the CLI entrypoint for the texture halo fixer.
//
// It parses flags, validates configuration, and then runs one of: system
// diagnostics (--check), a Redis worker (--worker), single-image stdin mode
// (input "-"), or the batch pipeline over a file, directory or glob.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/fixmyhalo/fixmyhalo/internal/check"
	"github.com/fixmyhalo/fixmyhalo/internal/config"
	"github.com/fixmyhalo/fixmyhalo/internal/display"
	"github.com/fixmyhalo/fixmyhalo/internal/logging"
	"github.com/fixmyhalo/fixmyhalo/internal/pipeline"
	"github.com/fixmyhalo/fixmyhalo/internal/queue"
	"github.com/fixmyhalo/fixmyhalo/internal/texture"
)

// version and commit are injected at build time via -ldflags.
var (
	version = "1.0.0"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Phase 1: Bootstrap. The logger doesn't exist yet, so errors go
	// directly to stderr via fmt.
	cfg := config.DefaultConfig()
	if err := config.ParseFlags(&cfg, version); err != nil {
		fmt.Fprintf(os.Stderr, "fixmyhalo: %v\n", err)
		return 1
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "fixmyhalo: %v\n", err)
		return 1
	}

	log, err := logging.NewLogger(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fixmyhalo: %v\n", err)
		return 1
	}
	defer log.Close()

	// Phase 2: Signal handling. Cancel on SIGINT/SIGTERM so running jobs
	// finish and unstarted ones are reported as cancelled.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn("Received interrupt, finishing running jobs…")
		cancel()
	}()

	// Stdout carries image bytes in stdin mode: no banner, no checks.
	if cfg.Stdin() {
		if err := texture.FixStream(os.Stdin, os.Stdout, cfg.Padding); err != nil {
			log.Error("%v", err)
			return 1
		}
		return 0
	}

	// Phase 3: Logger available; all output goes through log from here on.
	display.PrintBanner(os.Stdout)

	if cfg.CheckOnly {
		if !check.RunCheck(ctx, &cfg, log) {
			return 1
		}
		return 0
	}

	log.Info("=== FixMyHalo v%s (%s) ===", version, commit)

	// Fail fast on a conflicting output policy (before any file is touched),
	// a broken codec, an unwritable output, or Redis configured but down.
	if err := check.CheckDeps(ctx, &cfg); err != nil {
		log.Error("%v", err)
		return 1
	}

	if cfg.Worker {
		return serve(ctx, &cfg, log)
	}

	// Phase 4: Plan and execute.
	summary, err := pipeline.Run(ctx, &cfg, log)
	switch {
	case errors.Is(err, pipeline.ErrNoFiles):
		log.Warn("No files found for %s", cfg.Input)
		return 1
	case err != nil:
		log.Error("%v", err)
		return 1
	}

	if cfg.Strict && summary.Failed > 0 {
		log.Error("Strict mode: %s failed", display.FormatCount(summary.Failed, "file"))
		return 1
	}
	return 0
}

// serve runs this process as a distributed worker until interrupted.
func serve(ctx context.Context, cfg *config.Config, log *logging.Logger) int {
	client, err := queue.New(ctx, cfg.RedisAddr, cfg.StreamPrefix)
	if err != nil {
		log.Error("%v", err)
		return 1
	}
	defer client.Close()
	if err := client.EnsureGroup(ctx); err != nil {
		log.Error("Cannot create consumer group: %v", err)
		return 1
	}

	host, _ := os.Hostname()
	consumer := fmt.Sprintf("%s-%s", host, uuid.NewString()[:8])
	log.Info("Worker %s serving %s with %s", consumer, client.JobStream(), display.FormatCount(cfg.Workers, "consumer"))

	n := pipeline.Serve(ctx, pipeline.NewRedisBroker(client), pipeline.ServeOptions{
		Consumer:    consumer,
		Concurrency: cfg.Workers,
		Log:         log,
	})
	log.Info("Worker stopped after %s", display.FormatCount(int(n), "job"))
	return 0
}
