// Package config holds runtime configuration: defaults, CLI flag parsing, and
// validation. Every other package receives the populated Config by pointer.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// --- Defaults that callers and tests may override ---

const (
	// DefaultPadding is the number of dilation iterations when --padding is not given.
	DefaultPadding = 8

	// DefaultOutputName is the directory created under the base path when
	// neither --output nor --in-place is given.
	DefaultOutputName = "fixed"

	// DefaultWait bounds how long a distributed coordinator waits for outcomes.
	DefaultWait = 10 * time.Minute

	// DefaultStreamPrefix namespaces every Redis key used by the queue.
	DefaultStreamPrefix = "fixmyhalo"

	// StdinInput is the positional argument that selects single-image mode.
	StdinInput = "-"
)

// DefaultExtensions is the accepted extension allow-list (lowercase, with dot).
var DefaultExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".gif", ".tif", ".tiff"}

// --- Enum types for validated string fields ---

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// CollisionPolicy decides what the planner does when two inputs map to the
// same output path.
type CollisionPolicy string

const (
	CollisionSkip   CollisionPolicy = "skip"   // Keep the first job, drop the rest (default).
	CollisionRename CollisionPolicy = "rename" // Give later jobs a " - dupN" output name.
)

// Config holds all runtime settings. It is populated by [DefaultConfig] and
// then mutated by [ParseFlags] before being passed (by pointer) to packages
// that need it.
type Config struct {
	// Input selection (Input is the positional arg: file, directory, glob or "-").
	Input      string
	Recursive  bool
	Extensions []string // Default: DefaultExtensions.

	// Output policy.
	OutputDir         string
	InPlace           bool
	DefaultOutputName string          // Default: "fixed".
	Collision         CollisionPolicy // Default: "skip".
	ArchivePath       string          // Optional zip bundle of all outputs.

	// Dilation.
	Padding int // Default: 8.

	// Execution.
	Workers int  // Default: runtime.NumCPU().
	DryRun  bool // Plan and report without reading or writing images.
	Strict  bool // Exit non-zero when any job failed.

	// Distributed execution over Redis Streams.
	RedisAddr    string
	StreamPrefix string        // Default: "fixmyhalo".
	Worker       bool          // Serve jobs from the queue instead of planning.
	Wait         time.Duration // Default: 10m.

	// Display and logging.
	Verbose     bool
	ColorMode   ColorMode // Default: "auto".
	LogFile     string    // Optional log file path.
	LogToStderr bool      // Set when stdout carries image bytes.
	CheckOnly   bool      // Run --check diagnostics and exit.
}

// DefaultConfig returns a Config with all defaults. Used as the base before
// [ParseFlags] applies CLI overrides.
func DefaultConfig() Config {
	return Config{
		Extensions:        append([]string(nil), DefaultExtensions...),
		DefaultOutputName: DefaultOutputName,
		Collision:         CollisionSkip,
		Padding:           DefaultPadding,
		Workers:           runtime.NumCPU(),
		StreamPrefix:      DefaultStreamPrefix,
		Wait:              DefaultWait,
		ColorMode:         ColorAuto,
	}
}

// Stdin reports whether the run processes a single image from stdin.
func (c *Config) Stdin() bool {
	return c.Input == StdinInput
}

// Distributed reports whether jobs go through the Redis queue.
func (c *Config) Distributed() bool {
	return c.RedisAddr != ""
}

// Validate checks ranges and mode combinations. The in-place/output conflict
// is deliberately left to the planner, which owns output policy.
func (c *Config) Validate() error {
	if c.Padding < 0 {
		return fmt.Errorf("padding must be >= 0 (got %d)", c.Padding)
	}
	if c.Workers < 1 {
		return fmt.Errorf("jobs must be >= 1 (got %d)", c.Workers)
	}

	switch c.Collision {
	case CollisionSkip, CollisionRename:
		// valid
	default:
		return errors.New("invalid collision policy (use 'skip' or 'rename')")
	}

	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return errors.New("invalid color mode (use 'auto', 'always' or 'never')")
	}

	exts, err := NormalizeExtensions(c.Extensions)
	if err != nil {
		return err
	}
	c.Extensions = exts

	if c.DefaultOutputName == "" || strings.ContainsAny(c.DefaultOutputName, `/\`) {
		return fmt.Errorf("invalid default output name %q", c.DefaultOutputName)
	}

	if c.Worker && c.RedisAddr == "" {
		return errors.New("--worker requires --redis")
	}
	if c.Distributed() && c.Wait <= 0 {
		return errors.New("--wait must be a positive duration")
	}

	if c.CheckOnly || c.Worker {
		return nil
	}
	if c.Input == "" {
		return errors.New("need exactly one input (file, directory, glob or '-')")
	}
	if c.Stdin() && (c.Distributed() || c.ArchivePath != "") {
		return errors.New("stdin mode cannot be combined with --redis or --zip")
	}
	return nil
}

// NormalizeExtensions lowercases entries, adds a leading dot, drops
// duplicates and empties. An empty result is an error.
func NormalizeExtensions(raw []string) ([]string, error) {
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, e := range raw {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" || e == "." {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	if len(out) == 0 {
		return nil, errors.New("extension list must not be empty")
	}
	return out, nil
}
