package planner

import (
	"path/filepath"

	"github.com/fixmyhalo/fixmyhalo/internal/config"
)

// Job is one unit of work: read Input, write the fixed image to Output.
// Both paths are absolute. Jobs are immutable once planned.
type Job struct {
	ID     string
	Input  string
	Output string
}

// PolicyKind selects how output paths are derived.
type PolicyKind int

const (
	PolicyDefault  PolicyKind = iota // <base>/<DefaultName>
	PolicyExplicit                   // caller-supplied output root
	PolicyInPlace                    // overwrite the input
)

func (k PolicyKind) String() string {
	switch k {
	case PolicyExplicit:
		return "explicit"
	case PolicyInPlace:
		return "in-place"
	default:
		return "default"
	}
}

// OutputPolicy is a validated output policy. Build it with NewPolicy.
type OutputPolicy struct {
	Kind        PolicyKind
	Dir         string // PolicyExplicit only
	DefaultName string // PolicyDefault only
}

// Root returns the output root for a plan rooted at base, or "" for
// in-place output.
func (p OutputPolicy) Root(base string) string {
	switch p.Kind {
	case PolicyInPlace:
		return ""
	case PolicyExplicit:
		return p.Dir
	default:
		return filepath.Join(base, p.DefaultName)
	}
}

// RootKind classifies the root argument.
type RootKind int

const (
	RootFile RootKind = iota
	RootDir
	RootGlob
)

func (k RootKind) String() string {
	switch k {
	case RootDir:
		return "directory"
	case RootGlob:
		return "glob"
	default:
		return "file"
	}
}

// Request holds everything the planner needs. Extensions must be normalized
// (lowercase, leading dot).
type Request struct {
	Root              string
	Recursive         bool
	InPlace           bool
	OutputDir         string
	Extensions        []string
	DefaultOutputName string
	Collision         config.CollisionPolicy
}

// RequestFromConfig copies the planning fields out of cfg.
func RequestFromConfig(cfg *config.Config) Request {
	return Request{
		Root:              cfg.Input,
		Recursive:         cfg.Recursive,
		InPlace:           cfg.InPlace,
		OutputDir:         cfg.OutputDir,
		Extensions:        cfg.Extensions,
		DefaultOutputName: cfg.DefaultOutputName,
		Collision:         cfg.Collision,
	}
}

// Skipped is a discovered input that was left out of the plan because another
// job already targets the same output path.
type Skipped struct {
	Input  string
	Output string
	Owner  string // input of the job that kept Output
}

// Plan is the planner's result. Jobs are sorted by input path and no two
// jobs share an output path.
type Plan struct {
	Kind       RootKind
	Base       string
	Policy     OutputPolicy
	OutputRoot string // "" for in-place
	Jobs       []Job
	Skipped    []Skipped
}

// Empty reports whether discovery produced no jobs.
func (p *Plan) Empty() bool { return len(p.Jobs) == 0 }
