package planner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/fixmyhalo/fixmyhalo/internal/config"
	"github.com/fixmyhalo/fixmyhalo/internal/naming"
)

// NewPolicy validates the output flags. In-place output combined with an
// explicit output directory is a PlanningError.
func NewPolicy(inPlace bool, outputDir, defaultName string) (OutputPolicy, error) {
	switch {
	case inPlace && outputDir != "":
		return OutputPolicy{}, &PlanningError{Msg: "--in-place and --output are mutually exclusive"}
	case inPlace:
		return OutputPolicy{Kind: PolicyInPlace}, nil
	case outputDir != "":
		abs, err := filepath.Abs(outputDir)
		if err != nil {
			return OutputPolicy{}, &PlanningError{Msg: "cannot resolve output directory", Err: err}
		}
		return OutputPolicy{Kind: PolicyExplicit, Dir: abs}, nil
	default:
		if defaultName == "" {
			defaultName = config.DefaultOutputName
		}
		return OutputPolicy{Kind: PolicyDefault, DefaultName: defaultName}, nil
	}
}

// Classify reports whether root names an existing file, an existing
// directory, or anything else, which is treated as a glob pattern. A path
// that does not exist is a glob that matches nothing.
func Classify(root string) (RootKind, error) {
	fi, err := os.Stat(root)
	switch {
	case err == nil && fi.IsDir():
		return RootDir, nil
	case err == nil:
		return RootFile, nil
	case errors.Is(err, fs.ErrNotExist):
		return RootGlob, nil
	default:
		// Patterns with meta characters can fail stat with errors other than
		// not-exist (e.g. ENAMETOOLONG); only surface it for literal paths.
		if hasMeta(root) {
			return RootGlob, nil
		}
		return 0, fmt.Errorf("stat %s: %w", root, err)
	}
}

// Build classifies the root, discovers inputs and assigns outputs. The
// returned plan has jobs sorted by input path with pairwise distinct
// outputs. An empty plan is not an error.
func Build(req Request) (*Plan, error) {
	if req.Root == "" {
		return nil, &PlanningError{Msg: "no input given"}
	}
	policy, err := NewPolicy(req.InPlace, req.OutputDir, req.DefaultOutputName)
	if err != nil {
		return nil, err
	}
	kind, err := Classify(req.Root)
	if err != nil {
		return nil, err
	}
	base, err := resolveBase(kind, req.Root)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		Kind:       kind,
		Base:       base,
		Policy:     policy,
		OutputRoot: policy.Root(base),
	}

	opts := DiscoverOptions{
		Recursive: req.Recursive,
		Prune:     plan.OutputRoot,
	}
	if kind != RootFile {
		opts.Extensions = req.Extensions
	}
	inputs, err := Discover(kind, req.Root, opts)
	if err != nil {
		return nil, err
	}

	inPlace := policy.Kind == PolicyInPlace
	resolver := naming.NewCollisionResolver()
	for i, input := range inputs {
		// Sorted, so repeated inputs are adjacent.
		if i > 0 && inputs[i-1] == input {
			continue
		}
		output := naming.OutputPath(input, base, plan.OutputRoot, inPlace)
		if req.Collision == config.CollisionRename {
			output = resolver.Resolve(input, output)
		} else if !resolver.Claim(input, output) {
			owner, _ := resolver.Owner(output)
			plan.Skipped = append(plan.Skipped, Skipped{Input: input, Output: output, Owner: owner})
			continue
		}
		plan.Jobs = append(plan.Jobs, Job{
			ID:     uuid.NewString(),
			Input:  input,
			Output: output,
		})
	}
	return plan, nil
}

// resolveBase returns the directory output paths are made relative to: the
// directory root, a file's parent, or the working directory for globs.
func resolveBase(kind RootKind, root string) (string, error) {
	switch kind {
	case RootDir:
		return filepath.Abs(root)
	case RootFile:
		abs, err := filepath.Abs(root)
		if err != nil {
			return "", err
		}
		return filepath.Dir(abs), nil
	default:
		return os.Getwd()
	}
}

func hasMeta(path string) bool {
	for _, c := range path {
		switch c {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}
