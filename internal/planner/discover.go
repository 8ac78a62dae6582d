package planner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/fixmyhalo/fixmyhalo/internal/naming"
)

// DiscoverOptions controls candidate discovery.
type DiscoverOptions struct {
	Recursive  bool
	Extensions []string // lowercase with dot; empty accepts everything
	Prune      string   // absolute directory excluded from results, "" for none
}

// Discover returns the absolute, sorted input paths for root.
//
//	RootFile: the file itself, no extension filter
//	RootDir:  files directly in root (or below it when Recursive)
//	RootGlob: doublestar matches, "**" included; directories are ignored
func Discover(kind RootKind, root string, opts DiscoverOptions) ([]string, error) {
	var (
		files []string
		err   error
	)
	switch kind {
	case RootFile:
		abs, absErr := filepath.Abs(root)
		if absErr != nil {
			return nil, absErr
		}
		files = []string{abs}
	case RootDir:
		files, err = walkDir(root, opts)
	default:
		files, err = matchGlob(root, opts)
	}
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// walkDir collects accepted files under dir. Directories inside opts.Prune
// are skipped so a re-run never picks up its own output.
func walkDir(dir string, opts DiscoverOptions) ([]string, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == root {
				return nil
			}
			if !opts.Recursive || (opts.Prune != "" && naming.IsWithin(path, opts.Prune)) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() && d.Type()&fs.ModeSymlink == 0 {
			return nil
		}
		if acceptExt(path, opts.Extensions) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return files, nil
}

// matchGlob expands pattern relative to the working directory.
func matchGlob(pattern string, opts DiscoverOptions) ([]string, error) {
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		if errors.Is(err, doublestar.ErrBadPattern) {
			return nil, &PlanningError{Msg: fmt.Sprintf("invalid glob pattern %q", pattern), Err: err}
		}
		return nil, err
	}
	files := make([]string, 0, len(matches))
	for _, m := range matches {
		abs, err := filepath.Abs(m)
		if err != nil {
			return nil, err
		}
		if opts.Prune != "" && naming.IsWithin(abs, opts.Prune) {
			continue
		}
		fi, err := os.Stat(abs)
		if err != nil || fi.IsDir() {
			continue
		}
		if acceptExt(abs, opts.Extensions) {
			files = append(files, abs)
		}
	}
	return files, nil
}

// acceptExt matches the file extension case-insensitively against exts.
func acceptExt(path string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
