package naming

import (
	"path/filepath"
	"strings"
)

// OutputPath returns where the fixed version of input is written.
//
//	in-place:  <input>
//	otherwise: <outputDir>/<input relative to base>
//	           <outputDir>/<base name of input>   (input not under base)
func OutputPath(input, base, outputDir string, inPlace bool) string {
	if inPlace {
		return input
	}
	return filepath.Join(outputDir, RelativeName(base, input))
}

// RelativeName returns path relative to base, or just its file name when a
// relative path cannot be computed or would climb out of base.
func RelativeName(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return filepath.Base(path)
	}
	return rel
}

// IsWithin reports whether path equals dir or lies below it. Both must be
// cleaned absolute paths.
func IsWithin(path, dir string) bool {
	sep := string(filepath.Separator)
	return path == dir || strings.HasPrefix(path+sep, strings.TrimSuffix(dir, sep)+sep)
}
