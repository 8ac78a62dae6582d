// Package archive bundles produced textures into a single zip file.
package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zip"
)

// Entry is one file to add: Path on disk, stored under Name (slash
// separated) inside the archive.
type Entry struct {
	Name string
	Path string
}

// Bundle writes entries into a zip at dest. The archive is assembled in a
// temp file next to dest and renamed into place, so dest is either complete
// or untouched. It returns the archive size in bytes.
func Bundle(dest string, entries []Entry) (int64, error) {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}
	tmp, err := os.CreateTemp(dir, ".fixmyhalo-*.zip")
	if err != nil {
		return 0, err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	zw := zip.NewWriter(tmp)
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		name := filepath.ToSlash(e.Name)
		if seen[name] {
			continue
		}
		seen[name] = true
		if err := addFile(zw, name, e.Path); err != nil {
			zw.Close()
			tmp.Close()
			return 0, err
		}
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		return 0, err
	}
	fi, err := tmp.Stat()
	if err != nil {
		tmp.Close()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, err
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

func addFile(zw *zip.Writer, name, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("archive %s: %w", path, err)
	}
	defer f.Close()

	modified := time.Now()
	if fi, err := f.Stat(); err == nil {
		modified = fi.ModTime()
	}
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: modified,
	})
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("archive %s: %w", path, err)
	}
	return nil
}
