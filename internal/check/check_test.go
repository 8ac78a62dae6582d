package check

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fixmyhalo/fixmyhalo/internal/config"
	"github.com/fixmyhalo/fixmyhalo/internal/planner"
)

// mockLogger records every line with its level.
type mockLogger struct {
	lines []string
}

func (m *mockLogger) add(level, format string, args ...interface{}) {
	m.lines = append(m.lines, level+" "+fmt.Sprintf(format, args...))
}

func (m *mockLogger) Info(f string, a ...interface{})    { m.add("INFO", f, a...) }
func (m *mockLogger) Success(f string, a ...interface{}) { m.add("SUCCESS", f, a...) }
func (m *mockLogger) Warn(f string, a ...interface{})    { m.add("WARN", f, a...) }
func (m *mockLogger) Error(f string, a ...interface{})   { m.add("ERROR", f, a...) }
func (m *mockLogger) Debug(f string, a ...interface{})   { m.add("DEBUG", f, a...) }

func (m *mockLogger) count(level string) int {
	n := 0
	for _, l := range m.lines {
		if strings.HasPrefix(l, level+" ") {
			n++
		}
	}
	return n
}

func TestRunCheck_Passes(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.OutputDir = filepath.Join(t.TempDir(), "not", "yet", "created")
	log := &mockLogger{}

	if !RunCheck(context.Background(), &cfg, log) {
		t.Fatalf("RunCheck failed:\n%s", strings.Join(log.lines, "\n"))
	}
	if log.count("ERROR") != 0 {
		t.Errorf("unexpected errors:\n%s", strings.Join(log.lines, "\n"))
	}
	if log.count("SUCCESS") < 5 {
		t.Errorf("expected a success line per output codec and self-test, got:\n%s", strings.Join(log.lines, "\n"))
	}
}

func TestCheckCodecs_LossyFormatsAreInputOnly(t *testing.T) {
	log := &mockLogger{}
	if !checkCodecs(log) {
		t.Fatalf("checkCodecs failed:\n%s", strings.Join(log.lines, "\n"))
	}
	want := map[string]bool{
		"SUCCESS PNG: round trip keeps transparent-pixel colors":  true,
		"SUCCESS TIFF: round trip keeps transparent-pixel colors": true,
		"SUCCESS BMP: round trip keeps transparent-pixel colors":  true,
		"INFO GIF: input only, outputs are written as PNG data":   true,
		"INFO JPEG: input only, outputs are written as PNG data":  true,
	}
	for _, l := range log.lines {
		if strings.HasPrefix(l, "SUCCESS GIF") || strings.HasPrefix(l, "SUCCESS JPEG") {
			t.Errorf("lossy format reported as a working output: %q", l)
		}
		delete(want, l)
	}
	for l := range want {
		t.Errorf("missing line %q in:\n%s", l, strings.Join(log.lines, "\n"))
	}
}

func TestRunCheck_OutputIsAFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "f")
	os.WriteFile(file, nil, 0o644)
	cfg := config.DefaultConfig()
	cfg.OutputDir = file

	log := &mockLogger{}
	if RunCheck(context.Background(), &cfg, log) {
		t.Error("RunCheck should fail when the output path is a file")
	}
}

func TestCheckDeps(t *testing.T) {
	cfg := config.DefaultConfig()
	if err := CheckDeps(context.Background(), &cfg); err != nil {
		t.Errorf("CheckDeps with defaults: %v", err)
	}

	file := filepath.Join(t.TempDir(), "f")
	os.WriteFile(file, nil, 0o644)
	cfg.OutputDir = file
	if err := CheckDeps(context.Background(), &cfg); !errors.Is(err, ErrOutputNotWritable) {
		t.Errorf("err = %v, want ErrOutputNotWritable", err)
	}
}

func TestCheckDeps_OutputConflictBeforeFilesystem(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	if err := os.WriteFile("notadir", nil, 0o644); err != nil {
		t.Fatal(err)
	}

	for _, out := range []string{"notadir", "newdir"} {
		t.Run(out, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Input = "a.png"
			cfg.InPlace = true
			cfg.OutputDir = out
			err := CheckDeps(context.Background(), &cfg)
			var pe *planner.PlanningError
			if !errors.As(err, &pe) {
				t.Fatalf("err = %v, want *planner.PlanningError", err)
			}
			if errors.Is(err, ErrOutputNotWritable) {
				t.Errorf("err = %v, output checked before the policy", err)
			}
			entries, _ := os.ReadDir(dir)
			if len(entries) != 1 || entries[0].Name() != "notadir" {
				t.Errorf("working directory touched: %v", entries)
			}
		})
	}
}

func TestCheckDeps_RedisUnreachable(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.RedisAddr = "127.0.0.1:1"
	err := CheckDeps(context.Background(), &cfg)
	if !errors.Is(err, ErrRedisUnreachable) {
		t.Errorf("err = %v, want ErrRedisUnreachable", err)
	}
}

func TestWritable_WalksUpToExistingParent(t *testing.T) {
	dir := t.TempDir()
	if err := writable(filepath.Join(dir, "a", "b")); err != nil {
		t.Errorf("writable: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("writable left files behind: %v", entries)
	}
}

func TestCheckExtensions_WarnsWithoutEncoder(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Extensions = []string{".png", ".tga"}
	log := &mockLogger{}
	checkExtensions(&cfg, log)
	if log.count("WARN") != 1 || !strings.Contains(log.lines[0], ".tga") {
		t.Errorf("lines = %q, want one warning for .tga", log.lines)
	}
}
