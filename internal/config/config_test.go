package config

import (
	"reflect"
	"testing"
	"time"
)

func TestNormalizeExtensions(t *testing.T) {
	tests := []struct {
		name    string
		in      []string
		want    []string
		wantErr bool
	}{
		{"adds dot and lowercases", []string{"PNG", "jpg"}, []string{".png", ".jpg"}, false},
		{"keeps dotted", []string{".tga"}, []string{".tga"}, false},
		{"drops duplicates", []string{"png", ".PNG", " png "}, []string{".png"}, false},
		{"drops empties", []string{"", ".", "gif"}, []string{".gif"}, false},
		{"empty is error", []string{"", " "}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeExtensions(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeExtensions(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeExtensions(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidate_Ranges(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults with input", func(c *Config) {}, false},
		{"zero padding is valid", func(c *Config) { c.Padding = 0 }, false},
		{"negative padding", func(c *Config) { c.Padding = -1 }, true},
		{"zero workers", func(c *Config) { c.Workers = 0 }, true},
		{"bad collision", func(c *Config) { c.Collision = "merge" }, true},
		{"bad color", func(c *Config) { c.ColorMode = "rainbow" }, true},
		{"empty extensions", func(c *Config) { c.Extensions = nil }, true},
		{"nested default name", func(c *Config) { c.DefaultOutputName = "a/b" }, true},
		{"worker without redis", func(c *Config) { c.Worker = true }, true},
		{"redis with zero wait", func(c *Config) { c.RedisAddr = "localhost:6379"; c.Wait = 0 }, true},
		{"stdin with zip", func(c *Config) { c.Input = StdinInput; c.ArchivePath = "out.zip" }, true},
		{"missing input", func(c *Config) { c.Input = "" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Input = "textures"
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_InPlaceWithOutputLeftToPlanner(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Input = "textures"
	cfg.InPlace = true
	cfg.OutputDir = "out"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() should not reject output policy conflicts, got: %v", err)
	}
}

func TestValidate_CheckAndWorkerSkipInput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CheckOnly = true
	if err := cfg.Validate(); err != nil {
		t.Errorf("check mode: unexpected error: %v", err)
	}

	cfg = DefaultConfig()
	cfg.Worker = true
	cfg.RedisAddr = "localhost:6379"
	if err := cfg.Validate(); err != nil {
		t.Errorf("worker mode: unexpected error: %v", err)
	}
}

func TestDefaultConfig_SaneDefaults(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Padding != 8 {
		t.Errorf("default Padding = %d, want 8", cfg.Padding)
	}
	if cfg.DefaultOutputName != "fixed" {
		t.Errorf("default DefaultOutputName = %q, want %q", cfg.DefaultOutputName, "fixed")
	}
	if cfg.Collision != CollisionSkip {
		t.Errorf("default Collision = %q, want %q", cfg.Collision, CollisionSkip)
	}
	if cfg.Workers < 1 {
		t.Errorf("default Workers = %d, want >= 1", cfg.Workers)
	}
	if cfg.Wait != 10*time.Minute {
		t.Errorf("default Wait = %v, want 10m", cfg.Wait)
	}
	if cfg.InPlace || cfg.Recursive || cfg.DryRun || cfg.Strict {
		t.Error("boolean behavior flags should default to false")
	}

	// Mutating one config's extensions must not leak into the package default.
	cfg.Extensions[0] = ".xyz"
	if DefaultExtensions[0] != ".png" {
		t.Error("DefaultConfig must copy DefaultExtensions")
	}
}

func TestParseArgs_FlagsAfterInput(t *testing.T) {
	cfg := DefaultConfig()
	_, err := parseArgs(&cfg, []string{"textures", "--recursive", "-p", "4", "--output", "out", "--ext", "png,TGA"})
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	if cfg.Input != "textures" {
		t.Errorf("Input = %q, want textures", cfg.Input)
	}
	if !cfg.Recursive {
		t.Error("Recursive should be set")
	}
	if cfg.Padding != 4 {
		t.Errorf("Padding = %d, want 4", cfg.Padding)
	}
	if cfg.OutputDir != "out" {
		t.Errorf("OutputDir = %q, want out", cfg.OutputDir)
	}
	if want := []string{".png", ".tga"}; !reflect.DeepEqual(cfg.Extensions, want) {
		t.Errorf("Extensions = %q, want %q", cfg.Extensions, want)
	}
}

func TestParseArgs_StdinSelectsStderrLogging(t *testing.T) {
	cfg := DefaultConfig()
	if _, err := parseArgs(&cfg, []string{"-p", "2", "-"}); err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	if !cfg.Stdin() {
		t.Errorf("Input = %q, want stdin marker", cfg.Input)
	}
	if !cfg.LogToStderr {
		t.Error("stdin mode should log to stderr")
	}
}

func TestParseArgs_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no input", []string{"-r"}},
		{"two inputs", []string{"a", "b"}},
		{"unknown flag", []string{"a", "--nope"}},
		{"bad collision", []string{"a", "--on-collision", "merge"}},
		{"bad padding", []string{"a", "-p", "x"}},
		{"check with input", []string{"--check", "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			if _, err := parseArgs(&cfg, tt.args); err == nil {
				t.Errorf("parseArgs(%q) should fail", tt.args)
			}
		})
	}
}

func TestParseArgs_ColorOverrides(t *testing.T) {
	cfg := DefaultConfig()
	if _, err := parseArgs(&cfg, []string{"--color", "--no-color", "a"}); err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	if cfg.ColorMode != ColorNever {
		t.Errorf("ColorMode = %q, want never (--no-color wins)", cfg.ColorMode)
	}
}

func TestParseArgs_HelpSkipsPositional(t *testing.T) {
	cfg := DefaultConfig()
	n, err := parseArgs(&cfg, []string{"--help"})
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	if !n.showHelp {
		t.Error("showHelp should be set")
	}
}
