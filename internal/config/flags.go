package config

// This file implements CLI flag parsing and help text.
// Flags are grouped into output, dilation, execution, distributed, display and utility.
// Negated flags (e.g. --no-color) are applied after Parse so Config defaults hold unless set.

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

// ParseFlags parses os.Args into cfg. On --help or --version it prints and exits.
// On error it returns non-nil (e.g. unknown flag, wrong number of positional args).
func ParseFlags(cfg *Config, version string) error {
	n, err := parseArgs(cfg, os.Args[1:])
	if err != nil {
		return err
	}
	if n.showHelp {
		printUsage(os.Stderr, version)
		os.Exit(0)
	}
	if n.showVersion {
		fmt.Fprintln(os.Stdout, "fixmyhalo v"+version)
		os.Exit(0)
	}
	return nil
}

// negatedFlags holds boolean flags that are applied after Parse.
// These either override a default (forceColor, noColor) or trigger exit (showHelp, showVersion).
type negatedFlags struct {
	forceColor  bool
	noColor     bool
	showVersion bool
	showHelp    bool
}

// parseArgs is the testable core of ParseFlags: it never prints or exits.
func parseArgs(cfg *Config, args []string) (*negatedFlags, error) {
	fs := flag.NewFlagSet("fixmyhalo", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var n negatedFlags

	defineOutputFlags(fs, cfg)
	defineDilationFlags(fs, cfg)
	defineExecutionFlags(fs, cfg)
	defineDistributedFlags(fs, cfg)
	defineDisplayFlags(fs, cfg, &n)
	defineUtilityFlags(fs, &n)

	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return nil, err
	}

	applyNegatedFlags(cfg, &n)

	if n.showHelp || n.showVersion {
		return &n, nil
	}
	if err := parsePositionalArgs(cfg, positional); err != nil {
		return nil, err
	}
	return &n, nil
}

// parseInterspersed lets flags follow the input path ("fixmyhalo textures -r"),
// which the standard flag package stops at. A literal "-" is kept as a
// positional argument (stdin mode).
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

// defineOutputFlags registers -o/--output, -i/--in-place, -r/--recursive, --ext, --on-collision, -z/--zip.
func defineOutputFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.OutputDir, "output", "", "Output directory (default: <base>/fixed)")
	fs.StringVar(&cfg.OutputDir, "o", "", "Same as --output")
	fs.BoolVar(&cfg.InPlace, "in-place", false, "Overwrite input files")
	fs.BoolVar(&cfg.InPlace, "i", false, "Same as --in-place")
	fs.BoolVar(&cfg.Recursive, "recursive", false, "Descend into subdirectories")
	fs.BoolVar(&cfg.Recursive, "r", false, "Same as --recursive")
	fs.Var(&extListValue{&cfg.Extensions}, "ext", "Accepted extensions, comma separated")
	fs.Var(&collisionValue{&cfg.Collision}, "on-collision", "Duplicate output handling: skip | rename")
	fs.StringVar(&cfg.ArchivePath, "zip", "", "Also bundle outputs into this zip file")
	fs.StringVar(&cfg.ArchivePath, "z", "", "Same as --zip")
}

// defineDilationFlags registers -p/--padding.
func defineDilationFlags(fs *flag.FlagSet, cfg *Config) {
	fs.IntVar(&cfg.Padding, "padding", cfg.Padding, "Dilation iterations (bleed radius in pixels)")
	fs.IntVar(&cfg.Padding, "p", cfg.Padding, "Same as --padding")
}

// defineExecutionFlags registers -j/--jobs, -d/--dry-run, --strict.
func defineExecutionFlags(fs *flag.FlagSet, cfg *Config) {
	fs.IntVar(&cfg.Workers, "jobs", cfg.Workers, "Parallel workers")
	fs.IntVar(&cfg.Workers, "j", cfg.Workers, "Same as --jobs")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "Plan only; do not read or write images")
	fs.BoolVar(&cfg.DryRun, "d", false, "Same as --dry-run")
	fs.BoolVar(&cfg.Strict, "strict", false, "Exit with status 1 when any file fails")
}

// defineDistributedFlags registers --redis, --stream-prefix, --worker, --wait.
func defineDistributedFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.RedisAddr, "redis", "", "Distribute jobs through Redis at host:port")
	fs.StringVar(&cfg.StreamPrefix, "stream-prefix", cfg.StreamPrefix, "Redis key prefix")
	fs.BoolVar(&cfg.Worker, "worker", false, "Serve jobs from Redis until interrupted")
	fs.DurationVar(&cfg.Wait, "wait", cfg.Wait, "How long to wait for distributed outcomes")
}

// defineDisplayFlags registers --color, --no-color, verbose, --check, --log.
func defineDisplayFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.BoolVar(&n.forceColor, "color", false, "Force colored logs")
	fs.BoolVar(&n.noColor, "no-color", false, "Disable colored logs")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Verbose output")
	fs.BoolVar(&cfg.Verbose, "v", false, "Same as --verbose")
	fs.BoolVar(&cfg.CheckOnly, "check", false, "Run system diagnostics and exit")
	fs.BoolVar(&cfg.CheckOnly, "c", false, "Same as --check")
	fs.StringVar(&cfg.LogFile, "log", "", "Append logs to file")
	fs.StringVar(&cfg.LogFile, "l", "", "Same as --log")
}

// defineUtilityFlags registers --version and --help (exit after printing).
func defineUtilityFlags(fs *flag.FlagSet, n *negatedFlags) {
	fs.BoolVar(&n.showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&n.showVersion, "V", false, "Same as --version")
	fs.BoolVar(&n.showHelp, "help", false, "Show this help and exit")
	fs.BoolVar(&n.showHelp, "h", false, "Same as --help")
}

// applyNegatedFlags copies override flag values into cfg.
func applyNegatedFlags(cfg *Config, n *negatedFlags) {
	if n.noColor {
		cfg.ColorMode = ColorNever
	} else if n.forceColor {
		cfg.ColorMode = ColorAlways
	}
}

// parsePositionalArgs sets Input from the single positional arg. Check and
// worker modes take no input.
func parsePositionalArgs(cfg *Config, args []string) error {
	if cfg.CheckOnly || cfg.Worker {
		if len(args) > 0 {
			return fmt.Errorf("unexpected argument %q", args[0])
		}
		return nil
	}
	if len(args) != 1 {
		return fmt.Errorf("need exactly one input (file, directory, glob or '-')")
	}
	cfg.Input = args[0]
	if cfg.Stdin() {
		cfg.LogToStderr = true
	}
	return nil
}

// printUsage writes the help text to w. Column-aligned for readability.
func printUsage(w io.Writer, version string) {
	const col1 = 30 // width of "  -x, --long-name <arg>  "
	lines := []struct {
		flags string
		desc  string
	}{
		{"", "fixmyhalo v" + version + " - removes halo fringes from transparent textures"},
		{"", ""},
		{"  fixmyhalo [OPTIONS] <file|dir|glob|->", ""},
		{"", ""},
		{"Output", ""},
		{"  -o, --output <dir>", "Output directory (default: <base>/fixed)"},
		{"  -i, --in-place", "Overwrite inputs (not with --output)"},
		{"  -r, --recursive", "Descend into subdirectories"},
		{"  --ext <list>", "Extensions (default: " + strings.Join(DefaultExtensions, ",") + ")"},
		{"  --on-collision <skip|rename>", "Duplicate output paths (default: skip)"},
		{"  -z, --zip <path>", "Also bundle outputs into a zip file"},
		{"", ""},
		{"Dilation", ""},
		{"  -p, --padding <n>", fmt.Sprintf("Bleed radius in pixels (default: %d)", DefaultPadding)},
		{"", ""},
		{"Execution", ""},
		{"  -j, --jobs <n>", "Parallel workers (default: CPU count)"},
		{"  -d, --dry-run", "Plan only; do not read or write images"},
		{"  --strict", "Exit with status 1 when any file fails"},
		{"", ""},
		{"Distributed", ""},
		{"  --redis <host:port>", "Distribute jobs through Redis Streams"},
		{"  --stream-prefix <name>", "Redis key prefix (default: " + DefaultStreamPrefix + ")"},
		{"  --worker", "Serve queued jobs until interrupted"},
		{"  --wait <duration>", "Coordinator outcome deadline (default: 10m)"},
		{"", ""},
		{"Display", ""},
		{"  --color", "Force colored logs"},
		{"  --no-color", "Disable colored logs"},
		{"  -v, --verbose", "Per-file details and failure reasons"},
		{"", ""},
		{"Utility", ""},
		{"  -l, --log <path>", "Append logs to file"},
		{"  -c, --check", "System diagnostics (codecs, output, Redis)"},
		{"  -V, --version", "Print version and exit"},
		{"  -h, --help", "Show this help and exit"},
	}

	for _, l := range lines {
		if l.flags == "" && l.desc == "" {
			fmt.Fprintln(w)
			continue
		}
		if l.desc == "" {
			fmt.Fprintln(w, l.flags)
			continue
		}
		if l.flags == "" {
			fmt.Fprintln(w, l.desc)
			continue
		}
		padding := col1 - len(l.flags)
		if padding < 1 {
			padding = 1
		}
		fmt.Fprintf(w, "%s%*s%s\n", l.flags, padding, "", l.desc)
	}
}

// flag.Value adapters so we can use list and enum types with flag.Var.

type extListValue struct{ p *[]string }

func (e *extListValue) String() string {
	if e.p == nil {
		return ""
	}
	return strings.Join(*e.p, ",")
}

func (e *extListValue) Set(s string) error {
	exts, err := NormalizeExtensions(strings.Split(s, ","))
	if err != nil {
		return err
	}
	*e.p = exts
	return nil
}

type collisionValue struct{ p *CollisionPolicy }

func (c *collisionValue) String() string {
	if c.p == nil {
		return ""
	}
	return string(*c.p)
}

func (c *collisionValue) Set(s string) error {
	switch strings.ToLower(s) {
	case "skip":
		*c.p = CollisionSkip
	case "rename":
		*c.p = CollisionRename
	default:
		return fmt.Errorf("invalid collision policy %q (use 'skip' or 'rename')", s)
	}
	return nil
}
