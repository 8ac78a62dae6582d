// Package check provides system diagnostics (--check mode) and pre-run
// dependency validation (CheckDeps): codec round trips, dilation sanity,
// output writability and Redis reachability.
package check

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/fixmyhalo/fixmyhalo/internal/codec"
	"github.com/fixmyhalo/fixmyhalo/internal/config"
	"github.com/fixmyhalo/fixmyhalo/internal/dilate"
	"github.com/fixmyhalo/fixmyhalo/internal/planner"
	"github.com/fixmyhalo/fixmyhalo/internal/queue"
)

// Sentinel errors returned by CheckDeps.
var (
	ErrCodecBroken       = errors.New("PNG round trip lost the color of transparent pixels")
	ErrRedisUnreachable  = errors.New("redis not reachable")
	ErrOutputNotWritable = errors.New("output directory not writable")
)

// pingTimeout bounds each Redis reachability probe.
const pingTimeout = 5 * time.Second

// Logger is the minimal logging interface needed by RunCheck.
// Defined here (rather than importing the logging package) so that check
// remains dependency-light and testable with a mock logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Debug(string, ...interface{})
}

// RunCheck runs the interactive --check flow and reports whether every
// check passed. It does not stop at the first failure.
func RunCheck(ctx context.Context, cfg *config.Config, log Logger) bool {
	log.Info("=== System Check ===")

	ok := checkCodecs(log)
	ok = checkDilation(log) && ok
	checkExtensions(cfg, log)
	checkWorkers(cfg, log)
	ok = checkOutput(cfg, log) && ok
	ok = checkRedis(ctx, cfg, log) && ok

	if ok {
		log.Success("All checks passed")
	} else {
		log.Error("Some checks failed")
	}
	return ok
}

// CheckDeps is the pre-run validation. The output policy is resolved first
// so a conflicting one fails with a *planner.PlanningError before anything
// touches the filesystem. Then the PNG codec must keep hidden colors, an
// explicit output directory must be writable, and Redis must answer when
// distributed mode is configured.
func CheckDeps(ctx context.Context, cfg *config.Config) error {
	if !cfg.Worker {
		if _, err := planner.NewPolicy(cfg.InPlace, cfg.OutputDir, cfg.DefaultOutputName); err != nil {
			return err
		}
	}
	if err := keepsHiddenColor(codec.PNG); err != nil {
		return fmt.Errorf("%w: %v", ErrCodecBroken, err)
	}
	if cfg.OutputDir != "" && !cfg.DryRun {
		if err := writable(cfg.OutputDir); err != nil {
			return fmt.Errorf("%w: %v", ErrOutputNotWritable, err)
		}
	}
	if cfg.Distributed() {
		if err := pingRedis(ctx, cfg); err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnreachable, err)
		}
	}
	return nil
}

// checkCodecs verifies that every output format keeps the color of fully
// transparent pixels, and that input-only formats still decode.
func checkCodecs(log Logger) bool {
	ok := true
	for _, f := range []codec.Format{codec.PNG, codec.TIFF, codec.BMP} {
		if err := keepsHiddenColor(f); err != nil {
			log.Error("%s: %v", f, err)
			ok = false
			continue
		}
		log.Success("%s: round trip keeps transparent-pixel colors", f)
	}

	img := sample()
	for _, f := range []codec.Format{codec.JPEG, codec.GIF} {
		data, err := codec.Encode(img, f)
		if err == nil {
			_, err = codec.Decode(data)
		}
		if err != nil {
			log.Error("%s: %v", f, err)
			ok = false
			continue
		}
		log.Info("%s: input only, outputs are written as PNG data", f)
	}
	return ok
}

// checkDilation runs one dilation on a known image.
func checkDilation(log Logger) bool {
	out := dilate.Dilate(sample(), 1)
	if got := out.NRGBAAt(0, 0); got != (color.NRGBA{R: 255}) {
		log.Error("Dilation self-test failed: corner is %v", got)
		return false
	}
	log.Success("Dilation self-test passed")
	return true
}

// checkExtensions warns about accepted extensions that have no encoder;
// such outputs keep their name but carry PNG data.
func checkExtensions(cfg *config.Config, log Logger) {
	for _, ext := range cfg.Extensions {
		if !codec.HasImageExtension("x" + ext) {
			log.Warn("%s: no encoder, outputs are written as %s data", ext, codec.Extension(codec.PNG))
		}
	}
}

func checkWorkers(cfg *config.Config, log Logger) {
	log.Info("CPUs: %d, workers: %d", runtime.NumCPU(), cfg.Workers)
	if cfg.Workers > runtime.NumCPU()*2 {
		log.Warn("More than twice as many workers as CPUs; dilation is CPU-bound")
	}
}

func checkOutput(cfg *config.Config, log Logger) bool {
	dir := cfg.OutputDir
	if dir == "" {
		dir = "."
	}
	if err := writable(dir); err != nil {
		log.Error("Output %s: %v", dir, err)
		return false
	}
	log.Success("Output %s is writable", dir)
	return true
}

func checkRedis(ctx context.Context, cfg *config.Config, log Logger) bool {
	if !cfg.Distributed() {
		log.Debug("Redis: not configured")
		return true
	}
	if err := pingRedis(ctx, cfg); err != nil {
		log.Error("Redis %s: %v", cfg.RedisAddr, err)
		return false
	}
	log.Success("Redis %s reachable", cfg.RedisAddr)
	return true
}

// --- internal helpers ---

// sample returns a 3×3 image with an opaque red center.
func sample() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 3))
	img.SetNRGBA(1, 1, color.NRGBA{R: 255, A: 255})
	return img
}

func keepsHiddenColor(f codec.Format) error {
	img := sample()
	hidden := color.NRGBA{G: 200}
	img.SetNRGBA(0, 0, hidden)
	data, err := codec.Encode(img, f)
	if err != nil {
		return err
	}
	back, err := codec.Decode(data)
	if err != nil {
		return err
	}
	if got := back.NRGBAAt(0, 0); got != hidden {
		return fmt.Errorf("transparent pixel came back as %v, want %v", got, hidden)
	}
	return nil
}

// writable creates and removes a temp file in dir, or in its nearest
// existing ancestor when dir does not exist yet.
func writable(dir string) error {
	for {
		fi, err := os.Stat(dir)
		if err == nil {
			if !fi.IsDir() {
				return fmt.Errorf("%s is not a directory", dir)
			}
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return err
		}
		dir = parent
	}
	f, err := os.CreateTemp(dir, ".fixmyhalo-check-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

func pingRedis(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	c, err := queue.New(ctx, cfg.RedisAddr, cfg.StreamPrefix)
	if err != nil {
		return err
	}
	return c.Close()
}
