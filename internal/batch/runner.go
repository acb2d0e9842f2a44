// Package batch drives the card locator over single images and whole
// directories, writes the rectified cards and reports progress in the
// PROCESS / FINISH / ERROR line format of the command-line tool.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/matsumo0922/TrumpDetection/internal/card"
	"github.com/matsumo0922/TrumpDetection/internal/config"
	"github.com/matsumo0922/TrumpDetection/internal/imaging"
	"github.com/matsumo0922/TrumpDetection/internal/logging"
	"github.com/matsumo0922/TrumpDetection/internal/vision"
)

// Input validation errors returned by Run.
var (
	ErrNoPath      = errors.New("please enter the correct path")
	ErrNotFound    = errors.New("the file doesn't exist or isn't a regular file")
	ErrUnsupported = errors.New("files with this extension are not supported")
)

// Option configures a Runner.
type Option func(*Runner)

// WithOutput sets where progress lines go. The default is io.Discard.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) {
		if w != nil {
			r.out = w
		}
	}
}

// WithLogger sets the structured logger handed to every Locator.
func WithLogger(log logrus.FieldLogger) Option {
	return func(r *Runner) {
		if log != nil {
			r.log = log
		}
	}
}

// WithDebug enables snapshots of the intermediate images in single-file
// runs.
func WithDebug(on bool) Option {
	return func(r *Runner) { r.debug = on }
}

// WithLocatorOptions passes options to every Locator the Runner builds.
func WithLocatorOptions(opts ...card.Option) Option {
	return func(r *Runner) { r.locOpts = append(r.locOpts, opts...) }
}

// WithObserver registers fn to be called after each image. Calls may come
// from several goroutines at once.
func WithObserver(fn func(FileResult)) Option {
	return func(r *Runner) { r.observe = fn }
}

// Runner processes image files with one vision backend.
type Runner struct {
	backend vision.Backend
	cfg     *config.Config
	log     logrus.FieldLogger
	debug   bool
	locOpts []card.Option
	observe func(FileResult)

	mu  sync.Mutex // guards out
	out io.Writer
}

// New returns a Runner. A nil cfg means config.Defaults().
func New(b vision.Backend, cfg *config.Config, opts ...Option) *Runner {
	if cfg == nil {
		cfg = config.Defaults()
	}
	r := &Runner{
		backend: b,
		cfg:     cfg,
		log:     logging.Discard(),
		out:     io.Discard,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run dispatches on path: a directory is processed with ProcessDir, a
// supported image file with ProcessFile. Invalid input is reported on the
// output and returned as ErrNoPath, ErrNotFound or ErrUnsupported.
func (r *Runner) Run(ctx context.Context, path string) (*Report, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		r.printf("ERROR: Please enter the correct path.")
		return nil, ErrNoPath
	}

	info, err := os.Stat(path)
	switch {
	case err != nil:
		r.printf("ERROR: The file doesn't exist or isn't a regular file.")
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	case info.IsDir():
		return r.ProcessDir(ctx, path)
	case !info.Mode().IsRegular():
		r.printf("ERROR: The file doesn't exist or isn't a regular file.")
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	case !r.cfg.Supports(imaging.Extension(path)):
		r.printf("ERROR: Files with this extension are not supported.")
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, path)
	}

	report := &Report{}
	report.add(r.ProcessFile(ctx, path))
	return report, nil
}

// ProcessFile rectifies one image and writes it next to the input with the
// configured suffix. In debug mode every attempt also leaves its snapshots.
func (r *Runner) ProcessFile(ctx context.Context, path string) FileResult {
	trace := tracers{progress{r}}
	if r.debug {
		trace = append(trace, NewSnapshot(path, r.cfg.JPEGQuality, r.log))
	}

	res := r.process(ctx, path, OutputPath(path, r.cfg.OutputSuffix), trace)
	if res.OK() {
		r.printf("FINISH: Output success. [%s]", res.Output)
	} else {
		r.printf("FINISH: Output failed. %v", res.Err)
	}
	return res
}

// ProcessDir rectifies every supported image directly inside dir, writing
// each result under the configured output subdirectory with its original
// name. Files written by this tool are skipped. Images run in parallel up
// to the configured worker count; a failed image does not stop the others.
// The error is non-nil only when ctx ends the run early.
func (r *Runner) ProcessDir(ctx context.Context, dir string) (*Report, error) {
	files, err := r.scan(dir)
	if err != nil {
		return nil, err
	}
	r.printf("PROCESS: %d image files found in the given folder.", len(files))
	if r.debug {
		r.log.Warn("debug snapshots are only written for single files")
	}

	outDir := filepath.Join(dir, r.cfg.OutputDir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	results := make([]FileResult, len(files))
	var started atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i, name := range files {
		i, name := i, name
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			n := started.Add(1)
			r.printf("PROCESS: Start the detection... [%d/%d] %s", n, len(files), name)

			res := r.process(gctx, filepath.Join(dir, name), filepath.Join(outDir, name), nil)
			r.reportFailure(name, res)
			results[i] = res
			return nil
		})
	}
	runErr := g.Wait()

	report := &Report{}
	for i, res := range results {
		if res.Input == "" {
			res = FileResult{Input: filepath.Join(dir, files[i]), Err: runErr}
		}
		report.add(res)
	}
	r.printf("FINISH: %s images failed to process.", report.Tally())
	r.printf("FINISH: Process is complete.")
	return report, runErr
}

func (r *Runner) reportFailure(name string, res FileResult) {
	switch {
	case res.OK():
	case errors.Is(res.Err, card.ErrSweepExhausted):
		r.printf("ERROR: Can't find trump card. [%s]", name)
	default:
		r.printf("ERROR: %s: %v", name, res.Err)
	}
}

// scan lists the candidate images of dir in name order.
func (r *Runner) scan(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !r.accepts(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	return out, nil
}

func (r *Runner) accepts(name string) bool {
	return r.cfg.Supports(imaging.Extension(name)) && !Skip(name, r.cfg.OutputSuffix)
}

// process runs the sweep on in and writes the card to out. Nothing is
// written when any step fails.
func (r *Runner) process(ctx context.Context, in, out string, trace tracers) (res FileResult) {
	start := time.Now()
	res = FileResult{Input: in}
	log := r.log.WithField("file", filepath.Base(in))
	defer func() {
		res.Elapsed = time.Since(start)
		if res.Err != nil {
			log.WithError(res.Err).Debug("image failed")
		}
		if r.observe != nil {
			r.observe(res)
		}
	}()

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	img, err := imaging.Open(in)
	if err != nil {
		res.Err = fmt.Errorf("failed to load image: %w", err)
		return res
	}

	opts := append([]card.Option{card.WithLogger(log)}, r.locOpts...)
	if len(trace) > 0 {
		opts = append(opts, card.WithTracer(trace))
	}
	found, err := card.NewLocator(r.backend, opts...).LocateAndRectify(img)
	if err != nil {
		res.Err = err
		return res
	}
	res.Params = found.Params
	res.Attempt = found.Attempt

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}
	if err := imaging.Save(found.Image, out, r.cfg.JPEGQuality); err != nil {
		res.Err = err
		return res
	}
	res.Output = out
	log.WithFields(logrus.Fields{
		"output": out,
		"params": found.Params.Tag(),
	}).Info("card written")
	return res
}

func (r *Runner) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, format+"\n", args...)
}
