package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/matsumo0922/TrumpDetection/internal/batch"
	"github.com/matsumo0922/TrumpDetection/internal/config"
	"github.com/matsumo0922/TrumpDetection/internal/logging"
	"github.com/matsumo0922/TrumpDetection/internal/server"
	"github.com/matsumo0922/TrumpDetection/internal/vision"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Exit codes.
const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	debug   bool
	watch   bool
	backend string
	workers int
	envFile string
	version bool
}

func parseFlags(args []string, stderr io.Writer) (*options, *flag.FlagSet, error) {
	var o options
	fs := flag.NewFlagSet("trump-detect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.BoolVar(&o.debug, "debug", false, "Write intermediate images next to a single input")
	fs.BoolVar(&o.debug, "d", false, "Shorthand for --debug")
	fs.BoolVar(&o.watch, "watch", false, "Keep processing images added to the directory")
	fs.StringVar(&o.backend, "backend", "", "Vision backend: "+strings.Join(vision.Available(), ", "))
	fs.IntVar(&o.workers, "workers", 0, "Parallel images in directory mode (default from config)")
	fs.StringVar(&o.envFile, "env", config.DefaultEnvFile, "Optional .env file")
	fs.BoolVar(&o.version, "version", false, "Print version information")
	fs.BoolVar(&o.version, "v", false, "Shorthand for --version")
	fs.Usage = func() { usage(stderr, fs) }
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return &o, fs, nil
}

func usage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "trump-detect - locate a playing card in a photo and rectify it")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  trump-detect [options] [image-or-directory]")
	fmt.Fprintln(w, "  trump-detect mcp [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Without a path the tool asks for one on stdin. A directory is processed")
	fmt.Fprintln(w, "as a batch; results go to its output subdirectory.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables:")
	for _, k := range []string{config.EnvLogLevel, config.EnvBackend, config.EnvWorkers, config.EnvExtensions, config.EnvOutputDir, config.EnvOutputSuffix, config.EnvJPEGQuality} {
		fmt.Fprintf(w, "  %s\n", k)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	mcp := false
	if len(args) > 0 {
		switch args[0] {
		case "mcp":
			mcp = true
			args = args[1:]
		case "version":
			args = []string{"--version"}
		case "help":
			args = []string{"--help"}
		}
	}

	opts, fs, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		return exitUsage
	}
	if opts.version {
		fmt.Fprintf(stdout, "trump-detect %s\n", Version)
		fmt.Fprintf(stdout, "  Build time: %s\n", BuildTime)
		fmt.Fprintf(stdout, "  Git commit: %s\n", GitCommit)
		return exitOK
	}

	cfg, err := config.Load(opts.envFile)
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return exitUsage
	}
	if opts.backend != "" {
		cfg.Backend = opts.backend
	}
	if opts.workers > 0 {
		cfg.Workers = opts.workers
	}
	if opts.debug {
		cfg.LogLevel = "debug"
	}

	log, err := logging.New(cfg.LogLevel, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return exitUsage
	}
	backend, err := vision.New(cfg.Backend)
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return exitUsage
	}
	log.WithFields(logrus.Fields{
		"version": Version,
		"backend": backend.Name(),
		"workers": cfg.Workers,
	}).Debug("starting")

	if mcp {
		srv := server.New(backend,
			server.WithIO(stdin, stdout),
			server.WithLogger(log),
			server.WithConfig(cfg),
			server.WithVersion(Version),
		)
		if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("server error")
			return exitFailed
		}
		return exitOK
	}

	path := fs.Arg(0)
	if path == "" {
		path = prompt(stdin, stdout)
	}

	runner := batch.New(backend, cfg,
		batch.WithOutput(stdout),
		batch.WithLogger(log),
		batch.WithDebug(opts.debug),
	)
	return process(ctx, runner, path, opts.watch, stdout)
}

func process(ctx context.Context, runner *batch.Runner, path string, watch bool, stdout io.Writer) int {
	if watch {
		if info, err := os.Stat(strings.TrimSpace(path)); err != nil || !info.IsDir() {
			fmt.Fprintln(stdout, "ERROR: --watch needs a directory.")
			return exitUsage
		}
	}

	report, err := runner.Run(ctx, path)
	switch {
	case errors.Is(err, batch.ErrNoPath), errors.Is(err, batch.ErrNotFound), errors.Is(err, batch.ErrUnsupported):
		return exitUsage
	case errors.Is(err, context.Canceled):
		return exitFailed
	case err != nil:
		fmt.Fprintf(stdout, "ERROR: %v\n", err)
		return exitFailed
	}

	if watch {
		if err := runner.Watch(ctx, strings.TrimSpace(path)); err != nil {
			fmt.Fprintf(stdout, "ERROR: %v\n", err)
			return exitFailed
		}
	}

	if report.Err() != nil {
		return exitFailed
	}
	return exitOK
}

// prompt asks for a path on stdin and returns it trimmed.
func prompt(stdin io.Reader, stdout io.Writer) string {
	fmt.Fprint(stdout, "Enter the image path > ")
	line, _ := bufio.NewReader(stdin).ReadString('\n')
	return strings.Trim(strings.TrimSpace(line), `"'`)
}
