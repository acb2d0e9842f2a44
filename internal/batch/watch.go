package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
)

// A file is processed once no event has touched it for settleDelay.
const (
	settleDelay = 300 * time.Millisecond
	watchTick   = 100 * time.Millisecond
)

// Watch processes images as they appear in dir until ctx is done, writing
// results to the output subdirectory as ProcessDir does. Files already
// present are left alone. A file that is rewritten is processed again.
func (r *Runner) Watch(ctx context.Context, dir string) error {
	outDir := filepath.Join(dir, r.cfg.OutputDir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	r.log.WithField("dir", dir).Info("watching for new images")
	r.printf("PROCESS: Watching %s for new images...", dir)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	defer g.Wait()

	pending := map[string]time.Time{}
	ticker := time.NewTicker(watchTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if name := filepath.Base(ev.Name); r.accepts(name) {
				pending[name] = time.Now()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			r.log.WithError(err).Warn("watch error")

		case now := <-ticker.C:
			for name, seen := range pending {
				if now.Sub(seen) < settleDelay {
					continue
				}
				delete(pending, name)
				name := name
				g.Go(func() error {
					r.printf("PROCESS: Start the detection... %s", name)
					res := r.process(gctx, filepath.Join(dir, name), filepath.Join(outDir, name), nil)
					r.reportFailure(name, res)
					if res.OK() {
						r.printf("FINISH: Output success. [%s]", res.Output)
					}
					return nil
				})
			}
		}
	}
}
