package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/aretw0/artisan/internal/presentation/tui"
	"github.com/aretw0/artisan/pkg/config"
	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces the bursts of events editors emit on save.
const watchDebounce = 150 * time.Millisecond

// RunWatch solves the request at path and solves it again whenever the file
// changes, cancelling a solve still in flight. It returns when ctx is done.
func RunWatch(ctx context.Context, w, errW io.Writer, path string, opts Options) error {
	logger := createLogger(opts.Debug)
	// Metrics would be registered once per solve.
	opts.Registry = nil

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors often replace the file instead of writing it.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	tui.PrintBanner(errW)
	printSystemMessage(errW, "Watching '%s'.", path)

	var (
		cancel context.CancelFunc = func() {}
		done   chan struct{}
	)
	run := func() {
		cancel()
		if done != nil {
			<-done
		}
		solveCtx, c := context.WithCancel(ctx)
		cancel = c
		done = make(chan struct{})
		go func(done chan struct{}) {
			defer close(done)
			if err := solveFile(solveCtx, w, errW, abs, opts); handleExecutionError(err) != nil {
				printSystemMessage(errW, "%v", err)
			}
		}(done)
	}
	defer func() {
		cancel()
		if done != nil {
			<-done
		}
	}()

	run()
	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			logger.Debug("Change detected", "event", event)
			debounce = time.After(watchDebounce)
		case <-debounce:
			debounce = nil
			printSystemMessage(errW, "Change detected, solving again.")
			run()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error", "err", err)
		}
	}
}

func solveFile(ctx context.Context, w, errW io.Writer, path string, opts Options) error {
	req, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	return RunSolve(ctx, w, errW, req, opts)
}
