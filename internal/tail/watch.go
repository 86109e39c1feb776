package tail

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/terraform-plugin-log/tflog"
	"github.com/juju/clock"
	"golang.org/x/sync/errgroup"

	"github.com/pkodzis/hcpctl/internal/logline"
)

// Watcher follows workspaces and tails every run that becomes current.
type Watcher struct {
	workspaces WorkspaceSource
	tailer     *Tailer
	clock      clock.Clock
	interval   time.Duration

	// NoPrefix drops the "[run-id] " label from tailed lines.
	NoPrefix bool
}

// NewWatcher creates a Watcher. Its poll interval and clock follow tailer.
func NewWatcher(workspaces WorkspaceSource, tailer *Tailer) *Watcher {
	return &Watcher{
		workspaces: workspaces,
		tailer:     tailer,
		clock:      tailer.clock,
		interval:   tailer.interval,
	}
}

// Watch polls the current run of each workspace until ctx is done. Each run
// seen for the first time is tailed in its own goroutine; runs are never
// tailed twice. Lines from concurrent tails are serialized before reaching
// emit. Watch returns ctx's error on cancellation, or the first tail or
// workspace lookup error.
func (w *Watcher) Watch(ctx context.Context, workspaceIDs []string, phase Phase, emit logline.Emitter) error {
	var mu sync.Mutex
	out := func(line string) {
		mu.Lock()
		defer mu.Unlock()
		emit(line)
	}

	seen := make(map[string]bool)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for {
			for _, wsID := range workspaceIDs {
				runID, err := w.workspaces.CurrentRunID(gctx, wsID)
				if err != nil {
					return fmt.Errorf("failed to get current run of workspace %s: %w", wsID, err)
				}
				if runID == "" {
					tflog.Trace(gctx, "No current run", map[string]any{"workspace_id": wsID})
					continue
				}
				if seen[runID] {
					continue
				}
				seen[runID] = true

				tflog.Debug(gctx, "New run detected", map[string]any{"workspace_id": wsID, "run_id": runID})
				g.Go(func() error {
					return w.watchRun(gctx, runID, phase, out)
				})
			}

			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-w.clock.After(w.interval):
			}
		}
	})

	return g.Wait()
}

func (w *Watcher) watchRun(ctx context.Context, runID string, phase Phase, emit logline.Emitter) error {
	lines := emit
	if w.NoPrefix {
		emit(fmt.Sprintf("--- Run %s started (%s) ---", runID, phase))
	} else {
		lines = logline.Prefixed(runID, emit)
		lines(fmt.Sprintf("--- Run started (%s) ---", phase))
	}

	if err := w.tailer.Tail(ctx, runID, phase, lines); err != nil {
		return err
	}

	if w.NoPrefix {
		emit(fmt.Sprintf("--- Run %s completed ---", runID))
	} else {
		lines("--- Run completed ---")
	}
	return nil
}
