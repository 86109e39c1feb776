// Package tail follows the log of a run phase until the phase ends.
//
// Log read URLs always return the whole log. Each poll therefore fetches
// everything and a Cursor picks out what has not been shown yet.
package tail

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/terraform-plugin-log/tflog"
	"github.com/juju/clock"

	"github.com/pkodzis/hcpctl/internal/logline"
)

// DefaultInterval is the pause between polls.
const DefaultInterval = 2 * time.Second

// Cursor remembers how much of a log has already been emitted.
type Cursor struct {
	offset int
}

// Advance returns the part of content past the cursor and moves the cursor
// to the end of content. Content no longer than the cursor yields nothing
// and leaves the cursor where it is.
func (c *Cursor) Advance(content string) (string, bool) {
	if len(content) <= c.offset {
		return "", false
	}
	suffix := content[c.offset:]
	c.offset = len(content)
	return suffix, true
}

// Offset is the number of bytes consumed so far
func (c *Cursor) Offset() int {
	return c.offset
}

// Tailer polls a Source and emits new log lines.
type Tailer struct {
	source   Source
	clock    clock.Clock
	interval time.Duration
	decoder  logline.Decoder
}

// Option configures a Tailer.
type Option func(*Tailer)

// WithClock replaces the wall clock used between polls.
func WithClock(c clock.Clock) Option {
	return func(t *Tailer) { t.clock = c }
}

// WithInterval sets the pause between polls.
func WithInterval(d time.Duration) Option {
	return func(t *Tailer) {
		if d > 0 {
			t.interval = d
		}
	}
}

// WithRaw disables @message extraction.
func WithRaw(raw bool) Option {
	return func(t *Tailer) { t.decoder.Raw = raw }
}

// NewTailer creates a Tailer reading from source
func NewTailer(source Source, opts ...Option) *Tailer {
	t := &Tailer{
		source:   source,
		clock:    clock.WallClock,
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ErrNoLog is returned by Snapshot when the phase has no log yet.
var ErrNoLog = errors.New("no log-read-url available")

// Snapshot emits the log of one phase as it is right now, without polling.
func (t *Tailer) Snapshot(ctx context.Context, runID string, phase Phase, emit logline.Emitter) error {
	status, err := t.source.PhaseStatus(ctx, runID, phase)
	if err != nil {
		return fmt.Errorf("failed to get %s status of run %s: %w", phase, runID, err)
	}
	if status.LogReadURL == "" {
		return fmt.Errorf("%s of run %s: %w", phase, runID, ErrNoLog)
	}

	content, err := t.source.ReadLog(ctx, status.LogReadURL)
	if err != nil {
		return fmt.Errorf("failed to read %s log of run %s: %w", phase, runID, err)
	}
	t.decoder.Write(content, emit)
	return nil
}

// Tail emits the log of one phase of a run until the phase reaches a final
// state. A failed status fetch ends the tail with an error; a failed log
// fetch is skipped and retried on the next poll.
func (t *Tailer) Tail(ctx context.Context, runID string, phase Phase, emit logline.Emitter) error {
	var cursor Cursor

	for cycle := 1; ; cycle++ {
		status, err := t.source.PhaseStatus(ctx, runID, phase)
		if err != nil {
			return fmt.Errorf("failed to get %s status of run %s: %w", phase, runID, err)
		}

		tflog.Trace(ctx, "Polled run phase", map[string]any{
			"run_id": runID,
			"phase":  phase.String(),
			"status": status.State,
			"cycle":  cycle,
		})

		if status.LogReadURL != "" {
			content, err := t.source.ReadLog(ctx, status.LogReadURL)
			if err != nil {
				tflog.Debug(ctx, "Log fetch failed, retrying next poll", map[string]any{
					"run_id": runID,
					"error":  err.Error(),
				})
			} else if chunk, ok := cursor.Advance(content); ok {
				t.decoder.Write(chunk, emit)
			}
		}

		if phase.IsFinal(status.State) {
			tflog.Debug(ctx, "Run phase reached final state", map[string]any{
				"run_id": runID,
				"phase":  phase.String(),
				"status": status.State,
			})
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.clock.After(t.interval):
		}
	}
}
