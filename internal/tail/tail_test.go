package tail

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/terraform-plugin-log/tflogtest"
	"github.com/juju/clock/testclock"
)

// fakeSource replays one status and one log snapshot per poll. The last
// entry repeats once the script runs out.
type fakeSource struct {
	mu          sync.Mutex
	states      []string
	logs        []string
	logErrs     map[int]error
	statusErr   error
	statusCalls int
	logURLs     []string
}

func (s *fakeSource) PhaseStatus(ctx context.Context, runID string, phase Phase) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusCalls++
	if s.statusErr != nil {
		return Status{}, s.statusErr
	}
	i := min(s.statusCalls, len(s.states)) - 1
	url := ""
	if len(s.logs) > 0 {
		url = "https://archivist.test/" + runID
	}
	return Status{State: s.states[i], LogReadURL: url}, nil
}

func (s *fakeSource) ReadLog(ctx context.Context, url string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logURLs = append(s.logURLs, url)
	if err := s.logErrs[s.statusCalls]; err != nil {
		return "", err
	}
	i := min(s.statusCalls, len(s.logs)) - 1
	return s.logs[i], nil
}

func (s *fakeSource) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusCalls
}

type lines struct {
	mu  sync.Mutex
	got []string
}

func (l *lines) emit(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.got = append(l.got, line)
}

func (l *lines) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.got...)
}

// runTail starts Tail in the background and advances clk through waits polls.
func runTail(t *testing.T, tailer *Tailer, clk *testclock.Clock, waits int, out *lines) error {
	t.Helper()
	done := make(chan error, 1)
	go func() {
		done <- tailer.Tail(context.Background(), "run-1", Plan, out.emit)
	}()

	for i := 0; i < waits; i++ {
		if err := clk.WaitAdvance(DefaultInterval, time.Second, 1); err != nil {
			t.Fatalf("poll %d: %v", i+1, err)
		}
	}

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("Tail() did not return")
		return nil
	}
}

func TestPhase_IsFinal(t *testing.T) {
	tests := []struct {
		state string
		want  bool
	}{
		{"finished", true},
		{"errored", true},
		{"canceled", true},
		{"unreachable", true},
		{"pending", false},
		{"queued", false},
		{"running", false},
		{"managed_queued", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			for _, p := range []Phase{Plan, Apply} {
				if got := p.IsFinal(tt.state); got != tt.want {
					t.Errorf("%s.IsFinal(%q) = %v, want %v", p, tt.state, got, tt.want)
				}
			}
		})
	}
}

func TestParsePhase(t *testing.T) {
	if p, err := ParsePhase("apply"); err != nil || p != Apply {
		t.Errorf("ParsePhase(apply) = %v, %v", p, err)
	}
	if p, err := ParsePhase(""); err != nil || p != Plan {
		t.Errorf("ParsePhase(\"\") = %v, %v", p, err)
	}
	if _, err := ParsePhase("destroy"); err == nil {
		t.Error("ParsePhase(destroy) should fail")
	}
}

func TestCursor_MonotonicOverGrowingLog(t *testing.T) {
	snapshots := []string{"", "a\n", "a\nb\n", "a\nb\n", "a\nb\nc\n"}

	var c Cursor
	var emitted string
	prev := 0
	for _, s := range snapshots {
		if chunk, ok := c.Advance(s); ok {
			emitted += chunk
		}
		if c.Offset() < prev {
			t.Fatalf("offset went from %d to %d", prev, c.Offset())
		}
		prev = c.Offset()
	}

	if emitted != "a\nb\nc\n" {
		t.Errorf("emitted %q, want each byte exactly once", emitted)
	}
}

func TestCursor_ShorterContentIgnored(t *testing.T) {
	var c Cursor
	c.Advance("abcdef")
	if chunk, ok := c.Advance("abc"); ok {
		t.Errorf("Advance() = %q, want nothing for shorter content", chunk)
	}
	if c.Offset() != 6 {
		t.Errorf("Offset() = %d, want 6", c.Offset())
	}
}

func TestTail_StopsOnFinalStateAfterThreeCycles(t *testing.T) {
	src := &fakeSource{
		states: []string{"running", "running", "finished"},
		logs:   []string{"Terraform v1.9.0\n", "Terraform v1.9.0\n{\"@message\":\"Plan: 1 to add\"}\n", "Terraform v1.9.0\n{\"@message\":\"Plan: 1 to add\"}\n{\"type\":\"version\"}\ndone\n"},
	}
	clk := testclock.NewClock(time.Now())
	tailer := NewTailer(src, WithClock(clk))

	var out lines
	if err := runTail(t, tailer, clk, 2, &out); err != nil {
		t.Fatalf("Tail() error: %v", err)
	}

	if n := src.calls(); n != 3 {
		t.Errorf("status fetched %d times, want 3", n)
	}
	want := []string{"Terraform v1.9.0", "Plan: 1 to add", "done"}
	if diff := cmp.Diff(want, out.snapshot()); diff != "" {
		t.Errorf("emitted lines mismatch (-want +got):\n%s", diff)
	}
}

func TestTail_FinalOnFirstPoll(t *testing.T) {
	src := &fakeSource{states: []string{"errored"}, logs: []string{"Error: boom\n"}}
	tailer := NewTailer(src, WithClock(testclock.NewClock(time.Now())))

	var out lines
	if err := tailer.Tail(context.Background(), "run-1", Apply, out.emit); err != nil {
		t.Fatalf("Tail() error: %v", err)
	}
	if diff := cmp.Diff([]string{"Error: boom"}, out.snapshot()); diff != "" {
		t.Errorf("emitted lines mismatch (-want +got):\n%s", diff)
	}
}

func TestTail_NoLogURLYet(t *testing.T) {
	src := &fakeSource{states: []string{"pending", "finished"}}
	clk := testclock.NewClock(time.Now())
	tailer := NewTailer(src, WithClock(clk))

	var out lines
	if err := runTail(t, tailer, clk, 1, &out); err != nil {
		t.Fatalf("Tail() error: %v", err)
	}
	if len(src.logURLs) != 0 {
		t.Errorf("ReadLog called %d times without a log URL", len(src.logURLs))
	}
}

func TestTail_LogFetchErrorIsTransient(t *testing.T) {
	src := &fakeSource{
		states:  []string{"running", "running", "finished"},
		logs:    []string{"a\n", "a\nb\n", "a\nb\nc\n"},
		logErrs: map[int]error{2: errors.New("archivist timeout")},
	}
	clk := testclock.NewClock(time.Now())
	tailer := NewTailer(src, WithClock(clk), WithRaw(true))

	var buf bytes.Buffer
	ctx := tflogtest.RootLogger(context.Background(), &buf)

	done := make(chan error, 1)
	var out lines
	go func() { done <- tailer.Tail(ctx, "run-1", Plan, out.emit) }()
	for i := 0; i < 2; i++ {
		if err := clk.WaitAdvance(DefaultInterval, time.Second, 1); err != nil {
			t.Fatal(err)
		}
	}
	if err := <-done; err != nil {
		t.Fatalf("Tail() error: %v", err)
	}

	if diff := cmp.Diff([]string{"a", "b", "c"}, out.snapshot()); diff != "" {
		t.Errorf("emitted lines mismatch (-want +got):\n%s", diff)
	}

	entries, err := tflogtest.MultilineJSONDecode(&buf)
	if err != nil {
		t.Fatalf("decoding logs: %v", err)
	}
	var found bool
	for _, e := range entries {
		if e["@message"] == "Log fetch failed, retrying next poll" && e["error"] == "archivist timeout" {
			found = true
		}
	}
	if !found {
		t.Errorf("log fetch failure not logged, entries: %v", entries)
	}
}

func TestTail_StatusErrorIsFatal(t *testing.T) {
	statusErr := errors.New("unauthorized")
	src := &fakeSource{states: []string{"running"}, statusErr: statusErr}
	tailer := NewTailer(src, WithClock(testclock.NewClock(time.Now())))

	var out lines
	err := tailer.Tail(context.Background(), "run-1", Plan, out.emit)
	if !errors.Is(err, statusErr) {
		t.Errorf("Tail() error = %v, want %v", err, statusErr)
	}
}

func TestTail_ContextCancelDuringWait(t *testing.T) {
	src := &fakeSource{states: []string{"running"}}
	clk := testclock.NewClock(time.Now())
	tailer := NewTailer(src, WithClock(clk))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tailer.Tail(ctx, "run-1", Plan, func(string) {}) }()

	<-clk.Alarms()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Tail() error = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Tail() did not return after cancel")
	}
}

func TestSnapshot(t *testing.T) {
	src := &fakeSource{states: []string{"running"}, logs: []string{"one\n{\"@message\":\"two\"}\n"}}
	tailer := NewTailer(src)

	var out lines
	if err := tailer.Snapshot(context.Background(), "run-1", Plan, out.emit); err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	if diff := cmp.Diff([]string{"one", "two"}, out.snapshot()); diff != "" {
		t.Errorf("emitted lines mismatch (-want +got):\n%s", diff)
	}
	if n := src.calls(); n != 1 {
		t.Errorf("status fetched %d times, want 1", n)
	}
}

func TestSnapshot_NoLog(t *testing.T) {
	src := &fakeSource{states: []string{"pending"}}
	err := NewTailer(src).Snapshot(context.Background(), "run-1", Apply, func(string) {})
	if !errors.Is(err, ErrNoLog) {
		t.Errorf("Snapshot() error = %v, want ErrNoLog", err)
	}
}
