package runner

import (
	"context"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"pkt.systems/pdfsuite/schema"
)

type lineSink struct {
	mu    sync.Mutex
	lines []string
}

func (s *lineSink) add(line string) {
	s.mu.Lock()
	s.lines = append(s.lines, line)
	s.mu.Unlock()
}

func (s *lineSink) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.lines)
}

func (s *lineSink) waitFor(t *testing.T, line string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if slices.Contains(s.snapshot(), line) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %q, got %v", line, s.snapshot())
}

func TestWatchReportsNaturalExit(t *testing.T) {
	sh := requireShell(t)
	sink := &lineSink{}
	w := NewWatch(WatchConfig{Sink: sink.add})
	if err := w.Start(context.Background(), []string{sh, "-c", "echo hello; exit 4"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	sink.waitFor(t, "[watch] exited (4).")
	if got := sink.snapshot(); !slices.Equal(got, []string{"hello", "[watch] exited (4)."}) {
		t.Fatalf("lines = %v", got)
	}
	if w.Running() {
		t.Fatalf("expected watch to be stopped after exit")
	}
}

func TestWatchStopTerminates(t *testing.T) {
	sh := requireShell(t)
	sink := &lineSink{}
	w := NewWatch(WatchConfig{Sink: sink.add, StopGrace: 500 * time.Millisecond})
	if err := w.Start(context.Background(), []string{sh, "-c", "echo ready; sleep 30"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	sink.waitFor(t, "ready")
	if !w.Running() {
		t.Fatalf("expected running watch")
	}
	started := time.Now()
	w.Stop()
	if w.Running() {
		t.Fatalf("expected watch stopped")
	}
	if elapsed := time.Since(started); elapsed > 3*time.Second {
		t.Fatalf("stop took %s", elapsed)
	}
	for _, line := range sink.snapshot() {
		if strings.HasPrefix(line, "[watch] exited") {
			t.Fatalf("stop should not report exit, got %v", sink.snapshot())
		}
	}
	w.Stop()
}

func TestWatchKillsAfterGrace(t *testing.T) {
	sh := requireShell(t)
	sink := &lineSink{}
	w := NewWatch(WatchConfig{Sink: sink.add, StopGrace: 100 * time.Millisecond})
	if err := w.Start(context.Background(), []string{sh, "-c", "trap '' TERM; echo ready; while :; do sleep 1; done"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	sink.waitFor(t, "ready")
	w.Stop()
	if w.Running() {
		t.Fatalf("expected watch stopped after kill")
	}
}

func TestWatchStopsOnContextCancel(t *testing.T) {
	sh := requireShell(t)
	sink := &lineSink{}
	w := NewWatch(WatchConfig{Sink: sink.add})
	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx, []string{sh, "-c", "echo ready; sleep 30"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	sink.waitFor(t, "ready")
	cancel()
	deadline := time.Now().Add(5 * time.Second)
	for w.Running() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if w.Running() {
		t.Fatalf("expected watch to stop on cancel")
	}
}

func TestWatchStartPresetDisabled(t *testing.T) {
	sink := &lineSink{}
	w := NewWatch(WatchConfig{Sink: sink.add})
	if err := w.StartPreset(context.Background(), schema.WatchSettings{}); err != nil {
		t.Fatalf("start preset: %v", err)
	}
	if got := sink.snapshot(); !slices.Equal(got, []string{"[watch] disabled."}) {
		t.Fatalf("lines = %v", got)
	}
	if w.Running() {
		t.Fatalf("disabled watch must not run")
	}
}

func TestWatchStartPresetLaunches(t *testing.T) {
	sh := requireShell(t)
	script := filepath.Join(t.TempDir(), "fake-pdfsuite")
	writeScript(t, script, "#!"+sh+"\necho \"args: $*\"\n")
	folder := filepath.Join(t.TempDir(), "inbox")
	sink := &lineSink{}
	w := NewWatch(WatchConfig{Sink: sink.add})
	err := w.StartPreset(context.Background(), schema.WatchSettings{
		Enabled:    true,
		Folder:     folder,
		Preset:     "email",
		Executable: script,
	})
	if err != nil {
		t.Fatalf("start preset: %v", err)
	}
	sink.waitFor(t, "[watch] exited (0).")
	want := []string{
		"[watch] launching preset 'email'",
		"args: watch --preset email --path " + folder,
		"[watch] exited (0).",
	}
	if got := sink.snapshot(); !slices.Equal(got, want) {
		t.Fatalf("lines = %v\nwant %v", got, want)
	}
}

func TestWatchStartRejectsEmptyCommand(t *testing.T) {
	w := NewWatch(WatchConfig{})
	if err := w.Start(context.Background(), nil); err == nil {
		t.Fatalf("expected error")
	}
}

func TestWatchDone(t *testing.T) {
	sh := requireShell(t)
	w := NewWatch(WatchConfig{})
	select {
	case <-w.Done():
	default:
		t.Fatalf("expected closed channel for idle watch")
	}
	if err := w.Start(context.Background(), []string{sh, "-c", "exit 0"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	select {
	case <-w.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("watch did not finish")
	}
}

func TestWatchConcurrentStartKeepsOneProcess(t *testing.T) {
	sh := requireShell(t)
	sink := &lineSink{}
	w := NewWatch(WatchConfig{Sink: sink.add, StopGrace: 500 * time.Millisecond})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := w.Start(context.Background(), []string{sh, "-c", "echo up; sleep 1; echo survived"}); err != nil {
				t.Errorf("start: %v", err)
			}
		}()
	}
	wg.Wait()
	w.Stop()
	if w.Running() {
		t.Fatalf("expected watch stopped")
	}
	time.Sleep(1500 * time.Millisecond)
	if got := sink.snapshot(); slices.Contains(got, "survived") {
		t.Fatalf("a replaced watch process kept running: %v", got)
	}
}
