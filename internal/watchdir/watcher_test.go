package watchdir

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

type fakeOptimizer struct {
	calls []string
	err   error
}

func (f *fakeOptimizer) Optimize(ctx context.Context, src, dest string) error {
	f.calls = append(f.calls, filepath.Base(src)+"->"+filepath.Base(dest))
	return f.err
}

func touch(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte("%PDF-1.4\n"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
}

func newTestWatcher(t *testing.T, opt Optimizer, out *bytes.Buffer) (*Watcher, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "inbox")
	w, err := New(Config{
		Dir:       dir,
		OutputDir: filepath.Join(t.TempDir(), "watch"),
		Settle:    time.Minute,
		Optimizer: opt,
		Out:       out,
	})
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	w.now = func() time.Time { return time.Date(2026, 2, 3, 4, 5, 6, 0, time.Local) }
	return w, dir
}

func TestScanSkipsUnsettledAndProcessed(t *testing.T) {
	opt := &fakeOptimizer{}
	var out bytes.Buffer
	w, dir := newTestWatcher(t, opt, &out)
	now := w.now()
	touch(t, filepath.Join(dir, "old.pdf"), now.Add(-time.Hour))
	touch(t, filepath.Join(dir, "fresh.pdf"), now.Add(-time.Second))
	touch(t, filepath.Join(dir, "notes.txt"), now.Add(-time.Hour))

	handled, err := w.Scan(context.Background())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if handled != 1 {
		t.Fatalf("handled = %d", handled)
	}
	want := []string{"old.pdf->old_20260203-040506.pdf"}
	if !slices.Equal(opt.calls, want) {
		t.Fatalf("calls = %v", opt.calls)
	}
	if !strings.Contains(out.String(), "Optimizing old.pdf -> old_20260203-040506.pdf") {
		t.Fatalf("output = %q", out.String())
	}

	if handled, _ := w.Scan(context.Background()); handled != 0 {
		t.Fatalf("expected processed file to be skipped, handled %d", handled)
	}

	w.now = func() time.Time { return now.Add(time.Hour) }
	if handled, _ := w.Scan(context.Background()); handled != 1 {
		t.Fatalf("expected settled file to be handled, got %d", handled)
	}
	if len(opt.calls) != 2 || !strings.HasPrefix(opt.calls[1], "fresh.pdf->") {
		t.Fatalf("calls = %v", opt.calls)
	}
}

func TestScanReportsOptimizerFailureOnce(t *testing.T) {
	opt := &fakeOptimizer{err: errors.New("gs: exit status 1")}
	var out bytes.Buffer
	w, dir := newTestWatcher(t, opt, &out)
	touch(t, filepath.Join(dir, "bad.pdf"), w.now().Add(-time.Hour))

	if _, err := w.Scan(context.Background()); err == nil {
		t.Fatalf("expected optimizer error")
	}
	if !strings.Contains(out.String(), "[watch] Failed bad.pdf") {
		t.Fatalf("output = %q", out.String())
	}
	if handled, err := w.Scan(context.Background()); handled != 0 || err != nil {
		t.Fatalf("expected failed file not to be retried, got %d %v", handled, err)
	}
}

func TestRunOnce(t *testing.T) {
	opt := &fakeOptimizer{}
	w, dir := newTestWatcher(t, opt, &bytes.Buffer{})
	touch(t, filepath.Join(dir, "a.pdf"), w.now().Add(-time.Hour))
	touch(t, filepath.Join(dir, "b.pdf"), w.now().Add(-time.Hour))
	if err := w.Run(context.Background(), true); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(opt.calls) != 2 || !strings.HasPrefix(opt.calls[0], "a.pdf") {
		t.Fatalf("calls = %v", opt.calls)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	w, _ := newTestWatcher(t, &fakeOptimizer{}, &bytes.Buffer{})
	w.cfg.PollInterval = 10 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, false) }()
	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("run did not stop")
	}
}

func TestNewRequiresOptimizer(t *testing.T) {
	if _, err := New(Config{Dir: t.TempDir()}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestOutputPath(t *testing.T) {
	now := time.Date(2026, 12, 31, 23, 59, 58, 0, time.Local)
	got := OutputPath("/out", "/in/My Scan.final.pdf", now)
	if got != filepath.Join("/out", "My Scan.final_20261231-235958.pdf") {
		t.Fatalf("output = %q", got)
	}
}
