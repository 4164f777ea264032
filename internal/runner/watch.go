package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"pkt.systems/pdfsuite/core"
	"pkt.systems/pdfsuite/schema"
	"pkt.systems/pslog"
)

// LineFunc receives one line of output.
type LineFunc func(line string)

// WatchConfig configures a Watch.
type WatchConfig struct {
	// Sink receives the watch process output and status lines.
	Sink LineFunc
	// StopGrace bounds how long Stop waits after SIGTERM before killing.
	StopGrace time.Duration
	Logger    pslog.Logger
}

// Watch supervises at most one long-lived background process, independent
// of the job queue.
type Watch struct {
	sink  LineFunc
	grace time.Duration
	log   pslog.Logger

	// startMu serializes Start, StartPreset and Stop so stopping the old
	// process and installing the new one happen as one step.
	startMu sync.Mutex

	mu   sync.Mutex
	proc *watchProc
}

type watchProc struct {
	cmd      *exec.Cmd
	done     chan struct{}
	stopping atomic.Bool
}

// NewWatch constructs an idle watch.
func NewWatch(cfg WatchConfig) *Watch {
	logger := cfg.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	grace := cfg.StopGrace
	if grace <= 0 {
		grace = schema.DefaultWatchStopGrace
	}
	sink := cfg.Sink
	if sink == nil {
		sink = func(string) {}
	}
	return &Watch{sink: sink, grace: grace, log: logger}
}

// Start stops any running watch process and launches argv. The process is
// stopped when ctx is done.
func (w *Watch) Start(ctx context.Context, argv []string) error {
	w.startMu.Lock()
	defer w.startMu.Unlock()
	w.stopCurrent()
	return w.spawn(ctx, argv)
}

func (w *Watch) spawn(ctx context.Context, argv []string) error {
	if len(argv) == 0 {
		return fmt.Errorf("start watch: %w", schema.ErrEmptyCommand)
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	setProcessGroup(cmd)
	reader, writer, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("start watch: %w", err)
	}
	cmd.Stdout = writer
	cmd.Stderr = writer
	if err := cmd.Start(); err != nil {
		_ = writer.Close()
		_ = reader.Close()
		w.log.Warn("watch start failed", "argv", argv, "err", err)
		return fmt.Errorf("start watch: %w", err)
	}
	_ = writer.Close()

	proc := &watchProc{cmd: cmd, done: make(chan struct{})}
	w.mu.Lock()
	w.proc = proc
	w.mu.Unlock()
	w.log.Info("watch started", "pid", cmd.Process.Pid, "argv", argv)

	go w.supervise(proc, reader)
	go func() {
		select {
		case <-ctx.Done():
			w.stopProc(proc)
		case <-proc.done:
		}
	}()
	return nil
}

// StartPreset launches the folder watcher described by settings, or reports
// that watching is disabled.
func (w *Watch) StartPreset(ctx context.Context, settings schema.WatchSettings) error {
	w.startMu.Lock()
	defer w.startMu.Unlock()
	w.stopCurrent()
	if !settings.Enabled {
		w.emit("[watch] disabled.")
		return nil
	}
	if settings.Preset == "" {
		settings.Preset = "report"
	}
	if settings.Folder != "" {
		if err := os.MkdirAll(settings.Folder, 0o755); err != nil {
			return fmt.Errorf("create watch folder: %w", err)
		}
	}
	w.emit(fmt.Sprintf("[watch] launching preset '%s'", settings.Preset))
	return w.spawn(ctx, core.WatchCommand(settings))
}

// Running reports whether a watch process is alive.
func (w *Watch) Running() bool {
	w.mu.Lock()
	proc := w.proc
	w.mu.Unlock()
	if proc == nil {
		return false
	}
	select {
	case <-proc.done:
		return false
	default:
		return true
	}
}

// Done returns a channel closed when the current watch process exits. It is
// already closed when nothing runs.
func (w *Watch) Done() <-chan struct{} {
	w.mu.Lock()
	proc := w.proc
	w.mu.Unlock()
	if proc == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return proc.done
}

// Stop terminates the watch process, killing it after the grace period.
// The watch is considered stopped when Stop returns.
func (w *Watch) Stop() {
	w.startMu.Lock()
	defer w.startMu.Unlock()
	w.stopCurrent()
}

func (w *Watch) stopCurrent() {
	w.mu.Lock()
	proc := w.proc
	w.proc = nil
	w.mu.Unlock()
	w.stopProc(proc)
}

func (w *Watch) stopProc(proc *watchProc) {
	if proc == nil || proc.stopping.Swap(true) {
		return
	}
	w.mu.Lock()
	if w.proc == proc {
		w.proc = nil
	}
	w.mu.Unlock()
	select {
	case <-proc.done:
		return
	default:
	}
	if err := terminate(proc.cmd); err != nil {
		w.log.Debug("watch terminate failed", "err", err)
	}
	select {
	case <-proc.done:
		w.log.Info("watch stopped")
		return
	case <-time.After(w.grace):
	}
	w.log.Warn("watch did not exit, killing", "grace_ms", w.grace.Milliseconds())
	if err := kill(proc.cmd); err != nil {
		w.log.Debug("watch kill failed", "err", err)
	}
	select {
	case <-proc.done:
	case <-time.After(w.grace):
		w.log.Warn("watch still running after kill")
	}
}

func (w *Watch) supervise(proc *watchProc, reader *os.File) {
	defer close(proc.done)
	if _, err := streamLines(reader, w.emit); err != nil {
		w.log.Warn("watch output read failed", "err", err)
		_, _ = io.Copy(io.Discard, reader)
	}
	_ = reader.Close()
	code := exitCode(w.log, proc.cmd.Wait(), proc.cmd)
	w.mu.Lock()
	if w.proc == proc {
		w.proc = nil
	}
	w.mu.Unlock()
	if proc.stopping.Load() {
		return
	}
	w.log.Info("watch exited", "exit_code", code)
	w.emit(fmt.Sprintf("[watch] exited (%d).", code))
}

func (w *Watch) emit(line string) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("watch output callback panic", "panic", r)
		}
	}()
	w.sink(line)
}
