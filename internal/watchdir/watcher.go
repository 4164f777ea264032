// Package watchdir polls a folder for new PDF documents and optimizes each
// one into the build root once it has stopped changing.
package watchdir

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pkt.systems/pdfsuite/schema"
	"pkt.systems/pslog"
)

const (
	defaultPollInterval = 5 * time.Second
	defaultSettle       = 2 * time.Second
)

// Config controls a Watcher.
type Config struct {
	Dir          string
	OutputDir    string
	PollInterval time.Duration
	Settle       time.Duration
	Optimizer    Optimizer
	Out          io.Writer
	Logger       pslog.Logger
}

// Watcher tracks which documents in Dir were already processed.
type Watcher struct {
	cfg       Config
	log       pslog.Logger
	out       io.Writer
	now       func() time.Time
	processed map[string]struct{}
}

// DefaultDir returns the folder watched when none is configured.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "PDF"
	}
	return filepath.Join(home, "PDF")
}

// New validates cfg and creates the watched and output folders.
func New(cfg Config) (*Watcher, error) {
	if cfg.Optimizer == nil {
		return nil, fmt.Errorf("optimizer is required: %w", schema.ErrInvalidArgument)
	}
	if cfg.Dir == "" {
		cfg.Dir = DefaultDir()
	}
	if cfg.OutputDir == "" {
		root, err := schema.DefaultBuildRoot()
		if err != nil {
			return nil, err
		}
		cfg.OutputDir = filepath.Join(root, "watch")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.Settle < 0 {
		cfg.Settle = defaultSettle
	}
	for _, dir := range []string{cfg.Dir, cfg.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	out := cfg.Out
	if out == nil {
		out = io.Discard
	}
	return &Watcher{
		cfg:       cfg,
		log:       logger.With("dir", cfg.Dir),
		out:       out,
		now:       time.Now,
		processed: make(map[string]struct{}),
	}, nil
}

// Run scans until ctx is done, or once when once is set.
func (w *Watcher) Run(ctx context.Context, once bool) error {
	w.log.Info("watch monitoring", "poll", w.cfg.PollInterval, "settle", w.cfg.Settle)
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()
	for {
		if _, err := w.Scan(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.log.Warn("watch scan failed", "err", err)
		}
		if once {
			return nil
		}
		select {
		case <-ctx.Done():
			fmt.Fprintln(w.out, "Stopping watch.")
			return nil
		case <-ticker.C:
		}
	}
}

// Scan optimizes every settled, unprocessed document once and returns how
// many were handled.
func (w *Watcher) Scan(ctx context.Context) (int, error) {
	entries, err := filepath.Glob(filepath.Join(w.cfg.Dir, "*.pdf"))
	if err != nil {
		return 0, err
	}
	now := w.now()
	handled := 0
	var errs []error
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return handled, err
		}
		key := resolve(entry)
		if _, ok := w.processed[key]; ok {
			continue
		}
		info, err := os.Stat(entry)
		if err != nil || info.IsDir() {
			continue
		}
		if now.Sub(info.ModTime()) < w.cfg.Settle {
			continue
		}
		dest := OutputPath(w.cfg.OutputDir, entry, now)
		fmt.Fprintf(w.out, "[watch] Optimizing %s -> %s\n", filepath.Base(entry), filepath.Base(dest))
		w.log.Info("watch optimize", "src", entry, "dest", dest)
		if err := w.cfg.Optimizer.Optimize(ctx, entry, dest); err != nil {
			w.log.Warn("watch optimize failed", "src", entry, "err", err)
			fmt.Fprintf(w.out, "[watch] Failed %s: %v\n", filepath.Base(entry), err)
			errs = append(errs, err)
		}
		w.processed[key] = struct{}{}
		handled++
	}
	return handled, errors.Join(errs...)
}

// OutputPath names the optimized copy of src: <outDir>/<stem>_<timestamp>.pdf.
func OutputPath(outDir, src string, now time.Time) string {
	stem := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	return filepath.Join(outDir, stem+"_"+now.Format("20060102-150405")+".pdf")
}

func resolve(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real
	}
	return abs
}
