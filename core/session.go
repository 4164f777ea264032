package core

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"pkt.systems/pdfsuite/internal/logx"
	"pkt.systems/pdfsuite/schema"
	"pkt.systems/pslog"
)

const defaultCommitJobName = "reader-save"

// Session is an editable, undoable model of one document's page arrangement.
//
// The page order, selection, rotations and history are owned by the session;
// accessors return copies. Methods are safe for concurrent use because commit
// completion runs on the job queue's worker goroutine.
type Session struct {
	mu        sync.Mutex
	cfg       schema.SessionConfig
	path      string
	order     []int
	selection map[int]struct{}
	rotations map[int]int
	history   *history
	dirty     bool
	revision  uint64
	log       pslog.Logger
	now       func() time.Time
}

// CommitOptions controls where and how a session is committed.
type CommitOptions struct {
	// OutputPath is the destination file. Empty selects a timestamped
	// directory under the build root.
	OutputPath string
	JobName    string
	OnOutput   func(line string)
	OnFinished func(code int, dir string)
}

// NewSession constructs a session over path with the given initial page order.
func NewSession(path string, order []int, cfg schema.SessionConfig) (*Session, error) {
	normalized, err := schema.NormalizeSessionConfig(cfg)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("session path is required: %w", schema.ErrInvalidArgument)
	}
	for _, page := range order {
		if page < 1 {
			return nil, fmt.Errorf("page %d is not a positive page number: %w", page, schema.ErrInvalidArgument)
		}
	}
	return &Session{
		cfg:       normalized,
		path:      path,
		order:     append([]int(nil), order...),
		selection: make(map[int]struct{}),
		rotations: make(map[int]int),
		history:   newHistory(normalized.HistoryDepth),
		log:       logx.WithSession(pslog.Ctx(context.Background()), path),
		now:       time.Now,
	}, nil
}

// OpenSession loads path through the renderer and seeds the order 1..N.
func OpenSession(ctx context.Context, renderer Renderer, path string, cfg schema.SessionConfig) (*Session, error) {
	if renderer == nil {
		return nil, fmt.Errorf("renderer is required: %w", schema.ErrInvalidArgument)
	}
	if err := renderer.Load(ctx, path); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	count := renderer.PageCount()
	order := make([]int, count)
	for i := range order {
		order[i] = i + 1
	}
	session, err := NewSession(path, order, cfg)
	if err != nil {
		return nil, err
	}
	session.log = logx.WithSession(pslog.Ctx(ctx), path)
	session.log.Debug("session open", "pages", count)
	return session, nil
}

// Path returns the source document path.
func (s *Session) Path() string {
	return s.path
}

// Order returns a copy of the current page order.
func (s *Session) Order() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.order...)
}

// Rotations returns a copy of the non-zero per-page rotations.
func (s *Session) Rotations() map[int]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.rotations)
}

// Dirty reports whether the arrangement changed since the last successful commit.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// CanUndo reports whether Undo would change anything.
func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanUndo()
}

// CanRedo reports whether Redo would change anything.
func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanRedo()
}

// Select adds page numbers to the selection.
func (s *Session) Select(pages ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, page := range pages {
		s.selection[page] = struct{}{}
	}
}

// Deselect removes page numbers from the selection.
func (s *Session) Deselect(pages ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, page := range pages {
		delete(s.selection, page)
	}
}

// Selection returns the selected page numbers in ascending order.
func (s *Session) Selection() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, 0, len(s.selection))
	for page := range s.selection {
		out = append(out, page)
	}
	slices.Sort(out)
	return out
}

// Reorder moves the pages at rows, as a block in their relative order, so the
// block starts at target. target is clamped to the remaining length.
func (s *Session) Reorder(rows []int, target int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	picked := s.normalizeRows(rows)
	if len(picked) == 0 {
		return
	}
	s.record()
	block := make([]int, 0, len(picked))
	remaining := make([]int, 0, len(s.order)-len(picked))
	next := 0
	for idx, page := range s.order {
		if next < len(picked) && picked[next] == idx {
			block = append(block, page)
			next++
			continue
		}
		remaining = append(remaining, page)
	}
	target = max(0, min(target, len(remaining)))
	order := make([]int, 0, len(s.order))
	order = append(order, remaining[:target]...)
	order = append(order, block...)
	order = append(order, remaining[target:]...)
	s.order = order
	s.log.Debug("session reorder", "rows", len(picked), "target", target)
}

// Rotate adds angle to the rotation of the pages at rows. angle must be a
// multiple of 90. The page order is unchanged.
func (s *Session) Rotate(rows []int, angle int) error {
	if angle%90 != 0 {
		return fmt.Errorf("rotate by %d: %w: %w", angle, schema.ErrInvalidArgument, schema.ErrInvalidRotation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	picked := s.normalizeRows(rows)
	if len(picked) == 0 {
		return nil
	}
	s.record()
	seen := make(map[int]struct{}, len(picked))
	for _, idx := range picked {
		page := s.order[idx]
		if _, ok := seen[page]; ok {
			continue
		}
		seen[page] = struct{}{}
		next := schema.NormalizeRotation(s.rotations[page] + angle)
		if next == 0 {
			delete(s.rotations, page)
		} else {
			s.rotations[page] = next
		}
	}
	s.log.Debug("session rotate", "rows", len(picked), "angle", angle)
	return nil
}

// Delete removes the pages at rows from the order and the selection.
func (s *Session) Delete(rows []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	picked := s.normalizeRows(rows)
	if len(picked) == 0 {
		return
	}
	s.record()
	dropped := make(map[int]struct{}, len(picked))
	order := make([]int, 0, len(s.order)-len(picked))
	next := 0
	for idx, page := range s.order {
		if next < len(picked) && picked[next] == idx {
			dropped[page] = struct{}{}
			next++
			continue
		}
		order = append(order, page)
	}
	s.order = order
	for page := range dropped {
		delete(s.selection, page)
		if !slices.Contains(order, page) {
			delete(s.rotations, page)
		}
	}
	s.log.Debug("session delete", "rows", len(picked), "remaining", len(order))
}

// SetOrder replaces the page order. The new order must hold exactly the same
// multiset of page numbers as the current one.
func (s *Session) SetOrder(order []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := slices.Clone(s.order)
	got := slices.Clone(order)
	slices.Sort(want)
	slices.Sort(got)
	if !slices.Equal(want, got) {
		return fmt.Errorf("set order: %w: %w", schema.ErrInvalidArgument, schema.ErrPageMismatch)
	}
	s.record()
	s.order = slices.Clone(order)
	return nil
}

// Undo restores the state before the most recent operation.
func (s *Session) Undo() {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.history.Undo(s.current())
	if !ok {
		return
	}
	s.restore(prev)
}

// Redo reapplies the most recently undone operation.
func (s *Session) Redo() {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, ok := s.history.Redo(s.current())
	if !ok {
		return
	}
	s.restore(next)
}

// Commit writes the current arrangement to a new file by submitting a reorder
// job. On exit code 0 the dirty flag is cleared unless the session changed
// after the commit was submitted. OnFinished is always invoked.
func (s *Session) Commit(ctx context.Context, submitter JobSubmitter, opts CommitOptions) error {
	if submitter == nil {
		return fmt.Errorf("job submitter is required: %w", schema.ErrInvalidArgument)
	}
	dest := opts.OutputPath
	if dest == "" {
		path, err := s.defaultOutputPath()
		if err != nil {
			return err
		}
		dest = path
	}
	name := opts.JobName
	if name == "" {
		name = defaultCommitJobName
	}

	s.mu.Lock()
	command := ReorderCommand(s.cfg.Executable, s.path, s.order, rotationsByPosition(s.order, s.rotations), dest)
	revision := s.revision
	s.mu.Unlock()

	log := logx.WithSession(pslog.Ctx(ctx), s.path)
	log.Info("session commit submit", "dest", dest, "job_name", name)
	onOutput := opts.OnOutput
	if onOutput == nil {
		onOutput = func(string) {}
	}
	submitter.Submit(Job{
		Command:  command,
		OnOutput: onOutput,
		Name:     name,
		OnFinished: func(code int, dir string) {
			if code == 0 {
				s.mu.Lock()
				if s.revision == revision {
					s.dirty = false
				}
				s.mu.Unlock()
				log.Info("session commit ok", "dest", dest, "dir", dir)
			} else {
				log.Warn("session commit failed", "exit_code", code, "dir", dir)
			}
			if opts.OnFinished != nil {
				opts.OnFinished(code, dir)
			}
		},
	})
	return nil
}

func (s *Session) defaultOutputPath() (string, error) {
	folder := filepath.Join(s.cfg.BuildRoot, s.now().Format("20060102-150405")+"-reader")
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return "", fmt.Errorf("create commit output dir: %w", err)
	}
	stem := strings.TrimSuffix(filepath.Base(s.path), filepath.Ext(s.path))
	return filepath.Join(folder, stem+"-session.pdf"), nil
}

// normalizeRows deduplicates rows, drops out-of-range entries and sorts them.
func (s *Session) normalizeRows(rows []int) []int {
	out := make([]int, 0, len(rows))
	for _, row := range rows {
		if row >= 0 && row < len(s.order) {
			out = append(out, row)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func (s *Session) current() snapshot {
	return snapshot{order: s.order, rotations: s.rotations}.clone()
}

func (s *Session) restore(state snapshot) {
	s.order = state.order
	s.rotations = state.rotations
	if s.rotations == nil {
		s.rotations = make(map[int]int)
	}
	s.dirty = true
	s.revision++
}

// record snapshots the pre-operation state and marks the session dirty.
func (s *Session) record() {
	s.history.Record(s.current())
	s.dirty = true
	s.revision++
}
