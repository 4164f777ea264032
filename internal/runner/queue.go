package runner

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"pkt.systems/pdfsuite/core"
	"pkt.systems/pdfsuite/internal/logx"
	"pkt.systems/pdfsuite/schema"
	"pkt.systems/pslog"
)

// Config controls where a queue keeps its job directories.
type Config struct {
	Root   string
	Logger pslog.Logger
}

// Queue executes submitted jobs one at a time in submission order.
//
// A worker goroutine is started when the queue goes from idle to busy and
// exits once it drains. Callbacks run on the worker goroutine.
type Queue struct {
	root string
	log  pslog.Logger
	now  func() time.Time

	mu      sync.Mutex
	pending []queuedJob
	running bool
	closed  bool
	idle    chan struct{}
}

type queuedJob struct {
	id  string
	job core.Job
}

var _ core.JobSubmitter = (*Queue)(nil)

// NewQueue creates the job-directory root and returns an idle queue.
func NewQueue(cfg Config) (*Queue, error) {
	root := cfg.Root
	if root == "" {
		defaultRoot, err := schema.DefaultBuildRoot()
		if err != nil {
			return nil, err
		}
		root = defaultRoot
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create build root: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	idle := make(chan struct{})
	close(idle)
	return &Queue{
		root: root,
		log:  logger,
		now:  time.Now,
		idle: idle,
	}, nil
}

// Root returns the directory job directories are created under.
func (q *Queue) Root() string {
	return q.root
}

// Submit enqueues job and returns immediately.
func (q *Queue) Submit(job core.Job) {
	entry := queuedJob{id: uuid.NewString(), job: job}
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		log := logx.WithJob(q.log, entry.id, job.Name)
		log.Warn("job rejected", "err", schema.ErrQueueClosed)
		emitLine(log, job.OnOutput, spawnFailureLine(schema.ErrQueueClosed))
		finishJob(log, job.OnFinished, 1, "")
		return
	}
	q.pending = append(q.pending, entry)
	start := !q.running
	if start {
		q.running = true
		q.idle = make(chan struct{})
	}
	pending := len(q.pending)
	q.mu.Unlock()

	q.log.Debug("job queued", "job", entry.id, "job_name", job.Name, "pending", pending)
	if start {
		go q.drain()
	}
}

// Pending reports how many jobs are queued but not started.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Busy reports whether a job is running or queued.
func (q *Queue) Busy() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.running
}

// Wait blocks until the queue is idle or ctx is done.
func (q *Queue) Wait(ctx context.Context) error {
	for {
		q.mu.Lock()
		if !q.running {
			q.mu.Unlock()
			return nil
		}
		idle := q.idle
		q.mu.Unlock()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-idle:
		}
	}
}

// Close stops accepting jobs. Running and queued jobs still finish.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}

func (q *Queue) drain() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.running = false
			close(q.idle)
			q.mu.Unlock()
			return
		}
		next := q.pending[0]
		q.pending[0] = queuedJob{}
		q.pending = q.pending[1:]
		q.mu.Unlock()

		q.execute(next)
	}
}

func (q *Queue) execute(entry queuedJob) {
	log := logx.WithJob(q.log, entry.id, entry.job.Name)
	started := time.Now()
	code, dir := q.run(entry.job, log)
	log.Info("job finished", "exit_code", code, "dir", dir, "duration_ms", time.Since(started).Milliseconds())
	finishJob(log, entry.job.OnFinished, code, dir)
}

func emitLine(log pslog.Logger, fn func(string), line string) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error("job output callback panic", "panic", r)
		}
	}()
	fn(line)
}

func finishJob(log pslog.Logger, fn func(int, string), code int, dir string) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error("job finished callback panic", "panic", r)
		}
	}()
	fn(code, dir)
}
