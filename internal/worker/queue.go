// Package worker runs queued missions one at a time on a single goroutine
// and keeps a bounded, in-memory record of their status.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/threading"

	"github.com/adityaadep2008/TrioAgent/pkg/workflow"
)

type Status string

const (
	StatusQueued  Status = "queued"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

var (
	ErrQueueFull = errors.New("worker: queue is full")
	ErrStopped   = errors.New("worker: queue is stopped")
)

// Task is a snapshot of one mission's progress.
type Task struct {
	ID         string            `json:"task_id"`
	Persona    workflow.Persona  `json:"persona"`
	Status     Status            `json:"status"`
	Summary    string            `json:"summary,omitempty"`
	Error      string            `json:"error,omitempty"`
	Outcome    *workflow.Outcome `json:"outcome,omitempty"`
	QueuedAt   time.Time         `json:"queued_at"`
	StartedAt  time.Time         `json:"started_at,omitempty"`
	FinishedAt time.Time         `json:"finished_at,omitempty"`
}

// Done reports whether the task reached a terminal status.
func (t Task) Done() bool { return t.Status == StatusSuccess || t.Status == StatusFailed }

// Runner executes one mission. *workflow.Suite satisfies it.
type Runner interface {
	Run(ctx context.Context, m workflow.Mission) (*workflow.Outcome, error)
}

type job struct {
	id      string
	mission workflow.Mission
}

// Queue feeds missions to a Runner strictly in submission order.
type Queue struct {
	runner  Runner
	timeout time.Duration
	jobs    chan job

	mu    sync.RWMutex
	tasks *lru.Cache[string, *Task]

	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	started  bool
	stopped  bool
	stopOnce sync.Once
}

// NewQueue creates a queue holding at most size waiting missions and
// remembering the last retain tasks. timeout caps each mission; zero
// means no cap.
func NewQueue(r Runner, size, retain int, timeout time.Duration) (*Queue, error) {
	if r == nil {
		return nil, errors.New("worker: nil runner")
	}
	if size <= 0 {
		return nil, fmt.Errorf("worker: queue size must be positive, got %d", size)
	}
	tasks, err := lru.New[string, *Task](retain)
	if err != nil {
		return nil, fmt.Errorf("worker: task store: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		runner:  r,
		timeout: timeout,
		jobs:    make(chan job, size),
		tasks:   tasks,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}, nil
}

// Start launches the worker goroutine. Extra calls are no-ops.
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started || q.stopped {
		return
	}
	q.started = true
	threading.GoSafe(q.loop)
}

// Stop cancels the running mission, fails waiting ones and waits for the
// worker to exit.
func (q *Queue) Stop() {
	q.stopOnce.Do(func() {
		q.mu.Lock()
		q.stopped = true
		started := q.started
		q.mu.Unlock()

		q.cancel()
		if started {
			<-q.done
			return
		}
		q.drain()
	})
}

// Submit validates and enqueues m, returning its queued snapshot.
func (q *Queue) Submit(m workflow.Mission) (Task, error) {
	if err := m.Validate(); err != nil {
		return Task{}, err
	}
	t := &Task{ID: uuid.NewString(), Persona: m.Persona, Status: StatusQueued, QueuedAt: time.Now()}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return Task{}, ErrStopped
	}
	select {
	case q.jobs <- job{id: t.ID, mission: m}:
	default:
		return Task{}, ErrQueueFull
	}
	q.tasks.Add(t.ID, t)
	logx.Infow("mission queued", logx.Field("task_id", t.ID), logx.Field("persona", string(m.Persona)))
	return *t, nil
}

// Get returns a snapshot of the task, if it is still retained.
func (q *Queue) Get(id string) (Task, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	t, ok := q.tasks.Peek(id)
	if !ok {
		return Task{}, false
	}
	return *t, true
}

// Pending is the number of missions waiting for the worker.
func (q *Queue) Pending() int { return len(q.jobs) }

func (q *Queue) loop() {
	defer close(q.done)
	for {
		select {
		case <-q.ctx.Done():
			q.drain()
			return
		case j := <-q.jobs:
			if q.ctx.Err() != nil {
				q.abandon(j)
				q.drain()
				return
			}
			q.run(j)
		}
	}
}

func (q *Queue) run(j job) {
	start := time.Now()
	if !q.update(j.id, func(t *Task) {
		t.Status = StatusRunning
		t.StartedAt = time.Now()
	}) {
		logx.Slowf("worker: task %s was evicted before it ran", j.id)
	}

	ctx := q.ctx
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}
	out, err := q.safeRun(ctx, j.mission)

	q.update(j.id, func(t *Task) {
		t.FinishedAt = time.Now()
		t.Outcome = out
		if out != nil {
			t.Summary = out.Summary
		}
		if err != nil {
			t.Status = StatusFailed
			t.Error = err.Error()
			return
		}
		t.Status = StatusSuccess
	})
	logx.Infow("mission done",
		logx.Field("task_id", j.id),
		logx.Field("ok", err == nil),
		logx.Field("elapsed", time.Since(start).String()),
	)
}

func (q *Queue) safeRun(ctx context.Context, m workflow.Mission) (out *workflow.Outcome, err error) {
	defer func() {
		if p := recover(); p != nil {
			logx.Errorf("worker: mission %s panicked: %v", m.Persona, p)
			err = fmt.Errorf("worker: mission panicked: %v", p)
		}
	}()
	return q.runner.Run(ctx, m)
}

func (q *Queue) drain() {
	for {
		select {
		case j := <-q.jobs:
			q.abandon(j)
		default:
			return
		}
	}
}

func (q *Queue) abandon(j job) {
	q.update(j.id, func(t *Task) {
		t.Status = StatusFailed
		t.Error = ErrStopped.Error()
		t.FinishedAt = time.Now()
	})
}

func (q *Queue) update(id string, fn func(*Task)) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	t, ok := q.tasks.Peek(id)
	if ok {
		fn(t)
	}
	return ok
}
