package ui

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrLoopStopped is returned by Do when the loop is no longer running.
var ErrLoopStopped = errors.New("ui: loop stopped")

// Timer is a pending one-shot callback.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d on an arbitrary goroutine.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type systemScheduler struct{}

func (systemScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemScheduler returns a Scheduler backed by the runtime timers.
func SystemScheduler() Scheduler {
	return systemScheduler{}
}

// Dispatcher is the part of Loop that UI code posts work through.
type Dispatcher interface {
	Post(fn func())
	AfterFunc(d time.Duration, fn func()) Timer
}

// Loop executes posted tasks one at a time on the goroutine running Run.
// Every element mutation happens inside a task, so elements need no locking.
type Loop struct {
	scheduler Scheduler
	logger    *zap.Logger

	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	stopped chan struct{}
	running bool
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithScheduler overrides the timer source.
func WithScheduler(s Scheduler) LoopOption {
	return func(l *Loop) {
		if s != nil {
			l.scheduler = s
		}
	}
}

// WithLogger sets the logger used for recovered task panics.
func WithLogger(logger *zap.Logger) LoopOption {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoop constructs an idle loop. Call Run to start processing.
func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{
		scheduler: SystemScheduler(),
		logger:    zap.NewNop(),
		wake:      make(chan struct{}, 1),
		stopped:   make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Post enqueues fn. It never blocks and is safe from any goroutine, including
// from inside a running task.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Do posts fn and waits until it has run.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-l.stopped:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AfterFunc schedules fn to be posted to the loop once d has elapsed.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	return l.scheduler.AfterFunc(d, func() {
		l.Post(fn)
	})
}

// Run processes tasks until ctx is cancelled. A loop can only run once.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return errors.New("ui: loop already running")
	}
	l.running = true
	l.mu.Unlock()
	defer close(l.stopped)

	for {
		for _, task := range l.drain() {
			l.runTask(task)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Stopped is closed once Run has returned.
func (l *Loop) Stopped() <-chan struct{} {
	return l.stopped
}

func (l *Loop) drain() []func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	tasks := l.queue
	l.queue = nil
	return tasks
}

func (l *Loop) runTask(task func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("ui_task_panic", zap.String("panic", fmt.Sprint(r)))
		}
	}()
	task()
}
