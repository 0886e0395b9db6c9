// Package eventloop runs callbacks one at a time on a single goroutine,
// with timers and frame callbacks scheduled onto the same queue.
package eventloop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultFrameInterval approximates a 60Hz paint cycle.
const DefaultFrameInterval = 16 * time.Millisecond

// ErrClosed is returned when work is submitted to a stopped loop.
var ErrClosed = errors.New("eventloop: closed")

// Timer cancels a scheduled callback. Stop reports whether the call
// prevented the callback from running.
type Timer interface {
	Stop() bool
}

// Loop schedules callbacks that never run concurrently with each other.
type Loop interface {
	Post(fn func())
	AfterFunc(d time.Duration, fn func()) Timer
	RequestFrame(fn func()) Timer
	Now() time.Time
}

// Runner is the goroutine-backed Loop.
type Runner struct {
	frame time.Duration

	mu       sync.Mutex
	queue    []func()
	wake     chan struct{}
	closed   atomic.Bool
	stopped  chan struct{}
	stopOnce sync.Once
}

// Option configures a Runner.
type Option func(*Runner)

// WithFrameInterval overrides DefaultFrameInterval.
func WithFrameInterval(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.frame = d
		}
	}
}

// New constructs a Runner. Callbacks execute once Run is called.
func New(opts ...Option) *Runner {
	r := &Runner{frame: DefaultFrameInterval, wake: make(chan struct{}, 1), stopped: make(chan struct{})}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run drains the queue until ctx is cancelled. Pending callbacks are dropped.
func (r *Runner) Run(ctx context.Context) error {
	defer r.stopOnce.Do(func() {
		r.closed.Store(true)
		close(r.stopped)
	})
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-r.wake:
		}
		for {
			if ctx.Err() != nil {
				return nil
			}
			fn := r.pop()
			if fn == nil {
				break
			}
			fn()
		}
	}
}

func (r *Runner) pop() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.queue) == 0 {
		return nil
	}
	fn := r.queue[0]
	r.queue[0] = nil
	r.queue = r.queue[1:]
	return fn
}

// Post enqueues fn. It is safe to call from any goroutine, including the loop itself.
func (r *Runner) Post(fn func()) {
	if fn == nil || r.closed.Load() {
		return
	}
	r.mu.Lock()
	r.queue = append(r.queue, fn)
	r.mu.Unlock()
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Do runs fn on the loop and waits for it to finish.
func (r *Runner) Do(ctx context.Context, fn func()) error {
	if r.closed.Load() {
		return ErrClosed
	}
	done := make(chan struct{})
	r.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-r.stopped:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AfterFunc runs fn on the loop after d.
func (r *Runner) AfterFunc(d time.Duration, fn func()) Timer {
	t := &runnerTimer{}
	t.timer = time.AfterFunc(d, func() {
		r.Post(func() {
			if t.fired.CompareAndSwap(false, true) {
				fn()
			}
		})
	})
	return t
}

// RequestFrame runs fn on the next frame tick.
func (r *Runner) RequestFrame(fn func()) Timer {
	return r.AfterFunc(r.frame, fn)
}

// Now returns wall-clock time.
func (r *Runner) Now() time.Time {
	return time.Now()
}

type runnerTimer struct {
	timer *time.Timer
	fired atomic.Bool
}

// Stop also suppresses a callback that was already queued but has not run.
func (t *runnerTimer) Stop() bool {
	t.timer.Stop()
	return t.fired.CompareAndSwap(false, true)
}
