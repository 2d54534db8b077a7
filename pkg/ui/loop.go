// Package ui is the terminal stand-in for an editor host: a single goroutine
// owns all output, and other goroutines hand it closures to run.
package ui

import (
	"context"
	"sync"
	"time"
)

type task struct {
	fn        func()
	notBefore time.Time
}

// Loop runs scheduled closures one at a time, strictly in the order they
// were scheduled.
type Loop struct {
	mu       sync.Mutex
	queue    []task
	stopping bool
	notify   chan struct{}
	done     chan struct{}
}

// NewLoop creates a loop; call Run to start consuming
func NewLoop() *Loop {
	return &Loop{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Schedule queues fn for execution on the loop goroutine
func (l *Loop) Schedule(fn func()) {
	l.ScheduleAfter(0, fn)
}

// ScheduleAfter queues fn to run no sooner than d from now. A closure never
// overtakes one scheduled before it.
func (l *Loop) ScheduleAfter(d time.Duration, fn func()) {
	l.mu.Lock()
	l.queue = append(l.queue, task{fn: fn, notBefore: time.Now().Add(d)})
	l.mu.Unlock()
	l.wake()
}

// Stop makes Run return once everything already queued has run
func (l *Loop) Stop() {
	l.mu.Lock()
	l.stopping = true
	l.mu.Unlock()
	l.wake()
}

// Wait blocks until Run has returned
func (l *Loop) Wait() {
	<-l.done
}

func (l *Loop) wake() {
	select {
	case l.notify <- struct{}{}:
	default:
	}
}

// Run consumes the queue on the calling goroutine until Stop is called and
// the queue is empty, or ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)

	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			stopping := l.stopping
			l.mu.Unlock()
			if stopping {
				return nil
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-l.notify:
			}
			continue
		}
		head := l.queue[0]
		if wait := time.Until(head.notBefore); wait > 0 {
			l.mu.Unlock()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			continue
		}
		l.queue = l.queue[1:]
		l.mu.Unlock()

		head.fn()
	}
}
