package document

import (
	"context"

	"go.uber.org/zap"
)

// Loop runs posted functions one at a time on the goroutine calling Run.
// Transport callbacks and file watcher events go through it so coordinator
// is only touched from one goroutine.
type Loop struct {
	log  *zap.Logger
	ch   chan func()
	done chan struct{}
}

// NewLoop creates loop with queue of given capacity.
func NewLoop(capacity int, log *zap.Logger) *Loop {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loop{
		log:  log.Named("loop"),
		ch:   make(chan func(), max(capacity, 0)),
		done: make(chan struct{}),
	}
}

// Post queues function, blocks when queue is full. Returns false when loop
// is no longer running.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.ch <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Run executes posted functions in arrival order until context is
// cancelled. Loop cannot be restarted.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.ch:
			l.call(fn)
		}
	}
}

func (l *Loop) call(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("Posted function failed", zap.Any("panic", r))
		}
	}()
	fn()
}
