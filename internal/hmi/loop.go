package hmi

import (
	"context"
	"fmt"

	"github.com/muurk/klipmi/internal/logging"
	"go.uber.org/zap"
)

// DefaultQueueSize is the number of occurrences that may wait for the loop
const DefaultQueueSize = 64

type occurrence struct {
	name string
	fn   func(ctx context.Context, e *Engine) error
	done chan error
}

// Loop serialises every engine call onto one goroutine. Display events,
// telemetry and API requests are queued and each runs to completion before
// the next one starts.
type Loop struct {
	engine *Engine
	queue  chan occurrence
}

// NewLoop creates a loop for engine. size <= 0 uses DefaultQueueSize.
func NewLoop(engine *Engine, size int) *Loop {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Loop{
		engine: engine,
		queue:  make(chan occurrence, size),
	}
}

// Run processes queued occurrences until ctx is cancelled or a handler
// returns a fatal error. Other handler errors are logged and the loop
// carries on with the next occurrence.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case occ := <-l.queue:
			err := occ.fn(ctx, l.engine)
			if occ.done != nil {
				occ.done <- err
			}
			if err == nil {
				continue
			}
			if IsFatal(err) {
				logging.Error("Fatal navigation error", zap.String("occurrence", occ.name), zap.Error(err))
				return fmt.Errorf("%s: %w", occ.name, err)
			}
			logging.Warn("Handler failed", zap.String("occurrence", occ.name), zap.Error(err))
		}
	}
}

// Post queues fn without waiting for it to run
func (l *Loop) Post(ctx context.Context, name string, fn func(ctx context.Context, e *Engine) error) error {
	select {
	case l.queue <- occurrence{name: name, fn: fn}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do queues fn and waits for its result
func (l *Loop) Do(ctx context.Context, name string, fn func(ctx context.Context, e *Engine) error) error {
	done := make(chan error, 1)
	select {
	case l.queue <- occurrence{name: name, fn: fn, done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Touch queues a touch event
func (l *Loop) Touch(ctx context.Context, pageID PageID, componentID int) error {
	return l.Post(ctx, "touch", func(ctx context.Context, e *Engine) error {
		return e.DispatchTouch(ctx, pageID, componentID)
	})
}

// Numeric queues a numeric input event
func (l *Loop) Numeric(ctx context.Context, componentID, value int) error {
	return l.Post(ctx, "numeric", func(ctx context.Context, e *Engine) error {
		return e.DispatchNumericInput(ctx, componentID, value)
	})
}

// Telemetry queues a telemetry snapshot
func (l *Loop) Telemetry(ctx context.Context, snap Snapshot) error {
	return l.Post(ctx, "telemetry", func(ctx context.Context, e *Engine) error {
		return e.DispatchTelemetry(ctx, snap)
	})
}

// Navigate queues a page change requested from outside the page set, such
// as printer lifecycle callbacks
func (l *Loop) Navigate(ctx context.Context, target PageID) error {
	return l.Post(ctx, "navigate", func(ctx context.Context, e *Engine) error {
		return e.ChangePage(ctx, target)
	})
}
