package replay

import (
	"context"
	"errors"
	"fmt"

	"github.com/muurk/klipmi/internal/hmi"
)

// FieldSetter is a display that can have its text fields filled in from
// outside, as a user typing on the panel would.
type FieldSetter interface {
	SetField(field, value string)
}

// ExpectationError reports an expect step that did not hold
type ExpectationError struct {
	Line int
	Want hmi.PageIdentity
	Got  hmi.PageIdentity
}

func (e *ExpectationError) Error() string {
	return fmt.Sprintf("line %d: expected page %s, on %s", e.Line, e.Want, e.Got)
}

// Runner applies steps to an engine through its loop
type Runner struct {
	loop     *hmi.Loop
	registry *hmi.Registry
	fields   FieldSetter
	sleep    hmi.PageID
	status   hmi.Snapshot
}

// NewRunner creates a runner. fields may be nil when scripts never use
// input steps. status seeds the telemetry that telemetry steps update.
func NewRunner(loop *hmi.Loop, engine *hmi.Engine, fields FieldSetter, status hmi.Snapshot) *Runner {
	if status == nil {
		status = make(hmi.Snapshot)
	}
	return &Runner{
		loop:     loop,
		registry: engine.Registry(),
		fields:   fields,
		sleep:    engine.Options().SleepTrigger,
		status:   status.Clone(),
	}
}

// Run applies steps in order and stops at the first failure
func (r *Runner) Run(ctx context.Context, steps []Step) error {
	for _, step := range steps {
		if err := r.Apply(ctx, step); err != nil {
			return err
		}
	}
	return nil
}

// Apply runs one step and waits for the engine to finish handling it
func (r *Runner) Apply(ctx context.Context, step Step) error {
	err := r.apply(ctx, step)
	if err == nil {
		return nil
	}
	var expectErr *ExpectationError
	if errors.As(err, &expectErr) {
		return err
	}
	return fmt.Errorf("line %d (%s): %w", step.Line, step.Kind, err)
}

func (r *Runner) apply(ctx context.Context, step Step) error {
	switch step.Kind {
	case KindTouch:
		return r.loop.Do(ctx, "replay touch", func(ctx context.Context, e *hmi.Engine) error {
			page := hmi.PageID(-1)
			if step.Page != nil {
				page = *step.Page
			} else if cur, ok := e.Current(); ok {
				page = cur.ID
			}
			return e.DispatchTouch(ctx, page, step.Component)
		})

	case KindSleep:
		return r.loop.Do(ctx, "replay sleep", func(ctx context.Context, e *hmi.Engine) error {
			return e.DispatchTouch(ctx, r.sleep, 0)
		})

	case KindNumeric:
		return r.loop.Do(ctx, "replay numeric", func(ctx context.Context, e *hmi.Engine) error {
			return e.DispatchNumericInput(ctx, step.Component, step.Value)
		})

	case KindTelemetry:
		r.status.Merge(step.Update)
		snap := r.status.Clone()
		return r.loop.Do(ctx, "replay telemetry", func(ctx context.Context, e *hmi.Engine) error {
			return e.DispatchTelemetry(ctx, snap)
		})

	case KindInput:
		if r.fields == nil {
			return fmt.Errorf("display does not accept typed input")
		}
		r.fields.SetField(step.Field, step.Text)
		return nil

	case KindPage:
		page, err := r.registry.Resolve(step.Ref)
		if err != nil {
			return err
		}
		target := page.Identity().ID
		return r.loop.Do(ctx, "replay page", func(ctx context.Context, e *hmi.Engine) error {
			return e.ChangePage(ctx, target)
		})

	case KindExpectPage:
		page, err := r.registry.Resolve(step.Ref)
		if err != nil {
			return err
		}
		want := page.Identity()
		var got hmi.PageIdentity
		if err := r.loop.Do(ctx, "replay expect", func(_ context.Context, e *hmi.Engine) error {
			got, _ = e.Current()
			return nil
		}); err != nil {
			return err
		}
		if got.ID != want.ID {
			return &ExpectationError{Line: step.Line, Want: want, Got: got}
		}
		return nil
	}
	return fmt.Errorf("unsupported step kind %s", step.Kind)
}
