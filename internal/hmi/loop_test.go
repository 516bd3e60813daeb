package hmi

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLoopSerialisesOccurrences(t *testing.T) {
	f := mustFixture(t)
	loop := NewLoop(f.engine, 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- loop.Run(ctx) }()

	if err := loop.Navigate(ctx, pageMain); err != nil {
		t.Fatalf("Navigate() error = %v", err)
	}
	if err := loop.Touch(ctx, pageMain, 34); err != nil {
		t.Fatalf("Touch() error = %v", err)
	}

	var got PageID
	err := loop.Do(ctx, "read", func(_ context.Context, e *Engine) error {
		cur, _ := e.Current()
		got = cur.ID
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if got != pageControl {
		t.Errorf("current = %d, want control", got)
	}

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestLoopStopsOnFatalError(t *testing.T) {
	f := mustFixture(t)
	loop := NewLoop(f.engine, 4)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_ = loop.Navigate(ctx, 250)

	err := loop.Run(ctx)
	if !IsUnknownPage(err) {
		t.Errorf("Run() error = %v, want UnknownPage", err)
	}
}

func TestLoopSurvivesNonFatalError(t *testing.T) {
	f := mustFixture(t)
	loop := NewLoop(f.engine, 4)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go func() { _ = loop.Run(ctx) }()

	// No page shown yet: the touch fails but the loop keeps running.
	if err := loop.Touch(ctx, 0, 1); err != nil {
		t.Fatalf("Touch() error = %v", err)
	}
	err := loop.Do(ctx, "navigate", func(ctx context.Context, e *Engine) error {
		return e.ChangePage(ctx, pageMain)
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
}
