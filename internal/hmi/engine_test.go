package hmi

import (
	"context"
	"errors"
	"testing"
)

func mustFixture(t *testing.T) *fixture {
	t.Helper()
	f, err := newFixture()
	if err != nil {
		t.Fatalf("newFixture() error = %v", err)
	}
	return f
}

func mustChange(t *testing.T, f *fixture, id PageID) {
	t.Helper()
	if err := f.engine.ChangePage(context.Background(), id); err != nil {
		t.Fatalf("ChangePage(%d) error = %v", id, err)
	}
}

func currentID(t *testing.T, f *fixture) PageID {
	t.Helper()
	cur, ok := f.engine.Current()
	if !ok {
		t.Fatal("no current page")
	}
	return cur.ID
}

func TestChangePageEntersOnceBeforeEvents(t *testing.T) {
	ids := []PageID{pageBoot, pageMain, pageFiles, pageLanguage, pageControl, pageTools}
	for _, id := range ids {
		f := mustFixture(t)
		mustChange(t, f, id)

		if got := currentID(t, f); got != id {
			t.Errorf("current = %d, want %d", got, id)
		}
		page := f.pages[id]
		if page.entered != 1 {
			t.Errorf("page %d entered %d times, want 1", id, page.entered)
		}

		if err := f.engine.DispatchTouch(context.Background(), id, 99); err != nil {
			t.Fatalf("DispatchTouch() error = %v", err)
		}
		if len(page.enteredBeforeEvent) != 1 || page.enteredBeforeEvent[0] != 1 {
			t.Errorf("event saw enter count %v, want [1]", page.enteredBeforeEvent)
		}
	}
}

func TestChangePageShowsPageOnDisplay(t *testing.T) {
	f := mustFixture(t)
	mustChange(t, f, pageMain)

	if len(f.display.commands) != 1 || f.display.commands[0] != "page 3" {
		t.Errorf("commands = %v, want [page 3]", f.display.commands)
	}
}

func TestChangePageByName(t *testing.T) {
	f := mustFixture(t)
	mustChange(t, f, pageMain)
	mustChange(t, f, pageKeypad)

	want := []string{"page 3", "page keybdB"}
	if len(f.display.commands) != 2 || f.display.commands[1] != want[1] {
		t.Errorf("commands = %v, want %v", f.display.commands, want)
	}
	if cur, _ := f.engine.Current(); cur.ID != pageKeypad {
		t.Errorf("Current() = %v, want keypad", cur)
	}
}

func TestPageInstruction(t *testing.T) {
	tests := []struct {
		id   PageIdentity
		want string
	}{
		{PageIdentity{ID: 35, Name: "control"}, "page 35"},
		{PageIdentity{ID: 0, Name: "logo"}, "page 0"},
		{PageIdentity{ID: 138, Name: "keybdB", ByName: true}, "page keybdB"},
	}
	for _, tt := range tests {
		if got := tt.id.Instruction(); got != tt.want {
			t.Errorf("Instruction(%v) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestChangePageUnknownTarget(t *testing.T) {
	f := mustFixture(t)
	mustChange(t, f, pageMain)

	err := f.engine.ChangePage(context.Background(), 200)
	if !IsUnknownPage(err) {
		t.Fatalf("ChangePage(200) error = %v, want UnknownPage", err)
	}
	if !IsFatal(err) {
		t.Error("UnknownPage error should be fatal")
	}
	if got := currentID(t, f); got != pageMain {
		t.Errorf("current = %d, want %d", got, pageMain)
	}
}

func TestChangePageDisplayFailureKeepsPage(t *testing.T) {
	f := mustFixture(t)
	mustChange(t, f, pageMain)

	f.display.failCmd = errors.New("serial closed")
	if err := f.engine.ChangePage(context.Background(), pageControl); err == nil {
		t.Fatal("ChangePage() error = nil, want display failure")
	}
	if got := currentID(t, f); got != pageMain {
		t.Errorf("current = %d, want %d", got, pageMain)
	}
	if f.pages[pageControl].entered != 0 {
		t.Error("control page should not have been entered")
	}
}

func TestDispatchBeforeFirstPage(t *testing.T) {
	f := mustFixture(t)
	err := f.engine.DispatchTouch(context.Background(), 0, 1)

	var navErr *NavError
	if !errors.As(err, &navErr) || navErr.Type != ErrTypeNoCurrentPage {
		t.Fatalf("DispatchTouch() error = %v, want NoCurrentPage", err)
	}
}

func TestUnrecognizedComponentIsNoop(t *testing.T) {
	f := mustFixture(t)
	mustChange(t, f, pageMain)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := f.engine.DispatchTouch(ctx, pageMain, 77); err != nil {
			t.Fatalf("DispatchTouch() error = %v", err)
		}
	}

	if got := currentID(t, f); got != pageMain {
		t.Errorf("current = %d, want %d", got, pageMain)
	}
	if f.pages[pageMain].entered != 1 {
		t.Errorf("main entered %d times, want 1", f.pages[pageMain].entered)
	}
	if f.engine.State().ReturnDepth() != 0 {
		t.Errorf("return depth = %d, want 0", f.engine.State().ReturnDepth())
	}
	if len(f.display.commands) != 1 {
		t.Errorf("display commands = %v, want only the initial page switch", f.display.commands)
	}
}

func TestNavBarRoundTrip(t *testing.T) {
	for component, target := range testOptions().NavBar {
		f := mustFixture(t)
		mustChange(t, f, pageMain)
		ctx := context.Background()

		if err := f.engine.DispatchTouch(ctx, pageMain, component); err != nil {
			t.Fatalf("DispatchTouch(%d) error = %v", component, err)
		}
		if got := currentID(t, f); got != target {
			t.Errorf("after %d current = %d, want %d", component, got, target)
		}
		if err := f.engine.DispatchTouch(ctx, target, 33); err != nil {
			t.Fatalf("DispatchTouch(33) error = %v", err)
		}
		if got := currentID(t, f); got != pageMain {
			t.Errorf("after return current = %d, want %d", got, pageMain)
		}
	}
}

func TestNumericInputReachesCurrentPage(t *testing.T) {
	f := mustFixture(t)
	mustChange(t, f, pageControl)

	if err := f.engine.DispatchNumericInput(context.Background(), 1, 80); err != nil {
		t.Fatalf("DispatchNumericInput() error = %v", err)
	}
	events := f.pages[pageControl].events
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	ev := events[0]
	if ev.Kind != EventNumericInput || ev.ComponentID != 1 || ev.Value != 80 {
		t.Errorf("event = %+v, want numeric component 1 value 80", ev)
	}
}

func TestDispatchTelemetry(t *testing.T) {
	complete := Snapshot{
		"print_stats": {"state": "standby"},
		"extruder":    {"temperature": 21.5, "target": 0.0},
		"heater_bed":  {"temperature": 20.0, "target": 0.0},
		"webhooks":    {"state": "ready"},
	}
	partial := Snapshot{
		"extruder": {"temperature": 21.5, "target": 0.0},
		"webhooks": {"state": "error"},
	}

	f := mustFixture(t)
	mustChange(t, f, pageMain)
	ctx := context.Background()

	if err := f.engine.DispatchTelemetry(ctx, complete); err != nil {
		t.Fatalf("DispatchTelemetry() error = %v", err)
	}
	if f.pages[pageMain].snapshots != 1 {
		t.Errorf("snapshots = %d, want 1", f.pages[pageMain].snapshots)
	}
	if got := f.engine.State().PrinterState(); got != "ready" {
		t.Errorf("printer state = %q, want ready", got)
	}

	if err := f.engine.DispatchTelemetry(ctx, partial); err != nil {
		t.Fatalf("DispatchTelemetry(partial) error = %v", err)
	}
	if f.pages[pageMain].snapshots != 1 {
		t.Errorf("partial snapshot was rendered")
	}
	if _, ok := f.engine.State().Telemetry()["heater_bed"]; ok {
		t.Error("telemetry should be replaced wholesale, not merged")
	}
	if got := f.engine.State().PrinterState(); got != "error" {
		t.Errorf("printer state = %q, want error", got)
	}
}

func TestPageChangeObserver(t *testing.T) {
	f := mustFixture(t)
	var changes []PageChange
	f.engine.OnPageChange(func(c PageChange) { changes = append(changes, c) })

	mustChange(t, f, pageMain)
	mustChange(t, f, pageControl)

	if len(changes) != 2 {
		t.Fatalf("got %d changes, want 2", len(changes))
	}
	if changes[1].From.ID != pageMain || changes[1].To.ID != pageControl {
		t.Errorf("change = %+v, want main -> control", changes[1])
	}
}

func TestNewEngineRejectsMissingPages(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(&testPage{id: PageIdentity{ID: pageMain, Name: "main"}})

	_, err := NewEngine(reg, newFakeDisplay(), &fakePrinter{}, testOptions())
	if err == nil {
		t.Fatal("NewEngine() error = nil, want validation failure")
	}
	if !IsUnknownPage(err) {
		t.Errorf("NewEngine() error = %v, want UnknownPage in chain", err)
	}
}
