package hmi

import (
	"context"
	"fmt"
)

type fakeDisplay struct {
	fields   map[string]string
	sets     map[string]any
	commands []string
	failCmd  error
}

func newFakeDisplay() *fakeDisplay {
	return &fakeDisplay{fields: map[string]string{}, sets: map[string]any{}}
}

func (d *fakeDisplay) Get(_ context.Context, field string) (string, error) {
	v, ok := d.fields[field]
	if !ok {
		return "", NewFieldUnavailableError(field, nil)
	}
	return v, nil
}

func (d *fakeDisplay) Set(_ context.Context, field string, value any) error {
	d.sets[field] = value
	return nil
}

func (d *fakeDisplay) Command(_ context.Context, raw string) error {
	if d.failCmd != nil {
		return d.failCmd
	}
	d.commands = append(d.commands, raw)
	return nil
}

type fakePrinter struct {
	calls []string
}

func (p *fakePrinter) record(format string, args ...any) error {
	p.calls = append(p.calls, fmt.Sprintf(format, args...))
	return nil
}

func (p *fakePrinter) RunGcode(_ context.Context, script string) error {
	return p.record("gcode %s", script)
}

func (p *fakePrinter) RunMacro(_ context.Context, name string, params map[string]any) error {
	return p.record("macro %s %v", name, params)
}

func (p *fakePrinter) TogglePin(_ context.Context, pin string) error {
	return p.record("toggle %s", pin)
}

func (p *fakePrinter) EmergencyStop(context.Context) error   { return p.record("estop") }
func (p *fakePrinter) PausePrint(context.Context) error      { return p.record("pause") }
func (p *fakePrinter) Restart(context.Context) error         { return p.record("restart") }
func (p *fakePrinter) FirmwareRestart(context.Context) error { return p.record("firmware_restart") }

// testPage is a configurable page. Touches on the nav bar navigate; any
// other component is recorded.
type testPage struct {
	id        PageIdentity
	interrupt bool
	targets   []PageID

	entered   int
	events    []Event
	snapshots int
	// enteredBeforeEvent records, for each event, how many times OnEnter
	// had run when the event arrived.
	enteredBeforeEvent []int

	onEvent func(ctx context.Context, e *Engine, ev Event) error
}

func (p *testPage) Identity() PageIdentity { return p.id }
func (p *testPage) Interrupt() bool        { return p.interrupt }
func (p *testPage) Targets() []PageID      { return p.targets }

func (p *testPage) OnEnter(context.Context, *Engine) error {
	p.entered++
	return nil
}

func (p *testPage) OnEvent(ctx context.Context, e *Engine, ev Event) error {
	p.events = append(p.events, ev)
	p.enteredBeforeEvent = append(p.enteredBeforeEvent, p.entered)
	if p.onEvent != nil {
		return p.onEvent(ctx, e, ev)
	}
	if ev.Kind != EventTouch {
		return nil
	}
	if ok, err := InterceptSleep(ctx, e, ev.PageID); ok || err != nil {
		return err
	}
	_, err := HandleNavBar(ctx, e, ev.ComponentID)
	return err
}

func (p *testPage) OnTelemetry(context.Context, *Engine, Snapshot) error {
	p.snapshots++
	return nil
}

const (
	pageBoot     PageID = 0
	pageMain     PageID = 3
	pageFiles    PageID = 4
	pageLanguage PageID = 21
	pageControl  PageID = 35
	pageSleep    PageID = 43
	pageConflict PageID = 68
	pageTools    PageID = 95
	pageKeypad   PageID = 138
)

type fixture struct {
	engine  *Engine
	display *fakeDisplay
	printer *fakePrinter
	pages   map[PageID]*testPage
}

func testOptions() Options {
	return Options{
		MainPage:     pageMain,
		SleepPage:    pageSleep,
		ConflictPage: pageConflict,
		KeypadPage:   pageKeypad,
		SleepTrigger: pageSleep,
		NavBar: NavBar{
			33: pageMain,
			34: pageControl,
			35: pageFiles,
			36: pageTools,
			37: pageLanguage,
		},
	}
}

func newFixture() (*fixture, error) {
	f := &fixture{
		display: newFakeDisplay(),
		printer: &fakePrinter{},
		pages:   map[PageID]*testPage{},
	}

	defs := []struct {
		id        PageID
		name      string
		interrupt bool
		byName    bool
	}{
		{pageBoot, "logo", false, false},
		{pageMain, "main", false, false},
		{pageFiles, "file_list", false, false},
		{pageLanguage, "language", false, false},
		{pageControl, "control", false, false},
		{pageSleep, "screen_sleep", true, false},
		{pageConflict, "btn_conflict", true, false},
		{pageTools, "tool_select", false, false},
		{pageKeypad, "keybdB", true, true},
	}

	reg := NewRegistry()
	for _, d := range defs {
		p := &testPage{id: PageIdentity{ID: d.id, Name: d.name, ByName: d.byName}, interrupt: d.interrupt}
		f.pages[d.id] = p
		if err := reg.Register(p); err != nil {
			return nil, err
		}
	}

	// Interrupt pages resume on any touch that is not the sleep trigger.
	resume := func(ctx context.Context, e *Engine, ev Event) error {
		if ev.Kind != EventTouch {
			return nil
		}
		cur, _ := e.Current()
		if cur.ID != pageSleep {
			if ok, err := InterceptSleep(ctx, e, ev.PageID); ok || err != nil {
				return err
			}
		}
		return Resume(ctx, e)
	}
	f.pages[pageSleep].onEvent = resume
	f.pages[pageConflict].onEvent = resume

	engine, err := NewEngine(reg, f.display, f.printer, testOptions())
	if err != nil {
		return nil, err
	}
	f.engine = engine
	return f, nil
}
