package openp4

import (
	"strings"
	"testing"

	"github.com/muurk/klipmi/internal/hmi"
	"github.com/muurk/klipmi/internal/version"
)

func countCommands(d *fakeDisplay, cmd string) int {
	n := 0
	for _, c := range d.commands {
		if c == cmd {
			n++
		}
	}
	return n
}

func TestSleepFromEveryPage(t *testing.T) {
	reg, err := NewRegistry(Config{})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	for _, page := range reg.Pages() {
		if ir, ok := page.(hmi.Interrupter); ok && ir.Interrupt() {
			continue
		}
		id := page.Identity()
		t.Run(id.Name, func(t *testing.T) {
			f := newFixture(t, id.ID, Config{})
			f.touchOn(SleepTrigger, 12)
			f.wantPage(ScreenSleep)
			if ret, ok := f.engine.State().ReturnPage(); !ok || ret.ID != id.ID {
				t.Errorf("ReturnPage() = %v, %v, want %v", ret, ok, id)
			}

			f.touch(0)
			f.wantPage(id.ID)
			if _, ok := f.engine.State().ReturnPage(); ok {
				t.Error("ReturnPage() still set after wake")
			}
		})
	}
}

func TestUnrecognizedComponentIsNoop(t *testing.T) {
	for _, start := range []hmi.PageID{Main, Printing, Control, ControlSetFan, Language, hmi.PageID(50)} {
		f := newFixture(t, start, Config{})
		before := len(f.display.commands)
		f.touch(99)
		f.touch(99)
		f.wantPage(start)
		if len(f.display.commands) != before {
			t.Errorf("page %d: display commands = %q, want none", start, f.display.commands[before:])
		}
		f.wantCalls()
	}
}

func TestNumericClamp(t *testing.T) {
	tests := []struct {
		component int
		value     int
		want      string
	}{
		{kbExtruder, 500, "macro SET_HEATER_TEMPERATURE map[HEATER:extruder TARGET:370]"},
		{kbExtruder, 210, "macro SET_HEATER_TEMPERATURE map[HEATER:extruder TARGET:210]"},
		{kbBed, 500, "macro SET_HEATER_TEMPERATURE map[HEATER:heater_bed TARGET:120]"},
		{kbChamber, 500, "macro SET_HEATER_TEMPERATURE map[HEATER:chamber TARGET:60]"},
		{kbChamber, -5, "macro SET_HEATER_TEMPERATURE map[HEATER:chamber TARGET:0]"},
		{kbFan1, 50, "gcode M106 P1 S127"},
		{kbFan2, 100, "gcode M106 P2 S255"},
		{kbFan3, 180, "gcode M106 P3 S255"},
	}

	for _, tt := range tests {
		f := newFixture(t, ControlKb, Config{})
		f.numeric(tt.component, tt.value)
		f.wantCalls(tt.want)
	}
}

func TestConflictBlocksGuardedActions(t *testing.T) {
	components := []int{controlHome, controlYUp, controlYDown, controlXDown, controlXUp, controlZDown, controlZUp, controlRetract, controlExtrude}

	for _, c := range components {
		f := newFixture(t, Control, Config{})
		f.engine.State().SetPrinterState("error")
		f.touch(c)
		f.wantPage(BtnConflict)
		f.wantCalls()

		f.touch(conflictConfirm)
		f.wantPage(Control)
	}
}

func TestControlMoves(t *testing.T) {
	f := newFixture(t, Control, Config{})
	f.touch(controlXUp)
	f.touch(controlDist50)
	f.touch(controlZDown)
	f.touch(controlDist1)
	f.touch(controlYDown)
	f.touch(controlHome)
	f.touch(controlMotorsOff)
	f.touch(controlExtrude)
	f.touch(controlRetract)

	f.wantPage(Control)
	f.wantCalls(
		"gcode G91\nG1 X10 F3000\nG90",
		"gcode G91\nG1 Z-50 F600\nG90",
		"gcode G91\nG1 Y-1 F3000\nG90",
		"gcode G28",
		"gcode M84",
		"gcode M83\nG1 E1 F300",
		"gcode M83\nG1 E-1 F1800",
	)
	if d := f.engine.State().MoveDistance; d != 1 {
		t.Errorf("MoveDistance = %v, want 1", d)
	}
}

func TestExtrudeRefusedWhilePrinting(t *testing.T) {
	f := newFixture(t, Control, Config{})
	f.engine.State().SetPrinterState("ready")
	// Store a printing snapshot without triggering the auto-navigation.
	if err := f.engine.DispatchTelemetry(f.ctx, hmi.Snapshot{objStats: {"state": "printing"}}); err != nil {
		t.Fatalf("DispatchTelemetry() error = %v", err)
	}
	f.touch(controlExtrude)
	f.wantPage(BtnConflict)
	f.wantCalls()
}

func TestExtrudeShowsAnimation(t *testing.T) {
	f := newFixture(t, Control, Config{})
	f.display.fields["gm0.vis"] = "0"
	f.touch(controlExtrude)
	if countCommands(f.display, "vis gm0,1") != 1 {
		t.Errorf("display commands = %q, want vis gm0,1", f.display.commands)
	}
}

func TestPrintFollow(t *testing.T) {
	f := newFixture(t, Main, Config{})
	f.telemetry(snapshot("printing"))
	f.wantPage(Printing)

	f.telemetry(snapshot("printing"))
	f.telemetry(snapshot("printing"))
	if n := countCommands(f.display, "page 17"); n != 1 {
		t.Errorf("printing page shown %d times, want 1", n)
	}

	f.telemetry(snapshot("complete"))
	f.wantPage(Printing)
}

func TestPrintCompleteRule(t *testing.T) {
	target := Main
	f := newFixture(t, Printing, Config{OnCompletePage: &target})
	f.telemetry(snapshot("printing"))
	f.wantPage(Printing)
	f.telemetry(snapshot("complete"))
	f.wantPage(Main)
}

func TestPrintingFamilyStays(t *testing.T) {
	for _, id := range []hmi.PageID{PrintingKb, PrintingZOff} {
		f := newFixture(t, id, Config{})
		f.telemetry(snapshot("printing"))
		f.wantPage(id)
	}
}

func TestHeaterEditFlow(t *testing.T) {
	f := newFixture(t, Main, Config{})
	f.touch(mainExtruderTarget)

	f.wantPage(Keypad)
	edit := f.engine.State().HeaterEdit()
	if edit == nil || edit.HeaterKey != "extruder" {
		t.Fatalf("HeaterEdit() = %+v, want extruder", edit)
	}
	if ret, ok := f.engine.State().ReturnPage(); !ok || ret.ID != Main {
		t.Errorf("ReturnPage() = %v, %v, want main", ret, ok)
	}
	if got := f.display.sets["t100.txt"]; got != "Extruder" {
		t.Errorf("t100.txt = %v, want Extruder", got)
	}
	if got := f.display.sets["inputlenth.val"]; got != 3 {
		t.Errorf("inputlenth.val = %v, want 3", got)
	}

	f.display.fields["input.txt"] = "205"
	f.touch(keypadConfirm)

	f.wantCalls("macro SET_HEATER_TEMPERATURE map[HEATER:extruder TARGET:205]")
	f.wantPage(Main)
	if f.engine.State().HeaterEdit() != nil {
		t.Error("HeaterEdit() still set after confirm")
	}
	if _, ok := f.engine.State().ReturnPage(); ok {
		t.Error("ReturnPage() still set after confirm")
	}
}

func TestHeaterEditClampAndCancel(t *testing.T) {
	tests := []struct {
		name      string
		component int
		input     string
		confirm   int
		want      []string
	}{
		{"bed clamped", mainBedTarget, "500", keypadConfirm, []string{"macro SET_HEATER_TEMPERATURE map[HEATER:heater_bed TARGET:120]"}},
		{"chamber clamped", mainChamberTarget, "99", keypadConfirm, []string{"macro SET_HEATER_TEMPERATURE map[HEATER:chamber TARGET:60]"}},
		{"back", mainBedTarget, "80", keypadBack, nil},
		{"garbage", mainExtruderTarget, "abc", keypadConfirm, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Main, Config{})
			f.touch(tt.component)
			f.display.fields["input.txt"] = tt.input
			f.touch(tt.confirm)
			f.wantCalls(tt.want...)
			f.wantPage(Main)
			if f.engine.State().HeaterEdit() != nil {
				t.Error("HeaterEdit() still set")
			}
		})
	}
}

func TestKeypadNumericFallback(t *testing.T) {
	f := newFixture(t, Main, Config{})
	f.touch(mainBedTarget)
	f.numeric(0, 65)
	f.touch(keypadConfirm)
	f.wantCalls("macro SET_HEATER_TEMPERATURE map[HEATER:heater_bed TARGET:65]")
}

func TestKeypadTextOverridesNumericInput(t *testing.T) {
	f := newFixture(t, Main, Config{})
	f.touch(mainBedTarget)
	f.numeric(0, 65)
	f.display.fields["input.txt"] = "6x"
	f.touch(keypadConfirm)

	f.wantCalls()
	f.wantPage(Main)
	if f.engine.State().HeaterEdit() != nil {
		t.Error("HeaterEdit() still set after rejected input")
	}
}

func TestKeypadShownByName(t *testing.T) {
	f := newFixture(t, Main, Config{})
	f.display.commands = nil
	f.touch(mainExtruderTarget)

	want := []string{"page keybdB"}
	if strings.Join(f.display.commands, "|") != strings.Join(want, "|") {
		t.Errorf("display commands = %q, want %q", f.display.commands, want)
	}

	f.touch(keypadBack)
	if n := countCommands(f.display, "page 3"); n != 1 {
		t.Errorf("page 3 sent %d times, want 1", n)
	}
}

func TestKeypadSurvivesSleep(t *testing.T) {
	f := newFixture(t, Main, Config{})
	f.touch(mainExtruderTarget)
	f.touchOn(SleepTrigger, 0)
	f.wantPage(ScreenSleep)

	f.touch(0)
	f.wantPage(Keypad)
	if f.engine.State().HeaterEdit() == nil {
		t.Fatal("HeaterEdit() lost across sleep")
	}

	f.display.fields["input.txt"] = "200"
	f.touch(keypadConfirm)
	f.wantPage(Main)
	f.wantCalls("macro SET_HEATER_TEMPERATURE map[HEATER:extruder TARGET:200]")
}

func TestNavBarRoundTrip(t *testing.T) {
	for component, target := range NavBar {
		f := newFixture(t, Main, Config{})
		f.touch(component)
		f.wantPage(target)
		f.touch(33)
		f.wantPage(Main)
	}
}

func TestMainButtons(t *testing.T) {
	f := newFixture(t, Main, Config{})
	f.touch(mainCaselight)
	f.touch(mainFirmwareRestart)
	f.wantCalls("toggle caselight", "firmware_restart")

	f.touch(mainNetwork)
	f.wantPage(Network)
	if ret, ok := f.engine.State().ReturnPage(); ok {
		t.Errorf("ReturnPage() = %v after opening network, want none", ret)
	}
}

func TestMainTelemetry(t *testing.T) {
	f := newFixture(t, Main, Config{})
	snap := snapshot("standby")
	snap[objExtruder]["target"] = 200.0
	snap[objCaselight] = map[string]any{"value": 1.0}
	f.telemetry(snap)

	want := map[string]any{
		"n0.val":   24,
		"n1.val":   22,
		"n2.val":   21,
		"b4.pco":   colorHighlight,
		"b5.pco":   colorRegular,
		"b0.picc":  12,
		"b0.picc2": 10,
	}
	for field, w := range want {
		if got := f.display.sets[field]; got != w {
			t.Errorf("%s = %v, want %v", field, got, w)
		}
	}
}

func TestMainSkipsIncompleteSnapshot(t *testing.T) {
	f := newFixture(t, Main, Config{})
	f.telemetry(hmi.Snapshot{objStats: {"state": "standby"}})
	if _, ok := f.display.sets["n0.val"]; ok {
		t.Error("incomplete snapshot was rendered")
	}
}

func TestPrintingTelemetry(t *testing.T) {
	tests := []struct {
		name     string
		progress float64
		elapsed  float64
		want     map[string]any
	}{
		{"not started", 0, 0, map[string]any{"p0.val": 0, "t2.txt": noClock, "t3.txt": noClock}},
		{"no progress yet", 0, 600, map[string]any{"t2.txt": "00:10", "t3.txt": noClock}},
		{"half way", 0.5, 3600, map[string]any{"p0.val": 50, "t7.txt": "50", "t2.txt": "01:00", "t3.txt": "02:00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Printing, Config{})
			snap := snapshot("printing")
			snap[objStats]["print_duration"] = tt.elapsed
			snap[objDisplay] = map[string]any{"progress": tt.progress}
			snap[objExtruder]["target"] = 250.0
			f.telemetry(snap)

			for field, w := range tt.want {
				if got := f.display.sets[field]; got != w {
					t.Errorf("%s = %v, want %v", field, got, w)
				}
			}
			if got := f.display.sets["b0.picc"]; got != printingHighlight {
				t.Errorf("b0.picc = %v, want %v", got, printingHighlight)
			}
			if got := f.display.sets["t0.txt"]; got != "250" {
				t.Errorf("t0.txt = %v, want 250", got)
			}
		})
	}
}

func TestPrintingButtons(t *testing.T) {
	f := newFixture(t, Printing, Config{})
	f.touch(printingEmergencyStop)
	f.touch(printingPause)
	f.touch(printingCaselight)
	f.wantCalls("estop", "pause", "toggle caselight")
	f.touch(printingControl)
	f.wantPage(Control)
}

func TestSetFanToggles(t *testing.T) {
	f := newFixture(t, ControlSetFan, Config{})
	snap := snapshot("standby")
	snap[objCoolingFan] = map[string]any{"speed": 0.5}
	f.telemetry(snap)

	f.touch(setFanCooling)
	f.touch(setFanAuxiliary)
	f.touch(setFanChamber)
	f.touch(setFanNavIgnore)
	f.wantPage(ControlSetFan)
	f.wantCalls("gcode M106 P0 S0", "gcode M106 P2 S255", "gcode M106 P3 S255")

	if got := f.display.sets["n6.val"]; got != 50 {
		t.Errorf("n6.val = %v, want 50", got)
	}
	if got := f.display.sets["b6.picc"]; got != 134 {
		t.Errorf("b6.picc = %v, want 134", got)
	}
	if got := f.display.sets["n7.val"]; got != 0 {
		t.Errorf("n7.val = %v, want 0", got)
	}

	f.touch(4)
	f.wantPage(ControlKb)
}

func TestBootShowsVersion(t *testing.T) {
	f := newFixture(t, Boot, Config{})
	if got := f.display.sets["version.val"]; got != version.HMICode() {
		t.Errorf("version.val = %v, want %v", got, version.HMICode())
	}
	f.touch(1)
	f.wantPage(Boot)
}

func TestLifecycle(t *testing.T) {
	f := newFixture(t, Boot, Config{})

	if err := OnReady(f.ctx, f.engine); err != nil {
		t.Fatalf("OnReady() error = %v", err)
	}
	f.wantPage(Main)

	if err := OnKlipperError(f.ctx, f.engine); err != nil {
		t.Fatalf("OnKlipperError() error = %v", err)
	}
	f.wantPage(Reset)
	if got := f.engine.State().PrinterState(); got != "error" {
		t.Errorf("PrinterState() = %q, want error", got)
	}

	if err := OnNotReady(f.ctx, f.engine); err != nil {
		t.Fatalf("OnNotReady() error = %v", err)
	}
	f.wantPage(Boot)
}

func TestObjectsCoverRenderedObjects(t *testing.T) {
	objects := Objects()
	for _, name := range append(hmi.CoreObjects, objChamber, objCaselight, objDisplay, objCoolingFan, objAuxFan, objChamberFan) {
		if _, ok := objects[name]; !ok {
			t.Errorf("Objects() missing %q", name)
		}
	}
	for name := range objects {
		if strings.TrimSpace(name) != name {
			t.Errorf("object name %q has stray whitespace", name)
		}
	}
}

func TestIdleSnapshotRenders(t *testing.T) {
	snap := IdleSnapshot()
	if err := snap.CheckCore(); err != nil {
		t.Fatalf("IdleSnapshot() is incomplete: %v", err)
	}
	objects := Objects()
	for name := range snap {
		if _, ok := objects[name]; !ok {
			t.Errorf("IdleSnapshot() has %q, which is never subscribed", name)
		}
	}

	f := newFixture(t, Main, Config{})
	f.telemetry(snap)
	f.wantPage(Main)
}
