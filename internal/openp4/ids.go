package openp4

import "github.com/muurk/klipmi/internal/hmi"

// Firmware page ids the Go code refers to directly. The full table lives
// in pages.yaml.
const (
	Boot          hmi.PageID = 0
	Main          hmi.PageID = 3
	FileList      hmi.PageID = 4
	Syntony       hmi.PageID = 8
	AutoLevel     hmi.PageID = 14
	ZOffset       hmi.PageID = 16
	Printing      hmi.PageID = 17
	PrintingKb    hmi.PageID = 18
	PrintingZOff  hmi.PageID = 19
	Language      hmi.PageID = 21
	Reset         hmi.PageID = 30
	Update        hmi.PageID = 32
	More          hmi.PageID = 33
	Control       hmi.PageID = 35
	ControlKb     hmi.PageID = 36
	ScreenSleep   hmi.PageID = 43
	ControlSetFan hmi.PageID = 58
	Network       hmi.PageID = 62
	BtnConflict   hmi.PageID = 68
	ToolSelect    hmi.PageID = 95
	Dry           hmi.PageID = 96
	BoxDrying     hmi.PageID = 135
	// Keypad is the heater entry keyboard ("keybdB"). It is appended after
	// the stock firmware pages.
	Keypad hmi.PageID = 138
)

// SleepTrigger is the page id the display reports after its own sleep
// timer switched it to the sleep screen.
const SleepTrigger = ScreenSleep

// NavBar is the bottom bar shared by most pages
var NavBar = hmi.NavBar{
	33: Main,
	34: Control,
	35: FileList,
	36: ToolSelect,
	37: Language,
}

// printingFamily pages never auto-navigate to the printing page
var printingFamily = map[hmi.PageID]bool{
	Printing:     true,
	PrintingKb:   true,
	PrintingZOff: true,
}

// EngineOptions returns the engine options for the OpenP4 page set
func EngineOptions() hmi.Options {
	return hmi.Options{
		MainPage:     Main,
		SleepPage:    ScreenSleep,
		ConflictPage: BtnConflict,
		KeypadPage:   Keypad,
		SleepTrigger: SleepTrigger,
		NavBar:       NavBar,
	}
}
