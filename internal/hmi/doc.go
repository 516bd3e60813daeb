// Package hmi implements the page navigation engine of the touchscreen UI.
//
// The engine tracks the current page, forwards display events and printer
// telemetry to it, and performs page switches. Pages implement a flat
// interface (Identity, OnEnter, OnEvent, OnTelemetry) and share logic
// through free functions instead of a common base type.
//
// # Pages and the Registry
//
// Every page is registered once at startup. Ids match the screen
// firmware's page table and must be unique. Registry.Validate resolves
// every target a page declares through the Linker interface, so a typo in
// a transition table is a startup failure rather than a runtime crash.
//
// # Interrupt Pages
//
// Sleep, conflict and keypad pages are entered from any page and resume
// it afterwards. The page to resume is saved in SharedState before the
// switch and taken (read and cleared) on resume:
//
//	e.State().SetReturnPage(current)
//	e.ChangePage(ctx, opts.SleepPage)
//	...
//	hmi.Resume(ctx, e) // back to current, return page cleared
//
// Interrupts nest: sleeping on the keypad resumes the keypad, which still
// returns to the page that opened it. Entering a regular page discards
// whatever was saved.
//
// # Shared Helpers
//
//   - InterceptSleep: the display's sleep trigger always wins
//   - HandleNavBar: bottom bar section buttons
//   - CheckConflict: refuse printer actions while Klipper is down or busy
//   - BeginHeaterEdit, ConfirmHeaterEdit, CancelHeaterEdit: keypad flow
//   - ProbeVisible: display field probe that never fails
//
// # Concurrency
//
// Engine is single-threaded. Loop queues touch, numeric, telemetry and
// navigation requests from any goroutine and runs them one at a time.
// UnknownPage errors stop the loop; every other handler error is logged.
package hmi
