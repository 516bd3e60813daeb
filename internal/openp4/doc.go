// Package openp4 is the page set for the OpenP4 touch screen firmware.
//
// Every firmware page is listed in the embedded pages.yaml. Pages that
// need Go logic (main, printing, control, the fan page, the keypad and
// the interrupt pages) name a handler; the rest are served by a generic
// page driven by the table's transitions and actions.
//
// Usage:
//
//	engine, err := openp4.NewEngine(display, printer, openp4.Config{})
//	if err != nil {
//		return err
//	}
//	err = openp4.OnNotReady(ctx, engine)
package openp4
