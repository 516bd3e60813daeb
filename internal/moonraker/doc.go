// Package moonraker is a client for Moonraker's websocket JSON-RPC API.
//
// The client subscribes to a set of printer objects, merges the
// notify_status_update diffs into a full snapshot and hands a copy of it
// to OnStatus after every change. Klipper's ready, shutdown and
// disconnected notifications map to OnReady, OnKlipperError and
// OnNotReady. Printer commands are sent without waiting for Klipper to
// finish them; a failure answer is logged.
//
// Usage:
//
//	client := moonraker.NewClient(moonraker.Options{
//		Host:    "printer.local",
//		Objects: openp4.Objects(),
//	}, moonraker.Handlers{OnStatus: feed})
//	go client.Run(ctx)
package moonraker
