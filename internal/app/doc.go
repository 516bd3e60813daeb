// Package app wires the running touchscreen host together.
//
// An App owns one display link (normally the serial port), a Moonraker
// client and the OpenP4 page engine, and runs them under one errgroup:
//
//	display frames ──► Transport.Events ──► hmi.Loop ◄── Moonraker handlers
//	                                          │
//	                                      hmi.Engine ──► Transport / Client
//
// Every engine call is queued on the loop, so page handlers never run
// concurrently. When the optional debug API is enabled its requests are
// queued the same way.
package app
