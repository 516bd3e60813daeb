// Package replay runs scripted display sessions against the page engine.
//
// A script is one command per line, split with shell quoting rules:
//
//	# heat the bed from the main page
//	page main
//	touch 5
//	expect page keybdB
//	input input.txt 60
//	touch 31
//	expect page main
//	telemetry "heater_generic chamber.target=40" print_stats.state=printing
//	expect page printing
//	sleep
//
// touch takes an optional reported page id before the component. Printer
// commands go to a Recorder, so `klipmi replay` can print what a session
// would have sent to Klipper.
package replay
