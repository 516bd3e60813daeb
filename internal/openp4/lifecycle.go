package openp4

import (
	"context"

	"github.com/muurk/klipmi/internal/hmi"
)

// Objects returns the printer objects and fields the pages render
func Objects() map[string][]string {
	return map[string][]string{
		objMotionReport: {"live_position", "live_velocity"},
		objGcodeMove:    {"extrude_factor", "speed_factor", "homing_origin"},
		objExtruder:     {"temperature", "target"},
		objBed:          {"temperature", "target"},
		objPartFan:      {"speed"},
		objChamber:      {"temperature", "target"},
		objStats: {
			"filename", "total_duration", "print_duration",
			"filename_used", "state", "message", "info",
		},
		objDisplay:    {"progress"},
		objCaselight:  {"value"},
		objWebhooks:   {"state", "state_message"},
		objCoolingFan: {"speed"},
		objAuxFan:     {"speed"},
		objExhaustFan: {"speed"},
		objHotendFan:  {"speed"},
		objChamberFan: {"speed"},
	}
}

// OnReady is called when Klipper reports ready
func OnReady(ctx context.Context, e *hmi.Engine) error {
	e.State().SetPrinterState("ready")
	return e.ChangePage(ctx, Main)
}

// OnNotReady is called while Klipper is starting or disconnected
func OnNotReady(ctx context.Context, e *hmi.Engine) error {
	e.State().SetPrinterState("startup")
	return e.ChangePage(ctx, Boot)
}

// OnKlipperError is called when Klipper shuts down with an error
func OnKlipperError(ctx context.Context, e *hmi.Engine) error {
	e.State().SetPrinterState("error")
	return e.ChangePage(ctx, Reset)
}

// IdleSnapshot is the status of a ready printer at room temperature with
// nothing printing. The simulator starts from it when no printer is
// connected.
func IdleSnapshot() hmi.Snapshot {
	return hmi.Snapshot{
		objExtruder:   {"temperature": 24.0, "target": 0.0},
		objBed:        {"temperature": 23.0, "target": 0.0},
		objChamber:    {"temperature": 22.0, "target": 0.0},
		objStats:      {"state": "standby", "print_duration": 0.0, "total_duration": 0.0, "filename": ""},
		objDisplay:    {"progress": 0.0},
		objCaselight:  {"value": 0.0},
		objWebhooks:   {"state": "ready", "state_message": "Printer is ready"},
		objPartFan:    {"speed": 0.0},
		objCoolingFan: {"speed": 0.0},
		objAuxFan:     {"speed": 0.0},
		objExhaustFan: {"speed": 0.0},
		objHotendFan:  {"speed": 0.0},
		objChamberFan: {"speed": 0.0},
	}
}
