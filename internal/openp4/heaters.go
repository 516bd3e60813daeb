package openp4

import (
	"context"

	"github.com/muurk/klipmi/internal/hmi"
)

// Heater describes a heater that can be edited from the touch screen
type Heater struct {
	Key       string // key used by the pages ("extruder", "bed", "chamber")
	Name      string // Klipper heater name for SET_HEATER_TEMPERATURE
	Title     string // keypad title
	MaxDigits int    // keypad input length
	MaxTemp   int    // target ceiling
}

// Heaters indexed by key
var Heaters = map[string]Heater{
	"extruder": {Key: "extruder", Name: "extruder", Title: "Extruder", MaxDigits: 3, MaxTemp: 370},
	"bed":      {Key: "bed", Name: "heater_bed", Title: "Bed", MaxDigits: 2, MaxTemp: 120},
	"chamber":  {Key: "chamber", Name: "chamber", Title: "Chamber", MaxDigits: 2, MaxTemp: 60},
}

// Edit returns the keypad edit context for the heater. The target is
// clamped to MaxTemp before the macro runs.
func (h Heater) Edit(e *hmi.Engine) *hmi.HeaterEdit {
	return &hmi.HeaterEdit{
		HeaterKey: h.Key,
		Title:     h.Title,
		MaxDigits: h.MaxDigits,
		Apply: func(ctx context.Context, value int) error {
			h.SetTarget(ctx, e, value)
			return nil
		},
	}
}

// SetTarget sets the heater target, clamped to [0, MaxTemp]
func (h Heater) SetTarget(ctx context.Context, e *hmi.Engine, value int) {
	e.Printer().RunMacro(ctx, "SET_HEATER_TEMPERATURE", map[string]any{
		"HEATER": h.Name,
		"TARGET": hmi.Clamp(value, h.MaxTemp),
	})
}

// editHeater opens the keypad for the heater with the given key
func editHeater(ctx context.Context, e *hmi.Engine, key string) error {
	return hmi.BeginHeaterEdit(ctx, e, Heaters[key].Edit(e))
}
