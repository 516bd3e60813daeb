package hmi

import (
	"context"

	"github.com/muurk/klipmi/internal/logging"
	"go.uber.org/zap"
)

// BeginHeaterEdit stores edit, saves the current page and opens the keypad
func BeginHeaterEdit(ctx context.Context, e *Engine, edit *HeaterEdit) error {
	cur, _ := e.state.Current()
	e.state.SetHeaterEdit(edit)
	e.state.SetReturnPage(cur)
	return e.ChangePage(ctx, e.opts.KeypadPage)
}

// ConfirmHeaterEdit applies value to the heater being edited, then returns
// to the saved page. The edit and the return page are cleared either way.
func ConfirmHeaterEdit(ctx context.Context, e *Engine, value int) error {
	edit := e.state.HeaterEdit()
	e.state.ClearHeaterEdit()

	if edit == nil {
		logging.Warn("Keypad confirmed with no heater selected", zap.Int("value", value))
	} else if edit.Apply != nil {
		if err := edit.Apply(ctx, value); err != nil {
			logging.Error("Failed to apply heater target",
				zap.String("heater", edit.HeaterKey),
				zap.Int("value", value),
				zap.Error(err),
			)
		}
	}
	return Resume(ctx, e)
}

// CancelHeaterEdit returns to the saved page without applying anything
func CancelHeaterEdit(ctx context.Context, e *Engine) error {
	e.state.ClearHeaterEdit()
	return Resume(ctx, e)
}
