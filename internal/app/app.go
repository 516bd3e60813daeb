package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/muurk/klipmi/internal/config"
	"github.com/muurk/klipmi/internal/hmi"
	"github.com/muurk/klipmi/internal/logging"
	"github.com/muurk/klipmi/internal/moonraker"
	"github.com/muurk/klipmi/internal/nextion"
	"github.com/muurk/klipmi/internal/openp4"
	"github.com/muurk/klipmi/internal/server"
)

// ErrDisplayClosed is returned by Run when the display link reaches EOF
var ErrDisplayClosed = errors.New("display link closed")

// UI is the page set chosen by the ui section of the config
type UI struct {
	Config  openp4.Config
	Initial hmi.PageID
}

// ResolveUI turns the page references in cfg into page ids of table.
// A nil table means the embedded one.
func ResolveUI(cfg config.UIConfig, table *openp4.PageTable) (UI, error) {
	var err error
	if table == nil {
		if table, err = openp4.DefaultPageTable(); err != nil {
			return UI{}, err
		}
	}
	ui := UI{Config: openp4.Config{Table: table}}

	if cfg.InitialPage != "" {
		if ui.Initial, err = table.Resolve(cfg.InitialPage); err != nil {
			return UI{}, fmt.Errorf("ui.initial_page: %w", err)
		}
	}
	if cfg.OnCompletePage != "" {
		id, err := table.Resolve(cfg.OnCompletePage)
		if err != nil {
			return UI{}, fmt.Errorf("ui.on_complete_page: %w", err)
		}
		ui.Config.OnCompletePage = &id
	}
	return ui, nil
}

// App connects a display link and a Moonraker printer through the page
// engine. Every engine call goes through one hmi.Loop.
type App struct {
	cfg       *config.Config
	ui        UI
	link      io.ReadWriter
	transport *nextion.Transport
	client    *moonraker.Client
	engine    *hmi.Engine
	loop      *hmi.Loop
	api       *server.Server

	// ctx is the Run context, for callbacks that arrive without one
	ctx context.Context
}

// New builds the app over an open display link. The link is closed when
// Run returns if it implements io.Closer.
func New(cfg *config.Config, link io.ReadWriter) (*App, error) {
	ui, err := ResolveUI(cfg.UI, nil)
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, ui: ui, link: link}
	a.transport = nextion.NewTransport(link, nextion.WithTimeout(cfg.Display.Timeout))
	a.transport.OnStatus = a.onDisplayStatus

	a.client = moonraker.NewClient(moonraker.Options{
		Host:              cfg.Moonraker.Host,
		Port:              cfg.Moonraker.Port,
		APIKey:            cfg.Moonraker.APIKey,
		ReconnectInterval: cfg.Moonraker.ReconnectInterval,
		Objects:           openp4.Objects(),
	}, moonraker.Handlers{
		OnStatus:       a.onStatus,
		OnReady:        a.lifecycle("klipper ready", openp4.OnReady),
		OnNotReady:     a.lifecycle("klipper not ready", openp4.OnNotReady),
		OnKlipperError: a.lifecycle("klipper error", openp4.OnKlipperError),
	})

	a.engine, err = openp4.NewEngine(a.transport, a.client, ui.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to build pages: %w", err)
	}
	a.loop = hmi.NewLoop(a.engine, 0)

	if cfg.API.Listen != "" {
		a.api = server.New(a.loop, a.engine)
	}
	return a, nil
}

// Engine returns the page engine
func (a *App) Engine() *hmi.Engine { return a.engine }

// Loop returns the loop all engine calls go through
func (a *App) Loop() *hmi.Loop { return a.loop }

// Run shows the initial page and serves until ctx is cancelled or a part
// fails. Cancellation is not an error.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	a.ctx = gctx

	g.Go(func() error { return a.loop.Run(gctx) })

	g.Go(func() error {
		err := a.transport.Run(gctx)
		if gctx.Err() != nil {
			return gctx.Err()
		}
		if err == nil {
			err = ErrDisplayClosed
		}
		return err
	})

	g.Go(func() error { return a.pump(gctx) })

	g.Go(func() error {
		// A blocked serial read only returns once the port is closed
		<-gctx.Done()
		if c, ok := a.link.(io.Closer); ok {
			if err := c.Close(); err != nil {
				logging.Debug("Closing display link", zap.Error(err))
			}
		}
		return nil
	})

	g.Go(func() error {
		if err := a.loop.Navigate(gctx, a.ui.Initial); err != nil {
			return err
		}
		return a.client.Run(gctx)
	})

	if a.api != nil {
		g.Go(func() error { return a.api.Serve(gctx, a.cfg.API.Listen) })
	}

	logging.Info("klipmi started",
		zap.String("display", a.cfg.Display.Device),
		zap.String("moonraker", a.client.URL()),
		zap.String("api", a.cfg.API.Listen))

	err := g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// pump forwards display input to the loop until the transport stops
func (a *App) pump(ctx context.Context) error {
	for ev := range a.transport.Events() {
		logging.LogDisplayEvent(ev.Kind.String(), int(ev.PageID), ev.ComponentID, ev.Value)
		var err error
		switch ev.Kind {
		case hmi.EventTouch:
			err = a.loop.Touch(ctx, ev.PageID, ev.ComponentID)
		case hmi.EventNumericInput:
			err = a.loop.Numeric(ctx, ev.ComponentID, ev.Value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (a *App) onStatus(snap hmi.Snapshot) {
	if err := a.loop.Telemetry(a.ctx, snap); err != nil {
		logging.Debug("Dropping telemetry", zap.Error(err))
	}
}

func (a *App) lifecycle(name string, fn func(context.Context, *hmi.Engine) error) func() {
	return func() {
		if err := a.loop.Post(a.ctx, name, fn); err != nil {
			logging.Debug("Dropping printer event", zap.String("event", name), zap.Error(err))
		}
	}
}

// onDisplayStatus repaints after the panel reboots, since it comes back
// on its power-on page with every field reset.
func (a *App) onDisplayStatus(msg *nextion.StatusMessage) {
	if msg.Status != nextion.CodeReady {
		return
	}
	err := a.loop.Post(a.ctx, "display ready", func(ctx context.Context, e *hmi.Engine) error {
		target := a.ui.Initial
		if cur, ok := e.Current(); ok {
			target = cur.ID
		}
		return e.ChangePage(ctx, target)
	})
	if err != nil {
		logging.Debug("Dropping display status", zap.Error(err))
	}
}
