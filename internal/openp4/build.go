package openp4

import (
	"fmt"

	"github.com/muurk/klipmi/internal/hmi"
)

// Config customises the OpenP4 page set
type Config struct {
	// Table overrides the embedded page table.
	Table *PageTable
	// OnCompletePage, when set, is where the printing page goes once the
	// print state becomes "complete".
	OnCompletePage *hmi.PageID
}

type handlerFunc func(id hmi.PageIdentity, cfg Config) hmi.Page

// handlers builds the pages that need Go logic, keyed by the page
// table's handler name.
var handlers = map[string]handlerFunc{
	"boot":           func(id hmi.PageIdentity, _ Config) hmi.Page { return &bootPage{id: id} },
	"main":           func(id hmi.PageIdentity, _ Config) hmi.Page { return &mainPage{id: id} },
	"printing":       func(id hmi.PageIdentity, cfg Config) hmi.Page { return &printingPage{id: id, onComplete: cfg.OnCompletePage} },
	"control":        func(id hmi.PageIdentity, _ Config) hmi.Page { return &controlPage{id: id} },
	"control_kb":     func(id hmi.PageIdentity, _ Config) hmi.Page { return &controlKbPage{id: id} },
	"control_setfan": func(id hmi.PageIdentity, _ Config) hmi.Page { return &setFanPage{id: id} },
	"screen_sleep":   func(id hmi.PageIdentity, _ Config) hmi.Page { return &sleepPage{id: id} },
	"btn_conflict":   func(id hmi.PageIdentity, _ Config) hmi.Page { return &conflictPage{id: id} },
	"keypad":         func(id hmi.PageIdentity, _ Config) hmi.Page { return &keypadPage{id: id} },
}

// NewRegistry builds the registry for every page in the table
func NewRegistry(cfg Config) (*hmi.Registry, error) {
	table := cfg.Table
	if table == nil {
		var err error
		if table, err = DefaultPageTable(); err != nil {
			return nil, err
		}
	}

	reg := hmi.NewRegistry()
	for _, spec := range table.Pages {
		var page hmi.Page
		if spec.Handler != "" {
			build, ok := handlers[spec.Handler]
			if !ok {
				return nil, fmt.Errorf("page %s: unknown handler %q", spec.Name, spec.Handler)
			}
			page = build(spec.identity(), cfg)
		} else {
			page = newTablePage(spec)
		}
		if err := reg.Register(page); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// NewEngine builds the OpenP4 page set and an engine over it. The
// registry validation pass runs here, so a bad page table fails at
// startup.
func NewEngine(display hmi.Display, printer hmi.Printer, cfg Config) (*hmi.Engine, error) {
	reg, err := NewRegistry(cfg)
	if err != nil {
		return nil, err
	}
	return hmi.NewEngine(reg, display, printer, EngineOptions())
}
