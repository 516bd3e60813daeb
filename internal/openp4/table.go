package openp4

import (
	"context"
	_ "embed"
	"fmt"
	"sort"
	"strconv"

	"github.com/muurk/klipmi/internal/hmi"
	"github.com/muurk/klipmi/internal/logging"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed pages.yaml
var defaultPageTable []byte

// Action is a printer action a generic page can bind to a component
type Action string

const (
	ActionRestart         Action = "restart"
	ActionFirmwareRestart Action = "firmware_restart"
	ActionEmergencyStop   Action = "emergency_stop"
	ActionPause           Action = "pause"
	ActionToggleCaselight Action = "toggle_caselight"
)

func (a Action) valid() bool {
	switch a {
	case ActionRestart, ActionFirmwareRestart, ActionEmergencyStop, ActionPause, ActionToggleCaselight:
		return true
	}
	return false
}

func (a Action) run(ctx context.Context, e *hmi.Engine) {
	p := e.Printer()
	switch a {
	case ActionRestart:
		p.Restart(ctx)
	case ActionFirmwareRestart:
		p.FirmwareRestart(ctx)
	case ActionEmergencyStop:
		p.EmergencyStop(ctx)
	case ActionPause:
		p.PausePrint(ctx)
	case ActionToggleCaselight:
		p.TogglePin(ctx, CaselightPin)
	}
}

// PageSpec is one entry of the page table
type PageSpec struct {
	ID           int            `yaml:"id"`
	Name         string         `yaml:"name"`
	Handler      string         `yaml:"handler,omitempty"`
	Transitions  map[int]int    `yaml:"transitions,omitempty"`
	Actions      map[int]Action `yaml:"actions,omitempty"`
	AutoPrinting bool           `yaml:"auto_printing,omitempty"`
	ByName       bool           `yaml:"by_name,omitempty"`
}

func (s PageSpec) identity() hmi.PageIdentity {
	return hmi.PageIdentity{ID: hmi.PageID(s.ID), Name: s.Name, ByName: s.ByName}
}

// PageTable is the parsed page table
type PageTable struct {
	Pages []PageSpec `yaml:"pages"`
}

// LoadPageTable parses a page table document
func LoadPageTable(data []byte) (*PageTable, error) {
	var table PageTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse page table: %w", err)
	}
	if len(table.Pages) == 0 {
		return nil, fmt.Errorf("page table has no pages")
	}

	for _, spec := range table.Pages {
		if spec.ID < 0 || spec.Name == "" {
			return nil, fmt.Errorf("page table entry %+v: id and name are required", spec)
		}
		if spec.Handler != "" {
			if _, ok := handlers[spec.Handler]; !ok {
				return nil, fmt.Errorf("page %s: unknown handler %q", spec.Name, spec.Handler)
			}
		}
		for component, action := range spec.Actions {
			if !action.valid() {
				return nil, fmt.Errorf("page %s component %d: unknown action %q", spec.Name, component, action)
			}
		}
	}
	return &table, nil
}

// DefaultPageTable returns the page table embedded in the binary
func DefaultPageTable() (*PageTable, error) {
	return LoadPageTable(defaultPageTable)
}

// Resolve finds a page by decimal id or firmware name
func (t *PageTable) Resolve(ref string) (hmi.PageID, error) {
	id, numeric := -1, false
	if n, err := strconv.Atoi(ref); err == nil {
		id, numeric = n, true
	}
	for _, spec := range t.Pages {
		if (numeric && spec.ID == id) || (!numeric && spec.Name == ref) {
			return hmi.PageID(spec.ID), nil
		}
	}
	return 0, fmt.Errorf("page %q is not in the page table", ref)
}

// tablePage is the generic page: sleep intercept, then the table's
// transitions and actions, then the nav bar.
type tablePage struct {
	id           hmi.PageIdentity
	transitions  map[int]hmi.PageID
	actions      map[int]Action
	autoPrinting bool
}

func newTablePage(spec PageSpec) *tablePage {
	p := &tablePage{
		id:           spec.identity(),
		transitions:  make(map[int]hmi.PageID, len(spec.Transitions)),
		actions:      spec.Actions,
		autoPrinting: spec.AutoPrinting,
	}
	for component, target := range spec.Transitions {
		p.transitions[component] = hmi.PageID(target)
	}
	return p
}

func (p *tablePage) Identity() hmi.PageIdentity { return p.id }

func (p *tablePage) Targets() []hmi.PageID {
	targets := make([]hmi.PageID, 0, len(p.transitions)+1)
	for _, t := range p.transitions {
		targets = append(targets, t)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i] < targets[j] })
	if p.autoPrinting {
		targets = append(targets, Printing)
	}
	return targets
}

func (p *tablePage) OnEnter(context.Context, *hmi.Engine) error { return nil }

func (p *tablePage) OnEvent(ctx context.Context, e *hmi.Engine, ev hmi.Event) error {
	if ev.Kind != hmi.EventTouch {
		logging.Debug("Numeric input ignored",
			zap.String("page", p.id.Name),
			zap.Int("component_id", ev.ComponentID),
		)
		return nil
	}
	if ok, err := hmi.InterceptSleep(ctx, e, ev.PageID); ok || err != nil {
		return err
	}
	if target, ok := p.transitions[ev.ComponentID]; ok {
		return e.ChangePage(ctx, target)
	}
	if action, ok := p.actions[ev.ComponentID]; ok {
		action.run(ctx, e)
		return nil
	}
	_, err := hmi.HandleNavBar(ctx, e, ev.ComponentID)
	return err
}

func (p *tablePage) OnTelemetry(ctx context.Context, e *hmi.Engine, snap hmi.Snapshot) error {
	if !p.autoPrinting {
		return nil
	}
	_, err := followPrint(ctx, e, snap)
	return err
}

// followPrint switches to the printing page once a print is running.
// Printing family pages stay where they are.
func followPrint(ctx context.Context, e *hmi.Engine, snap hmi.Snapshot) (bool, error) {
	if snap.PrintState() != "printing" {
		return false, nil
	}
	if cur, ok := e.Current(); ok && printingFamily[cur.ID] {
		return false, nil
	}
	return true, e.ChangePage(ctx, Printing)
}
