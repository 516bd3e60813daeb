package hmi

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Snapshot is a full set of subscribed printer objects, keyed by object name
// ("extruder", "heater_generic chamber", ...) and then by field name.
type Snapshot map[string]map[string]any

// CoreObjects must be present in a snapshot for pages to render it.
var CoreObjects = []string{"print_stats", "extruder", "heater_bed"}

// Object returns the fields of one printer object
func (s Snapshot) Object(name string) (map[string]any, bool) {
	obj, ok := s[name]
	return obj, ok
}

// Value returns a raw field value
func (s Snapshot) Value(object, field string) (any, bool) {
	obj, ok := s[object]
	if !ok {
		return nil, false
	}
	v, ok := obj[field]
	return v, ok
}

// Float returns a numeric field. Missing or non-numeric fields report false.
func (s Snapshot) Float(object, field string) (float64, bool) {
	v, ok := s.Value(object, field)
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

// FloatOr returns a numeric field or def when it is missing
func (s Snapshot) FloatOr(object, field string, def float64) float64 {
	if f, ok := s.Float(object, field); ok {
		return f
	}
	return def
}

// String returns a string field
func (s Snapshot) String(object, field string) (string, bool) {
	v, ok := s.Value(object, field)
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

// PrintState returns print_stats.state, or "" when unknown
func (s Snapshot) PrintState() string {
	state, _ := s.String("print_stats", "state")
	return state
}

// WebhooksState returns webhooks.state, or "" when not subscribed
func (s Snapshot) WebhooksState() string {
	state, _ := s.String("webhooks", "state")
	return state
}

// Missing returns the names of the given objects that are absent
func (s Snapshot) Missing(objects ...string) []string {
	var missing []string
	for _, name := range objects {
		if _, ok := s[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// CheckCore returns an IncompleteSnapshot error when a core object is absent
func (s Snapshot) CheckCore() error {
	missing := s.Missing(CoreObjects...)
	if len(missing) == 0 {
		return nil
	}
	return &NavError{
		Type:    ErrTypeIncompleteSnapshot,
		Message: fmt.Sprintf("snapshot missing %s", strings.Join(missing, ", ")),
	}
}

// Clone returns a deep copy of the object and field maps. Field values are
// shared; printer values are scalars or slices that are never mutated.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	for name, fields := range s {
		copied := make(map[string]any, len(fields))
		for k, v := range fields {
			copied[k] = v
		}
		out[name] = copied
	}
	return out
}

// Merge applies a partial update on top of the snapshot in place. Moonraker
// sends only changed fields after the initial subscription response.
func (s Snapshot) Merge(update Snapshot) {
	for name, fields := range update {
		obj, ok := s[name]
		if !ok {
			obj = make(map[string]any, len(fields))
			s[name] = obj
		}
		for k, v := range fields {
			obj[k] = v
		}
	}
}

// Objects returns the object names in sorted order
func (s Snapshot) Objects() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
