package replay

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/shlex"

	"github.com/muurk/klipmi/internal/hmi"
)

// Kind is the type of a script step
type Kind int

const (
	// KindTouch presses a component: touch [page] <component>
	KindTouch Kind = iota
	// KindNumeric delivers a keypad value: numeric <component> <value>
	KindNumeric
	// KindTelemetry merges printer fields: telemetry <object>.<field>=<value> ...
	KindTelemetry
	// KindInput fills a display text field: input <field> <text>
	KindInput
	// KindExpectPage asserts the current page: expect page <name|id>
	KindExpectPage
	// KindPage switches page directly: page <name|id>
	KindPage
	// KindSleep reports the display's own sleep timer: sleep
	KindSleep
)

func (k Kind) String() string {
	switch k {
	case KindTouch:
		return "touch"
	case KindNumeric:
		return "numeric"
	case KindTelemetry:
		return "telemetry"
	case KindInput:
		return "input"
	case KindExpectPage:
		return "expect page"
	case KindPage:
		return "page"
	case KindSleep:
		return "sleep"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Step is one parsed script line
type Step struct {
	Line int
	Kind Kind

	// Page is the page reported with a touch. Nil means the current page.
	Page      *hmi.PageID
	Component int
	Value     int

	Field string
	Text  string

	// Ref names a page by id or name for expect and page steps.
	Ref string

	// Update holds the fields of a telemetry step.
	Update hmi.Snapshot
}

// SyntaxError reports a script line that does not parse
type SyntaxError struct {
	Line int
	Text string
	Msg  string
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %q", e.Line, e.Msg, e.Text)
	}
	return fmt.Sprintf("%s: %q", e.Msg, e.Text)
}

// Parse reads a whole script. Blank lines and # comments are skipped.
func Parse(r io.Reader) ([]Step, error) {
	var steps []Step
	scanner := bufio.NewScanner(r)
	n := 0
	for scanner.Scan() {
		n++
		step, err := ParseLine(scanner.Text(), n)
		if err != nil {
			return nil, err
		}
		if step != nil {
			steps = append(steps, *step)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return steps, nil
}

// ParseLine parses one line. It returns nil for blank lines and comments.
func ParseLine(text string, line int) (*Step, error) {
	fail := func(msg string) (*Step, error) {
		return nil, &SyntaxError{Line: line, Text: text, Msg: msg}
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return nil, nil
	}
	words, err := shlex.Split(trimmed)
	if err != nil {
		return fail(err.Error())
	}
	if len(words) == 0 {
		return nil, nil
	}

	step := &Step{Line: line}
	args := words[1:]
	switch strings.ToLower(words[0]) {
	case "touch":
		step.Kind = KindTouch
		switch len(args) {
		case 1:
			if step.Component, err = strconv.Atoi(args[0]); err != nil {
				return fail("component must be a number")
			}
		case 2:
			page, err := strconv.Atoi(args[0])
			if err != nil {
				return fail("page must be a number")
			}
			id := hmi.PageID(page)
			step.Page = &id
			if step.Component, err = strconv.Atoi(args[1]); err != nil {
				return fail("component must be a number")
			}
		default:
			return fail("usage: touch [page] <component>")
		}

	case "numeric":
		step.Kind = KindNumeric
		if len(args) != 2 {
			return fail("usage: numeric <component> <value>")
		}
		if step.Component, err = strconv.Atoi(args[0]); err != nil {
			return fail("component must be a number")
		}
		if step.Value, err = strconv.Atoi(args[1]); err != nil {
			return fail("value must be a number")
		}

	case "telemetry":
		step.Kind = KindTelemetry
		if len(args) == 0 {
			return fail("usage: telemetry <object>.<field>=<value> ...")
		}
		step.Update = make(hmi.Snapshot)
		for _, arg := range args {
			object, field, value, ok := splitAssignment(arg)
			if !ok {
				return fail(fmt.Sprintf("expected <object>.<field>=<value>, got %q", arg))
			}
			if step.Update[object] == nil {
				step.Update[object] = make(map[string]any)
			}
			step.Update[object][field] = parseValue(value)
		}

	case "input", "set":
		step.Kind = KindInput
		if len(args) != 2 {
			return fail("usage: input <field> <text>")
		}
		step.Field, step.Text = args[0], args[1]

	case "expect":
		step.Kind = KindExpectPage
		if len(args) != 2 || args[0] != "page" {
			return fail("usage: expect page <name|id>")
		}
		step.Ref = args[1]

	case "page":
		step.Kind = KindPage
		if len(args) != 1 {
			return fail("usage: page <name|id>")
		}
		step.Ref = args[0]

	case "sleep":
		step.Kind = KindSleep
		if len(args) != 0 {
			return fail("sleep takes no arguments")
		}

	default:
		return fail("unknown command")
	}
	return step, nil
}

// splitAssignment splits "heater_generic chamber.target=60". Object names
// may contain spaces when quoted; the field is after the last dot.
func splitAssignment(arg string) (object, field, value string, ok bool) {
	lhs, value, found := strings.Cut(arg, "=")
	if !found {
		return "", "", "", false
	}
	dot := strings.LastIndex(lhs, ".")
	if dot <= 0 || dot == len(lhs)-1 {
		return "", "", "", false
	}
	return lhs[:dot], lhs[dot+1:], value, true
}

// parseValue turns a script literal into the type Moonraker would send
func parseValue(s string) any {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	switch s {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}
	return s
}
