package ui

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/muurk/klipmi/internal/hmi"
	"github.com/muurk/klipmi/internal/logging"
	"github.com/muurk/klipmi/internal/nextion"
)

// DefaultLogSize is how many wire instructions a Screen remembers
const DefaultLogSize = 200

var errNeverSet = errors.New("field has not been set on this page")

// Field is one named value shown on the simulated panel
type Field struct {
	Name  string
	Value string
}

// Screen is an in-memory panel. It accepts the same calls as the serial
// display and keeps what a real panel would show, so pages can be driven
// from a terminal or a test.
type Screen struct {
	mu      sync.Mutex
	page    hmi.PageID
	paged   bool
	fields  map[string]string
	log     []string
	logSize int
	changes chan struct{}
	pages   *hmi.Registry
}

// NewScreen creates a blank screen with no page loaded
func NewScreen() *Screen {
	return &Screen{
		fields:  make(map[string]string),
		logSize: DefaultLogSize,
		changes: make(chan struct{}, 1),
	}
}

// Get returns a field's value. Fields never written since the page was
// loaded are unavailable, as they are on the panel.
func (s *Screen) Get(_ context.Context, field string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.fields[field]
	if !ok {
		return "", hmi.NewFieldUnavailableError(field, errNeverSet)
	}
	return v, nil
}

// Set stores a field value in the form the panel would display it
func (s *Screen) Set(_ context.Context, field string, value any) error {
	instr, err := nextion.SetInstruction(field, value)
	if err != nil {
		return err
	}
	shown := strings.TrimPrefix(instr, field+"=")
	switch v := value.(type) {
	case string:
		shown = v
	case fmt.Stringer:
		shown = v.String()
	}

	s.mu.Lock()
	s.fields[field] = shown
	s.record(instr)
	s.mu.Unlock()

	s.notify()
	return nil
}

// UsePages lets the screen accept page instructions by firmware name
func (s *Screen) UsePages(r *hmi.Registry) {
	s.mu.Lock()
	s.pages = r
	s.mu.Unlock()
}

// Command interprets raw panel instructions. Only page changes affect
// state; everything else is logged.
func (s *Screen) Command(_ context.Context, raw string) error {
	s.mu.Lock()
	if rest, ok := strings.CutPrefix(raw, "page "); ok {
		id, err := s.pageRef(strings.TrimSpace(rest))
		if err != nil {
			s.mu.Unlock()
			return fmt.Errorf("bad page instruction %q: %w", raw, err)
		}
		s.page = id
		s.paged = true
		clear(s.fields)
	}
	s.record(raw)
	s.mu.Unlock()

	s.notify()
	return nil
}

// SetField fills in a field from outside, as a user typing on the panel
func (s *Screen) SetField(field, value string) {
	s.mu.Lock()
	s.fields[field] = value
	s.mu.Unlock()
	s.notify()
}

// Page returns the loaded page. ok is false until the first page command.
func (s *Screen) Page() (hmi.PageID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page, s.paged
}

// Fields returns the current fields sorted by name
func (s *Screen) Fields() []Field {
	s.mu.Lock()
	out := make([]Field, 0, len(s.fields))
	for name, v := range s.fields {
		out = append(out, Field{Name: name, Value: v})
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Log returns the most recent instructions, oldest first
func (s *Screen) Log() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.log...)
}

// Changes signals after every update. Signals coalesce, so a reader
// should re-read all state on each one.
func (s *Screen) Changes() <-chan struct{} {
	return s.changes
}

func (s *Screen) pageRef(ref string) (hmi.PageID, error) {
	id, err := strconv.Atoi(ref)
	if err == nil {
		return hmi.PageID(id), nil
	}
	if s.pages == nil {
		return 0, err
	}
	page, lookupErr := s.pages.LookupName(ref)
	if lookupErr != nil {
		return 0, lookupErr
	}
	return page.Identity().ID, nil
}

func (s *Screen) record(instr string) {
	logging.LogRawBytes("screen", []byte(instr))
	s.log = append(s.log, instr)
	if over := len(s.log) - s.logSize; over > 0 {
		s.log = s.log[over:]
	}
}

func (s *Screen) notify() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

// String summarises the screen for debug logs
func (s *Screen) String() string {
	page, ok := s.Page()
	if !ok {
		return "screen(no page)"
	}
	return fmt.Sprintf("screen(page %d, %d fields)", page, len(s.Fields()))
}

var _ hmi.Display = (*Screen)(nil)
