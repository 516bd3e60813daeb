package nextion

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/muurk/klipmi/internal/hmi"
	"github.com/muurk/klipmi/internal/logging"
	"go.uber.org/zap"
)

// DefaultTimeout bounds how long Get waits for the display's answer
const DefaultTimeout = 500 * time.Millisecond

// Transport implements hmi.Display over a serial link to the display.
//
// Run must be running for Get to receive answers. Touch and numeric input
// frames are delivered on Events; everything else answers the single
// in-flight Get.
type Transport struct {
	rw      io.ReadWriter
	timeout time.Duration

	writeMu sync.Mutex
	getMu   sync.Mutex

	events    chan hmi.Event
	responses chan Message
	done      chan struct{}
	closeOnce sync.Once

	// OnStatus, when set, is called from the reader goroutine for sleep,
	// wake and ready notifications.
	OnStatus func(*StatusMessage)
}

// Option configures a Transport
type Option func(*Transport)

// WithTimeout sets the Get timeout
func WithTimeout(d time.Duration) Option {
	return func(t *Transport) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// NewTransport creates a transport over rw
func NewTransport(rw io.ReadWriter, opts ...Option) *Transport {
	t := &Transport{
		rw:        rw,
		timeout:   DefaultTimeout,
		events:    make(chan hmi.Event, 32),
		responses: make(chan Message, 1),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Events returns the touch and numeric input stream. It is closed when
// Run returns.
func (t *Transport) Events() <-chan hmi.Event {
	return t.events
}

// Run reads frames until the reader fails or ctx is cancelled
func (t *Transport) Run(ctx context.Context) error {
	defer close(t.events)
	defer t.closeOnce.Do(func() { close(t.done) })

	scanner := bufio.NewScanner(t.rw)
	scanner.Split(ScanFrames)

	for scanner.Scan() {
		frame := scanner.Bytes()
		logging.LogRawBytes("Display RX", frame)

		msg, err := ParseMessage(frame)
		if err != nil {
			logging.Warn("Dropping display frame", zap.Error(err))
			continue
		}
		if err := t.route(ctx, msg); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("display read failed: %w", err)
	}
	return nil
}

func (t *Transport) route(ctx context.Context, msg Message) error {
	var ev hmi.Event
	switch m := msg.(type) {
	case *TouchMessage:
		ev = hmi.Event{Kind: hmi.EventTouch, PageID: hmi.PageID(m.Page), ComponentID: m.Component}
	case *NumericInputMessage:
		ev = hmi.Event{Kind: hmi.EventNumericInput, ComponentID: m.Component, Value: int(m.Value)}
	case *StatusMessage:
		switch m.Status {
		case CodeAutoSleep, CodeAutoWake, CodeReady:
			logging.Debug("Display status", zap.String("status", statusName(m.Status)))
			if t.OnStatus != nil {
				t.OnStatus(m)
			}
			return nil
		case CodeSuccess:
			return nil
		}
		t.respond(msg)
		return nil
	default:
		t.respond(msg)
		return nil
	}

	select {
	case t.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// respond hands msg to a waiting Get. Answers nobody waits for replace
// older unread ones.
func (t *Transport) respond(msg Message) {
	for {
		select {
		case t.responses <- msg:
			return
		default:
		}
		select {
		case stale := <-t.responses:
			logging.Debug("Discarding unclaimed display answer", zap.String("message", stale.String()))
		default:
		}
	}
}

func (t *Transport) write(instruction string) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	data := Encode(instruction)
	logging.LogRawBytes("Display TX", data)
	if _, err := t.rw.Write(data); err != nil {
		return fmt.Errorf("failed to write %q: %w", instruction, err)
	}
	return nil
}

// Command sends a raw instruction
func (t *Transport) Command(_ context.Context, raw string) error {
	return t.write(raw)
}

// Set writes value to field
func (t *Transport) Set(_ context.Context, field string, value any) error {
	instruction, err := SetInstruction(field, value)
	if err != nil {
		return err
	}
	return t.write(instruction)
}

// Get reads a field. A field missing from the current page yields an
// hmi FieldUnavailable error.
func (t *Transport) Get(ctx context.Context, field string) (string, error) {
	t.getMu.Lock()
	defer t.getMu.Unlock()

	// Drop answers to earlier requests that timed out.
	select {
	case <-t.responses:
	default:
	}

	request := GetInstruction(field)
	if err := t.write(request); err != nil {
		return "", err
	}

	timer := time.NewTimer(t.timeout)
	defer timer.Stop()

	select {
	case msg := <-t.responses:
		return answer(field, request, msg)
	case <-timer.C:
		return "", &DisplayError{
			Type:      ErrTypeTimeout,
			Message:   fmt.Sprintf("no answer to %q after %s", request, t.timeout),
			Retryable: true,
		}
	case <-t.done:
		return "", &DisplayError{Type: ErrTypeClosed, Message: "display transport stopped"}
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func answer(field, request string, msg Message) (string, error) {
	switch m := msg.(type) {
	case *StringMessage:
		return m.Text, nil
	case *NumberMessage:
		return strconv.Itoa(int(m.Value)), nil
	case *StatusMessage:
		err := returnCodeError(m, request)
		if m.Status == CodeInvalidVariable || m.Status == CodeInvalidComponent {
			return "", hmi.NewFieldUnavailableError(field, err)
		}
		return "", err
	default:
		return "", &DisplayError{
			Type:    ErrTypeUnexpected,
			Code:    msg.Code(),
			Message: fmt.Sprintf("unexpected answer to %q: %s", request, msg),
		}
	}
}

var _ hmi.Display = (*Transport)(nil)
