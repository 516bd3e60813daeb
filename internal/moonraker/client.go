package moonraker

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/muurk/klipmi/internal/hmi"
	"github.com/muurk/klipmi/internal/logging"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultPort is Moonraker's default HTTP port
	DefaultPort = 7125

	// DefaultReconnectInterval is the wait between connection attempts
	DefaultReconnectInterval = 5 * time.Second

	// DefaultRequestTimeout bounds calls that wait for an answer
	DefaultRequestTimeout = 10 * time.Second

	// Time allowed to write a message to Moonraker
	writeWait = 10 * time.Second
)

// Klippy states reported by server.info
const (
	KlippyReady        = "ready"
	KlippyStartup      = "startup"
	KlippyShutdown     = "shutdown"
	KlippyError        = "error"
	KlippyDisconnected = "disconnected"
)

// Options configures a Client
type Options struct {
	Host              string
	Port              int
	APIKey            string
	ReconnectInterval time.Duration
	RequestTimeout    time.Duration
	// Objects is the printer.objects.subscribe set. A nil field list
	// subscribes to every field of the object.
	Objects map[string][]string
}

// Handlers receive printer events. They run on the client's session
// goroutine, one at a time.
type Handlers struct {
	OnStatus       func(hmi.Snapshot)
	OnReady        func()
	OnNotReady     func()
	OnKlipperError func()
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
	ID      int64  `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcMessage struct {
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *rpcError       `json:"error,omitempty"`
	ID     *int64          `json:"id,omitempty"`
}

// replyFunc receives the answer to a request; ok is false when the
// connection closed first.
type replyFunc func(msg rpcMessage, ok bool)

// Client is a Moonraker JSON-RPC client over the websocket API. It
// implements hmi.Printer and feeds telemetry and Klipper lifecycle
// events to its Handlers.
type Client struct {
	opts     Options
	handlers Handlers
	dialer   *websocket.Dialer

	nextID atomic.Int64

	mu      sync.Mutex
	conn    *websocket.Conn
	pending map[int64]replyFunc
	status  hmi.Snapshot
	klippy  string
}

// NewClient creates a client. Run connects it.
func NewClient(opts Options, handlers Handlers) *Client {
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}
	if opts.ReconnectInterval <= 0 {
		opts.ReconnectInterval = DefaultReconnectInterval
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	return &Client{
		opts:     opts,
		handlers: handlers,
		dialer:   &websocket.Dialer{HandshakeTimeout: opts.RequestTimeout},
		klippy:   KlippyDisconnected,
	}
}

func (c *Client) addr() string {
	return net.JoinHostPort(c.opts.Host, strconv.Itoa(c.opts.Port))
}

// URL returns the websocket endpoint
func (c *Client) URL() string {
	return "ws://" + c.addr() + "/websocket"
}

// KlippyState returns the last known Klipper state
func (c *Client) KlippyState() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.klippy
}

// Status returns a copy of the latest merged telemetry
func (c *Client) Status() hmi.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status.Clone()
}

// Run connects and keeps the connection alive until ctx is cancelled
func (c *Client) Run(ctx context.Context) error {
	for {
		err := c.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		logging.Warn("Moonraker session ended",
			zap.String("url", c.URL()),
			zap.Error(err),
			zap.Duration("retry_in", c.opts.ReconnectInterval),
		)
		c.setKlippy(KlippyDisconnected)
		c.notify(c.handlers.OnNotReady)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(c.opts.ReconnectInterval):
		}
	}
}

func (c *Client) session(ctx context.Context) error {
	header := http.Header{}
	if c.opts.APIKey != "" {
		header.Set("X-Api-Key", c.opts.APIKey)
	}
	conn, _, err := c.dialer.DialContext(ctx, c.URL(), header)
	if err != nil {
		return ClassifyNetworkError(err, c.addr())
	}
	logging.LogConnection(c.addr(), "moonraker_connected")

	c.mu.Lock()
	c.conn = conn
	c.pending = make(map[int64]replyFunc)
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		pending := c.pending
		c.conn = nil
		c.pending = nil
		c.mu.Unlock()
		for _, reply := range pending {
			reply(rpcMessage{}, false)
		}
		_ = conn.Close()
		logging.LogConnection(c.addr(), "moonraker_closed")
	}()

	notes := make(chan rpcMessage, 16)
	dirty := make(chan struct{}, 1)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.readLoop(conn, notes, dirty)
	})
	g.Go(func() error {
		<-gctx.Done()
		// Unblocks the read loop.
		_ = conn.Close()
		return nil
	})
	g.Go(func() error {
		return c.process(gctx, notes, dirty)
	})
	return g.Wait()
}

// readLoop resolves answers and merges status updates. It never blocks
// on the session goroutine, which may itself be waiting for an answer.
func (c *Client) readLoop(conn *websocket.Conn, notes chan<- rpcMessage, dirty chan<- struct{}) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return &PrinterError{Type: ErrTypeClosed, Message: "connection lost", Host: c.addr(), Err: err, Retryable: true}
		}

		var msg rpcMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logging.Warn("Dropping malformed Moonraker message", zap.Error(err))
			continue
		}

		switch {
		case msg.ID != nil && msg.Method == "":
			c.resolve(*msg.ID, msg)
		case msg.Method == "notify_status_update":
			if err := c.mergeStatus(msg.Params); err != nil {
				logging.Warn("Dropping status update", zap.Error(err))
				continue
			}
			select {
			case dirty <- struct{}{}:
			default:
			}
		case msg.Method != "":
			select {
			case notes <- msg:
			default:
				logging.Warn("Notification queue full, dropping", zap.String("method", msg.Method))
			}
		}
	}
}

func (c *Client) mergeStatus(params json.RawMessage) error {
	var args []json.RawMessage
	if err := json.Unmarshal(params, &args); err != nil || len(args) == 0 {
		return &PrinterError{Type: ErrTypeParse, Message: "status update without parameters", Err: err}
	}
	var diff hmi.Snapshot
	if err := json.Unmarshal(args[0], &diff); err != nil {
		return &PrinterError{Type: ErrTypeParse, Message: "malformed status update", Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == nil {
		c.status = make(hmi.Snapshot)
	}
	c.status.Merge(diff)
	return nil
}

func (c *Client) process(ctx context.Context, notes <-chan rpcMessage, dirty <-chan struct{}) error {
	if err := c.identify(ctx); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-notes:
			if err := c.handleNotification(ctx, msg); err != nil {
				return err
			}
		case <-dirty:
			if c.KlippyState() == KlippyReady {
				c.deliverStatus()
			}
		}
	}
}

// identify asks Moonraker for Klipper's state after connecting
func (c *Client) identify(ctx context.Context) error {
	result, err := c.call(ctx, "server.info", nil)
	if err != nil {
		return err
	}
	var info struct {
		KlippyState string `json:"klippy_state"`
	}
	if err := json.Unmarshal(result, &info); err != nil {
		return &PrinterError{Type: ErrTypeParse, Message: "malformed server.info", Err: err}
	}
	logging.Info("Moonraker connected", zap.String("klippy_state", info.KlippyState))
	return c.enterState(ctx, info.KlippyState)
}

func (c *Client) enterState(ctx context.Context, state string) error {
	switch state {
	case KlippyReady:
		return c.subscribe(ctx)
	case KlippyShutdown, KlippyError:
		c.setKlippy(state)
		c.notify(c.handlers.OnKlipperError)
	default:
		c.setKlippy(state)
		c.notify(c.handlers.OnNotReady)
	}
	return nil
}

func (c *Client) handleNotification(ctx context.Context, msg rpcMessage) error {
	switch msg.Method {
	case "notify_klippy_ready":
		return c.enterState(ctx, KlippyReady)
	case "notify_klippy_shutdown":
		return c.enterState(ctx, KlippyShutdown)
	case "notify_klippy_disconnected":
		return c.enterState(ctx, KlippyDisconnected)
	default:
		logging.Debug("Ignoring Moonraker notification", zap.String("method", msg.Method))
	}
	return nil
}

// subscribe requests the object set and replaces the merged status with
// the full answer.
func (c *Client) subscribe(ctx context.Context) error {
	result, err := c.call(ctx, "printer.objects.subscribe", map[string]any{"objects": c.opts.Objects})
	if err != nil {
		return err
	}
	var sub struct {
		Status hmi.Snapshot `json:"status"`
	}
	if err := json.Unmarshal(result, &sub); err != nil {
		return &PrinterError{Type: ErrTypeParse, Message: "malformed subscription answer", Err: err}
	}
	if sub.Status == nil {
		sub.Status = make(hmi.Snapshot)
	}

	c.mu.Lock()
	c.status = sub.Status
	c.klippy = KlippyReady
	c.mu.Unlock()

	c.notify(c.handlers.OnReady)
	c.deliverStatus()
	return nil
}

func (c *Client) deliverStatus() {
	if c.handlers.OnStatus != nil {
		c.handlers.OnStatus(c.Status())
	}
}

func (c *Client) notify(fn func()) {
	if fn != nil {
		fn()
	}
}

func (c *Client) setKlippy(state string) {
	c.mu.Lock()
	c.klippy = state
	c.mu.Unlock()
}

func (c *Client) resolve(id int64, msg rpcMessage) {
	c.mu.Lock()
	reply, ok := c.pending[id]
	delete(c.pending, id)
	c.mu.Unlock()
	if ok {
		reply(msg, true)
	}
}

func (c *Client) forget(id int64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// send writes a request and registers reply for its answer
func (c *Client) send(method string, params any, reply replyFunc) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return 0, &PrinterError{Type: ErrTypeClosed, Message: "not connected to Moonraker", Host: c.addr(), Retryable: true}
	}
	id := c.nextID.Add(1)
	c.pending[id] = reply

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(rpcRequest{JSONRPC: "2.0", Method: method, Params: params, ID: id}); err != nil {
		delete(c.pending, id)
		return 0, ClassifyNetworkError(err, c.addr())
	}
	return id, nil
}

// call sends a request and waits for its answer
func (c *Client) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	answers := make(chan rpcMessage, 1)
	closed := make(chan struct{})
	id, err := c.send(method, params, func(msg rpcMessage, ok bool) {
		if !ok {
			close(closed)
			return
		}
		answers <- msg
	})
	if err != nil {
		return nil, err
	}

	timer := time.NewTimer(c.opts.RequestTimeout)
	defer timer.Stop()

	select {
	case msg := <-answers:
		if msg.Error != nil {
			return nil, rpcFailure(method, msg.Error)
		}
		return msg.Result, nil
	case <-closed:
		return nil, &PrinterError{Type: ErrTypeClosed, Message: fmt.Sprintf("connection closed during %s", method), Retryable: true}
	case <-timer.C:
		c.forget(id)
		return nil, &PrinterError{Type: ErrTypeTimeout, Message: fmt.Sprintf("%s timed out", method), Retryable: true}
	case <-ctx.Done():
		c.forget(id)
		return nil, ctx.Err()
	}
}

// fire sends a request without waiting. A failure answer is logged.
func (c *Client) fire(method string, params any) error {
	_, err := c.send(method, params, func(msg rpcMessage, ok bool) {
		if ok && msg.Error != nil {
			logging.Error("Printer command failed", zap.Error(rpcFailure(method, msg.Error)))
		}
	})
	return err
}

func rpcFailure(method string, e *rpcError) *PrinterError {
	return &PrinterError{
		Type:    ErrTypeRPC,
		Code:    e.Code,
		Message: fmt.Sprintf("%s: %s", method, e.Message),
	}
}

// FormatMacro renders a macro call with its parameters in sorted order
func FormatMacro(name string, params map[string]any) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(name)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, params[k])
	}
	return b.String()
}

// RunGcode runs a gcode script. Long moves do not block the caller.
func (c *Client) RunGcode(_ context.Context, script string) error {
	return c.fire("printer.gcode.script", map[string]string{"script": script})
}

// RunMacro runs a gcode macro with named parameters
func (c *Client) RunMacro(ctx context.Context, name string, params map[string]any) error {
	return c.RunGcode(ctx, FormatMacro(name, params))
}

// TogglePin flips an output pin using its last reported value
func (c *Client) TogglePin(ctx context.Context, pin string) error {
	c.mu.Lock()
	value, _ := c.status.Float("output_pin "+pin, "value")
	c.mu.Unlock()

	next := 1
	if value > 0 {
		next = 0
	}
	return c.RunGcode(ctx, fmt.Sprintf("SET_PIN PIN=%s VALUE=%d", pin, next))
}

// EmergencyStop halts the printer
func (c *Client) EmergencyStop(context.Context) error {
	return c.fire("printer.emergency_stop", nil)
}

// PausePrint pauses the active print
func (c *Client) PausePrint(context.Context) error {
	return c.fire("printer.print.pause", nil)
}

// Restart restarts the Klipper host
func (c *Client) Restart(context.Context) error {
	return c.fire("printer.restart", nil)
}

// FirmwareRestart restarts the Klipper firmware
func (c *Client) FirmwareRestart(context.Context) error {
	return c.fire("printer.firmware_restart", nil)
}

var _ hmi.Printer = (*Client)(nil)
