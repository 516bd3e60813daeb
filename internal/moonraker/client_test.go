package moonraker

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/muurk/klipmi/internal/hmi"
)

// fakeMoonraker answers the handful of JSON-RPC methods the client uses
type fakeMoonraker struct {
	klippyState string
	status      map[string]map[string]any

	scripts chan string
	methods chan string

	mu      sync.Mutex
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func newFakeMoonraker(state string, status map[string]map[string]any) *fakeMoonraker {
	return &fakeMoonraker{
		klippyState: state,
		status:      status,
		scripts:     make(chan string, 16),
		methods:     make(chan string, 16),
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (m *fakeMoonraker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	m.mu.Lock()
	m.conn = conn
	m.mu.Unlock()

	for {
		var req struct {
			Method string         `json:"method"`
			Params map[string]any `json:"params"`
			ID     int64          `json:"id"`
		}
		if err := conn.ReadJSON(&req); err != nil {
			return
		}

		var result any = "ok"
		switch req.Method {
		case "server.info":
			result = map[string]any{"klippy_state": m.klippyState}
		case "printer.objects.subscribe":
			result = map[string]any{"eventtime": 1.0, "status": m.status}
		case "printer.gcode.script":
			m.scripts <- req.Params["script"].(string)
		case "bad.method":
			m.write(map[string]any{"jsonrpc": "2.0", "id": req.ID, "error": map[string]any{"code": -32601, "message": "Method not found"}})
			continue
		default:
			m.methods <- req.Method
		}
		m.write(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": result})
	}
}

func (m *fakeMoonraker) write(v any) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	_ = conn.WriteJSON(v)
}

func (m *fakeMoonraker) notify(method string, params ...any) {
	m.write(map[string]any{"jsonrpc": "2.0", "method": method, "params": params})
}

type recorder struct {
	ready    chan struct{}
	notReady chan struct{}
	failed   chan struct{}
	statuses chan hmi.Snapshot
}

func newRecorder() *recorder {
	return &recorder{
		ready:    make(chan struct{}, 4),
		notReady: make(chan struct{}, 4),
		failed:   make(chan struct{}, 4),
		statuses: make(chan hmi.Snapshot, 16),
	}
}

// offer never blocks so a stalled test cannot wedge the client's Run loop
func offer[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
	}
}

func (r *recorder) handlers() Handlers {
	return Handlers{
		OnStatus:       func(s hmi.Snapshot) { offer(r.statuses, s) },
		OnReady:        func() { offer(r.ready, struct{}{}) },
		OnNotReady:     func() { offer(r.notReady, struct{}{}) },
		OnKlipperError: func() { offer(r.failed, struct{}{}) },
	}
}

func startClient(t *testing.T, fake *fakeMoonraker) (*Client, *recorder) {
	t.Helper()
	mux := http.NewServeMux()
	mux.Handle("/websocket", fake)
	srv := httptest.NewServer(mux)

	u, _ := url.Parse(srv.URL)
	host, portStr, _ := net.SplitHostPort(u.Host)
	port, _ := strconv.Atoi(portStr)

	rec := newRecorder()
	client := NewClient(Options{
		Host:              host,
		Port:              port,
		ReconnectInterval: 50 * time.Millisecond,
		RequestTimeout:    time.Second,
		Objects:           map[string][]string{"extruder": {"temperature", "target"}},
	}, rec.handlers())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- client.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		<-done
		srv.Close()
	})
	return client, rec
}

func wait[T any](t *testing.T, ch <-chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
	var zero T
	return zero
}

func TestClientReadyAndStatus(t *testing.T) {
	fake := newFakeMoonraker(KlippyReady, map[string]map[string]any{
		"extruder": {"temperature": 20.5, "target": 0.0},
	})
	client, rec := startClient(t, fake)

	wait(t, rec.ready, "ready")
	snap := wait(t, rec.statuses, "initial status")
	if got := snap.FloatOr("extruder", "temperature", -1); got != 20.5 {
		t.Errorf("temperature = %v, want 20.5", got)
	}
	if got := client.KlippyState(); got != KlippyReady {
		t.Errorf("KlippyState() = %q, want ready", got)
	}

	fake.notify("notify_status_update", map[string]any{"extruder": map[string]any{"temperature": 25.0}}, 2.0)
	snap = wait(t, rec.statuses, "status update")
	if got := snap.FloatOr("extruder", "temperature", -1); got != 25 {
		t.Errorf("temperature = %v, want 25", got)
	}
	if _, ok := snap.Float("extruder", "target"); !ok {
		t.Error("merge dropped extruder.target")
	}
}

func TestClientCommands(t *testing.T) {
	fake := newFakeMoonraker(KlippyReady, map[string]map[string]any{
		"output_pin caselight": {"value": 1.0},
	})
	client, rec := startClient(t, fake)
	wait(t, rec.ready, "ready")
	ctx := context.Background()

	if err := client.RunMacro(ctx, "SET_HEATER_TEMPERATURE", map[string]any{"TARGET": 205, "HEATER": "extruder"}); err != nil {
		t.Fatalf("RunMacro() error = %v", err)
	}
	if got := wait(t, fake.scripts, "macro"); got != "SET_HEATER_TEMPERATURE HEATER=extruder TARGET=205" {
		t.Errorf("script = %q", got)
	}

	if err := client.TogglePin(ctx, "caselight"); err != nil {
		t.Fatalf("TogglePin() error = %v", err)
	}
	if got := wait(t, fake.scripts, "toggle"); got != "SET_PIN PIN=caselight VALUE=0" {
		t.Errorf("script = %q", got)
	}

	calls := []struct {
		fn   func(context.Context) error
		want string
	}{
		{client.EmergencyStop, "printer.emergency_stop"},
		{client.PausePrint, "printer.print.pause"},
		{client.Restart, "printer.restart"},
		{client.FirmwareRestart, "printer.firmware_restart"},
	}
	for _, c := range calls {
		if err := c.fn(ctx); err != nil {
			t.Fatalf("%s error = %v", c.want, err)
		}
		if got := wait(t, fake.methods, c.want); got != c.want {
			t.Errorf("method = %q, want %q", got, c.want)
		}
	}
}

func TestClientRPCError(t *testing.T) {
	fake := newFakeMoonraker(KlippyReady, nil)
	client, rec := startClient(t, fake)
	wait(t, rec.ready, "ready")

	_, err := client.call(context.Background(), "bad.method", nil)
	if !IsRPCError(err) {
		t.Errorf("call() error = %v, want RPC error", err)
	}
}

func TestClientLifecycle(t *testing.T) {
	fake := newFakeMoonraker(KlippyStartup, nil)
	client, rec := startClient(t, fake)

	wait(t, rec.notReady, "not ready")
	if got := client.KlippyState(); got != KlippyStartup {
		t.Errorf("KlippyState() = %q, want startup", got)
	}

	fake.notify("notify_klippy_ready")
	wait(t, rec.ready, "ready")

	fake.notify("notify_klippy_shutdown")
	wait(t, rec.failed, "klipper error")
	if got := client.KlippyState(); got != KlippyShutdown {
		t.Errorf("KlippyState() = %q, want shutdown", got)
	}
}

func TestClientNotConnected(t *testing.T) {
	client := NewClient(Options{Host: "127.0.0.1"}, Handlers{})
	err := client.RunGcode(context.Background(), "G28")
	if !IsRetryable(err) {
		t.Errorf("RunGcode() error = %v, want retryable not connected error", err)
	}
	if got := client.URL(); got != "ws://127.0.0.1:7125/websocket" {
		t.Errorf("URL() = %q", got)
	}
}

func TestFormatMacro(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]any
		want   string
	}{
		{"SET_HEATER_TEMPERATURE", map[string]any{"TARGET": 60, "HEATER": "heater_bed"}, "SET_HEATER_TEMPERATURE HEATER=heater_bed TARGET=60"},
		{"CANCEL_PRINT", nil, "CANCEL_PRINT"},
		{"SET_FAN_SPEED", map[string]any{"FAN": "cooling_fan", "SPEED": 0.5}, "SET_FAN_SPEED FAN=cooling_fan SPEED=0.5"},
	}
	for _, tt := range tests {
		if got := FormatMacro(tt.name, tt.params); got != tt.want {
			t.Errorf("FormatMacro(%s) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
