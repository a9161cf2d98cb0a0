package stream

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
)

func passthrough(c *fiber.Ctx) error { return c.Next() }

type inboundRecorder struct {
	messages chan string
}

func newInboundRecorder() *inboundRecorder {
	return &inboundRecorder{messages: make(chan string, 8)}
}

func (r *inboundRecorder) handle(sessionID string, raw []byte) {
	r.messages <- sessionID + ":" + string(raw)
}

func startStreamApp(t *testing.T, hub *Hub, inbound InboundFunc) string {
	t.Helper()
	app := fiber.New()
	RegisterRoutes(app.Group("/stream"), hub, inbound, passthrough)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen error: %v", err)
	}
	go func() {
		_ = app.Listener(ln)
	}()
	t.Cleanup(func() { _ = app.Shutdown() })
	return "ws://" + ln.Addr().String() + "/stream/ws/"
}

func waitClients(t *testing.T, hub *Hub, sessionID string, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if hub.Clients(sessionID) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for %d clients", want)
}

func TestStreamHandlersUpgradeRequired(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/stream"), NewHub(nil), nil, passthrough)

	req := httptest.NewRequest(http.MethodGet, "/stream/ws/session-1", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	if resp.StatusCode != http.StatusUpgradeRequired {
		t.Fatalf("expected upgrade required, got %d", resp.StatusCode)
	}
}

func TestStreamHandlersAuthRejects(t *testing.T) {
	app := fiber.New()
	deny := func(c *fiber.Ctx) error { return fiber.ErrUnauthorized }
	RegisterRoutes(app.Group("/stream"), NewHub(nil), nil, deny)

	req := httptest.NewRequest(http.MethodGet, "/stream/ws/session-1", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized, got %d", resp.StatusCode)
	}
}

func TestStreamHandlersWebsocketRoundTrip(t *testing.T) {
	hub := NewHub(nil)
	inbound := newInboundRecorder()
	base := startStreamApp(t, hub, inbound.handle)

	conn, _, err := websocket.DefaultDialer.Dial(base+"session-1", nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	defer conn.Close()
	waitClients(t, hub, "session-1", 1)

	hub.Broadcast("session-1", []byte(`{"type":"form.show"}`))
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if string(msg) != `{"type":"form.show"}` {
		t.Fatalf("unexpected message %s", msg)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"form.cancel"}`)); err != nil {
		t.Fatalf("write error: %v", err)
	}
	select {
	case got := <-inbound.messages:
		if got != `session-1:{"type":"form.cancel"}` {
			t.Fatalf("unexpected inbound %s", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for inbound event")
	}
}

func TestStreamHandlersUnregisterOnClose(t *testing.T) {
	hub := NewHub(nil)
	base := startStreamApp(t, hub, nil)

	conn, _, err := websocket.DefaultDialer.Dial(base+"session-3", nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	waitClients(t, hub, "session-3", 1)

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
	conn.Close()

	waitClients(t, hub, "session-3", 0)
	hub.Broadcast("session-3", []byte("ping"))
}

func TestStreamHandlersDisconnectClosesSocket(t *testing.T) {
	hub := NewHub(nil)
	base := startStreamApp(t, hub, nil)

	conn, _, err := websocket.DefaultDialer.Dial(base+"session-4", nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	defer conn.Close()
	waitClients(t, hub, "session-4", 1)

	if n := hub.Disconnect("session-4"); n != 1 {
		t.Fatalf("expected one client disconnected, got %d", n)
	}
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("expected normal close, got %v", err)
	}
	if hub.Clients("session-4") != 0 {
		t.Fatalf("expected no clients after disconnect")
	}
}

func TestStreamHandlersGuardsRunInOrder(t *testing.T) {
	app := fiber.New()
	var order []string
	first := func(c *fiber.Ctx) error { order = append(order, "first"); return c.Next() }
	gone := func(c *fiber.Ctx) error { order = append(order, "second"); return fiber.ErrGone }
	RegisterRoutes(app.Group("/stream"), NewHub(nil), nil, first, gone)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/stream/ws/session-5", nil))
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	if resp.StatusCode != http.StatusGone || len(order) != 2 {
		t.Fatalf("unexpected guard result %d %v", resp.StatusCode, order)
	}
}
