package stream

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// InboundFunc receives each message a browser sends on its session socket.
type InboundFunc func(sessionID string, raw []byte)

// RegisterRoutes mounts the session socket. guards run before the upgrade,
// in order, and typically authenticate the caller and check the session.
func RegisterRoutes(r fiber.Router, hub *Hub, inbound InboundFunc, guards ...fiber.Handler) {
	handlers := append(append([]fiber.Handler{}, guards...), func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	}, websocket.New(func(c *websocket.Conn) {
		sessionID := c.Params("sessionID")
		client := hub.Register(sessionID)
		defer hub.Unregister(client)

		done := make(chan struct{})
		go func() {
			defer close(done)
			for msg := range client.Send {
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			}
			// closed by Unregister or by Disconnect when the session ends
			_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
			_ = c.Close()
		}()

		for {
			kind, msg, err := c.ReadMessage()
			if err != nil {
				break
			}
			if kind == websocket.TextMessage && inbound != nil {
				inbound(sessionID, msg)
			}
		}
		hub.Unregister(client)
		<-done
	}))
	r.Get("/ws/:sessionID", handlers...)
}
