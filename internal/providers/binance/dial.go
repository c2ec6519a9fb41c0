package binance

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/R3E-Network/scenario-engine/internal/wsclient"
)

type conn struct {
	ws *websocket.Conn
}

func (c *conn) ReadMessage() (int, []byte, error)     { return c.ws.ReadMessage() }
func (c *conn) WriteMessage(t int, data []byte) error { return c.ws.WriteMessage(t, data) }
func (c *conn) Close() error                          { return c.ws.Close() }

// NewDialer returns a wsclient.Dialer for the Binance Futures combined
// stream endpoint. gorilla/websocket's default ping handler already answers
// server-initiated transport pings with a pong, so no override is installed
// here, unlike a provider with an application-level keep-alive reply.
func NewDialer() wsclient.Dialer {
	return func(ctx context.Context, url string) (wsclient.Conn, error) {
		ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", url, err)
		}
		return &conn{ws: ws}, nil
	}
}
