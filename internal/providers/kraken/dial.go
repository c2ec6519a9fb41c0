package kraken

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/R3E-Network/scenario-engine/internal/wsclient"
)

// conn adapts *websocket.Conn to wsclient.Conn's minimal surface.
type conn struct {
	ws *websocket.Conn
}

func (c *conn) ReadMessage() (int, []byte, error)     { return c.ws.ReadMessage() }
func (c *conn) WriteMessage(t int, data []byte) error { return c.ws.WriteMessage(t, data) }
func (c *conn) Close() error                          { return c.ws.Close() }

// NewDialer returns a wsclient.Dialer that opens a real Kraken Futures
// WebSocket connection. Kraken's keep-alive is client-initiated
// (Codec.EncodeKeepalivePing), so no transport-level ping handler override
// is needed here, unlike Binance's server-initiated scheme.
func NewDialer() wsclient.Dialer {
	return func(ctx context.Context, url string) (wsclient.Conn, error) {
		ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", url, err)
		}
		return &conn{ws: ws}, nil
	}
}
