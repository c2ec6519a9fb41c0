package binance

import (
	"context"

	"github.com/R3E-Network/scenario-engine/internal/wsclient"
)

// Authenticator obtains a Binance Futures listen key over REST (not over the
// WebSocket itself — Binance has no challenge step, per §4.4's note that the
// Binance variant is "structurally identical modulo wire format and the
// absence of a challenge step"). The returned AuthPayload.ListenKey is
// embedded directly in the user-data stream's SUBSCRIBE params.
type Authenticator struct {
	REST *Client
}

func (a Authenticator) Authenticate(ctx context.Context, send func([]byte) error, recv <-chan wsclient.Frame) (*wsclient.AuthPayload, error) {
	listenKey, err := a.REST.CreateListenKey(ctx)
	if err != nil {
		return nil, err
	}
	return &wsclient.AuthPayload{ListenKey: listenKey}, nil
}
