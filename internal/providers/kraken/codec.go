// Package kraken implements the Kraken Futures WireCodec, REST client, and
// WebSocket dialer referenced by SPEC_FULL.md's C4/§4.4 Kraken variant.
package kraken

import (
	"encoding/json"

	"github.com/R3E-Network/scenario-engine/internal/wsclient"
)

// privateFeeds is the known private-feed set per §4.4: subscribing to any of
// these requires the challenge-response handshake first.
var privateFeeds = map[string]bool{
	"fills":           true,
	"open_orders":     true,
	"open_positions":  true,
	"account_log":     true,
	"balances":        true,
	"notifications_auth": true,
}

// Codec implements wsclient.WireCodec for the Kraken Futures wire format.
type Codec struct{}

func (Codec) IsPrivateFeed(feed string) bool { return privateFeeds[feed] }

// EncodeSubscribe builds `{event: "subscribe", feed, product_ids, ...auth}`
// per §4.4/§6; the waiter key is `"subscribe:" || feed` as the spec mandates
// verbatim (Kraken's waiter map keys on (action, feed)).
func (Codec) EncodeSubscribe(feed string, productIDs []string, auth *wsclient.AuthPayload) ([]byte, string) {
	msg := map[string]any{
		"event": "subscribe",
		"feed":  feed,
	}
	if len(productIDs) > 0 {
		msg["product_ids"] = productIDs
	}
	if auth != nil {
		msg["api_key"] = auth.APIKey
		msg["original_challenge"] = auth.OriginalChallenge
		msg["signed_challenge"] = auth.SignedChallenge
	}
	b, _ := json.Marshal(msg)
	return b, "subscribe:" + feed
}

func (Codec) EncodeUnsubscribe(feed string, productIDs []string) ([]byte, string) {
	msg := map[string]any{
		"event": "unsubscribe",
		"feed":  feed,
	}
	if len(productIDs) > 0 {
		msg["product_ids"] = productIDs
	}
	b, _ := json.Marshal(msg)
	return b, "unsubscribe:" + feed
}

// EncodeKeepalivePing returns the client-initiated `{event: "ping"}` sent
// every 30s per §4.4 — Kraken's keep-alive is client-driven, unlike Binance's.
func (Codec) EncodeKeepalivePing() []byte {
	b, _ := json.Marshal(map[string]any{"event": "ping"})
	return b
}

// Classify implements §4.4's demultiplexing rule: an `event` field routes to
// the event handler, a `feed` field (with no `event`) routes to the typed
// feed callback.
func (Codec) Classify(raw []byte) wsclient.Frame {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return wsclient.Frame{Kind: wsclient.KindUnknown}
	}

	if event, ok := m["event"].(string); ok {
		feed, _ := m["feed"].(string)
		switch event {
		case "challenge":
			message, _ := m["message"].(string)
			return wsclient.Frame{Kind: wsclient.KindChallenge, Challenge: message}
		case "subscribed":
			return wsclient.Frame{Kind: wsclient.KindSubscribed, Feed: feed, WaiterKey: "subscribe:" + feed}
		case "unsubscribed":
			return wsclient.Frame{Kind: wsclient.KindUnsubscribed, Feed: feed, WaiterKey: "unsubscribe:" + feed}
		case "error":
			errMsg, _ := m["message"].(string)
			return wsclient.Frame{Kind: wsclient.KindError, Feed: feed, WaiterKey: "subscribe:" + feed, ErrMsg: errMsg}
		case "info":
			return wsclient.Frame{Kind: wsclient.KindInfo}
		case "pong":
			return wsclient.Frame{Kind: wsclient.KindInfo}
		}
	}

	if feed, ok := m["feed"].(string); ok {
		return wsclient.Frame{Kind: wsclient.KindFeedData, Feed: feed, Data: m}
	}
	return wsclient.Frame{Kind: wsclient.KindUnknown}
}
