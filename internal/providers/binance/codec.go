// Package binance implements the Binance Futures WireCodec, REST client, and
// WebSocket dialer referenced by SPEC_FULL.md's C4/§4.4 Binance variant —
// "structurally identical [to Kraken] modulo wire format and the absence of
// a challenge step".
package binance

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/R3E-Network/scenario-engine/internal/wsclient"
)

// userDataFeed is the sentinel feed name Subscribe callers use to request
// the private account/order update stream. Binance authorizes this stream
// by listen key embedded in the SUBSCRIBE params, not by a per-message
// signature, so it is the only entry in the private-feed set.
const userDataFeed = "userData"

type pendingRequest struct {
	feed   string
	action wsclient.FrameKind
}

// Codec implements wsclient.WireCodec for the Binance Futures combined
// WebSocket stream format. Unlike Kraken's feed-keyed confirmations, Binance
// confirms by request `id`; Codec keeps a small id->feed map so Classify can
// still report which feed a given confirmation belongs to.
type Codec struct {
	mu      sync.Mutex
	nextID  int
	pending map[int]pendingRequest
}

// NewCodec constructs a Codec ready for use; the zero value is not usable
// because pending must be initialized.
func NewCodec() *Codec {
	return &Codec{pending: make(map[int]pendingRequest)}
}

func (c *Codec) IsPrivateFeed(feed string) bool { return feed == userDataFeed }

func (c *Codec) allocID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	return c.nextID
}

func (c *Codec) remember(id int, feed string, action wsclient.FrameKind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[id] = pendingRequest{feed: feed, action: action}
}

func (c *Codec) recall(id int) (pendingRequest, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	req, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	return req, ok
}

// streamParams builds the Binance stream-name parameter list for a
// subscribe/unsubscribe request. The private user-data stream is
// authenticated by listen key alone; public feeds combine each symbol in
// productIDs with the feed's event-type suffix (e.g. "btcusdt@aggTrade"),
// or pass feed through verbatim when it is already a full stream name.
func streamParams(feed string, productIDs []string, auth *wsclient.AuthPayload) []string {
	if feed == userDataFeed {
		if auth != nil && auth.ListenKey != "" {
			return []string{auth.ListenKey}
		}
		return nil
	}
	if len(productIDs) == 0 {
		return []string{feed}
	}
	params := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		params = append(params, strings.ToLower(id)+"@"+feed)
	}
	return params
}

func (c *Codec) EncodeSubscribe(feed string, productIDs []string, auth *wsclient.AuthPayload) ([]byte, string) {
	id := c.allocID()
	c.remember(id, feed, wsclient.KindSubscribed)
	msg := map[string]any{
		"method": "SUBSCRIBE",
		"params": streamParams(feed, productIDs, auth),
		"id":     id,
	}
	b, _ := json.Marshal(msg)
	return b, fmt.Sprintf("req:%d", id)
}

func (c *Codec) EncodeUnsubscribe(feed string, productIDs []string) ([]byte, string) {
	id := c.allocID()
	c.remember(id, feed, wsclient.KindUnsubscribed)
	msg := map[string]any{
		"method": "UNSUBSCRIBE",
		"params": streamParams(feed, productIDs, nil),
		"id":     id,
	}
	b, _ := json.Marshal(msg)
	return b, fmt.Sprintf("req:%d", id)
}

// EncodeKeepalivePing returns nil: Binance's keep-alive is server-initiated
// (a transport-level WebSocket ping every few minutes), auto-answered by the
// underlying gorilla/websocket connection's default pong handler — the
// session never needs to send one.
func (c *Codec) EncodeKeepalivePing() []byte { return nil }

func (c *Codec) Classify(raw []byte) wsclient.Frame {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return wsclient.Frame{Kind: wsclient.KindUnknown}
	}

	if idVal, ok := m["id"]; ok {
		id := int(toFloat(idVal))
		req, known := c.recall(id)
		waiterKey := fmt.Sprintf("req:%d", id)

		if errObj, ok := m["error"].(map[string]any); ok {
			msg, _ := errObj["msg"].(string)
			code := int(toFloat(errObj["code"]))
			return wsclient.Frame{Kind: wsclient.KindError, Feed: req.feed, WaiterKey: waiterKey, ErrMsg: msg, ErrCode: code}
		}

		kind := wsclient.KindSubscribed
		if known && req.action == wsclient.KindUnsubscribed {
			kind = wsclient.KindUnsubscribed
		}
		return wsclient.Frame{Kind: kind, Feed: req.feed, WaiterKey: waiterKey}
	}

	if stream, ok := m["stream"].(string); ok {
		data, _ := m["data"].(map[string]any)
		return wsclient.Frame{Kind: wsclient.KindFeedData, Feed: stream, Data: data}
	}

	return wsclient.Frame{Kind: wsclient.KindUnknown}
}

func toFloat(v any) float64 {
	f, _ := v.(float64)
	return f
}
