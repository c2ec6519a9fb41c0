package wsclient

// FrameKind classifies one incoming WebSocket message after a provider's
// WireCodec has parsed it, per §4.4's "event field vs feed field" rule.
type FrameKind int

const (
	KindUnknown FrameKind = iota
	KindChallenge
	KindSubscribed
	KindUnsubscribed
	KindError
	KindFeedData
	KindInfo
	KindServerPing
)

// Frame is the provider-agnostic shape a WireCodec reduces a raw message to.
type Frame struct {
	Kind      FrameKind
	Feed      string
	WaiterKey string
	Challenge string
	ErrMsg    string
	ErrCode   int
	Data      map[string]any
}

// AuthPayload carries whatever a WireCodec needs to attach to a private
// subscribe request — Kraken's signed-challenge triple, Binance's listen
// key — without the shared Session knowing which.
type AuthPayload struct {
	APIKey           string
	OriginalChallenge string
	SignedChallenge  string
	ListenKey        string
}

// WireCodec is supplied per-provider; the Session state machine never
// special-cases a provider directly (§4.4's Binance-variant note).
type WireCodec interface {
	// IsPrivateFeed reports whether feed requires authentication before
	// subscribing.
	IsPrivateFeed(feed string) bool

	// EncodeSubscribe returns the wire frame and the waiter key the
	// session should register to match the confirmation.
	EncodeSubscribe(feed string, productIDs []string, auth *AuthPayload) (frame []byte, waiterKey string)

	// EncodeUnsubscribe mirrors EncodeSubscribe for the unsubscribe path.
	EncodeUnsubscribe(feed string, productIDs []string) (frame []byte, waiterKey string)

	// EncodeKeepalivePing returns the client-initiated keep-alive frame,
	// or nil if this provider's keep-alive is server-initiated (Binance:
	// the session only needs to answer pings, never send them).
	EncodeKeepalivePing() []byte

	// Classify reduces a raw incoming message to a Frame.
	Classify(raw []byte) Frame
}
