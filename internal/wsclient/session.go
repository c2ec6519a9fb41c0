// Package wsclient implements the WebSocket session state machine (C4):
// connect/auth/subscribe/resubscribe/reconnect, shared by the Kraken and
// Binance provider adapters through a per-provider WireCodec.
package wsclient

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/R3E-Network/scenario-engine/infrastructure/logging"
	"github.com/R3E-Network/scenario-engine/infrastructure/resilience"
)

// State is the session's connection state, per §4.4's state table.
type State string

const (
	StateDisconnected State = "DISCONNECTED"
	StateConnecting   State = "CONNECTING"
	StateConnected    State = "CONNECTED"
	StateReconnecting State = "RECONNECTING"
	StateError        State = "ERROR"
)

// Conn is the minimal WebSocket connection surface the Session needs.
// gorilla/websocket's *websocket.Conn satisfies it; tests use a fake.
type Conn interface {
	ReadMessage() (messageType int, data []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Dialer opens a new Conn to url.
type Dialer func(ctx context.Context, url string) (Conn, error)

// Authenticator performs a provider's authentication handshake (challenge-
// response for Kraken, listen-key issuance for Binance) and returns the
// AuthPayload attached to subsequent private subscribe requests.
type Authenticator interface {
	Authenticate(ctx context.Context, send func([]byte) error, recv <-chan Frame) (*AuthPayload, error)
}

const (
	subscribeTimeout   = 10 * time.Second
	authTimeout        = 5 * time.Second
	maxReconnectTries  = 10
	reconnectInitial   = 1 * time.Second
	reconnectCap       = 30 * time.Second
)

type subscription struct {
	feed       string
	productIDs map[string]struct{}
	refCount   int
	confirmed  bool
	callbacks  map[int]func(map[string]any)
	nextHandle int
}

// Handle lets a caller revoke exactly the callback it registered.
type Handle struct {
	feed string
	id   int
}

// Session is one provider-agnostic WebSocket connection plus its
// subscription bookkeeping. Its subscription map is mutex-guarded because
// the reader goroutine and the public Subscribe/Unsubscribe API run
// concurrently (§5's one documented exception to "no mutex needed").
type Session struct {
	url            string
	provider       string
	dial           Dialer
	codec          WireCodec
	authenticator  Authenticator
	autoReconnect  bool
	logger         *logging.Logger

	mu            sync.Mutex
	state         State
	conn          Conn
	subs          map[string]*subscription
	auth          *AuthPayload
	authenticated bool
	attempts      int

	pendingMu sync.Mutex
	pending   map[string]chan Frame

	frameCh chan Frame
	done    chan struct{}
	closeOnce sync.Once
}

// Config bundles the construction parameters for a Session.
type Config struct {
	Provider      string
	URL           string
	Dial          Dialer
	Codec         WireCodec
	Authenticator Authenticator
	AutoReconnect bool
	Logger        *logging.Logger
}

// New constructs a Session in the DISCONNECTED state.
func New(cfg Config) *Session {
	return &Session{
		url:           cfg.URL,
		provider:      cfg.Provider,
		dial:          cfg.Dial,
		codec:         cfg.Codec,
		authenticator: cfg.Authenticator,
		autoReconnect: cfg.AutoReconnect,
		logger:        cfg.Logger,
		state:         StateDisconnected,
		subs:          make(map[string]*subscription),
		pending:       make(map[string]chan Frame),
		frameCh:       make(chan Frame, 256),
		done:          make(chan struct{}),
	}
}

// State returns the session's current connection state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connect opens the socket, transitioning DISCONNECTED -> CONNECTING ->
// CONNECTED (or -> ERROR on failure). A fresh Connect resets the reconnect
// attempt counter.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	s.state = StateConnecting
	s.mu.Unlock()

	conn, err := s.dial(ctx, s.url)
	if err != nil {
		s.mu.Lock()
		s.state = StateError
		s.mu.Unlock()
		return fmt.Errorf("connect: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.state = StateConnected
	s.attempts = 0
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.LogWebSocketEvent(ctx, s.provider, s.url, "connected", nil)
	}

	go s.readLoop()
	return nil
}

// Disconnect sends a clean close and tears down session state, including
// every confirmed/pending subscription and the authentication payload.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	conn := s.conn
	s.state = StateDisconnected
	s.subs = make(map[string]*subscription)
	s.auth = nil
	s.authenticated = false
	s.mu.Unlock()

	s.closeOnce.Do(func() { close(s.done) })

	if conn != nil {
		_ = conn.WriteMessage(8 /* CloseMessage */, nil)
		return conn.Close()
	}
	return nil
}

func (s *Session) readLoop() {
	for {
		s.mu.Lock()
		conn := s.conn
		s.mu.Unlock()
		if conn == nil {
			return
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			s.handleSocketClose()
			return
		}

		frame := s.codec.Classify(data)
		s.dispatch(frame)
	}
}

func (s *Session) dispatch(frame Frame) {
	switch frame.Kind {
	case KindChallenge:
		s.resolvePending("challenge", frame)
	case KindSubscribed, KindUnsubscribed, KindError:
		if frame.WaiterKey != "" {
			s.resolvePending(frame.WaiterKey, frame)
		}
		if frame.Kind == KindSubscribed {
			s.confirmSubscription(frame.Feed)
		}
	case KindFeedData:
		s.deliverFeedData(frame)
	case KindServerPing:
		s.mu.Lock()
		conn := s.conn
		s.mu.Unlock()
		if conn != nil {
			_ = conn.WriteMessage(10 /* PongMessage */, nil)
		}
	}
}

func (s *Session) resolvePending(key string, frame Frame) {
	s.pendingMu.Lock()
	ch, ok := s.pending[key]
	if ok {
		delete(s.pending, key)
	}
	s.pendingMu.Unlock()
	if ok {
		select {
		case ch <- frame:
		default:
		}
	}
}

func (s *Session) registerPending(key string) <-chan Frame {
	ch := make(chan Frame, 1)
	s.pendingMu.Lock()
	s.pending[key] = ch
	s.pendingMu.Unlock()
	return ch
}

func (s *Session) confirmSubscription(feed string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub, ok := s.subs[feed]; ok {
		sub.confirmed = true
	}
}

func (s *Session) deliverFeedData(frame Frame) {
	s.mu.Lock()
	sub, ok := s.subs[frame.Feed]
	var callbacks []func(map[string]any)
	if ok {
		for _, cb := range sub.callbacks {
			callbacks = append(callbacks, cb)
		}
	}
	s.mu.Unlock()

	for _, cb := range callbacks {
		cb(frame.Data)
	}
}

// Subscribe registers callback for feed/productIDs. Only the 0->1
// reference-count transition sends a wire-level subscribe; later callers
// on the same (feed, productIDs) just stack a callback.
func (s *Session) Subscribe(ctx context.Context, feed string, productIDs []string, callback func(map[string]any)) (Handle, error) {
	s.mu.Lock()
	sub, exists := s.subs[feed]
	if !exists {
		sub = &subscription{
			feed:       feed,
			productIDs: toSet(productIDs),
			callbacks:  make(map[int]func(map[string]any)),
		}
		s.subs[feed] = sub
	} else {
		for _, id := range productIDs {
			sub.productIDs[id] = struct{}{}
		}
	}
	sub.refCount++
	handleID := sub.nextHandle
	sub.nextHandle++
	sub.callbacks[handleID] = callback
	firstSubscriber := sub.refCount == 1
	s.mu.Unlock()

	if !firstSubscriber {
		return Handle{feed: feed, id: handleID}, nil
	}

	if err := s.ensureAuthFor(ctx, feed); err != nil {
		s.removeCallback(feed, handleID)
		return Handle{}, fmt.Errorf("authenticate before subscribe: %w", err)
	}

	s.mu.Lock()
	auth := s.auth
	s.mu.Unlock()

	frameBytes, waiterKey := s.codec.EncodeSubscribe(feed, productIDs, auth)
	waitCh := s.registerPending(waiterKey)

	if err := s.send(frameBytes); err != nil {
		s.removeCallback(feed, handleID)
		return Handle{}, fmt.Errorf("send subscribe: %w", err)
	}

	select {
	case frame := <-waitCh:
		if frame.Kind == KindError {
			s.removeCallback(feed, handleID)
			return Handle{}, fmt.Errorf("subscribe %s rejected: %s", feed, frame.ErrMsg)
		}
		if s.logger != nil {
			s.logger.LogSubscriptionChange(ctx, s.provider, feed, 1, "SUBSCRIBE")
		}
		return Handle{feed: feed, id: handleID}, nil
	case <-time.After(subscribeTimeout):
		s.removeCallback(feed, handleID)
		return Handle{}, fmt.Errorf("subscribe %s timed out", feed)
	}
}

// Unsubscribe revokes exactly the callback identified by h. The wire-level
// unsubscribe is sent only when the reference count drops to zero.
func (s *Session) Unsubscribe(ctx context.Context, h Handle) error {
	s.mu.Lock()
	sub, ok := s.subs[h.feed]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	delete(sub.callbacks, h.id)
	sub.refCount--
	lastSubscriber := sub.refCount <= 0
	productIDs := setToSlice(sub.productIDs)
	if lastSubscriber {
		delete(s.subs, h.feed)
	}
	s.mu.Unlock()

	if !lastSubscriber {
		return nil
	}

	frameBytes, waiterKey := s.codec.EncodeUnsubscribe(h.feed, productIDs)
	waitCh := s.registerPending(waiterKey)
	if err := s.send(frameBytes); err != nil {
		return fmt.Errorf("send unsubscribe: %w", err)
	}

	select {
	case <-waitCh:
		if s.logger != nil {
			s.logger.LogSubscriptionChange(ctx, s.provider, h.feed, 0, "UNSUBSCRIBE")
		}
		return nil
	case <-time.After(subscribeTimeout):
		return fmt.Errorf("unsubscribe %s timed out", h.feed)
	}
}

func (s *Session) removeCallback(feed string, id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub, ok := s.subs[feed]; ok {
		delete(sub.callbacks, id)
		sub.refCount--
		if sub.refCount <= 0 {
			delete(s.subs, feed)
		}
	}
}

// GetSubscriptions returns the confirmed feed->productIDs set, which is the
// ground truth for reconnection resubscribe — not the callback set.
func (s *Session) GetSubscriptions() map[string][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getSubscriptionsLocked()
}

// getSubscriptionsLocked is GetSubscriptions' body for callers that already
// hold s.mu — sync.Mutex is not reentrant, so GetSubscriptions itself must
// never be called while s.mu is held.
func (s *Session) getSubscriptionsLocked() map[string][]string {
	out := make(map[string][]string, len(s.subs))
	for feed, sub := range s.subs {
		if sub.confirmed {
			out[feed] = setToSlice(sub.productIDs)
		}
	}
	return out
}

func (s *Session) ensureAuthFor(ctx context.Context, feed string) error {
	if !s.codec.IsPrivateFeed(feed) {
		return nil
	}

	s.mu.Lock()
	already := s.authenticated
	s.mu.Unlock()
	if already {
		return nil
	}
	if s.authenticator == nil {
		return fmt.Errorf("feed %s requires authentication but no Authenticator configured", feed)
	}

	authCtx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	waitCh := s.registerPending("challenge")
	payload, err := s.authenticator.Authenticate(authCtx, s.send, waitCh)
	if err != nil {
		s.mu.Lock()
		s.state = StateError
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.auth = payload
	s.authenticated = true
	s.mu.Unlock()
	return nil
}

func (s *Session) send(data []byte) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("not connected")
	}
	return conn.WriteMessage(1 /* TextMessage */, data)
}

// SendKeepalive writes the provider's client-initiated keep-alive frame, if
// any. Callers run this from a ticker while State() == CONNECTED.
func (s *Session) SendKeepalive() error {
	ping := s.codec.EncodeKeepalivePing()
	if ping == nil {
		return nil
	}
	return s.send(ping)
}

func (s *Session) handleSocketClose() {
	s.mu.Lock()
	wasConnected := s.state == StateConnected
	confirmed := s.getSubscriptionsLocked()
	s.state = StateReconnecting
	attempts := s.attempts
	s.mu.Unlock()

	if !wasConnected || !s.autoReconnect || attempts >= maxReconnectTries {
		s.mu.Lock()
		s.state = StateDisconnected
		s.mu.Unlock()
		return
	}

	s.reconnectLoop(confirmed)
}

func (s *Session) reconnectLoop(previouslyConfirmed map[string][]string) {
	ctx := context.Background()
	cfg := resilience.RetryConfig{
		MaxAttempts:  maxReconnectTries,
		InitialDelay: reconnectInitial,
		MaxDelay:     reconnectCap,
		Multiplier:   2.0,
	}

	attempt := 0
	err := resilience.Retry(ctx, cfg, func() error {
		attempt++
		s.mu.Lock()
		s.attempts = attempt
		s.state = StateConnecting
		s.mu.Unlock()

		conn, dialErr := s.dial(ctx, s.url)
		if dialErr != nil {
			return dialErr
		}

		s.mu.Lock()
		s.conn = conn
		s.state = StateConnected
		wasAuthed := s.authenticated
		s.auth = nil
		s.authenticated = false
		s.mu.Unlock()

		go s.readLoop()

		if wasAuthed {
			if authErr := s.reauthenticate(ctx); authErr != nil {
				return authErr
			}
		}

		for feed, productIDs := range previouslyConfirmed {
			frameBytes, waiterKey := s.codec.EncodeSubscribe(feed, productIDs, s.currentAuth())
			waitCh := s.registerPending(waiterKey)
			if sendErr := s.send(frameBytes); sendErr != nil {
				return sendErr
			}
			select {
			case <-waitCh:
			case <-time.After(subscribeTimeout):
				return fmt.Errorf("resubscribe %s timed out", feed)
			}
		}
		return nil
	})

	if err != nil {
		s.mu.Lock()
		s.state = StateDisconnected
		s.mu.Unlock()
	}
}

// reauthenticate re-runs the authentication handshake unconditionally after
// a reconnect, mirroring ensureAuthFor but without the IsPrivateFeed gate —
// a reconnect that was previously authenticated always re-authenticates
// before resubscribing (§4.4's state table: "re-authenticate if previously
// auth'd, then re-request every confirmed subscription").
func (s *Session) reauthenticate(ctx context.Context) error {
	if s.authenticator == nil {
		return fmt.Errorf("session was authenticated but no Authenticator configured")
	}

	authCtx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	waitCh := s.registerPending("challenge")
	payload, err := s.authenticator.Authenticate(authCtx, s.send, waitCh)
	if err != nil {
		s.mu.Lock()
		s.state = StateError
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.auth = payload
	s.authenticated = true
	s.mu.Unlock()
	return nil
}

func (s *Session) currentAuth() *AuthPayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.auth
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func setToSlice(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}
