package targets

import (
	"context"

	"github.com/R3E-Network/scenario-engine/internal/providers/kraken"
)

// KrakenClient wraps kraken.Client with the ctx-free method surface
// InvokeMethod's arity dispatch (internal/registry) expects: scenario
// parameter maps become the sole, non-context argument. A background
// context is used for the underlying REST calls since scenarios do not
// carry their own per-step context down through InvokeMethod — the
// orchestrator's combined timeout context governs the scenario as a
// whole instead (§5).
type KrakenClient struct {
	rest *kraken.Client
}

// NewKrakenClient adapts an already-constructed REST client.
func NewKrakenClient(rest *kraken.Client) *KrakenClient {
	return &KrakenClient{rest: rest}
}

// SendOrder submits an order. Scenarios typically declare the order's
// fields (symbol, side, size, orderType, ...) as top-level step
// parameters, which InvokeMethod's arity-1 policy collapses into this
// single map argument.
func (k *KrakenClient) SendOrder(params map[string]any) (map[string]any, error) {
	return k.rest.SendOrder(context.Background(), stringifyParams(params))
}

// SendOrderPostOnlyRetry resubmits a post-only order up to maxAttempts
// times while the failure is retryable, per §4.6's IsRetryable predicate.
func (k *KrakenClient) SendOrderPostOnlyRetry(params map[string]any, maxAttempts float64) (map[string]any, error) {
	return k.rest.SendOrderPostOnlyRetry(context.Background(), stringifyParams(params), int(maxAttempts))
}

// CancelOrder cancels a single order by ID, addressed by the scenario's
// single "orderId" parameter.
func (k *KrakenClient) CancelOrder(orderID string) (map[string]any, error) {
	return k.rest.CancelOrder(context.Background(), orderID)
}

// CancelAllOrders cancels every open order, optionally scoped to symbol
// (empty string cancels across all symbols).
func (k *KrakenClient) CancelAllOrders(symbol string) (map[string]any, error) {
	return k.rest.CancelAllOrders(context.Background(), symbol)
}

// GetOpenOrders takes no parameters, matching InvokeMethod's arity-0 case.
func (k *KrakenClient) GetOpenOrders() (map[string]any, error) {
	return k.rest.GetOpenOrders(context.Background())
}

// GetOpenPositions takes no parameters.
func (k *KrakenClient) GetOpenPositions() (map[string]any, error) {
	return k.rest.GetOpenPositions(context.Background())
}

// GetAccounts takes no parameters.
func (k *KrakenClient) GetAccounts() (map[string]any, error) {
	return k.rest.GetAccounts(context.Background())
}

// Ticker implements MarketData, used directly by the orchestrator rather
// than through InvokeMethod, so it keeps the idiomatic ctx-first shape.
func (k *KrakenClient) Ticker(ctx context.Context, instrument string) (Ticker, error) {
	t, err := k.rest.GetTicker(ctx, instrument)
	if err != nil {
		return Ticker{}, err
	}
	return tickerFromKraken(t), nil
}

func stringifyParams(params map[string]any) map[string]string {
	out := make(map[string]string, len(params))
	for k, v := range params {
		if s, ok := v.(string); ok {
			out[k] = s
			continue
		}
		out[k] = toParamString(v)
	}
	return out
}
