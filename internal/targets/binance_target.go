package targets

import (
	"context"

	"github.com/R3E-Network/scenario-engine/internal/providers/binance"
)

// BinanceClient wraps binance.Client with the ctx-free method surface
// InvokeMethod's arity dispatch expects — see KrakenClient's doc comment.
type BinanceClient struct {
	rest *binance.Client
}

// NewBinanceClient adapts an already-constructed REST client.
func NewBinanceClient(rest *binance.Client) *BinanceClient {
	return &BinanceClient{rest: rest}
}

// SendOrder submits an order via the scenario's top-level order-field
// parameters (symbol, side, type, quantity, ...).
func (b *BinanceClient) SendOrder(params map[string]any) (map[string]any, error) {
	return b.rest.NewOrder(context.Background(), stringifyParams(params))
}

// SendOrderPostOnlyRetry mirrors kraken.Client.SendOrderPostOnlyRetry so
// scenarios can address either provider's post-only retry path the same
// way: a single map of order fields plus a maxAttempts count, collapsed by
// InvokeMethod's arity-2 policy into two positional arguments (sorted by
// parameter key, per registry.orderedValues) when the scenario supplies
// both "params" and "maxAttempts" keys.
func (b *BinanceClient) SendOrderPostOnlyRetry(params map[string]any, maxAttempts float64) (map[string]any, error) {
	return b.rest.NewOrderPostOnlyRetry(context.Background(), stringifyParams(params), int(maxAttempts))
}

// CancelOrder cancels a single order, addressed by "symbol" and "orderId".
func (b *BinanceClient) CancelOrder(params map[string]any) (map[string]any, error) {
	symbol, _ := params["symbol"].(string)
	orderID := toParamString(params["orderId"])
	return b.rest.CancelOrder(context.Background(), symbol, orderID)
}

// GetOpenOrders lists open orders, optionally scoped to a symbol.
func (b *BinanceClient) GetOpenOrders(symbol string) (map[string]any, error) {
	return b.rest.GetOpenOrders(context.Background(), symbol)
}

// GetPositionRisk reports current position risk, optionally scoped to a
// symbol.
func (b *BinanceClient) GetPositionRisk(symbol string) (map[string]any, error) {
	return b.rest.GetPositionRisk(context.Background(), symbol)
}

// GetAccountBalance takes no parameters.
func (b *BinanceClient) GetAccountBalance() (map[string]any, error) {
	return b.rest.GetAccountBalance(context.Background())
}

// Ticker implements MarketData.
func (b *BinanceClient) Ticker(ctx context.Context, instrument string) (Ticker, error) {
	t, err := b.rest.GetTicker(ctx, instrument)
	if err != nil {
		return Ticker{}, err
	}
	return tickerFromBinance(t), nil
}
