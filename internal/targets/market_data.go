// Package targets adapts the provider REST clients into the shape the
// registry's reflection-based InvokeMethod dispatch (internal/registry)
// expects: methods with no leading context.Context parameter, since
// InvokeMethod's five-way arity policy counts scenario parameters against
// a method's full parameter list. The raw REST clients in
// internal/providers/{kraken,binance} stay idiomatic Go (ctx-first) and are
// used directly wherever context propagation matters — by their own tests
// and by the orchestrator's market-data lookups, which go through
// MarketData rather than InvokeMethod.
package targets

import (
	"context"

	"github.com/R3E-Network/scenario-engine/internal/providers/binance"
	"github.com/R3E-Network/scenario-engine/internal/providers/kraken"
)

// Ticker is the provider-agnostic bid/ask/last triple the orchestrator's
// dynamic parameter sentinels (§4.5 step 6) read from.
type Ticker struct {
	Symbol string
	Bid    float64
	Ask    float64
	Last   float64
}

// MarketData is implemented by both provider REST clients. The
// orchestrator resolves it through the registry by type-asserting the
// scenario's target instance, bypassing InvokeMethod entirely.
type MarketData interface {
	Ticker(ctx context.Context, instrument string) (Ticker, error)
}

func tickerFromKraken(t *kraken.Ticker) Ticker {
	return Ticker{Symbol: t.Symbol, Bid: t.Bid, Ask: t.Ask, Last: t.Last}
}

func tickerFromBinance(t *binance.Ticker) Ticker {
	return Ticker{Symbol: t.Symbol, Bid: t.Bid, Ask: t.Ask, Last: t.Last}
}
