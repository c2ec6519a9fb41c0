package orchestrator

import (
	"fmt"
	"math"
	"time"

	"github.com/R3E-Network/scenario-engine/internal/targets"
)

// sentinel is the enumerated type §9 prescribes in place of matching
// against ad hoc strings scattered through the resolver: a fixed set of
// ten members (nine $DYNAMIC_* plus $FUTURE_TIMESTAMP), resolved by an
// exhaustive switch.
type sentinel string

const (
	sentinelLimitBuy       sentinel = "$DYNAMIC_LIMIT_BUY"
	sentinelLimitSell      sentinel = "$DYNAMIC_LIMIT_SELL"
	sentinelMarketableBuy  sentinel = "$DYNAMIC_MARKETABLE_BUY"
	sentinelMarketableSell sentinel = "$DYNAMIC_MARKETABLE_SELL"
	sentinelGTXBuy         sentinel = "$DYNAMIC_GTX_BUY"
	sentinelGTXSell        sentinel = "$DYNAMIC_GTX_SELL"
	sentinelStopBuy        sentinel = "$DYNAMIC_STOP_BUY"
	sentinelStopSell       sentinel = "$DYNAMIC_STOP_SELL"
	sentinelMinNotional    sentinel = "$DYNAMIC_MIN_NOTIONAL"
	sentinelFutureTS       sentinel = "$FUTURE_TIMESTAMP"
)

var allSentinels = map[string]sentinel{
	string(sentinelLimitBuy):       sentinelLimitBuy,
	string(sentinelLimitSell):      sentinelLimitSell,
	string(sentinelMarketableBuy):  sentinelMarketableBuy,
	string(sentinelMarketableSell): sentinelMarketableSell,
	string(sentinelGTXBuy):         sentinelGTXBuy,
	string(sentinelGTXSell):        sentinelGTXSell,
	string(sentinelStopBuy):        sentinelStopBuy,
	string(sentinelStopSell):       sentinelStopSell,
	string(sentinelMinNotional):    sentinelMinNotional,
	string(sentinelFutureTS):       sentinelFutureTS,
}

// isDynamicSentinel reports whether s is one of the nine recognised
// sentinel strings.
func isDynamicSentinel(s string) bool {
	_, ok := allSentinels[s]
	return ok
}

// resolveSentinel computes a sentinel's replacement value from a market
// ticker snapshot, per §4.5 step 6's fixed formula table. A resolution
// failure (e.g. $DYNAMIC_MIN_NOTIONAL against a zero last price) returns
// an error — the caller must fail the scenario, never fall back to the
// literal sentinel string.
func resolveSentinel(s sentinel, ticker targets.Ticker) (any, error) {
	switch s {
	case sentinelLimitBuy:
		return round2(ticker.Ask * 0.95), nil
	case sentinelLimitSell:
		return round2(ticker.Bid * 1.05), nil
	case sentinelMarketableBuy:
		return ticker.Ask * 1.02, nil
	case sentinelMarketableSell:
		return ticker.Bid * 0.98, nil
	case sentinelGTXBuy:
		return ticker.Bid * 0.999, nil
	case sentinelGTXSell:
		return ticker.Ask * 1.001, nil
	case sentinelStopBuy:
		return ticker.Last * 1.05, nil
	case sentinelStopSell:
		return ticker.Last * 0.95, nil
	case sentinelMinNotional:
		if ticker.Last == 0 {
			return nil, fmt.Errorf("cannot resolve %s: last price is zero", s)
		}
		return 105.0 / ticker.Last, nil
	case sentinelFutureTS:
		return time.Now().Add(24 * time.Hour).UnixMilli(), nil
	default:
		return nil, fmt.Errorf("unrecognised dynamic sentinel %q", s)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// resolveDynamicSentinels rewrites every top-level string value in params
// that is one of the nine recognised sentinels, using ticker for the
// bid/ask/last inputs the formulas need. Non-sentinel values pass through
// unchanged.
func resolveDynamicSentinels(params map[string]any, ticker targets.Ticker) (map[string]any, error) {
	out := make(map[string]any, len(params))
	for k, v := range params {
		s, isString := v.(string)
		if !isString {
			out[k] = v
			continue
		}
		sent, ok := allSentinels[s]
		if !ok {
			out[k] = v
			continue
		}
		resolved, err := resolveSentinel(sent, ticker)
		if err != nil {
			return nil, fmt.Errorf("resolve parameter %q: %w", k, err)
		}
		out[k] = resolved
	}
	return out, nil
}
