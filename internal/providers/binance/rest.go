package binance

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	infracrypto "github.com/R3E-Network/scenario-engine/infrastructure/crypto"
	serviceerrors "github.com/R3E-Network/scenario-engine/infrastructure/errors"
	"github.com/R3E-Network/scenario-engine/infrastructure/httputil"
	"github.com/R3E-Network/scenario-engine/infrastructure/ratelimit"
	"github.com/R3E-Network/scenario-engine/infrastructure/resilience"
	"github.com/R3E-Network/scenario-engine/internal/taxonomy"
)

const restPathPrefix = "/fapi/v1"

// RESTConfig bundles the parameters needed to construct a REST Client.
type RESTConfig struct {
	BaseURL    string
	APIKey     string
	APISecret  string
	HTTPClient *http.Client
}

// Client is the signed Binance Futures REST client. Its REST signature
// discipline (plain HMAC-SHA256 over the query string, hex-encoded) differs
// from Kraken's SHA-256-then-HMAC-SHA-512 scheme, per §4.4's note that the
// two providers share the overall session algorithm but not the byte-level
// signing detail.
type Client struct {
	baseURL   string
	apiKey    string
	apiSecret string
	http      *ratelimit.RateLimitedClient
}

func NewClient(cfg RESTConfig) *Client {
	httpClient := httputil.CopyHTTPClientWithTimeout(cfg.HTTPClient, 10*time.Second, false)
	if cfg.HTTPClient == nil {
		httpClient.Transport = httputil.DefaultTransportWithMinTLS12()
	}
	return &Client{
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		http:      ratelimit.NewRateLimitedClient(httpClient, ratelimit.DefaultConfig()),
	}
}

func (c *Client) doSigned(ctx context.Context, method, path string, params url.Values) (map[string]any, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
	query := params.Encode()
	signature := infracrypto.SignHMACSHA256Hex(c.apiSecret, query)
	query += "&signature=" + signature

	fullURL := c.baseURL + path
	var body io.Reader
	if method == http.MethodPost || method == http.MethodPut || method == http.MethodDelete {
		body = strings.NewReader(query)
	} else {
		fullURL += "?" + query
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, serviceerrors.Internal("build request", err)
	}
	req.Header.Set("X-MBX-APIKEY", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return c.do(req)
}

func (c *Client) doKeyOnly(ctx context.Context, method, path string, params url.Values) (map[string]any, error) {
	fullURL := c.baseURL + path
	var body io.Reader
	if params != nil && (method == http.MethodPost || method == http.MethodPut) {
		body = strings.NewReader(params.Encode())
	} else if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, serviceerrors.Internal("build request", err)
	}
	req.Header.Set("X-MBX-APIKEY", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return c.do(req)
}

func (c *Client) doPublic(ctx context.Context, path string, params url.Values) (map[string]any, error) {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, serviceerrors.Internal("build request", err)
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) (map[string]any, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, serviceerrors.NoConnection(err.Error())
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, serviceerrors.Internal("read response body", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == 418 {
		return nil, serviceerrors.RateLimitExceeded(0, "").WithStatus(taxonomy.StatusRateLimited)
	}

	// Binance responses are either a bare JSON array/object payload on
	// success, or {"code": N, "msg": "..."} on error.
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		var arr []any
		if arrErr := json.Unmarshal(raw, &arr); arrErr == nil {
			return map[string]any{"items": arr}, nil
		}
		return nil, serviceerrors.Internal("parse response body", err)
	}

	if codeVal, hasCode := m["code"]; hasCode {
		code := int(toFloat(codeVal))
		if code != 0 {
			msg, _ := m["msg"].(string)
			svcErr := serviceerrors.ExternalAPIError("binance", errStr(code, msg))
			svcErr.WithStatus(taxonomy.MapBinanceCode(code))
			return m, svcErr
		}
	}
	return m, nil
}

func errStr(code int, msg string) error {
	return &binanceError{code: code, msg: msg}
}

type binanceError struct {
	code int
	msg  string
}

func (e *binanceError) Error() string { return strconv.Itoa(e.code) + ": " + e.msg }

// NewOrder submits an order via POST /fapi/v1/order.
func (c *Client) NewOrder(ctx context.Context, params map[string]string) (map[string]any, error) {
	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	return c.doSigned(ctx, http.MethodPost, restPathPrefix+"/order", form)
}

// NewOrderPostOnlyRetry resubmits a GTX (post-only) order while the
// failure is retryable per §4.6's IsRetryable predicate, mirroring
// kraken.Client.SendOrderPostOnlyRetry's retry discipline.
func (c *Client) NewOrderPostOnlyRetry(ctx context.Context, params map[string]string, maxAttempts int) (map[string]any, error) {
	var out map[string]any
	cfg := resilience.RetryConfig{
		MaxAttempts:  maxAttempts,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.1,
	}
	err := resilience.Retry(ctx, cfg, func() error {
		result, sendErr := c.NewOrder(ctx, params)
		if sendErr == nil {
			out = result
			return nil
		}
		if svcErr := serviceerrors.GetServiceError(sendErr); svcErr != nil && !taxonomy.IsRetryable(svcErr.Status) {
			return &nonRetryableErr{err: sendErr}
		}
		return sendErr
	})
	if nr, ok := err.(*nonRetryableErr); ok {
		return nil, nr.err
	}
	return out, err
}

type nonRetryableErr struct{ err error }

func (e *nonRetryableErr) Error() string { return e.err.Error() }
func (e *nonRetryableErr) Unwrap() error { return e.err }

// CancelOrder cancels an order via DELETE /fapi/v1/order.
func (c *Client) CancelOrder(ctx context.Context, symbol string, orderID string) (map[string]any, error) {
	form := url.Values{"symbol": {symbol}, "orderId": {orderID}}
	return c.doSigned(ctx, http.MethodDelete, restPathPrefix+"/order", form)
}

// GetOpenOrders fetches open orders, optionally scoped to a symbol.
func (c *Client) GetOpenOrders(ctx context.Context, symbol string) (map[string]any, error) {
	form := url.Values{}
	if symbol != "" {
		form.Set("symbol", symbol)
	}
	return c.doSigned(ctx, http.MethodGet, restPathPrefix+"/openOrders", form)
}

// GetPositionRisk fetches the account's current position risk report.
func (c *Client) GetPositionRisk(ctx context.Context, symbol string) (map[string]any, error) {
	form := url.Values{}
	if symbol != "" {
		form.Set("symbol", symbol)
	}
	return c.doSigned(ctx, "GET", "/fapi/v2/positionRisk", form)
}

// GetAccountBalance fetches the account's futures wallet balances.
func (c *Client) GetAccountBalance(ctx context.Context) (map[string]any, error) {
	return c.doSigned(ctx, http.MethodGet, "/fapi/v2/balance", nil)
}

// CreateListenKey opens a user-data stream listen key (POST
// /fapi/v1/listenKey) — authenticated by API key alone, no signature.
func (c *Client) CreateListenKey(ctx context.Context) (string, error) {
	m, err := c.doKeyOnly(ctx, http.MethodPost, restPathPrefix+"/listenKey", nil)
	if err != nil {
		return "", err
	}
	key, _ := m["listenKey"].(string)
	if key == "" {
		return "", serviceerrors.Internal("listen key response missing listenKey field", nil)
	}
	return key, nil
}

// KeepAliveListenKey refreshes a listen key's 60-minute expiry (PUT
// /fapi/v1/listenKey), needed alongside the WebSocket keep-alive timer.
func (c *Client) KeepAliveListenKey(ctx context.Context) error {
	_, err := c.doKeyOnly(ctx, http.MethodPut, restPathPrefix+"/listenKey", nil)
	return err
}

// Ticker is the bid/ask/last triple dynamic-sentinel resolution (§4.5 step 6)
// reads market data from.
type Ticker struct {
	Symbol string
	Bid    float64
	Ask    float64
	Last   float64
}

// GetTicker combines the book ticker (bid/ask) and the last-price ticker
// endpoints into the Bid/Ask/Last triple dynamic sentinels need.
func (c *Client) GetTicker(ctx context.Context, symbol string) (*Ticker, error) {
	book, err := c.doPublic(ctx, restPathPrefix+"/ticker/bookTicker", url.Values{"symbol": {symbol}})
	if err != nil {
		return nil, err
	}
	price, err := c.doPublic(ctx, restPathPrefix+"/ticker/price", url.Values{"symbol": {symbol}})
	if err != nil {
		return nil, err
	}
	return &Ticker{
		Symbol: symbol,
		Bid:    toFloatFromAny(book["bidPrice"]),
		Ask:    toFloatFromAny(book["askPrice"]),
		Last:   toFloatFromAny(price["price"]),
	}, nil
}

func toFloatFromAny(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		f, _ := strconv.ParseFloat(n, 64)
		return f
	default:
		return 0
	}
}
