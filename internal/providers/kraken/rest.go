package kraken

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	infracrypto "github.com/R3E-Network/scenario-engine/infrastructure/crypto"
	serviceerrors "github.com/R3E-Network/scenario-engine/infrastructure/errors"
	"github.com/R3E-Network/scenario-engine/infrastructure/httputil"
	"github.com/R3E-Network/scenario-engine/infrastructure/ratelimit"
	"github.com/R3E-Network/scenario-engine/infrastructure/resilience"
	"github.com/R3E-Network/scenario-engine/internal/taxonomy"
)

const apiPathPrefix = "/derivatives/api/v3"

// RESTConfig bundles the parameters needed to construct a REST Client.
type RESTConfig struct {
	BaseURL    string
	APIKey     string
	APISecret  string
	HTTPClient *http.Client
}

// Client is the signed Kraken Futures REST client (§4.4/§6). A single
// client is shared by setup/cleanup steps, the primary target method, and
// dynamic-sentinel market-data lookups.
type Client struct {
	baseURL   string
	apiKey    string
	apiSecret string
	http      *ratelimit.RateLimitedClient

	nonceMu  sync.Mutex
	lastNonce int64
}

// NewClient constructs a REST client rate-limited to Kraken Futures' public
// tier defaults; callers needing the authenticated tier's higher ceiling can
// construct their own ratelimit.RateLimiter separately.
func NewClient(cfg RESTConfig) *Client {
	httpClient := httputil.CopyHTTPClientWithTimeout(cfg.HTTPClient, 30*time.Second, false)
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

// nextNonce returns a monotonically non-decreasing millisecond nonce, per
// §4.4's requirement — the current timestamp is used unless it would not
// advance on the previous call, in which case it is bumped by one.
func (c *Client) nextNonce() int64 {
	c.nonceMu.Lock()
	defer c.nonceMu.Unlock()
	now := time.Now().UnixMilli()
	if now <= c.lastNonce {
		now = c.lastNonce + 1
	}
	c.lastNonce = now
	return now
}

// result is the shape of a Kraken Futures REST response per §6: either
// {"result": "success", ...payload} or {"result": <errorCode>, errors?}.
// Absence of "result" is treated as success if the body otherwise parses.
type result struct {
	Result string   `json:"result"`
	Errors []string `json:"errors"`
	raw    map[string]any
}

func (c *Client) doSigned(ctx context.Context, method, endpointPath string, form url.Values) (map[string]any, error) {
	if form == nil {
		form = url.Values{}
	}
	postData := form.Encode()
	nonce := strconv.FormatInt(c.nextNonce(), 10)

	signature, err := infracrypto.SignRESTRequest(c.apiSecret, postData, nonce, endpointPath)
	if err != nil {
		return nil, serviceerrors.SigningFailed(err)
	}

	fullURL := c.baseURL + endpointPath
	var body io.Reader
	if method == http.MethodPost || method == http.MethodPut {
		body = strings.NewReader(postData)
	} else if postData != "" {
		fullURL += "?" + postData
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, serviceerrors.Internal("build request", err)
	}
	req.Header.Set("APIKey", c.apiKey)
	req.Header.Set("Nonce", nonce)
	req.Header.Set("Authent", signature)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	return c.do(req)
}

func (c *Client) doPublic(ctx context.Context, endpointPath string, query url.Values) (map[string]any, error) {
	fullURL := c.baseURL + endpointPath
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
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

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, serviceerrors.Internal("parse response body", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, serviceerrors.RateLimitExceeded(0, "").WithStatus(taxonomy.StatusRateLimited)
	}
	if resp.StatusCode >= 500 {
		return nil, serviceerrors.ServiceDown("kraken").WithStatus(taxonomy.StatusServiceUnavailable)
	}

	if res, ok := m["result"].(string); ok && res != "success" {
		return m, c.errorFromResult(m, res)
	}
	return m, nil
}

func (c *Client) errorFromResult(m map[string]any, code string) error {
	var errMsgs []string
	if rawErrors, ok := m["errors"].([]any); ok {
		for _, e := range rawErrors {
			errMsgs = append(errMsgs, fmt.Sprint(e))
		}
	}
	svcErr := serviceerrors.ExternalAPIError("kraken", fmt.Errorf("%s: %s", code, strings.Join(errMsgs, "; ")))
	svcErr.WithStatus(mapKrakenResultCode(code))
	return svcErr
}

// mapKrakenResultCode translates a Kraken Futures string error code into the
// taxonomy. Kraken Futures result codes are short strings rather than the
// signed integers the REDESIGN-adjacent §4.6 table enumerates for Binance;
// this function bridges the string-coded cases the Futures REST API
// actually returns to the shared taxonomy.Status set.
func mapKrakenResultCode(code string) taxonomy.Status {
	switch code {
	case "authenticationError", "apiKeyInvalid", "invalidSignature":
		return taxonomy.StatusUnauthorized
	case "rateLimitReached":
		return taxonomy.StatusRateLimited
	case "requiredArgumentMissing", "invalidArgument":
		return taxonomy.StatusBadParameters
	case "insufficientAvailableFunds", "marginLimitExceeded":
		return taxonomy.StatusBadPrerequisites
	case "orderForEditNotFound", "cancelOrderNotFound":
		return taxonomy.StatusNotFound
	case "reduceOnlyOrderExists":
		return taxonomy.StatusAlready
	case "serverError", "unavailable":
		return taxonomy.StatusServiceUnavailable
	default:
		return taxonomy.StatusUnexpected
	}
}

// SendOrder submits an order via POST /derivatives/api/v3/sendorder.
func (c *Client) SendOrder(ctx context.Context, params map[string]string) (map[string]any, error) {
	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	return c.doSigned(ctx, http.MethodPost, apiPathPrefix+"/sendorder", form)
}

// SendOrderPostOnlyRetry resubmits a post-only order while the failure is
// retryable per §4.6's IsRetryable predicate — the sole authority any retry
// loop in this codebase is permitted to consult.
func (c *Client) SendOrderPostOnlyRetry(ctx context.Context, params map[string]string, maxAttempts int) (map[string]any, error) {
	var out map[string]any
	cfg := resilience.RetryConfig{
		MaxAttempts:  maxAttempts,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.1,
	}
	err := resilience.Retry(ctx, cfg, func() error {
		result, sendErr := c.SendOrder(ctx, params)
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

// CancelOrder cancels a single order by ID.
func (c *Client) CancelOrder(ctx context.Context, orderID string) (map[string]any, error) {
	form := url.Values{"order_id": {orderID}}
	return c.doSigned(ctx, http.MethodPost, apiPathPrefix+"/cancelorder", form)
}

// CancelAllOrders cancels every open order, optionally scoped to a symbol.
func (c *Client) CancelAllOrders(ctx context.Context, symbol string) (map[string]any, error) {
	form := url.Values{}
	if symbol != "" {
		form.Set("symbol", symbol)
	}
	return c.doSigned(ctx, http.MethodPost, apiPathPrefix+"/cancelallorders", form)
}

// GetOpenOrders fetches the account's currently open orders.
func (c *Client) GetOpenOrders(ctx context.Context) (map[string]any, error) {
	return c.doSigned(ctx, http.MethodGet, apiPathPrefix+"/openorders", nil)
}

// GetOpenPositions fetches the account's currently open positions.
func (c *Client) GetOpenPositions(ctx context.Context) (map[string]any, error) {
	return c.doSigned(ctx, http.MethodGet, apiPathPrefix+"/openpositions", nil)
}

// GetAccounts fetches account balances, used by setup steps that assert a
// minimum margin balance before running a trading scenario.
func (c *Client) GetAccounts(ctx context.Context) (map[string]any, error) {
	return c.doSigned(ctx, http.MethodGet, apiPathPrefix+"/accounts", nil)
}

// Ticker is the bid/ask/last triple dynamic-sentinel resolution (§4.5 step 6)
// reads market data from.
type Ticker struct {
	Symbol string
	Bid    float64
	Ask    float64
	Last   float64
}

// GetTicker fetches the public ticker feed snapshot used to resolve
// $DYNAMIC_* sentinels.
func (c *Client) GetTicker(ctx context.Context, symbol string) (*Ticker, error) {
	m, err := c.doPublic(ctx, "/derivatives/api/v3/tickers", nil)
	if err != nil {
		return nil, err
	}
	tickers, _ := m["tickers"].([]any)
	for _, t := range tickers {
		entry, ok := t.(map[string]any)
		if !ok {
			continue
		}
		if sym, _ := entry["symbol"].(string); !strings.EqualFold(sym, symbol) {
			continue
		}
		return &Ticker{
			Symbol: symbol,
			Bid:    toFloat(entry["bid"]),
			Ask:    toFloat(entry["ask"]),
			Last:   toFloat(entry["last"]),
		}, nil
	}
	return nil, serviceerrors.NotFound("ticker", symbol)
}

func toFloat(v any) float64 {
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
