package kraken

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	serviceerrors "github.com/R3E-Network/scenario-engine/infrastructure/errors"
	"github.com/R3E-Network/scenario-engine/infrastructure/testutil"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := testutil.NewHTTPTestServer(t, handler)
	c := NewClient(RESTConfig{
		BaseURL:   srv.URL,
		APIKey:    "test-key",
		APISecret: base64.StdEncoding.EncodeToString([]byte("test-secret")),
	})
	return c, srv
}

func TestClient_SendOrder_Success(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("APIKey") != "test-key" {
			t.Errorf("APIKey header = %q", r.Header.Get("APIKey"))
		}
		if r.Header.Get("Nonce") == "" || r.Header.Get("Authent") == "" {
			t.Error("missing Nonce/Authent headers")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":"success","sendStatus":{"order_id":"abc"}}`))
	})
	defer srv.Close()

	result, err := c.SendOrder(context.Background(), map[string]string{"symbol": "PI_XBTUSD"})
	if err != nil {
		t.Fatalf("SendOrder() error = %v", err)
	}
	if result["result"] != "success" {
		t.Errorf("result = %v", result)
	}
}

func TestClient_SendOrder_ErrorResult(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":"insufficientAvailableFunds","errors":["not enough margin"]}`))
	})
	defer srv.Close()

	_, err := c.SendOrder(context.Background(), map[string]string{"symbol": "PI_XBTUSD"})
	if err == nil {
		t.Fatal("expected error")
	}
	svcErr := serviceerrors.GetServiceError(err)
	if svcErr == nil {
		t.Fatal("expected a ServiceError")
	}
	if svcErr.Status != "BAD_PREREQUISITES" {
		t.Errorf("status = %v", svcErr.Status)
	}
}

func TestClient_SendOrder_RateLimited(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{}`))
	})
	defer srv.Close()

	_, err := c.SendOrder(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error")
	}
	svcErr := serviceerrors.GetServiceError(err)
	if svcErr == nil || svcErr.Status != "RATE_LIMITED" {
		t.Errorf("expected RATE_LIMITED status, got %+v", svcErr)
	}
}

func TestClient_NonceMonotonic(t *testing.T) {
	c := &Client{}
	n1 := c.nextNonce()
	n2 := c.nextNonce()
	if n2 <= n1 {
		t.Errorf("nonce did not advance: %d -> %d", n1, n2)
	}
}

func TestClient_GetTicker(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tickers":[{"symbol":"PI_XBTUSD","bid":49900.5,"ask":50000.5,"last":49950}]}`))
	})
	defer srv.Close()

	ticker, err := c.GetTicker(context.Background(), "PI_XBTUSD")
	if err != nil {
		t.Fatalf("GetTicker() error = %v", err)
	}
	if ticker.Bid != 49900.5 || ticker.Ask != 50000.5 || ticker.Last != 49950 {
		t.Errorf("ticker = %+v", ticker)
	}
}

func TestClient_GetTicker_NotFound(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tickers":[]}`))
	})
	defer srv.Close()

	_, err := c.GetTicker(context.Background(), "PI_XBTUSD")
	if err == nil {
		t.Fatal("expected not-found error")
	}
}

