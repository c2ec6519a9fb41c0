package binance

import (
	"context"
	"net/http"
	"testing"

	"github.com/R3E-Network/scenario-engine/infrastructure/testutil"
)

func TestAuthenticator_Authenticate(t *testing.T) {
	srv := testutil.NewHTTPTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-MBX-APIKEY") != "test-key" {
			t.Errorf("APIKEY header = %q", r.Header.Get("X-MBX-APIKEY"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"listenKey":"abc123"}`))
	}))
	defer srv.Close()

	rest := NewClient(RESTConfig{BaseURL: srv.URL, APIKey: "test-key"})
	auth := Authenticator{REST: rest}

	payload, err := auth.Authenticate(context.Background(), func([]byte) error { return nil }, nil)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if payload.ListenKey != "abc123" {
		t.Errorf("ListenKey = %q, want abc123", payload.ListenKey)
	}
}
