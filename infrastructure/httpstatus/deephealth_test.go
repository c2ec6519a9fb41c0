package httpstatus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDeepHealthChecker_AllHealthy(t *testing.T) {
	d := NewDeepHealthChecker(time.Second)
	d.Register("ok", func(ctx context.Context) *ComponentHealth {
		return &ComponentHealth{Status: "healthy"}
	})

	resp := d.Check(context.Background(), "svc", time.Minute)
	if resp.Status != "healthy" {
		t.Errorf("Status = %q, want healthy", resp.Status)
	}
	if len(resp.Components) != 1 {
		t.Fatalf("len(Components) = %d, want 1", len(resp.Components))
	}
}

func TestDeepHealthChecker_OneUnhealthyFailsOverall(t *testing.T) {
	d := NewDeepHealthChecker(time.Second)
	d.Register("ok", func(ctx context.Context) *ComponentHealth { return &ComponentHealth{Status: "healthy"} })
	d.Register("bad", func(ctx context.Context) *ComponentHealth { return &ComponentHealth{Status: "unhealthy"} })

	resp := d.Check(context.Background(), "svc", time.Minute)
	if resp.Status != "unhealthy" {
		t.Errorf("Status = %q, want unhealthy", resp.Status)
	}
}

func TestDeepHealthChecker_DegradedWithoutUnhealthy(t *testing.T) {
	d := NewDeepHealthChecker(time.Second)
	d.Register("ok", func(ctx context.Context) *ComponentHealth { return &ComponentHealth{Status: "healthy"} })
	d.Register("slow", func(ctx context.Context) *ComponentHealth { return &ComponentHealth{Status: "degraded"} })

	resp := d.Check(context.Background(), "svc", time.Minute)
	if resp.Status != "degraded" {
		t.Errorf("Status = %q, want degraded", resp.Status)
	}
}

func TestDeepHealthChecker_LastResult(t *testing.T) {
	d := NewDeepHealthChecker(time.Second)
	if d.LastResult() != nil {
		t.Error("LastResult() should be nil before any Check")
	}
	d.Register("ok", func(ctx context.Context) *ComponentHealth { return &ComponentHealth{Status: "healthy"} })
	resp := d.Check(context.Background(), "svc", 0)
	if d.LastResult() != resp {
		t.Error("LastResult() should return the most recent Check result")
	}
}

func TestHTTPHealthCheck_Healthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	check := HTTPHealthCheck("test", srv.URL, time.Second)
	result := check(context.Background())
	if result.Status != "healthy" {
		t.Errorf("Status = %q, want healthy", result.Status)
	}
}

func TestHTTPHealthCheck_DegradedOn4xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	check := HTTPHealthCheck("test", srv.URL, time.Second)
	result := check(context.Background())
	if result.Status != "degraded" {
		t.Errorf("Status = %q, want degraded", result.Status)
	}
}

func TestHTTPHealthCheck_UnhealthyOn5xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	check := HTTPHealthCheck("test", srv.URL, time.Second)
	result := check(context.Background())
	if result.Status != "unhealthy" {
		t.Errorf("Status = %q, want unhealthy", result.Status)
	}
}

func TestHTTPHealthCheck_UnreachableIsUnhealthy(t *testing.T) {
	check := HTTPHealthCheck("test", "http://127.0.0.1:1", time.Millisecond*200)
	result := check(context.Background())
	if result.Status != "unhealthy" {
		t.Errorf("Status = %q, want unhealthy", result.Status)
	}
}

func TestServer_DeepHealthzRoute(t *testing.T) {
	s := New(nil)
	s.RegisterHealthCheck("always-ok", func(ctx context.Context) *ComponentHealth {
		return &ComponentHealth{Status: "healthy"}
	})

	req := httptest.NewRequest(http.MethodGet, "/healthz/deep", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
