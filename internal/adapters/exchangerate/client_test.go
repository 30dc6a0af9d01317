package exchangerate_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"propfeed/internal/adapters/exchangerate"
)

func TestClient_Latest_Success(t *testing.T) {
	var path string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_ = json.NewEncoder(w).Encode(map[string]any{
			"result":    "success",
			"base_code": "AED",
			"rates":     map[string]float64{"AED": 1, "USD": 0.2723, "EUR": 0.2501},
		})
	}))
	defer ts.Close()

	cl := exchangerate.New(ts.URL+"/v6/latest", 100, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	got, err := cl.Latest(ctx, "aed")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if path != "/v6/latest/AED" {
		t.Fatalf("unexpected path %q", path)
	}
	if got["USD"] != 0.2723 || got["AED"] != 1 {
		t.Fatalf("unexpected rates: %+v", got)
	}
}

func TestClient_Latest_NonSuccessPayload(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"result": "error", "error-type": "unsupported-code"})
	}))
	defer ts.Close()

	cl := exchangerate.New(ts.URL, 100, 1)
	_, err := cl.Latest(context.Background(), "AED")
	if !errors.Is(err, exchangerate.ErrUpstreamFailed) {
		t.Fatalf("expected ErrUpstreamFailed, got %v", err)
	}
}

func TestClient_Latest_SingleAttemptByDefault(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	cl := exchangerate.New(ts.URL, 100, 0)
	if _, err := cl.Latest(context.Background(), "AED"); err == nil {
		t.Fatalf("expected error for 503")
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("expected exactly 1 call, got %d", n)
	}
}

func TestClient_Latest_RetriesThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&hits, 1) {
		case 1, 2:
			// two transient failures
			w.WriteHeader(500)
		default:
			_ = json.NewEncoder(w).Encode(map[string]any{"result": "success", "rates": map[string]float64{"AED": 1}})
		}
	}))
	defer ts.Close()

	cl := exchangerate.New(ts.URL, 100, 4)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := cl.Latest(ctx, "AED"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if atomic.LoadInt32(&hits) < 3 {
		t.Fatalf("expected at least 3 calls due to retries, got %d", hits)
	}
}

func TestClient_Latest_404(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	cl := exchangerate.New(ts.URL, 100, 1)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, err := cl.Latest(ctx, "AED"); err == nil {
		t.Fatalf("expected error for 404")
	}
}

func TestClient_Latest_ThrottledCallsFailFast(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	cl := exchangerate.New(ts.URL, 2, 1)
	start := time.Now()
	var limited int
	for i := 0; i < 20; i++ {
		_, err := cl.Latest(context.Background(), "AED")
		if err == nil {
			t.Fatalf("expected error for 503")
		}
		if errors.Is(err, exchangerate.ErrRateLimited) {
			limited++
		}
	}
	if d := time.Since(start); d > time.Second {
		t.Fatalf("throttled calls must not queue, took %v", d)
	}
	if n := atomic.LoadInt32(&hits); n > 3 {
		t.Fatalf("expected the burst only to reach upstream, got %d calls", n)
	}
	if limited < 17 {
		t.Fatalf("expected most calls rate limited, got %d", limited)
	}
}
