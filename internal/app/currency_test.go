package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"propfeed/internal/app"
	"propfeed/internal/domain"
)

func liveTable() domain.RateTable {
	return domain.RateTable{"AED": 1, "USD": 0.2723, "EUR": 0.25, "GBP": 0.2}
}

func newFX(src domain.RateSource, shared domain.Cache) (*app.CurrencyService, *clock) {
	c := &clock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	return app.NewCurrencyService(src, shared, 0).WithClock(c.now), c
}

func TestRates_CachedWithinTTL(t *testing.T) {
	src := &fakeSource{table: liveTable()}
	fx, clk := newFX(src, nil)
	ctx := context.Background()

	first := fx.Rates(ctx)
	clk.advance(23 * time.Hour)
	second := fx.Rates(ctx)

	if src.callCount() != 1 {
		t.Fatalf("want 1 fetch within 24h, got %d", src.callCount())
	}
	if first["USD"] != second["USD"] || len(first) != len(second) {
		t.Fatalf("tables differ: %v vs %v", first, second)
	}

	clk.advance(2 * time.Hour)
	fx.Rates(ctx)
	if src.callCount() != 2 {
		t.Fatalf("want refresh after 24h, got %d fetches", src.callCount())
	}
}

func TestRates_ReturnsCopy(t *testing.T) {
	fx, _ := newFX(&fakeSource{table: liveTable()}, nil)
	ctx := context.Background()

	fx.Rates(ctx)["USD"] = 99
	if got := fx.Rates(ctx)["USD"]; got != 0.2723 {
		t.Fatalf("cached table was mutated through a returned copy: %v", got)
	}
}

func TestRates_FallbackIsNotCached(t *testing.T) {
	src := &fakeSource{table: liveTable(), fail: true}
	fx, _ := newFX(src, nil)
	ctx := context.Background()

	got := fx.Rates(ctx)
	if got["USD"] != 0.27 || got["IDR"] != 4250 {
		t.Fatalf("want fallback table, got %v", got)
	}
	fx.Rates(ctx)
	if src.callCount() != 2 {
		t.Fatalf("fallback must not stop the next refresh, got %d fetches", src.callCount())
	}

	src.setFail(false)
	if got := fx.Rates(ctx); got["USD"] != 0.2723 {
		t.Fatalf("want live table after recovery, got %v", got)
	}
}

func TestRates_StaleLiveTableReplacedByFallbackNotKept(t *testing.T) {
	src := &fakeSource{table: liveTable()}
	fx, clk := newFX(src, nil)
	ctx := context.Background()

	fx.Rates(ctx)
	clk.advance(25 * time.Hour)
	src.setFail(true)

	if got := fx.Rates(ctx); got["USD"] != 0.27 {
		t.Fatalf("want fallback once the live table is stale, got %v", got)
	}
}

func TestRates_ConcurrentCallersShareOneFetch(t *testing.T) {
	src := &fakeSource{table: liveTable()}
	fx, _ := newFX(src, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fx.Rates(ctx)
		}()
	}
	wg.Wait()
	// singleflight collapses overlapping refreshes; late arrivals see a fresh table
	if n := src.callCount(); n != 1 {
		t.Fatalf("want 1 fetch, got %d", n)
	}
}

func TestRates_CancelledCallerStillGetsLiveTable(t *testing.T) {
	src := &fakeSource{table: liveTable()}
	fx, _ := newFX(src, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if got := fx.Rates(ctx); got["USD"] != 0.2723 {
		t.Fatalf("refresh must not inherit the caller's cancellation, got %v", got)
	}
	if got := fx.Rates(context.Background()); got["USD"] != 0.2723 || src.callCount() != 1 {
		t.Fatalf("live table not cached, got %v after %d fetches", got, src.callCount())
	}
}

func TestRates_SharedCache(t *testing.T) {
	ctx := context.Background()
	shared := &jsonCache{}

	// first process fetches live and publishes
	src1 := &fakeSource{table: liveTable()}
	fx1, clk := newFX(src1, shared)
	fx1.Rates(ctx)
	if !shared.has("fx:rates:aed") {
		t.Fatalf("live table not published to shared cache")
	}

	// second process adopts it without calling upstream
	src2 := &fakeSource{table: domain.RateTable{"AED": 1, "USD": 1}}
	fx2 := app.NewCurrencyService(src2, shared, 0).WithClock(clk.now)
	if got := fx2.Rates(ctx); got["USD"] != 0.2723 {
		t.Fatalf("want shared table, got %v", got)
	}
	if src2.callCount() != 0 {
		t.Fatalf("shared hit must skip upstream, got %d fetches", src2.callCount())
	}
}

func TestRates_FallbackNeverShared(t *testing.T) {
	shared := &jsonCache{}
	fx, _ := newFX(&fakeSource{fail: true}, shared)

	fx.Rates(context.Background())
	if shared.has("fx:rates:aed") {
		t.Fatalf("fallback table must not be published")
	}
}

func TestToCanonical(t *testing.T) {
	ctx := context.Background()

	fx, _ := newFX(&fakeSource{fail: true}, nil)
	if got := fx.ToCanonical(ctx, 1000, "USD"); got != 3704 {
		t.Fatalf("fallback USD: want 3704, got %v", got)
	}
	if got := fx.ToCanonical(ctx, 1000, "AED"); got != 1000 {
		t.Fatalf("AED must be identity, got %v", got)
	}
	if got := fx.ToCanonical(ctx, 1234.5, "XYZ"); got != 1234.5 {
		t.Fatalf("unknown code must be a no-op, got %v", got)
	}

	live, _ := newFX(&fakeSource{table: liveTable()}, nil)
	if got := live.ToCanonical(ctx, 500, "GBP"); got != 2500 {
		t.Fatalf("GBP: want 2500, got %v", got)
	}
}

func TestFromCanonical(t *testing.T) {
	ctx := context.Background()
	fx, _ := newFX(&fakeSource{table: liveTable()}, nil)

	if got := fx.FromCanonical(ctx, 1000000, "USD"); got != 272300 {
		t.Fatalf("USD: want 272300, got %v", got)
	}
	if got := fx.FromCanonical(ctx, 10, "EUR"); got != 3 {
		t.Fatalf("EUR rounding: want 3, got %v", got)
	}
	if got := fx.FromCanonical(ctx, 77, "XYZ"); got != 77 {
		t.Fatalf("unknown code must be a no-op, got %v", got)
	}
}

func TestFormatWithSymbol(t *testing.T) {
	cases := []struct {
		amount float64
		code   string
		want   string
	}{
		{2500000, "AED", "AED 2,500,000"},
		{1000, "USD", "$ 1,000"},
		{999, "GBP", "£ 999"},
		{1234.5, "XYZ", "XYZ 1,234.5"},
		{1.9999, "USD", "$ 2"},
		{1234567.8916, "EUR", "€ 1,234,567.892"},
		{0, "THB", "฿ 0"},
		{-1500, "EUR", "€ -1,500"},
	}
	for _, c := range cases {
		if got := app.FormatWithSymbol(c.amount, c.code); got != c.want {
			t.Errorf("FormatWithSymbol(%v, %s)=%q want %q", c.amount, c.code, got, c.want)
		}
	}
}
