package app

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"propfeed/internal/adapters/observability"
	"propfeed/internal/domain"
)

const DefaultRateTTL = 24 * time.Hour

// CurrencyService owns the process rate cache. The cache timestamp only moves
// on a successful live fetch, so a fallback answer is retried on the next call.
type CurrencyService struct {
	src    domain.RateSource
	shared domain.Cache // optional, may be nil
	ttl    time.Duration
	now    func() time.Time

	mu        sync.RWMutex
	rates     domain.RateTable
	fetchedAt time.Time

	sf singleflight.Group
}

func NewCurrencyService(src domain.RateSource, shared domain.Cache, ttl time.Duration) *CurrencyService {
	if ttl <= 0 {
		ttl = DefaultRateTTL
	}
	return &CurrencyService{src: src, shared: shared, ttl: ttl, now: time.Now}
}

// WithClock swaps the time source; used by tests.
func (s *CurrencyService) WithClock(now func() time.Time) *CurrencyService {
	s.now = now
	return s
}

func sharedRatesKey() string { return "fx:rates:" + strings.ToLower(domain.CanonicalCurrency) }

// Rates returns the live table when fresh, refreshing it when stale, and the
// static fallback table when the refresh fails. Never errors.
func (s *CurrencyService) Rates(ctx context.Context) domain.RateTable {
	if t, ok := s.fresh(); ok {
		return t
	}

	v, _, _ := s.sf.Do("rates", func() (any, error) {
		// another caller may have refreshed while we waited
		if t, ok := s.fresh(); ok {
			return t, nil
		}
		// shared by every waiter, so one caller's cancellation must not end it
		return s.refresh(context.WithoutCancel(ctx)), nil
	})
	return v.(domain.RateTable).Clone()
}

func (s *CurrencyService) fresh() (domain.RateTable, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.rates != nil && s.now().Sub(s.fetchedAt) < s.ttl {
		return s.rates.Clone(), true
	}
	return nil, false
}

func (s *CurrencyService) refresh(ctx context.Context) domain.RateTable {
	if s.shared != nil {
		var cr domain.CachedRates
		if ok, err := s.shared.Get(ctx, sharedRatesKey(), &cr); err == nil && ok &&
			len(cr.Rates) > 0 && s.now().Sub(cr.FetchedAt) < s.ttl {
			s.store(cr.Rates, cr.FetchedAt)
			observability.ObserveRateRefresh("shared")
			return cr.Rates.Clone()
		}
	}

	t, err := s.src.Latest(ctx, domain.CanonicalCurrency)
	if err != nil || len(t) == 0 {
		log.Warn().Err(err).Msg("exchange rates unavailable, using fallback table")
		observability.ObserveRateRefresh("fallback")
		return domain.FallbackRates()
	}

	at := s.now()
	s.store(t, at)
	observability.ObserveRateRefresh("live")
	if s.shared != nil {
		if err := s.shared.Set(ctx, sharedRatesKey(), domain.CachedRates{Rates: t, FetchedAt: at}, int(s.ttl.Seconds())); err != nil {
			log.Warn().Err(err).Msg("shared rate cache write failed")
		}
	}
	return t.Clone()
}

func (s *CurrencyService) store(t domain.RateTable, at time.Time) {
	s.mu.Lock()
	s.rates = t.Clone()
	s.fetchedAt = at
	s.mu.Unlock()
}

// ToCanonical converts amount from code into AED, rounded to whole units.
// Unknown codes return amount unchanged.
func (s *CurrencyService) ToCanonical(ctx context.Context, amount float64, code string) float64 {
	if code == domain.CanonicalCurrency {
		return amount
	}
	rate, ok := s.rate(ctx, code)
	if !ok {
		return amount
	}
	return math.Round(amount / rate)
}

// FromCanonical converts an AED amount into code, rounded to whole units.
func (s *CurrencyService) FromCanonical(ctx context.Context, amount float64, code string) float64 {
	if code == domain.CanonicalCurrency {
		return amount
	}
	rate, ok := s.rate(ctx, code)
	if !ok {
		return amount
	}
	return math.Round(amount * rate)
}

func (s *CurrencyService) rate(ctx context.Context, code string) (float64, bool) {
	rate := s.Rates(ctx)[code]
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		log.Warn().Str("currency", code).Msg("unknown currency, returning original amount")
		return 0, false
	}
	return rate, true
}

var currencySymbols = map[string]string{
	"AED": "AED",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"THB": "฿",
	"IDR": "Rp",
	"TRY": "₺",
}

// FormatWithSymbol renders "<symbol> <amount>" with thousands separators and
// at most three rounded fraction digits.
func FormatWithSymbol(amount float64, code string) string {
	sym, ok := currencySymbols[code]
	if !ok {
		sym = code
	}
	return fmt.Sprintf("%s %s", sym, humanize.Commaf(math.Round(amount*1000)/1000))
}
