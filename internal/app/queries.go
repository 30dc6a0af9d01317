package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"propfeed/internal/domain"
)

const listVersionKey = "properties:version"

// DisplayConverter renders canonical prices in other currencies.
type DisplayConverter interface {
	FromCanonical(ctx context.Context, amount float64, code string) float64
}

type QueryService struct {
	repo     domain.PropertyRepository
	cache    domain.Cache
	fx       DisplayConverter
	cacheTTL time.Duration
}

func NewQueryService(r domain.PropertyRepository, c domain.Cache, fx DisplayConverter, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, cache: c, fx: fx, cacheTTL: ttl}
}

// GetProperty loads one listing; a non-empty currency adds a display price.
func (s *QueryService) GetProperty(ctx context.Context, id, currency string) (domain.PropertyView, error) {
	key := fmt.Sprintf("property:%s", id)
	var p domain.PropertyFeedRecord
	if ok, _ := s.cache.Get(ctx, key, &p); !ok {
		var err error
		p, err = s.repo.GetProperty(ctx, id)
		if err != nil {
			return domain.PropertyView{}, err
		}
		_ = s.cache.Set(ctx, key, p, int(s.cacheTTL.Seconds()))
	}
	return s.view(ctx, p, currency), nil
}

func (s *QueryService) ListProperties(ctx context.Context, q domain.PropertyQuery) (domain.PropertiesPage, error) {
	key := fmt.Sprintf("properties:%s:%s|%s|%s|%s|%d", s.listVersion(ctx),
		q.Country, q.City, q.PropertyType, q.Status, q.Limit)
	var out domain.PropertiesPage
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}

	pg, err := s.repo.ListProperties(ctx, q)
	if err != nil {
		return domain.PropertiesPage{}, err
	}

	// copy slice to avoid aliasing the repo's backing array
	cp := domain.PropertiesPage{}
	if n := len(pg.Items); n > 0 {
		cp.Items = make([]domain.PropertyFeedRecord, n)
		copy(cp.Items, pg.Items)
	}
	_ = s.cache.Set(ctx, key, cp, int(s.cacheTTL.Seconds()))
	return cp, nil
}

func (s *QueryService) listVersion(ctx context.Context) string {
	var v string
	if ok, _ := s.cache.Get(ctx, listVersionKey, &v); ok && v != "" {
		return v
	}
	v = uuid.NewString()[:8]
	_ = s.cache.Set(ctx, listVersionKey, v, 0)
	return v
}

func (s *QueryService) view(ctx context.Context, p domain.PropertyFeedRecord, currency string) domain.PropertyView {
	pv := domain.PropertyView{PropertyFeedRecord: p}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" || s.fx == nil {
		return pv
	}
	amt := s.fx.FromCanonical(ctx, p.PriceAED, currency)
	pv.DisplayCurrency = currency
	pv.DisplayPrice = &amt
	pv.DisplayLabel = FormatWithSymbol(amt, currency)
	return pv
}
