package app

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"propfeed/internal/adapters/observability"
	"propfeed/internal/domain"
)

// Converter turns an amount in a foreign currency into the canonical one.
type Converter interface {
	ToCanonical(ctx context.Context, amount float64, code string) float64
}

// TemplateColumns is the bulk-upload column order.
var TemplateColumns = []string{
	"title",
	"developer",
	"country",
	"city",
	"area",
	"property_type",
	"bedrooms",
	"bathrooms",
	"size_sqft",
	"price",
	"currency",
	"completion_date",
	"status",
	"images",
	"amenities",
	"down_payment",
	"during_construction",
	"on_handover",
}

var templateExample = []string{
	"Creek Vista 2BR Apartment",
	"Emaar",
	"UAE",
	"Dubai",
	"Dubai Creek Harbour",
	"apartment",
	"2",
	"2",
	"1200",
	"2500000",
	"AED",
	"Q4 2025",
	"off-plan",
	"https://example.com/img1.jpg;https://example.com/img2.jpg",
	"Pool;Gym;Parking;Concierge",
	"20",
	"50",
	"30",
}

// GenerateTemplate returns the header row plus one example row.
func GenerateTemplate() string {
	return strings.Join(TemplateColumns, ",") + "\n" + strings.Join(templateExample, ",")
}

type FeedNormalizer struct {
	fx    Converter
	now   func() time.Time
	newID func() string
}

func NewFeedNormalizer(fx Converter) *FeedNormalizer {
	return &FeedNormalizer{fx: fx, now: time.Now, newID: uuid.NewString}
}

// WithClock swaps the timestamp source; used by tests.
func (n *FeedNormalizer) WithClock(now func() time.Time) *FeedNormalizer {
	n.now = now
	return n
}

// ParseProperties turns CSV text into one record per data row, in input order.
// Malformed fields are defaulted; nothing here fails the batch.
func (n *FeedNormalizer) ParseProperties(ctx context.Context, raw string) []domain.PropertyFeedRecord {
	lines := splitRows(raw)
	if len(lines) < 2 {
		return []domain.PropertyFeedRecord{}
	}

	index := make(map[string]int)
	for i, h := range splitLine(lines[0]) {
		index[normalizeHeader(h)] = i
	}

	out := make([]domain.PropertyFeedRecord, 0, len(lines)-1)
	for _, line := range lines[1:] {
		out = append(out, n.parseRow(ctx, row{index: index, values: splitLine(line)}))
	}
	return out
}

func (n *FeedNormalizer) parseRow(ctx context.Context, r row) domain.PropertyFeedRecord {
	ts := n.now().UTC()
	rec := domain.PropertyFeedRecord{
		ID:             n.newID(),
		Title:          coerceText(r.get("title"), defaultTitle),
		Developer:      coerceText(r.get("developer"), defaultDeveloper),
		Country:        coerceText(r.get("country"), defaultCountry),
		City:           coerceText(r.get("city"), defaultCity),
		Area:           coerceText(r.get("area"), ""),
		PropertyType:   coercePropertyType(r.get("property_type")),
		Bedrooms:       coerceCount(r.get("bedrooms")),
		Bathrooms:      coerceCount(r.get("bathrooms")),
		SizeSqft:       coerceNumber(r.get("size_sqft")),
		CompletionDate: coerceOptionalText(r.get("completion_date")),
		Status:         coerceStatus(r.get("status")),
		Images:         coerceList(r.get("images")),
		Amenities:      coerceList(r.get("amenities")),
		PaymentPlan:    coercePaymentPlan(r.get("down_payment"), r.get("during_construction"), r.get("on_handover")),
		Source:         domain.SourceCSV,
		CreatedAt:      ts,
		UpdatedAt:      ts,
	}

	price := coerceNumber(r.get("price"))
	currency := coerceCurrency(r.get("currency"))
	if currency == domain.CanonicalCurrency {
		rec.PriceAED = price
		observability.ObserveFeedRow("canonical")
		return rec
	}

	rec.PriceAED = n.fx.ToCanonical(ctx, price, currency)
	rec.OriginalPrice = &price
	rec.OriginalCurrency = &currency
	observability.ObserveFeedRow("converted")
	log.Debug().Str("currency", currency).Float64("price", price).Float64("price_aed", rec.PriceAED).Msg("converted feed price")
	return rec
}
