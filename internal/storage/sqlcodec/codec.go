// Package sqlcodec maps property records to and from SQL rows. The MySQL and
// SQLite repositories share it; both use '?' placeholders.
package sqlcodec

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"propfeed/internal/domain"
)

const Columns = "id, title, developer, country, city, area, property_type, bedrooms, bathrooms, " +
	"size_sqft, price_aed, original_price, original_currency, completion_date, status, " +
	"images, amenities, payment_plan, source, created_at, updated_at"

const NumColumns = 21

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

type Scanner interface {
	Scan(dest ...any) error
}

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

// Args returns the insert arguments in Columns order. encTime lets each
// driver pick its timestamp representation.
func Args(p domain.PropertyFeedRecord, encTime func(time.Time) any) ([]any, error) {
	imgs, err := json.Marshal(nonNil(p.Images))
	if err != nil {
		return nil, err
	}
	amen, err := json.Marshal(nonNil(p.Amenities))
	if err != nil {
		return nil, err
	}
	var plan any
	if p.PaymentPlan != nil {
		b, err := json.Marshal(p.PaymentPlan)
		if err != nil {
			return nil, err
		}
		plan = string(b)
	}
	return []any{
		p.ID,
		p.Title,
		p.Developer,
		p.Country,
		p.City,
		p.Area,
		string(p.PropertyType),
		p.Bedrooms,
		p.Bathrooms,
		p.SizeSqft,
		p.PriceAED,
		valF64(p.OriginalPrice),
		valStr(p.OriginalCurrency),
		valStr(p.CompletionDate),
		string(p.Status),
		string(imgs),
		string(amen),
		plan,
		p.Source,
		encTime(p.CreatedAt),
		encTime(p.UpdatedAt),
	}, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Scan reads one row selected with Columns.
func Scan(s Scanner) (domain.PropertyFeedRecord, error) {
	var (
		p                  domain.PropertyFeedRecord
		ptype, status      string
		origPrice          sql.NullFloat64
		origCur, complDate sql.NullString
		imgs, amen         []byte
		plan               sql.NullString
		created, updated   any
	)
	if err := s.Scan(
		&p.ID, &p.Title, &p.Developer, &p.Country, &p.City, &p.Area,
		&ptype, &p.Bedrooms, &p.Bathrooms, &p.SizeSqft, &p.PriceAED,
		&origPrice, &origCur, &complDate, &status,
		&imgs, &amen, &plan, &p.Source, &created, &updated,
	); err != nil {
		return domain.PropertyFeedRecord{}, err
	}
	p.PropertyType = domain.PropertyType(ptype)
	p.Status = domain.Status(status)

	// the pair is written together; only surface it when both survived
	if origPrice.Valid && origCur.Valid {
		f, c := origPrice.Float64, origCur.String
		p.OriginalPrice, p.OriginalCurrency = &f, &c
	}
	if complDate.Valid {
		d := complDate.String
		p.CompletionDate = &d
	}

	p.Images, p.Amenities = []string{}, []string{}
	_ = json.Unmarshal(imgs, &p.Images)
	_ = json.Unmarshal(amen, &p.Amenities)
	if plan.Valid && plan.String != "" {
		var pp domain.PaymentPlan
		if err := json.Unmarshal([]byte(plan.String), &pp); err == nil {
			p.PaymentPlan = &pp
		}
	}

	var err error
	if p.CreatedAt, err = toTime(created); err != nil {
		return domain.PropertyFeedRecord{}, err
	}
	if p.UpdatedAt, err = toTime(updated); err != nil {
		return domain.PropertyFeedRecord{}, err
	}
	return p, nil
}

func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		return parseTime(t)
	case []byte:
		return parseTime(string(t))
	case nil:
		return time.Time{}, nil
	}
	return time.Time{}, fmt.Errorf("sqlcodec: unsupported timestamp type %T", v)
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("sqlcodec: bad timestamp %q", s)
}

// ListQuery builds the filtered listing SELECT for the properties table.
func ListQuery(q domain.PropertyQuery) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(col, v string) {
		if v = strings.TrimSpace(v); v != "" {
			where = append(where, col+" = ?")
			args = append(args, v)
		}
	}
	add("country", q.Country)
	add("city", q.City)
	add("property_type", strings.ToLower(q.PropertyType))
	add("status", strings.ToLower(q.Status))

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	var b strings.Builder
	b.WriteString("SELECT " + Columns + " FROM properties")
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY created_at DESC, id LIMIT ?")
	args = append(args, limit)
	return b.String(), args
}
