package app

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"propfeed/internal/domain"
)

// Every coercion here is total: malformed input resolves to a documented
// default, never to an error.

const (
	defaultTitle     = "Untitled Property"
	defaultDeveloper = "Unknown Developer"
	defaultCountry   = "UAE"
	defaultCity      = "Dubai"
)

var headerSpace = regexp.MustCompile(`\s+`)

// normalizeHeader: trim, lower-case, whitespace runs -> "_".
func normalizeHeader(h string) string {
	return headerSpace.ReplaceAllString(strings.ToLower(strings.TrimSpace(h)), "_")
}

// coerceNumber parses a non-negative finite number; anything else is 0.
func coerceNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

// coerceCount is coerceNumber truncated toward zero ("2.5" -> 2). Values
// beyond an INT column are treated as unparseable.
func coerceCount(s string) int {
	f := coerceNumber(s)
	if f > math.MaxInt32 {
		return 0
	}
	return int(f)
}

func coercePropertyType(s string) domain.PropertyType {
	n := domain.PropertyType(strings.ToLower(strings.TrimSpace(s)))
	for _, t := range domain.PropertyTypes {
		if n == t {
			return t
		}
	}
	return domain.TypeApartment
}

func coerceStatus(s string) domain.Status {
	n := domain.Status(strings.ToLower(strings.TrimSpace(s)))
	for _, st := range domain.Statuses {
		if n == st {
			return st
		}
	}
	return domain.StatusAvailable
}

// coerceList splits on ';', drops empty segments, keeps order and duplicates.
func coerceList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ";") {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func coerceText(s, def string) string {
	if t := strings.TrimSpace(s); t != "" {
		return t
	}
	return def
}

func coerceOptionalText(s string) *string {
	if t := strings.TrimSpace(s); t != "" {
		return &t
	}
	return nil
}

// coerceCurrency upper-cases the code; empty means canonical.
func coerceCurrency(s string) string {
	if t := strings.ToUpper(strings.TrimSpace(s)); t != "" {
		return t
	}
	return domain.CanonicalCurrency
}

// coercePaymentPlan is absent only when the down payment column is empty.
func coercePaymentPlan(down, during, handover string) *domain.PaymentPlan {
	if strings.TrimSpace(down) == "" {
		return nil
	}
	return &domain.PaymentPlan{
		DownPayment:        coerceNumber(down),
		DuringConstruction: coerceNumber(during),
		OnHandover:         coerceNumber(handover),
	}
}
