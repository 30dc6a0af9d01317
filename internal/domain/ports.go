package domain

import (
	"context"
	"time"
)

type PropertyRepository interface {
	// Write paths
	UpsertProperties(ctx context.Context, ps []PropertyFeedRecord) error
	LogBatch(ctx context.Context, b ImportBatch) error

	// Read paths
	GetProperty(ctx context.Context, id string) (PropertyFeedRecord, error)
	ListProperties(ctx context.Context, q PropertyQuery) (PropertiesPage, error)
}

// RateSource fetches a live rate table quoted against base.
type RateSource interface {
	Latest(ctx context.Context, base string) (RateTable, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// Read models & queries
type PropertyQuery struct {
	Country      string
	City         string
	PropertyType string
	Status       string
	Limit        int
}

type PropertiesPage struct {
	Items []PropertyFeedRecord `json:"items"`
}

// PropertyView is a record plus its price rendered in a requested currency.
type PropertyView struct {
	PropertyFeedRecord
	DisplayCurrency string   `json:"displayCurrency,omitempty"`
	DisplayPrice    *float64 `json:"displayPrice,omitempty"`
	DisplayLabel    string   `json:"displayLabel,omitempty"`
}

// CachedRates is the shared-cache envelope for a live rate table.
type CachedRates struct {
	Rates     RateTable `json:"rates"`
	FetchedAt time.Time `json:"fetched_at"`
}
