package domain

import "time"

type PropertyType string

const (
	TypeApartment PropertyType = "apartment"
	TypeVilla     PropertyType = "villa"
	TypeTownhouse PropertyType = "townhouse"
	TypePenthouse PropertyType = "penthouse"
	TypeDuplex    PropertyType = "duplex"
	TypeLand      PropertyType = "land"
)

// PropertyTypes is the closed set accepted on import, in display order.
var PropertyTypes = []PropertyType{TypeApartment, TypeVilla, TypeTownhouse, TypePenthouse, TypeDuplex, TypeLand}

type Status string

const (
	StatusAvailable Status = "available"
	StatusSold      Status = "sold"
	StatusReserved  Status = "reserved"
	StatusOffPlan   Status = "off-plan"
	StatusReady     Status = "ready"
)

var Statuses = []Status{StatusAvailable, StatusSold, StatusReserved, StatusOffPlan, StatusReady}

const SourceCSV = "csv"

// PaymentPlan holds percentages of the canonical price.
type PaymentPlan struct {
	DownPayment        float64 `json:"downPayment"`
	DuringConstruction float64 `json:"duringConstruction"`
	OnHandover         float64 `json:"onHandover"`
}

// PropertyFeedRecord is one normalized listing ready for persistence.
// OriginalPrice and OriginalCurrency are set together or not at all.
type PropertyFeedRecord struct {
	ID               string       `json:"id"`
	Title            string       `json:"title"`
	Developer        string       `json:"developer"`
	Country          string       `json:"country"`
	City             string       `json:"city"`
	Area             string       `json:"area"`
	PropertyType     PropertyType `json:"propertyType"`
	Bedrooms         int          `json:"bedrooms"`
	Bathrooms        int          `json:"bathrooms"`
	SizeSqft         float64      `json:"sizeSqft"`
	PriceAED         float64      `json:"priceAED"`
	OriginalPrice    *float64     `json:"originalPrice,omitempty"`
	OriginalCurrency *string      `json:"originalCurrency,omitempty"`
	CompletionDate   *string      `json:"completionDate,omitempty"`
	Status           Status       `json:"status"`
	Images           []string     `json:"images"`
	Amenities        []string     `json:"amenities"`
	PaymentPlan      *PaymentPlan `json:"paymentPlan,omitempty"`
	Source           string       `json:"source"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

// ImportBatch is the audit row written for every accepted upload.
type ImportBatch struct {
	ID        string
	Source    string
	Rows      int
	Converted int
	CreatedAt time.Time
}
