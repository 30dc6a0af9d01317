package domain

// CanonicalCurrency is the currency every stored price is normalized into.
const CanonicalCurrency = "AED"

// RateTable maps a currency code to units of that currency per 1 AED.
type RateTable map[string]float64

func (t RateTable) Clone() RateTable {
	out := make(RateTable, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// FallbackRates is served whenever the live source cannot be reached.
func FallbackRates() RateTable {
	return RateTable{
		"AED": 1,
		"USD": 0.27,
		"EUR": 0.25,
		"GBP": 0.21,
		"THB": 9.5,
		"IDR": 4250,
		"TRY": 8.8,
	}
}
