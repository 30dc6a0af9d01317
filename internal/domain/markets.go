package domain

type Market struct {
	Code       string   `json:"code"`
	Name       string   `json:"name"`
	Currency   string   `json:"currency"`
	Cities     []string `json:"cities"`
	Developers []string `json:"developers"`
}

var SupportedMarkets = []Market{
	{
		Code: "UAE", Name: "United Arab Emirates", Currency: "AED",
		Cities:     []string{"Dubai", "Abu Dhabi", "Sharjah", "Ras Al Khaimah"},
		Developers: []string{"Emaar", "DAMAC", "Nakheel", "Sobha", "Meraas", "Dubai Properties", "Aldar", "Azizi", "Danube"},
	},
	{
		Code: "TUR", Name: "Turkey", Currency: "TRY",
		Cities:     []string{"Istanbul", "Antalya", "Bodrum", "Izmir"},
		Developers: []string{"Ağaoğlu", "Emlak Konut", "Sinpaş", "Kalyon", "Tahincioğlu"},
	},
	{
		Code: "THA", Name: "Thailand", Currency: "THB",
		Cities:     []string{"Bangkok", "Phuket", "Pattaya", "Chiang Mai"},
		Developers: []string{"Sansiri", "SC Asset", "AP Thailand", "Land & Houses", "Ananda"},
	},
	{
		Code: "IDN", Name: "Indonesia", Currency: "IDR",
		Cities:     []string{"Bali", "Jakarta", "Lombok"},
		Developers: []string{"Ciputra", "Agung Podomoro", "Lippo", "Summarecon", "Pakuwon"},
	},
	{
		Code: "CYP", Name: "Cyprus", Currency: "EUR",
		Cities:     []string{"Limassol", "Paphos", "Larnaca", "Nicosia"},
		Developers: []string{"Leptos Estates", "Pafilia", "Imperio", "Aristo Developers"},
	},
}

// FindMarket returns the market for a country code, or false.
func FindMarket(code string) (Market, bool) {
	for _, m := range SupportedMarkets {
		if m.Code == code {
			return m, true
		}
	}
	return Market{}, false
}
