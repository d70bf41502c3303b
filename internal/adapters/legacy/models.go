package legacy

// Logical model names and their legacy collection names (single source of
// truth). The Manager's registry is keyed by these names.
const (
	ModelAccount   = "Account"
	ModelHotel     = "Hotel"
	ModelRoom      = "Room"
	ModelPricePlan = "PricePlan"
	ModelMarket    = "Market"
	ModelCity      = "City"
	ModelCountry   = "Country"
)

var collections = map[string]string{
	ModelAccount:   "accounts",
	ModelHotel:     "hotels",
	ModelRoom:      "rooms",
	ModelPricePlan: "priceplans",
	ModelMarket:    "markets",
	ModelCity:      "cities",
	ModelCountry:   "countries",
}
