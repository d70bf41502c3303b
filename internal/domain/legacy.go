package domain

// Shapes of the legacy document store, limited to the fields the migration
// engine reads. Everything in this file is read-only to the engine.

type LegacyAccount struct {
	ID          int64  `bson:"_id" json:"id"`
	CompanyName string `bson:"companyName" json:"companyName"`
	FounderName string `bson:"founderName" json:"founderName"`
	Type        string `bson:"type" json:"type"`
	Email       string `bson:"email" json:"email"`
	Phone       string `bson:"phone" json:"phone"`
	Status      string `bson:"status" json:"status"`
}

// DisplayName falls back company name -> founder name.
func (a LegacyAccount) DisplayName() string {
	if a.CompanyName != "" {
		return a.CompanyName
	}
	return a.FounderName
}

type LegacyLocation struct {
	CityID    int64    `bson:"city" json:"city"`
	CountryID int64    `bson:"country" json:"country"`
	Street    string   `bson:"street" json:"street"`
	Lat       *float64 `bson:"lat" json:"lat"`
	Lon       *float64 `bson:"lon" json:"lon"`
}

type LegacyHotelDetails struct {
	Rating       int    `bson:"rating" json:"rating"`
	PropertyType int    `bson:"propertyType" json:"propertyType"`
	FactSheet    string `bson:"factSheet" json:"factSheet"`
	CheckIn      string `bson:"checkIn" json:"checkIn"`
	CheckOut     string `bson:"checkOut" json:"checkOut"`
}

type LegacyAmenities struct {
	Standard []int `bson:"standard" json:"standard"`
}

// LegacyPhoto.Status is tri-state in the source data: absent/true means
// active, an explicit false means the photo was soft-deleted.
type LegacyPhoto struct {
	ID     int64 `bson:"id" json:"id"`
	Status *bool `bson:"status" json:"status"`
}

func (p LegacyPhoto) Active() bool { return p.Status == nil || *p.Status }

type LegacyAges struct {
	Infant int `bson:"infant" json:"infant"`
	Child  int `bson:"child" json:"child"`
}

type LegacyHotel struct {
	ID        int64              `bson:"_id" json:"id"`
	Account   int64              `bson:"account" json:"account"`
	Name      string             `bson:"name" json:"name"`
	Code      string             `bson:"code" json:"code"`
	Location  LegacyLocation     `bson:"location" json:"location"`
	Details   LegacyHotelDetails `bson:"details" json:"details"`
	Amenities LegacyAmenities    `bson:"amenities" json:"amenities"`
	Currency  string             `bson:"currency" json:"currency"`
	Photos    []LegacyPhoto      `bson:"photos" json:"photos"`
	Ages      LegacyAges         `bson:"age" json:"age"`
}

// ActivePhotos filters out soft-deleted entries.
func (h LegacyHotel) ActivePhotos() []LegacyPhoto {
	out := make([]LegacyPhoto, 0, len(h.Photos))
	for _, p := range h.Photos {
		if p.Active() {
			out = append(out, p)
		}
	}
	return out
}

// Name fields on child collections are multilingual and arrive in several
// historical encodings (plain string, keyed map, [{lang,value}] list), so
// they stay `any` until the transform layer normalizes them.

type LegacyRoom struct {
	ID            int64          `bson:"_id" json:"id"`
	Hotel         int64          `bson:"hotel" json:"hotel"`
	Name          any            `bson:"name" json:"name"`
	Code          string         `bson:"code" json:"code"`
	PricingType   string         `bson:"pricingType" json:"pricingType"` // per_person | unit
	BaseOccupancy int            `bson:"baseOccupancy" json:"baseOccupancy"`
	MaxAdults     int            `bson:"maxAdults" json:"maxAdults"`
	MaxChildren   int            `bson:"maxChildren" json:"maxChildren"`
	Quantity      int            `bson:"quantity" json:"quantity"`
	Adjustments   map[string]any `bson:"adjustments" json:"adjustments"` // occupancy -> percentage
}

type LegacyPricePlan struct {
	ID    int64  `bson:"_id" json:"id"`
	Hotel int64  `bson:"hotel" json:"hotel"`
	Name  any    `bson:"name" json:"name"`
	Code  string `bson:"code" json:"code"`
}

type LegacyMarket struct {
	ID        int64    `bson:"_id" json:"id"`
	Hotel     int64    `bson:"hotel" json:"hotel"`
	Name      any      `bson:"name" json:"name"`
	Code      string   `bson:"code" json:"code"`
	Countries []string `bson:"countries" json:"countries"`
}

// Flat projections returned to operators while browsing; never the raw
// legacy shape.

type AccountSummary struct {
	ID          int64  `json:"id"`
	CompanyName string `json:"companyName"`
	Type        string `json:"type"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	HotelCount  int64  `json:"hotelCount"`
}

type AccountsQuery struct {
	Search string
	Type   string
}

type LegacyHotelSummary struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Code          string `json:"code"`
	City          string `json:"city"`
	Stars         int    `json:"stars"`
	RoomCount     int64  `json:"roomCount"`
	MealPlanCount int64  `json:"mealPlanCount"`
	PhotoCount    int    `json:"photoCount"`
	Currency      string `json:"currency"`
}
