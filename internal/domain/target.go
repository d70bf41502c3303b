package domain

// Target-schema entities owned by a partner (tenant). The engine only
// creates these, and deletes previously-migrated rows by legacy cross
// reference before a re-run; LegacyHotelID is that indexed cross reference.

type Hotel struct {
	ID            int64             `json:"id"`
	Partner       string            `json:"partner"`
	LegacyHotelID int64             `json:"legacyHotelId"`
	Name          string            `json:"name"`
	Code          string            `json:"code"`
	Type          string            `json:"type"`
	Stars         int               `json:"stars"`
	City          string            `json:"city"`
	Country       string            `json:"country"`
	Address       string            `json:"address"`
	Lat           *float64          `json:"lat,omitempty"`
	Lon           *float64          `json:"lon,omitempty"`
	Amenities     []string          `json:"amenities"`
	Currency      string            `json:"currency"`
	CheckIn       string            `json:"checkIn"`
	CheckOut      string            `json:"checkOut"`
	Description   map[string]string `json:"description"`
	InfantMaxAge  int               `json:"infantMaxAge"`
	ChildMaxAge   int               `json:"childMaxAge"`
}

// Pricing describes how a room type charges: per-person with multiplicative
// occupancy factors, or flat per-unit.
type Pricing struct {
	Model   string             `json:"model"` // per_person | unit
	Factors map[string]float64 `json:"factors,omitempty"`
}

type RoomType struct {
	ID            int64             `json:"id"`
	HotelID       int64             `json:"hotelId"`
	LegacyRoomID  int64             `json:"legacyRoomId"`
	Name          map[string]string `json:"name"`
	Code          string            `json:"code"`
	BaseOccupancy int               `json:"baseOccupancy"`
	MaxAdults     int               `json:"maxAdults"`
	MaxChildren   int               `json:"maxChildren"`
	Quantity      int               `json:"quantity"`
	Pricing       Pricing           `json:"pricing"`
}

type MealPlan struct {
	ID           int64             `json:"id"`
	HotelID      int64             `json:"hotelId"`
	LegacyPlanID int64             `json:"legacyPlanId"`
	Code         string            `json:"code"`
	Name         map[string]string `json:"name"`
	Meals        map[string]bool   `json:"meals"`
}

type Market struct {
	ID             int64             `json:"id"`
	HotelID        int64             `json:"hotelId"`
	LegacyMarketID int64             `json:"legacyMarketId"`
	Code           string            `json:"code"`
	Name           map[string]string `json:"name"`
	Countries      []string          `json:"countries"`
}

type Photo struct {
	ID            int64  `json:"id"`
	HotelID       int64  `json:"hotelId"`
	LegacyPhotoID int64  `json:"legacyPhotoId"`
	Reference     string `json:"reference"`
	Position      int    `json:"position"`
}

// HotelPreview is the read-only, fully transformed projection an operator
// inspects before including a hotel in a run. Same builders as the import
// path, no writes.
type HotelPreview struct {
	Hotel     Hotel      `json:"hotel"`
	Rooms     []RoomType `json:"rooms"`
	MealPlans []MealPlan `json:"mealPlans"`
	Markets   []Market   `json:"markets"`
}
