// Package transform maps legacy field encodings to target encodings.
// Everything here is pure: no I/O, no state, and malformed input yields a
// structurally valid default instead of an error.
package transform

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"legacy_migrator/internal/domain"
)

/********** lookup tables (single source of truth) **********/

var propertyTypes = map[int]string{
	1: "hotel",
	2: "apartment",
	3: "resort",
	4: "villa",
	5: "hostel",
	6: "guesthouse",
}

var amenityKeys = map[int]string{
	1:  "wifi",
	2:  "parking",
	3:  "pool",
	4:  "spa",
	5:  "gym",
	6:  "restaurant",
	7:  "bar",
	8:  "beach_access",
	9:  "airport_shuttle",
	10: "room_service",
	11: "air_conditioning",
	12: "pets_allowed",
	13: "laundry",
	14: "kids_club",
	15: "tennis_court",
}

var allowedCurrencies = map[string]struct{}{
	"EUR": {}, "USD": {}, "GBP": {}, "TRY": {},
}

const defaultCurrency = "EUR"

// Legacy meal-plan codes drifted over the years; this table folds the known
// aliases onto the five canonical codes.
var mealPlanAliases = map[string]string{
	"sc":   "RO", // "self catering" in the oldest records
	"ro":   "RO",
	"room": "RO",
	"bb":   "BB",
	"b&b":  "BB",
	"hb":   "HB",
	"half": "HB",
	"fb":   "FB",
	"full": "FB",
	"ai":   "AI",
	"all":  "AI",
	"uai":  "UAI",
}

var includedMeals = map[string][]string{
	"RO":  {},
	"BB":  {"breakfast"},
	"HB":  {"breakfast", "dinner"},
	"FB":  {"breakfast", "lunch", "dinner"},
	"AI":  {"breakfast", "lunch", "dinner"},
	"UAI": {"breakfast", "lunch", "dinner"},
}

const photoBaseURL = "https://media.legacy-reservations.net"

/********** tiny helpers **********/

// floatFlexible: number from float64/int variants or strings like "-20,5".
func floatFlexible(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(t, ",", "."))
		if s == "" {
			return 0, false
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func stringAt(m map[string]any, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

/********** language maps **********/

// ConvertLangArray normalizes the historical multilingual encodings into a
// keyed language map. Accepts nil, a plain string (keyed under "en"), an
// already-keyed map, or a list of {lang, value} pairs. Unknown or malformed
// entries are skipped, never raised.
func ConvertLangArray(v any) map[string]string {
	out := map[string]string{}
	switch t := v.(type) {
	case nil:
		return out
	case string:
		if t != "" {
			out["en"] = t
		}
	case map[string]string:
		for k, s := range t {
			if k != "" && s != "" {
				out[strings.ToLower(k)] = s
			}
		}
	case map[string]any:
		for k, raw := range t {
			if s, ok := raw.(string); ok && k != "" && s != "" {
				out[strings.ToLower(k)] = s
			}
		}
	case []any:
		for _, item := range t {
			entry, ok := item.(map[string]any)
			if !ok {
				continue
			}
			lang := stringAt(entry, "lang")
			if lang == "" {
				lang = stringAt(entry, "language")
			}
			val := stringAt(entry, "value")
			if val == "" {
				val = stringAt(entry, "text")
			}
			if lang != "" && val != "" {
				out[strings.ToLower(lang)] = val
			}
		}
	case []map[string]any:
		for _, entry := range t {
			lang, val := stringAt(entry, "lang"), stringAt(entry, "value")
			if lang != "" && val != "" {
				out[strings.ToLower(lang)] = val
			}
		}
	}
	return out
}

/********** enum mappings **********/

// MapPropertyType maps a numeric legacy code to a target type string.
// Unknown codes fall back to the most generic type.
func MapPropertyType(code int) string {
	if t, ok := propertyTypes[code]; ok {
		return t
	}
	return "hotel"
}

// MapAmenities maps legacy amenity ids to target keys; unmapped ids are
// dropped, non-list input yields an empty list.
func MapAmenities(ids []int) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if k, ok := amenityKeys[id]; ok {
			out = append(out, k)
		}
	}
	return out
}

// MapCurrency uppercases the input and keeps it when it is one of the four
// supported currencies, else returns the platform default.
func MapCurrency(code string) string {
	up := strings.ToUpper(strings.TrimSpace(code))
	if _, ok := allowedCurrencies[up]; ok {
		return up
	}
	return defaultCurrency
}

// MapMealPlanCode folds legacy aliases onto canonical codes. Unknown codes
// are kept rather than rejected: uppercased and truncated to 5 chars.
func MapMealPlanCode(code string) string {
	low := strings.ToLower(strings.TrimSpace(code))
	if canonical, ok := mealPlanAliases[low]; ok {
		return canonical
	}
	up := strings.ToUpper(low)
	if len(up) > 5 {
		up = up[:5]
	}
	return up
}

// IncludedMeals returns the meal-inclusion flags for a canonical plan code.
// Unknown codes assert no meals.
func IncludedMeals(code string) map[string]bool {
	out := map[string]bool{}
	for _, meal := range includedMeals[strings.ToUpper(strings.TrimSpace(code))] {
		out[meal] = true
	}
	return out
}

/********** photos **********/

// BuildLegacyPhotoURL constructs the deterministic legacy media URL.
func BuildLegacyPhotoURL(hotelID, photoID int64, kind string) string {
	if kind == "" {
		kind = "hotel"
	}
	return fmt.Sprintf("%s/%s/%d/%d.jpg", photoBaseURL, kind, hotelID, photoID)
}

/********** pricing **********/

// ConvertOccupancyAdjustments converts legacy percentage adjustments
// (e.g. -20 meaning -20%) into multiplicative factors for per-person
// priced rooms. Unit-priced rooms get a minimal descriptor. Missing or
// malformed adjustment maps are tolerated.
func ConvertOccupancyAdjustments(room domain.LegacyRoom) domain.Pricing {
	if room.PricingType != "per_person" {
		return domain.Pricing{Model: "unit"}
	}
	factors := make(map[string]float64, len(room.Adjustments))
	for occ, raw := range room.Adjustments {
		pct, ok := floatFlexible(raw)
		if !ok {
			continue
		}
		factors[occ] = 1 + pct/100
	}
	return domain.Pricing{Model: "per_person", Factors: factors}
}

/********** location **********/

// LookupFunc resolves a legacy city/country id to its display name.
type LookupFunc func(ctx context.Context, id int64) (string, error)

// ResolveLocation resolves city and country names through the passed-in
// accessors. Degrades gracefully: a failing or empty lookup falls back to
// the raw id stringified rather than propagating the error.
func ResolveLocation(ctx context.Context, loc domain.LegacyLocation, city, country LookupFunc) (string, string) {
	return resolveOne(ctx, loc.CityID, city), resolveOne(ctx, loc.CountryID, country)
}

func resolveOne(ctx context.Context, id int64, fn LookupFunc) string {
	if id == 0 {
		return ""
	}
	if fn != nil {
		if name, err := fn(ctx, id); err == nil && strings.TrimSpace(name) != "" {
			return name
		}
	}
	return strconv.FormatInt(id, 10)
}
