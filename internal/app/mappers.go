package app

import (
	"context"

	"legacy_migrator/internal/domain"
	"legacy_migrator/internal/transform"
)

// Builders shared by the preview path and the import pipeline, so what the
// operator previews is exactly what gets written.

func buildHotel(ctx context.Context, store domain.LegacyStore, partner string, lh domain.LegacyHotel) domain.Hotel {
	city, country := transform.ResolveLocation(ctx, lh.Location, store.CityName, store.CountryName)
	return domain.Hotel{
		Partner:       partner,
		LegacyHotelID: lh.ID,
		Name:          lh.Name,
		Code:          lh.Code,
		Type:          transform.MapPropertyType(lh.Details.PropertyType),
		Stars:         lh.Details.Rating,
		City:          city,
		Country:       country,
		Address:       lh.Location.Street,
		Lat:           lh.Location.Lat,
		Lon:           lh.Location.Lon,
		Amenities:     transform.MapAmenities(lh.Amenities.Standard),
		Currency:      transform.MapCurrency(lh.Currency),
		CheckIn:       lh.Details.CheckIn,
		CheckOut:      lh.Details.CheckOut,
		Description:   transform.ConvertLangArray(lh.Details.FactSheet),
		InfantMaxAge:  lh.Ages.Infant,
		ChildMaxAge:   lh.Ages.Child,
	}
}

func buildRoomType(hotelID int64, r domain.LegacyRoom) domain.RoomType {
	return domain.RoomType{
		HotelID:       hotelID,
		LegacyRoomID:  r.ID,
		Name:          transform.ConvertLangArray(r.Name),
		Code:          r.Code,
		BaseOccupancy: r.BaseOccupancy,
		MaxAdults:     r.MaxAdults,
		MaxChildren:   r.MaxChildren,
		Quantity:      r.Quantity,
		Pricing:       transform.ConvertOccupancyAdjustments(r),
	}
}

func buildMealPlan(hotelID int64, p domain.LegacyPricePlan) domain.MealPlan {
	code := transform.MapMealPlanCode(p.Code)
	return domain.MealPlan{
		HotelID:      hotelID,
		LegacyPlanID: p.ID,
		Code:         code,
		Name:         transform.ConvertLangArray(p.Name),
		Meals:        transform.IncludedMeals(code),
	}
}

func buildMarket(hotelID int64, m domain.LegacyMarket) domain.Market {
	return domain.Market{
		HotelID:        hotelID,
		LegacyMarketID: m.ID,
		Code:           m.Code,
		Name:           transform.ConvertLangArray(m.Name),
		Countries:      m.Countries,
	}
}
