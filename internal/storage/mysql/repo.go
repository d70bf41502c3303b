package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"legacy_migrator/internal/domain"
)

func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func asJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

// Repo implements domain.TargetRepo against the platform's MySQL schema.
type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) CreateHotel(ctx context.Context, h domain.Hotel) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertHotelSQL,
		h.Partner,
		h.LegacyHotelID,
		h.Name,
		h.Code,
		h.Type,
		h.Stars,
		h.City,
		h.Country,
		h.Address,
		valF64(h.Lat),
		valF64(h.Lon),
		asJSON(h.Amenities),
		h.Currency,
		h.CheckIn,
		h.CheckOut,
		asJSON(h.Description),
		h.InfantMaxAge,
		h.ChildMaxAge,
	)
	if err != nil {
		return 0, fmt.Errorf("insert hotel: %w", err)
	}
	return res.LastInsertId()
}

func (r *Repo) CreateRoomType(ctx context.Context, rt domain.RoomType) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertRoomTypeSQL,
		rt.HotelID,
		rt.LegacyRoomID,
		asJSON(rt.Name),
		rt.Code,
		rt.BaseOccupancy,
		rt.MaxAdults,
		rt.MaxChildren,
		rt.Quantity,
		asJSON(rt.Pricing),
	)
	if err != nil {
		return 0, fmt.Errorf("insert room type: %w", err)
	}
	return res.LastInsertId()
}

func (r *Repo) CreateMealPlan(ctx context.Context, mp domain.MealPlan) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertMealPlanSQL,
		mp.HotelID,
		mp.LegacyPlanID,
		mp.Code,
		asJSON(mp.Name),
		asJSON(mp.Meals),
	)
	if err != nil {
		return 0, fmt.Errorf("insert meal plan: %w", err)
	}
	return res.LastInsertId()
}

func (r *Repo) CreateMarket(ctx context.Context, m domain.Market) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertMarketSQL,
		m.HotelID,
		m.LegacyMarketID,
		m.Code,
		asJSON(m.Name),
		asJSON(m.Countries),
	)
	if err != nil {
		return 0, fmt.Errorf("insert market: %w", err)
	}
	return res.LastInsertId()
}

func (r *Repo) CreatePhoto(ctx context.Context, p domain.Photo) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertPhotoSQL,
		p.HotelID,
		p.LegacyPhotoID,
		p.Reference,
		p.Position,
	)
	if err != nil {
		return 0, fmt.Errorf("insert photo: %w", err)
	}
	return res.LastInsertId()
}

// DeleteByLegacyHotel removes every artifact of a previous migration of the
// given legacy hotel for this partner, inside one transaction so a failed
// cleanup never leaves a hotel half-deleted.
func (r *Repo) DeleteByLegacyHotel(ctx context.Context, partner string, legacyHotelID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cleanup: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"hotel_photos", "room_types", "meal_plans", "markets"} {
		q := fmt.Sprintf(deleteChildrenSQLTmpl, table)
		if _, err := tx.ExecContext(ctx, q, partner, legacyHotelID); err != nil {
			return fmt.Errorf("cleanup %s: %w", table, err)
		}
	}
	if _, err := tx.ExecContext(ctx, deleteHotelSQL, partner, legacyHotelID); err != nil {
		return fmt.Errorf("cleanup hotels: %w", err)
	}
	return tx.Commit()
}
