package app

import (
	"context"
	"fmt"

	"legacy_migrator/internal/domain"
	"legacy_migrator/internal/transform"
)

// BrowseService covers the read-only operator surface: legacy session
// management, account/hotel discovery, preview, and history listing. It
// never writes to the target schema.
type BrowseService struct {
	conn    domain.LegacyConnection
	legacy  domain.LegacyStore
	history domain.HistoryStore
}

func NewBrowseService(conn domain.LegacyConnection, legacy domain.LegacyStore, history domain.HistoryStore) *BrowseService {
	return &BrowseService{conn: conn, legacy: legacy, history: history}
}

func (s *BrowseService) Connect(ctx context.Context, uri string) (domain.ConnStatus, error) {
	return s.conn.Connect(ctx, uri)
}

func (s *BrowseService) Disconnect(ctx context.Context) (domain.ConnStatus, error) {
	return s.conn.Disconnect(ctx)
}

func (s *BrowseService) Status() domain.ConnStatus { return s.conn.Status() }

// ListAccounts returns active legacy accounts with their derived hotel
// counts; accounts without hotels are dropped since there is nothing to
// migrate for them.
func (s *BrowseService) ListAccounts(ctx context.Context, q domain.AccountsQuery) ([]domain.AccountSummary, error) {
	accounts, err := s.legacy.ListAccounts(ctx, q)
	if err != nil {
		return nil, err
	}
	counts, err := s.legacy.CountHotelsByAccount(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.AccountSummary, 0, len(accounts))
	for _, a := range accounts {
		n := counts[a.ID]
		if n == 0 {
			continue
		}
		out = append(out, domain.AccountSummary{
			ID:          a.ID,
			CompanyName: a.DisplayName(),
			Type:        a.Type,
			Email:       a.Email,
			Phone:       a.Phone,
			HotelCount:  n,
		})
	}
	return out, nil
}

// ListAccountHotels returns one summary row per hotel with room/meal-plan
// counts, the resolved city name and the active-photo count.
func (s *BrowseService) ListAccountHotels(ctx context.Context, accountID int64) ([]domain.LegacyHotelSummary, error) {
	hotels, err := s.legacy.ListHotels(ctx, accountID)
	if err != nil {
		return nil, err
	}
	rooms, err := s.legacy.CountRoomsByHotel(ctx, accountID)
	if err != nil {
		return nil, err
	}
	plans, err := s.legacy.CountPricePlansByHotel(ctx, accountID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.LegacyHotelSummary, 0, len(hotels))
	for _, h := range hotels {
		city, _ := transform.ResolveLocation(ctx, h.Location, s.legacy.CityName, s.legacy.CountryName)
		out = append(out, domain.LegacyHotelSummary{
			ID:            h.ID,
			Name:          h.Name,
			Code:          h.Code,
			City:          city,
			Stars:         h.Details.Rating,
			RoomCount:     rooms[h.ID],
			MealPlanCount: plans[h.ID],
			PhotoCount:    len(h.ActivePhotos()),
			Currency:      transform.MapCurrency(h.Currency),
		})
	}
	return out, nil
}

// PreviewHotel runs the full transformation without writing anything; the
// projection is the contract an operator uses to pick hotels for a run.
func (s *BrowseService) PreviewHotel(ctx context.Context, hotelID int64) (domain.HotelPreview, error) {
	lh, err := s.legacy.GetHotel(ctx, hotelID)
	if err != nil {
		return domain.HotelPreview{}, fmt.Errorf("legacy hotel %d: %w", hotelID, err)
	}
	rooms, err := s.legacy.ListRooms(ctx, hotelID)
	if err != nil {
		return domain.HotelPreview{}, err
	}
	plans, err := s.legacy.ListPricePlans(ctx, hotelID)
	if err != nil {
		return domain.HotelPreview{}, err
	}
	markets, err := s.legacy.ListMarkets(ctx, hotelID)
	if err != nil {
		return domain.HotelPreview{}, err
	}

	pv := domain.HotelPreview{
		Hotel:     buildHotel(ctx, s.legacy, "", lh),
		Rooms:     make([]domain.RoomType, 0, len(rooms)),
		MealPlans: make([]domain.MealPlan, 0, len(plans)),
		Markets:   make([]domain.Market, 0, len(markets)),
	}
	for _, r := range rooms {
		pv.Rooms = append(pv.Rooms, buildRoomType(0, r))
	}
	for _, p := range plans {
		pv.MealPlans = append(pv.MealPlans, buildMealPlan(0, p))
	}
	for _, m := range markets {
		pv.Markets = append(pv.Markets, buildMarket(0, m))
	}
	return pv, nil
}

func (s *BrowseService) History(ctx context.Context, partner string, limit int) ([]domain.MigrationRun, error) {
	return s.history.ListRuns(ctx, partner, limit)
}
