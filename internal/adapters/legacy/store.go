package legacy

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"legacy_migrator/internal/domain"
)

// Store implements domain.LegacyStore on top of the Manager's registered
// accessors. All reads require a live connection.
type Store struct {
	m *Manager
}

func NewStore(m *Manager) *Store { return &Store{m: m} }

func (s *Store) GetAccount(ctx context.Context, id int64) (domain.LegacyAccount, error) {
	coll, err := s.m.Collection(ModelAccount)
	if err != nil {
		return domain.LegacyAccount{}, err
	}
	var acc domain.LegacyAccount
	if err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(&acc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.LegacyAccount{}, domain.ErrNotFound
		}
		return domain.LegacyAccount{}, fmt.Errorf("get account %d: %w", id, err)
	}
	return acc, nil
}

func (s *Store) ListAccounts(ctx context.Context, q domain.AccountsQuery) ([]domain.LegacyAccount, error) {
	coll, err := s.m.Collection(ModelAccount)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"status": "active"}
	if q.Type != "" {
		filter["type"] = q.Type
	}
	if q.Search != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(q.Search), Options: "i"}
		filter["$or"] = []bson.M{
			{"companyName": rx},
			{"founderName": rx},
			{"email": rx},
		}
	}
	cur, err := coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "companyName", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	var out []domain.LegacyAccount
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode accounts: %w", err)
	}
	return out, nil
}

// CountHotelsByAccount computes the derived hotelCount for every account in
// one grouped aggregation.
func (s *Store) CountHotelsByAccount(ctx context.Context) (map[int64]int64, error) {
	coll, err := s.m.Collection(ModelHotel)
	if err != nil {
		return nil, err
	}
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$account"},
			{Key: "n", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	return s.groupCounts(ctx, coll, pipeline)
}

func (s *Store) GetHotel(ctx context.Context, id int64) (domain.LegacyHotel, error) {
	coll, err := s.m.Collection(ModelHotel)
	if err != nil {
		return domain.LegacyHotel{}, err
	}
	var h domain.LegacyHotel
	if err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(&h); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.LegacyHotel{}, domain.ErrNotFound
		}
		return domain.LegacyHotel{}, fmt.Errorf("get hotel %d: %w", id, err)
	}
	return h, nil
}

func (s *Store) ListHotels(ctx context.Context, accountID int64) ([]domain.LegacyHotel, error) {
	coll, err := s.m.Collection(ModelHotel)
	if err != nil {
		return nil, err
	}
	cur, err := coll.Find(ctx, bson.M{"account": accountID},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list hotels for account %d: %w", accountID, err)
	}
	var out []domain.LegacyHotel
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode hotels: %w", err)
	}
	return out, nil
}

func (s *Store) CountRoomsByHotel(ctx context.Context, accountID int64) (map[int64]int64, error) {
	return s.countChildrenByHotel(ctx, ModelRoom, accountID)
}

func (s *Store) CountPricePlansByHotel(ctx context.Context, accountID int64) (map[int64]int64, error) {
	return s.countChildrenByHotel(ctx, ModelPricePlan, accountID)
}

func (s *Store) ListRooms(ctx context.Context, hotelID int64) ([]domain.LegacyRoom, error) {
	var out []domain.LegacyRoom
	return out, s.listChildren(ctx, ModelRoom, hotelID, &out)
}

func (s *Store) ListPricePlans(ctx context.Context, hotelID int64) ([]domain.LegacyPricePlan, error) {
	var out []domain.LegacyPricePlan
	return out, s.listChildren(ctx, ModelPricePlan, hotelID, &out)
}

func (s *Store) ListMarkets(ctx context.Context, hotelID int64) ([]domain.LegacyMarket, error) {
	var out []domain.LegacyMarket
	return out, s.listChildren(ctx, ModelMarket, hotelID, &out)
}

func (s *Store) CityName(ctx context.Context, id int64) (string, error) {
	return s.lookupName(ctx, ModelCity, id)
}

func (s *Store) CountryName(ctx context.Context, id int64) (string, error) {
	return s.lookupName(ctx, ModelCountry, id)
}

// ---- internals ----

func (s *Store) listChildren(ctx context.Context, model string, hotelID int64, out any) error {
	coll, err := s.m.Collection(model)
	if err != nil {
		return err
	}
	cur, err := coll.Find(ctx, bson.M{"hotel": hotelID},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return fmt.Errorf("list %s for hotel %d: %w", model, hotelID, err)
	}
	if err := cur.All(ctx, out); err != nil {
		return fmt.Errorf("decode %s: %w", model, err)
	}
	return nil
}

// countChildrenByHotel groups a child collection by hotel id, scoped to one
// account's hotels.
func (s *Store) countChildrenByHotel(ctx context.Context, model string, accountID int64) (map[int64]int64, error) {
	hotels, err := s.m.Collection(ModelHotel)
	if err != nil {
		return nil, err
	}
	idCur, err := hotels.Find(ctx, bson.M{"account": accountID},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("hotel ids for account %d: %w", accountID, err)
	}
	var idDocs []struct {
		ID int64 `bson:"_id"`
	}
	if err := idCur.All(ctx, &idDocs); err != nil {
		return nil, fmt.Errorf("decode hotel ids: %w", err)
	}
	ids := make([]int64, 0, len(idDocs))
	for _, d := range idDocs {
		ids = append(ids, d.ID)
	}
	if len(ids) == 0 {
		return map[int64]int64{}, nil
	}

	coll, err := s.m.Collection(model)
	if err != nil {
		return nil, err
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "hotel", Value: bson.D{{Key: "$in", Value: ids}}}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$hotel"},
			{Key: "n", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	return s.groupCounts(ctx, coll, pipeline)
}

func (s *Store) groupCounts(ctx context.Context, coll *mongo.Collection, pipeline mongo.Pipeline) (map[int64]int64, error) {
	cur, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate counts: %w", err)
	}
	var rows []struct {
		ID int64 `bson:"_id"`
		N  int64 `bson:"n"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode counts: %w", err)
	}
	out := make(map[int64]int64, len(rows))
	for _, r := range rows {
		out[r.ID] = r.N
	}
	return out, nil
}

func (s *Store) lookupName(ctx context.Context, model string, id int64) (string, error) {
	coll, err := s.m.Collection(model)
	if err != nil {
		return "", err
	}
	var doc struct {
		Name string `bson:"name"`
	}
	if err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("lookup %s %d: %w", model, id, err)
	}
	return doc.Name, nil
}
