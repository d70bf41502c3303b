package domain

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound: a legacy record the caller asked for does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNotConnected: an operation needed the legacy store but no live
	// connection exists. Callers must Connect first.
	ErrNotConnected = errors.New("legacy store not connected")
)

// ConnStatus is the operator-facing view of the legacy connection. Status()
// implementations must return a definite shape and never fail.
type ConnStatus struct {
	Connected bool   `json:"connected"`
	State     string `json:"state"` // disconnected|connecting|connected|disconnecting
	Host      string `json:"host,omitempty"`
	Name      string `json:"name,omitempty"`
}

// LegacyConnection owns the single cached handle to the legacy store.
type LegacyConnection interface {
	Connect(ctx context.Context, uri string) (ConnStatus, error)
	Disconnect(ctx context.Context) (ConnStatus, error)
	Status() ConnStatus
}

// LegacyStore reads the legacy document store through the managed
// connection. Aggregate counts are computed store-side.
type LegacyStore interface {
	GetAccount(ctx context.Context, id int64) (LegacyAccount, error)
	ListAccounts(ctx context.Context, q AccountsQuery) ([]LegacyAccount, error)
	CountHotelsByAccount(ctx context.Context) (map[int64]int64, error)

	GetHotel(ctx context.Context, id int64) (LegacyHotel, error)
	ListHotels(ctx context.Context, accountID int64) ([]LegacyHotel, error)
	CountRoomsByHotel(ctx context.Context, accountID int64) (map[int64]int64, error)
	CountPricePlansByHotel(ctx context.Context, accountID int64) (map[int64]int64, error)

	ListRooms(ctx context.Context, hotelID int64) ([]LegacyRoom, error)
	ListPricePlans(ctx context.Context, hotelID int64) ([]LegacyPricePlan, error)
	ListMarkets(ctx context.Context, hotelID int64) ([]LegacyMarket, error)

	CityName(ctx context.Context, id int64) (string, error)
	CountryName(ctx context.Context, id int64) (string, error)
}

// TargetRepo writes the platform schema. DeleteByLegacyHotel is the
// idempotency hook: it removes every artifact of a previous migration of
// the given legacy hotel (children first, then the hotel row).
type TargetRepo interface {
	CreateHotel(ctx context.Context, h Hotel) (int64, error)
	CreateRoomType(ctx context.Context, rt RoomType) (int64, error)
	CreateMealPlan(ctx context.Context, mp MealPlan) (int64, error)
	CreateMarket(ctx context.Context, m Market) (int64, error)
	CreatePhoto(ctx context.Context, p Photo) (int64, error)
	DeleteByLegacyHotel(ctx context.Context, partner string, legacyHotelID int64) error
}

// HistoryStore persists migration runs. AppendHotelResult lets an
// interrupted run stay inspectable; FinalizeRun is the single terminal
// write.
type HistoryStore interface {
	CreateRun(ctx context.Context, run *MigrationRun) (int64, error)
	AppendHotelResult(ctx context.Context, runID int64, res HotelResult) error
	FinalizeRun(ctx context.Context, runID int64, status string, hotels []HotelResult, sum RunSummary) error
	ListRuns(ctx context.Context, partner string, limit int) ([]MigrationRun, error)
}

// ImageFetcher downloads one legacy photo and stores it, returning the new
// reference. Implementations carry their own timeouts.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// ProgressEvent is published under the operation id as topic; events for a
// run are emitted in the same order the work completes.
type ProgressEvent struct {
	Type        string         `json:"type"` // started|hotel:start|hotel:complete|complete
	OperationID string         `json:"operationId"`
	Timestamp   time.Time      `json:"timestamp"`
	Data        map[string]any `json:"data,omitempty"`
}

type ProgressPublisher interface {
	Publish(ctx context.Context, ev ProgressEvent) error
}
