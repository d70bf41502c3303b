package app_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"legacy_migrator/internal/app"
	"legacy_migrator/internal/domain"
)

// ---- fakes ----

type fakeConn struct{ connected bool }

func (c *fakeConn) Connect(ctx context.Context, uri string) (domain.ConnStatus, error) {
	c.connected = true
	return c.Status(), nil
}

func (c *fakeConn) Disconnect(ctx context.Context) (domain.ConnStatus, error) {
	c.connected = false
	return c.Status(), nil
}

func (c *fakeConn) Status() domain.ConnStatus {
	if c.connected {
		return domain.ConnStatus{Connected: true, State: "connected", Host: "fake", Name: "legacy"}
	}
	return domain.ConnStatus{State: "disconnected"}
}

type fakeLegacy struct {
	accounts  map[int64]domain.LegacyAccount
	hotels    map[int64]domain.LegacyHotel
	rooms     map[int64][]domain.LegacyRoom
	plans     map[int64][]domain.LegacyPricePlan
	markets   map[int64][]domain.LegacyMarket
	cities    map[int64]string
	countries map[int64]string
}

func (f *fakeLegacy) GetAccount(ctx context.Context, id int64) (domain.LegacyAccount, error) {
	a, ok := f.accounts[id]
	if !ok {
		return domain.LegacyAccount{}, domain.ErrNotFound
	}
	return a, nil
}

func (f *fakeLegacy) ListAccounts(ctx context.Context, q domain.AccountsQuery) ([]domain.LegacyAccount, error) {
	var out []domain.LegacyAccount
	for _, a := range f.accounts {
		if q.Type != "" && a.Type != q.Type {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeLegacy) CountHotelsByAccount(ctx context.Context) (map[int64]int64, error) {
	out := map[int64]int64{}
	for _, h := range f.hotels {
		out[h.Account]++
	}
	return out, nil
}

func (f *fakeLegacy) GetHotel(ctx context.Context, id int64) (domain.LegacyHotel, error) {
	h, ok := f.hotels[id]
	if !ok {
		return domain.LegacyHotel{}, domain.ErrNotFound
	}
	return h, nil
}

func (f *fakeLegacy) ListHotels(ctx context.Context, accountID int64) ([]domain.LegacyHotel, error) {
	var out []domain.LegacyHotel
	for _, h := range f.hotels {
		if h.Account == accountID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeLegacy) CountRoomsByHotel(ctx context.Context, accountID int64) (map[int64]int64, error) {
	out := map[int64]int64{}
	for id, h := range f.hotels {
		if h.Account == accountID {
			out[id] = int64(len(f.rooms[id]))
		}
	}
	return out, nil
}

func (f *fakeLegacy) CountPricePlansByHotel(ctx context.Context, accountID int64) (map[int64]int64, error) {
	out := map[int64]int64{}
	for id, h := range f.hotels {
		if h.Account == accountID {
			out[id] = int64(len(f.plans[id]))
		}
	}
	return out, nil
}

func (f *fakeLegacy) ListRooms(ctx context.Context, hotelID int64) ([]domain.LegacyRoom, error) {
	return f.rooms[hotelID], nil
}

func (f *fakeLegacy) ListPricePlans(ctx context.Context, hotelID int64) ([]domain.LegacyPricePlan, error) {
	return f.plans[hotelID], nil
}

func (f *fakeLegacy) ListMarkets(ctx context.Context, hotelID int64) ([]domain.LegacyMarket, error) {
	return f.markets[hotelID], nil
}

func (f *fakeLegacy) CityName(ctx context.Context, id int64) (string, error) {
	if n, ok := f.cities[id]; ok {
		return n, nil
	}
	return "", domain.ErrNotFound
}

func (f *fakeLegacy) CountryName(ctx context.Context, id int64) (string, error) {
	if n, ok := f.countries[id]; ok {
		return n, nil
	}
	return "", domain.ErrNotFound
}

type fakeTarget struct {
	nextID  int64
	hotels  map[int64]domain.Hotel // keyed by new id
	rooms   []domain.RoomType
	plans   []domain.MealPlan
	markets []domain.Market
	photos  []domain.Photo

	failRoomLegacyID int64 // CreateRoomType fails for this legacy room id
	failCleanupFor   int64 // DeleteByLegacyHotel fails for this legacy hotel id
}

func newFakeTarget() *fakeTarget { return &fakeTarget{hotels: map[int64]domain.Hotel{}} }

func (t *fakeTarget) id() int64 { t.nextID++; return t.nextID }

func (t *fakeTarget) CreateHotel(ctx context.Context, h domain.Hotel) (int64, error) {
	h.ID = t.id()
	t.hotels[h.ID] = h
	return h.ID, nil
}

func (t *fakeTarget) CreateRoomType(ctx context.Context, rt domain.RoomType) (int64, error) {
	if t.failRoomLegacyID != 0 && rt.LegacyRoomID == t.failRoomLegacyID {
		return 0, errors.New("simulated room insert failure")
	}
	rt.ID = t.id()
	t.rooms = append(t.rooms, rt)
	return rt.ID, nil
}

func (t *fakeTarget) CreateMealPlan(ctx context.Context, mp domain.MealPlan) (int64, error) {
	mp.ID = t.id()
	t.plans = append(t.plans, mp)
	return mp.ID, nil
}

func (t *fakeTarget) CreateMarket(ctx context.Context, m domain.Market) (int64, error) {
	m.ID = t.id()
	t.markets = append(t.markets, m)
	return m.ID, nil
}

func (t *fakeTarget) CreatePhoto(ctx context.Context, p domain.Photo) (int64, error) {
	p.ID = t.id()
	t.photos = append(t.photos, p)
	return p.ID, nil
}

func (t *fakeTarget) DeleteByLegacyHotel(ctx context.Context, partner string, legacyHotelID int64) error {
	if t.failCleanupFor != 0 && legacyHotelID == t.failCleanupFor {
		return errors.New("simulated cleanup failure")
	}
	removed := map[int64]bool{}
	for id, h := range t.hotels {
		if h.Partner == partner && h.LegacyHotelID == legacyHotelID {
			removed[id] = true
			delete(t.hotels, id)
		}
	}
	keepRooms := t.rooms[:0]
	for _, r := range t.rooms {
		if !removed[r.HotelID] {
			keepRooms = append(keepRooms, r)
		}
	}
	t.rooms = keepRooms
	keepPhotos := t.photos[:0]
	for _, p := range t.photos {
		if !removed[p.HotelID] {
			keepPhotos = append(keepPhotos, p)
		}
	}
	t.photos = keepPhotos
	return nil
}

func (t *fakeTarget) hotelsByLegacyID(legacyID int64) []domain.Hotel {
	var out []domain.Hotel
	for _, h := range t.hotels {
		if h.LegacyHotelID == legacyID {
			out = append(out, h)
		}
	}
	return out
}

type fakeHistory struct {
	created  *domain.MigrationRun
	appended []domain.HotelResult

	finalStatus  string
	finalHotels  []domain.HotelResult
	finalSummary domain.RunSummary
	finalized    bool
}

func (h *fakeHistory) CreateRun(ctx context.Context, run *domain.MigrationRun) (int64, error) {
	run.ID = 1
	run.Status = domain.RunInProgress
	h.created = run
	return run.ID, nil
}

func (h *fakeHistory) AppendHotelResult(ctx context.Context, runID int64, res domain.HotelResult) error {
	h.appended = append(h.appended, res)
	return nil
}

func (h *fakeHistory) FinalizeRun(ctx context.Context, runID int64, status string, hotels []domain.HotelResult, sum domain.RunSummary) error {
	h.finalStatus = status
	h.finalHotels = hotels
	h.finalSummary = sum
	h.finalized = true
	return nil
}

func (h *fakeHistory) ListRuns(ctx context.Context, partner string, limit int) ([]domain.MigrationRun, error) {
	if h.created == nil {
		return nil, nil
	}
	return []domain.MigrationRun{*h.created}, nil
}

type fakeImages struct {
	failURLs map[string]bool
	fetched  []string
}

func (f *fakeImages) Fetch(ctx context.Context, url string) (string, error) {
	if f.failURLs[url] {
		return "", errors.New("simulated download failure")
	}
	f.fetched = append(f.fetched, url)
	return "/media/" + fmt.Sprintf("%d.jpg", len(f.fetched)), nil
}

type fakeProgress struct{ events []domain.ProgressEvent }

func (f *fakeProgress) Publish(ctx context.Context, ev domain.ProgressEvent) error {
	f.events = append(f.events, ev)
	return nil
}

// ---- fixture ----

func boolPtr(b bool) *bool { return &b }

func seedLegacy() *fakeLegacy {
	mkHotel := func(id int64, name string, photos []domain.LegacyPhoto) domain.LegacyHotel {
		return domain.LegacyHotel{
			ID: id, Account: 100, Name: name, Code: fmt.Sprintf("H%d", id),
			Location: domain.LegacyLocation{CityID: 10, CountryID: 20, Street: "Main St 1"},
			Details: domain.LegacyHotelDetails{
				Rating: 4, PropertyType: 1, FactSheet: "A fine hotel",
				CheckIn: "14:00", CheckOut: "12:00",
			},
			Amenities: domain.LegacyAmenities{Standard: []int{1, 3}},
			Currency:  "usd",
			Photos:    photos,
			Ages:      domain.LegacyAges{Infant: 2, Child: 12},
		}
	}
	return &fakeLegacy{
		accounts: map[int64]domain.LegacyAccount{
			100: {ID: 100, CompanyName: "Sunny Stays", Type: "corporate", Status: "active"},
		},
		hotels: map[int64]domain.LegacyHotel{
			1: mkHotel(1, "Hotel One", []domain.LegacyPhoto{{ID: 11}, {ID: 12, Status: boolPtr(false)}}),
			2: mkHotel(2, "Hotel Two", []domain.LegacyPhoto{{ID: 21, Status: boolPtr(true)}}),
			3: mkHotel(3, "Hotel Three", nil),
		},
		rooms: map[int64][]domain.LegacyRoom{
			1: {{ID: 101, Hotel: 1, Name: "Standard", Code: "STD", PricingType: "unit"}},
			2: {
				{ID: 201, Hotel: 2, Name: "Standard", Code: "STD", PricingType: "unit"},
				{ID: 202, Hotel: 2, Name: "Suite", Code: "SUI", PricingType: "per_person",
					Adjustments: map[string]any{"1": -20}},
				{ID: 203, Hotel: 2, Name: "Family", Code: "FAM", PricingType: "unit"},
			},
		},
		plans: map[int64][]domain.LegacyPricePlan{
			1: {{ID: 301, Hotel: 1, Name: "Bed & Breakfast", Code: "bb"}},
			2: {{ID: 302, Hotel: 2, Name: "Self Catering", Code: "sc"}},
		},
		markets: map[int64][]domain.LegacyMarket{
			2: {{ID: 401, Hotel: 2, Name: "UK", Code: "uk", Countries: []string{"GB", "IE"}}},
		},
		cities:    map[int64]string{10: "Antalya"},
		countries: map[int64]string{20: "Turkey"},
	}
}

type fixture struct {
	conn     *fakeConn
	legacy   *fakeLegacy
	target   *fakeTarget
	history  *fakeHistory
	images   *fakeImages
	progress *fakeProgress
	svc      *app.MigrationService
}

func newFixture() *fixture {
	f := &fixture{
		conn:     &fakeConn{connected: true},
		legacy:   seedLegacy(),
		target:   newFakeTarget(),
		history:  &fakeHistory{},
		images:   &fakeImages{},
		progress: &fakeProgress{},
	}
	f.svc = app.NewMigrationService(f.conn, f.legacy, f.target, f.history, f.images, f.progress, zerolog.Nop())
	return f
}

func (f *fixture) migrateAndWait(t *testing.T, req app.MigrateRequest) string {
	t.Helper()
	opID, err := f.svc.Migrate(context.Background(), req)
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	f.svc.Wait()
	return opID
}

func allThree() []app.HotelConfig {
	return []app.HotelConfig{{OldHotelID: 1}, {OldHotelID: 2}, {OldHotelID: 3}}
}

// ---- tests ----

func TestMigrate_Validation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	cases := []app.MigrateRequest{
		{AccountID: 100, Hotels: allThree()}, // no partner
		{Partner: "p1", Hotels: allThree()},  // no account
		{Partner: "p1", AccountID: 100},      // no hotels
	}
	for i, req := range cases {
		if _, err := f.svc.Migrate(ctx, req); !errors.Is(err, app.ErrValidation) {
			t.Fatalf("case %d: expected ErrValidation, got %v", i, err)
		}
	}

	// unknown account
	req := app.MigrateRequest{Partner: "p1", AccountID: 999, Hotels: allThree()}
	if _, err := f.svc.Migrate(ctx, req); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown account, got %v", err)
	}

	// no background work may have started for rejected calls
	if f.history.created != nil {
		t.Fatal("rejected calls must not create history records")
	}
}

func TestMigrate_RequiresLiveConnection(t *testing.T) {
	f := newFixture()
	f.conn.connected = false

	req := app.MigrateRequest{Partner: "p1", AccountID: 100, Hotels: allThree()}
	if _, err := f.svc.Migrate(context.Background(), req); !errors.Is(err, domain.ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestMigrate_FullRunHappyPath(t *testing.T) {
	f := newFixture()
	opID := f.migrateAndWait(t, app.MigrateRequest{
		Partner: "p1", PerformedBy: "ops@example.com", AccountID: 100, Hotels: allThree(),
	})
	if opID == "" {
		t.Fatal("operation id must be returned")
	}

	if !f.history.finalized || f.history.finalStatus != domain.RunCompleted {
		t.Fatalf("run status: %s (finalized=%v)", f.history.finalStatus, f.history.finalized)
	}
	sum := f.history.finalSummary
	if sum.TotalHotels != 3 || sum.MigratedHotels != 3 || sum.FailedHotels != 0 {
		t.Fatalf("summary: %+v", sum)
	}
	// hotel 1 has one inactive photo excluded; hotel 2 one active; hotel 3 none
	if sum.TotalPhotos != 2 || sum.DownloadedPhotos != 2 {
		t.Fatalf("photo summary: %+v", sum)
	}
	if len(f.target.hotels) != 3 {
		t.Fatalf("target hotels: %d", len(f.target.hotels))
	}
	// transformed fields made it through to the write
	for _, h := range f.target.hotels {
		if h.Currency != "USD" || h.City != "Antalya" || h.Type != "hotel" {
			t.Fatalf("transformed hotel wrong: %+v", h)
		}
	}
	// incremental history writes, one per hotel
	if len(f.history.appended) != 3 {
		t.Fatalf("appended results: %d", len(f.history.appended))
	}
}

func TestMigrate_Idempotence(t *testing.T) {
	f := newFixture()
	req := app.MigrateRequest{Partner: "p1", AccountID: 100, Hotels: allThree()}

	f.migrateAndWait(t, req)
	f.migrateAndWait(t, req)

	// exactly one target hotel per legacy id after each run, never duplicates
	for _, legacyID := range []int64{1, 2, 3} {
		if n := len(f.target.hotelsByLegacyID(legacyID)); n != 1 {
			t.Fatalf("legacy hotel %d: %d target hotels after re-run", legacyID, n)
		}
	}
	// children of the superseded hotels are gone too
	for _, r := range f.target.rooms {
		if _, ok := f.target.hotels[r.HotelID]; !ok {
			t.Fatalf("orphan room type %d for deleted hotel %d", r.ID, r.HotelID)
		}
	}
}

func TestMigrate_PartialFailureIsolation(t *testing.T) {
	f := newFixture()
	f.target.failRoomLegacyID = 202 // one of hotel 2's three rooms

	f.migrateAndWait(t, app.MigrateRequest{Partner: "p1", AccountID: 100, Hotels: allThree()})

	if len(f.history.finalHotels) != 3 {
		t.Fatalf("hotel results: %d", len(f.history.finalHotels))
	}
	h1, h2, h3 := f.history.finalHotels[0], f.history.finalHotels[1], f.history.finalHotels[2]

	if h2.RoomTypes.Total != 3 || h2.RoomTypes.Migrated != 2 || h2.RoomTypes.Failed != 1 {
		t.Fatalf("hotel 2 room stats: %+v", h2.RoomTypes)
	}
	if h2.Status != domain.HotelPartial {
		t.Fatalf("hotel 2 status: %s", h2.Status)
	}
	if len(h2.Errors) == 0 || !strings.Contains(h2.Errors[0], "room 202") {
		t.Fatalf("hotel 2 errors: %v", h2.Errors)
	}
	// siblings continued after the failure
	if h2.MealPlans.Migrated != 1 || h2.Markets.Migrated != 1 {
		t.Fatalf("hotel 2 siblings: plans=%+v markets=%+v", h2.MealPlans, h2.Markets)
	}
	// neighbors are untouched by hotel 2's failure
	if h1.Status != domain.HotelCompleted || h3.Status != domain.HotelCompleted {
		t.Fatalf("neighbor statuses: %s / %s", h1.Status, h3.Status)
	}
	// no hotel failed outright, so the run completes
	if f.history.finalStatus != domain.RunCompleted {
		t.Fatalf("run status: %s", f.history.finalStatus)
	}
}

func TestMigrate_HotelFailureDoesNotAbortRun(t *testing.T) {
	f := newFixture()
	hotels := []app.HotelConfig{{OldHotelID: 1}, {OldHotelID: 999}, {OldHotelID: 3}}

	f.migrateAndWait(t, app.MigrateRequest{Partner: "p1", AccountID: 100, Hotels: hotels})

	if f.history.finalStatus != domain.RunPartial {
		t.Fatalf("run status: %s", f.history.finalStatus)
	}
	sum := f.history.finalSummary
	if sum.MigratedHotels != 2 || sum.FailedHotels != 1 {
		t.Fatalf("summary: %+v", sum)
	}
	if got := f.history.finalHotels[1]; got.Status != domain.HotelFailed || len(got.Errors) == 0 {
		t.Fatalf("missing hotel result: %+v", got)
	}
}

func TestMigrate_AllHotelsFailed(t *testing.T) {
	f := newFixture()
	hotels := []app.HotelConfig{{OldHotelID: 998}, {OldHotelID: 999}}

	f.migrateAndWait(t, app.MigrateRequest{Partner: "p1", AccountID: 100, Hotels: hotels})

	if f.history.finalStatus != domain.RunFailed {
		t.Fatalf("run status: %s", f.history.finalStatus)
	}
}

func TestMigrate_CleanupFailureAbortsOnlyThatHotel(t *testing.T) {
	f := newFixture()
	f.target.failCleanupFor = 1

	f.migrateAndWait(t, app.MigrateRequest{Partner: "p1", AccountID: 100, Hotels: allThree()})

	h1 := f.history.finalHotels[0]
	if h1.Status != domain.HotelFailed {
		t.Fatalf("hotel 1 status: %s", h1.Status)
	}
	if len(h1.Errors) == 0 || !strings.Contains(h1.Errors[0], "cleanup failed") {
		t.Fatalf("hotel 1 errors: %v", h1.Errors)
	}
	// hotel 1 was never imported
	if n := len(f.target.hotelsByLegacyID(1)); n != 0 {
		t.Fatalf("hotel 1 must not be imported after failed cleanup, got %d", n)
	}
	// the others ran normally
	if f.history.finalHotels[1].Status != domain.HotelCompleted {
		t.Fatalf("hotel 2 status: %s", f.history.finalHotels[1].Status)
	}
	if f.history.finalStatus != domain.RunPartial {
		t.Fatalf("run status: %s", f.history.finalStatus)
	}
}

func TestMigrate_EventOrdering(t *testing.T) {
	f := newFixture()
	opID := f.migrateAndWait(t, app.MigrateRequest{Partner: "p1", AccountID: 100, Hotels: allThree()})

	var types []string
	for _, ev := range f.progress.events {
		if ev.OperationID != opID {
			t.Fatalf("event tagged with wrong operation id: %+v", ev)
		}
		if ev.Timestamp.IsZero() {
			t.Fatalf("event without timestamp: %+v", ev)
		}
		types = append(types, ev.Type)
	}
	want := []string{
		"started",
		"hotel:start", "hotel:complete",
		"hotel:start", "hotel:complete",
		"hotel:start", "hotel:complete",
		"complete",
	}
	if strings.Join(types, ",") != strings.Join(want, ",") {
		t.Fatalf("event sequence: %v", types)
	}

	// hotel events follow the input order 1:1
	idx := 0
	wantIDs := []int64{1, 2, 3}
	for _, ev := range f.progress.events {
		if ev.Type != "hotel:start" {
			continue
		}
		if got := ev.Data["legacyHotelId"].(int64); got != wantIDs[idx] {
			t.Fatalf("hotel:start %d for legacy hotel %d, want %d", idx, got, wantIDs[idx])
		}
		idx++
	}
}

func TestMigrate_PhotoAccounting(t *testing.T) {
	f := newFixture()
	// fail the single active photo of hotel 2
	f.images.failURLs = map[string]bool{
		"https://media.legacy-reservations.net/hotel/2/21.jpg": true,
	}

	f.migrateAndWait(t, app.MigrateRequest{Partner: "p1", AccountID: 100, Hotels: allThree()})

	sum := f.history.finalSummary
	// inactive photo of hotel 1 never counts toward totals
	if sum.TotalPhotos != 2 {
		t.Fatalf("total photos: %d", sum.TotalPhotos)
	}
	if sum.DownloadedPhotos != 1 {
		t.Fatalf("downloaded photos: %d", sum.DownloadedPhotos)
	}
	if sum.DownloadedPhotos > sum.TotalPhotos {
		t.Fatal("downloaded may never exceed total")
	}
	h2 := f.history.finalHotels[1]
	if h2.Photos.Failed != 1 || h2.Status != domain.HotelPartial {
		t.Fatalf("hotel 2 after photo failure: %+v", h2)
	}
	// photo positions preserve input order
	for _, p := range f.target.photos {
		if p.Position != 0 {
			t.Fatalf("unexpected photo position: %+v", p)
		}
	}
}

func TestMigrate_SkipPhotosOption(t *testing.T) {
	f := newFixture()
	hotels := []app.HotelConfig{{OldHotelID: 1, SkipPhotos: true}}

	f.migrateAndWait(t, app.MigrateRequest{Partner: "p1", AccountID: 100, Hotels: hotels})

	if len(f.images.fetched) != 0 {
		t.Fatalf("no downloads expected, got %v", f.images.fetched)
	}
	if f.history.finalHotels[0].Photos.Total != 0 {
		t.Fatalf("photo stats with SkipPhotos: %+v", f.history.finalHotels[0].Photos)
	}
}
