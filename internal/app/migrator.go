package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"legacy_migrator/internal/adapters/observability"
	"legacy_migrator/internal/domain"
	"legacy_migrator/internal/transform"
)

// ErrValidation marks pre-flight request problems reported before any
// background work starts.
var ErrValidation = errors.New("invalid migrate request")

// HotelConfig selects one legacy hotel for a run.
type HotelConfig struct {
	OldHotelID int64 `json:"oldHotelId"`
	SkipPhotos bool  `json:"skipPhotos,omitempty"`
}

type MigrateRequest struct {
	Partner     string
	PerformedBy string
	AccountID   int64
	Hotels      []HotelConfig
}

// MigrationService orchestrates multi-hotel migration runs: pre-flight
// validation and cleanup, detached background execution, progress emission
// and history finalization.
type MigrationService struct {
	conn     domain.LegacyConnection
	legacy   domain.LegacyStore
	target   domain.TargetRepo
	history  domain.HistoryStore
	images   domain.ImageFetcher
	progress domain.ProgressPublisher
	log      zerolog.Logger

	running sync.WaitGroup
}

func NewMigrationService(
	conn domain.LegacyConnection,
	legacy domain.LegacyStore,
	target domain.TargetRepo,
	history domain.HistoryStore,
	images domain.ImageFetcher,
	progress domain.ProgressPublisher,
	logger zerolog.Logger,
) *MigrationService {
	return &MigrationService{
		conn:     conn,
		legacy:   legacy,
		target:   target,
		history:  history,
		images:   images,
		progress: progress,
		log:      logger,
	}
}

// Migrate validates the request, deletes artifacts of any previous
// migration of the listed hotels, records the run and returns an operation
// id immediately; the import itself proceeds detached from the request.
// The response only ever means "accepted" — outcomes are visible through
// the progress channel and the finalized history record.
func (s *MigrationService) Migrate(ctx context.Context, req MigrateRequest) (string, error) {
	if req.Partner == "" {
		return "", fmt.Errorf("%w: partnerId is required", ErrValidation)
	}
	if req.AccountID == 0 {
		return "", fmt.Errorf("%w: accountId is required", ErrValidation)
	}
	if len(req.Hotels) == 0 {
		return "", fmt.Errorf("%w: hotelConfigs must not be empty", ErrValidation)
	}
	// a run that cannot possibly complete must not be accepted
	if st := s.conn.Status(); !st.Connected {
		return "", domain.ErrNotConnected
	}
	account, err := s.legacy.GetAccount(ctx, req.AccountID)
	if err != nil {
		return "", fmt.Errorf("legacy account %d: %w", req.AccountID, err)
	}

	// Idempotency: supersede earlier migrations of the same legacy hotels
	// before importing. A failed cleanup aborts only that hotel, recorded
	// as its failure once the run executes.
	cleanupErrs := make(map[int64]error)
	for _, hc := range req.Hotels {
		if err := s.target.DeleteByLegacyHotel(ctx, req.Partner, hc.OldHotelID); err != nil {
			cleanupErrs[hc.OldHotelID] = err
			s.log.Warn().Int64("legacyHotelId", hc.OldHotelID).Err(err).
				Msg("pre-flight cleanup failed")
		}
	}

	run := &domain.MigrationRun{
		OperationID:       uuid.NewString(),
		Partner:           req.Partner,
		PerformedBy:       req.PerformedBy,
		LegacyAccountID:   req.AccountID,
		LegacyAccountName: account.DisplayName(),
		StartedAt:         time.Now().UTC(),
		Summary:           domain.RunSummary{TotalHotels: len(req.Hotels)},
	}
	if _, err := s.history.CreateRun(ctx, run); err != nil {
		return "", fmt.Errorf("create history record: %w", err)
	}

	s.running.Add(1)
	go func() {
		defer s.running.Done()
		// detached from the request lifecycle on purpose
		s.run(context.Background(), run, req, cleanupErrs)
	}()
	return run.OperationID, nil
}

// Wait blocks until all background runs in flight have finished. Used on
// shutdown and in tests.
func (s *MigrationService) Wait() { s.running.Wait() }

func (s *MigrationService) run(ctx context.Context, run *domain.MigrationRun, req MigrateRequest, cleanupErrs map[int64]error) {
	s.publish(ctx, run.OperationID, "started", map[string]any{
		"totalHotels": len(req.Hotels),
		"accountId":   req.AccountID,
		"accountName": run.LegacyAccountName,
	})

	results := make([]domain.HotelResult, 0, len(req.Hotels))
	sum := domain.RunSummary{TotalHotels: len(req.Hotels)}

	// strictly sequential, in input order: one hotel's full sub-pipeline
	// (photos included) completes before the next begins
	for i, hc := range req.Hotels {
		s.publish(ctx, run.OperationID, "hotel:start", map[string]any{
			"index":         i,
			"legacyHotelId": hc.OldHotelID,
		})

		started := time.Now()
		res := s.importHotel(ctx, req.Partner, hc, cleanupErrs[hc.OldHotelID])
		res.DurationMS = time.Since(started).Milliseconds()
		observability.ObserveHotel(res.Status, time.Since(started))

		if err := s.history.AppendHotelResult(ctx, run.ID, res); err != nil {
			s.log.Error().Err(err).Int64("run", run.ID).Msg("append hotel result failed")
		}
		results = append(results, res)

		sum.TotalPhotos += res.Photos.Total
		sum.DownloadedPhotos += res.Photos.Downloaded
		if res.Status == domain.HotelFailed {
			sum.FailedHotels++
		} else {
			sum.MigratedHotels++
		}

		data := map[string]any{
			"index":         i,
			"legacyHotelId": hc.OldHotelID,
			"name":          res.LegacyHotelName,
			"status":        res.Status,
		}
		if res.Status == domain.HotelFailed {
			data["errors"] = res.Errors
		} else {
			data["roomTypes"] = res.RoomTypes
			data["mealPlans"] = res.MealPlans
			data["markets"] = res.Markets
			data["photos"] = res.Photos
		}
		s.publish(ctx, run.OperationID, "hotel:complete", data)
	}

	status := domain.RunStatusFor(sum.MigratedHotels, sum.FailedHotels)
	if err := s.history.FinalizeRun(ctx, run.ID, status, results, sum); err != nil {
		s.log.Error().Err(err).Int64("run", run.ID).Msg("finalize run failed")
	}
	observability.ObserveRun(status)

	s.publish(ctx, run.OperationID, "complete", map[string]any{
		"status":    status,
		"summary":   sum,
		"historyId": run.ID,
	})
	s.log.Info().Str("operation", run.OperationID).Str("status", status).
		Int("migrated", sum.MigratedHotels).Int("failed", sum.FailedHotels).
		Msg("migration run finished")
}

// importHotel runs one hotel's sub-pipeline. Anything escaping the
// sub-entity handling is caught here so the run continues with the next
// hotel.
func (s *MigrationService) importHotel(ctx context.Context, partner string, hc HotelConfig, cleanupErr error) (res domain.HotelResult) {
	res = domain.HotelResult{LegacyHotelID: hc.OldHotelID, Status: domain.HotelFailed}
	defer func() {
		if r := recover(); r != nil {
			res.Status = domain.HotelFailed
			res.Errors = append(res.Errors, fmt.Sprintf("pipeline panic: %v", r))
			s.log.Error().Int64("legacyHotelId", hc.OldHotelID).Any("panic", r).
				Msg("hotel pipeline panicked")
		}
	}()

	if cleanupErr != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("cleanup failed: %v", cleanupErr))
		return res
	}

	lh, err := s.legacy.GetHotel(ctx, hc.OldHotelID)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("fetch legacy hotel: %v", err))
		return res
	}
	res.LegacyHotelName = lh.Name

	newID, err := s.target.CreateHotel(ctx, buildHotel(ctx, s.legacy, partner, lh))
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("create hotel: %v", err))
		return res
	}
	res.NewHotelID = newID

	// fixed sub-entity order: later steps may reference earlier ids
	s.importRooms(ctx, newID, lh.ID, &res)
	s.importMealPlans(ctx, newID, lh.ID, &res)
	s.importMarkets(ctx, newID, lh.ID, &res)
	if !hc.SkipPhotos {
		s.importPhotos(ctx, newID, lh, &res)
	}

	failed := res.RoomTypes.Failed + res.MealPlans.Failed + res.Markets.Failed + res.Photos.Failed
	if failed > 0 || len(res.Errors) > 0 {
		res.Status = domain.HotelPartial
	} else {
		res.Status = domain.HotelCompleted
	}
	return res
}

func (s *MigrationService) importRooms(ctx context.Context, hotelID, legacyID int64, res *domain.HotelResult) {
	rooms, err := s.legacy.ListRooms(ctx, legacyID)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("list rooms: %v", err))
		return
	}
	res.RoomTypes.Total = len(rooms)
	for _, r := range rooms {
		if _, err := s.target.CreateRoomType(ctx, buildRoomType(hotelID, r)); err != nil {
			res.RoomTypes.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("room %d: %v", r.ID, err))
			continue
		}
		res.RoomTypes.Migrated++
	}
}

func (s *MigrationService) importMealPlans(ctx context.Context, hotelID, legacyID int64, res *domain.HotelResult) {
	plans, err := s.legacy.ListPricePlans(ctx, legacyID)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("list meal plans: %v", err))
		return
	}
	res.MealPlans.Total = len(plans)
	for _, p := range plans {
		if _, err := s.target.CreateMealPlan(ctx, buildMealPlan(hotelID, p)); err != nil {
			res.MealPlans.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("meal plan %d: %v", p.ID, err))
			continue
		}
		res.MealPlans.Migrated++
	}
}

func (s *MigrationService) importMarkets(ctx context.Context, hotelID, legacyID int64, res *domain.HotelResult) {
	markets, err := s.legacy.ListMarkets(ctx, legacyID)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("list markets: %v", err))
		return
	}
	res.Markets.Total = len(markets)
	for _, m := range markets {
		if _, err := s.target.CreateMarket(ctx, buildMarket(hotelID, m)); err != nil {
			res.Markets.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("market %d: %v", m.ID, err))
			continue
		}
		res.Markets.Migrated++
	}
}

// importPhotos only considers active photos; soft-deleted ones never count
// toward totals.
func (s *MigrationService) importPhotos(ctx context.Context, hotelID int64, lh domain.LegacyHotel, res *domain.HotelResult) {
	active := lh.ActivePhotos()
	res.Photos.Total = len(active)
	for i, p := range active {
		url := transform.BuildLegacyPhotoURL(lh.ID, p.ID, "hotel")
		ref, err := s.images.Fetch(ctx, url)
		if err != nil {
			res.Photos.Failed++
			observability.ObservePhoto("failed")
			res.Errors = append(res.Errors, fmt.Sprintf("photo %d: %v", p.ID, err))
			continue
		}
		photo := domain.Photo{HotelID: hotelID, LegacyPhotoID: p.ID, Reference: ref, Position: i}
		if _, err := s.target.CreatePhoto(ctx, photo); err != nil {
			res.Photos.Failed++
			observability.ObservePhoto("failed")
			res.Errors = append(res.Errors, fmt.Sprintf("photo %d: %v", p.ID, err))
			continue
		}
		res.Photos.Downloaded++
		observability.ObservePhoto("ok")
	}
}

// publish is best-effort: a progress failure never disturbs the run.
func (s *MigrationService) publish(ctx context.Context, opID, typ string, data map[string]any) {
	ev := domain.ProgressEvent{
		Type:        typ,
		OperationID: opID,
		Timestamp:   time.Now().UTC(),
		Data:        data,
	}
	if err := s.progress.Publish(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("type", typ).Str("operation", opID).
			Msg("progress publish failed")
	}
}
