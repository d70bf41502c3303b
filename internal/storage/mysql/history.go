package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"legacy_migrator/internal/domain"
)

// History implements domain.HistoryStore. One row per migration run; the
// nested per-hotel results live in a JSON column and are appended
// incrementally so an interrupted run stays inspectable.
type History struct{ db *sql.DB }

func NewHistory(db *sql.DB) *History { return &History{db: db} }

func (h *History) CreateRun(ctx context.Context, run *domain.MigrationRun) (int64, error) {
	res, err := h.db.ExecContext(ctx, insertRunSQL,
		run.OperationID,
		run.Partner,
		run.PerformedBy,
		run.LegacyAccountID,
		run.LegacyAccountName,
		domain.RunInProgress,
		"[]",
		run.StartedAt,
		run.Summary.TotalHotels,
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	run.ID = id
	run.Status = domain.RunInProgress
	return id, nil
}

func (h *History) AppendHotelResult(ctx context.Context, runID int64, res domain.HotelResult) error {
	b, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal hotel result: %w", err)
	}
	if _, err := h.db.ExecContext(ctx, appendRunHotelSQL, string(b), runID); err != nil {
		return fmt.Errorf("append hotel result: %w", err)
	}
	return nil
}

// FinalizeRun is the single terminal write: it only fires while the run is
// still in_progress, and rewrites the hotels array wholesale so the stored
// record matches the summary exactly.
func (h *History) FinalizeRun(ctx context.Context, runID int64, status string, hotels []domain.HotelResult, sum domain.RunSummary) error {
	b, err := json.Marshal(hotels)
	if err != nil {
		return fmt.Errorf("marshal hotel results: %w", err)
	}
	res, err := h.db.ExecContext(ctx, finalizeRunSQL,
		status,
		string(b),
		time.Now().UTC(),
		sum.TotalHotels,
		sum.MigratedHotels,
		sum.FailedHotels,
		sum.TotalPhotos,
		sum.DownloadedPhotos,
		runID,
	)
	if err != nil {
		return fmt.Errorf("finalize run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %d is not in progress", runID)
	}
	return nil
}

func (h *History) ListRuns(ctx context.Context, partner string, limit int) ([]domain.MigrationRun, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := h.db.QueryContext(ctx, listRunsSQL, partner, partner, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []domain.MigrationRun
	for rows.Next() {
		var (
			run         domain.MigrationRun
			hotelsJSON  []byte
			completedAt sql.NullTime
		)
		if err := rows.Scan(
			&run.ID,
			&run.OperationID,
			&run.Partner,
			&run.PerformedBy,
			&run.LegacyAccountID,
			&run.LegacyAccountName,
			&run.Status,
			&hotelsJSON,
			&run.StartedAt,
			&completedAt,
			&run.Summary.TotalHotels,
			&run.Summary.MigratedHotels,
			&run.Summary.FailedHotels,
			&run.Summary.TotalPhotos,
			&run.Summary.DownloadedPhotos,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if completedAt.Valid {
			t := completedAt.Time
			run.CompletedAt = &t
		}
		if len(hotelsJSON) > 0 {
			if err := json.Unmarshal(hotelsJSON, &run.Hotels); err != nil {
				log.Error().Err(err).Int64("run", run.ID).Msg("corrupt hotels JSON in history row")
			}
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
