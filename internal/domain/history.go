package domain

import "time"

// Migration run statuses. A run only ever moves
// in_progress -> completed | failed | partial.
const (
	RunInProgress = "in_progress"
	RunCompleted  = "completed"
	RunFailed     = "failed"
	RunPartial    = "partial"
)

// Per-hotel statuses inside a run.
const (
	HotelCompleted = "completed"
	HotelPartial   = "partial"
	HotelFailed    = "failed"
)

type EntityStats struct {
	Total    int `json:"total"`
	Migrated int `json:"migrated"`
	Failed   int `json:"failed"`
}

type PhotoStats struct {
	Total      int `json:"total"`
	Downloaded int `json:"downloaded"`
	Failed     int `json:"failed"`
}

// HotelResult is one hotel's outcome within a run. A hotel's failure never
// mutates another hotel's record.
type HotelResult struct {
	LegacyHotelID   int64       `json:"legacyHotelId"`
	LegacyHotelName string      `json:"legacyHotelName"`
	NewHotelID      int64       `json:"newHotelId,omitempty"`
	Status          string      `json:"status"`
	RoomTypes       EntityStats `json:"roomTypes"`
	MealPlans       EntityStats `json:"mealPlans"`
	Markets         EntityStats `json:"markets"`
	Photos          PhotoStats  `json:"photos"`
	Errors          []string    `json:"errors,omitempty"`
	DurationMS      int64       `json:"duration"`
}

type RunSummary struct {
	TotalHotels      int `json:"totalHotels"`
	MigratedHotels   int `json:"migratedHotels"`
	FailedHotels     int `json:"failedHotels"`
	TotalPhotos      int `json:"totalPhotos"`
	DownloadedPhotos int `json:"downloadedPhotos"`
}

// MigrationRun is the append-only history record for one migrate call,
// created at run start and finalized exactly once at completion.
type MigrationRun struct {
	ID                int64         `json:"id"`
	OperationID       string        `json:"operationId"`
	Partner           string        `json:"partner"`
	PerformedBy       string        `json:"performedBy"`
	LegacyAccountID   int64         `json:"legacyAccountId"`
	LegacyAccountName string        `json:"legacyAccountName"`
	Status            string        `json:"status"`
	Hotels            []HotelResult `json:"hotels"`
	StartedAt         time.Time     `json:"startedAt"`
	CompletedAt       *time.Time    `json:"completedAt,omitempty"`
	Summary           RunSummary    `json:"summary"`
}

// RunStatusFor derives the mandatory three-way run outcome.
func RunStatusFor(migrated, failed int) string {
	switch {
	case failed == 0:
		return RunCompleted
	case migrated == 0:
		return RunFailed
	default:
		return RunPartial
	}
}
