package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"legacy_migrator/internal/app"
	"legacy_migrator/internal/domain"
)

type Handlers struct {
	Browse  *app.BrowseService
	Migrate *app.MigrationService
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/v1/legacy", func(r chi.Router) {
		r.Put("/connection", h.connect)
		r.Delete("/connection", h.disconnect)
		r.Get("/connection", h.connectionStatus)
		r.Get("/accounts", h.listAccounts)
		r.Get("/accounts/{id}/hotels", h.listAccountHotels)
		r.Get("/hotels/{id}/preview", h.previewHotel)
	})

	s.mux.Post("/v1/migrations", h.startMigration)
	s.mux.Get("/v1/migrations", h.listMigrations)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps service errors onto the problem vocabulary the UI keys on.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrValidation):
		writeProblem(w, http.StatusBadRequest, "Invalid Request", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, domain.ErrNotConnected):
		writeProblem(w, http.StatusConflict, "Legacy Store Not Connected", "connect to the legacy store first")
	default:
		writeProblem(w, http.StatusInternalServerError, "Internal Error", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// ---- legacy connection ----

func (h *Handlers) connect(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URI string `json:"uri"`
	}
	// no body means "use the configured default URI"
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeProblem(w, http.StatusBadRequest, "Invalid Request", "body must be JSON")
		return
	}
	st, err := h.Browse.Connect(r.Context(), body.URI)
	if err != nil {
		writeProblem(w, http.StatusBadGateway, "Connection Failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handlers) disconnect(w http.ResponseWriter, r *http.Request) {
	st, err := h.Browse.Disconnect(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handlers) connectionStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Browse.Status())
}

// ---- browsing ----

func (h *Handlers) listAccounts(w http.ResponseWriter, r *http.Request) {
	q := domain.AccountsQuery{
		Search: r.URL.Query().Get("search"),
		Type:   r.URL.Query().Get("type"),
	}
	out, err := h.Browse.ListAccounts(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) listAccountHotels(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return
	}
	out, err := h.Browse.ListAccountHotels(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) previewHotel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return
	}
	out, err := h.Browse.PreviewHotel(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ---- migrations ----

func (h *Handlers) startMigration(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PartnerID    string            `json:"partnerId"`
		PerformedBy  string            `json:"performedBy"`
		AccountID    int64             `json:"accountId"`
		HotelConfigs []app.HotelConfig `json:"hotelConfigs"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Request", "body must be JSON")
		return
	}
	opID, err := h.Migrate.Migrate(r.Context(), app.MigrateRequest{
		Partner:     body.PartnerID,
		PerformedBy: body.PerformedBy,
		AccountID:   body.AccountID,
		Hotels:      body.HotelConfigs,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	// accepted only; progress arrives on the operation's channel
	writeJSON(w, http.StatusAccepted, map[string]string{"operationId": opID})
}

func (h *Handlers) listMigrations(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 200 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 200")
			return
		}
		limit = l
	}
	out, err := h.Browse.History(r.Context(), r.URL.Query().Get("partner"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if out == nil {
		out = []domain.MigrationRun{}
	}
	writeJSON(w, http.StatusOK, out)
}
