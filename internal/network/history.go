package network

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/MRamiBalles/pocketmonster/internal/events"
	"github.com/MRamiBalles/pocketmonster/internal/infra/storage"
	"github.com/MRamiBalles/pocketmonster/internal/platform/logger"
)

// HistoryHandler serves the persisted event ledger, so history outlives restarts.
type HistoryHandler struct {
	repo   storage.EventRepository
	logger *logger.Logger
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(repo storage.EventRepository, log *logger.Logger) *HistoryHandler {
	if log == nil {
		log = logger.Discard()
	}
	return &HistoryHandler{repo: repo, logger: log}
}

// HistoryEvent is an event as shown to the front-end.
type HistoryEvent struct {
	ID        string          `json:"id"`
	Timestamp string          `json:"timestamp"`
	Type      string          `json:"type"`
	Actor     string          `json:"actor"`
	Tick      int64           `json:"tick"`
	Details   json.RawMessage `json:"details,omitempty"`
}

// HistoryResponse is the API response for the history endpoint.
type HistoryResponse struct {
	TotalEvents int            `json:"total_events"`
	FilteredBy  string         `json:"filtered_by,omitempty"`
	GeneratedAt string         `json:"generated_at"`
	Events      []HistoryEvent `json:"events"`
}

// HandleHistory returns ledger events, optionally filtered, oldest first.
// GET /api/history?type=FEED&limit=N
func (hh *HistoryHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	eventType := r.URL.Query().Get("type")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	var stored []storage.StoredEvent
	var err error
	if eventType != "" {
		stored, err = hh.repo.ByType(r.Context(), eventType, limit)
	} else {
		stored, err = hh.repo.Recent(r.Context(), limit)
	}
	if err != nil {
		hh.logger.Errorf("history request failed: %v", err)
		jsonError(w, "failed to read history", http.StatusInternalServerError)
		return
	}

	out := make([]HistoryEvent, 0, len(stored))
	for _, e := range stored {
		out = append(out, convertToHistoryEvent(e))
	}

	writeJSON(w, http.StatusOK, HistoryResponse{
		TotalEvents: len(out),
		FilteredBy:  eventType,
		GeneratedAt: time.Now().Format(time.RFC3339),
		Events:      out,
	})
}

// HandleEventDetail returns one ledger event.
// GET /api/history/event?event_id=XXX
func (hh *HistoryHandler) HandleEventDetail(w http.ResponseWriter, r *http.Request) {
	eventID := r.URL.Query().Get("event_id")
	if eventID == "" {
		jsonError(w, "Missing event_id", http.StatusBadRequest)
		return
	}

	e, err := hh.repo.ByID(r.Context(), eventID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		jsonError(w, "Event not found", http.StatusNotFound)
	case err != nil:
		hh.logger.Errorf("event lookup failed: %v", err)
		jsonError(w, "failed to read history", http.StatusInternalServerError)
	default:
		writeJSON(w, http.StatusOK, convertToHistoryEvent(e))
	}
}

// HandleStats returns counts per event type.
// GET /api/history/stats
func (hh *HistoryHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	counts, err := hh.repo.CountByType(r.Context())
	if err != nil {
		hh.logger.Errorf("history stats failed: %v", err)
		jsonError(w, "failed to read history", http.StatusInternalServerError)
		return
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"generated_at": time.Now().Format(time.RFC3339),
		"total_events": total,
		"by_type":      counts,
	})
}

// RegisterRoutes sets up the history API routes.
func (hh *HistoryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/history", hh.HandleHistory)
	mux.HandleFunc("GET /api/history/event", hh.HandleEventDetail)
	mux.HandleFunc("GET /api/history/stats", hh.HandleStats)
}

func convertToHistoryEvent(e storage.StoredEvent) HistoryEvent {
	actor := e.ActorID
	if actor == events.ActorSystem {
		actor = "Time"
	}
	details := e.Payload
	if string(details) == "null" {
		details = nil
	}
	return HistoryEvent{
		ID:        e.ID,
		Timestamp: e.Timestamp.Format("15:04:05"),
		Type:      e.EventType,
		Actor:     actor,
		Tick:      e.Tick,
		Details:   details,
	}
}
