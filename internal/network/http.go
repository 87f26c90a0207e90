package network

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/text/language"

	"github.com/MRamiBalles/pocketmonster/internal/engine"
	"github.com/MRamiBalles/pocketmonster/internal/i18n"
	"github.com/MRamiBalles/pocketmonster/internal/infra/storage"
	"github.com/MRamiBalles/pocketmonster/internal/platform/logger"
	"github.com/MRamiBalles/pocketmonster/internal/platform/metrics"
)

// SaveReader exposes the raw save record. *storage.SaveStore implements it.
type SaveReader interface {
	LoadRaw(ctx context.Context) ([]byte, error)
}

// Recapper summarizes the persisted ledger. *storage.Recapper implements it.
type Recapper interface {
	Recap(ctx context.Context, limit int, includeTicks bool) ([]storage.RecapEvent, error)
}

// API serves the HTTP and WebSocket surface of the pet server.
type API struct {
	controller Controller
	saves      SaveReader
	recapper   Recapper
	history    *HistoryHandler
	hub        *Hub
	catalog    *i18n.Catalog
	metrics    *metrics.Collector
	logger     *logger.Logger
	upgrader   websocket.Upgrader

	clientSendBuffer int
	rateLimit        time.Duration
}

// APIOptions configures the WebSocket clients the API creates.
type APIOptions struct {
	ClientSendBuffer int
	RateLimit        time.Duration
}

// NewAPI wires the handlers. saves, recapper and history may be nil.
func NewAPI(controller Controller, saves SaveReader, recapper Recapper, history *HistoryHandler, hub *Hub,
	catalog *i18n.Catalog, m *metrics.Collector, log *logger.Logger, opts APIOptions) *API {
	if log == nil {
		log = logger.Discard()
	}
	if m == nil {
		m = metrics.NewCollector()
	}
	return &API{
		controller: controller,
		saves:      saves,
		recapper:   recapper,
		history:    history,
		hub:        hub,
		catalog:    catalog,
		metrics:    m,
		logger:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for the browser front-end
			},
		},
		clientSendBuffer: opts.ClientSendBuffer,
		rateLimit:        opts.RateLimit,
	}
}

// RegisterRoutes sets up every route on mux.
func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/state", a.HandleState)
	mux.HandleFunc("POST /api/action/{kind}", a.HandleAction)
	mux.HandleFunc("POST /api/save", a.HandleSave)
	mux.HandleFunc("GET /api/load", a.HandleLoad)
	mux.HandleFunc("GET /api/schema", a.HandleSchema)
	mux.HandleFunc("GET /api/recap", a.HandleRecap)
	mux.HandleFunc("GET /metrics", a.metrics.Handler())
	mux.HandleFunc("GET /metrics/prom", a.metrics.PrometheusHandler())
	mux.HandleFunc("GET /ws", a.ServeWS)
	if a.history != nil {
		a.history.RegisterRoutes(mux)
	}
}

// ActionResponse is an outcome plus its notice rendered for the caller.
type ActionResponse struct {
	engine.Outcome
	NoticeText string `json:"notice_text,omitempty"`
}

// HandleState returns the current snapshot.
// GET /api/state
func (a *API) HandleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.controller.Snapshot())
}

// HandleAction applies one care action.
// POST /api/action/{feed|play|clean|train}
func (a *API) HandleAction(w http.ResponseWriter, r *http.Request) {
	action, ok := engine.ParseAction(r.PathValue("kind"))
	if !ok {
		jsonError(w, "unknown action "+strconv.Quote(r.PathValue("kind")), http.StatusBadRequest)
		return
	}

	out, _ := a.controller.Do(r.Context(), action)
	resp := ActionResponse{Outcome: out}
	if out.Notice != nil {
		resp.NoticeText = a.catalog.Render(a.locale(r), out.Notice.Key, out.Notice.Args...)
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleSave persists the current state on demand.
// POST /api/save
func (a *API) HandleSave(w http.ResponseWriter, r *http.Request) {
	tag := a.locale(r)
	err := a.controller.Save(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "saved",
			"text":   a.catalog.Render(tag, i18n.KeySaved),
		})
	case errors.Is(err, engine.ErrGameOver):
		jsonError(w, err.Error(), http.StatusConflict)
	default:
		a.logger.Errorf("save request failed: %v", err)
		jsonError(w, a.catalog.Render(tag, i18n.KeySaveFailed), http.StatusInternalServerError)
	}
}

// HandleLoad returns the stored save record as written.
// GET /api/load
func (a *API) HandleLoad(w http.ResponseWriter, r *http.Request) {
	if a.saves == nil {
		jsonError(w, "no save store configured", http.StatusNotFound)
		return
	}

	raw, err := a.saves.LoadRaw(r.Context())
	if errors.Is(err, storage.ErrNotFound) || (err == nil && !json.Valid(raw)) {
		jsonError(w, "no saved game", http.StatusNotFound)
		return
	}
	if err != nil {
		a.logger.Errorf("load request failed: %v", err)
		jsonError(w, "failed to read save", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}

// HandleSchema returns the JSON schema of the save record.
// GET /api/schema
func (a *API) HandleSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, storage.SaveSchema())
}

// HandleRecap returns the persisted history.
// GET /api/recap?limit=N&ticks=true
func (a *API) HandleRecap(w http.ResponseWriter, r *http.Request) {
	if a.recapper == nil {
		jsonError(w, "no event ledger configured", http.StatusNotFound)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	includeTicks := r.URL.Query().Get("ticks") == "true"

	recap, err := a.recapper.Recap(r.Context(), limit, includeTicks)
	if err != nil {
		a.logger.Errorf("recap request failed: %v", err)
		jsonError(w, "failed to read history", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"generated_at": time.Now().Format(time.RFC3339),
		"events":       recap,
	})
}

// ServeWS upgrades the request and attaches a client to the hub.
// GET /ws?lang=th
func (a *API) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.logger.Error("WebSocket upgrade failed: " + err.Error())
		a.metrics.RecordWSError()
		return
	}

	client := NewClient(a.hub, conn, a.controller, a.locale(r), a.clientSendBuffer, a.rateLimit)
	client.Greet(a.controller.Snapshot(), nil)
	client.Register()

	go client.WritePump()
	go client.ReadPump()
}

func (a *API) locale(r *http.Request) language.Tag {
	return a.catalog.Match(r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// jsonError sends an error response.
func jsonError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
