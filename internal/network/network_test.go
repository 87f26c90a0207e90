package network

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/MRamiBalles/pocketmonster/internal/domain/monster"
	"github.com/MRamiBalles/pocketmonster/internal/engine"
	"github.com/MRamiBalles/pocketmonster/internal/events"
	"github.com/MRamiBalles/pocketmonster/internal/i18n"
	"github.com/MRamiBalles/pocketmonster/internal/infra/storage"
	"github.com/MRamiBalles/pocketmonster/internal/platform/logger"
	"github.com/MRamiBalles/pocketmonster/internal/platform/metrics"
)

type noPoopRand struct{}

func (noPoopRand) Float64() float64 { return 0.99 }
func (noPoopRand) Intn(n int) int   { return 0 }

type testServer struct {
	api    *API
	mux    *http.ServeMux
	hub    *Hub
	engine *engine.Engine
	saves  *storage.SaveStore
	ledger *storage.MemoryEventRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithLedger(t, storage.NewMemoryEventRepository())
}

func newTestServerWithLedger(t *testing.T, ledger *storage.MemoryEventRepository) *testServer {
	t.Helper()
	m := metrics.NewCollector()
	log := logger.Discard()
	saves := storage.NewSaveStore(storage.NewMemoryKVRepository(), "Mon", log, m)
	el := events.NewEventLog(storage.NewEventPersister(ledger, time.Second), 0)
	catalog := i18n.NewCatalog("th")

	eng := engine.NewEngine(saves, el, log, m, engine.Options{
		MonsterName:  "Mon",
		TickInterval: time.Hour,
		Rand:         noPoopRand{},
	})
	hub := NewHub(catalog, log, m, HubOptions{})
	eng.SetNotifier(hub)
	eng.Boot(context.Background())

	api := NewAPI(eng, saves, storage.NewRecapper(ledger), NewHistoryHandler(ledger, log), hub, catalog, m, log, APIOptions{})
	mux := http.NewServeMux()
	api.RegisterRoutes(mux)
	return &testServer{api: api, mux: mux, hub: hub, engine: eng, saves: saves, ledger: ledger}
}

func (s *testServer) do(t *testing.T, method, path string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

func TestStateEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/state", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ALIVE", body["phase"])
	assert.Equal(t, "IDLE", body["activity"])
	assert.Equal(t, true, body["alive"])
	assert.Equal(t, float64(100), body["state"].(map[string]interface{})["hunger"])
}

func TestActionEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/action/feed", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ActionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Changed)
	assert.Equal(t, 95, resp.State.Energy)
	assert.Empty(t, resp.NoticeText)
}

func TestActionEndpointRendersNoticeInRequestedLanguage(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/action/clean", http.Header{"Accept-Language": {"en-US,en;q=0.9"}})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp ActionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "There's nothing to clean.", resp.NoticeText)

	rec = s.do(t, http.MethodPost, "/api/action/clean", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ไม่เห็นมีอะไรให้ทำความสะอาดเลย", resp.NoticeText)
}

func TestUnknownActionIsBadRequest(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/action/dance", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoadAndSave(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/load", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/save", http.Header{"Accept-Language": {"en"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Game saved!")

	rec = s.do(t, http.MethodGet, "/api/load", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var saved map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	assert.Equal(t, float64(100), saved["hunger"])
	assert.Equal(t, float64(100), saved["expToNextLevel"])
}

func TestSaveAfterGameOverConflicts(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.saves.Save(context.Background(), deadMonster()))
	s.engine.Boot(context.Background())

	rec := s.do(t, http.MethodPost, "/api/save", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSchemaEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/schema", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "poopCount")
}

func TestHistoryEndpoints(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/action/play", nil)

	rec := s.do(t, http.MethodGet, "/api/history?type=PLAY", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.TotalEvents)

	rec = s.do(t, http.MethodGet, "/api/history/event?event_id="+resp.Events[0].ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/history/event?event_id=nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/history/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"SESSION_START":1`)
}

func TestHistoryComesFromTheLedger(t *testing.T) {
	ledger := storage.NewMemoryEventRepository()
	first := newTestServerWithLedger(t, ledger)
	first.do(t, http.MethodPost, "/api/action/feed", nil)

	// A restarted server has an empty in-memory log but the same ledger.
	restarted := newTestServerWithLedger(t, ledger)
	assert.Empty(t, restarted.engine.GetEventLog().GetByType(events.EventTypeFeed))

	rec := restarted.do(t, http.MethodGet, "/api/history?type=FEED", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.TotalEvents)
	assert.JSONEq(t, `{"action":"feed"}`, string(resp.Events[0].Details))

	rec = restarted.do(t, http.MethodGet, "/api/history?limit=1", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Events, 1)
	assert.Equal(t, "SESSION_START", resp.Events[0].Type, "newest event is the second boot")
	assert.Equal(t, "Time", resp.Events[0].Actor)

	rec = restarted.do(t, http.MethodGet, "/api/history/stats", nil)
	assert.Contains(t, rec.Body.String(), `"SESSION_START":2`)
	assert.Contains(t, rec.Body.String(), `"total_events":3`)
}

func TestRecapEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/action/play", nil)

	rec := s.do(t, http.MethodGet, "/api/recap?limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Events []storage.RecapEvent `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Events, 1)
	assert.Equal(t, "The monster played.", body.Events[0].Summary)
}

func TestUnknownClientMessageGetsError(t *testing.T) {
	hub := NewHub(i18n.NewCatalog("en"), logger.Discard(), nil, HubOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	c := NewClient(hub, nil, &countingController{}, language.English, 4, 0)
	c.Register()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, time.Millisecond)

	c.handleMessage(ClientMessage{Type: "DANCE"}, time.Now())

	var reply map[string]string
	require.NoError(t, json.Unmarshal(receive(t, c.send), &reply))
	assert.Equal(t, MsgError, reply["type"])
	assert.Equal(t, "unknown message type DANCE", reply["message"])
}

func TestMetricsEndpoints(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/action/feed", nil)

	rec := s.do(t, http.MethodGet, "/metrics/prom", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pet_")
}

func TestHubRendersNoticesPerClientLocale(t *testing.T) {
	hub := NewHub(i18n.NewCatalog("th"), logger.Discard(), nil, HubOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	thaiClient := &Client{hub: hub, send: make(chan []byte, 4), locale: language.Thai}
	englishClient := &Client{hub: hub, send: make(chan []byte, 4), locale: language.English}
	thaiClient.Register()
	englishClient.Register()

	hub.Notify(engine.Notice{Key: i18n.KeyGainedExp, Args: []any{12}})

	var th, en NoticeMessage
	require.NoError(t, json.Unmarshal(receive(t, thaiClient.send), &th))
	require.NoError(t, json.Unmarshal(receive(t, englishClient.send), &en))
	assert.Equal(t, "ได้รับ 12 EXP!", th.Text)
	assert.Equal(t, "Gained 12 EXP!", en.Text)
	assert.Equal(t, MsgNotice, en.Type)
	assert.Equal(t, int64(2000), en.TTLMs)

	hub.Notify(engine.Notice{Key: i18n.KeyGameOverSadness, Terminal: true})
	require.NoError(t, json.Unmarshal(receive(t, englishClient.send), &en))
	assert.Equal(t, MsgGameOver, en.Type)
	assert.Equal(t, "game_over_sadness", en.Code)
}

func TestHubDropsSlowClients(t *testing.T) {
	hub := NewHub(i18n.NewCatalog("en"), logger.Discard(), nil, HubOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	slow := &Client{hub: hub, send: make(chan []byte, 1), locale: language.English}
	slow.Register()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, time.Millisecond)

	hub.Cue(engine.Cue{Action: engine.ActionFeed, Animation: engine.AnimationBounce})
	hub.Cue(engine.Cue{Action: engine.ActionFeed, Animation: engine.AnimationBounce})

	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, time.Millisecond)
}

func TestClientRateLimit(t *testing.T) {
	ctl := &countingController{}
	hub := NewHub(i18n.NewCatalog("en"), logger.Discard(), nil, HubOptions{})
	c := NewClient(hub, nil, ctl, language.English, 4, 250*time.Millisecond)

	now := time.Now()
	c.handleMessage(ClientMessage{Type: "FEED"}, now)
	c.handleMessage(ClientMessage{Type: "PLAY"}, now.Add(100*time.Millisecond))
	c.handleMessage(ClientMessage{Type: "TRAIN"}, now.Add(300*time.Millisecond))

	assert.Equal(t, []engine.Action{engine.ActionFeed, engine.ActionTrain}, ctl.actions)
}

func TestWebSocketRoundTrip(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.hub.Run(ctx)

	srv := httptest.NewServer(s.mux)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?lang=en"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var state StateMessage
	readJSON(t, conn, &state)
	assert.Equal(t, MsgState, state.Type)
	assert.Equal(t, 100, state.State.Hunger)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "CLEAN"}))

	// The boot greeting may still be queued in the hub; skip past it.
	var notice NoticeMessage
	for i := 0; i < 5 && notice.Code != "nothing_to_clean"; i++ {
		notice = NoticeMessage{}
		readJSON(t, conn, &notice)
	}
	assert.Equal(t, MsgNotice, notice.Type)
	assert.Equal(t, "nothing_to_clean", notice.Code)
	assert.Equal(t, "There's nothing to clean.", notice.Text)
}

type countingController struct {
	actions []engine.Action
}

func (c *countingController) Do(ctx context.Context, a engine.Action) (engine.Outcome, bool) {
	c.actions = append(c.actions, a)
	return engine.Outcome{Action: a}, true
}

func (c *countingController) Save(ctx context.Context) error { return nil }
func (c *countingController) Snapshot() engine.Snapshot       { return engine.Snapshot{} }

func receive(t *testing.T, ch <-chan []byte) []byte {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return nil
	}
}

func readJSON(t *testing.T, conn *websocket.Conn, v interface{}) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}

func deadMonster() monster.Monster {
	m := monster.New("Mon")
	m.Hunger = 0
	return m
}
