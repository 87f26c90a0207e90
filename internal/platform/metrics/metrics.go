// Package metrics provides observability for the pet server.
package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Collector gathers runtime counters.
type Collector struct {
	// Tick metrics
	TickCount      int64
	TicksSkipped   int64 // suppressed while an action was in flight
	TickLatencySum int64 // nanoseconds
	TickLatencyMax int64
	LastTickTime   time.Time

	// Simulation metrics
	LevelUps  int64
	GameOvers int64
	Notices   int64
	actions   map[string]int64

	// Save metrics
	SaveWrites     int64
	SaveLatencySum int64
	SaveLatencyMax int64
	SaveErrors     int64

	// WebSocket metrics
	WSConnectionsActive int64
	WSMessagesIn        int64
	WSMessagesOut       int64
	WSErrors            int64

	StartTime time.Time
	mu        sync.RWMutex
}

// NewCollector returns an empty collector started now.
func NewCollector() *Collector {
	return &Collector{
		StartTime: time.Now(),
		actions:   make(map[string]int64),
	}
}

// Global collector instance
var collector = NewCollector()

// Get returns the global collector.
func Get() *Collector {
	return collector
}

// RecordTick records a decay tick. skipped ticks count separately.
func (c *Collector) RecordTick(latency time.Duration, skipped bool) {
	if skipped {
		atomic.AddInt64(&c.TicksSkipped, 1)
		return
	}
	atomic.AddInt64(&c.TickCount, 1)
	atomic.AddInt64(&c.TickLatencySum, int64(latency))
	storeMax(&c.TickLatencyMax, int64(latency))

	c.mu.Lock()
	c.LastTickTime = time.Now()
	c.mu.Unlock()
}

// RecordAction counts one action attempt by kind ("feed", "play", ...).
func (c *Collector) RecordAction(kind string) {
	c.mu.Lock()
	c.actions[kind]++
	c.mu.Unlock()
}

// RecordNotice counts a notice shown to the player.
func (c *Collector) RecordNotice() {
	atomic.AddInt64(&c.Notices, 1)
}

// RecordLevelUp counts a level-up.
func (c *Collector) RecordLevelUp() {
	atomic.AddInt64(&c.LevelUps, 1)
}

// RecordGameOver counts a terminal transition.
func (c *Collector) RecordGameOver() {
	atomic.AddInt64(&c.GameOvers, 1)
}

// RecordSave records a write (or clear) of the save record.
func (c *Collector) RecordSave(latency time.Duration, err error) {
	atomic.AddInt64(&c.SaveWrites, 1)
	atomic.AddInt64(&c.SaveLatencySum, int64(latency))
	storeMax(&c.SaveLatencyMax, int64(latency))

	if err != nil {
		atomic.AddInt64(&c.SaveErrors, 1)
	}
}

// RecordWSConnection records WebSocket connection changes.
func (c *Collector) RecordWSConnection(delta int64) {
	atomic.AddInt64(&c.WSConnectionsActive, delta)
}

// RecordWSMessage records WebSocket messages.
func (c *Collector) RecordWSMessage(incoming bool) {
	if incoming {
		atomic.AddInt64(&c.WSMessagesIn, 1)
	} else {
		atomic.AddInt64(&c.WSMessagesOut, 1)
	}
}

// RecordWSError records a WebSocket error.
func (c *Collector) RecordWSError() {
	atomic.AddInt64(&c.WSErrors, 1)
}

// Actions returns a copy of the per-kind action counters.
func (c *Collector) Actions() map[string]int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]int64, len(c.actions))
	for k, v := range c.actions {
		out[k] = v
	}
	return out
}

// Snapshot returns current metrics as a map.
func (c *Collector) Snapshot() map[string]interface{} {
	tickCount := atomic.LoadInt64(&c.TickCount)
	saves := atomic.LoadInt64(&c.SaveWrites)

	var tickAvg, saveAvg float64
	if tickCount > 0 {
		tickAvg = float64(atomic.LoadInt64(&c.TickLatencySum)) / float64(tickCount) / 1e6 // ms
	}
	if saves > 0 {
		saveAvg = float64(atomic.LoadInt64(&c.SaveLatencySum)) / float64(saves) / 1e6
	}

	c.mu.RLock()
	lastTick := c.LastTickTime
	c.mu.RUnlock()

	return map[string]interface{}{
		"uptime_seconds": time.Since(c.StartTime).Seconds(),

		"tick": map[string]interface{}{
			"count":          tickCount,
			"skipped":        atomic.LoadInt64(&c.TicksSkipped),
			"avg_latency_ms": tickAvg,
			"max_latency_ms": float64(atomic.LoadInt64(&c.TickLatencyMax)) / 1e6,
			"last_tick":      lastTick.Format(time.RFC3339),
		},

		"simulation": map[string]interface{}{
			"actions":    c.Actions(),
			"notices":    atomic.LoadInt64(&c.Notices),
			"level_ups":  atomic.LoadInt64(&c.LevelUps),
			"game_overs": atomic.LoadInt64(&c.GameOvers),
		},

		"save": map[string]interface{}{
			"writes":         saves,
			"avg_latency_ms": saveAvg,
			"max_latency_ms": float64(atomic.LoadInt64(&c.SaveLatencyMax)) / 1e6,
			"errors":         atomic.LoadInt64(&c.SaveErrors),
		},

		"websocket": map[string]interface{}{
			"active_connections": atomic.LoadInt64(&c.WSConnectionsActive),
			"messages_in":        atomic.LoadInt64(&c.WSMessagesIn),
			"messages_out":       atomic.LoadInt64(&c.WSMessagesOut),
			"errors":             atomic.LoadInt64(&c.WSErrors),
		},
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (c *Collector) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")
		json.NewEncoder(w).Encode(c.Snapshot())
	}
}

// PrometheusHandler returns metrics in Prometheus text format.
func (c *Collector) PrometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		fmt.Fprintf(w, "# HELP pet_tick_count Total decay ticks applied\n")
		fmt.Fprintf(w, "# TYPE pet_tick_count counter\n")
		fmt.Fprintf(w, "pet_tick_count %d\n\n", atomic.LoadInt64(&c.TickCount))

		fmt.Fprintf(w, "# HELP pet_tick_skipped Ticks suppressed during an action\n")
		fmt.Fprintf(w, "# TYPE pet_tick_skipped counter\n")
		fmt.Fprintf(w, "pet_tick_skipped %d\n\n", atomic.LoadInt64(&c.TicksSkipped))

		fmt.Fprintf(w, "# HELP pet_tick_latency_max_ms Maximum tick latency\n")
		fmt.Fprintf(w, "# TYPE pet_tick_latency_max_ms gauge\n")
		fmt.Fprintf(w, "pet_tick_latency_max_ms %.2f\n\n", float64(atomic.LoadInt64(&c.TickLatencyMax))/1e6)

		fmt.Fprintf(w, "# HELP pet_actions_total Actions attempted by kind\n")
		fmt.Fprintf(w, "# TYPE pet_actions_total counter\n")
		actions := c.Actions()
		kinds := make([]string, 0, len(actions))
		for k := range actions {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			fmt.Fprintf(w, "pet_actions_total{kind=%q} %d\n", k, actions[k])
		}
		fmt.Fprintln(w)

		fmt.Fprintf(w, "# HELP pet_level_ups Total level-ups\n")
		fmt.Fprintf(w, "# TYPE pet_level_ups counter\n")
		fmt.Fprintf(w, "pet_level_ups %d\n\n", atomic.LoadInt64(&c.LevelUps))

		fmt.Fprintf(w, "# HELP pet_game_overs Total game overs\n")
		fmt.Fprintf(w, "# TYPE pet_game_overs counter\n")
		fmt.Fprintf(w, "pet_game_overs %d\n\n", atomic.LoadInt64(&c.GameOvers))

		fmt.Fprintf(w, "# HELP pet_save_errors Total save write errors\n")
		fmt.Fprintf(w, "# TYPE pet_save_errors counter\n")
		fmt.Fprintf(w, "pet_save_errors %d\n\n", atomic.LoadInt64(&c.SaveErrors))

		fmt.Fprintf(w, "# HELP pet_ws_connections Active WebSocket connections\n")
		fmt.Fprintf(w, "# TYPE pet_ws_connections gauge\n")
		fmt.Fprintf(w, "pet_ws_connections %d\n\n", atomic.LoadInt64(&c.WSConnectionsActive))

		fmt.Fprintf(w, "# HELP pet_ws_messages_total Total WebSocket messages\n")
		fmt.Fprintf(w, "# TYPE pet_ws_messages_total counter\n")
		fmt.Fprintf(w, "pet_ws_messages_total{direction=\"in\"} %d\n", atomic.LoadInt64(&c.WSMessagesIn))
		fmt.Fprintf(w, "pet_ws_messages_total{direction=\"out\"} %d\n", atomic.LoadInt64(&c.WSMessagesOut))
	}
}

func storeMax(addr *int64, v int64) {
	for {
		cur := atomic.LoadInt64(addr)
		if v <= cur || atomic.CompareAndSwapInt64(addr, cur, v) {
			return
		}
	}
}
