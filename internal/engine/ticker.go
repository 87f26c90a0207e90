package engine

import (
	"context"
	"sync"
	"time"

	"github.com/MRamiBalles/pocketmonster/internal/platform/logger"
)

// DefaultTickInterval is the decay period.
const DefaultTickInterval = 3 * time.Second

// Ticker is the simulation heartbeat. It knows nothing about the monster;
// it only calls onTick once per interval.
type Ticker struct {
	interval time.Duration
	onTick   func(ctx context.Context)
	logger   *logger.Logger
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewTicker creates a ticker. A non-positive interval uses DefaultTickInterval.
func NewTicker(interval time.Duration, onTick func(ctx context.Context), log *logger.Logger) *Ticker {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Ticker{
		interval: interval,
		onTick:   onTick,
		logger:   log,
		stopChan: make(chan struct{}),
	}
}

// Start begins the loop. Call in a goroutine.
func (t *Ticker) Start(ctx context.Context) {
	t.logger.Infof("Decay ticker started (every %s).", t.interval)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("Decay ticker stopped by context.")
			return
		case <-t.stopChan:
			t.logger.Info("Decay ticker stopped manually.")
			return
		case <-ticker.C:
			t.onTick(ctx)
		}
	}
}

// Stop ends the loop. Safe to call more than once.
func (t *Ticker) Stop() {
	t.stopOnce.Do(func() { close(t.stopChan) })
}

// Interval returns the tick period.
func (t *Ticker) Interval() time.Duration {
	return t.interval
}
