package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/pocketmonster/internal/domain/monster"
	"github.com/MRamiBalles/pocketmonster/internal/events"
	"github.com/MRamiBalles/pocketmonster/internal/i18n"
	"github.com/MRamiBalles/pocketmonster/internal/infra/storage"
	"github.com/MRamiBalles/pocketmonster/internal/platform/logger"
	"github.com/MRamiBalles/pocketmonster/internal/platform/metrics"
)

type recordingNotifier struct {
	mu        sync.Mutex
	snapshots []Snapshot
	notices   []Notice
	cues      []Cue
}

func (n *recordingNotifier) Refresh(s Snapshot) {
	n.mu.Lock()
	n.snapshots = append(n.snapshots, s)
	n.mu.Unlock()
}

func (n *recordingNotifier) Notify(no Notice) {
	n.mu.Lock()
	n.notices = append(n.notices, no)
	n.mu.Unlock()
}

func (n *recordingNotifier) Cue(c Cue) {
	n.mu.Lock()
	n.cues = append(n.cues, c)
	n.mu.Unlock()
}

func (n *recordingNotifier) lastNotice() Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.notices[len(n.notices)-1]
}

type fixture struct {
	engine   *Engine
	store    *storage.SaveStore
	notifier *recordingNotifier
	clock    *ManualClock
	metrics  *metrics.Collector
}

func newFixture(t *testing.T, saved *monster.Monster) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{
		store:    storage.NewSaveStore(storage.NewMemoryKVRepository(), "Mon", nil, nil),
		notifier: &recordingNotifier{},
		clock:    NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		metrics:  metrics.NewCollector(),
	}
	if saved != nil {
		require.NoError(t, f.store.Save(ctx, *saved))
	}
	f.engine = NewEngine(f.store, events.NewEventLog(nil, 0), logger.Discard(), f.metrics, Options{
		MonsterName:    "Mon",
		TickInterval:   time.Hour,
		ActionDuration: time.Second,
		Clock:          f.clock,
		Rand:           noPoop,
	})
	f.engine.SetNotifier(f.notifier)
	return f
}

func TestBootWithoutSaveWelcomes(t *testing.T) {
	f := newFixture(t, nil)

	notice := f.engine.Boot(context.Background())

	assert.Equal(t, i18n.KeyWelcome, notice.Key)
	assert.Equal(t, monster.New("Mon"), f.engine.Snapshot().State)
	require.NotEmpty(t, f.notifier.snapshots)
	assert.Len(t, f.engine.GetEventLog().GetByType(events.EventTypeSessionStart), 1)
}

func TestBootRestoresSave(t *testing.T) {
	saved := monster.New("Mon")
	saved.Hunger, saved.Level = 42, 4
	f := newFixture(t, &saved)

	notice := f.engine.Boot(context.Background())

	assert.Equal(t, i18n.KeyLoaded, notice.Key)
	assert.Equal(t, saved, f.engine.Snapshot().State)
}

func TestBootWithDeadSaveIsGameOver(t *testing.T) {
	saved := monster.New("Mon")
	saved.Hunger = 0
	f := newFixture(t, &saved)
	ctx := context.Background()

	notice := f.engine.Boot(ctx)

	assert.Equal(t, i18n.KeyGameOverHunger, notice.Key)
	assert.Equal(t, PhaseGameOver, f.engine.Snapshot().Phase)
	_, err := f.store.Load(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestActionAutosavesAndNotifies(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.engine.Boot(ctx)

	out, ok := f.engine.Do(ctx, ActionPlay)
	require.True(t, ok)
	assert.True(t, out.Changed)

	saved, err := f.store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, out.State, saved)

	require.Len(t, f.notifier.cues, 1)
	assert.Equal(t, AnimationShake, f.notifier.cues[0].Animation)
	assert.Equal(t, ActivityActionInFlight, f.engine.Snapshot().Activity)
	assert.Equal(t, int64(1), f.metrics.Actions()["play"])
	assert.Len(t, f.engine.GetEventLog().GetByType(events.EventTypePlay), 1)
}

func TestRejectedActionIsLogged(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.engine.Boot(ctx)

	f.engine.Do(ctx, ActionClean)

	assert.Equal(t, i18n.KeyNothingToClean, f.notifier.lastNotice().Key)
	rejected := f.engine.GetEventLog().GetByType(events.EventTypeActionRejected)
	require.Len(t, rejected, 1)
	assert.Equal(t, "nothing_to_clean", rejected[0].Payload.(events.ActionPayload).Notice)
}

func TestTickToGameOverClearsSave(t *testing.T) {
	saved := monster.New("Mon")
	saved.Hunger = 1
	f := newFixture(t, &saved)
	ctx := context.Background()
	f.engine.Boot(ctx)

	out := f.engine.Tick(ctx)

	assert.True(t, out.GameOver)
	assert.Equal(t, 0, out.State.Hunger)
	_, err := f.store.Load(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	last := f.notifier.lastNotice()
	assert.Equal(t, i18n.KeyGameOverHunger, last.Key)
	assert.True(t, last.Terminal)
	assert.Equal(t, "assets/mon/gameover.gif", f.engine.Snapshot().Sprite)
	assert.Equal(t, int64(1), f.metrics.GameOvers)

	after, _ := f.engine.Do(ctx, ActionFeed)
	assert.True(t, after.Skipped)
	_, err = f.store.Load(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound, "no-ops never resurrect the save")
	assert.ErrorIs(t, f.engine.Save(ctx), ErrGameOver)
}

func TestTickSkippedWhileInFlight(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.engine.Boot(ctx)

	f.engine.Do(ctx, ActionFeed)
	out := f.engine.Tick(ctx)
	assert.True(t, out.Skipped)
	assert.Equal(t, int64(1), f.metrics.TicksSkipped)

	f.clock.Advance(time.Second)
	out = f.engine.Tick(ctx)
	assert.False(t, out.Skipped)
	assert.Equal(t, int64(1), f.metrics.TickCount)
}

func TestManualSave(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.engine.Boot(ctx)

	require.NoError(t, f.engine.Save(ctx))

	assert.Equal(t, i18n.KeySaved, f.notifier.lastNotice().Key)
	_, err := f.store.Load(ctx)
	assert.NoError(t, err)
	assert.Len(t, f.engine.GetEventLog().GetByType(events.EventTypeManualSave), 1)
}

func TestUnknownActionIsRejected(t *testing.T) {
	f := newFixture(t, nil)
	_, ok := f.engine.Do(context.Background(), Action("dance"))
	assert.False(t, ok)
}

func TestTickerStopsOnContext(t *testing.T) {
	var ticks int32
	ticker := NewTicker(5*time.Millisecond, func(context.Context) { atomic.AddInt32(&ticks, 1) }, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		ticker.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&ticks) >= 2 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ticker did not stop")
	}
}

func TestTickerStopIsIdempotent(t *testing.T) {
	ticker := NewTicker(0, func(context.Context) {}, logger.Discard())
	assert.Equal(t, DefaultTickInterval, ticker.Interval())

	done := make(chan struct{})
	go func() {
		ticker.Start(context.Background())
		close(done)
	}()
	ticker.Stop()
	ticker.Stop()
	<-done
}
