package engine

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/MRamiBalles/pocketmonster/internal/domain/monster"
	"github.com/MRamiBalles/pocketmonster/internal/domain/rules"
	"github.com/MRamiBalles/pocketmonster/internal/events"
	"github.com/MRamiBalles/pocketmonster/internal/i18n"
	"github.com/MRamiBalles/pocketmonster/internal/infra/storage"
	"github.com/MRamiBalles/pocketmonster/internal/platform/logger"
	"github.com/MRamiBalles/pocketmonster/internal/platform/metrics"
)

// ErrGameOver is returned by operations that need a living monster.
var ErrGameOver = errors.New("engine: game over")

// SaveStore persists the single monster record.
type SaveStore interface {
	Load(ctx context.Context) (monster.Monster, error)
	Save(ctx context.Context, m monster.Monster) error
	Clear(ctx context.Context) error
}

// Notifier is the UI boundary. Calls happen while the engine lock is held,
// so implementations must not block or call back into the Engine.
type Notifier interface {
	Refresh(s Snapshot)
	Notify(n Notice)
	Cue(c Cue)
}

// Snapshot is the read model pushed to the display.
type Snapshot struct {
	State    monster.Monster `json:"state"`
	Phase    Phase           `json:"phase"`
	Activity Activity        `json:"activity"`
	Alive    bool            `json:"alive"`
	Sprite   string          `json:"sprite"`
	Ticks    int64           `json:"ticks"`
}

// Options configures the session the engine creates.
type Options struct {
	MonsterName    string
	TickInterval   time.Duration
	ActionDuration time.Duration
	SaveTimeout    time.Duration
	Clock          Clock
	Rand           rules.Rand
}

// Engine is the only writer of the session. Every action and tick runs to
// completion under mu before the next begins.
type Engine struct {
	mu       sync.Mutex
	session  *Session
	opts     Options
	store    SaveStore
	notifier Notifier

	eventLog *events.EventLog
	logger   *logger.Logger
	metrics  *metrics.Collector
	ticker   *Ticker
}

// NewEngine wires the engine with a fresh monster. Call Boot to restore a save.
func NewEngine(store SaveStore, eventLog *events.EventLog, log *logger.Logger, m *metrics.Collector, opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = 2 * time.Second
	}
	if log == nil {
		log = logger.Discard()
	}
	if m == nil {
		m = metrics.NewCollector()
	}
	if eventLog == nil {
		eventLog = events.NewEventLog(nil, 0)
	}

	e := &Engine{
		opts:     opts,
		store:    store,
		eventLog: eventLog,
		logger:   log,
		metrics:  m,
	}
	e.session = NewSession(monster.New(opts.MonsterName), opts.Clock, opts.Rand, opts.ActionDuration)
	e.ticker = NewTicker(opts.TickInterval, e.onTick, log)
	return e
}

// SetNotifier attaches the UI boundary.
func (e *Engine) SetNotifier(n Notifier) {
	e.mu.Lock()
	e.notifier = n
	e.mu.Unlock()
}

// Boot restores the saved monster, or starts a new one when there is no
// usable save. It returns the greeting notice.
func (e *Engine) Boot(ctx context.Context) Notice {
	e.mu.Lock()
	defer e.mu.Unlock()

	notice := Notice{Key: i18n.KeyWelcome}
	m := monster.New(e.opts.MonsterName)
	if e.store != nil {
		loaded, err := e.store.Load(ctx)
		switch {
		case err == nil:
			m = loaded
			notice = Notice{Key: i18n.KeyLoaded}
		case errors.Is(err, storage.ErrNotFound):
		default:
			e.logger.Warnf("ignoring unreadable save: %v", err)
		}
	}

	e.session = NewSession(m, e.opts.Clock, e.opts.Rand, e.opts.ActionDuration)
	e.eventLog.Append(events.GameEvent{
		Type:    events.EventTypeSessionStart,
		ActorID: events.ActorSystem,
		Payload: events.TickPayload{Hunger: m.Hunger, Happiness: m.Happiness, PoopCount: m.PoopCount},
	})
	e.logger.Infof("session started for %s (level %d, %s)", m.Name, m.Level, e.session.Phase())

	if e.session.Phase() == PhaseGameOver {
		notice = Notice{Key: GameOverKey(e.session.Cause()), Terminal: true}
		e.clearSave(ctx)
	}
	e.notifyLocked(&notice)
	e.refreshLocked()
	return notice
}

// Start runs the decay ticker until ctx is cancelled.
func (e *Engine) Start(ctx context.Context) {
	e.logger.Info("Starting pet simulation engine...")
	go e.ticker.Start(ctx)
}

// Stop halts the ticker.
func (e *Engine) Stop() {
	e.ticker.Stop()
}

// Do applies a player action.
func (e *Engine) Do(ctx context.Context, a Action) (Outcome, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	out, ok := e.session.Do(a)
	if !ok {
		return out, false
	}
	e.metrics.RecordAction(string(a))
	e.recordAction(out)
	e.persist(ctx, out)
	e.publish(out)
	return out, true
}

// Tick applies one decay step. The ticker calls it; tests may call it directly.
func (e *Engine) Tick(ctx context.Context) Outcome {
	start := time.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	out := e.session.Tick()
	if out.Skipped {
		e.metrics.RecordTick(0, true)
		return out
	}

	e.eventLog.Append(events.GameEvent{
		Type:    events.EventTypeTimeTick,
		ActorID: events.ActorSystem,
		Tick:    e.session.Ticks(),
		Payload: events.TickPayload{Hunger: out.State.Hunger, Happiness: out.State.Happiness, PoopCount: out.State.PoopCount},
	})
	e.recordGameOver(out)
	e.persist(ctx, out)
	e.publish(out)
	e.metrics.RecordTick(time.Since(start), false)
	return out
}

func (e *Engine) onTick(ctx context.Context) {
	e.Tick(ctx)
}

// Snapshot returns the current read model.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Save writes the current state on demand.
func (e *Engine) Save(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session.Phase() == PhaseGameOver {
		return ErrGameOver
	}
	if e.store == nil {
		return errors.New("engine: no save store configured")
	}

	saveCtx, cancel := context.WithTimeout(ctx, e.opts.SaveTimeout)
	defer cancel()
	if err := e.store.Save(saveCtx, e.session.Monster()); err != nil {
		e.logger.Errorf("manual save failed: %v", err)
		e.notifyLocked(&Notice{Key: i18n.KeySaveFailed})
		return err
	}

	e.eventLog.Append(events.GameEvent{Type: events.EventTypeManualSave, ActorID: events.ActorPlayer, Tick: e.session.Ticks()})
	e.logger.Infof("manual save of %s (level %d)", e.session.Monster().Name, e.session.Monster().Level)
	e.notifyLocked(&Notice{Key: i18n.KeySaved})
	return nil
}

// GetEventLog exposes the event log for the recap and the tests.
func (e *Engine) GetEventLog() *events.EventLog {
	return e.eventLog
}

func (e *Engine) snapshotLocked() Snapshot {
	m := e.session.Monster()
	phase := e.session.Phase()
	sprite := IdleSprite(m.Name)
	if phase == PhaseGameOver {
		sprite = GameOverSprite(m.Name)
	}
	return Snapshot{
		State:    m,
		Phase:    phase,
		Activity: e.session.Activity(),
		Alive:    phase == PhaseAlive,
		Sprite:   sprite,
		Ticks:    e.session.Ticks(),
	}
}

func (e *Engine) recordAction(out Outcome) {
	if out.Skipped && out.Notice == nil {
		return // game over, nothing happened
	}

	payload := events.ActionPayload{Action: string(out.Action), Pooped: out.Pooped, ExpGained: out.ExpGained}
	if out.Notice != nil {
		payload.Notice = string(out.Notice.Key)
	}

	eventType := events.EventTypeActionRejected
	if out.Changed {
		eventType = actionEventTypes[out.Action]
	}
	e.eventLog.Append(events.GameEvent{Type: eventType, ActorID: events.ActorPlayer, Tick: e.session.Ticks(), Payload: payload})

	if out.LeveledUp {
		m := out.State
		e.metrics.RecordLevelUp()
		e.eventLog.Append(events.GameEvent{
			Type:    events.EventTypeLevelUp,
			ActorID: events.ActorPlayer,
			Tick:    e.session.Ticks(),
			Payload: events.LevelUpPayload{Level: m.Level, ExpToNextLevel: m.ExpToNextLevel, Atk: m.Atk, Def: m.Def, Spd: m.Spd},
		})
		e.logger.Event(string(events.EventTypeLevelUp), events.ActorPlayer, m.Name+" reached a new level")
	}
	e.recordGameOver(out)
}

var actionEventTypes = map[Action]events.EventType{
	ActionFeed:  events.EventTypeFeed,
	ActionPlay:  events.EventTypePlay,
	ActionClean: events.EventTypeClean,
	ActionTrain: events.EventTypeTrain,
}

func (e *Engine) recordGameOver(out Outcome) {
	if !out.GameOver {
		return
	}
	e.metrics.RecordGameOver()
	e.eventLog.Append(events.GameEvent{
		Type:    events.EventTypeGameOver,
		ActorID: events.ActorSystem,
		Tick:    e.session.Ticks(),
		Payload: events.GameOverPayload{Cause: string(out.Cause), Level: out.State.Level},
	})
	e.logger.Event(string(events.EventTypeGameOver), events.ActorSystem, "cause "+string(out.Cause))
}

// persist overwrites the save after a change and clears it on game over.
func (e *Engine) persist(ctx context.Context, out Outcome) {
	if e.store == nil || !(out.Changed || out.GameOver) {
		return
	}
	if out.GameOver {
		e.clearSave(ctx)
		return
	}

	saveCtx, cancel := context.WithTimeout(ctx, e.opts.SaveTimeout)
	defer cancel()
	if err := e.store.Save(saveCtx, out.State); err != nil {
		e.logger.Errorf("autosave failed: %v", err)
	}
}

func (e *Engine) clearSave(ctx context.Context) {
	if e.store == nil {
		return
	}
	clearCtx, cancel := context.WithTimeout(ctx, e.opts.SaveTimeout)
	defer cancel()
	if err := e.store.Clear(clearCtx); err != nil {
		e.logger.Errorf("failed to clear save after game over: %v", err)
	}
}

func (e *Engine) publish(out Outcome) {
	if out.Cue != nil && e.notifier != nil {
		e.notifier.Cue(*out.Cue)
	}
	e.notifyLocked(out.Notice)
	if out.Changed || out.GameOver {
		e.refreshLocked()
	}
}

func (e *Engine) notifyLocked(n *Notice) {
	if n == nil {
		return
	}
	e.metrics.RecordNotice()
	if e.notifier != nil {
		e.notifier.Notify(*n)
	}
}

func (e *Engine) refreshLocked() {
	if e.notifier != nil {
		e.notifier.Refresh(e.snapshotLocked())
	}
}
