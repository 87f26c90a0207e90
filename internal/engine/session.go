package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/MRamiBalles/pocketmonster/internal/domain/monster"
	"github.com/MRamiBalles/pocketmonster/internal/domain/rules"
	"github.com/MRamiBalles/pocketmonster/internal/i18n"
)

// Phase is the life phase of the monster. GameOver is terminal.
type Phase int

const (
	PhaseAlive Phase = iota
	PhaseGameOver
)

func (p Phase) String() string {
	if p == PhaseGameOver {
		return "GAME_OVER"
	}
	return "ALIVE"
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Phase) UnmarshalText(text []byte) error {
	switch string(text) {
	case "ALIVE":
		*p = PhaseAlive
	case "GAME_OVER":
		*p = PhaseGameOver
	default:
		return fmt.Errorf("unknown phase %q", text)
	}
	return nil
}

// Activity tracks the cosmetic in-flight window after an action.
type Activity int

const (
	ActivityIdle Activity = iota
	ActivityActionInFlight
)

func (a Activity) String() string {
	if a == ActivityActionInFlight {
		return "ACTION_IN_FLIGHT"
	}
	return "IDLE"
}

func (a Activity) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *Activity) UnmarshalText(text []byte) error {
	switch string(text) {
	case "IDLE":
		*a = ActivityIdle
	case "ACTION_IN_FLIGHT":
		*a = ActivityActionInFlight
	default:
		return fmt.Errorf("unknown activity %q", text)
	}
	return nil
}

// Action names an operation on the session.
type Action string

const (
	ActionFeed  Action = "feed"
	ActionPlay  Action = "play"
	ActionClean Action = "clean"
	ActionTrain Action = "train"
	ActionTick  Action = "tick"
)

// ParseAction accepts "feed", "FEED", etc. Ticks cannot be requested.
func ParseAction(s string) (Action, bool) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionFeed, ActionPlay, ActionClean, ActionTrain:
		return a, true
	}
	return "", false
}

// Notice is a player-facing message identified by its catalog key.
type Notice struct {
	Key      i18n.Key `json:"code"`
	Args     []any    `json:"args,omitempty"`
	Terminal bool     `json:"terminal,omitempty"`
}

// Outcome reports what one operation did.
type Outcome struct {
	Action    Action          `json:"action"`
	Notice    *Notice         `json:"notice,omitempty"`
	Changed   bool            `json:"changed"`
	Skipped   bool            `json:"skipped,omitempty"` // busy or terminal
	Pooped    bool            `json:"pooped,omitempty"`
	ExpGained int             `json:"exp_gained,omitempty"`
	LeveledUp bool            `json:"leveled_up,omitempty"`
	GameOver  bool            `json:"game_over,omitempty"` // entered GameOver during this operation
	Cause     rules.Cause     `json:"cause,omitempty"`
	Cue       *Cue            `json:"cue,omitempty"`
	State     monster.Monster `json:"state"`
}

// Session owns the monster and its phase. It is not safe for concurrent use;
// Engine serializes access.
type Session struct {
	monster        monster.Monster
	phase          Phase
	inFlightUntil  time.Time
	actionDuration time.Duration
	ticks          int64

	clock Clock
	rand  rules.Rand
}

// NewSession starts a session on m. A monster that is already dead starts in GameOver.
func NewSession(m monster.Monster, clock Clock, r rules.Rand, actionDuration time.Duration) *Session {
	if clock == nil {
		clock = SystemClock
	}
	s := &Session{
		monster:        m,
		actionDuration: actionDuration,
		clock:          clock,
		rand:           r,
	}
	if !m.Alive() {
		s.phase = PhaseGameOver
	}
	return s
}

func (s *Session) Monster() monster.Monster { return s.monster }
func (s *Session) Phase() Phase             { return s.phase }
func (s *Session) Ticks() int64             { return s.ticks }

// Activity reports ActionInFlight until the action duration has elapsed.
func (s *Session) Activity() Activity {
	if s.clock.Now().Before(s.inFlightUntil) {
		return ActivityActionInFlight
	}
	return ActivityIdle
}

// Cause is the terminal cause, or CauseNone while alive.
func (s *Session) Cause() rules.Cause {
	return rules.Terminal(s.monster)
}

func (s *Session) Feed() Outcome {
	return s.act(ActionFeed, func(m monster.Monster) (monster.Monster, rules.Result, *Notice) {
		next, res := rules.Feed(m, s.rand)
		if !res.Applied {
			return m, res, &Notice{Key: i18n.KeyTooTiredEat}
		}
		return next, res, nil
	})
}

func (s *Session) Play() Outcome {
	return s.act(ActionPlay, func(m monster.Monster) (monster.Monster, rules.Result, *Notice) {
		next, res := rules.Play(m)
		if !res.Applied {
			return m, res, &Notice{Key: i18n.KeyTooTiredPlay}
		}
		return next, res, nil
	})
}

func (s *Session) Clean() Outcome {
	return s.act(ActionClean, func(m monster.Monster) (monster.Monster, rules.Result, *Notice) {
		next, res := rules.Clean(m)
		if !res.Applied {
			return m, res, &Notice{Key: i18n.KeyNothingToClean}
		}
		return next, res, &Notice{Key: i18n.KeyCleaned}
	})
}

func (s *Session) Train() Outcome {
	return s.act(ActionTrain, func(m monster.Monster) (monster.Monster, rules.Result, *Notice) {
		next, res := rules.Train(m, s.rand)
		if !res.Applied {
			return m, res, &Notice{Key: i18n.KeyNotEnoughEnergy}
		}
		if res.LevelUps > 0 {
			return next, res, &Notice{Key: i18n.KeyLeveledUp, Args: []any{next.Level}}
		}
		return next, res, &Notice{Key: i18n.KeyGainedExp, Args: []any{res.ExpGained}}
	})
}

// Do dispatches a parsed action.
func (s *Session) Do(a Action) (Outcome, bool) {
	switch a {
	case ActionFeed:
		return s.Feed(), true
	case ActionPlay:
		return s.Play(), true
	case ActionClean:
		return s.Clean(), true
	case ActionTrain:
		return s.Train(), true
	}
	return Outcome{}, false
}

// Tick applies one decay step. It is skipped while an action is in flight
// and does nothing once the game is over.
func (s *Session) Tick() Outcome {
	out := Outcome{Action: ActionTick}
	if s.phase == PhaseGameOver || s.Activity() == ActivityActionInFlight {
		out.Skipped = true
		out.State = s.monster
		return out
	}

	s.monster = rules.Decay(s.monster)
	s.ticks++
	out.Changed = true
	s.checkTerminal(&out)
	out.State = s.monster
	return out
}

type careFunc func(monster.Monster) (monster.Monster, rules.Result, *Notice)

func (s *Session) act(action Action, care careFunc) Outcome {
	out := Outcome{Action: action}
	if s.phase == PhaseGameOver {
		out.Skipped = true
		out.State = s.monster
		return out
	}
	if s.Activity() == ActivityActionInFlight {
		out.Skipped = true
		out.Notice = &Notice{Key: i18n.KeyBusy}
		out.State = s.monster
		return out
	}

	next, res, notice := care(s.monster)
	out.Notice = notice
	if res.Applied {
		s.monster = next
		out.Changed = true
		out.Pooped = res.Pooped
		out.ExpGained = res.ExpGained
		out.LeveledUp = res.LevelUps > 0
		out.Cue = CueFor(s.monster.Name, action, out.LeveledUp)
		if s.actionDuration > 0 {
			s.inFlightUntil = s.clock.Now().Add(s.actionDuration)
		}
	}
	s.checkTerminal(&out)
	out.State = s.monster
	return out
}

// checkTerminal moves the session to GameOver when hunger or happiness hit zero.
func (s *Session) checkTerminal(out *Outcome) {
	cause := rules.Terminal(s.monster)
	if cause == rules.CauseNone {
		return
	}
	s.phase = PhaseGameOver
	s.inFlightUntil = time.Time{}
	out.GameOver = true
	out.Cause = cause
	out.Notice = &Notice{Key: GameOverKey(cause), Terminal: true}
}

// GameOverKey maps a terminal cause to its notice.
func GameOverKey(cause rules.Cause) i18n.Key {
	if cause == rules.CauseSadness {
		return i18n.KeyGameOverSadness
	}
	return i18n.KeyGameOverHunger
}
