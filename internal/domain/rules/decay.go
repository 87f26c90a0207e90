package rules

import "github.com/MRamiBalles/pocketmonster/internal/domain/monster"

// Decay per tick.
const (
	DecayHunger      = 2
	DecayHappiness   = 1
	DecayPoopPenalty = 3 // extra happiness loss while any poop is lying around
)

// Cause names which vital ended the game.
type Cause string

const (
	CauseNone    Cause = ""
	CauseHunger  Cause = "HUNGER"
	CauseSadness Cause = "SADNESS"
)

// Decay applies one periodic tick of hunger and happiness loss.
func Decay(m monster.Monster) monster.Monster {
	m.Hunger = max(monster.MinStat, m.Hunger-DecayHunger)
	m.Happiness = max(monster.MinStat, m.Happiness-DecayHappiness)
	if m.PoopCount > 0 {
		m.Happiness = max(monster.MinStat, m.Happiness-DecayPoopPenalty)
	}
	return m
}

// Terminal reports why the monster is gone, or CauseNone if it is still alive.
// Hunger is checked first and wins when both vitals are empty.
func Terminal(m monster.Monster) Cause {
	if m.Hunger <= monster.MinStat {
		return CauseHunger
	}
	if m.Happiness <= monster.MinStat {
		return CauseSadness
	}
	return CauseNone
}
