// Package monster defines the core domain entity for the pet monster.
// This package is PURE and must NOT import any infrastructure packages (network, events, platform).
package monster

import "encoding/json"

// Stat bounds and starting values.
const (
	MinStat      = 0
	MaxStat      = 100
	MaxPoop      = 3
	StartLevel   = 1
	StartExpGoal = 100
	BaseCombat   = 5 // Starting atk/def/spd
)

// Monster is the single mutable save record.
// Field names match the browser save blob so old saves load unchanged.
type Monster struct {
	Name string `json:"name,omitempty" jsonschema:"description=Display name used for sprite selection"`

	// Vitals
	Hunger    int `json:"hunger" jsonschema:"minimum=0,maximum=100"`    // 0 = starving
	Happiness int `json:"happiness" jsonschema:"minimum=0,maximum=100"` // 0 = runs away
	Energy    int `json:"energy" jsonschema:"minimum=0,maximum=100"`
	PoopCount int `json:"poopCount" jsonschema:"minimum=0,maximum=3"`

	// Progression
	Level          int `json:"level" jsonschema:"minimum=1"`
	Exp            int `json:"exp" jsonschema:"minimum=0"`
	ExpToNextLevel int `json:"expToNextLevel" jsonschema:"minimum=1"`

	// Combat
	Atk int `json:"atk" jsonschema:"minimum=5"`
	Def int `json:"def" jsonschema:"minimum=5"`
	Spd int `json:"spd" jsonschema:"minimum=5"`
}

// New creates a fresh monster with default starting stats.
func New(name string) Monster {
	return Monster{
		Name:           name,
		Hunger:         MaxStat,
		Happiness:      MaxStat,
		Energy:         MaxStat,
		PoopCount:      0,
		Level:          StartLevel,
		Exp:            0,
		ExpToNextLevel: StartExpGoal,
		Atk:            BaseCombat,
		Def:            BaseCombat,
		Spd:            BaseCombat,
	}
}

// Alive reports whether neither hunger nor happiness has hit zero.
func (m Monster) Alive() bool {
	return m.Hunger > MinStat && m.Happiness > MinStat
}

// UnmarshalJSON decodes a save blob on top of the defaults, so fields
// missing from older saves keep their starting values.
func (m *Monster) UnmarshalJSON(data []byte) error {
	type plain Monster
	decoded := plain(New(m.Name))
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*m = Monster(decoded)
	m.Normalize()
	return nil
}

// Normalize forces every field back inside its invariant.
// Only needed for records restored from storage.
func (m *Monster) Normalize() {
	m.Hunger = Clamp(m.Hunger, MinStat, MaxStat)
	m.Happiness = Clamp(m.Happiness, MinStat, MaxStat)
	m.Energy = Clamp(m.Energy, MinStat, MaxStat)
	m.PoopCount = Clamp(m.PoopCount, 0, MaxPoop)

	if m.Level < StartLevel {
		m.Level = StartLevel
	}
	if m.ExpToNextLevel < 1 {
		m.ExpToNextLevel = StartExpGoal
	}
	m.Exp = Clamp(m.Exp, 0, m.ExpToNextLevel-1)

	if m.Atk < BaseCombat {
		m.Atk = BaseCombat
	}
	if m.Def < BaseCombat {
		m.Def = BaseCombat
	}
	if m.Spd < BaseCombat {
		m.Spd = BaseCombat
	}
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
