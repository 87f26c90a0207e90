// Package rules contains the pure calculation logic for pet care mechanics.
// This package is PURE and must NOT import any infrastructure packages.
// Every function takes a Monster by value and returns the updated copy.
package rules

import "github.com/MRamiBalles/pocketmonster/internal/domain/monster"

// Rand is the random source used by the care rules.
// *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Action tuning.
const (
	FeedHunger     = 20
	FeedEnergyCost = 5
	PoopChance     = 0.3

	PlayHappiness  = 15
	PlayEnergyCost = 10
	PlayMinEnergy  = 10 // energy must be strictly above this

	CleanHappiness = 10

	TrainEnergyCost = 20
	TrainExpMin     = 10
	TrainExpMax     = 29
)

// Result describes what a care action did.
type Result struct {
	Applied   bool // false when the precondition failed
	Pooped    bool
	ExpGained int
	LevelUps  int
}

// Feed restores hunger at the cost of energy. Sometimes the monster poops.
func Feed(m monster.Monster, r Rand) (monster.Monster, Result) {
	if m.Energy <= monster.MinStat {
		return m, Result{}
	}
	m.Hunger = min(monster.MaxStat, m.Hunger+FeedHunger)
	m.Energy = max(monster.MinStat, m.Energy-FeedEnergyCost)

	res := Result{Applied: true}
	if r.Float64() < PoopChance {
		m.PoopCount = min(monster.MaxPoop, m.PoopCount+1)
		res.Pooped = true
	}
	return m, res
}

// Play raises happiness at the cost of energy.
func Play(m monster.Monster) (monster.Monster, Result) {
	if m.Energy <= PlayMinEnergy {
		return m, Result{}
	}
	m.Happiness = min(monster.MaxStat, m.Happiness+PlayHappiness)
	m.Energy = max(monster.MinStat, m.Energy-PlayEnergyCost)
	return m, Result{Applied: true}
}

// Clean removes all poop and cheers the monster up.
func Clean(m monster.Monster) (monster.Monster, Result) {
	if m.PoopCount <= 0 {
		return m, Result{}
	}
	m.PoopCount = 0
	m.Happiness = min(monster.MaxStat, m.Happiness+CleanHappiness)
	return m, Result{Applied: true}
}

// Train spends energy for a random amount of experience in [TrainExpMin, TrainExpMax].
func Train(m monster.Monster, r Rand) (monster.Monster, Result) {
	if m.Energy < TrainEnergyCost {
		return m, Result{}
	}
	m.Energy -= TrainEnergyCost

	gained := TrainExpMin + r.Intn(TrainExpMax-TrainExpMin+1)
	m, levels := AddExperience(m, gained, r)
	return m, Result{Applied: true, ExpGained: gained, LevelUps: levels}
}
