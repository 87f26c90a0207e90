package rules

import "github.com/MRamiBalles/pocketmonster/internal/domain/monster"

// Stat growth per level-up, inclusive.
const (
	GrowthMin = 1
	GrowthMax = 3
)

// AddExperience adds amount to the monster's experience and applies any level-ups.
// Experience resets to zero on level-up; overflow past the threshold is discarded,
// so at most one level is gained per call.
func AddExperience(m monster.Monster, amount int, r Rand) (monster.Monster, int) {
	m.Exp += amount

	levels := 0
	for m.Exp >= m.ExpToNextLevel {
		m.Level++
		m.Exp = 0
		m.ExpToNextLevel = NextExpGoal(m.ExpToNextLevel)

		m.Atk += rollGrowth(r)
		m.Def += rollGrowth(r)
		m.Spd += rollGrowth(r)
		levels++
	}
	return m, levels
}

// NextExpGoal returns floor(goal * 1.5), never below 1.
func NextExpGoal(goal int) int {
	next := goal * 3 / 2
	if next < 1 {
		return 1
	}
	return next
}

func rollGrowth(r Rand) int {
	return GrowthMin + r.Intn(GrowthMax-GrowthMin+1)
}
