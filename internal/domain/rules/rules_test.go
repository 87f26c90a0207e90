package rules

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/pocketmonster/internal/domain/monster"
)

// scriptedRand replays fixed values, repeating the last one when exhausted.
type scriptedRand struct {
	floats []float64
	ints   []int
}

func (s *scriptedRand) Float64() float64 {
	if len(s.floats) == 0 {
		return 0.99
	}
	v := s.floats[0]
	if len(s.floats) > 1 {
		s.floats = s.floats[1:]
	}
	return v
}

func (s *scriptedRand) Intn(n int) int {
	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[0]
	if len(s.ints) > 1 {
		s.ints = s.ints[1:]
	}
	return v % n
}

func TestFeedFreshMonsterClampsHunger(t *testing.T) {
	m, res := Feed(monster.New("Mon"), &scriptedRand{floats: []float64{0.5}})

	assert.True(t, res.Applied)
	assert.False(t, res.Pooped)
	assert.Equal(t, 100, m.Hunger)
	assert.Equal(t, 95, m.Energy)
	assert.Equal(t, 0, m.PoopCount)
}

func TestFeedPoopIsCapped(t *testing.T) {
	m := monster.New("Mon")
	m.PoopCount = monster.MaxPoop

	m, res := Feed(m, &scriptedRand{floats: []float64{0.1}})
	assert.True(t, res.Pooped)
	assert.Equal(t, monster.MaxPoop, m.PoopCount)
}

func TestFeedWithoutEnergyChangesNothing(t *testing.T) {
	m := monster.New("Mon")
	m.Energy = 0
	m.Hunger = 40

	got, res := Feed(m, &scriptedRand{floats: []float64{0.1}})
	assert.False(t, res.Applied)
	assert.Equal(t, m, got)
}

func TestPlayNeedsMoreThanTenEnergy(t *testing.T) {
	m := monster.New("Mon")
	m.Energy = 10
	m.Happiness = 50

	got, res := Play(m)
	assert.False(t, res.Applied)
	assert.Equal(t, m, got)

	m.Energy = 11
	got, res = Play(m)
	assert.True(t, res.Applied)
	assert.Equal(t, 65, got.Happiness)
	assert.Equal(t, 1, got.Energy)
}

func TestClean(t *testing.T) {
	m := monster.New("Mon")
	m.Happiness = 95

	_, res := Clean(m)
	assert.False(t, res.Applied, "nothing to clean")

	m.PoopCount = 2
	got, res := Clean(m)
	assert.True(t, res.Applied)
	assert.Equal(t, 0, got.PoopCount)
	assert.Equal(t, 100, got.Happiness)
}

func TestTrainNotEnoughEnergy(t *testing.T) {
	m := monster.New("Mon")
	m.Energy = 15

	got, res := Train(m, &scriptedRand{})
	assert.False(t, res.Applied)
	assert.Equal(t, m, got)
}

func TestTrainGainsExperienceInRange(t *testing.T) {
	m := monster.New("Mon")

	got, res := Train(m, &scriptedRand{ints: []int{19}})
	require.True(t, res.Applied)
	assert.Equal(t, TrainExpMax, res.ExpGained)
	assert.Equal(t, 29, got.Exp)
	assert.Equal(t, 80, got.Energy)
	assert.Equal(t, 0, res.LevelUps)
}

func TestTrainLevelsUpAndDiscardsOverflow(t *testing.T) {
	m := monster.New("Mon")
	m.Exp = 95

	// exp roll 10+5, then growth rolls 1+0, 1+1, 1+2
	got, res := Train(m, &scriptedRand{ints: []int{5, 0, 1, 2}})
	require.True(t, res.Applied)
	assert.Equal(t, 1, res.LevelUps)
	assert.Equal(t, 2, got.Level)
	assert.Equal(t, 0, got.Exp)
	assert.Equal(t, 150, got.ExpToNextLevel)
	assert.Equal(t, 6, got.Atk)
	assert.Equal(t, 7, got.Def)
	assert.Equal(t, 8, got.Spd)
}

func TestAddExperienceHugeAmountIsOneLevel(t *testing.T) {
	got, levels := AddExperience(monster.New("Mon"), 10_000, &scriptedRand{})
	assert.Equal(t, 1, levels)
	assert.Equal(t, 2, got.Level)
	assert.Equal(t, 0, got.Exp)
}

func TestNextExpGoal(t *testing.T) {
	assert.Equal(t, 150, NextExpGoal(100))
	assert.Equal(t, 225, NextExpGoal(150))
	assert.Equal(t, 337, NextExpGoal(225))
	assert.Equal(t, 1, NextExpGoal(1))
}

func TestDecay(t *testing.T) {
	m := monster.New("Mon")
	m = Decay(m)
	assert.Equal(t, 98, m.Hunger)
	assert.Equal(t, 99, m.Happiness)

	m.PoopCount = 1
	m = Decay(m)
	assert.Equal(t, 96, m.Hunger)
	assert.Equal(t, 95, m.Happiness)

	m.Hunger = 1
	m.Happiness = 2
	m = Decay(m)
	assert.Equal(t, 0, m.Hunger)
	assert.Equal(t, 0, m.Happiness)
}

func TestTerminalHungerWinsTie(t *testing.T) {
	m := monster.New("Mon")
	assert.Equal(t, CauseNone, Terminal(m))

	m.Happiness = 0
	assert.Equal(t, CauseSadness, Terminal(m))

	m.Hunger = 0
	assert.Equal(t, CauseHunger, Terminal(m))
}

func TestDecayIsMonotonicUntilTerminal(t *testing.T) {
	m := monster.New("Mon")
	ticks := 0
	for Terminal(m) == CauseNone {
		next := Decay(m)
		require.LessOrEqual(t, next.Hunger, m.Hunger)
		require.LessOrEqual(t, next.Happiness, m.Happiness)
		m = next
		ticks++
	}
	// happiness drains 1/tick, hunger 2/tick
	assert.Equal(t, 50, ticks)
	assert.Equal(t, CauseHunger, Terminal(m))
}

func TestRandomActionsKeepInvariants(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	m := monster.New("Mon")

	for i := 0; i < 5000 && Terminal(m) == CauseNone; i++ {
		switch r.Intn(5) {
		case 0:
			m, _ = Feed(m, r)
		case 1:
			m, _ = Play(m)
		case 2:
			m, _ = Clean(m)
		case 3:
			m, _ = Train(m, r)
		case 4:
			m = Decay(m)
		}

		require.GreaterOrEqual(t, m.Hunger, 0)
		require.LessOrEqual(t, m.Hunger, 100)
		require.GreaterOrEqual(t, m.Happiness, 0)
		require.LessOrEqual(t, m.Happiness, 100)
		require.GreaterOrEqual(t, m.Energy, 0)
		require.LessOrEqual(t, m.Energy, 100)
		require.GreaterOrEqual(t, m.PoopCount, 0)
		require.LessOrEqual(t, m.PoopCount, 3)
		require.GreaterOrEqual(t, m.Level, 1)
		require.GreaterOrEqual(t, m.Exp, 0)
		require.Less(t, m.Exp, m.ExpToNextLevel)
		require.GreaterOrEqual(t, m.Atk, 5)
		require.GreaterOrEqual(t, m.Def, 5)
		require.GreaterOrEqual(t, m.Spd, 5)
	}
}
