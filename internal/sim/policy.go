package sim

import (
	"math/rand"

	"github.com/MRamiBalles/pocketmonster/internal/domain/monster"
	"github.com/MRamiBalles/pocketmonster/internal/domain/rules"
	"github.com/MRamiBalles/pocketmonster/internal/engine"
)

// Idle never touches the monster.
type Idle struct{}

func (Idle) Name() string { return "idle" }

func (Idle) Choose(monster.Monster, *rand.Rand) (engine.Action, bool) { return "", false }

// Careful tends the most urgent need and only trains with energy to spare.
type Careful struct {
	Threshold    int // act when hunger or happiness drops below this
	TrainReserve int // energy kept back from training
}

func (Careful) Name() string { return "careful" }

func (c Careful) Choose(m monster.Monster, _ *rand.Rand) (engine.Action, bool) {
	threshold := c.Threshold
	if threshold <= 0 {
		threshold = 70
	}
	switch {
	case m.PoopCount > 0:
		return engine.ActionClean, true
	case m.Hunger < threshold && m.Energy > monster.MinStat:
		return engine.ActionFeed, true
	case m.Happiness < threshold && m.Energy > rules.PlayMinEnergy:
		return engine.ActionPlay, true
	case m.Energy >= rules.TrainEnergyCost+c.TrainReserve:
		return engine.ActionTrain, true
	}
	return "", false
}

// Random presses a random button with the given probability per step.
type Random struct {
	Rate float64
}

func (Random) Name() string { return "random" }

var randomActions = []engine.Action{engine.ActionFeed, engine.ActionPlay, engine.ActionClean, engine.ActionTrain}

func (p Random) Choose(_ monster.Monster, r *rand.Rand) (engine.Action, bool) {
	if r.Float64() >= p.Rate {
		return "", false
	}
	return randomActions[r.Intn(len(randomActions))], true
}

// PolicyByName returns a policy for cmd/simulate.
func PolicyByName(name string) (Policy, bool) {
	switch name {
	case "idle":
		return Idle{}, true
	case "careful":
		return Careful{Threshold: 70, TrainReserve: 40}, true
	case "random":
		return Random{Rate: 0.5}, true
	}
	return nil, false
}
