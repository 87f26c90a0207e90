// Package sim runs headless simulations of a care session to study how long
// a monster survives under a given care policy.
package sim

import (
	"math/rand"
	"sort"
	"time"

	"github.com/MRamiBalles/pocketmonster/internal/domain/monster"
	"github.com/MRamiBalles/pocketmonster/internal/domain/rules"
	"github.com/MRamiBalles/pocketmonster/internal/engine"
)

// Policy decides what the player does between two ticks.
type Policy interface {
	Name() string
	Choose(m monster.Monster, r *rand.Rand) (engine.Action, bool)
}

// Options configures a batch of runs.
type Options struct {
	Runs           int
	Seed           int64
	MaxTicks       int64
	TickInterval   time.Duration
	ActionDuration time.Duration
	Policy         Policy
}

// RunResult is the outcome of one simulated session.
type RunResult struct {
	Seed     int64                 `json:"seed"`
	Ticks    int64                 `json:"ticks"`
	Level    int                   `json:"level"`
	Cause    rules.Cause           `json:"cause,omitempty"` // empty if MaxTicks was hit first
	Actions  map[engine.Action]int `json:"actions"`
	Refused  int                   `json:"refused"`
	Survived time.Duration         `json:"survived"`
}

// Report aggregates a batch.
type Report struct {
	Policy      string              `json:"policy"`
	Runs        []RunResult         `json:"runs"`
	MeanTicks   float64             `json:"mean_ticks"`
	MedianTicks int64               `json:"median_ticks"`
	MinTicks    int64               `json:"min_ticks"`
	MaxTicks    int64               `json:"max_ticks"`
	MaxLevel    int                 `json:"max_level"`
	Causes      map[rules.Cause]int `json:"causes"`
}

// Run simulates opts.Runs sessions. Run i uses seed opts.Seed+i.
func Run(opts Options) Report {
	if opts.Runs <= 0 {
		opts.Runs = 1
	}
	if opts.MaxTicks <= 0 {
		opts.MaxTicks = 100000
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = engine.DefaultTickInterval
	}
	if opts.Policy == nil {
		opts.Policy = Idle{}
	}

	report := Report{Policy: opts.Policy.Name(), Causes: make(map[rules.Cause]int)}
	for i := 0; i < opts.Runs; i++ {
		res := runOnce(opts, opts.Seed+int64(i))
		report.Runs = append(report.Runs, res)
		report.Causes[res.Cause]++
		report.MaxLevel = max(report.MaxLevel, res.Level)
	}
	summarize(&report)
	return report
}

// runOnce acts halfway between ticks so the in-flight window has closed by the next tick.
func runOnce(opts Options, seed int64) RunResult {
	r := rand.New(rand.NewSource(seed))
	clock := engine.NewManualClock(time.Unix(0, 0))
	session := engine.NewSession(monster.New("Sim"), clock, r, opts.ActionDuration)

	res := RunResult{Seed: seed, Actions: make(map[engine.Action]int)}
	half := opts.TickInterval / 2

	for session.Phase() == engine.PhaseAlive && session.Ticks() < opts.MaxTicks {
		clock.Advance(half)
		if action, ok := opts.Policy.Choose(session.Monster(), r); ok {
			out, _ := session.Do(action)
			if out.Changed {
				res.Actions[action]++
			} else {
				res.Refused++
			}
		}
		clock.Advance(opts.TickInterval - half)
		session.Tick()
	}

	res.Ticks = session.Ticks()
	res.Level = session.Monster().Level
	res.Cause = session.Cause()
	res.Survived = time.Duration(res.Ticks) * opts.TickInterval
	return res
}

func summarize(report *Report) {
	if len(report.Runs) == 0 {
		return
	}
	ticks := make([]int64, len(report.Runs))
	var total int64
	for i, run := range report.Runs {
		ticks[i] = run.Ticks
		total += run.Ticks
	}
	sort.Slice(ticks, func(i, j int) bool { return ticks[i] < ticks[j] })

	report.MeanTicks = float64(total) / float64(len(ticks))
	report.MedianTicks = ticks[len(ticks)/2]
	report.MinTicks = ticks[0]
	report.MaxTicks = ticks[len(ticks)-1]
}
