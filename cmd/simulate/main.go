// simulate is a Monte Carlo survival simulator for the pet care rules.
//
// Usage:
//
//	simulate -policy=careful -runs=1000 -seed=42
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/MRamiBalles/pocketmonster/internal/domain/rules"
	"github.com/MRamiBalles/pocketmonster/internal/engine"
	"github.com/MRamiBalles/pocketmonster/internal/sim"
)

func main() {
	policyName := flag.String("policy", "careful", "care policy: idle, careful or random")
	runs := flag.Int("runs", 1000, "number of simulated sessions")
	seed := flag.Int64("seed", 0, "base seed (0 picks a time-based seed)")
	maxTicks := flag.Int64("max-ticks", 100000, "stop a session after this many ticks")
	tick := flag.Duration("tick", engine.DefaultTickInterval, "decay tick interval")
	action := flag.Duration("action", time.Second, "action animation window")
	jsonOut := flag.String("json", "", "also write the full report to this file")
	flag.Parse()

	policy, ok := sim.PolicyByName(*policyName)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown policy %q\n", *policyName)
		os.Exit(1)
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	fmt.Println("=== Survival Simulation ===")
	fmt.Println()
	fmt.Printf("Policy:     %s\n", policy.Name())
	fmt.Printf("Runs:       %s\n", humanize.Comma(int64(*runs)))
	fmt.Printf("Seed:       %d\n", *seed)
	fmt.Printf("Tick:       %v (action window %v)\n", *tick, *action)
	fmt.Println()

	start := time.Now()
	report := sim.Run(sim.Options{
		Runs:           *runs,
		Seed:           *seed,
		MaxTicks:       *maxTicks,
		TickInterval:   *tick,
		ActionDuration: *action,
		Policy:         policy,
	})
	elapsed := time.Since(start)

	printReport(report, *tick)
	fmt.Printf("\nSimulated %s sessions in %v\n", humanize.Comma(int64(len(report.Runs))), elapsed.Round(time.Millisecond))

	if *jsonOut != "" {
		data, err := json.MarshalIndent(report, "", "  ")
		if err == nil {
			err = os.WriteFile(*jsonOut, data, 0o644)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to write report: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Report written to %s (%s)\n", *jsonOut, humanize.Bytes(uint64(len(data))))
	}
}

func printReport(report sim.Report, tick time.Duration) {
	fmt.Println("Survival (ticks):")
	fmt.Printf("  Mean:   %.1f\n", report.MeanTicks)
	fmt.Printf("  Median: %s (%v)\n", humanize.Comma(report.MedianTicks), time.Duration(report.MedianTicks)*tick)
	fmt.Printf("  Min:    %s\n", humanize.Comma(report.MinTicks))
	fmt.Printf("  Max:    %s\n", humanize.Comma(report.MaxTicks))
	fmt.Printf("Highest level reached: %s\n", humanize.Ordinal(report.MaxLevel))

	fmt.Println("\nEnd causes:")
	causes := make([]string, 0, len(report.Causes))
	for cause := range report.Causes {
		causes = append(causes, string(cause))
	}
	sort.Strings(causes)
	for _, cause := range causes {
		label := cause
		if label == "" {
			label = "ALIVE (tick cap)"
		}
		n := report.Causes[rules.Cause(cause)]
		fmt.Printf("  %-18s %6d (%.1f%%)\n", label, n, 100*float64(n)/float64(len(report.Runs)))
	}
}
