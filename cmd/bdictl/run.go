package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Harshitk-cp/bdicore/internal/actuator"
	"github.com/Harshitk-cp/bdicore/internal/service"
	"github.com/spf13/cobra"
)

var (
	runTicks     int
	runUntilIdle bool
	runFailures  map[string]int
	runJSON      bool
)

var runCmd = &cobra.Command{
	Use:   "run <domain-file>",
	Short: "Run the deliberation cycle over a domain",
	Long: `Runs ticks until the tick budget is spent or, with --until-idle, until no
desire is pending and no intention is active. Maintenance goals that hold are
dormant and do not keep the agent busy.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	sim := actuator.NewSimulated(logger)
	for name, n := range runFailures {
		sim.FailNext(name, n)
	}

	a, _, err := loadAgent(args[0], service.WithActuator(sim))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	for range runTicks {
		report, err := a.Tick(ctx)
		if err != nil {
			return err
		}
		if runJSON {
			if err := enc.Encode(report); err != nil {
				return err
			}
		} else {
			printReport(out, report)
		}
		if runUntilIdle && idle(a) {
			break
		}
	}

	if !runJSON {
		fmt.Fprintf(out, "\nexecuted: %s\n", strings.Join(sim.Executed(), " -> "))
		fmt.Fprintln(out, "beliefs:")
		for _, b := range a.Beliefs().Records() {
			fmt.Fprintf(out, "  %s=%s (%.2f)\n", b.Key, b.Value, b.Certainty)
		}
	}
	return nil
}

// idle reports whether the agent has nothing left to pursue: no intention and no
// desire whose goal is unsatisfied.
func idle(a *service.Agent) bool {
	if !a.Intentions().IsEmpty() {
		return false
	}
	state := a.WorldState()
	for _, d := range a.Desires().All() {
		if !d.Goal().SatisfiedIn(state) {
			return false
		}
	}
	return true
}

func printReport(w io.Writer, r *service.TickReport) {
	fmt.Fprintf(w, "tick %d", r.Tick)
	if r.Executed != "" {
		fmt.Fprintf(w, ": executed %s", r.Executed)
	}
	fmt.Fprintln(w)
	for _, b := range r.Derived {
		fmt.Fprintf(w, "  derived %s=%s (%.2f)\n", b.Key, b.Value, b.Certainty)
	}
	for _, e := range r.Events {
		if e.Type == service.EventActionExecuted {
			continue
		}
		line := "  " + e.Type
		if e.Goal != "" {
			line += " " + e.Goal
		}
		if e.Action != "" {
			line += " [" + e.Action + "]"
		}
		if e.Error != "" {
			line += ": " + e.Error
		}
		fmt.Fprintln(w, line)
	}
}
