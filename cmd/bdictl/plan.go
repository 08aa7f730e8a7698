package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/Harshitk-cp/bdicore/internal/domain"
	"github.com/spf13/cobra"
)

var (
	planGoal          []string
	planDesire        string
	planSkipInference bool
)

var planCmd = &cobra.Command{
	Use:   "plan <domain-file>",
	Short: "Compute a plan without executing it",
	Long: `Plans from the document's beliefs (after running its rules, unless
--no-infer is given) to either the conditions given with --goal or the goal of
the desire named with --desire.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	a, doc, err := loadAgent(args[0])
	if err != nil {
		return err
	}

	var goal domain.Goal
	switch {
	case len(planGoal) > 0 && planDesire != "":
		return errors.New("use either --goal or --desire")
	case len(planGoal) > 0:
		conds, err := domain.ParsePredicates(planGoal)
		if err != nil {
			return err
		}
		goal = domain.Achievement("goal").WithConditions(conds...)
	case planDesire != "":
		found := false
		for _, rec := range doc.Desires {
			if rec.Goal.Name == planDesire {
				if goal, err = domain.GoalFromRecord(rec.Goal); err != nil {
					return err
				}
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("no desire named %q in %s", planDesire, args[0])
		}
	default:
		return errors.New("one of --goal or --desire is required")
	}

	if !planSkipInference {
		result, err := a.Inference().Infer(ctx, a.Beliefs())
		if err != nil {
			return err
		}
		result.Commit(a.Beliefs())
	}

	plan, err := a.PlanGoal(ctx, goal)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if plan.IsEmpty() {
		fmt.Fprintf(out, "%s already holds\n", goal.Name())
		return nil
	}
	fmt.Fprintf(out, "plan for %s (%d steps):\n", goal.Name(), plan.Len())
	for i, act := range plan.Actions() {
		fmt.Fprintf(out, "  %d. %s\n", i+1, act.Name)
	}
	return nil
}
