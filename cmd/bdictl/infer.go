package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

var inferCmd = &cobra.Command{
	Use:   "infer <domain-file>",
	Short: "Run the document's rules to a fixpoint and print what they derive",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfer,
}

func runInfer(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	a, _, err := loadAgent(args[0])
	if err != nil {
		return err
	}

	result, err := a.Inference().Infer(ctx, a.Beliefs())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "fixpoint after %d iterations, %d derived\n", result.Iterations, len(result.Derived))
	for _, b := range result.Records() {
		fmt.Fprintf(out, "  %s=%s (%.2f)\n", b.Key, b.Value, b.Certainty)
	}
	if len(result.Firings) > 0 {
		fmt.Fprintln(out, "firings:")
		names := make([]string, 0, len(result.Firings))
		for name := range result.Firings {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			fmt.Fprintf(out, "  %s: %d\n", name, result.Firings[name])
		}
	}
	return nil
}
