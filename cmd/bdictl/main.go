// Command bdictl runs BDI agents described by domain files from the command line.
//
//	bdictl run examples/warehouse.yaml --ticks 6
//	bdictl plan examples/warehouse.yaml --goal delivered=true
//	bdictl infer examples/warehouse.yaml
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/Harshitk-cp/bdicore/internal/buildconfig"
	"github.com/Harshitk-cp/bdicore/internal/domainfile"
	"github.com/Harshitk-cp/bdicore/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	verbose bool
	timeout time.Duration

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "bdictl",
	Short: "Run and inspect BDI agents from domain files",
	Long: `bdictl loads a YAML or JSON domain document (beliefs, rules, actions and
desires) and runs the deliberation cycle, the planner or the inference engine
over it. Actions are executed by a simulated actuator.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !verbose {
			return nil
		}
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		l, err := cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		logger = l
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), buildconfig.String())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging to stderr")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", time.Minute, "Overall operation timeout")

	runCmd.Flags().IntVarP(&runTicks, "ticks", "n", 20, "Maximum number of ticks")
	runCmd.Flags().BoolVar(&runUntilIdle, "until-idle", true, "Stop early once no desire or intention remains active")
	runCmd.Flags().StringToIntVar(&runFailures, "fail", nil, "Inject failures as action=count")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "Print tick reports as JSON lines")

	planCmd.Flags().StringSliceVarP(&planGoal, "goal", "g", nil, "Goal conditions (key=value, key, !key)")
	planCmd.Flags().StringVarP(&planDesire, "desire", "d", "", "Plan for the named desire of the document")
	planCmd.Flags().BoolVar(&planSkipInference, "no-infer", false, "Plan from the initial beliefs without running the rules first")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(inferCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadAgent restores a fresh agent from the document at path.
func loadAgent(path string, opts ...service.AgentOption) (*service.Agent, *domainfile.Document, error) {
	doc, err := domainfile.Load(path)
	if err != nil {
		return nil, nil, err
	}
	a, err := service.RestoreAgent(doc.Snapshot(), append([]service.AgentOption{service.WithLogger(logger)}, opts...)...)
	if err != nil {
		return nil, nil, err
	}
	return a, doc, nil
}
