package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Harshitk-cp/bdicore/internal/domain"
	"github.com/Harshitk-cp/bdicore/internal/service"
	"github.com/spf13/cobra"
)

const warehousePath = "../../examples/warehouse.yaml"

func resetFlags() {
	timeout = time.Minute
	runTicks = 20
	runUntilIdle = true
	runFailures = nil
	runJSON = false
	planGoal = nil
	planDesire = ""
	planSkipInference = false
}

func captured(c *cobra.Command) *bytes.Buffer {
	var buf bytes.Buffer
	c.SetOut(&buf)
	return &buf
}

func TestRun_Warehouse(t *testing.T) {
	resetFlags()
	out := captured(runCmd)

	if err := runRun(runCmd, []string{warehousePath}); err != nil {
		t.Fatalf("run: %v", err)
	}

	got := out.String()
	want := "executed: pick_package -> drive_to_customer -> deliver -> drive_to_warehouse"
	if !strings.Contains(got, want) {
		t.Errorf("output missing %q:\n%s", want, got)
	}
	if !strings.Contains(got, "goal_achieved deliver_package") {
		t.Errorf("expected deliver_package to be achieved:\n%s", got)
	}
	if !strings.Contains(got, "delivered=true (1.00)") {
		t.Errorf("expected delivered belief:\n%s", got)
	}
}

func TestRun_InjectedFailure(t *testing.T) {
	resetFlags()
	runFailures = map[string]int{"deliver": 1}
	out := captured(runCmd)

	if err := runRun(runCmd, []string{warehousePath}); err != nil {
		t.Fatalf("run: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, service.EventActionFailed) {
		t.Errorf("expected an action failure:\n%s", got)
	}
	if !strings.Contains(got, "deliver -> drive_to_warehouse") {
		t.Errorf("expected the agent to recover and finish:\n%s", got)
	}
}

func TestRun_JSON(t *testing.T) {
	resetFlags()
	runJSON = true
	runTicks = 2
	out := captured(runCmd)

	if err := runRun(runCmd, []string{warehousePath}); err != nil {
		t.Fatalf("run: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 reports, got %d:\n%s", len(lines), out.String())
	}
	var report service.TickReport
	if err := json.Unmarshal([]byte(lines[0]), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.Tick != 1 || report.Executed != "pick_package" {
		t.Errorf("unexpected first report: tick=%d executed=%q", report.Tick, report.Executed)
	}
}

func TestRun_MissingFile(t *testing.T) {
	resetFlags()
	captured(runCmd)
	if err := runRun(runCmd, []string{"does-not-exist.yaml"}); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestPlan_Goal(t *testing.T) {
	resetFlags()
	planGoal = []string{"delivered=true"}
	out := captured(planCmd)

	if err := runPlan(planCmd, []string{warehousePath}); err != nil {
		t.Fatalf("plan: %v", err)
	}

	want := "plan for goal (3 steps):\n  1. pick_package\n  2. drive_to_customer\n  3. deliver\n"
	if got := out.String(); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestPlan_Desire(t *testing.T) {
	resetFlags()
	planDesire = "at_base"
	out := captured(planCmd)

	if err := runPlan(planCmd, []string{warehousePath}); err != nil {
		t.Fatalf("plan: %v", err)
	}
	if got := out.String(); got != "at_base already holds\n" {
		t.Errorf("got %q", got)
	}
}

func TestPlan_WithoutInference(t *testing.T) {
	resetFlags()
	planGoal = []string{"delivered=true"}
	planSkipInference = true
	captured(planCmd)

	err := runPlan(planCmd, []string{warehousePath})
	if !errors.Is(err, domain.ErrGoalNotAchievable) {
		t.Fatalf("expected goal not achievable without battery_ok, got %v", err)
	}
}

func TestPlan_FlagErrors(t *testing.T) {
	tests := []struct {
		name   string
		goal   []string
		desire string
	}{
		{"neither", nil, ""},
		{"both", []string{"delivered=true"}, "at_base"},
		{"unknown desire", nil, "fly"},
		{"bad predicate", []string{"=x"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags()
			planGoal = tt.goal
			planDesire = tt.desire
			captured(planCmd)
			if err := runPlan(planCmd, []string{warehousePath}); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestInfer(t *testing.T) {
	resetFlags()
	out := captured(inferCmd)

	if err := runInfer(inferCmd, []string{warehousePath}); err != nil {
		t.Fatalf("infer: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"2 derived",
		"battery_ok=true (1.00)",
		"roads=slippery (0.48)",
		"firings:",
		"slippery_roads:",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestVersion(t *testing.T) {
	out := captured(versionCmd)
	versionCmd.Run(versionCmd, nil)
	if !strings.HasPrefix(out.String(), "bdicore ") {
		t.Errorf("unexpected version output %q", out.String())
	}
}
