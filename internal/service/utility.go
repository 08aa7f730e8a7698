package service

import (
	"fmt"

	"github.com/Harshitk-cp/bdicore/internal/domain"
	"github.com/google/cel-go/cel"
	"go.uber.org/zap"
)

// CELScorer ranks a desire by evaluating a CEL expression over the world state. The
// expression sees a single variable, state, of type map(string, string), and must
// produce a double, int or bool (true scores 1, false 0). Results are clamped to
// [0,1] by the desire.
//
//	"battery" in state && state["battery"] == "low" ? 0.95 : 0.2
//	double(state["temperature"]) / 100.0
type CELScorer struct {
	name       string
	expression string
	program    cel.Program
	logger     *zap.Logger
}

var celEnv *cel.Env

func init() {
	env, err := cel.NewEnv(
		cel.Variable("state", cel.MapType(cel.StringType, cel.StringType)),
	)
	if err != nil {
		panic(fmt.Sprintf("failed to create CEL env: %v", err))
	}
	celEnv = env
}

// NewCELScorer compiles expression. Compile errors are returned immediately so a bad
// domain document is rejected on load rather than at deliberation time.
func NewCELScorer(name, expression string, logger *zap.Logger) (*CELScorer, error) {
	ast, issues := celEnv.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("utility %q: CEL compile error: %w", name, issues.Err())
	}
	if !scoreType(ast.OutputType()) {
		return nil, fmt.Errorf("utility %q: expression yields %s, want double, int or bool", name, ast.OutputType())
	}
	prg, err := celEnv.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("utility %q: CEL program error: %w", name, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CELScorer{name: name, expression: expression, program: prg, logger: logger}, nil
}

func scoreType(t *cel.Type) bool {
	for _, want := range []*cel.Type{cel.DoubleType, cel.IntType, cel.UintType, cel.BoolType, cel.DynType} {
		if t.IsExactType(want) {
			return true
		}
	}
	return false
}

func (s *CELScorer) Name() string { return s.name }

func (s *CELScorer) Expression() string { return s.expression }

// Evaluate runs the expression against state.
func (s *CELScorer) Evaluate(state domain.WorldState) (float64, error) {
	out, _, err := s.program.Eval(map[string]any{"state": state.Map()})
	if err != nil {
		s.logger.Warn("utility evaluation failed",
			zap.String("utility", s.name),
			zap.Error(err))
		return 0, fmt.Errorf("utility %q: CEL eval error: %w", s.name, err)
	}

	switch v := out.Value().(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	default:
		s.logger.Warn("utility produced a non-numeric result",
			zap.String("utility", s.name),
			zap.String("type", fmt.Sprintf("%T", v)))
		return 0, fmt.Errorf("utility %q: result %T is not numeric", s.name, v)
	}
}

// Score satisfies domain.Scorer. Failures score 0; desires call Evaluate instead so
// they can fall back to their static priority.
func (s *CELScorer) Score(state domain.WorldState) float64 {
	v, err := s.Evaluate(state)
	if err != nil {
		return 0
	}
	return v
}
