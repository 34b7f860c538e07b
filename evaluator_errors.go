package traverse

import "fmt"

// Phases reported by EvaluationError.
const (
	PhaseCompile  = "compile"
	PhaseEvaluate = "evaluate"
)

// EvaluationError reports an ExcludeIf expression that failed to compile or
// to produce a decision for a property.
type EvaluationError struct {
	Engine   string
	Phase    string
	Expr     string
	Property string
	Err      error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("traverse: %s %s failed for %s (expr=%q): %v", e.Engine, e.Phase, e.Property, e.Expr, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func evaluationError(engine, phase, expr, property string, err error) error {
	if err == nil {
		return nil
	}
	return &EvaluationError{Engine: engine, Phase: phase, Expr: expr, Property: property, Err: err}
}
