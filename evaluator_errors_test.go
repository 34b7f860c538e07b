package traverse

import (
	"errors"
	"testing"
)

func TestEvaluationErrorCarriesPhase(t *testing.T) {
	base := errors.New("boom")
	err := evaluationError(EngineExpr, PhaseEvaluate, "property.name == 'secret'", "User.password", base)

	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError, got %T", err)
	}
	if evalErr.Phase != PhaseEvaluate {
		t.Fatalf("expected evaluate phase, got %q", evalErr.Phase)
	}
	if evalErr.Property != "User.password" {
		t.Fatalf("expected property metadata, got %q", evalErr.Property)
	}
	if !errors.Is(err, base) {
		t.Fatalf("error should unwrap to base error")
	}
	want := `traverse: expr evaluate failed for User.password (expr="property.name == 'secret'"): boom`
	if err.Error() != want {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestEvaluationErrorNilCases(t *testing.T) {
	if err := evaluationError(EngineCEL, PhaseCompile, "depth > 2", "Post.author", nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	var evalErr *EvaluationError
	if evalErr.Error() != "<nil>" || evalErr.Unwrap() != nil {
		t.Fatalf("nil EvaluationError should be inert")
	}
}
