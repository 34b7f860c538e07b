package traverse

import (
	"fmt"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

func init() {
	registerEngine(EngineExpr, func(registry *FunctionRegistry) (Evaluator, error) {
		return NewExprEvaluator(registry), nil
	})
}

// exprEvaluator compiles ExcludeIf expressions with expr-lang/expr. Bindings
// are untyped at compile time, so member access on class, property and
// attributes resolves when the rule runs.
type exprEvaluator struct {
	registry *FunctionRegistry
}

// NewExprEvaluator returns the expr engine. Functions in registry are
// callable by name and through call(name, args...).
func NewExprEvaluator(registry *FunctionRegistry) Evaluator {
	return &exprEvaluator{registry: registry.Clone()}
}

func (e *exprEvaluator) Engine() string {
	return EngineExpr
}

func (e *exprEvaluator) Compile(expression string) (CompiledRule, error) {
	if expression == "" {
		return nil, fmt.Errorf("expression must not be empty")
	}
	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	if e.registry != nil {
		options = append(options, exprlang.Function("call", e.registry.dispatch))
		for _, name := range e.registry.Names() {
			options = append(options, exprlang.Function(name, e.registry.bound(name)))
		}
	}
	program, err := exprlang.Compile(expression, options...)
	if err != nil {
		return nil, err
	}
	return exprRule{program: program}, nil
}

type exprRule struct {
	program *exprvm.Program
}

func (r exprRule) Exclude(ctx RuleContext) (bool, error) {
	out, err := exprlang.Run(r.program, ctx.bindings())
	if err != nil {
		return false, err
	}
	return asBool(out)
}
