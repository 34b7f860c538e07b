package traverse

import (
	"fmt"
	"reflect"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

func init() {
	registerEngine(EngineCEL, NewCELEvaluator)
}

// celBindings declares every RuleContext binding except now, which is a
// timestamp. The metadata maps stay dynamic.
var celBindings = []string{"class", "property", "depth", "path", "format", "version", "groups", "attributes"}

// celEvaluator type-checks ExcludeIf expressions against one environment
// built per evaluator. Expressions whose checked type is neither bool nor
// dyn are rejected at compile time.
type celEvaluator struct {
	env      *celgo.Env
	registry *FunctionRegistry
}

// NewCELEvaluator returns the CEL engine. CEL has no variadic functions, so
// registry functions are reached through call("name") or
// call("name", [args]).
func NewCELEvaluator(registry *FunctionRegistry) (Evaluator, error) {
	e := &celEvaluator{registry: registry.Clone()}
	opts := []celgo.EnvOption{celgo.Variable("now", celgo.TimestampType)}
	for _, name := range celBindings {
		opts = append(opts, celgo.Variable(name, celgo.DynType))
	}
	if e.registry != nil {
		opts = append(opts, celgo.Function("call",
			celgo.Overload("call_string",
				[]*celgo.Type{celgo.StringType},
				celgo.DynType,
				celgo.UnaryBinding(func(name ref.Val) ref.Val {
					return e.call(name, nil)
				}),
			),
			celgo.Overload("call_string_list",
				[]*celgo.Type{celgo.StringType, celgo.ListType(celgo.DynType)},
				celgo.DynType,
				celgo.BinaryBinding(e.call),
			),
		))
	}
	env, err := celgo.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("traverse: cel environment: %w", err)
	}
	e.env = env
	return e, nil
}

func (e *celEvaluator) Engine() string {
	return EngineCEL
}

func (e *celEvaluator) Compile(expression string) (CompiledRule, error) {
	if expression == "" {
		return nil, fmt.Errorf("expression must not be empty")
	}
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	if out := ast.OutputType(); !out.IsExactType(celgo.BoolType) && !out.IsExactType(celgo.DynType) {
		return nil, fmt.Errorf("%w, checked type is %s", ErrNonBoolResult, out)
	}
	program, err := e.env.Program(ast)
	if err != nil {
		return nil, err
	}
	return celRule{program: program}, nil
}

type celRule struct {
	program celgo.Program
}

func (r celRule) Exclude(ctx RuleContext) (bool, error) {
	out, _, err := r.program.Eval(ctx.bindings())
	if err != nil {
		return false, err
	}
	return asBool(out.Value())
}

func (e *celEvaluator) call(nameVal ref.Val, argsVal ref.Val) ref.Val {
	name, ok := nameVal.Value().(string)
	if !ok {
		return types.NewErr("traverse: call name must be string")
	}
	var args []any
	if argsVal != nil {
		native, err := argsVal.ConvertToNative(reflect.TypeOf([]any{}))
		if err != nil {
			return types.NewErr("traverse: call arguments: %v", err)
		}
		args = native.([]any)
	}
	result, err := e.registry.Call(name, args...)
	if err != nil {
		return types.NewErr("%s", err.Error())
	}
	if result == nil {
		return types.NullValue
	}
	return types.DefaultTypeAdapter.NativeToValue(result)
}
