//go:build js_eval

package traverse

import (
	"fmt"

	"github.com/dop251/goja"
)

func init() {
	registerEngine(EngineJS, func(registry *FunctionRegistry) (Evaluator, error) {
		return NewJSEvaluator(registry), nil
	})
}

// jsEvaluator compiles ExcludeIf expressions with goja. Each evaluation runs
// in a fresh runtime, so expressions cannot leak state between properties.
// class is a reserved word in JavaScript; expressions read it as
// bindings.class.
type jsEvaluator struct {
	registry *FunctionRegistry
}

// NewJSEvaluator returns the goja engine. Functions in registry are callable
// by name and through call(name, ...args).
func NewJSEvaluator(registry *FunctionRegistry) Evaluator {
	return &jsEvaluator{registry: registry.Clone()}
}

func (e *jsEvaluator) Engine() string {
	return EngineJS
}

func (e *jsEvaluator) Compile(expression string) (CompiledRule, error) {
	if expression == "" {
		return nil, fmt.Errorf("expression must not be empty")
	}
	program, err := goja.Compile("exclude_if", "(function(){ return ("+expression+"); })()", true)
	if err != nil {
		return nil, err
	}
	return &jsRule{program: program, registry: e.registry}, nil
}

type jsRule struct {
	program  *goja.Program
	registry *FunctionRegistry
}

func (r *jsRule) Exclude(ctx RuleContext) (bool, error) {
	vm := goja.New()
	bindings := ctx.bindings()
	globals := map[string]any{"bindings": bindings}
	for key, value := range bindings {
		if key != "class" {
			globals[key] = value
		}
	}
	if r.registry != nil {
		globals["call"] = r.registry.dispatch
		for _, name := range r.registry.Names() {
			globals[name] = r.registry.bound(name)
		}
	}
	for key, value := range globals {
		if err := vm.Set(key, value); err != nil {
			return false, err
		}
	}
	value, err := vm.RunProgram(r.program)
	if err != nil {
		return false, err
	}
	return asBool(value.Export())
}
