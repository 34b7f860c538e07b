package traverse

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNoEvaluator indicates expression exclusion ran without an evaluator
	// or asked for an engine that is not compiled in.
	ErrNoEvaluator = errors.New("traverse: evaluator not configured")
	// ErrNonBoolResult indicates an ExcludeIf expression produced something
	// other than a bool.
	ErrNonBoolResult = errors.New("traverse: exclusion expression must evaluate to bool")
)

// Engine names accepted by NewEvaluator.
const (
	EngineExpr = "expr"
	EngineCEL  = "cel"
	EngineJS   = "js"
)

// Evaluator compiles ExcludeIf expressions for one engine.
type Evaluator interface {
	Engine() string
	Compile(expression string) (CompiledRule, error)
}

// CompiledRule is a compiled ExcludeIf expression. Exclude reports whether
// the property described by ctx is left out of the traversal.
type CompiledRule interface {
	Exclude(ctx RuleContext) (bool, error)
}

type engineFactory func(registry *FunctionRegistry) (Evaluator, error)

// engines holds the engines compiled into the binary; the js engine only
// registers itself under the js_eval build tag.
var engines = map[string]engineFactory{}

func registerEngine(name string, factory engineFactory) {
	engines[name] = factory
}

// Engines returns the names of the available engines, sorted.
func Engines() []string {
	names := make([]string, 0, len(engines))
	for name := range engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewEvaluator returns an evaluator for engine ("" selects expr) exposing the
// functions in registry.
func NewEvaluator(engine string, registry *FunctionRegistry) (Evaluator, error) {
	name := strings.ToLower(strings.TrimSpace(engine))
	if name == "" {
		name = EngineExpr
	}
	factory, ok := engines[name]
	switch {
	case ok:
		return factory(registry)
	case name == EngineJS:
		return nil, fmt.Errorf("%w: js engine requires the js_eval build tag", ErrNoEvaluator)
	default:
		return nil, fmt.Errorf("%w: unknown engine %q", ErrNoEvaluator, engine)
	}
}

// resolveEvaluator returns the configured evaluator or installs the expr
// default with the configured function registry.
func (c *Context) resolveEvaluator() Evaluator {
	if c.cfg.evaluator == nil {
		c.cfg.evaluator = NewExprEvaluator(c.cfg.functions)
	}
	return c.cfg.evaluator
}

// asBool converts an engine result into an exclusion decision. A nil result
// keeps the property.
func asBool(value any) (bool, error) {
	switch typed := value.(type) {
	case nil:
		return false, nil
	case bool:
		return typed, nil
	default:
		return false, fmt.Errorf("%w, got %T", ErrNonBoolResult, value)
	}
}
