package traverse

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Function is a callable exposed to exclusion expressions.
type Function func(args ...any) (any, error)

// FunctionRegistry stores custom functions keyed by name.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]Function
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{
		functions: make(map[string]Function),
	}
}

// reservedNames are the bindings every evaluator exposes; functions may not
// shadow them.
var reservedNames = map[string]struct{}{
	"now": {}, "class": {}, "property": {}, "depth": {}, "path": {},
	"format": {}, "version": {}, "groups": {}, "attributes": {}, "call": {},
}

// Register stores fn under name guarding against duplicates and names that
// would shadow an expression binding.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	if fn == nil {
		return fmt.Errorf("traverse: function %q is nil", name)
	}
	if name == "" {
		return fmt.Errorf("traverse: function name must not be empty")
	}
	key := strings.ToLower(name)
	if _, reserved := reservedNames[key]; reserved {
		return fmt.Errorf("traverse: function name %q is reserved", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = make(map[string]Function)
	}
	if _, exists := r.functions[key]; exists {
		return fmt.Errorf("traverse: function %q already registered", name)
	}
	r.functions[key] = fn
	return nil
}

// Clone returns a shallow copy of the registry.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &FunctionRegistry{
		functions: make(map[string]Function, len(r.functions)),
	}
	for name, fn := range r.functions {
		clone.functions[name] = fn
	}
	return clone
}

// Call executes the function registered for name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("traverse: function registry is nil")
	}
	r.mu.RLock()
	fn := r.functions[strings.ToLower(name)]
	r.mu.RUnlock()
	if fn == nil {
		return nil, fmt.Errorf("traverse: function %q not registered", name)
	}
	return fn(args...)
}

// Has reports whether name is registered.
func (r *FunctionRegistry) Has(name string) bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.functions[strings.ToLower(name)]
	return ok
}

// Names returns registered function names sorted alphabetically.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WithFunctionRegistry exposes the functions in registry to exclusion
// expressions.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *contextConfig) {
		if registry == nil {
			return
		}
		cfg.functions = registry.Clone()
	}
}

// WithCustomFunction registers fn under name for exclusion expressions.
func WithCustomFunction(name string, fn Function) Option {
	return func(cfg *contextConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		_ = cfg.functions.Register(name, fn)
	}
}

// dispatch backs the call(name, args...) binding: the first argument names
// the function.
func (r *FunctionRegistry) dispatch(args ...any) (any, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("traverse: call requires a function name")
	}
	name, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("traverse: call name must be string, got %T", args[0])
	}
	return r.Call(name, args[1:]...)
}

// bound returns a function that calls name with its arguments.
func (r *FunctionRegistry) bound(name string) func(args ...any) (any, error) {
	return func(args ...any) (any, error) {
		return r.Call(name, args...)
	}
}
