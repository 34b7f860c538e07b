package traverse

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyInitialized indicates Initialize ran twice on the same Context.
	ErrAlreadyInitialized = errors.New("traverse: context already initialized")
	// ErrNotInitialized indicates an operation that requires a bound driver ran
	// before Initialize.
	ErrNotInitialized = errors.New("traverse: context not initialized")
	// ErrImmutable indicates a mutator ran after the context was frozen.
	ErrImmutable = errors.New("traverse: context is immutable")
	// ErrVersionRequired indicates SetVersion received an empty version.
	ErrVersionRequired = errors.New("traverse: version must be provided")
	// ErrInvalidVersion indicates SetVersion received a version it cannot compare.
	ErrInvalidVersion = errors.New("traverse: version is not comparable")
	// ErrGroupsRequired indicates SetGroups received no usable group names.
	ErrGroupsRequired = errors.New("traverse: groups must not be empty")
	// ErrNilRule indicates AddExclusionRule received a nil rule.
	ErrNilRule = errors.New("traverse: exclusion rule must not be nil")
	// ErrFormatRequired indicates Initialize received an empty format.
	ErrFormatRequired = errors.New("traverse: format must be provided")
	// ErrNavigatorRequired indicates Initialize received a nil navigator.
	ErrNavigatorRequired = errors.New("traverse: navigator must be provided")
	// ErrAttributeNotFound indicates Attribute was asked for an unknown key.
	ErrAttributeNotFound = errors.New("traverse: attribute not found")

	// ErrStackMismatch indicates a pop found a frame of the wrong kind on top.
	ErrStackMismatch = errors.New("traverse: metadata stack not working well")
	// ErrStackEmpty indicates a pop ran against an empty metadata stack.
	ErrStackEmpty = errors.New("traverse: metadata stack is empty")
	// ErrUnbalancedStack indicates a traversal returned with frames still pushed.
	ErrUnbalancedStack = errors.New("traverse: metadata stack not empty after traversal")
)

// LogicError reports a configuration-time programming mistake: re-initialising
// a context, mutating it after the freeze, or passing invalid configuration.
type LogicError struct {
	Op  string
	Err error
}

func (e *LogicError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Kind classifies the error for activity events.
func (e *LogicError) Kind() string {
	return "logic"
}

func (e *LogicError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// StackError reports a structural violation of the metadata frame stack. The
// traversal driving the context is unbalanced or mis-typed and must abort.
type StackError struct {
	Op       string
	Expected FrameKind
	Actual   FrameKind
	Depth    int
	Err      error
}

func (e *StackError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch {
	case errors.Is(e.Err, ErrStackMismatch):
		return fmt.Sprintf("%s: %v: expected %s frame, found %s frame at depth %d", e.Op, e.Err, e.Expected, e.Actual, e.Depth)
	case errors.Is(e.Err, ErrUnbalancedStack):
		return fmt.Sprintf("%s: %v: %d frame(s) left", e.Op, e.Err, e.Depth)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
}

// Kind classifies the error for activity events.
func (e *StackError) Kind() string {
	return "stack"
}

func (e *StackError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func logicError(op string, err error) error {
	return &LogicError{Op: op, Err: err}
}

// IsLogicError reports whether err carries a LogicError.
func IsLogicError(err error) bool {
	var target *LogicError
	return errors.As(err, &target)
}

// IsStackError reports whether err carries a StackError.
func IsStackError(err error) bool {
	var target *StackError
	return errors.As(err, &target)
}
