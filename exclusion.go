package traverse

import (
	"fmt"
)

// ExclusionRule decides whether a class or property takes part in the
// traversal. property is nil when the decision concerns the class itself.
type ExclusionRule interface {
	ShouldExclude(class *ClassMetadata, property *PropertyMetadata, ctx *Context) (bool, error)
}

// ExclusionRuleFunc adapts a function to ExclusionRule.
type ExclusionRuleFunc func(class *ClassMetadata, property *PropertyMetadata, ctx *Context) (bool, error)

// ShouldExclude implements ExclusionRule.
func (f ExclusionRuleFunc) ShouldExclude(class *ClassMetadata, property *PropertyMetadata, ctx *Context) (bool, error) {
	if f == nil {
		return false, nil
	}
	return f(class, property, ctx)
}

// DisjunctExclusionRule excludes when any member excludes. Members run in the
// order they were added and evaluation stops at the first exclusion or error.
// An empty composite excludes nothing.
type DisjunctExclusionRule struct {
	rules []ExclusionRule
}

// NewDisjunctExclusionRule builds a composite from rules, dropping nil entries.
func NewDisjunctExclusionRule(rules ...ExclusionRule) *DisjunctExclusionRule {
	d := &DisjunctExclusionRule{}
	for _, rule := range rules {
		d.Add(rule)
	}
	return d
}

// Add appends rule unless it is nil.
func (d *DisjunctExclusionRule) Add(rule ExclusionRule) {
	if rule == nil {
		return
	}
	d.rules = append(d.rules, rule)
}

// Rules returns the members in evaluation order.
func (d *DisjunctExclusionRule) Rules() []ExclusionRule {
	if d == nil || len(d.rules) == 0 {
		return nil
	}
	out := make([]ExclusionRule, len(d.rules))
	copy(out, d.rules)
	return out
}

// Len returns the number of members.
func (d *DisjunctExclusionRule) Len() int {
	if d == nil {
		return 0
	}
	return len(d.rules)
}

// ShouldExclude implements ExclusionRule.
func (d *DisjunctExclusionRule) ShouldExclude(class *ClassMetadata, property *PropertyMetadata, ctx *Context) (bool, error) {
	_, excluded, err := d.firstExcluding(class, property, ctx)
	return excluded, err
}

func (d *DisjunctExclusionRule) firstExcluding(class *ClassMetadata, property *PropertyMetadata, ctx *Context) (ExclusionRule, bool, error) {
	if d == nil {
		return nil, false, nil
	}
	for i, rule := range d.rules {
		excluded, err := rule.ShouldExclude(class, property, ctx)
		if err != nil {
			return rule, false, fmt.Errorf("traverse: exclusion rule %d (%s): %w", i, ruleName(rule), err)
		}
		if excluded {
			return rule, true, nil
		}
	}
	return nil, false, nil
}

func ruleName(rule ExclusionRule) string {
	switch rule.(type) {
	case nil:
		return "none"
	case *VersionExclusionRule:
		return "version"
	case *GroupsExclusionRule:
		return "groups"
	case DepthExclusionRule, *DepthExclusionRule:
		return "depth"
	case *ExpressionExclusionRule:
		return "expression"
	case *DisjunctExclusionRule:
		return "disjunct"
	default:
		return "custom"
	}
}
