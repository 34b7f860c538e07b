package traverse

import (
	"fmt"
	"time"
)

// ExpressionExclusionRule excludes properties whose ExcludeIf expression
// evaluates to true. Properties without an expression are kept.
//
// Each distinct expression is compiled once per evaluator; the compiled rule
// is kept in the program cache and reused for every later property.
type ExpressionExclusionRule struct {
	evaluator Evaluator
	cache     ProgramCache
	logger    EvaluatorLogger
}

// NewExpressionExclusionRule builds the rule around evaluator. A nil cache
// gets a private one; a nil logger disables evaluation logging.
func NewExpressionExclusionRule(evaluator Evaluator, cache ProgramCache, logger EvaluatorLogger) *ExpressionExclusionRule {
	if cache == nil {
		cache = NewProgramCache()
	}
	if logger == nil {
		logger = noopEvaluatorLogger{}
	}
	return &ExpressionExclusionRule{evaluator: evaluator, cache: cache, logger: logger}
}

// ShouldExclude implements ExclusionRule.
func (r *ExpressionExclusionRule) ShouldExclude(class *ClassMetadata, property *PropertyMetadata, ctx *Context) (bool, error) {
	if property == nil || property.ExcludeIf == "" {
		return false, nil
	}
	if r.evaluator == nil {
		return false, ErrNoEvaluator
	}
	ruleCtx := RuleContext{Class: class, Property: property}
	if ctx != nil {
		ruleCtx = ctx.ruleContext(class, property)
	}
	ruleCtx = ruleCtx.withDefaults()

	engine := r.evaluator.Engine()
	label := ruleCtx.label()
	start := time.Now()
	excluded, err := r.decide(ruleCtx, property.ExcludeIf, engine, label)
	r.logger.LogEvaluation(EvaluatorLogEvent{
		Engine:   engine,
		Expr:     property.ExcludeIf,
		Property: label,
		Excluded: excluded,
		Duration: time.Since(start),
		Err:      err,
	})
	if err != nil {
		return false, err
	}
	return excluded, nil
}

func (r *ExpressionExclusionRule) decide(ruleCtx RuleContext, expression, engine, label string) (bool, error) {
	compiled, err := r.compiled(expression)
	if err != nil {
		return false, evaluationError(engine, PhaseCompile, expression, label, err)
	}
	excluded, err := compiled.Exclude(ruleCtx)
	if err != nil {
		return false, evaluationError(engine, PhaseEvaluate, expression, label, err)
	}
	return excluded, nil
}

// compiled returns the cached rule for expression, compiling it on first use.
// Keys carry the evaluator identity so one cache can serve several engines.
func (r *ExpressionExclusionRule) compiled(expression string) (CompiledRule, error) {
	key := fmt.Sprintf("%s/%p/%s", r.evaluator.Engine(), r.evaluator, expression)
	if cached, ok := r.cache.Get(key); ok {
		if rule, ok := cached.(CompiledRule); ok {
			return rule, nil
		}
	}
	rule, err := r.evaluator.Compile(expression)
	if err != nil {
		return nil, err
	}
	r.cache.Set(key, rule)
	return rule, nil
}
