package traverse

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvaluatorEngines(t *testing.T) {
	expr, err := NewEvaluator("", nil)
	require.NoError(t, err)
	assert.Equal(t, EngineExpr, expr.Engine())

	cel, err := NewEvaluator(" CEL ", nil)
	require.NoError(t, err)
	assert.Equal(t, EngineCEL, cel.Engine())

	_, err = NewEvaluator("lua", nil)
	require.ErrorIs(t, err, ErrNoEvaluator)

	assert.Subset(t, Engines(), []string{EngineCEL, EngineExpr})
	js, err := NewEvaluator(EngineJS, nil)
	if slices.Contains(Engines(), EngineJS) {
		require.NoError(t, err)
		assert.Equal(t, EngineJS, js.Engine())
	} else {
		require.ErrorIs(t, err, ErrNoEvaluator)
		assert.Contains(t, err.Error(), "js_eval")
	}
}

func TestCompiledRulesEvaluatePerContext(t *testing.T) {
	for _, engine := range []string{EngineExpr, EngineCEL} {
		t.Run(engine, func(t *testing.T) {
			evaluator, err := NewEvaluator(engine, nil)
			require.NoError(t, err)
			rule, err := evaluator.Compile(`property.name == "secret" || version == "3"`)
			require.NoError(t, err)

			excluded, err := rule.Exclude(RuleContext{Property: &PropertyMetadata{Name: "secret"}})
			require.NoError(t, err)
			assert.True(t, excluded)

			excluded, err = rule.Exclude(RuleContext{Property: &PropertyMetadata{Name: "id"}, Version: "2"})
			require.NoError(t, err)
			assert.False(t, excluded)
		})
	}
}

func TestCompiledRulesRejectNonBoolResults(t *testing.T) {
	for _, engine := range []string{EngineExpr, EngineCEL} {
		t.Run(engine, func(t *testing.T) {
			evaluator, err := NewEvaluator(engine, nil)
			require.NoError(t, err)
			rule, err := evaluator.Compile(`depth`)
			require.NoError(t, err)
			_, err = rule.Exclude(RuleContext{Depth: 2})
			require.ErrorIs(t, err, ErrNonBoolResult)
		})
	}
}

func TestCELRejectsNonBoolAtCompile(t *testing.T) {
	evaluator, err := NewCELEvaluator(nil)
	require.NoError(t, err)
	_, err = evaluator.Compile(`"always"`)
	require.ErrorIs(t, err, ErrNonBoolResult)
	_, err = evaluator.Compile(`property.name ==`)
	require.Error(t, err)
}

func TestEvaluatorsRejectEmptyExpressions(t *testing.T) {
	cel, err := NewCELEvaluator(nil)
	require.NoError(t, err)
	for _, evaluator := range []Evaluator{NewExprEvaluator(nil), cel} {
		_, err := evaluator.Compile("")
		require.Error(t, err, evaluator.Engine())
	}
}

func TestAsBool(t *testing.T) {
	excluded, err := asBool(nil)
	require.NoError(t, err)
	assert.False(t, excluded)
	excluded, err = asBool(true)
	require.NoError(t, err)
	assert.True(t, excluded)
	_, err = asBool("true")
	require.ErrorIs(t, err, ErrNonBoolResult)
	assert.Contains(t, err.Error(), "string")
}

func TestFunctionRegistryInExpressions(t *testing.T) {
	registry := NewFunctionRegistry()
	require.NoError(t, registry.Register("isSensitive", func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, errors.New("isSensitive expects one argument")
		}
		name, _ := args[0].(string)
		return strings.Contains(name, "password") || strings.Contains(name, "token"), nil
	}))
	property := &PropertyMetadata{Name: "password_hash"}
	exclude := func(t *testing.T, evaluator Evaluator, expression string, property *PropertyMetadata) bool {
		t.Helper()
		rule, err := evaluator.Compile(expression)
		require.NoError(t, err)
		excluded, err := rule.Exclude(RuleContext{Property: property})
		require.NoError(t, err)
		return excluded
	}

	t.Run("expr direct", func(t *testing.T) {
		assert.True(t, exclude(t, NewExprEvaluator(registry), `issensitive(property.name)`, property))
	})

	t.Run("expr call", func(t *testing.T) {
		assert.False(t, exclude(t, NewExprEvaluator(registry), `call("isSensitive", property.name)`, &PropertyMetadata{Name: "email"}))
	})

	t.Run("cel call", func(t *testing.T) {
		evaluator, err := NewCELEvaluator(registry)
		require.NoError(t, err)
		assert.True(t, exclude(t, evaluator, `call("isSensitive", [property.name])`, property))
	})

	t.Run("registry is copied", func(t *testing.T) {
		local := registry.Clone()
		evaluator := NewExprEvaluator(local)
		require.NoError(t, local.Register("late", func(...any) (any, error) { return true, nil }))
		rule, err := evaluator.Compile(`call("late")`)
		require.NoError(t, err)
		_, err = rule.Exclude(RuleContext{})
		require.Error(t, err)
	})

	t.Run("call errors", func(t *testing.T) {
		_, err := registry.dispatch()
		require.Error(t, err)
		_, err = registry.dispatch(7)
		require.Error(t, err)
	})

	t.Run("context option", func(t *testing.T) {
		ctx := New(WithFunctionRegistry(registry))
		_, err := ctx.EnableExpressionExclusion()
		require.NoError(t, err)
		initialized(t, ctx, &recordingNavigator{})
		skip, err := ctx.ShouldSkipProperty(&PropertyMetadata{Name: "api_token", ExcludeIf: `issensitive(property.name)`})
		require.NoError(t, err)
		assert.True(t, skip)
	})
}

func TestFunctionRegistryRegister(t *testing.T) {
	registry := NewFunctionRegistry()
	noop := func(...any) (any, error) { return nil, nil }

	require.NoError(t, registry.Register("Mask", noop))
	assert.True(t, registry.Has("mask"))
	require.Error(t, registry.Register("mask", noop), "names are case-insensitive")
	require.Error(t, registry.Register("", noop))
	require.Error(t, registry.Register("nil", nil))
	for _, reserved := range []string{"depth", "Property", "call"} {
		err := registry.Register(reserved, noop)
		require.Error(t, err, reserved)
		assert.Contains(t, err.Error(), "reserved")
	}

	clone := registry.Clone()
	require.NoError(t, clone.Register("extra", noop))
	assert.False(t, registry.Has("extra"))
	assert.Equal(t, []string{"extra", "mask"}, clone.Names())

	_, err := registry.Call("missing")
	require.Error(t, err)
	var nilRegistry *FunctionRegistry
	_, err = nilRegistry.Call("mask")
	require.Error(t, err)
}

func TestWithCustomFunctionBuildsRegistry(t *testing.T) {
	cfg := applyOptions([]Option{
		WithCustomFunction("first", func(args ...any) (any, error) { return args[0], nil }),
	})
	require.NotNil(t, cfg.functions)
	out, err := cfg.functions.Call("FIRST", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, out)
}
