//go:build js_eval

package traverse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSEvaluatorExcludesByBinding(t *testing.T) {
	registry := NewFunctionRegistry()
	require.NoError(t, registry.Register("masked", func(args ...any) (any, error) {
		return args[0] == "ssn", nil
	}))
	evaluator, err := NewEvaluator(EngineJS, registry)
	require.NoError(t, err)
	assert.Equal(t, EngineJS, evaluator.Engine())

	rule, err := evaluator.Compile(`depth > 2 && groups.indexOf("admin") >= 0`)
	require.NoError(t, err)
	excluded, err := rule.Exclude(RuleContext{Depth: 3, Groups: []string{"admin"}})
	require.NoError(t, err)
	assert.True(t, excluded)

	rule, err = evaluator.Compile(`masked(property.name) || call("masked", bindings.class.name)`)
	require.NoError(t, err)
	excluded, err = rule.Exclude(RuleContext{Property: &PropertyMetadata{Name: "ssn"}})
	require.NoError(t, err)
	assert.True(t, excluded)

	rule, err = evaluator.Compile(`property.name`)
	require.NoError(t, err)
	_, err = rule.Exclude(RuleContext{Property: &PropertyMetadata{Name: "ssn"}})
	require.ErrorIs(t, err, ErrNonBoolResult)
}
