package clone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name   string
	Count  *int
	Labels map[string]string
	hidden []string
}

func intPtr(v int) *int {
	return &v
}

func TestValueDetachesNestedReferences(t *testing.T) {
	original := sample{
		Name:   "user",
		Count:  intPtr(3),
		Labels: map[string]string{"env": "prod"},
		hidden: []string{"a"},
	}

	copied := Value(original)
	*original.Count = 7
	original.Labels["env"] = "qa"

	require.NotNil(t, copied.Count)
	assert.Equal(t, 3, *copied.Count)
	assert.Equal(t, "prod", copied.Labels["env"])
	assert.Equal(t, []string{"a"}, copied.hidden)
}

func TestMapCopiesInterfaceValues(t *testing.T) {
	groups := []string{"public", "admin"}
	attrs := map[string]any{
		"groups": groups,
		"nested": map[string]any{"depth": 2},
		"nil":    nil,
	}

	copied := Map(attrs)
	groups[0] = "changed"
	attrs["nested"].(map[string]any)["depth"] = 5

	assert.Equal(t, []string{"public", "admin"}, copied["groups"])
	assert.Equal(t, 2, copied["nested"].(map[string]any)["depth"])
	value, ok := copied["nil"]
	assert.True(t, ok)
	assert.Nil(t, value)
}

func TestMapOfNilIsEmpty(t *testing.T) {
	copied := Map(nil)
	require.NotNil(t, copied)
	assert.Empty(t, copied)
}

func TestMergeOverlaysNestedMaps(t *testing.T) {
	weak := map[string]any{
		"locale": "en",
		"limits": map[string]any{"depth": 3, "items": 50},
		"tags":   []string{"a"},
	}
	strong := map[string]any{
		"limits": map[string]any{"depth": 5},
		"tags":   []string{"b"},
		"tenant": "acme",
	}

	merged := Merge(strong, weak)

	assert.Equal(t, map[string]any{
		"locale": "en",
		"limits": map[string]any{"depth": 5, "items": 50},
		"tags":   []string{"b"},
		"tenant": "acme",
	}, merged)

	merged["limits"].(map[string]any)["depth"] = 9
	assert.Equal(t, 5, strong["limits"].(map[string]any)["depth"])
	assert.Equal(t, 3, weak["limits"].(map[string]any)["depth"])
}

func TestMergeEmptyInputs(t *testing.T) {
	assert.Equal(t, map[string]any{}, Merge(nil, nil))
	assert.Equal(t, map[string]any{"a": 1}, Merge(map[string]any{"a": 1}, nil))
}

type node struct {
	Name string
	Next *node
}

func TestValuePreservesPointerCycles(t *testing.T) {
	root := &node{Name: "root"}
	root.Next = root

	copied := Value(root)

	require.NotSame(t, root, copied)
	assert.Same(t, copied, copied.Next)
	assert.Equal(t, "root", copied.Next.Name)
}

func TestMapPreservesSelfReferences(t *testing.T) {
	attrs := map[string]any{"name": "outer"}
	attrs["self"] = attrs
	list := []any{"a", nil}
	list[1] = list
	attrs["list"] = list
	shared := &node{Name: "shared"}
	attrs["left"] = shared
	attrs["right"] = shared

	copied := Map(attrs)

	self, ok := copied["self"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "outer", self["name"])
	self["name"] = "changed"
	assert.Equal(t, "changed", copied["name"], "self reference points at the copy")
	assert.Equal(t, "outer", attrs["name"])

	copiedList := copied["list"].([]any)
	assert.Equal(t, "a", copiedList[0])
	inner := copiedList[1].([]any)
	inner[0] = "b"
	assert.Equal(t, "b", copiedList[0])
	assert.Equal(t, "a", list[0])

	assert.Same(t, copied["left"], copied["right"])
	assert.NotSame(t, shared, copied["left"])
}

func TestMergeStopsAtCycles(t *testing.T) {
	strong := map[string]any{"k": 1}
	strong["loop"] = strong
	weak := map[string]any{}
	weak["loop"] = weak

	merged := Merge(strong, weak)

	assert.Equal(t, 1, merged["k"])
	loop, ok := merged["loop"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1, loop["k"])
}
