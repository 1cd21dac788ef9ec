package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSetDelete(t *testing.T) {
	m := Mapping{}

	Set(m, []string{"A", "B", "C"}, 1)
	v, ok := Get(m, []string{"A", "B", "C"})
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = Get(m, []string{"A", "X"})
	assert.False(t, ok)

	_, ok = Get(m, []string{"A", "B", "C", "D"})
	assert.False(t, ok, "cannot walk through a scalar")

	removed, ok := Delete(m, []string{"A", "B"})
	require.True(t, ok)
	assert.Equal(t, Mapping{"C": 1}, removed)
	assert.Equal(t, Mapping{"A": Mapping{}}, m)
}

func TestFlattenUnflatten(t *testing.T) {
	m := Mapping{
		"A": Mapping{"B": 1, "C": Mapping{"D": "x"}},
		"E": Mapping{},
		"F": []any{1},
	}

	flat := Flatten(m)
	assert.Equal(t, map[string]any{
		"A.B":   1,
		"A.C.D": "x",
		"E":     Mapping{},
		"F":     []any{1},
	}, flat)

	assert.Equal(t, m, Unflatten(flat))
}

func TestWalk_SortedAndSkippable(t *testing.T) {
	m := Mapping{"B": Mapping{"Y": 1}, "A": Mapping{"X": 2}, "C": 3}

	var visited []string
	Walk(m, func(segments []string, _ any) bool {
		visited = append(visited, JoinPath(segments))
		return segments[0] != "B"
	})

	assert.Equal(t, []string{"A", "A.X", "B", "C"}, visited)
}

func TestKindAndEmpty(t *testing.T) {
	assert.Equal(t, KindNull, KindOf(nil))
	assert.Equal(t, KindScalar, KindOf(0))
	assert.Equal(t, KindSequence, KindOf([]any{}))
	assert.Equal(t, KindMapping, KindOf(Mapping{}))

	assert.True(t, IsEmpty(""))
	assert.True(t, IsEmpty(Mapping{}))
	assert.True(t, IsEmpty([]any{}))
	assert.False(t, IsEmpty(0))
	assert.False(t, IsEmpty(false))
}

func TestString(t *testing.T) {
	assert.Equal(t, "a, 1, true", String([]any{"a", 1, true}))
	assert.Equal(t, "", String(nil))
	assert.Equal(t, "2.5", String(2.5))
}
