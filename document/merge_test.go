package document_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/blueprint/document"
)

func TestMerge_MapsRecurseScalarsReplace(t *testing.T) {
	base := document.FromMap(map[string]any{
		"a": map[string]any{"b": 1, "c": 2},
		"s": "base",
	})
	overlay := document.FromMap(map[string]any{
		"a": map[string]any{"b": 99},
		"s": "overlay",
		"n": true,
	})

	got := document.Merge(base, overlay).ToMap()
	assert.Equal(t, map[string]any{
		"a": map[string]any{"b": 99, "c": 2},
		"s": "overlay",
		"n": true,
	}, got)
}

func TestMerge_SequencesAreAtomic(t *testing.T) {
	base := document.FromMap(map[string]any{"tags": []any{"a", "b", "c"}})
	overlay := document.FromMap(map[string]any{"tags": []any{"x"}})

	got := document.Merge(base, overlay).ToMap()
	assert.Equal(t, []any{"x"}, got["tags"])
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	base := document.FromMap(map[string]any{"a": map[string]any{"b": 1}})
	overlay := document.FromMap(map[string]any{"a": map[string]any{"b": 2, "c": 3}})
	baseCopy := base.Clone()
	overlayCopy := overlay.Clone()

	_ = document.Merge(base, overlay)
	assert.True(t, document.Equal(baseCopy, base))
	assert.True(t, document.Equal(overlayCopy, overlay))
}

func TestMerge_MapReplacesScalarAndBack(t *testing.T) {
	base := document.FromMap(map[string]any{"a": "scalar", "b": map[string]any{"x": 1}})
	overlay := document.FromMap(map[string]any{"a": map[string]any{"y": 2}, "b": "scalar"})

	got := document.Merge(base, overlay).ToMap()
	assert.Equal(t, map[string]any{"y": 2}, got["a"])
	assert.Equal(t, "scalar", got["b"])
}

func TestMerge_DeepNestingUsesWorkList(t *testing.T) {
	const depth = 10000
	build := func(leaf string) *document.Map {
		root := document.New()
		cur := root
		for i := 0; i < depth; i++ {
			next := document.New()
			cur.Set("n", next)
			cur = next
		}
		cur.Set("v", leaf)
		return root
	}
	got := document.Merge(build("base"), build("overlay"))

	cur := got
	for i := 0; i < depth; i++ {
		next, ok := cur.Map("n")
		require.True(t, ok)
		cur = next
	}
	assert.Equal(t, "overlay", cur.String("v"))
}

func TestMerge_KeepsBaseOrderAppendsNewKeys(t *testing.T) {
	base := document.New()
	base.Set("z", 1)
	base.Set("a", 2)
	overlay := document.New()
	overlay.Set("m", 3)
	overlay.Set("z", 4)

	got := document.Merge(base, overlay)
	assert.Equal(t, []string{"z", "a", "m"}, got.Keys())
}

func TestMergeWith_HookHandlesKeys(t *testing.T) {
	base := document.FromMap(map[string]any{"a": 1, "b": 2})
	overlay := document.New()
	overlay.Set("drop-b", true)
	overlay.Set("a", 5)

	got := document.MergeWith(base, overlay, func(dst *document.Map, key string, _ any) bool {
		if key == "drop-b" {
			dst.Delete("b")
			return true
		}
		return false
	})
	assert.Equal(t, map[string]any{"a": 5}, got.ToMap())
}

func TestMergeScoped_BaseWins(t *testing.T) {
	base := document.FromMap(map[string]any{
		"title": map[string]any{"type": "text", "label": "Local"},
	})
	overlay := document.FromMap(map[string]any{
		"title": map[string]any{"type": "textarea", "label": "Imported", "help": "h"},
		"body":  map[string]any{"type": "markdown"},
	})

	got := document.MergeScoped(base, overlay).ToMap()
	assert.Equal(t, map[string]any{
		"title": map[string]any{"type": "text", "label": "Local", "help": "h"},
		"body":  map[string]any{"type": "markdown"},
	}, got)
}

func TestMap_ReorderAndInsert(t *testing.T) {
	m := document.New()
	m.Set("a", 1)
	m.Set("b", 2)
	m.Set("c", 3)

	m.Reorder([]string{"c", "missing"})
	assert.Equal(t, []string{"c", "a", "b"}, m.Keys())

	m.InsertAt(1, "b", 20)
	assert.Equal(t, []string{"c", "b", "a"}, m.Keys())
	v, _ := m.Get("b")
	assert.Equal(t, 20, v)
}

func TestMap_MarshalJSONKeepsOrder(t *testing.T) {
	m := document.New()
	m.Set("z", 1)
	m.Set("a", []any{"x", document.FromMap(map[string]any{"k": "v"})})

	b, err := m.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":["x",{"k":"v"}]}`, string(b))
}
