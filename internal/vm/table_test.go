package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestString(chars string) *ObjString {
	return &ObjString{Chars: chars, Hash: fnv1a(chars)}
}

func TestTable_SetGetDelete(t *testing.T) {
	table := NewTable()
	key := newTestString("answer")

	_, ok := table.Get(key)
	assert.False(t, ok)

	isNew := table.Set(key, NumberVal(42))
	assert.True(t, isNew)

	v, ok := table.Get(key)
	require.True(t, ok)
	assert.Equal(t, float64(42), v.Number)

	isNew = table.Set(key, NumberVal(43))
	assert.False(t, isNew, "overwriting an existing key is not a new insert")

	assert.True(t, table.Delete(key))
	_, ok = table.Get(key)
	assert.False(t, ok)
}

func TestTable_TombstonePreservesProbeChain(t *testing.T) {
	table := NewTable()
	a := newTestString("a")
	b := newTestString("b")
	a.Hash = 1
	b.Hash = 1 // force a collision regardless of table capacity

	table.Set(a, NumberVal(1))
	table.Set(b, NumberVal(2))

	table.Delete(a)

	v, ok := table.Get(b)
	require.True(t, ok, "deleting a colliding key must not break the probe chain to b")
	assert.Equal(t, float64(2), v.Number)
}

func TestTable_GrowRehashesAllLiveEntries(t *testing.T) {
	table := NewTable()
	keys := make([]*ObjString, 0, 64)
	for i := 0; i < 64; i++ {
		k := newTestString(string(rune('a' + i%26)) + string(rune(i)))
		keys = append(keys, k)
		table.Set(k, NumberVal(float64(i)))
	}

	for i, k := range keys {
		v, ok := table.Get(k)
		require.True(t, ok)
		assert.Equal(t, float64(i), v.Number)
	}
}

func TestTable_FindString(t *testing.T) {
	table := NewTable()
	s := newTestString("hello")
	table.Set(s, Nil())

	found := table.FindString("hello", s.Hash)
	assert.Same(t, s, found)

	assert.Nil(t, table.FindString("goodbye", fnv1a("goodbye")))
}

func TestTable_RemoveWhite(t *testing.T) {
	table := NewTable()
	marked := newTestString("kept")
	marked.marked = true
	unmarked := newTestString("dropped")

	table.Set(marked, Nil())
	table.Set(unmarked, Nil())

	table.RemoveWhite()

	_, ok := table.Get(marked)
	assert.True(t, ok)
	_, ok = table.Get(unmarked)
	assert.False(t, ok)
}
