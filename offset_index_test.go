package mzml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOffsetIndexInsertAndLookup(t *testing.T) {
	idx := NewOffsetIndex("spectrum")
	assert.False(t, idx.IsInitialized())
	assert.Equal(t, 0, idx.Len())

	idx.Insert("scan=1", 100)
	idx.Insert("scan=2", 200)
	idx.Insert("scan=3", 300)

	require.Equal(t, 3, idx.Len())

	off, ok := idx.GetById("scan=2")
	require.True(t, ok)
	assert.EqualValues(t, 200, off)

	id, off, ok := idx.GetByOrdinal(0)
	require.True(t, ok)
	assert.Equal(t, "scan=1", id)
	assert.EqualValues(t, 100, off)

	_, ok = idx.GetById("scan=missing")
	assert.False(t, ok)

	_, _, ok = idx.GetByOrdinal(99)
	assert.False(t, ok)
	_, _, ok = idx.GetByOrdinal(-1)
	assert.False(t, ok)
}

func TestOffsetIndexReinsertKeepsOrdinalPosition(t *testing.T) {
	idx := NewOffsetIndex("spectrum")
	idx.Insert("a", 1)
	idx.Insert("b", 2)
	idx.Insert("a", 99)

	require.Equal(t, 2, idx.Len())
	id, off, ok := idx.GetByOrdinal(0)
	require.True(t, ok)
	assert.Equal(t, "a", id)
	assert.EqualValues(t, 99, off)

	off, ok = idx.GetById("a")
	require.True(t, ok)
	assert.EqualValues(t, 99, off)
}

func TestOffsetIndexInitializedFlag(t *testing.T) {
	idx := NewOffsetIndex("spectrum")
	assert.False(t, idx.IsInitialized())
	idx.SetInitialized(true)
	assert.True(t, idx.IsInitialized())
}
