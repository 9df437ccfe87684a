package mzml

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSourcePath(t *testing.T) {
	fs := NewFileSourcePath("/data/runs/sample1.mzML")
	assert.True(t, fs.IsPath())

	path, ok := fs.Path()
	require.True(t, ok)
	assert.Equal(t, "/data/runs/sample1.mzML", path)

	_, ok = fs.Stream()
	assert.False(t, ok)

	sidecar, ok := fs.IndexFileName()
	require.True(t, ok)
	assert.Equal(t, "/data/runs/sample1.index.json", sidecar)
}

func TestFileSourceStream(t *testing.T) {
	r := strings.NewReader("<mzML/>")
	fs := NewFileSourceStream(r)
	assert.False(t, fs.IsPath())

	_, ok := fs.Path()
	assert.False(t, ok)

	stream, ok := fs.Stream()
	require.True(t, ok)
	assert.Same(t, r, stream)

	_, ok = fs.IndexFileName()
	assert.False(t, ok, "a stream source has no on-disk anchor for a sidecar path")
}

func TestFileSourceIndexFileNameStripsOnlyOneExtension(t *testing.T) {
	fs := NewFileSourcePath("/data/sample.mzML.gz")
	sidecar, ok := fs.IndexFileName()
	require.True(t, ok)
	assert.Equal(t, "/data/sample.mzML.index.json", sidecar)
}
