package mzml

import (
	"io"
	"path/filepath"
	"strings"
)

// FileSource describes whether an mzML input is a filesystem path or an
// in-memory/streamed byte source, and derives the sidecar index path for
// filesystem sources. Grounded on the original crate's FileSource/
// FileWrapper (src/io/utils.rs); serialization of the sidecar itself is an
// external concern (spec.md §6), this type only supplies the path.
type FileSource struct {
	path   string
	isPath bool
	stream io.Reader
}

// NewFileSourcePath describes a filesystem path input.
func NewFileSourcePath(path string) FileSource {
	return FileSource{path: path, isPath: true}
}

// NewFileSourceStream describes an in-memory or network stream input; it
// has no associated path and therefore no sidecar index file.
func NewFileSourceStream(r io.Reader) FileSource {
	return FileSource{stream: r}
}

// IsPath reports whether the source describes a filesystem path.
func (fs FileSource) IsPath() bool {
	return fs.isPath
}

// Path returns the filesystem path and true, or "" and false for a stream
// source.
func (fs FileSource) Path() (string, bool) {
	if !fs.isPath {
		return "", false
	}
	return fs.path, true
}

// Stream returns the in-memory reader and true, or nil and false for a path
// source.
func (fs FileSource) Stream() (io.Reader, bool) {
	if fs.isPath {
		return nil, false
	}
	return fs.stream, true
}

// IndexFileName derives the sidecar index path: parent directory joined
// with the base file name plus extension ".index.json". Returns "", false
// for stream sources, which have no on-disk location to anchor a sidecar.
func (fs FileSource) IndexFileName() (string, bool) {
	if !fs.isPath {
		return "", false
	}
	dir := filepath.Dir(fs.path)
	base := filepath.Base(fs.path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, base+".index.json"), true
}
