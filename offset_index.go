package mzml

// OffsetIndex is an ordered mapping from native spectrum id to an absolute
// byte offset into the underlying byte source. Insertion order is
// preserved so lookup-by-ordinal is O(1); when populated from an mzML
// <indexList>, that order matches the order spectra appear in the file.
//
// An uninitialized OffsetIndex is still usable as an empty index; callers
// are only warned, never blocked (spec.md §3).
type OffsetIndex struct {
	name        string
	ids         []string
	offsets     []uint64
	byID        map[string]int
	initialized bool
}

// NewOffsetIndex constructs an empty OffsetIndex. name is carried for
// diagnostics only (mirrors the original's "spectrum"/"chromatogram" tag).
func NewOffsetIndex(name string) *OffsetIndex {
	return &OffsetIndex{
		name: name,
		byID: make(map[string]int),
	}
}

// Name returns the index's diagnostic label ("spectrum" or "chromatogram").
func (idx *OffsetIndex) Name() string {
	return idx.name
}

// Insert appends (id, offset). If id is already present its offset is
// replaced but its ordinal position is kept.
func (idx *OffsetIndex) Insert(id string, offset uint64) {
	if pos, ok := idx.byID[id]; ok {
		idx.offsets[pos] = offset
		return
	}
	idx.byID[id] = len(idx.ids)
	idx.ids = append(idx.ids, id)
	idx.offsets = append(idx.offsets, offset)
}

// GetById returns the offset for id, if present.
func (idx *OffsetIndex) GetById(id string) (uint64, bool) {
	pos, ok := idx.byID[id]
	if !ok {
		return 0, false
	}
	return idx.offsets[pos], true
}

// GetByOrdinal returns the (id, offset) pair inserted at position i, if i is
// in range.
func (idx *OffsetIndex) GetByOrdinal(i int) (string, uint64, bool) {
	if i < 0 || i >= len(idx.ids) {
		return "", 0, false
	}
	return idx.ids[i], idx.offsets[i], true
}

// Len returns the number of entries.
func (idx *OffsetIndex) Len() int {
	return len(idx.ids)
}

// IsInitialized reports whether the index has been explicitly marked
// populated (by BuildIndexFromEnd, or by SetInitialized). SetIndex installs
// an index as given and does not mark it.
func (idx *OffsetIndex) IsInitialized() bool {
	return idx.initialized
}

// SetInitialized marks the index as populated.
func (idx *OffsetIndex) SetInitialized(v bool) {
	idx.initialized = v
}
