package mzml

// IncrementingIdMap is a bijection from arbitrary string ids (e.g.
// instrument-configuration ids) to dense small integers assigned in
// first-seen order. MetadataBuilder, SpectrumBuilder, and MzMLReader's
// random-access paths all share one instance by pointer, so a spectrum's
// reference to an instrument configuration resolves to the same integer the
// metadata section emitted, however it was reached.
type IncrementingIdMap struct {
	toInt map[string]uint32
	next  uint32
}

// NewIncrementingIdMap constructs an empty map.
func NewIncrementingIdMap() *IncrementingIdMap {
	return &IncrementingIdMap{toInt: make(map[string]uint32)}
}

// Resolve returns the dense integer for id, assigning the next available
// integer on first use.
func (m *IncrementingIdMap) Resolve(id string) uint32 {
	if v, ok := m.toInt[id]; ok {
		return v
	}
	v := m.next
	m.toInt[id] = v
	m.next++
	return v
}
