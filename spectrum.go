package mzml

import "strconv"

// CV accessions the core itself interprets; everything else passes through
// opaquely in Spectrum.Params (spec.md §6: "The core only reads start_time,
// index, ms_level, and configuration ids").
const (
	accessionMSLevel       = "MS:1000511" // ms level
	accessionScanStartTime = "MS:1000016" // scan start time
)

// Spectrum is opaque to the core except for the five fields spec.md §6
// names: Index, ID, MSLevel, ScanStartTime, InstrumentConfigurationIDs.
// Params carries the cvParams/userParams found directly under <spectrum>
// and directly under the first <scan> of its <scanList>, unevaluated, so
// downstream code can read acquisition details (e.g. the scan filter
// string) the core itself has no business interpreting — see SPEC_FULL.md
// §4 ("Spectrum-level pass-through parameters").
type Spectrum struct {
	Index                      int
	ID                         string
	MSLevel                    uint32
	ScanStartTime              float64
	InstrumentConfigurationIDs []uint32
	Params                     []CVParam
}

// SpectrumBuilder is a pure event sink for exactly one <spectrum> element,
// including its nested <scanList>, <precursorList> and
// <binaryDataArrayList>. It shares an IncrementingIdMap with the reader so
// instrument-configuration references resolve to the same dense ids the
// metadata section emitted.
type SpectrumBuilder struct {
	idMap *IncrementingIdMap

	spectrum Spectrum
	stack    []string

	scanCount   int
	inFirstScan bool

	sawScanStartTime bool
}

// NewSpectrumBuilder constructs a builder for one spectrum, sharing idMap
// with the reader.
func NewSpectrumBuilder(idMap *IncrementingIdMap) *SpectrumBuilder {
	return &SpectrumBuilder{idMap: idMap}
}

// HandleEvent advances the builder by one XML event. Terminal states are
// SpectrumDone on success and ParserError on malformed content (spec.md
// §4.5).
func (b *SpectrumBuilder) HandleEvent(ev Event, state ParserState) (ParserState, error) {
	switch ev.Type {
	case EventStartElement:
		return b.open(ev, state, false), nil
	case EventEmptyElement:
		state = b.open(ev, state, true)
		return b.close(ev.Name, state), nil
	case EventEndElement:
		return b.close(ev.Name, state), nil
	case EventText:
		return state, nil
	case EventEOF:
		return state, nil
	case EventError:
		return ParserError, NewXMLError(ev.Err)
	default:
		return state, nil
	}
}

func (b *SpectrumBuilder) open(ev Event, state ParserState, empty bool) ParserState {
	switch ev.Name {
	case "spectrum":
		if idx, ok := ev.Attr("index"); ok {
			if n, err := strconv.Atoi(idx); err == nil {
				b.spectrum.Index = n
			}
		}
		if id, ok := ev.Attr("id"); ok {
			b.spectrum.ID = id
		}
		state = Spectrum
	case "scan":
		if ref, ok := ev.Attr("instrumentConfigurationRef"); ok {
			b.spectrum.InstrumentConfigurationIDs = append(b.spectrum.InstrumentConfigurationIDs, b.idMap.Resolve(ref))
		}
		b.scanCount++
		if b.scanCount == 1 {
			b.inFirstScan = true
		}
	case "cvParam":
		b.handleParam(cvParamFromEvent(ev))
	case "userParam":
		b.handleParam(userParamFromEvent(ev))
	}
	if !empty {
		b.stack = append(b.stack, ev.Name)
	}
	return state
}

func (b *SpectrumBuilder) close(name string, state ParserState) ParserState {
	switch name {
	case "scan":
		b.inFirstScan = false
	}
	if n := len(b.stack); n > 0 && b.stack[n-1] == name {
		b.stack = b.stack[:n-1]
	}
	if name == "spectrum" {
		return SpectrumDone
	}
	return state
}

// handleParam decides whether a cvParam/userParam is a direct child of
// <spectrum> or of the first <scan> in <scanList> (the two positions
// spec.md and SPEC_FULL.md say are preserved verbatim in Spectrum.Params),
// and separately extracts the ms level and scan start time the core needs
// internally regardless of position.
func (b *SpectrumBuilder) handleParam(p CVParam) {
	top := ""
	if n := len(b.stack); n > 0 {
		top = b.stack[n-1]
	}
	directSpectrumChild := len(b.stack) == 1 && top == "spectrum"
	firstScanChild := b.inFirstScan && top == "scan"
	if directSpectrumChild || firstScanChild {
		b.spectrum.Params = append(b.spectrum.Params, p)
	}
	switch p.Accession {
	case accessionMSLevel:
		if n, err := strconv.ParseUint(p.Value, 10, 32); err == nil {
			b.spectrum.MSLevel = uint32(n)
		}
	case accessionScanStartTime:
		if !b.sawScanStartTime {
			if v, err := strconv.ParseFloat(p.Value, 64); err == nil {
				if isSecondsUnit(p.UnitName) {
					v /= 60
				}
				b.spectrum.ScanStartTime = v
				b.sawScanStartTime = true
			}
		}
	}
}

func isSecondsUnit(unitName string) bool {
	switch unitName {
	case "second", "seconds", "sec":
		return true
	default:
		return false
	}
}

// Finish returns the built spectrum. Only meaningful once HandleEvent has
// driven the builder to SpectrumDone.
func (b *SpectrumBuilder) Finish() Spectrum {
	return b.spectrum
}
