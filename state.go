package mzml

// ParserState is a tagged enumeration tracking where in the mzML grammar the
// reader currently is. Transitions form a DAG; once ParserError is reached,
// MzMLReader.ReadInto makes no further progress until MzMLReader.Reset.
type ParserState int

const (
	// Start is the initial state, before any element has been read.
	Start ParserState = iota
	// FileDescription is inside <fileDescription>.
	FileDescription
	// ReferenceParamGroupList is inside <referenceableParamGroupList>.
	ReferenceParamGroupList
	// SoftwareList is inside <softwareList>.
	SoftwareList
	// InstrumentConfigurationList is inside <instrumentConfigurationList>.
	InstrumentConfigurationList
	// DataProcessingList is inside <dataProcessingList>.
	DataProcessingList
	// Run is inside <run>, past the metadata prefix.
	Run
	// SpectrumList is inside <spectrumList>.
	SpectrumList
	// Spectrum is inside a <spectrum> element, mid-parse.
	Spectrum
	// SpectrumDone marks a cleanly parsed spectrum; a pause point.
	SpectrumDone
	// Resume is entered by MzMLReader.ReadInto when it starts reading after
	// a SpectrumDone, to tolerate one class of benign resumption artifact
	// (see MzMLReader.ReadInto).
	Resume
	// ParserError is sticky: ReadInto makes no further progress until Reset.
	ParserError

	// IndexStart is before <indexList> has been entered.
	IndexStart
	// SpectrumIndexList is inside <index name="spectrum">.
	SpectrumIndexList
	// ChromatogramIndexList is inside <index name="chromatogram">.
	ChromatogramIndexList
	// IndexDone marks the end of </indexList>.
	IndexDone
)

func (s ParserState) String() string {
	switch s {
	case Start:
		return "start"
	case FileDescription:
		return "file-description"
	case ReferenceParamGroupList:
		return "reference-param-group-list"
	case SoftwareList:
		return "software-list"
	case InstrumentConfigurationList:
		return "instrument-configuration-list"
	case DataProcessingList:
		return "data-processing-list"
	case Run:
		return "run"
	case SpectrumList:
		return "spectrum-list"
	case Spectrum:
		return "spectrum"
	case SpectrumDone:
		return "spectrum-done"
	case Resume:
		return "resume"
	case ParserError:
		return "parser-error"
	case IndexStart:
		return "index-start"
	case SpectrumIndexList:
		return "spectrum-index-list"
	case ChromatogramIndexList:
		return "chromatogram-index-list"
	case IndexDone:
		return "index-done"
	default:
		return "unknown"
	}
}

// metadataComplete reports whether s marks the end of the metadata prefix,
// i.e. the point at which MetadataBuilder hands control back to the reader.
func (s ParserState) metadataComplete() bool {
	switch s {
	case Run, SpectrumList, Spectrum:
		return true
	default:
		return false
	}
}
