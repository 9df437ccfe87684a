package mzml

// CVParam is a single controlled-vocabulary parameter (cvParam) or, with an
// empty Accession, a free-form parameter (userParam). The core does not
// interpret these beyond the few accessions it needs internally (ms level,
// scan start time); everything else is passed through opaquely for
// downstream consumers, per spec.md §6 ("acquisition/precursor/peak
// details consumed by downstream code").
type CVParam struct {
	Accession     string
	Name          string
	Value         string
	UnitAccession string
	UnitName      string
}

// SourceFile describes one <sourceFile> entry of <fileDescription>.
type SourceFile struct {
	ID       string
	Name     string
	Location string
	Params   []CVParam
}

// FileDescription bundles <fileDescription>'s <fileContent> cvParams and
// its <sourceFileList>.
type FileDescription struct {
	Contents    []CVParam
	SourceFiles []SourceFile
}

// Software is one <software> entry of <softwareList>.
type Software struct {
	ID      string
	Version string
	Params  []CVParam
}

// InstrumentConfiguration is one <instrumentConfiguration> entry. ID is the
// dense integer assigned by the shared IncrementingIdMap; NativeID is the
// original mzML id string it was assigned from.
type InstrumentConfiguration struct {
	ID       uint32
	NativeID string
	Params   []CVParam
}

// DataProcessing is one <dataProcessing> entry; its <processingMethod>
// children's cvParams are flattened into Params, since the core does not
// need per-method ordering.
type DataProcessing struct {
	ID     string
	Params []CVParam
}

// ReferenceParamGroup is a named, reusable list of parameters referenced by
// id from other elements.
type ReferenceParamGroup struct {
	ID     string
	Params []CVParam
}

// FileMetadata is the read-only bundle MetadataBuilder produces once the
// metadata prefix of the document is fully consumed.
type FileMetadata struct {
	FileDescription          FileDescription
	InstrumentConfigurations map[uint32]InstrumentConfiguration
	Software                 []Software
	DataProcessing           []DataProcessing
	ReferenceParamGroups     map[string]ReferenceParamGroup
}

// MetadataBuilder is a pure event sink that accumulates file-level metadata
// until the spectrum list begins. It dispatches on the current ParserState
// plus the element name to scratch accumulators for whichever metadata
// subsection is currently open, mirroring the original crate's
// FileMetadataBuilder::start_element/end_element/text dispatch.
type MetadataBuilder struct {
	fileDescription          FileDescription
	instrumentConfigurations []InstrumentConfiguration
	software                 []Software
	dataProcessing           []DataProcessing
	refGroups                map[string]ReferenceParamGroup

	idMap *IncrementingIdMap

	curSourceFile       *SourceFile
	curSoftware         *Software
	curInstrumentConfig *InstrumentConfiguration
	curDataProcessing   *DataProcessing
	curRefGroupID       string
	curRefGroupParams   []CVParam
	inFileContent       bool

	// activeParamSink points at whichever accumulator's Params slice should
	// receive the next cvParam/userParam; nil if none is open.
	activeParamSink *[]CVParam
}

// NewMetadataBuilder constructs a builder sharing idMap with the reader, so
// instrument-configuration ids resolve consistently across builder
// boundaries (spec.md §9 "Cyclic references").
func NewMetadataBuilder(idMap *IncrementingIdMap) *MetadataBuilder {
	return &MetadataBuilder{
		refGroups: make(map[string]ReferenceParamGroup),
		idMap:     idMap,
	}
}

// HandleEvent advances state by one XML event. It returns a non-nil error
// only for a tokenizer error event, and then always together with
// ParserError, as spec.md §4.4 describes ("Any sub-handler may set state to ParserError").
func (b *MetadataBuilder) HandleEvent(ev Event, state ParserState) (ParserState, error) {
	switch ev.Type {
	case EventStartElement:
		return b.open(ev, state), nil
	case EventEmptyElement:
		next := b.open(ev, state)
		return b.close(ev.Name, next), nil
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

func (b *MetadataBuilder) open(ev Event, state ParserState) ParserState {
	switch ev.Name {
	case "fileDescription":
		return FileDescription
	case "fileContent":
		b.inFileContent = true
		b.activeParamSink = &b.fileDescription.Contents
	case "sourceFile":
		id, _ := ev.Attr("id")
		name, _ := ev.Attr("name")
		location, _ := ev.Attr("location")
		b.curSourceFile = &SourceFile{ID: id, Name: name, Location: location}
		b.activeParamSink = &b.curSourceFile.Params
	case "referenceableParamGroupList":
		return ReferenceParamGroupList
	case "referenceableParamGroup":
		id, _ := ev.Attr("id")
		b.curRefGroupID = id
		b.curRefGroupParams = nil
		b.activeParamSink = &b.curRefGroupParams
	case "softwareList":
		return SoftwareList
	case "software":
		id, _ := ev.Attr("id")
		version, _ := ev.Attr("version")
		b.curSoftware = &Software{ID: id, Version: version}
		b.activeParamSink = &b.curSoftware.Params
	case "instrumentConfigurationList":
		return InstrumentConfigurationList
	case "instrumentConfiguration":
		id, _ := ev.Attr("id")
		b.curInstrumentConfig = &InstrumentConfiguration{ID: b.idMap.Resolve(id), NativeID: id}
		b.activeParamSink = &b.curInstrumentConfig.Params
	case "dataProcessingList":
		return DataProcessingList
	case "dataProcessing":
		id, _ := ev.Attr("id")
		b.curDataProcessing = &DataProcessing{ID: id}
		b.activeParamSink = &b.curDataProcessing.Params
	case "cvParam":
		b.appendParam(cvParamFromEvent(ev))
	case "userParam":
		b.appendParam(userParamFromEvent(ev))
	case "run":
		return Run
	case "spectrumList":
		return SpectrumList
	case "spectrum":
		return Spectrum
	}
	return state
}

func (b *MetadataBuilder) close(name string, state ParserState) ParserState {
	switch name {
	case "fileContent":
		b.inFileContent = false
		b.activeParamSink = nil
	case "sourceFile":
		if b.curSourceFile != nil {
			b.fileDescription.SourceFiles = append(b.fileDescription.SourceFiles, *b.curSourceFile)
			b.curSourceFile = nil
		}
		b.activeParamSink = nil
	case "referenceableParamGroup":
		b.refGroups[b.curRefGroupID] = ReferenceParamGroup{ID: b.curRefGroupID, Params: b.curRefGroupParams}
		b.curRefGroupID = ""
		b.curRefGroupParams = nil
		b.activeParamSink = nil
	case "software":
		if b.curSoftware != nil {
			b.software = append(b.software, *b.curSoftware)
			b.curSoftware = nil
		}
		b.activeParamSink = nil
	case "instrumentConfiguration":
		if b.curInstrumentConfig != nil {
			b.instrumentConfigurations = append(b.instrumentConfigurations, *b.curInstrumentConfig)
			b.curInstrumentConfig = nil
		}
		b.activeParamSink = nil
	case "dataProcessing":
		if b.curDataProcessing != nil {
			b.dataProcessing = append(b.dataProcessing, *b.curDataProcessing)
			b.curDataProcessing = nil
		}
		b.activeParamSink = nil
	}
	return state
}

func (b *MetadataBuilder) appendParam(p CVParam) {
	if b.activeParamSink == nil {
		return
	}
	*b.activeParamSink = append(*b.activeParamSink, p)
}

func cvParamFromEvent(ev Event) CVParam {
	accession, _ := ev.Attr("accession")
	name, _ := ev.Attr("name")
	value, _ := ev.Attr("value")
	unitAccession, _ := ev.Attr("unitAccession")
	unitName, _ := ev.Attr("unitName")
	return CVParam{
		Accession:     accession,
		Name:          name,
		Value:         value,
		UnitAccession: unitAccession,
		UnitName:      unitName,
	}
}

func userParamFromEvent(ev Event) CVParam {
	name, _ := ev.Attr("name")
	value, _ := ev.Attr("value")
	return CVParam{Name: name, Value: value}
}

// Finish yields the accumulated FileMetadata, intended to be called once
// "metadata complete" is reached (spec.md §4.4 contract).
func (b *MetadataBuilder) Finish() FileMetadata {
	configs := make(map[uint32]InstrumentConfiguration, len(b.instrumentConfigurations))
	for _, ic := range b.instrumentConfigurations {
		configs[ic.ID] = ic
	}
	return FileMetadata{
		FileDescription:          b.fileDescription,
		InstrumentConfigurations: configs,
		Software:                 b.software,
		DataProcessing:           b.dataProcessing,
		ReferenceParamGroups:     b.refGroups,
	}
}
