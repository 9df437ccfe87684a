package mzml

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func driveMetadataBuilder(t *testing.T, doc string, idMap *IncrementingIdMap) (*MetadataBuilder, ParserState) {
	t.Helper()
	pump := NewXmlEventPump(strings.NewReader(doc), Blocking, 0)
	builder := NewMetadataBuilder(idMap)
	state := Start
	for {
		ev := pump.Next()
		require.NotEqual(t, EventError, ev.Type, "unexpected xml error: %v", ev.Err)
		if ev.Type == EventEOF {
			break
		}
		var err error
		state, err = builder.HandleEvent(ev, state)
		require.NoError(t, err)
		if state.metadataComplete() {
			break
		}
	}
	return builder, state
}

func TestMetadataBuilderParsesFileDescriptionAndSourceFiles(t *testing.T) {
	idMap := NewIncrementingIdMap()
	doc := buildMzML([]fixtureSpectrum{{id: "scan=1", msLevel: 1, startTime: 0.1, configRef: "IC1"}})
	builder, state := driveMetadataBuilder(t, doc, idMap)
	assert.True(t, state.metadataComplete())

	meta := builder.Finish()
	require.Len(t, meta.FileDescription.SourceFiles, 1)
	assert.Equal(t, "sf1", meta.FileDescription.SourceFiles[0].ID)
	assert.Equal(t, "fixture.raw", meta.FileDescription.SourceFiles[0].Name)
	require.NotEmpty(t, meta.FileDescription.Contents)
	assert.Equal(t, "MS:1000579", meta.FileDescription.Contents[0].Accession)
}

func TestMetadataBuilderInstrumentConfigurationsShareIdMap(t *testing.T) {
	idMap := NewIncrementingIdMap()
	doc := buildMzML([]fixtureSpectrum{{id: "scan=1", msLevel: 1, startTime: 0.1, configRef: "IC1"}})
	builder, _ := driveMetadataBuilder(t, doc, idMap)
	meta := builder.Finish()

	require.Len(t, meta.InstrumentConfigurations, 2)
	ic1, ok := meta.InstrumentConfigurations[0]
	require.True(t, ok)
	assert.Equal(t, "IC1", ic1.NativeID)
	ic2, ok := meta.InstrumentConfigurations[1]
	require.True(t, ok)
	assert.Equal(t, "IC2", ic2.NativeID)

	// idMap itself must now resolve "IC1"/"IC2" to the same dense ids a
	// SpectrumBuilder sharing it would see.
	assert.EqualValues(t, 0, idMap.Resolve("IC1"))
	assert.EqualValues(t, 1, idMap.Resolve("IC2"))
}

func TestMetadataBuilderSoftwareAndDataProcessing(t *testing.T) {
	idMap := NewIncrementingIdMap()
	doc := buildMzML([]fixtureSpectrum{{id: "scan=1", msLevel: 1, startTime: 0.1, configRef: "IC1"}})
	builder, _ := driveMetadataBuilder(t, doc, idMap)
	meta := builder.Finish()

	require.Len(t, meta.Software, 1)
	assert.Equal(t, "Xcalibur", meta.Software[0].ID)

	require.Len(t, meta.DataProcessing, 1)
	assert.Equal(t, "pwiz_Reader_Thermo", meta.DataProcessing[0].ID)
	require.NotEmpty(t, meta.DataProcessing[0].Params)
}

func TestMetadataBuilderReferenceParamGroups(t *testing.T) {
	idMap := NewIncrementingIdMap()
	doc := buildMzML([]fixtureSpectrum{{id: "scan=1", msLevel: 1, startTime: 0.1, configRef: "IC1"}})
	builder, _ := driveMetadataBuilder(t, doc, idMap)
	meta := builder.Finish()

	group, ok := meta.ReferenceParamGroups["CommonInstrumentParams"]
	require.True(t, ok)
	require.NotEmpty(t, group.Params)
	assert.Equal(t, "MS:1000031", group.Params[0].Accession)
}

func TestMetadataBuilderStopsAtRun(t *testing.T) {
	idMap := NewIncrementingIdMap()
	doc := buildMzML([]fixtureSpectrum{
		{id: "scan=1", msLevel: 1, startTime: 0.1, configRef: "IC1"},
		{id: "scan=2", msLevel: 2, startTime: 0.2, configRef: "IC2"},
	})
	_, state := driveMetadataBuilder(t, doc, idMap)
	assert.Equal(t, Run, state, "metadata parsing stops as soon as <run> opens, the first of the three metadataComplete triggers (spec.md §4.4); the reader's ReadInto is responsible for skipping forward over <spectrumList> to the first <spectrum>")
}
