package mzml

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// driveSpectrumBuilder assumes doc is positioned so the first event is the
// <spectrum> start tag itself (as ReadInto's persistent pump would see it).
func driveSpectrumBuilder(t *testing.T, doc string, idMap *IncrementingIdMap) Spectrum {
	t.Helper()
	pump := NewXmlEventPump(strings.NewReader(doc), Blocking, 0)
	builder := NewSpectrumBuilder(idMap)
	state := Start
	for {
		ev := pump.Next()
		require.NotEqual(t, EventError, ev.Type, "unexpected xml error: %v", ev.Err)
		require.NotEqual(t, EventEOF, ev.Type, "document ended before SpectrumDone")
		var err error
		state, err = builder.HandleEvent(ev, state)
		require.NoError(t, err)
		if state == SpectrumDone {
			break
		}
	}
	return builder.Finish()
}

func oneSpectrumDoc(s fixtureSpectrum) string {
	doc := buildMzML([]fixtureSpectrum{s})
	idx := strings.Index(doc, `<spectrum `)
	if idx < 0 {
		panic("fixture: no <spectrum> tag found")
	}
	return doc[idx:]
}

func TestSpectrumBuilderBasicFields(t *testing.T) {
	idMap := NewIncrementingIdMap()
	doc := oneSpectrumDoc(fixtureSpectrum{id: "controllerType=0 controllerNumber=1 scan=1", msLevel: 2, startTime: 1.5, configRef: "IC2"})
	spec := driveSpectrumBuilder(t, doc, idMap)

	assert.Equal(t, 0, spec.Index)
	assert.Equal(t, "controllerType=0 controllerNumber=1 scan=1", spec.ID)
	assert.EqualValues(t, 2, spec.MSLevel)
	assert.InDelta(t, 1.5, spec.ScanStartTime, 1e-9)
	require.Len(t, spec.InstrumentConfigurationIDs, 1)
	assert.EqualValues(t, 0, spec.InstrumentConfigurationIDs[0], "IC2 first seen here resolves to dense id 0")
}

func TestSpectrumBuilderSharesIdMapAcrossConfigurations(t *testing.T) {
	idMap := NewIncrementingIdMap()
	idMap.Resolve("IC1") // simulate metadata section having already assigned 0

	doc := oneSpectrumDoc(fixtureSpectrum{id: "scan=5", msLevel: 1, startTime: 0.5, configRef: "IC2"})
	spec := driveSpectrumBuilder(t, doc, idMap)

	require.Len(t, spec.InstrumentConfigurationIDs, 1)
	assert.EqualValues(t, 1, spec.InstrumentConfigurationIDs[0], "IC2 resolves to dense id 1 since IC1 already claimed 0")
}

// TestSpectrumBuilderITMSParamPassthrough is the analogue of spec.md's E2
// scenario: a filter-string param containing "ITMS" on the first scan is
// passed through verbatim in Spectrum.Params for downstream classification.
func TestSpectrumBuilderITMSParamPassthrough(t *testing.T) {
	idMap := NewIncrementingIdMap()
	doc := oneSpectrumDoc(fixtureSpectrum{id: "scan=1", msLevel: 2, startTime: 0.1, configRef: "IC1", itms: true})
	spec := driveSpectrumBuilder(t, doc, idMap)

	var filterParam *CVParam
	for i := range spec.Params {
		if spec.Params[i].Accession == "MS:1000512" {
			filterParam = &spec.Params[i]
		}
	}
	require.NotNil(t, filterParam, "filter string cvParam on the first scan must appear in Spectrum.Params")
	assert.Contains(t, filterParam.Value, "ITMS")
}

func TestSpectrumBuilderNonITMSFilterString(t *testing.T) {
	idMap := NewIncrementingIdMap()
	doc := oneSpectrumDoc(fixtureSpectrum{id: "scan=2", msLevel: 1, startTime: 0.2, configRef: "IC2", itms: false})
	spec := driveSpectrumBuilder(t, doc, idMap)

	var filterParam *CVParam
	for i := range spec.Params {
		if spec.Params[i].Accession == "MS:1000512" {
			filterParam = &spec.Params[i]
		}
	}
	require.NotNil(t, filterParam)
	assert.NotContains(t, filterParam.Value, "ITMS")
}
