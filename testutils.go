package mzml

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// fixtureSpectrum describes one <spectrum> for buildMzML, loosely mirroring
// the handful of fields the original crate's own test fixtures (and
// spec.md's E1/E2 scenarios) exercise: ms level, scan start time, the
// instrument configuration it was acquired on, and whether its scan filter
// string should read "ITMS" (E2's disambiguator between configuration ids 0
// and 1).
type fixtureSpectrum struct {
	id        string
	msLevel   int
	startTime float64 // minutes
	configRef string
	itms      bool
}

// buildMzML hand-assembles a small, well-formed (unindexed) mzML document
// containing the given spectra, grounded on the teacher's own testutils.go
// (which hand-assembles binary MCAP records rather than going through the
// real Writer). Two instrument configurations are emitted, "IC1" and "IC2",
// so idMap resolves them to dense ids 0 and 1 in that first-seen order.
func buildMzML(spectra []fixtureSpectrum) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>`)
	b.WriteString(`<mzML xmlns="http://psi.hupo.org/ms/mzml">`)
	b.WriteString(`<fileDescription>`)
	b.WriteString(`<fileContent><cvParam accession="MS:1000579" name="MS1 spectrum" value=""/></fileContent>`)
	b.WriteString(`<sourceFileList count="1"><sourceFile id="sf1" name="fixture.raw" location="file:///tmp">`)
	b.WriteString(`<cvParam accession="MS:1000569" name="SHA-1" value="deadbeef"/></sourceFile></sourceFileList>`)
	b.WriteString(`</fileDescription>`)
	b.WriteString(`<referenceableParamGroupList count="1">`)
	b.WriteString(`<referenceableParamGroup id="CommonInstrumentParams">`)
	b.WriteString(`<cvParam accession="MS:1000031" name="instrument model" value=""/>`)
	b.WriteString(`</referenceableParamGroup></referenceableParamGroupList>`)
	b.WriteString(`<softwareList count="1"><software id="Xcalibur" version="2.0">`)
	b.WriteString(`<cvParam accession="MS:1000532" name="Xcalibur" value=""/></software></softwareList>`)
	b.WriteString(`<instrumentConfigurationList count="2">`)
	b.WriteString(`<instrumentConfiguration id="IC1"><referenceableParamGroupRef ref="CommonInstrumentParams"/></instrumentConfiguration>`)
	b.WriteString(`<instrumentConfiguration id="IC2"><referenceableParamGroupRef ref="CommonInstrumentParams"/></instrumentConfiguration>`)
	b.WriteString(`</instrumentConfigurationList>`)
	b.WriteString(`<dataProcessingList count="1"><dataProcessing id="pwiz_Reader_Thermo">`)
	b.WriteString(`<processingMethod order="0" softwareRef="Xcalibur">`)
	b.WriteString(`<cvParam accession="MS:1000544" name="Conversion to mzML" value=""/>`)
	b.WriteString(`</processingMethod></dataProcessing></dataProcessingList>`)
	b.WriteString(`<run id="fixture" defaultInstrumentConfigurationRef="IC1">`)
	fmt.Fprintf(&b, `<spectrumList count="%d" defaultDataProcessingRef="pwiz_Reader_Thermo">`, len(spectra))
	for i, s := range spectra {
		filterValue := "FTMS + p NSI Full ms"
		if s.itms {
			filterValue = "ITMS + c NSI d Full ms2"
		}
		fmt.Fprintf(&b, `<spectrum index="%d" id=%q defaultArrayLength="0">`, i, s.id)
		fmt.Fprintf(&b, `<cvParam accession="MS:1000511" name="ms level" value="%d"/>`, s.msLevel)
		b.WriteString(`<scanList count="1"><cvParam accession="MS:1000795" name="no combination" value=""/>`)
		fmt.Fprintf(&b, `<scan instrumentConfigurationRef=%q>`, s.configRef)
		fmt.Fprintf(&b, `<cvParam accession="MS:1000016" name="scan start time" value="%g" unitName="minute"/>`, s.startTime)
		fmt.Fprintf(&b, `<cvParam accession="MS:1000512" name="filter string" value=%q/>`, filterValue)
		b.WriteString(`</scan></scanList>`)
		b.WriteString(`<binaryDataArrayList count="0"></binaryDataArrayList>`)
		b.WriteString(`</spectrum>`)
	}
	b.WriteString(`</spectrumList></run></mzML>`)
	return b.String()
}

// buildIndexedMzML wraps buildMzML's output in <indexedmzML>, appending a
// trailing <indexList> whose spectrum offsets are the true byte offsets of
// each <spectrum ...> start tag within the final document, plus an
// <indexListOffset> pointing at <indexList> itself — the two structures
// BuildIndexFromEnd and the index bootstrap in index_extractor.go consume.
func buildIndexedMzML(spectra []fixtureSpectrum) string {
	inner := buildMzML(spectra)
	prefix := `<indexedmzML xmlns="http://psi.hupo.org/ms/mzml">`
	doc := prefix + inner

	offsets := make([]int, len(spectra))
	for i, s := range spectra {
		marker := fmt.Sprintf(`<spectrum index="%d" id=%q`, i, s.id)
		idx := strings.Index(doc, marker)
		if idx < 0 {
			panic("fixture: spectrum marker not found: " + marker)
		}
		offsets[i] = idx
	}

	var il strings.Builder
	il.WriteString(`<indexList count="1"><index name="spectrum">`)
	for i, s := range spectra {
		fmt.Fprintf(&il, `<offset idRef=%q>%d</offset>`, s.id, offsets[i])
	}
	il.WriteString(`</index></indexList>`)

	indexListOffset := len(doc)
	var full strings.Builder
	full.WriteString(doc)
	full.WriteString(il.String())
	fmt.Fprintf(&full, `<indexListOffset>%d</indexListOffset>`, indexListOffset)
	full.WriteString(`<fileChecksum>0000000000000000000000000000000000000000</fileChecksum>`)
	full.WriteString(`</indexedmzML>`)
	return full.String()
}

// gzipBytes compresses data with klauspost/compress/gzip, the codec
// SeekableGzipAdapter wraps, for tests that need a gzipped fixture (E6).
func gzipBytes(data []byte) []byte {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		panic(err)
	}
	if err := w.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
