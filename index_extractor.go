package mzml

import (
	"io"
	"regexp"
	"strconv"
)

// indexTailScanSize is the number of trailing bytes BuildIndexFromEnd reads
// to locate <indexListOffset>, matching the original crate's
// find_offset_from_reader (src/io/mzml/async.rs).
const indexTailScanSize = 200

var indexListOffsetPattern = regexp.MustCompile(`<indexListOffset>(\d+)</indexListOffset>`)

// FindIndexListOffset reads the final indexTailScanSize bytes of a seekable
// source and extracts the decimal payload of <indexListOffset>…</
// indexListOffset> by pattern match. ok is false if the tail does not
// contain a well-formed indexListOffset element.
func FindIndexListOffset(rs io.ReadSeeker) (uint64, bool, error) {
	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, false, NewIOError(err)
	}
	start := size - indexTailScanSize
	if start < 0 {
		start = 0
	}
	if _, err := rs.Seek(start, io.SeekStart); err != nil {
		return 0, false, NewIOError(err)
	}
	buf := make([]byte, size-start)
	if _, err := io.ReadFull(rs, buf); err != nil && err != io.ErrUnexpectedEOF {
		return 0, false, NewIOError(err)
	}
	m := indexListOffsetPattern.FindSubmatch(buf)
	if m == nil {
		return 0, false, nil
	}
	v, err := strconv.ParseUint(string(m[1]), 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return v, true, nil
}

// IndexExtractor is a pure event sink for a trailing <indexList>, parsing
// <index name="spectrum"|"chromatogram"> blocks of
// <offset idRef="…">N</offset> into the matching OffsetIndex (spec.md
// §4.6).
type IndexExtractor struct {
	SpectrumIndex     *OffsetIndex
	ChromatogramIndex *OffsetIndex

	pendingID string
	logger    Logger
}

// NewIndexExtractor constructs an extractor with fresh spectrum and
// chromatogram indexes.
func NewIndexExtractor(logger Logger) *IndexExtractor {
	if logger == nil {
		logger = noopLogger{}
	}
	return &IndexExtractor{
		SpectrumIndex:     NewOffsetIndex("spectrum"),
		ChromatogramIndex: NewOffsetIndex("chromatogram"),
		logger:            logger,
	}
}

// HandleEvent advances the extractor by one XML event, tracked against the
// index sub-states of ParserState (IndexStart/SpectrumIndexList/
// ChromatogramIndexList/IndexDone).
func (ix *IndexExtractor) HandleEvent(ev Event, state ParserState) (ParserState, error) {
	switch ev.Type {
	case EventStartElement, EventEmptyElement:
		return ix.open(ev, state), nil
	case EventEndElement:
		return ix.close(ev.Name, state), nil
	case EventText:
		return ix.text(ev.Text, state), nil
	case EventEOF:
		return state, nil
	case EventError:
		return ParserError, NewXMLError(ev.Err)
	default:
		return state, nil
	}
}

func (ix *IndexExtractor) open(ev Event, state ParserState) ParserState {
	switch ev.Name {
	case "offset":
		if id, ok := ev.Attr("idRef"); ok {
			ix.pendingID = id
		}
	case "index":
		if name, ok := ev.Attr("name"); ok {
			switch name {
			case "spectrum":
				return SpectrumIndexList
			case "chromatogram":
				return ChromatogramIndexList
			}
		}
	}
	return state
}

func (ix *IndexExtractor) close(name string, state ParserState) ParserState {
	switch name {
	case "indexList":
		return IndexDone
	}
	return state
}

func (ix *IndexExtractor) text(text string, state ParserState) ParserState {
	switch state {
	case SpectrumIndexList:
		ix.assign(ix.SpectrumIndex, text)
	case ChromatogramIndexList:
		ix.assign(ix.ChromatogramIndex, text)
	}
	return state
}

func (ix *IndexExtractor) assign(idx *OffsetIndex, text string) {
	offset, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return
	}
	if ix.pendingID == "" {
		ix.logger.Warnf("out of order text in index: %q", text)
		return
	}
	idx.Insert(ix.pendingID, offset)
	ix.pendingID = ""
}
