package mzml

import (
	"encoding/xml"
	"errors"
	"io"
	"math"
	"os"
	"strings"

	"go.uber.org/multierr"
)

// MzMLReader is a streaming, randomly-addressable reader over an mzML
// document. It owns the underlying byte source, the persistent event pump
// driving sequential reads, the shared id map, and the offset index once
// one has been built or supplied. Grounded on the teacher's Reader
// (go/mcap/reader.go) and on the original crate's MzMLReaderType
// (src/io/mzml/async.rs), collapsing its async methods onto a single
// blocking-or-cooperative pump rather than a second async/sync code path.
type MzMLReader struct {
	source io.Reader
	seeker io.ReadSeeker

	opts ReaderOptions
	pump *XmlEventPump

	idMap    *IncrementingIdMap
	metadata FileMetadata
	index    *OffsetIndex

	state   ParserState
	lastErr error
}

// Open constructs an MzMLReader over source and parses the metadata prefix
// (everything up to the first <spectrum>). A malformed or truncated header
// does not fail construction: the reader is returned usable, and the error
// is retrievable via LastError(), or surfaces once from the first
// ReadInto/ReadNext call, per spec.md §7's "sticky ParserError" contract.
// Open itself only ever returns a non-nil error for arguments it rejects
// outright; today there are none, so the error return exists for
// OpenFileSource and future validation, not dead API surface.
func Open(source io.Reader, opts ...ReaderOption) (*MzMLReader, error) {
	o := defaultReaderOptions()
	for _, opt := range opts {
		opt(&o)
	}

	r := &MzMLReader{
		source: source,
		opts:   o,
		idMap:  NewIncrementingIdMap(),
		index:  NewOffsetIndex("spectrum"),
		state:  Start,
		lastErr: NoError,
	}
	if rs, ok := source.(io.ReadSeeker); ok {
		r.seeker = rs
	}
	r.pump = NewXmlEventPump(source, o.Mode, o.MaxTextLength)

	if err := r.parseMetadata(); err != nil {
		return nil, err
	}
	return r, nil
}

// OpenFileSource opens fs, transparently wrapping a gzip-compressed
// filesystem source in a SeekableGzipAdapter (detected by either the ".gz"
// path suffix or the gzip magic number, per spec.md §4.1). Stream sources
// are opened as given; they get no gzip auto-detection, since a
// non-seekable stream cannot be rewound to re-check its header after a
// failed peek.
func OpenFileSource(fs FileSource, opts ...ReaderOption) (*MzMLReader, error) {
	if stream, ok := fs.Stream(); ok {
		return Open(stream, opts...)
	}
	path, _ := fs.Path()
	f, err := os.Open(path)
	if err != nil {
		return nil, NewIOError(err)
	}

	gzByName, _ := IsGzipPath(path)
	var magic [2]byte
	n, _ := io.ReadFull(f, magic[:])
	gzByMagic := n == 2 && IsGzipped(magic[:2])
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, NewIOError(err)
	}

	var src io.ReadSeeker = f
	if gzByName || gzByMagic {
		adapter, err := NewSeekableGzipAdapter(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		src = adapter
	}
	return Open(src, opts...)
}

// parseMetadata drives a MetadataBuilder until the metadata prefix is
// fully consumed, leaving the pump positioned right after the event that
// made state.metadataComplete() true (the <run> start tag in a well-formed
// document). Structural errors are stashed on the reader, not returned.
func (r *MzMLReader) parseMetadata() error {
	builder := NewMetadataBuilder(r.idMap)
	for {
		ev := r.pump.Next()
		if ev.Type == EventEOF {
			r.state = ParserError
			r.lastErr = NewIncompleteElementError(r.state, r.pump.Excerpt())
			return nil
		}
		newState, err := builder.HandleEvent(ev, r.state)
		r.state = newState
		if err != nil {
			r.state = ParserError
			r.lastErr = err
			return nil
		}
		if r.state.metadataComplete() {
			break
		}
	}
	r.metadata = builder.Finish()
	return nil
}

// Metadata returns the file-level metadata parsed at Open time.
func (r *MzMLReader) Metadata() FileMetadata {
	return r.metadata
}

// LastError peeks at the reader's stashed error without consuming it,
// useful right after Open to check whether the header parsed cleanly.
func (r *MzMLReader) LastError() error {
	if r.lastErr == NoError {
		return nil
	}
	return r.lastErr
}

// takeErr returns the stashed error and clears the slot, matching spec.md
// §7: "the next public operation ... returns the stashed error, then
// clears it."
func (r *MzMLReader) takeErr() error {
	err := r.lastErr
	r.lastErr = NoError
	return err
}

// isBenignResumeMismatch reports whether err is encoding/xml's "unexpected
// end element" syntax error — the one class of structural error spec.md §7
// and SPEC_FULL.md §4 say is tolerated while in Resume state, mirroring the
// original crate's narrow forgiveness of an EndEventMismatch with an empty
// "expected" tag. encoding/xml reports exactly this shape (no "expected"
// name at all) when Token() sees a close tag with nothing open on its
// internal stack, which is what a parser instance restarted mid-document
// produces; any other XML error (mismatched names, unclosed tags elsewhere)
// is left fatal.
func isBenignResumeMismatch(err error) bool {
	var serr *xml.SyntaxError
	if !errors.As(err, &serr) {
		return false
	}
	return strings.HasPrefix(serr.Msg, "unexpected end element")
}

// ReadInto parses the next <spectrum> element in document order into
// *slot, returning the number of bytes the pump consumed doing so.
// io.EOF (returned as is) means the spectrum list (and the document) is
// exhausted; any other error leaves the reader in ParserError, and later
// ReadInto calls fail until Reset. Random-access calls (GetBy*) parse with
// their own pump and do not clear ParserError.
func (r *MzMLReader) ReadInto(slot *Spectrum) (int, error) {
	if r.state == ParserError {
		return 0, r.takeErr()
	}
	if r.state == SpectrumDone {
		r.state = Resume
	}

	builder := NewSpectrumBuilder(r.idMap)
	startOffset := r.pump.Offset()
	started := false

	for {
		ev := r.pump.Next()

		if !started {
			switch ev.Type {
			case EventEOF:
				return 0, io.EOF
			case EventError:
				if r.state == Resume && isBenignResumeMismatch(ev.Err) {
					r.opts.Logger.Debugf("mzml: tolerating benign end-event mismatch on resume: %s", ev.Err)
					continue
				}
				r.state = ParserError
				r.lastErr = NewXMLError(ev.Err)
				return 0, r.takeErr()
			case EventEndElement:
				switch ev.Name {
				case "spectrumList", "run", "mzML", "indexedmzML":
					return 0, io.EOF
				}
				continue
			case EventStartElement, EventEmptyElement:
				if ev.Name == "indexList" {
					return 0, io.EOF
				}
				if ev.Name != "spectrum" {
					continue
				}
				started = true
			default:
				continue
			}
		} else if ev.Type == EventEOF {
			// The source ended partway through a <spectrum> we had already
			// started building: SpectrumBuilder.HandleEvent treats EventEOF
			// as a no-op, so without this check the loop would call
			// r.pump.Next() forever once the pump has nothing left to give.
			r.state = ParserError
			r.lastErr = ErrIncompleteSpectrum
			return 0, r.takeErr()
		}

		newState, err := builder.HandleEvent(ev, r.state)
		if err != nil {
			r.state = ParserError
			r.lastErr = err
			return 0, r.takeErr()
		}
		r.state = newState

		if r.state == SpectrumDone {
			*slot = builder.Finish()
			return int(r.pump.Offset() - startOffset), nil
		}
	}
}

// ReadNext reads the next spectrum, or returns nil once the document is
// exhausted or a structural error is hit; in the latter case the error is
// logged at debug level rather than surfaced, mirroring the original
// crate's Iterator::next implementation over get_spectrum.
func (r *MzMLReader) ReadNext() *Spectrum {
	var s Spectrum
	if _, err := r.ReadInto(&s); err != nil {
		if err != io.EOF {
			r.opts.Logger.Debugf("mzml: ReadNext stopped: %s", err)
		}
		return nil
	}
	return &s
}

// BuildIndexFromEnd locates the trailing <indexListOffset>, seeks there,
// and parses the <indexList> into the reader's offset index, replacing
// any index set previously. The underlying source's cursor is restored to
// its pre-call position regardless of outcome (spec.md §4.6 invariant).
func (r *MzMLReader) BuildIndexFromEnd() (count int, err error) {
	if r.seeker == nil {
		return 0, ErrNotSeekable
	}
	current, serr := r.seeker.Seek(0, io.SeekCurrent)
	if serr != nil {
		return 0, NewIOError(serr)
	}
	defer func() {
		if _, rerr := r.seeker.Seek(current, io.SeekStart); rerr != nil && err == nil {
			err = NewIOError(rerr)
		}
	}()

	offset, ok, ferr := FindIndexListOffset(r.seeker)
	if ferr != nil {
		return 0, ferr
	}
	if !ok {
		return 0, ErrOffsetNotFound
	}
	if _, serr := r.seeker.Seek(int64(offset), io.SeekStart); serr != nil {
		return 0, NewIOError(serr)
	}

	pump := NewXmlEventPump(r.seeker, r.opts.Mode, r.opts.MaxTextLength)
	extractor := NewIndexExtractor(r.opts.Logger)
	state := IndexStart
	for state != IndexDone {
		ev := pump.Next()
		if ev.Type == EventEOF {
			return 0, NewIncompleteElementError(state, pump.Excerpt())
		}
		newState, herr := extractor.HandleEvent(ev, state)
		if herr != nil {
			return 0, herr
		}
		state = newState
	}
	pump.Close()

	r.index = extractor.SpectrumIndex
	r.index.SetInitialized(true)
	return r.index.Len(), nil
}

// GetIndex returns the reader's current offset index (possibly
// uninitialized and empty). Accessing it before BuildIndexFromEnd or
// SetIndex only logs a warning; it never blocks (spec.md §3).
func (r *MzMLReader) GetIndex() *OffsetIndex {
	if !r.index.IsInitialized() {
		r.opts.Logger.Warnf("mzml: reading offset index before it was built")
	}
	return r.index
}

// SetIndex installs a previously built (e.g. deserialized sidecar) offset
// index, bypassing BuildIndexFromEnd.
func (r *MzMLReader) SetIndex(idx *OffsetIndex) {
	r.index = idx
}

// readSpectrumAt seeks the underlying source to offset, parses exactly one
// <spectrum> there with a throwaway pump, and restores the source's prior
// cursor position before returning. Because the reader's persistent pump
// (used by ReadInto/ReadNext) is untouched by this excursion — it is
// simply not invoked while this runs — and the physical cursor is restored
// byte-for-byte afterward, any bytes it had already buffered internally
// remain valid once sequential reads resume.
func (r *MzMLReader) readSpectrumAt(offset uint64) (Spectrum, error) {
	current, err := r.seeker.Seek(0, io.SeekCurrent)
	if err != nil {
		return Spectrum{}, NewIOError(err)
	}
	defer r.seeker.Seek(current, io.SeekStart)

	if _, err := r.seeker.Seek(int64(offset), io.SeekStart); err != nil {
		return Spectrum{}, NewIOError(err)
	}

	pump := NewXmlEventPump(r.seeker, r.opts.Mode, r.opts.MaxTextLength)
	defer pump.Close()
	builder := NewSpectrumBuilder(r.idMap)
	state := Start
	for {
		ev := pump.Next()
		if ev.Type == EventEOF {
			return Spectrum{}, ErrIncompleteSpectrum
		}
		if ev.Type == EventError {
			return Spectrum{}, NewXMLError(ev.Err)
		}
		newState, err := builder.HandleEvent(ev, state)
		if err != nil {
			return Spectrum{}, err
		}
		state = newState
		if state == SpectrumDone {
			return builder.Finish(), nil
		}
	}
}

// GetById returns the spectrum with the given native id, requiring a
// previously built or supplied offset index.
func (r *MzMLReader) GetById(id string) (Spectrum, error) {
	if r.seeker == nil {
		return Spectrum{}, ErrNotSeekable
	}
	offset, ok := r.index.GetById(id)
	if !ok {
		return Spectrum{}, ErrUnknownID
	}
	return r.readSpectrumAt(offset)
}

// GetByOrdinal returns the i-th spectrum in index order (not necessarily
// document order, though they coincide for a well-formed mzML index).
func (r *MzMLReader) GetByOrdinal(i int) (Spectrum, error) {
	if r.seeker == nil {
		return Spectrum{}, ErrNotSeekable
	}
	_, offset, ok := r.index.GetByOrdinal(i)
	if !ok {
		return Spectrum{}, ErrIndexOutOfRange
	}
	return r.readSpectrumAt(offset)
}

// GetByTime binary-searches the indexed spectra by ScanStartTime,
// returning the closest match it has seen once the search converges. This
// keeps the original crate's tie-break rule (spec.md §4.7 / Open Question
// (b)) and differs from it only in advancing lo past mid (see below): a
// candidate within 1e-3 ends the search early, otherwise the search narrows
// toward whichever half the probed time falls in, and a non-monotonic ScanStartTime sequence can
// make it return the best candidate *seen*, not the nearest one that
// exists — this is deliberate, not a bug, and is not "corrected" here.
func (r *MzMLReader) GetByTime(t float64) (Spectrum, error) {
	if r.seeker == nil {
		return Spectrum{}, ErrNotSeekable
	}
	n := r.index.Len()
	if n == 0 {
		return Spectrum{}, ErrIndexOutOfRange
	}

	lo, hi := 0, n
	haveBest := false
	bestErr := math.Inf(1)
	var best Spectrum

	for hi != lo {
		mid := (hi + lo) / 2
		scan, err := r.GetByOrdinal(mid)
		if err != nil {
			return Spectrum{}, err
		}
		diff := math.Abs(scan.ScanStartTime - t)
		switch {
		case diff < bestErr:
			bestErr = diff
			best = scan
			haveBest = true
		case diff < 1e-3:
			return scan, nil
		case scan.ScanStartTime > t:
			hi = mid
		default:
			// lo = mid (matching the original's literal `lo = mid`) can
			// stall forever: once the window narrows to [lo, lo+1) with
			// mid == lo, re-evaluating the same mid never changes lo or
			// hi. Advancing past mid keeps the best-seen/early-exit
			// semantics identical while guaranteeing the window shrinks
			// every iteration.
			lo = mid + 1
		}
	}
	if !haveBest {
		return Spectrum{}, ErrIndexOutOfRange
	}
	return best, nil
}

// Reset seeks the underlying source back to the start, clears the parser
// state and any stashed error, and re-parses the metadata prefix with a
// fresh pump. It does not clear the offset index.
func (r *MzMLReader) Reset() error {
	if r.seeker == nil {
		return ErrNotSeekable
	}
	if _, err := r.seeker.Seek(0, io.SeekStart); err != nil {
		return NewIOError(err)
	}
	r.state = Start
	r.lastErr = NoError
	r.pump = NewXmlEventPump(r.source, r.opts.Mode, r.opts.MaxTextLength)
	return r.parseMetadata()
}

// Close releases the pump's background goroutine (Cooperative mode only)
// and, if the underlying source implements io.Closer, closes it too. Only
// the source's close can fail (the pump's Close reports no error); its
// error is collected with multierr, following the teacher's own use of
// go.uber.org/multierr for aggregate cleanup errors.
func (r *MzMLReader) Close() error {
	var errs error
	r.pump.Close()
	if c, ok := r.source.(io.Closer); ok {
		errs = multierr.Append(errs, c.Close())
	}
	return errs
}
