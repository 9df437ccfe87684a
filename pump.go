package mzml

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"go.uber.org/atomic"
)

// EventType enumerates the event kinds XmlEventPump emits, mirroring the
// variants of the teacher lexer's TokenType but for XML structure rather
// than MCAP opcodes.
type EventType int

const (
	// EventStartElement is a non-self-closing open tag.
	EventStartElement EventType = iota
	// EventEndElement is a close tag.
	EventEndElement
	// EventText is whitespace-trimmed character data.
	EventText
	// EventEmptyElement is a self-closing tag (<foo/>), synthesized from a
	// StartElement immediately followed by its matching EndElement.
	EventEmptyElement
	// EventEOF marks the end of the source.
	EventEOF
	// EventError marks a tokenizer failure; Err on the Event holds the cause.
	EventError
)

func (t EventType) String() string {
	switch t {
	case EventStartElement:
		return "start"
	case EventEndElement:
		return "end"
	case EventText:
		return "text"
	case EventEmptyElement:
		return "empty"
	case EventEOF:
		return "eof"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one token pulled from an XmlEventPump.
type Event struct {
	Type   EventType
	Name   string
	Attrs  []xml.Attr
	Text   string
	Offset int64
	Err    error
}

// Attr looks up an attribute by local name. ok is false if absent.
func (e *Event) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// PumpMode selects whether XmlEventPump hides I/O suspension from the
// caller (Blocking) or yields control at every I/O boundary via an explicit
// handshake (Cooperative). Both modes deliver identical event streams for
// the same input (spec.md §4.3).
type PumpMode int

const (
	// Blocking hides suspension inside the byte source; Next() simply
	// blocks until a token is available.
	Blocking PumpMode = iota
	// Cooperative runs tokenization in a background goroutine and returns
	// control to the caller at each I/O boundary; the caller "resumes" the
	// pump by calling Next() again, which signals the background goroutine
	// to perform exactly one more step.
	Cooperative
)

// XmlEventPump wraps a buffered byte source and yields successive XML
// events. It trims surrounding whitespace from text and reports the
// current absolute byte position in the underlying source via Event.Offset.
// MzMLReader does not use these offsets to build an index by scanning; its
// index comes only from the trailing <indexList> or from SetIndex.
type XmlEventPump struct {
	mode PumpMode
	dec  *xml.Decoder

	// pendingTok holds one token of lookahead, consumed by the self-closing
	// check below. It stores the raw xml.Token rather than an already-built
	// Event so that a popped token re-enters the same switch in decodeOne
	// and gets its own self-closing lookahead applied in turn — otherwise a
	// self-closing element that happens to be the first child of another
	// element (e.g. <fileContent><cvParam .../></fileContent>, ubiquitous
	// in mzML) would be misclassified as a plain start/end pair instead of
	// EventEmptyElement, since it was consumed only as someone else's
	// lookahead token.
	pendingTok    xml.Token
	pendingErr    error
	pendingOffset int64
	havePending   bool

	maxTextN int
	tail     *trailingBuffer

	// cooperative-mode plumbing
	resumeCh chan struct{}
	eventCh  chan Event
	stopCh   chan struct{}
	stopped  atomic.Bool
	started  bool
}

// defaultExcerptCap bounds the trailing-bytes buffer used for
// IncompleteElementError.Excerpt when the caller hasn't set
// WithMaxTextLength, so the buffer is still bounded rather than unbounded.
const defaultExcerptCap = 256

// trailingBuffer retains only the last cap bytes written to it, letting an
// IncompleteElementError quote the tail of the document without retaining
// the whole thing. Grounded on the same "bound everything we buffer"
// discipline as the teacher's MaxRecordSize-guarded read paths.
type trailingBuffer struct {
	buf []byte
	cap int
}

func newTrailingBuffer(cap int) *trailingBuffer {
	return &trailingBuffer{cap: cap}
}

func (t *trailingBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if len(t.buf) > t.cap {
		t.buf = t.buf[len(t.buf)-t.cap:]
	}
	return len(p), nil
}

func (t *trailingBuffer) String() string {
	return string(t.buf)
}

// NewXmlEventPump constructs a pump over r in the given mode. Every byte the
// decoder reads is also tee'd into a bounded trailing buffer so Excerpt()
// can report real bytes near a truncation point.
func NewXmlEventPump(r io.Reader, mode PumpMode, maxTextLength int) *XmlEventPump {
	excerptCap := maxTextLength
	if excerptCap <= 0 {
		excerptCap = defaultExcerptCap
	}
	tail := newTrailingBuffer(excerptCap)
	p := &XmlEventPump{
		mode:     mode,
		dec:      xml.NewDecoder(io.TeeReader(r, tail)),
		maxTextN: maxTextLength,
		tail:     tail,
	}
	if mode == Cooperative {
		p.resumeCh = make(chan struct{})
		p.eventCh = make(chan Event)
		p.stopCh = make(chan struct{})
	}
	return p
}

// Excerpt returns the trailing bytes of the source consumed so far, bounded
// by WithMaxTextLength (or defaultExcerptCap if unset). Intended for
// IncompleteElementError, which otherwise has no offending bytes to quote.
func (p *XmlEventPump) Excerpt() string {
	return p.tail.String()
}

// Close releases a Cooperative pump's background goroutine. It is a no-op
// for a Blocking pump (there is nothing to release) and is safe to call
// more than once. Without this, a caller that abandons a cooperative pump
// before reaching EOF leaks a goroutine parked on resumeCh forever — Go's
// runtime does not garbage-collect a goroutine blocked on a channel receive
// just because nothing else references it.
func (p *XmlEventPump) Close() {
	if p.mode != Cooperative {
		return
	}
	if p.stopped.CompareAndSwap(false, true) {
		close(p.stopCh)
	}
}

// Next returns the next XML event. In Cooperative mode the first call spins
// up the background goroutine; subsequent calls hand it a resume signal and
// wait for exactly one event in return, so every Next() is an explicit I/O
// suspension boundary even though the data ultimately comes from the same
// xml.Decoder.
func (p *XmlEventPump) Next() Event {
	if p.mode == Cooperative {
		return p.nextCooperative()
	}
	return p.nextBlocking()
}

func (p *XmlEventPump) nextBlocking() Event {
	ev := p.decodeOne()
	if ev.Type == EventEOF || ev.Type == EventError {
		p.stopped.Store(true)
	}
	return ev
}

func (p *XmlEventPump) nextCooperative() Event {
	if p.stopped.Load() {
		return Event{Type: EventEOF}
	}
	if !p.started {
		p.started = true
		go p.run()
	}
	select {
	case p.resumeCh <- struct{}{}:
	case <-p.stopCh:
		return Event{Type: EventEOF}
	}
	return <-p.eventCh
}

// run is the cooperative pump's background goroutine: it waits for a
// resume signal, performs exactly one decode step, hands back the result,
// and loops. This is the Go analogue of the Rust original's async
// suspension points at every read_event_into_async call. It also watches
// stopCh so Close() can reclaim it without waiting on a resume that may
// never come.
func (p *XmlEventPump) run() {
	for {
		select {
		case <-p.resumeCh:
		case <-p.stopCh:
			return
		}
		ev := p.decodeOneLocked()
		select {
		case p.eventCh <- ev:
		case <-p.stopCh:
			return
		}
		if ev.Type == EventEOF || ev.Type == EventError {
			p.stopped.Store(true)
			return
		}
	}
}

// decodeOneLocked is decodeOne, named to make clear it only ever runs
// inside the single background goroutine in cooperative mode (no locking is
// actually required: the resume/event channel handshake already guarantees
// exclusive access).
func (p *XmlEventPump) decodeOneLocked() Event {
	return p.decodeOne()
}

// fetchToken returns the next raw XML token, preferring anything left over
// from a prior self-closing lookahead before reading the decoder.
func (p *XmlEventPump) fetchToken() (xml.Token, error, int64) {
	if p.havePending {
		p.havePending = false
		return p.pendingTok, p.pendingErr, p.pendingOffset
	}
	offset := p.dec.InputOffset()
	tok, err := p.dec.Token()
	return tok, err, offset
}

func (p *XmlEventPump) decodeOne() Event {
	tok, err, offset := p.fetchToken()
	if err != nil {
		// encoding/xml reports a source that ends with elements still open
		// as a SyntaxError "unexpected EOF" rather than io.EOF; both mean
		// the source has ended.
		var serr *xml.SyntaxError
		if errors.Is(err, io.EOF) || (errors.As(err, &serr) && serr.Msg == "unexpected EOF") {
			return Event{Type: EventEOF, Offset: offset}
		}
		return Event{Type: EventError, Offset: offset, Err: err}
	}
	switch t := tok.(type) {
	case xml.StartElement:
		attrs := make([]xml.Attr, len(t.Attr))
		copy(attrs, t.Attr)
		start := Event{Type: EventStartElement, Name: t.Name.Local, Attrs: attrs, Offset: offset}
		// Peek ahead: a StartElement immediately followed by its matching
		// EndElement with no intervening content is a self-closing tag.
		// encoding/xml always reports <foo/> this way, so we resynthesize
		// the EventEmptyElement variant the rest of the grammar expects.
		// The peeked token is stashed raw (not pre-converted to an Event)
		// so that if it is itself a StartElement — e.g. a self-closing
		// <cvParam/> as the first child of its parent, ubiquitous in mzML —
		// popping it later re-enters this same switch and gets its own
		// self-closing check, instead of being permanently misclassified
		// as a plain start/end pair.
		nextTok, nextErr, nextOffset := p.fetchToken()
		if nextErr == nil {
			if end, ok := nextTok.(xml.EndElement); ok && end.Name.Local == t.Name.Local {
				return Event{Type: EventEmptyElement, Name: t.Name.Local, Attrs: attrs, Offset: offset}
			}
		}
		p.pendingTok, p.pendingErr, p.pendingOffset, p.havePending = nextTok, nextErr, nextOffset, true
		return start
	case xml.EndElement:
		return Event{Type: EventEndElement, Name: t.Name.Local, Offset: offset}
	case xml.CharData:
		text := strings.TrimSpace(string(t))
		if text == "" {
			return p.decodeOne()
		}
		if p.maxTextN > 0 && len(text) > p.maxTextN {
			text = text[:p.maxTextN]
		}
		return Event{Type: EventText, Text: text, Offset: offset}
	default:
		// Comments, directives, processing instructions: skip silently.
		return p.decodeOne()
	}
}

// Offset returns the XML decoder's current absolute byte offset into the
// source, usable between Next() calls.
func (p *XmlEventPump) Offset() int64 {
	return p.dec.InputOffset()
}

// Stopped reports whether a cooperative pump's background goroutine has
// exited (reached EOF or an error). Always true for a Blocking pump once
// Next() has returned EventEOF or EventError.
func (p *XmlEventPump) Stopped() bool {
	return p.stopped.Load()
}
