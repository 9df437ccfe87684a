package mzml

import (
	"errors"
	"fmt"
)

// ErrOffsetNotFound is returned by BuildIndexFromEnd when the trailing
// <indexListOffset> element cannot be located in the tail of the source.
var ErrOffsetNotFound = errors.New("mzml: indexListOffset not found")

// ErrUnknownID is returned by GetById when the requested native id is not
// present in the offset index.
var ErrUnknownID = errors.New("mzml: unknown spectrum id")

// ErrIndexOutOfRange is returned by GetByOrdinal when the requested ordinal
// is outside [0, len(index)).
var ErrIndexOutOfRange = errors.New("mzml: ordinal out of range")

// ErrIncompleteSpectrum is returned when the stream ends in the middle of a
// <spectrum> element.
var ErrIncompleteSpectrum = errors.New("mzml: stream ended mid-spectrum")

// ErrNotSeekable is returned by operations that require random access (index
// construction, GetById/GetByOrdinal/GetByTime, Reset) on a source that
// cannot seek.
var ErrNotSeekable = errors.New("mzml: source is not seekable")

// NoError is the sentinel stored in MzMLReader's last-error slot when no
// error is pending. It mirrors the original crate's MzMLParserError::NoError
// and should never be returned to a caller.
var NoError = errors.New("mzml: no error")

// IncompleteElementError reports a structural XML error encountered while
// the parser was in a specific ParserState. Excerpt is bounded by
// WithMaxTextLength (see ReaderOption) so a malformed multi-megabyte
// <binaryDataArray> cannot balloon the error value.
type IncompleteElementError struct {
	State   ParserState
	Excerpt string
}

func NewIncompleteElementError(state ParserState, excerpt string) *IncompleteElementError {
	return &IncompleteElementError{State: state, Excerpt: excerpt}
}

func (e *IncompleteElementError) Error() string {
	return fmt.Sprintf("mzml: incomplete element in state %s: %q", e.State, e.Excerpt)
}

func (e *IncompleteElementError) Is(target error) bool {
	_, ok := target.(*IncompleteElementError)
	return ok
}

// XMLError wraps an error surfaced from the underlying XML tokenizer that
// does not fit IncompleteElementError (e.g. a genuinely malformed document).
type XMLError struct {
	err error
}

func NewXMLError(err error) *XMLError {
	return &XMLError{err}
}

func (e *XMLError) Error() string {
	return fmt.Sprintf("mzml: xml error: %s", e.err.Error())
}

func (e *XMLError) Unwrap() error {
	return e.err
}

func (e *XMLError) Is(target error) bool {
	var err *XMLError
	if errors.As(target, &err) {
		return true
	}
	return errors.Is(e.err, target)
}

// IOError wraps an I/O failure from the underlying byte source. It is
// always fatal to the operation in progress.
type IOError struct {
	err error
}

func NewIOError(err error) *IOError {
	return &IOError{err}
}

func (e *IOError) Error() string {
	return fmt.Sprintf("mzml: io error: %s", e.err.Error())
}

func (e *IOError) Unwrap() error {
	return e.err
}

func (e *IOError) Is(target error) bool {
	var err *IOError
	if errors.As(target, &err) {
		return true
	}
	return errors.Is(e.err, target)
}
