package mzml

// ReaderOptions holds construction-time configuration for MzMLReader,
// following the teacher's functional-options shape (reader_options.go).
type ReaderOptions struct {
	Mode          PumpMode
	Logger        Logger
	MaxTextLength int
}

// ReaderOption mutates a ReaderOptions.
type ReaderOption func(*ReaderOptions)

// WithMode selects Blocking (default) or Cooperative pump scheduling.
func WithMode(mode PumpMode) ReaderOption {
	return func(o *ReaderOptions) {
		o.Mode = mode
	}
}

// WithLogger installs a Logger. The zero value is a no-op logger; pass an
// *mzmllog.ZapLogger to get structured logs without the core depending on
// zap directly.
func WithLogger(l Logger) ReaderOption {
	return func(o *ReaderOptions) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithMaxTextLength bounds how much text XmlEventPump retains per text
// event (0 means unbounded), which in turn bounds the excerpt captured in
// an IncompleteElementError. Mirrors the teacher's MaxRecordSize guard.
func WithMaxTextLength(n int) ReaderOption {
	return func(o *ReaderOptions) {
		o.MaxTextLength = n
	}
}

func defaultReaderOptions() ReaderOptions {
	return ReaderOptions{
		Mode:   Blocking,
		Logger: noopLogger{},
	}
}
