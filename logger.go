package mzml

// Logger is the logging collaborator the core consumes without depending on
// any concrete logging library. Its signature matches
// *zap.SugaredLogger.Debugf/Warnf (see the mzmlio/mzml-go/mzmllog adapter),
// but any logger with these two methods satisfies it.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...any) {}
func (noopLogger) Warnf(string, ...any)  {}
