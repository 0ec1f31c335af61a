package monitoring

import "log"

// LogFunc is the shape of every diagnostic sink in this module. Readers and
// writers accept one through their options so callers can redirect or mute
// the console chatter of a single call.
type LogFunc func(format string, v ...interface{})

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf LogFunc = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f LogFunc) {
	if f == nil {
		Logf = Discard
		return
	}
	Logf = f
}

// Discard is a LogFunc that drops everything.
func Discard(string, ...interface{}) {}

// Or returns f, or the current package logger when f is nil. The package
// logger is looked up at call time so a later SetLogger still applies.
func Or(f LogFunc) LogFunc {
	if f != nil {
		return f
	}
	return func(format string, v ...interface{}) { Logf(format, v...) }
}

// Prefixed scopes every message written through f, e.g. "fgno=3: ".
func Prefixed(prefix string, f LogFunc) LogFunc {
	f = Or(f)
	return func(format string, v ...interface{}) {
		f(prefix+format, v...)
	}
}

// Warnf writes a non-fatal anomaly through f. Processing continues after a
// warning, so the message should say which value was used instead.
func Warnf(f LogFunc, format string, v ...interface{}) {
	Or(f)("warning: "+format, v...)
}
