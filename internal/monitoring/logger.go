// Package monitoring holds the package-level diagnostic loggers and
// Prometheus collectors used by the sampling engine and its storage
// layer.
package monitoring

import "log"

// Logf is the operational logger. It defaults to log.Printf but may be
// replaced by SetLogger; tests use that to capture or mute output.
var Logf func(format string, v ...interface{}) = log.Printf

// Debugf receives per-sample diagnostics. It is a no-op until
// SetDebugLogger installs a sink.
var Debugf func(format string, v ...interface{}) = func(string, ...interface{}) {}

// SetLogger replaces Logf. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	Logf = orNoop(f)
}

// SetDebugLogger replaces Debugf. Passing nil installs a no-op logger.
func SetDebugLogger(f func(format string, v ...interface{})) {
	Debugf = orNoop(f)
}

func orNoop(f func(format string, v ...interface{})) func(format string, v ...interface{}) {
	if f == nil {
		return func(string, ...interface{}) {}
	}
	return f
}
