package mam

import goLog "log"

// Logger receives diagnostic messages from CreateMessage: one when a
// proof-of-work search starts and one when a message is published. Tree
// construction and parse rejections are not logged. Logging is off by
// default.
type Logger interface {
	Logf(format string, a ...interface{})
}

type dummyLogger struct{}

func (l *dummyLogger) Logf(format string, a ...interface{}) {}

type stdlibLogger struct{}

func (l *stdlibLogger) Logf(format string, a ...interface{}) {
	goLog.Printf(format, a...)
}

var log Logger = &dummyLogger{}

// EnableLogging logs to the standard library log package. For more
// control, use SetLogger.
func EnableLogging() {
	SetLogger(&stdlibLogger{})
}

// SetLogger installs logger as the package's logging sink. Passing nil
// disables logging.
func SetLogger(logger Logger) {
	if logger == nil {
		log = &dummyLogger{}
		return
	}
	log = logger
}
