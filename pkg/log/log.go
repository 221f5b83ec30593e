// Package log provides leveled logging for the tracker and its
// surrounding tooling.
//
// Time/date are omitted on purpose: systemd (or whatever supervises the
// process) already timestamps captured stdout/stderr. Levels are encoded
// as the numeric syslog-style prefixes systemd understands natively, see
// https://www.freedesktop.org/software/systemd/man/sd-daemon.html
package log

import (
	"fmt"
	"io"
	"log"
	"os"
)

var logDateTime bool

var (
	DebugWriter io.Writer = os.Stderr
	InfoWriter  io.Writer = os.Stderr
	WarnWriter  io.Writer = os.Stderr
	ErrWriter   io.Writer = os.Stderr
)

var (
	DebugPrefix string = "<7>[DEBUG]   "
	InfoPrefix  string = "<6>[INFO]    "
	WarnPrefix  string = "<4>[WARNING] "
	ErrPrefix   string = "<3>[ERROR]   "
)

var (
	DebugLog *log.Logger = log.New(DebugWriter, DebugPrefix, 0)
	InfoLog  *log.Logger = log.New(InfoWriter, InfoPrefix, 0)
	WarnLog  *log.Logger = log.New(WarnWriter, WarnPrefix, log.Lshortfile)
	ErrLog   *log.Logger = log.New(ErrWriter, ErrPrefix, log.Llongfile)

	DebugTimeLog *log.Logger = log.New(DebugWriter, DebugPrefix, log.LstdFlags)
	InfoTimeLog  *log.Logger = log.New(InfoWriter, InfoPrefix, log.LstdFlags)
	WarnTimeLog  *log.Logger = log.New(WarnWriter, WarnPrefix, log.LstdFlags|log.Lshortfile)
	ErrTimeLog   *log.Logger = log.New(ErrWriter, ErrPrefix, log.LstdFlags|log.Llongfile)
)

func init() {
	if lvl, ok := os.LookupEnv("NMT_LOGLEVEL"); ok {
		SetLevel(lvl)
	}
}

// SetLevel silences writers below lvl ("debug", "info", "warn" or "err").
func SetLevel(lvl string) {
	switch lvl {
	case "err", "fatal":
		WarnWriter = io.Discard
		fallthrough
	case "warn":
		InfoWriter = io.Discard
		fallthrough
	case "info":
		DebugWriter = io.Discard
	case "debug":
	default:
		fmt.Fprintf(os.Stderr, "pkg/log: invalid loglevel %q, using \"debug\"\n", lvl)
		SetLevel("debug")
	}
}

func SetLogDateTime(v bool) { logDateTime = v }

func out(normal, timed *log.Logger, w io.Writer, s string) {
	if w == io.Discard {
		return
	}
	if logDateTime {
		timed.Output(3, s)
	} else {
		normal.Output(3, s)
	}
}

func Debug(v ...interface{}) { out(DebugLog, DebugTimeLog, DebugWriter, fmt.Sprint(v...)) }
func Info(v ...interface{})  { out(InfoLog, InfoTimeLog, InfoWriter, fmt.Sprint(v...)) }
func Warn(v ...interface{})  { out(WarnLog, WarnTimeLog, WarnWriter, fmt.Sprint(v...)) }
func Error(v ...interface{}) { out(ErrLog, ErrTimeLog, ErrWriter, fmt.Sprint(v...)) }

// Fatal logs at error level and terminates the process.
func Fatal(v ...interface{}) {
	Error(v...)
	os.Exit(1)
}

func Debugf(format string, v ...interface{}) { out(DebugLog, DebugTimeLog, DebugWriter, fmt.Sprintf(format, v...)) }
func Infof(format string, v ...interface{})  { out(InfoLog, InfoTimeLog, InfoWriter, fmt.Sprintf(format, v...)) }
func Warnf(format string, v ...interface{})  { out(WarnLog, WarnTimeLog, WarnWriter, fmt.Sprintf(format, v...)) }
func Errorf(format string, v ...interface{}) { out(ErrLog, ErrTimeLog, ErrWriter, fmt.Sprintf(format, v...)) }

// Fatalf logs at error level and terminates the process.
func Fatalf(format string, v ...interface{}) {
	Errorf(format, v...)
	os.Exit(1)
}
