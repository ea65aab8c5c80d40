package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a LOG_LEVEL value to a Level, defaulting to LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger writes one line per message, prefixed with its level.
type Logger struct {
	level   Level
	loggers [4]*log.Logger
}

func New(out io.Writer, level Level) *Logger {
	l := &Logger{level: level}
	for lvl := LevelDebug; lvl <= LevelError; lvl++ {
		l.loggers[lvl] = log.New(out, fmt.Sprintf("%-5s ", lvl), log.LstdFlags|log.Lmsgprefix)
	}
	return l
}

func (l *Logger) logf(level Level, format string, args ...interface{}) {
	if l == nil || level < l.level {
		return
	}
	l.loggers[level].Output(3, fmt.Sprintf(format, args...))
}

func (l *Logger) Debugf(format string, args ...interface{}) { l.logf(LevelDebug, format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.logf(LevelInfo, format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.logf(LevelWarn, format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.logf(LevelError, format, args...) }

var std = New(os.Stdout, LevelInfo)

// Init replaces the process-wide logger. Call it once from main before
// serving.
func Init(out io.Writer, level Level) {
	std = New(out, level)
}

func Get() *Logger {
	return std
}
