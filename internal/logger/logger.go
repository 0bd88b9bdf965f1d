package logger

import (
	"fmt"
	"io"
	"log"
)

type Logger struct {
	level       Level
	traceLogger *log.Logger
	debugLogger *log.Logger
	infoLogger  *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
}

func NewLogger(level Level, out io.Writer) *Logger {
	flag := log.LstdFlags | log.Lshortfile
	return &Logger{
		level:       level,
		traceLogger: log.New(out, "TRACE:", flag),
		debugLogger: log.New(out, "DEBUG:", flag),
		infoLogger:  log.New(out, "INFO :", flag),
		warnLogger:  log.New(out, "WARN :", flag),
		errorLogger: log.New(out, "ERROR:", flag),
	}
}

func (l *Logger) Trace(v ...any) {
	if l.level >= LevelTrace {
		_ = l.traceLogger.Output(2, fmt.Sprintln(v...))
	}
}

func (l *Logger) Debug(v ...any) {
	if l.level >= LevelDebug {
		_ = l.debugLogger.Output(2, fmt.Sprintln(v...))
	}
}

func (l *Logger) Info(v ...any) {
	if l.level >= LevelInfo {
		_ = l.infoLogger.Output(2, fmt.Sprintln(v...))
	}
}

func (l *Logger) Warn(v ...any) {
	if l.level >= LevelWarn {
		_ = l.warnLogger.Output(2, fmt.Sprintln(v...))
	}
}

func (l *Logger) Error(v ...any) {
	if l.level >= LevelError {
		_ = l.errorLogger.Output(2, fmt.Sprintln(v...))
	}
}

func (l *Logger) Tracef(format string, v ...any) {
	if l.level >= LevelTrace {
		_ = l.traceLogger.Output(2, fmt.Sprintf(format, v...))
	}
}

func (l *Logger) Debugf(format string, v ...any) {
	if l.level >= LevelDebug {
		_ = l.debugLogger.Output(2, fmt.Sprintf(format, v...))
	}
}

func (l *Logger) Infof(format string, v ...any) {
	if l.level >= LevelInfo {
		_ = l.infoLogger.Output(2, fmt.Sprintf(format, v...))
	}
}

func (l *Logger) Warnf(format string, v ...any) {
	if l.level >= LevelWarn {
		_ = l.warnLogger.Output(2, fmt.Sprintf(format, v...))
	}
}

func (l *Logger) Errorf(format string, v ...any) {
	if l.level >= LevelError {
		_ = l.errorLogger.Output(2, fmt.Sprintf(format, v...))
	}
}
