package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
)

type LogStatus int

const (
	VERBOSE LogStatus = iota
	DEBUG
	INFO
	SUCCESS
	NEW
	REMOVE
	STOP
	WARNING
	ERROR
	FATAL
)

var statusNames = map[string]LogStatus{
	"verbose": VERBOSE,
	"debug":   DEBUG,
	"info":    INFO,
	"warning": WARNING,
	"warn":    WARNING,
	"error":   ERROR,
}

func (e LogStatus) String() string {
	return []string{
		"V",
		"D",
		"I",
		"✓",
		"+",
		"-",
		"X",
		"!",
		"!!",
		"PANIC",
	}[e]
}

func (e LogStatus) Color() *color.Color {
	return []*color.Color{
		color.New(color.FgWhite, color.Italic),                //Verbose
		color.New(color.FgWhite, color.Italic),                //Debug
		color.New(color.FgWhite),                              //Info
		color.New(color.FgHiGreen),                            //Success
		color.New(color.FgGreen, color.Italic),                //New
		color.New(color.FgYellow, color.Italic),               //Remove
		color.New(color.FgHiYellow),                           //Stop
		color.New(color.FgYellow, color.Underline),            //Warning
		color.New(color.FgHiRed, color.Bold),                  //Error
		color.New(color.FgHiRed, color.Bold, color.Underline), //PANIC
	}[e]
}

// ParseLevel converts a textual level (as found in config) to a LogStatus.
func ParseLevel(level string) (LogStatus, error) {
	if status, ok := statusNames[strings.ToLower(strings.TrimSpace(level))]; ok {
		return status, nil
	}

	return INFO, fmt.Errorf("unknown log level %q", level)
}

type Logger interface {
	Emit(LogStatus, string, ...interface{})
	Verbosef(string, ...interface{})
	Debugf(string, ...interface{})
	Infof(string, ...interface{})
	Warnf(string, ...interface{})
	Errorf(string, ...interface{})
}

type loggerImpl struct {
	name string
}

func (l *loggerImpl) Emit(status LogStatus, message string, interpolations ...interface{}) {
	Log.Emit(status, l.name, message, interpolations...)
}

func (l *loggerImpl) Verbosef(message string, interpolations ...interface{}) {
	l.Emit(VERBOSE, message, interpolations...)
}

func (l *loggerImpl) Debugf(message string, interpolations ...interface{}) {
	l.Emit(DEBUG, message, interpolations...)
}

func (l *loggerImpl) Infof(message string, interpolations ...interface{}) {
	l.Emit(INFO, message, interpolations...)
}

func (l *loggerImpl) Warnf(message string, interpolations ...interface{}) {
	l.Emit(WARNING, message, interpolations...)
}

func (l *loggerImpl) Errorf(message string, interpolations ...interface{}) {
	l.Emit(ERROR, message, interpolations...)
}

type LoggerManager interface {
	GetLogger(string) Logger
	Emit(LogStatus, string, string, ...interface{})
}

var Log LoggerManager = &loggerMgr{
	offset:  0,
	minimum: INFO,
	out:     os.Stdout,
}

type loggerMgr struct {
	sync.Mutex
	offset  int
	minimum LogStatus
	out     io.Writer
}

func (l *loggerMgr) GetLogger(name string) Logger {
	return &loggerImpl{name: name}
}

func (l *loggerMgr) Emit(status LogStatus, name string, message string, interpolations ...interface{}) {
	l.Lock()
	defer l.Unlock()

	if status < l.minimum {
		return
	}

	if l.offset < len(name) {
		l.offset = len(name)
	}

	padding := strings.Repeat(" ", l.offset-len(name))
	msg := fmt.Sprintf("[%s] %s(%s) %s", name, padding, status, fmt.Sprintf(message, interpolations...))
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}

	status.Color().Fprint(l.out, msg)
}

// SetMinLoggingLevel suppresses any log lines with a status below the one provided.
func SetMinLoggingLevel(status LogStatus) {
	if mgr, ok := Log.(*loggerMgr); ok {
		mgr.Lock()
		mgr.minimum = status
		mgr.Unlock()
	}
}

// SetOutput redirects all log output to the writer provided.
func SetOutput(w io.Writer) {
	if mgr, ok := Log.(*loggerMgr); ok {
		mgr.Lock()
		mgr.out = w
		mgr.Unlock()
	}
}

func Get(name string) Logger {
	return Log.GetLogger(name)
}
