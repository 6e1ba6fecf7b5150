package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rivo/tview"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Types int

const (
	Info Types = iota
	Error
	Warn
	Fatal
)

const (
	logFileName   = "localchat.log"
	maxLogSizeMB  = 5
	maxLogBackups = 5
	maxLogAgeDays = 14
)

type Message struct {
	Timestamp time.Time
	Tag       string
	Message   string
	LogTypes  Types
}

// sink is shared by every tagged Logger.
type sink struct {
	view    io.Writer
	dev     bool
	console zerolog.Logger
	file    *zerolog.Logger
	closer  io.Closer
	logChan chan Message
	done    chan struct{}

	mu     sync.RWMutex
	closed bool
}

type Logger struct {
	tag  string
	sink *sink
}

var (
	logManager *sink
	once       sync.Once
)

// InitLogger wires the shared sink. view may be nil, in which case dev output
// goes to stderr. An empty logPath disables the file log.
func InitLogger(dev bool, logPath string, view *tview.TextView) error {
	var initErr error
	once.Do(func() {
		s := &sink{
			dev:     dev,
			console: zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger(),
			logChan: make(chan Message, 100),
			done:    make(chan struct{}),
		}
		if view != nil {
			s.view = view
		}

		if logPath != "" {
			if err := os.MkdirAll(logPath, 0o700); err != nil {
				initErr = err
			} else {
				writer := &lumberjack.Logger{
					Filename:   filepath.Join(logPath, logFileName),
					MaxSize:    maxLogSizeMB,
					MaxBackups: maxLogBackups,
					MaxAge:     maxLogAgeDays,
				}
				file := zerolog.New(writer)
				s.file = &file
				s.closer = writer
			}
		}

		go s.processLogs()
		logManager = s
	})
	return initErr
}

// NewLogger returns a tagged logger. Loggers created before InitLogger stay silent.
func NewLogger(tag string) *Logger {
	return &Logger{
		tag:  tag,
		sink: logManager,
	}
}

func (s *sink) processLogs() {
	defer close(s.done)
	for msg := range s.logChan {
		if s.file == nil {
			continue
		}
		s.file.WithLevel(msg.LogTypes.level()).
			Time("time", msg.Timestamp).
			Str("tag", msg.Tag).
			Msg(msg.Message)
	}
}

func (l *Logger) log(logTypes Types, v ...interface{}) {
	s := l.sink
	if s == nil {
		s = logManager
	}
	if s == nil {
		return
	}

	message := fmt.Sprintln(v...)
	message = message[:len(message)-1]

	if s.dev {
		if s.view != nil {
			var format string
			switch logTypes {
			case Info:
				format = "[green]DEBUG (%s): %s[-]\n"
			case Error:
				format = "[red]DEBUG (%s): %s[-]\n"
			case Warn:
				format = "[yellow]DEBUG (%s): %s[-]\n"
			case Fatal:
				format = "[red]DEBUG (%s): %s[-]\n"
			}
			fmt.Fprintf(s.view, format, l.tag, tview.Escape(message))
		} else {
			s.console.WithLevel(logTypes.level()).Str("tag", l.tag).Msg(message)
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.file != nil && !s.closed {
		select {
		case s.logChan <- Message{
			Timestamp: time.Now(),
			Tag:       l.tag,
			Message:   message,
			LogTypes:  logTypes,
		}:
		default:
			// file writer is behind; drop rather than block the UI
		}
	}
}

func (l *Logger) Info(v ...interface{}) {
	l.log(Info, v...)
}

func (l *Logger) Error(v ...interface{}) {
	l.log(Error, v...)
}

func (l *Logger) Warn(v ...interface{}) {
	l.log(Warn, v...)
}

func (l *Logger) Fatal(v ...interface{}) {
	l.log(Fatal, v...)
	Close()
	os.Exit(1)
}

// Close flushes pending file output. Safe to call more than once.
func Close() {
	s := logManager
	if s == nil {
		return
	}
	closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.logChan)
		s.mu.Unlock()
		<-s.done
		if s.closer != nil {
			s.closer.Close()
		}
	})
}

var closeOnce sync.Once

func (t Types) level() zerolog.Level {
	switch t {
	case Info:
		return zerolog.InfoLevel
	case Error:
		return zerolog.ErrorLevel
	case Warn:
		return zerolog.WarnLevel
	case Fatal:
		return zerolog.FatalLevel
	default:
		return zerolog.NoLevel
	}
}

func (t Types) String() string {
	switch t {
	case Info:
		return "INFO"
	case Error:
		return "ERROR"
	case Warn:
		return "WARN"
	case Fatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}
