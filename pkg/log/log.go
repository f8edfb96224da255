package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/Asutorufa/wsserver/pkg/config"
)

type Logger interface {
	SetLevel(slog.Level)
	Enabled(slog.Level) bool
	Debug(string, ...any)
	Info(string, ...any)
	Warn(string, ...any)
	Error(string, ...any)
	Output(depth int, lev slog.Level, msg string, v ...any)
	SetOutput(io.Writer)
}

var DefaultLogger Logger = NewLogger(1)

var writer *FileWriter
var lock sync.Mutex

// Set applies the level and switches the file output on or off.
func Set(cf config.Logcat) {
	lock.Lock()
	defer lock.Unlock()
	DefaultLogger.SetLevel(cf.SLogLevel())

	if cf.File == "" && writer != nil {
		DefaultLogger.SetOutput(os.Stdout)
		_ = writer.Close()
		writer = nil
	}

	if cf.File != "" && writer == nil {
		writer = NewLogWriter(cf.File)
		DefaultLogger.SetOutput(io.MultiWriter(os.Stdout, writer))
	}
}

func Close() error {
	lock.Lock()
	defer lock.Unlock()
	if writer == nil {
		return nil
	}
	err := writer.Close()
	writer = nil
	DefaultLogger.SetOutput(os.Stdout)
	return err
}

func SetLevel(l slog.Level)      { DefaultLogger.SetLevel(l) }
func Enabled(l slog.Level) bool  { return DefaultLogger.Enabled(l) }
func Debug(msg string, v ...any) { DefaultLogger.Debug(msg, v...) }
func Info(msg string, v ...any)  { DefaultLogger.Info(msg, v...) }
func Warn(msg string, v ...any)  { DefaultLogger.Warn(msg, v...) }
func Error(msg string, v ...any) { DefaultLogger.Error(msg, v...) }
func Output(depth int, lev slog.Level, msg string, v ...any) {
	DefaultLogger.Output(depth+1, lev, msg, v...)
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(b []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(b)
}

func (s *syncWriter) set(w io.Writer) {
	s.mu.Lock()
	s.w = w
	s.mu.Unlock()
}

type logger struct {
	level   *slog.LevelVar
	depth   int
	out     *syncWriter
	handler slog.Handler
}

// NewLogger returns a text logger on stdout. depth is the number of extra
// call frames between the caller and the logger methods, used for the
// source attribute.
func NewLogger(depth int) *logger {
	level := new(slog.LevelVar)
	out := &syncWriter{w: os.Stdout}
	return &logger{
		level: level,
		depth: 3 + depth,
		out:   out,
		handler: slog.NewTextHandler(out, &slog.HandlerOptions{
			AddSource: true,
			Level:     level,
		}),
	}
}

func (l *logger) SetLevel(z slog.Level)     { l.level.Set(z) }
func (l *logger) Enabled(z slog.Level) bool { return l.level.Level() <= z }
func (l *logger) SetOutput(w io.Writer)     { l.out.set(w) }

func (l *logger) Debug(msg string, v ...any) { l.output(l.depth, slog.LevelDebug, msg, v...) }
func (l *logger) Info(msg string, v ...any)  { l.output(l.depth, slog.LevelInfo, msg, v...) }
func (l *logger) Warn(msg string, v ...any)  { l.output(l.depth, slog.LevelWarn, msg, v...) }
func (l *logger) Error(msg string, v ...any) { l.output(l.depth, slog.LevelError, msg, v...) }

func (l *logger) Output(depth int, lev slog.Level, msg string, v ...any) {
	l.output(depth+3, lev, msg, v...)
}

func (l *logger) output(skip int, lev slog.Level, msg string, v ...any) {
	if !l.Enabled(lev) {
		return
	}

	var pcs [1]uintptr
	runtime.Callers(skip, pcs[:])

	r := slog.NewRecord(time.Now(), lev, msg, pcs[0])
	r.Add(v...)
	_ = l.handler.Handle(context.Background(), r)
}
