package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"f2v2f-service/pkg/config"
)

// Logger 日志服务，封装 logrus
type Logger struct {
	entry *logrus.Logger
	file  *os.File
}

var (
	globalMu     sync.RWMutex
	globalLogger = newDefault()
)

func newDefault() *Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return &Logger{entry: l}
}

// NewLogger 根据配置创建日志服务
func NewLogger(cfg *config.Config) *Logger {
	if cfg == nil {
		return newDefault()
	}
	return New(cfg.Log)
}

// New builds a logger from the log section alone.
func New(cfg config.LogConfig) *Logger {
	l := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if strings.EqualFold(cfg.Format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	out := &Logger{entry: l}
	var w io.Writer = os.Stdout
	switch strings.ToLower(cfg.Output) {
	case "stderr":
		w = os.Stderr
	case "file":
		if cfg.Filename != "" {
			f, err := os.OpenFile(cfg.Filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err == nil {
				out.file = f
				w = f
			}
		}
	}
	l.SetOutput(w)
	return out
}

// Close 释放日志文件句柄
func (l *Logger) Close() {
	if l != nil && l.file != nil {
		_ = l.file.Close()
	}
}

// Raw exposes the underlying logrus logger.
func (l *Logger) Raw() *logrus.Logger {
	return l.entry
}

// SetGlobalLogger 替换全局日志服务
func SetGlobalLogger(l *Logger) {
	if l == nil {
		return
	}
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = l
}

func current() *logrus.Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger.entry
}

func withFields(fields []map[string]interface{}) *logrus.Entry {
	entry := logrus.NewEntry(current())
	for _, f := range fields {
		if len(f) > 0 {
			entry = entry.WithFields(logrus.Fields(f))
		}
	}
	return entry
}

// WithFields returns an entry carrying the given fields.
func WithFields(fields map[string]interface{}) *logrus.Entry {
	return current().WithFields(logrus.Fields(fields))
}

func Debugf(format string, args ...interface{}) { current().Debugf(format, args...) }
func Infof(format string, args ...interface{})  { current().Infof(format, args...) }
func Warnf(format string, args ...interface{})  { current().Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { current().Errorf(format, args...) }

func Debug(msg string, fields ...map[string]interface{}) { withFields(fields).Debug(msg) }
func Info(msg string, fields ...map[string]interface{})  { withFields(fields).Info(msg) }
func Warn(msg string, fields ...map[string]interface{})  { withFields(fields).Warn(msg) }
func Error(msg string, fields ...map[string]interface{}) { withFields(fields).Error(msg) }

// Fatal 记录日志后退出进程
func Fatal(msg string, fields ...map[string]interface{}) { withFields(fields).Fatal(msg) }
