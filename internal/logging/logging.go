// Package logging configures logrus and the HTTP request logger.
package logging

import (
	"io"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/inhahackathon/foodmarket/config"
	"github.com/sirupsen/logrus"
)

// NewLogger returns a text logger at debug level in the dev profile and a
// JSON logger at info level otherwise.
func NewLogger(appName, profile string) *logrus.Logger {
	return newLogger(os.Stdout, appName, profile)
}

func newLogger(out io.Writer, appName, profile string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	if profile == config.ProfileDev {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	logger.WithFields(logrus.Fields{"app": appName, "env": profile}).Info("logger initialized")
	return logger
}

// RequestLogger logs one entry per request through logger.
func RequestLogger(logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return middleware.RequestLogger(&LogFormatter{Logger: logger})
}

// LogFormatter implements middleware.LogFormatter on top of logrus.
type LogFormatter struct {
	Logger logrus.FieldLogger
}

func (f *LogFormatter) NewLogEntry(r *http.Request) middleware.LogEntry {
	fields := logrus.Fields{
		"method":      r.Method,
		"path":        r.URL.Path,
		"remote_addr": r.RemoteAddr,
	}
	if id := middleware.GetReqID(r.Context()); id != "" {
		fields["request_id"] = id
	}
	return &logEntry{logger: f.Logger.WithFields(fields)}
}

type logEntry struct {
	logger logrus.FieldLogger
}

func (e *logEntry) Write(status, bytes int, header http.Header, elapsed time.Duration, extra any) {
	entry := e.logger.WithFields(logrus.Fields{
		"status":      status,
		"bytes":       bytes,
		"duration_ms": float64(elapsed.Microseconds()) / 1000,
	})
	switch {
	case status >= http.StatusInternalServerError:
		entry.Error("request completed")
	case status >= http.StatusBadRequest:
		entry.Warn("request completed")
	default:
		entry.Info("request completed")
	}
}

func (e *logEntry) Panic(v any, stack []byte) {
	e.logger.WithFields(logrus.Fields{
		"panic": v,
		"stack": string(stack),
	}).Error("request panicked")
}
