package server

import (
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"go.uber.org/zap"

	"github.com/go-sod/sensord/internal/logging"
)

const RequestIDHeader = "X-Request-Id"

// WithRequestID tags the request logger with an id, reusing the caller's
// X-Request-Id when present.
func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		logger := logging.FromContext(r.Context()).With("request_id", id)
		next.ServeHTTP(w, r.WithContext(logging.WithLogger(r.Context(), logger)))
	})
}

// Middleware wraps h with request ids, panic recovery and combined access logs
// written to w.
func Middleware(h http.Handler, w io.Writer, logger *zap.SugaredLogger) http.Handler {
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{logger}),
		handlers.PrintRecoveryStack(false),
	)(h)
	return WithRequestID(handlers.CombinedLoggingHandler(w, h))
}

type recoveryLogger struct {
	logger *zap.SugaredLogger
}

func (l recoveryLogger) Println(v ...interface{}) {
	l.logger.Error(v...)
}

// AccessLogWriter adapts a logger to the io.Writer expected by the access log
// handler. Every write is one log line.
func AccessLogWriter(logger *zap.SugaredLogger) io.Writer {
	return accessLog{logger: logger.Desugar().WithOptions(zap.AddCallerSkip(1))}
}

type accessLog struct {
	logger *zap.Logger
}

func (a accessLog) Write(p []byte) (int, error) {
	n := len(p)
	if n > 0 && p[n-1] == '\n' {
		p = p[:n-1]
	}
	a.logger.Info(string(p))
	return n, nil
}
