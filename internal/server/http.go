package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	flowerrors "github.com/matzehuels/flowspace/pkg/errors"
	"github.com/matzehuels/flowspace/pkg/observability"
)

// ErrNoFrame is returned before the first tick.
var ErrNoFrame = errors.New("no frame yet")

var errBadView = flowerrors.New(flowerrors.ErrCodeInvalidInput, "view orientation must be a non-zero quaternion")

func errUnknownFlowchart(key string) error {
	return flowerrors.New(flowerrors.ErrCodeNotFound, "no flowchart %q", key)
}

func badRequest(format string, args ...any) error {
	return flowerrors.New(flowerrors.ErrCodeInvalidInput, format, args...)
}

// statusOf maps an error to an HTTP status by its code.
func statusOf(err error) int {
	if errors.Is(err, ErrStopped) || errors.Is(err, ErrNoFrame) {
		return http.StatusServiceUnavailable
	}
	switch flowerrors.CodeOf(err) {
	case flowerrors.ErrCodeNotFound, flowerrors.ErrCodeUnresolvedReference:
		return http.StatusNotFound
	case flowerrors.ErrCodeInvalidInput, flowerrors.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case flowerrors.ErrCodeNetwork:
		return http.StatusBadGateway
	case flowerrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// handlerFunc is an http.HandlerFunc that returns its error instead of
// writing it.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

func (s *Server) handle(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}
		status := statusOf(err)
		if status >= 500 {
			s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		} else {
			s.logger.Warn("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
		}
		msg := http.StatusText(status)
		if status < 500 || status == http.StatusServiceUnavailable {
			msg = flowerrors.UserMessage(err)
		}
		writeJSON(w, status, map[string]any{"error": msg, "code": flowerrors.CodeOf(err)})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// logRequests logs each response at a level matching its status and
// reports it to the server hooks. Panics become 500s.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger.Error("caught panic", "panic", rec, "stack", string(debug.Stack()))
				writeJSON(ww, http.StatusInternalServerError, map[string]any{"error": http.StatusText(http.StatusInternalServerError)})
			}

			dur := time.Since(start)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			observability.Server().OnResponse(r.Context(), r.Method, route, status, dur)

			args := []any{"method", r.Method, "path", r.URL.Path, "status", status, "bytes", ww.BytesWritten(), "elapsed", dur}
			switch {
			case status >= 500:
				s.logger.Error("http", args...)
			case status >= 400:
				s.logger.Warn("http", args...)
			default:
				s.logger.Debug("http", args...)
			}
		}()
		next.ServeHTTP(ww, r)
	})
}
