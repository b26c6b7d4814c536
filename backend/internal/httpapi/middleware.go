package httpapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

type ctxKey int

const requestIDKey ctxKey = 0

// RequestID returns the id attached by the request id middleware.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// requestIDMiddleware keeps an incoming X-Request-ID or generates one.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// accessLog writes one structured line per request.
func accessLog(log *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return handlers.CustomLoggingHandler(io.Discard, next, func(_ io.Writer, p handlers.LogFormatterParams) {
			log.Info("http request",
				zap.String("method", p.Request.Method),
				zap.String("path", p.URL.Path),
				zap.Int("status", p.StatusCode),
				zap.Int("size", p.Size),
				zap.Duration("duration", time.Since(p.TimeStamp)),
				zap.String("request_id", p.Request.Header.Get(requestIDHeader)),
				zap.String("remote_addr", p.Request.RemoteAddr))
		})
	}
}

// recoveryLogger adapts zap to handlers.RecoveryHandlerLogger.
type recoveryLogger struct{ log *zap.Logger }

func (l recoveryLogger) Println(v ...any) {
	l.log.Error("panic in handler", zap.String("panic", fmt.Sprint(v...)))
}

// recoveryWriter remembers whether a response was started, so the status
// written by handlers.RecoveryHandler does not clobber the JSON error body.
type recoveryWriter struct {
	http.ResponseWriter
	wrote bool
}

func (w *recoveryWriter) WriteHeader(code int) {
	if w.wrote {
		return
	}
	w.wrote = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *recoveryWriter) Write(b []byte) (int, error) {
	w.wrote = true
	return w.ResponseWriter.Write(b)
}

// recovery turns a handler panic into a 500 {"detail"} response. The panic is
// re-raised for handlers.RecoveryHandler, which logs it.
func recovery(log *zap.Logger) mux.MiddlewareFunc {
	rh := handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{log}), handlers.PrintRecoveryStack(false))
	return func(next http.Handler) http.Handler {
		guarded := rh(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					if rw, ok := w.(*recoveryWriter); ok && !rw.wrote {
						writeError(rw, internal("Internal Server Error"))
					}
					panic(v)
				}
			}()
			next.ServeHTTP(w, r)
		}))
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			guarded.ServeHTTP(&recoveryWriter{ResponseWriter: w}, r)
		})
	}
}

// cors allows the browser frontend to call the API with credentials. Any
// header a preflight asks for is allowed.
func cors(origins []string) func(http.Handler) http.Handler {
	opts := []handlers.CORSOption{
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", requestIDHeader}),
		handlers.ExposedHeaders([]string{requestIDHeader}),
		handlers.AllowCredentials(),
	}
	return func(next http.Handler) http.Handler {
		base := handlers.CORS(opts...)(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requested := r.Header.Get("Access-Control-Request-Headers")
			if r.Method != http.MethodOptions || requested == "" {
				base.ServeHTTP(w, r)
				return
			}
			// handlers.CORS matches headers exactly, so extend the list per preflight.
			perRequest := append(opts[:len(opts):len(opts)], handlers.AllowedHeaders(strings.Split(requested, ",")))
			handlers.CORS(perRequest...)(next).ServeHTTP(w, r)
		})
	}
}
