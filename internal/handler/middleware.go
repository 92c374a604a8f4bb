package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cloudmesh/ledger/internal/domain"
	"github.com/cloudmesh/ledger/internal/service"
)

type contextKey string

const (
	contextKeyCaller    contextKey = "caller"
	contextKeyRequestID contextKey = "request_id"

	headerRequestID = "X-Request-ID"
)

// RequestID assigns each request an ID, echoed in the response headers.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)

		ctx := context.WithValue(r.Context(), contextKeyRequestID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logger logs each HTTP request with structured fields.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		requestID, _ := r.Context().Value(contextKeyRequestID).(string)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", requestID,
		)
	})
}

// Recover converts panics into 500 responses.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("panic recovered", "panic", rec, "stack", string(debug.Stack()))
				WriteError(w, fmt.Errorf("panic: %v", rec))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// JWTAuth validates the Bearer token and injects the caller identity into the
// request context.
func JWTAuth(auth *service.AuthService) func(http.Handler) http.Handler {
	return jwtAuth(auth, false)
}

// StreamAuth is JWTAuth that additionally accepts the token as an
// access_token query parameter. Only the websocket stream mounts it, because
// browsers cannot set headers on upgrade requests; everywhere else tokens in
// URLs would leak into request logs.
func StreamAuth(auth *service.AuthService) func(http.Handler) http.Handler {
	return jwtAuth(auth, true)
}

func jwtAuth(auth *service.AuthService, allowQueryToken bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" && allowQueryToken {
				token = r.URL.Query().Get("access_token")
			}
			if token == "" {
				WriteError(w, domain.ErrUnauthenticated)
				return
			}

			caller, err := auth.ValidateToken(token)
			if err != nil {
				WriteError(w, domain.ErrUnauthenticated)
				return
			}

			ctx := context.WithValue(r.Context(), contextKeyCaller, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// Caller extracts the authenticated caller identity from the request context.
func Caller(ctx context.Context) (domain.PublicKey, bool) {
	caller, ok := ctx.Value(contextKeyCaller).(domain.PublicKey)
	return caller, ok
}
