package api

import (
	"errors"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"textdigest/internal/auth"
)

const (
	requestIDHeader = "X-Request-ID"
	bearerPrefix    = "Bearer"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.log.InfoContext(r.Context(), "Request is handled",
			"requestID", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"durationMs", time.Since(start).Milliseconds())
	})
}

func (s *Server) withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				s.log.ErrorContext(r.Context(), "Panic while handling request",
					"panic", v,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()))

				writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// requireAuth rejects requests without a valid bearer access token before
// anything else runs.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		parts := strings.Fields(header)

		if len(parts) == 0 || parts[0] != bearerPrefix {
			writeUnauthorized(w, detailResponse{
				Detail: "Authentication credentials were not provided.",
			})
			return
		}

		if len(parts) != 2 {
			writeUnauthorized(w, detailResponse{
				Detail: "Authorization header must contain two space-delimited values",
				Code:   "bad_authorization_header",
			})
			return
		}

		user, err := s.auth.Authenticate(r.Context(), parts[1])
		if err != nil && !errors.Is(err, auth.ErrInvalidToken) {
			s.log.ErrorContext(r.Context(), "Failed to authenticate request",
				"error", err,
				"path", r.URL.Path)

			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
			return
		}
		if err != nil {
			s.log.DebugContext(r.Context(), "Bearer token is rejected",
				"error", err,
				"path", r.URL.Path)

			writeUnauthorized(w, detailResponse{
				Detail: "Given token not valid for any token type",
				Code:   "token_not_valid",
			})
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
	})
}
