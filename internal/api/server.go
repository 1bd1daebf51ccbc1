package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"textdigest/internal/auth"
	"textdigest/internal/domain"
	"textdigest/internal/summarizer"
)

const (
	defaultTransformTimeout = 120 * time.Second
	defaultMaxBodyBytes     = 1 << 20
)

type RecordStore interface {
	CreateRecord(ctx context.Context, r *domain.Record) error
	Ping(ctx context.Context) error
}

type Authenticator interface {
	Login(ctx context.Context, username string, password string) (auth.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Authenticate(ctx context.Context, accessToken string) (*domain.User, error)
}

type Options struct {
	TransformTimeout time.Duration
	MaxBodyBytes     int64
}

type Server struct {
	store        RecordStore
	auth         Authenticator
	transformer  summarizer.Transformer
	instructions summarizer.Instructions
	opts         Options
	log          *slog.Logger
}

func New(
	store RecordStore,
	authenticator Authenticator,
	transformer summarizer.Transformer,
	instructions summarizer.Instructions,
	opts Options,
	log *slog.Logger,
) *Server {
	if opts.TransformTimeout <= 0 {
		opts.TransformTimeout = defaultTransformTimeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}

	return &Server{
		store:        store,
		auth:         authenticator,
		transformer:  transformer,
		instructions: instructions,
		opts:         opts,
		log:          log,
	}
}

// Handler returns the routed handler wrapped in request logging and recovery.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/generate-summary/{$}", s.requireAuth(s.transformHandler(domain.ModeSummary)))
	mux.Handle("/generate-bullet-points/{$}", s.requireAuth(s.transformHandler(domain.ModeBulletPoints)))
	mux.HandleFunc("/api/token/{$}", s.handleTokenObtain)
	mux.HandleFunc("/api/token/refresh/{$}", s.handleTokenRefresh)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, detailResponse{Detail: "Not found."})
	})

	return s.withRequestLog(s.withRecover(mux))
}
