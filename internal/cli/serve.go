package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"textdigest/internal/api"
	"textdigest/internal/auth"
	"textdigest/internal/config"
	"textdigest/internal/database"
	"textdigest/internal/ratelimiter"
	"textdigest/internal/scheduler"
	"textdigest/internal/summarizer"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	log := logger
	start := time.Now()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err = cfg.ValidateServe(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	db, err := database.New(ctx, cfg.DBDriver, cfg.DBDSN, log)
	if err != nil {
		return fmt.Errorf("initialize db: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.ErrorContext(ctx, "Failed to close db",
				"error", err,
				"driver", cfg.DBDriver)
		}
	}()
	log.InfoContext(ctx, "DB is initialized",
		"driver", cfg.DBDriver)

	authService, err := auth.NewService(db, cfg.SecretKey, cfg.AccessTokenLifetime, cfg.RefreshTokenLifetime)
	if err != nil {
		return fmt.Errorf("initialize auth: %w", err)
	}

	instructions, err := summarizer.LoadInstructions(cfg.InstructionsFile)
	if err != nil {
		return fmt.Errorf("load instructions: %w", err)
	}

	transformer, err := summarizer.NewOpenAITransformer(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	if err != nil {
		return fmt.Errorf("create OpenAI transformer: %w", err)
	}
	log.InfoContext(ctx, "OpenAI transformer is initialized",
		"provider", "openai",
		"model", cfg.OpenAIModel)

	limiter := ratelimiter.New(transformer, cfg.TransformMinInterval, auth.UserID, log)
	defer limiter.Stop()

	server := api.New(db, authService, limiter, instructions, api.Options{
		TransformTimeout: cfg.TransformTimeout,
		MaxBodyBytes:     cfg.MaxBodyBytes,
	}, log)

	sched := scheduler.New(ctx, db, cfg.MaintenanceSpec, log)
	if err = sched.Start(); err != nil {
		return fmt.Errorf("start scheduler (spec %q): %w", sched.Spec(), err)
	}
	defer sched.Stop()
	log.InfoContext(ctx, "Scheduler is started",
		"spec", sched.Spec(),
		"timezone", time.FixedZone(scheduler.Timezone, scheduler.TimezoneOffsetSeconds).String())

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.ListenAndServe()
	}()
	log.InfoContext(ctx, "HTTP server is started",
		"addr", cfg.ListenAddr,
		"transformMinInterval", cfg.TransformMinInterval.String())

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(c)

	select {
	case sig := <-c:
		log.InfoContext(ctx, "Shutdown signal is received",
			"signal", sig.String())
	case err = <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve HTTP: %w", err)
		}
	}
	cancel()

	// In-flight handlers still need the store, which is closed after Shutdown.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), drainTimeout(cfg.TransformTimeout))
	defer shutdownCancel()

	if err = httpServer.Shutdown(shutdownCtx); err != nil {
		log.ErrorContext(shutdownCtx, "Failed to shut down HTTP server",
			"error", err)
	}

	log.InfoContext(shutdownCtx, "HTTP server is stopped",
		"uptimeSeconds", time.Since(start).Seconds())

	return nil
}

// drainTimeout lets a transformation started just before shutdown finish and
// write its record.
func drainTimeout(transformTimeout time.Duration) time.Duration {
	return max(transformTimeout, 0) + shutdownTimeout
}
