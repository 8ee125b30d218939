package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	_ "github.com/proportfolio/gallery/docs"
	"github.com/proportfolio/gallery/internal/config"
	"github.com/proportfolio/gallery/internal/handlers"
	"github.com/proportfolio/gallery/internal/logger"
	"github.com/proportfolio/gallery/internal/middleware"
	"github.com/proportfolio/gallery/internal/services"
	"github.com/spf13/cobra"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := logger.Logger
	log.Info("Starting portfolio gallery",
		zap.String("backend", string(cfg.Backend)),
		zap.String("store", string(cfg.Store)),
	)

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	auth, portfolio, err := newBackends(ctx, cfg, store, log)
	if err != nil {
		return err
	}

	// Initialize services
	sessionService := services.NewSessionService(auth, store, cfg.AdminSecret, cfg.PersistAdmin(), log)
	galleryService := services.NewGalleryService(portfolio, log)

	// Initialize handlers
	viewHandler, err := handlers.NewViewHandler(sessionService, galleryService, log)
	if err != nil {
		return fmt.Errorf("failed to create view handler: %w", err)
	}
	apiHandler := handlers.NewAPIHandler(galleryService, log)

	// Setup router
	r := chi.NewRouter()

	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.RecoveryMiddleware(log))
	r.Use(middleware.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(httprate.LimitByIP(cfg.Server.RateLimit, time.Minute))
	r.Use(middleware.RequestSizeLimitMiddleware(cfg.Server.MaxBodyBytes))

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Server.Port)),
	))

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(sessionService, cfg.Server.SecureCookies, log))
		viewHandler.RegisterRoutes(r)
		apiHandler.RegisterRoutes(r)
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sweepSessions(sweepCtx, sessionService, cfg.Server.SweepInterval, cfg.Server.SessionIdle, log)

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed to start: %w", err)
	case <-quit:
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownPeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
	return nil
}

// sessionSweeper drops idle per-browser states from memory
type sessionSweeper interface {
	Sweep(maxIdle time.Duration) int
}

// sweepSessions evicts idle sessions every interval until ctx is done.
// Evicted sessions are restored from the store on their next request.
func sweepSessions(ctx context.Context, sweeper sessionSweeper, interval, maxIdle time.Duration, log *zap.Logger) {
	if interval <= 0 || maxIdle <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sweeper.Sweep(maxIdle); n > 0 {
				log.Debug("Swept idle sessions", zap.Int("count", n))
			}
		}
	}
}
