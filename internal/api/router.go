package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"roadwatch/internal/api/handlers/http/admin"
	"roadwatch/internal/api/handlers/http/public"
	"roadwatch/internal/api/handlers/http/report"
	"roadwatch/internal/api/handlers/http/system"
	"roadwatch/internal/config"
	"roadwatch/internal/middleware"
	"roadwatch/internal/service"
	"roadwatch/internal/storage/media"
)

type Server struct {
	logger *slog.Logger
	router *chi.Mux
	cfg    config.Config
}

func NewServer(cfg *config.Config, logger *slog.Logger, svc *service.Service, mediaStore media.Store) *Server {
	reportHandler := report.NewHandler(logger, svc.Report, mediaStore)
	publicHandler := public.NewHandler(logger, svc.Verification, svc.Query)
	adminHandler := admin.NewHandler(logger, svc.Admin)
	systemHandler := system.NewHandler(logger)

	r := InitRouter(cfg, reportHandler, publicHandler, adminHandler, systemHandler, logger)

	return &Server{
		logger: logger,
		router: r,
		cfg:    *cfg,
	}
}

func InitRouter(cfg *config.Config, reportHandler *report.Handler, publicHandler *public.Handler, adminHandler *admin.Handler, systemHandler *system.Handler, logger *slog.Logger) *chi.Mux {
	r := chi.NewMux()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Logger)

	r.Route("/api/v1", func(api chi.Router) {
		// REPORT INTAKE
		api.Route("/reports", func(rr chi.Router) {
			rr.Use(middleware.Limit(10, 20, 5*time.Minute, logger))
			rr.Post("/", reportHandler.ReportFragment)
			rr.Post("/start", reportHandler.ReportStart)
			rr.Post("/reset", reportHandler.ReportReset)
		})

		api.Route("/media", func(mr chi.Router) {
			mr.Use(middleware.Limit(5, 10, 5*time.Minute, logger))
			mr.Post("/upload-url", reportHandler.MediaUploadURL)
		})

		// PUBLIC
		api.Route("/incidents", func(ir chi.Router) {
			ir.Use(middleware.Limit(10, 20, 5*time.Minute, logger))
			ir.Get("/nearby", publicHandler.IncidentsNearby)
			ir.Get("/active", publicHandler.IncidentsActive)
			ir.Post("/{id}/confirm", publicHandler.IncidentConfirm)
		})

		// ADMIN
		api.Route("/admin", func(ar chi.Router) {
			ar.Use(middleware.RequireAPIKey(cfg.APIKey, logger))
			ar.Use(middleware.Limit(2, 5, 10*time.Minute, logger))

			ar.Get("/stats", adminHandler.AdminStats)
			ar.Get("/leaderboard", adminHandler.AdminLeaderboard)

			ar.Route("/incidents", func(ir chi.Router) {
				ir.Get("/", adminHandler.AdminIncidentList)

				ir.Route("/{id}", func(rr chi.Router) {
					rr.Get("/", adminHandler.AdminIncidentGet)
					rr.Put("/status", adminHandler.AdminIncidentUpdateStatus)
				})
			})
		})

		// SYSTEM
		api.Get("/health", systemHandler.SystemHealth)
	})

	return r
}

func (s *Server) Run(ctx context.Context) error {
	port := s.cfg.Http.Port
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	srv := &http.Server{
		Addr:         port,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Http.ReadTimeout,
		WriteTimeout: s.cfg.Http.WriteTimeout,
		IdleTimeout:  30 * time.Second,
	}

	errChan := make(chan error, 1)

	go func() {
		s.logger.Info("Starting HTTP server",
			slog.String("addr", srv.Addr),
			slog.Duration("read_timeout", s.cfg.Http.ReadTimeout),
			slog.Duration("write_timeout", s.cfg.Http.WriteTimeout),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("ListenAndServe error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down HTTP server", slog.String("reason", ctx.Err().Error()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Http.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Server shutdown failed", slog.Any("error", err))
			return err
		}

		s.logger.Info("HTTP server stopped gracefully")
		return nil
	case err := <-errChan:
		return err
	}
}
