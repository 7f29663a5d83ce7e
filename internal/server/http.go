// Package server assembles the HTTP stack: router, CORS, authentication,
// metrics, and the graceful-shutdown lifecycle.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"intelliflow/backend/internal/config"
	"intelliflow/backend/internal/db"
	healthhandler "intelliflow/backend/internal/health/handler"
	"intelliflow/backend/internal/security"
	"intelliflow/backend/internal/server/middleware"
	userhandler "intelliflow/backend/internal/user/handler"
	"intelliflow/backend/internal/user/repository"
	"intelliflow/backend/internal/user/service"
)

// Server is the HTTP server with all routes and middleware wired.
type Server struct {
	http   *http.Server
	logger *zap.Logger
}

// New builds the full handler chain from configuration and the database.
func New(cfg *config.Config, database *db.DB, logger *zap.Logger) *Server {
	codec := security.NewTokenCodec(cfg.JWTSecretKey, cfg.JWTRefreshKey, cfg.AccessTTL(), cfg.RefreshTTL())
	hasher := security.NewHasher(cfg.BcryptCost)
	txm := db.NewTxManager(database, logger)
	repo := repository.NewPostgresRepository(database)
	userSvc := service.New(repo, txm, codec, hasher, logger)

	cookies := middleware.CookiePolicy{
		AccessName:  cfg.AccessTokenCookie,
		RefreshName: cfg.RefreshTokenCookie,
		SessionName: cfg.SessionIDCookie,
		Production:  cfg.IsProduction(),
	}

	router := mux.NewRouter()
	router.Use(metricsMiddleware)

	router.HandleFunc("/", rootHandler).Methods(http.MethodGet)
	router.HandleFunc("/health", healthhandler.New(database, logger).Health).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	users := userhandler.New(userSvc, cookies, cfg.AccessTTL(), logger)
	users.Routes(router.PathPrefix("/api/v1/user").Subrouter())

	auth := middleware.NewAuth(codec, cookies, middleware.DefaultPublicPaths, logger)

	corsOpts := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOriginsList(),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	return &Server{
		http: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      corsOpts.Handler(auth.Handler(router)),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// Run serves until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	s.logger.Info("http server listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func rootHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"service": "intelliflow",
		"status":  "running",
	})
}
