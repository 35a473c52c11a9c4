//	@title			Gallery API
//	@version		1.0
//	@description	Gallery-management backend: public artwork listing plus an admin-gated upload pipeline.
//
//	@host		localhost:8080
//	@BasePath	/api/v1
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Bearer token. Format: **Bearer {token}**

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"github.com/gallery/service/internal/artwork"
	"github.com/gallery/service/internal/auth"
	"github.com/gallery/service/internal/config"
	"github.com/gallery/service/internal/db"
	appMiddleware "github.com/gallery/service/internal/middleware"
	"github.com/gallery/service/internal/observability"
	"github.com/gallery/service/internal/storage"

	_ "github.com/gallery/service/docs/swagger"
)

func main() {
	cfg := config.Load()

	logger, err := observability.NewLogger(cfg.IsProduction())
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal("database migration failed", zap.Error(err))
	}
	logger.Info("database ready")

	blobs, localStore, err := newBlobStore(cfg)
	if err != nil {
		logger.Fatal("blob storage init failed", zap.Error(err))
	}
	logger.Info("blob storage ready", zap.String("driver", cfg.StorageDriver))

	// Wire dependencies: repository → service → handler
	artworkRepo := artwork.NewRepository(pool)
	artworkSvc := artwork.NewService(artworkRepo, blobs, logger)
	artworkHandler := artwork.NewHandler(artworkSvc, logger)

	authSvc := auth.NewService(cfg.AdminEmail, cfg.AdminPassword, cfg.JWTSecret, cfg.TokenTTL)
	authHandler := auth.NewHandler(authSvc, logger)

	// Router
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Swagger UI — available at http://localhost:8080/swagger/
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// Local uploads are served as static files; remote blobs are served by
	// the object store itself.
	if localStore != nil {
		prefix := strings.TrimRight(cfg.ImagePublicBase, "/")
		fileServer := http.StripPrefix(prefix, http.FileServer(http.Dir(localStore.Dir())))
		r.Get(prefix+"/*", fileServer.ServeHTTP)
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Public gallery
		r.Get("/gallery", artworkHandler.Gallery)
		r.Get("/gallery/{id}", artworkHandler.GalleryItem)

		// Admin
		r.Post("/admin/login", authHandler.Login)
		r.Route("/admin/artworks", func(r chi.Router) {
			r.Use(appMiddleware.RequireAdmin(authSvc))
			r.Get("/", artworkHandler.List)
			r.Post("/", artworkHandler.Create)
			r.Put("/{id}", artworkHandler.Update)
			r.Delete("/{id}", artworkHandler.Delete)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

// newBlobStore selects the blob backend from configuration. The second
// return value is non-nil only for the local driver, whose directory the
// server must serve itself.
func newBlobStore(cfg *config.Config) (storage.BlobStore, *storage.LocalStore, error) {
	if cfg.StorageDriver == "minio" {
		s, err := storage.NewMinioStore(
			cfg.StorageEndpoint,
			cfg.StorageAccessKey,
			cfg.StorageSecretKey,
			cfg.StorageBucket,
			cfg.StorageFolder,
			cfg.StoragePublicBase,
			cfg.StorageUseSSL,
			cfg.UploadTimeout,
		)
		return s, nil, err
	}
	s, err := storage.NewLocalStore(cfg.UploadDir, cfg.ImagePublicBase)
	return s, s, err
}
