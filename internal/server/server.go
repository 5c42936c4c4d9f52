// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer. It decides:
// - Which URL patterns map to which handler functions
// - What middleware runs on which routes
// - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
// main.go loads config.Config and builds the logger, then Server.New creates:
//
//	sqlite.DB         → StudentService, AnalyticsService
//	sqlite.AdminStore → AdminService (+ PasswordService, TokenService)
//	storage.Uploader  → UploadService
//	services          → handlers → routes
//
// This is the "composition root" pattern: all dependencies are wired in one
// place, rather than scattered across the codebase.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/student-profiles/internal/auth"
	"github.com/sakif/student-profiles/internal/config"
	"github.com/sakif/student-profiles/internal/handler"
	"github.com/sakif/student-profiles/internal/middleware"
	"github.com/sakif/student-profiles/internal/profile"
	sqliteRepo "github.com/sakif/student-profiles/internal/repository/sqlite"
	"github.com/sakif/student-profiles/internal/service"
	"github.com/sakif/student-profiles/internal/storage"
)

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection. Start closes it after the
// HTTP server has drained; tests that never call Start call Close.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	tokens *auth.TokenService
}

// New creates a Server from cfg.
//
// Each layer only receives what it needs:
// - Services get repository interfaces (not the concrete sqlite.DB)
// - Handlers get services (not the repository or DB)
//
// IMPORT ALIAS:
// repository/sqlite is imported as `sqliteRepo` to keep it apart from the
// modernc.org/sqlite driver package.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	store, err := newUploader(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("creating file storage: %w", err)
	}

	db, err := sqliteRepo.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
		tokens: tokens,
	}
	s.setupRoutes(store, auth.NewPasswordService())

	return s, nil
}

// newUploader picks the file storage backend named by cfg.Storage.Driver.
func newUploader(cfg *config.Config, logger *slog.Logger) (storage.Uploader, error) {
	switch cfg.Storage.Driver {
	case config.StorageCloudinary:
		return storage.NewCloudinary(storage.CloudinaryConfig{
			CloudName: cfg.Storage.Cloudinary.CloudName,
			APIKey:    cfg.Storage.Cloudinary.APIKey,
			APISecret: cfg.Storage.Cloudinary.APISecret,
		})
	case config.StorageLocal:
		return storage.NewLocal(cfg.Storage.Local.Dir, cfg.Storage.Local.BaseURL, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET    /healthz                       → database ping
// GET    /uploads/*                     → local storage files (local driver only)
// GET    /api/students                  → list
// POST   /api/students                  → create (admin)
// GET    /api/students/{id}             → get by id or slug
// PUT    /api/students/{id}             → partial update
// DELETE /api/students/{id}             → delete
// POST   /api/students/{id}/verify      → check the edit password
// POST   /api/analytics/visit/{id}      → count a visit
// GET    /api/analytics/{platform}/{id} → count a click, redirect
// POST   /api/upload                    → image or document upload
// POST   /api/upload/cv                 → CV upload
// GET    /api/download-cv               → CV download proxy
// POST   /api/auth/login                → admin login
// POST   /api/auth/logout               → admin logout
// GET    /api/auth/session              → session state
// POST   /api/admin/change-password     → change admin password (admin)
// GET    /api/init                      → bootstrap the admin
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns a unique ID to each request (for tracing)
// 2. RealIP: extracts the real client IP from proxy headers
// 3. Recoverer: catches panics and returns 500 instead of crashing
// 4. Logger: logs each request with timing info and the request ID
func (s *Server) setupRoutes(store storage.Uploader, passwords *auth.PasswordService) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// === Services ===
	// s.db implements repository.StudentRepository; s.db.Admin() implements
	// repository.AdminRepository.
	students := service.NewStudentService(s.db, profile.NewGenerator(), s.logger)
	analytics := service.NewAnalyticsService(s.db, s.logger)
	admins := service.NewAdminService(s.db.Admin(), passwords, s.tokens, s.logger)
	uploads := service.NewUploadService(store, s.logger)

	// === Handlers ===
	studentHandler := handler.NewStudentHandler(students, s.tokens, s.logger)
	analyticsHandler := handler.NewAnalyticsHandler(analytics, s.config.Server.NotFoundPath, s.logger)
	uploadHandler := handler.NewUploadHandler(uploads, s.config.Upload.MaxBytes, s.logger)
	downloadHandler := handler.NewDownloadHandler(s.config.Download.Timeout, s.config.Download.AllowedHosts, s.logger)
	authHandler := handler.NewAuthHandler(admins, s.tokens, s.config.Auth.CookieSecure, s.logger)

	requireAdmin := auth.RequireAuth(s.tokens)

	s.router.Get("/healthz", handler.HandleHealth(s.db.Ping))

	if s.config.Storage.Driver == config.StorageLocal {
		if prefix := uploadsPrefix(s.config.Storage.Local.BaseURL); prefix != "" {
			// http.StripPrefix removes the prefix before the file lookup, so
			// GET /uploads/student-cvs/ada.pdf serves {Dir}/student-cvs/ada.pdf.
			s.router.Handle(prefix+"*", http.StripPrefix(prefix, uploadedFiles(s.config.Storage.Local.Dir)))
		}
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/students", func(r chi.Router) {
			r.Get("/", studentHandler.HandleList)
			r.With(requireAdmin).Post("/", studentHandler.HandleCreate)
			r.Get("/{id}", studentHandler.HandleGet)
			r.Put("/{id}", studentHandler.HandleUpdate)
			r.Delete("/{id}", studentHandler.HandleDelete)
			r.Post("/{id}/verify", studentHandler.HandleVerify)
		})

		// "visit" is a static segment, so chi matches it before {platform}.
		r.Post("/analytics/visit/{id}", analyticsHandler.HandleVisit)
		r.Get("/analytics/{platform}/{id}", analyticsHandler.HandleClick)

		r.Post("/upload", uploadHandler.HandleUpload)
		r.Post("/upload/cv", uploadHandler.HandleUploadCV)
		r.Get("/download-cv", downloadHandler.HandleDownloadCV)

		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/logout", authHandler.HandleLogout)
		r.Get("/auth/session", authHandler.HandleSession)
		r.With(requireAdmin).Post("/admin/change-password", authHandler.HandleChangePassword)

		r.Get("/init", authHandler.HandleInit)
	})
}

// uploadedFiles serves stored uploads as plain files: directory paths are 404
// so folders cannot be listed, and nosniff keeps browsers from treating a
// file as anything but its extension's type.
func uploadedFiles(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		if info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(path.Clean("/"+r.URL.Path)))); err == nil && info.IsDir() {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		files.ServeHTTP(w, r)
	})
}

// uploadsPrefix is the path part of the local storage base URL as a route
// prefix ("/uploads/"), or "" when the files are served elsewhere.
func uploadsPrefix(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	p := strings.Trim(u.Path, "/")
	if p == "" {
		return ""
	}
	return "/" + p + "/"
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (ShutdownTimeout)
// 3. Close the database connection (flushes WAL, releases file lock)
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  2 * s.config.Server.ReadTimeout,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Server.Port)),
			slog.String("database", s.config.Database.Path),
			slog.String("storage", s.config.Storage.Driver),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
