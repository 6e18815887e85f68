package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"rfphub/db"
	"rfphub/db/migrations"
	"rfphub/internal/auth"
	"rfphub/internal/blob"
	"rfphub/internal/config"
	"rfphub/internal/handlers"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("cannot load config", "err", err)
		os.Exit(1)
	}

	dbConn, err := sqlx.Connect("postgres", cfg.PostgresConn)
	if err != nil {
		log.Error("cannot connect to db", "err", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	if err := migrations.Run(dbConn.DB); err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	blobs, err := blob.NewS3Store(context.Background(), blob.S3Config{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		Bucket:    cfg.S3Bucket,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
	})
	if err != nil {
		log.Error("cannot init blob store", "err", err)
		os.Exit(1)
	}

	store := db.NewStorage(dbConn)
	authr := &auth.Authenticator{Secret: []byte(cfg.JWTSecret), Users: store}
	h := handlers.NewHandler(store, blobs, log, []byte(cfg.JWTSecret), cfg.TokenTTL, cfg.MaxUploadBytes)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", h.PingHandler)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.RegisterHandler)
			r.Post("/login", h.LoginHandler)
			r.With(authr.Require).Get("/me", h.MeHandler)
		})

		r.Route("/rfps", func(r chi.Router) {
			r.With(authr.Optional).Get("/", h.ListRFPsHandler)
			r.With(authr.Optional).Get("/{rfpID}", h.GetRFPHandler)

			r.Group(func(r chi.Router) {
				r.Use(authr.Require)
				r.Post("/", h.CreateRFPHandler)
				r.Get("/my", h.MyRFPsHandler)
				r.Put("/{rfpID}", h.UpdateRFPHandler)
				r.Delete("/{rfpID}", h.DeleteRFPHandler)
				r.Post("/{rfpID}/publish", h.PublishRFPHandler)
				r.Post("/{rfpID}/close", h.CloseRFPHandler)
				r.Get("/{rfpID}/responses", h.ListRFPResponsesHandler)
				r.Get("/{rfpID}/documents", h.ListRFPDocumentsHandler)
			})
		})

		r.Route("/responses", func(r chi.Router) {
			r.Use(authr.Require)
			r.Post("/", h.CreateResponseHandler)
			r.Get("/my", h.MyResponsesHandler)
			r.Get("/{responseID}", h.GetResponseHandler)
			r.Put("/{responseID}", h.UpdateResponseHandler)
			r.Delete("/{responseID}", h.DeleteResponseHandler)
			r.Post("/{responseID}/submit", h.SubmitResponseHandler)
			r.Post("/{responseID}/review", h.ReviewResponseHandler)
		})

		r.Route("/documents", func(r chi.Router) {
			r.Use(authr.Require)
			r.Post("/upload", h.UploadDocumentHandler)
			r.Get("/{documentID}", h.GetDocumentHandler)
			r.Get("/{documentID}/download", h.DownloadDocumentHandler)
			r.Delete("/{documentID}", h.DeleteDocumentHandler)
		})
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("starting server", "addr", cfg.ServerAddress)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", "err", err)
	}
	log.Info("server stopped")
}
