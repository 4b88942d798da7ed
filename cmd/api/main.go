// @title JobMatch API
// @version 1.0
// @description Job board backend with resume scoring and shortlisting
// @BasePath /api/v1
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"JobMatch-backend/internal/audit"
	"JobMatch-backend/internal/auth"
	"JobMatch-backend/internal/config"
	"JobMatch-backend/internal/database"
	"JobMatch-backend/internal/review"
	"JobMatch-backend/internal/scoring"
	"JobMatch-backend/internal/server"
	"JobMatch-backend/internal/storage"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")
	done <- true
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewDBInstance(database.NewDBConfig(cfg.Database))
	if err != nil {
		log.Fatalf("Database failed to initialized: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Failed to close database: %v", err)
		}
	}()

	if err := db.EnsureAdmin(cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatalf("Failed to create admin: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var objects storage.ObjectStore
	if cfg.Storage.Bucket != "" {
		gcs, err := storage.NewCloudStorageClient(ctx, cfg.Storage)
		if err != nil {
			log.Fatalf("Failed to create cloud storage client: %v", err)
		}
		defer func() { _ = gcs.Close() }()
		objects = gcs
		log.Printf("Storing resumes in bucket %s", cfg.Storage.Bucket)
	} else {
		log.Println("No bucket configured, storing resumes in the database")
	}

	reviewer, closeReviewer, err := review.New(ctx, cfg.Review, cfg.Scorer)
	if err != nil {
		log.Fatalf("Failed to create resume reviewer: %v", err)
	}
	defer func() { _ = closeReviewer() }()

	blacklist := auth.NewInMemoryBlacklistStore()
	go blacklist.RunCleanup(ctx, 10*time.Minute)

	apiServer := server.NewServer(&server.MyServer{
		Config:    cfg,
		DB:        db,
		Tokens:    auth.NewTokenIssuer(cfg.SecretKey),
		Blacklist: blacklist,
		Audit:     audit.New(cfg.Logging, "log"),
		Resumes:   storage.NewDBResumeStorage(db.DB, objects),
		Scorer:    scoring.NewClient(cfg.Scorer.URL, cfg.Scorer.Timeout, cfg.Scorer.TempDir),
		Reviewer:  reviewer,
	})

	done := make(chan bool, 1)
	go gracefulShutdown(apiServer, done)

	log.Printf("Listening on %s", apiServer.Addr)
	if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("http server error: %s", err)
	}

	<-done
	log.Println("Graceful shutdown complete.")
}
