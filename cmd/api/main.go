package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/bryanwahyu/doc-insight/internal/application"
	"github.com/bryanwahyu/doc-insight/internal/application/accounts"
	appanalysis "github.com/bryanwahyu/doc-insight/internal/application/analysis"
	"github.com/bryanwahyu/doc-insight/internal/config"
	domain "github.com/bryanwahyu/doc-insight/internal/domain/analysis"
	"github.com/bryanwahyu/doc-insight/internal/domain/users"
	"github.com/bryanwahyu/doc-insight/internal/infra/ai/openai"
	"github.com/bryanwahyu/doc-insight/internal/infra/extract"
	"github.com/bryanwahyu/doc-insight/internal/infra/httpserver"
	"github.com/bryanwahyu/doc-insight/internal/infra/report"
	"github.com/bryanwahyu/doc-insight/internal/infra/storage"
	"github.com/bryanwahyu/doc-insight/internal/infra/store"
	"github.com/bryanwahyu/doc-insight/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	for _, dir := range []string{cfg.Storage.UploadDir, cfg.Storage.ReportDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	// init store (json by default, sqlite when configured)
	var (
		userRepo users.Repository
		ledger   domain.Ledger
		checkers = map[string]middleware.HealthChecker{}
	)
	switch cfg.Storage.Driver {
	case "sqlite":
		db, err := store.OpenSQLite(ctx, filepath.Join(cfg.Storage.DataDir, "doc-insight.db"))
		if err != nil {
			log.Fatalf("sqlite open error: %v", err)
		}
		defer db.Close()
		userRepo, ledger = db, db
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db.DB()}
	default:
		js, err := store.NewJSON(cfg.Storage.DataDir)
		if err != nil {
			log.Fatalf("store init error: %v", err)
		}
		userRepo, ledger = js, js
		checkers["store"] = &middleware.StoreHealthChecker{Store: js}
	}

	// init AI client
	aiClient := openai.NewClient(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.Model)
	if cfg.AI.APIKey == "" {
		log.Println("warning: no AI API key configured, analyses will return placeholder errors")
	}

	// init optional report mirror
	var mirror domain.Mirror
	if cfg.Minio.Enabled {
		st, err := storage.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.Fatalf("minio init error: %v", err)
		}
		mirror = st
	}

	// init services
	accountsSvc := &accounts.Service{
		Users:  userRepo,
		Ledger: ledger,
		Clock:  application.SystemClock{},
	}
	analysisSvc := &appanalysis.Service{
		Ledger:      ledger,
		AI:          aiClient,
		Extractor:   &extract.Extractor{},
		Renderer:    report.FileRenderer{},
		Mirror:      mirror,
		Clock:       application.SystemClock{},
		UploadDir:   cfg.Storage.UploadDir,
		ReportDir:   cfg.Storage.ReportDir,
		TaskTimeout: cfg.AITimeout(),
	}

	// init router
	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)

	mux.Get("/health", middleware.HealthHandler(checkers))
	mux.Get("/metrics", middleware.MetricsHandler)
	mux.Mount("/", httpserver.NewRouter(accountsSvc, analysisSvc, cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // /analyze waits on six LLM calls
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
