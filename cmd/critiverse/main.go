package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"gopkg.in/natefinch/lumberjack.v2"

	"critiverse/config"
	"critiverse/handlers"
	"critiverse/services/accounts"
	"critiverse/services/catalog"
	"critiverse/services/favorites"
	"critiverse/services/metadata"
	"critiverse/services/reviews"
	"critiverse/services/scheduler"
	"critiverse/services/sessions"
	"critiverse/storage"
	"critiverse/utils"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if cfg.LogFile != "" {
		log.SetOutput(io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    20, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}))
	}

	log.Printf("[main] starting critiverse, data dir %s", cfg.DataDir)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("failed to create data dir: %v", err)
	}

	store, err := storage.Open(cfg.DataDir)
	if err != nil {
		log.Fatalf("failed to open storage: %v", err)
	}
	defer store.Close()

	accountsSvc, err := accounts.NewService(cfg.DataDir)
	if err != nil {
		log.Fatalf("failed to initialize accounts: %v", err)
	}
	sessionsSvc, err := sessions.NewService(cfg.DataDir, sessions.DefaultSessionDuration)
	if err != nil {
		log.Fatalf("failed to initialize sessions: %v", err)
	}

	metadataSvc := metadata.NewService(metadata.Config{
		TMDBAPIKey:     cfg.TMDBAPIKey,
		RAWGAPIKey:     cfg.RAWGAPIKey,
		YouTubeAPIKey:  cfg.YouTubeAPIKey,
		Region:         cfg.Region,
		PrimaryLocale:  cfg.PrimaryLocale,
		FallbackLocale: cfg.FallbackLocale,
		CacheTTL:       cfg.CacheTTL,
		RequestTimeout: cfg.RequestTimeout,
		CacheDir:       cfg.DataDir,
	})

	catalogSvc := catalog.NewService(store, metadataSvc)
	reviewsSvc := reviews.NewService(store)
	favoritesSvc := favorites.NewService(store)

	schedulerSvc := scheduler.NewService(metadataSvc, sessionsSvc)
	if err := schedulerSvc.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}

	router := utils.NewRouter()
	handlers.RegisterRoutes(router, handlers.Deps{
		Accounts:  accountsSvc,
		Sessions:  sessionsSvc,
		Catalog:   catalogSvc,
		Reviews:   reviewsSvc,
		Favorites: favoritesSvc,
		Metadata:  metadataSvc,
		Scheduler: schedulerSvc,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[main] listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Printf("[main] received signal %s, shutting down", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	schedulerSvc.Stop(ctx)
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[main] server shutdown: %v", err)
	}
	log.Printf("[main] bye")
}
