package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/deidaraiorek/botanica/internal/api"
	"github.com/deidaraiorek/botanica/internal/config"
	"github.com/deidaraiorek/botanica/internal/logger"
	"github.com/deidaraiorek/botanica/internal/query"
	"github.com/deidaraiorek/botanica/internal/storage"
	"github.com/deidaraiorek/botanica/internal/textprocessor"
)

func init() {
	godotenv.Load()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logg, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logg.Sync()

	store, err := storage.Open(cfg.DatabasePath, logg)
	if err != nil {
		logg.Fatal("failed to open catalog", "database", cfg.DatabasePath, "error", err)
	}
	defer store.Close()

	if count, err := store.Health(context.Background()); err != nil {
		logg.Warn("catalog not ready, run the ingester first", "error", err)
	} else {
		logg.Info("catalog opened", "database", cfg.DatabasePath, "plants", count)
	}

	tp, err := textprocessor.NewTextProcessor(cfg.Search.StemLanguage)
	if err != nil {
		logg.Fatal("failed to create text processor", "error", err)
	}

	limits := query.Limits{Default: cfg.Query.DefaultLimit, Max: cfg.Query.MaxLimit}
	engine := query.NewEngine(store, tp, limits, cfg.Search.Limit, logg)
	cache := query.NewCache(engine, store, logg)
	handler := api.NewHandler(cache, store, limits, logg)
	router := api.NewRouter(handler, cfg.Server.RequestTimeout, logg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := api.NewServer(cfg.Server.Addr, router, cache, cfg.Server.CacheCheckInterval, logg)
	if err := server.Run(ctx); err != nil {
		logg.Error("server stopped", "error", err)
		return
	}
	logg.Info("server stopped")
}
