package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/theLastOfCats/series-browser/internal/api"
	"github.com/theLastOfCats/series-browser/internal/auth"
	"github.com/theLastOfCats/series-browser/internal/config"
	"github.com/theLastOfCats/series-browser/internal/db"
	"github.com/theLastOfCats/series-browser/internal/engine"
	"github.com/theLastOfCats/series-browser/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	// Initialize Auth
	if err := cfg.RequireServer(); err != nil {
		logging.Fatal().Err(err).Msg("Invalid server configuration")
	}
	auth.Init(cfg.Server.JWTSecret, cfg.Server.TokenTTL)

	// Initialize Database
	database, err := db.New(cfg.Server.DBPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer database.Close()

	if cfg.Server.CatalogSeed != "" {
		seed, err := db.LoadSeed(cfg.Server.CatalogSeed)
		if err != nil {
			logging.Fatal().Err(err).Str("path", cfg.Server.CatalogSeed).Msg("Failed to read catalog seed")
		}
		n, err := database.Seed(context.Background(), seed)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to seed catalog")
		}
		logging.Info().Int("series", n).Msg("Catalog seeded")
	}

	deps := api.Deps{
		DB:             database,
		Slugs:          db.NewSlugIndex(database, cfg.Server.SlugCacheTTL),
		CORSOrigins:    cfg.Server.CORSOrigins,
		LoginRateLimit: cfg.Server.LoginRateLimit,
	}
	if cfg.Server.EngineURL != "" {
		client := engine.NewClient(cfg.Server.EngineURL, cfg.Server.EngineTimeout)
		deps.Engine = engine.NewBreaker(client, engine.DefaultBreakerSettings())
		logging.Info().Str("url", cfg.Server.EngineURL).Msg("Search engine configured")
	} else {
		logging.Warn().Msg("ENGINE_URL not set, search and recommendations answer 503")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           api.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Error().Err(err).Msg("Shutdown failed")
		}
	}()

	// Start Server
	logging.Info().Str("port", cfg.Server.Port).Str("dialect", database.Dialect()).Msg("Server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Fatal().Err(err).Msg("Server failed")
	}
	logging.Info().Msg("Server stopped")
}
