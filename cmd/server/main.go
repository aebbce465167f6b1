package main

import (
	"context"
	"flag"
	"net/http"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/iamangus/newish/internal/adapters/localrate"
	"github.com/iamangus/newish/internal/adapters/memory"
	"github.com/iamangus/newish/internal/adapters/postgres"
	"github.com/iamangus/newish/internal/adapters/rediscache"
	"github.com/iamangus/newish/internal/adapters/tmdb"
	"github.com/iamangus/newish/internal/api"
	"github.com/iamangus/newish/internal/config"
	"github.com/iamangus/newish/internal/ports"
	"github.com/iamangus/newish/internal/services/identity"
	"github.com/iamangus/newish/internal/services/ratings"
	"github.com/iamangus/newish/internal/services/suggest"
)

func main() {
	configPath := flag.String("config", os.Getenv("NEWISH_CONFIG"), "path to YAML or JSON config file")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	logger := logrus.NewEntry(log)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.WithError(err).Fatal("failed to load configuration")
	}
	logger = logger.WithField("env", cfg.Env)
	logger.Info("starting newish server")

	// Postgres is the system of record for users, titles, and ratings.
	db, err := postgres.NewConnection(cfg.DatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to Postgres")
	}
	defer db.Close()

	userRepo := postgres.NewUserRepo(db)
	if err := userRepo.InitSchema(); err != nil {
		logger.WithError(err).Fatal("failed to init users schema")
	}
	titleRepo := postgres.NewTitleRepo(db)
	if err := titleRepo.InitSchema(); err != nil {
		logger.WithError(err).Fatal("failed to init titles schema")
	}
	ratingRepo := postgres.NewRatingRepo(db)
	if err := ratingRepo.InitSchema(); err != nil {
		logger.WithError(err).Fatal("failed to init ratings schema")
	}
	logger.Info("connected to Postgres, schema ready")

	// Redis backs the response cache and the rate limiter when configured.
	// Without it the server falls back to in-process equivalents, which is
	// fine for a single instance.
	var cache ports.ResponseCache
	var limiter ports.RateLimiter
	if cfg.RedisURL != "" {
		rdb, err := rediscache.NewRedisClient(cfg.RedisURL)
		if err != nil {
			logger.WithError(err).Fatal("failed to parse Redis URL")
		}
		cache = rediscache.NewCache(rdb, logger)
		limiter = rediscache.NewLimiter(rdb, cfg.RateLimit, cfg.RateWindow())
		logger.Info("using Redis cache and rate limiter")
	} else {
		cache = memory.NewCache()
		limiter = localrate.NewLimiter(cfg.RateLimit, cfg.RateWindow())
		logger.Info("no REDIS_URL set, using in-process cache and rate limiter")
	}

	catalog := tmdb.NewClient(cfg.TMDBAPIKey, logger)

	identitySvc := identity.New(userRepo, cfg.JWTSecret, logger)
	sso := identity.NewSSO(context.Background(), cfg.OIDC, userRepo, identitySvc, logger)
	ratingsSvc := ratings.New(ratingRepo, titleRepo, catalog, logger)
	suggestSvc := suggest.New(ratingRepo, catalog, logger)

	server := api.NewServer(cfg, logger, identitySvc, sso, ratingsSvc, suggestSvc, catalog, cache, limiter)

	addr := ":" + cfg.Port
	logger.WithField("addr", addr).Info("listening")
	if err := http.ListenAndServe(addr, server.Routes()); err != nil {
		logger.WithError(err).Fatal("server exited")
	}
}
