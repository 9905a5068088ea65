// Command api runs the account service HTTP server.
//
// @title                       Account Service API
// @version                     1.0
// @description                 User accounts, sessions and channel profiles of the video platform.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/streamhub/account-service/internal/api"
	"github.com/streamhub/account-service/internal/api/handler"
	"github.com/streamhub/account-service/internal/api/metrics"
	"github.com/streamhub/account-service/internal/core/ports"
	"github.com/streamhub/account-service/internal/core/service"
	"github.com/streamhub/account-service/internal/core/token"
	"github.com/streamhub/account-service/internal/infrastructure/db/mongo"
	"github.com/streamhub/account-service/internal/infrastructure/db/redis"
	"github.com/streamhub/account-service/internal/infrastructure/media"
	"github.com/streamhub/account-service/internal/infrastructure/queue"
	"github.com/streamhub/account-service/internal/pkg/config"
	"github.com/streamhub/account-service/internal/pkg/password"
	"github.com/streamhub/account-service/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger is not configured yet.
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("load config")
	}

	log := logger.New(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "account-service",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server terminated")
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- MongoDB ---
	client, db, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.Mongo.Timeout,
	})
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			log.Error().Err(err).Msg("mongo disconnect")
		}
	}()

	users := mongo.NewUserRepository(db, cfg.Mongo.Timeout)
	if err := users.EnsureIndexes(ctx); err != nil {
		return err
	}
	profileRepo := mongo.NewProfileRepository(db, cfg.Mongo.Timeout)

	readiness := map[string]handler.Pinger{
		"mongodb": func(ctx context.Context) error { return mongo.Ping(ctx, client, cfg.Mongo.Timeout) },
	}

	// --- Redis (optional profile cache) ---
	var cache ports.ProfileCache
	if cfg.Redis.Addr != "" {
		rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer closeRedis(rdb, log)

		cache = redis.NewProfileCache(rdb, cfg.Redis.ProfileCacheTTL)
		readiness["redis"] = func(ctx context.Context) error { return redis.Ping(ctx, rdb, 0) }
	} else {
		log.Info().Msg("REDIS_ADDR not set, profile cache disabled")
	}

	// --- Media host ---
	host, err := media.NewS3Host(ctx, media.Config{
		Bucket:    cfg.Media.Account,
		AccessKey: cfg.Media.AccessKey,
		SecretKey: cfg.Media.SecretKey,
		Region:    cfg.Media.Region,
		Endpoint:  cfg.Media.Endpoint,
		PublicURL: cfg.Media.PublicURL,
		Timeout:   cfg.Media.Timeout,
	}, metrics.ObserveUpload)
	if err != nil {
		return err
	}
	mediaHost := queue.NewMediaCleanup(host, 0, logger.Component(log, "media_cleanup"))
	// Workers outlive the HTTP shutdown so in-flight requests can still
	// queue deletions; they are stopped once the server has returned.
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	mediaHost.Start(workerCtx)
	defer mediaHost.Wait()
	defer stopWorkers()

	// --- Services ---
	accessTokens := token.NewCodec(cfg.Auth.AccessTokenSecret, cfg.Auth.AccessTokenTTL)
	refreshTokens := token.NewCodec(cfg.Auth.RefreshTokenSecret, cfg.Auth.RefreshTokenTTL)
	hasher := password.New(cfg.Auth.PasswordHasher)

	sessions := service.NewSessionService(users, mediaHost, hasher, accessTokens, refreshTokens,
		service.SessionOptions{RevokeSessionsOnPasswordChange: cfg.Auth.RevokeSessionsOnPasswordChange},
		logger.Component(log, "sessions"),
	)
	accounts := service.NewAccountService(users, mediaHost, logger.Component(log, "accounts"))
	profiles := service.NewProfileService(profileRepo, cache, logger.Component(log, "profiles"))

	e := api.NewRouter(api.Dependencies{
		Sessions:     sessions,
		Accounts:     accounts,
		Profiles:     profiles,
		AccessTokens: accessTokens,
		Users:        users,
		Readiness:    readiness,
	}, api.Options{
		CORSOrigin:     cfg.CORSOrigin,
		MaxUploadSize:  cfg.MaxUploadSize,
		SecureCookies:  cfg.IsProduction(),
		RateLimitRPS:   cfg.RateLimit.RPS,
		RateLimitBurst: cfg.RateLimit.Burst,
	}, log)

	// --- Serve until a signal arrives ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Str("hasher", hasher.Algorithm()).Msg("server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func closeRedis(rdb *goredis.Client, log zerolog.Logger) {
	if err := rdb.Close(); err != nil {
		log.Error().Err(err).Msg("redis close")
	}
}
