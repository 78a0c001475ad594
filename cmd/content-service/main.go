package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/mathservice-vn/platform/app/internal/auth"
	"github.com/mathservice-vn/platform/app/internal/config"
	"github.com/mathservice-vn/platform/app/internal/content"
	"github.com/mathservice-vn/platform/app/internal/database"
	"github.com/mathservice-vn/platform/app/internal/logger"
	"github.com/mathservice-vn/platform/app/internal/server"
	"github.com/mathservice-vn/platform/app/internal/version"
)

//	@title			content-service
//	@description	Articles, categories, tags, comments and SEO tooling for the learning portal.
//	@description
//	@description	Article reads are public; authoring requires the author role and moderation
//	@description	the admin role. View counts are batched through Redis.
//	@license.name	MIT

//	@tag.name			Content
//	@tag.description	Articles, categories, tags, comments, search and SEO

const defaultPort = 8083

const viewFlushInterval = 30 * time.Second

func main() {
	cmd := &cobra.Command{
		Use:   "content-service",
		Short: "Educational content service",
		Long:  `content-service manages articles, categories, tags, comments and SEO analysis`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}

	v := version.Get()
	cmd.Version = fmt.Sprintf("%s (built %s, commit %s)", v.Version, v.BuildDate, v.GitCommit)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.NewServerConfig(defaultPort)
	if err != nil {
		log.Printf("failed to load configuration: %v", err.Error())
		os.Exit(1)
	}

	appLogger := logger.InitLogger(logger.ParseLogLevel(cfg.LogLevel), cfg.Environment)

	appLogger.Info("Configuration loaded",
		slog.String("ENVIRONMENT", cfg.Environment),
		slog.String("HOST", cfg.Host),
		slog.Int("PORT", cfg.Port),
		slog.String("LOG_LEVEL", cfg.LogLevel),
		slog.String("REDIS_URL", cfg.RedisURL),
	)

	dbCtx, dbCancel := context.WithTimeout(context.Background(), cfg.DatabasePingTimeout)
	defer dbCancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		appLogger.Error("Failed to parse database URL", slog.String("error", err.Error()))
		os.Exit(1)
	}

	poolConfig.MaxConns = cfg.DBMaxConnections
	poolConfig.MinConns = cfg.DBMinConnections
	poolConfig.MaxConnLifetime = cfg.DBMaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.DBMaxConnIdleTime
	poolConfig.ConnConfig.ConnectTimeout = cfg.DBConnectTimeout

	pool, err := pgxpool.NewWithConfig(dbCtx, poolConfig)
	if err != nil {
		appLogger.Error("Unable to create connection pool", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err = pool.Ping(dbCtx); err != nil {
		appLogger.Error("Error pinging database via pool", slog.String("error", err.Error()))
		os.Exit(1)
	}

	appLogger.Info("connected to PostgreSQL")

	queries := database.New(pool)

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		appLogger.Error("Failed to parse Redis URL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tokens, err := auth.NewTokenService(ctx, cfg)
	if err != nil {
		appLogger.Error("Failed to initialize token service", slog.String("error", err.Error()))
		os.Exit(1)
	}
	blacklist := auth.NewSessionBlacklist(redisClient, cfg.SessionBlacklist)

	views := content.NewViewCounter(redisClient, queries, appLogger)
	go views.Run(ctx, viewFlushInterval)

	handlers := content.NewHandlers(queries, views)

	appLogger.Info("Starting server", slog.String("version", version.Get().Version))

	srv := server.NewServer(pool, queries, cfg, appLogger, "content-service",
		content.RegisterRoutes(handlers, tokens, blacklist))
	defer srv.DatabaseShutdown()

	if err := srv.Start(ctx); err != nil {
		appLogger.Error("Server error", slog.String("error", err.Error()))
		return err
	}

	appLogger.Info("server shutdown complete")
	return nil
}
