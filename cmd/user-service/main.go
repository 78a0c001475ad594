package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/mathservice-vn/platform/app/internal/auth"
	"github.com/mathservice-vn/platform/app/internal/config"
	"github.com/mathservice-vn/platform/app/internal/database"
	"github.com/mathservice-vn/platform/app/internal/logger"
	"github.com/mathservice-vn/platform/app/internal/server"
	"github.com/mathservice-vn/platform/app/internal/users"
	"github.com/mathservice-vn/platform/app/internal/version"
)

//	@title			user-service
//	@description	Registration, login, sessions and profile management for the math education platform.
//	@description
//	@description	## Common Error Responses
//	@description	All endpoints may return:
//	@description	- `413` Request body exceeds size limit
//	@description	- `429` Rate limit exceeded
//	@description	- `500` Internal server error
//	@description
//	@description	## Authentication
//	@description	Protected endpoints expect a bearer access token. Tokens are signed with HS256
//	@description	by default; with JWT_SIGNING_KEY_PATH set the service signs with RS256 and
//	@description	publishes the verification key at /.well-known/jwks.json.
//	@license.name	MIT

//	@tag.name			Auth
//	@tag.description	Registration, login, token refresh and logout

//	@tag.name			Users
//	@tag.description	Profile and session management

const defaultPort = 8081

func main() {
	cmd := &cobra.Command{
		Use:   "user-service",
		Short: "User and authentication service",
		Long:  `user-service handles registration, login, JWT issuance and profile management`,
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
	limiter := auth.NewLoginLimiter(cfg.LoginAttemptsPerMn)

	handlers := users.NewHandlers(queries, tokens, blacklist, limiter)

	appLogger.Info("Starting server", slog.String("version", version.Get().Version))

	srv := server.NewServer(pool, queries, cfg, appLogger, "user-service",
		users.RegisterRoutes(handlers, tokens, blacklist))
	defer srv.DatabaseShutdown()

	if err := srv.Start(ctx); err != nil {
		appLogger.Error("Server error", slog.String("error", err.Error()))
		return err
	}

	appLogger.Info("server shutdown complete")
	return nil
}
