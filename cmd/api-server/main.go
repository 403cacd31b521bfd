package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hackgods/hospital-management/internal/api"
	"github.com/hackgods/hospital-management/internal/appointment"
	"github.com/hackgods/hospital-management/internal/auth"
	"github.com/hackgods/hospital-management/internal/config"
	"github.com/hackgods/hospital-management/internal/db"
	"github.com/hackgods/hospital-management/internal/hospital"
	"github.com/hackgods/hospital-management/internal/policy"
	redisclient "github.com/hackgods/hospital-management/internal/redis"
	"github.com/hackgods/hospital-management/internal/views"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "api-server",
		Short: "Hospital management API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(env string) zerolog.Logger {
	if env == "dev" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func serveCmd() *cobra.Command {
	var inMemory bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(inMemory)
		},
	}
	cmd.Flags().BoolVar(&inMemory, "in-memory", false, "keep records in memory and lock in process (no Postgres or Redis)")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(false)
			if err != nil {
				return err
			}
			logger := newLogger(cfg.Env)

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, cfg.PostgresConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := db.ApplySchema(ctx, pool); err != nil {
				return err
			}
			logger.Info().Msg("schema applied")
			return nil
		},
	}
}

func runServer(inMemory bool) error {
	cfg, err := config.Load(inMemory)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Env)
	logger.Info().
		Str("env", cfg.Env).
		Str("http_port", cfg.HTTPPort).
		Bool("in_memory", inMemory).
		Msg("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		store  hospital.Store
		locker redisclient.Locker
		pgPool *pgxpool.Pool
		rdb    *redis.Client
	)

	if inMemory {
		store = hospital.NewMemStore()
		locker = redisclient.NewLocalLocker()
		logger.Warn().Msg("running in memory, records are lost on exit")
	} else {
		pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
		pgPool, err = db.ConnectPostgres(pgCtx, cfg.PostgresDSN, cfg.PostgresConns)
		cancelPg()
		if err != nil {
			logger.Error().Err(err).Msg("postgres connection error")
			return err
		}
		defer pgPool.Close()
		logger.Info().Msg("connected to Postgres")

		rdb, err = redisclient.NewRedisClient(rootCtx, redisclient.Options{
			Addr:     cfg.RedisAddr,
			Username: cfg.RedisUsername,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			logger.Error().Err(err).Msg("redis connection error")
			return err
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				logger.Error().Err(err).Msg("error closing redis")
			}
		}()
		logger.Info().Msg("connected to Redis")

		store = hospital.NewPgStore(pgPool)
		locker = redisclient.NewRedisLocker(rdb, "lock:", cfg.LockTTL)
	}

	authz := policy.NewEngine()
	svc := appointment.NewService(store, locker, authz, logger, cfg.ConflictWindow)

	router := api.NewRouter(api.RouterConfig{
		Store:    store,
		Service:  svc,
		Authz:    authz,
		Tokens:   auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL),
		Views:    views.New(cfg.AppURL, cfg.StorageURL),
		Logger:   logger,
		PageSize: cfg.PageSize,
		PgPool:   pgPool,
		Redis:    rdb,
		Env:      cfg.Env,
		Version:  version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server failed")
			return err
		}
	case <-rootCtx.Done():
	}

	logger.Info().Msg("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		return err
	}
	return nil
}
