package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"catalog/internal/caching"
	"catalog/internal/config"
	"catalog/internal/jobs"
	"catalog/internal/jobs/background"
	"catalog/internal/middleware"
	"catalog/internal/repositories"
	"catalog/internal/services"
	"catalog/internal/storage"
	"catalog/pkg/database"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var migrateFirst bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if migrateFirst {
				if err := a.withMigrator(func(m *database.Migrator) error { return m.Up() }); err != nil {
					return err
				}
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	cfg, log := a.cfg, a.log
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	blobStore, err := newBlobStore(ctx, cfg)
	if err != nil {
		return err
	}

	cacheSvc, closeCache, err := newCache(cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	productRepo := repositories.NewProductRepo(pool)
	productSvc := services.NewProductService(productRepo, blobStore, cacheSvc, cfg.CacheTTL, log)

	var guard echo.MiddlewareFunc
	jwtCfg := middleware.JWTConfig{Secret: cfg.JWTSecret, JWKSURL: cfg.JWKSURL}
	if jwtCfg.Enabled() {
		mw, stopJWKS, err := middleware.JWTMiddleware(jwtCfg)
		if err != nil {
			return err
		}
		defer stopJWKS()
		guard = mw
	} else {
		log.Warn().Msg("JWT_SECRET and JWKS_URL unset; product writes are unauthenticated")
	}

	e := newRouter(routerDeps{
		cfg:            cfg,
		log:            log,
		db:             pool,
		cache:          cacheSvc,
		blobStore:      blobStore,
		productService: productSvc,
		guard:          guard,
	})

	if cfg.SweepInterval > 0 {
		scheduler, err := background.NewJobScheduler(log)
		if err != nil {
			return err
		}
		sweeper := jobs.NewOrphanSweeper(productRepo, blobStore, services.ProductNamespace, cfg.SweepGrace, log)
		if err := scheduler.Every("orphan-sweep", cfg.SweepInterval, sweeper.Run); err != nil {
			return err
		}
		scheduler.Start()
		defer func() {
			if err := scheduler.Stop(); err != nil {
				log.Error().Err(err).Msg("failed to stop scheduler")
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr()).Str("version", version).Str("storage", cfg.StorageDriver).Msg("catalog server starting")
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func newBlobStore(ctx context.Context, cfg *config.Config) (storage.BlobStore, error) {
	if cfg.StorageDriver == config.StorageMinio {
		store, err := storage.NewMinioStore(ctx, storage.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			UseSSL:    cfg.MinioUseSSL,
			Bucket:    cfg.MinioBucket,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	}

	store, err := storage.NewDiskStore(cfg.StorageRoot)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func newCache(cfg *config.Config) (caching.CacheService, func(), error) {
	if cfg.RedisAddr == "" {
		return caching.NewNopCacheService(), func() {}, nil
	}
	client, err := caching.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	return caching.NewRedisCacheService(client), func() { _ = client.Close() }, nil
}
