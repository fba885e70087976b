package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/stockpile/stockpile-go/internal/config"
	"github.com/stockpile/stockpile-go/internal/crypto"
	"github.com/stockpile/stockpile-go/internal/handler"
	"github.com/stockpile/stockpile-go/internal/repository"
	"github.com/stockpile/stockpile-go/internal/service"
	"github.com/stockpile/stockpile-go/internal/storage"
)

const (
	startupTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg)

	if err := run(cfg); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(cfg config.Config) {
	var h slog.Handler
	if cfg.IsDevelopment() {
		h = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		h = slog.NewJSONHandler(os.Stdout, nil)
	}
	slog.SetDefault(slog.New(h))
}

func run(cfg config.Config) error {
	startCtx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	users, products, closeDB, err := openStores(startCtx, cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	images, err := openImageStore(startCtx, cfg)
	if err != nil {
		return err
	}

	authService := service.NewAuthService(users, crypto.NewPasswordHasher(crypto.DefaultHashParams()), cfg.JWTSecret, cfg.JWTExpiry)
	productService := service.NewProductService(products, images, slog.Default().With("component", "products"), cfg.MaxUploadBytes)

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: handler.NewRouter(handler.RouterConfig{
			Auth:              authService,
			Products:          productService,
			Images:            images,
			Logger:            slog.Default().With("component", "http"),
			JWTSecret:         cfg.JWTSecret,
			Development:       cfg.IsDevelopment(),
			MaxUploadBytes:    cfg.MaxUploadBytes,
			CORSOrigins:       cfg.CORSOrigins,
			RateLimitRequests: cfg.RateLimitRequests,
			RateLimitWindow:   cfg.RateLimitWindow,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env, "database", cfg.DatabaseDriver, "images", cfg.ImageStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// openStores connects the configured database and returns its user and
// product repositories with a function that releases the connection.
func openStores(ctx context.Context, cfg config.Config) (service.UserStore, service.ProductStore, func(), error) {
	if cfg.DatabaseDriver == config.DriverMongo {
		db, err := repository.NewMongo(ctx, cfg.DatabaseDSN, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := db.Client().Disconnect(ctx); err != nil {
				slog.Warn("mongo disconnect failed", "error", err)
			}
		}
		return repository.NewMongoUserRepository(db), repository.NewMongoProductRepository(db), closeFn, nil
	}

	db, err := repository.NewDB(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := repository.Migrate(ctx, db, cfg.DatabaseDriver); err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	closeFn := func() {
		if err := db.Close(); err != nil {
			slog.Warn("database close failed", "error", err)
		}
	}
	return repository.NewUserRepository(db), repository.NewProductRepository(db, cfg.DatabaseDriver), closeFn, nil
}

func openImageStore(ctx context.Context, cfg config.Config) (storage.ImageStore, error) {
	if cfg.ImageStore == config.ImageStoreS3 {
		store, err := storage.NewS3Store(ctx, storage.S3Options{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
		})
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	}

	return storage.NewDiskStore(cfg.UploadDir)
}
