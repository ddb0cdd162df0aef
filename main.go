package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatali-fataliyev/expense_tracker/api"
	"github.com/fatali-fataliyev/expense_tracker/internal/auth"
	"github.com/fatali-fataliyev/expense_tracker/internal/config"
	"github.com/fatali-fataliyev/expense_tracker/internal/expense"
	"github.com/fatali-fataliyev/expense_tracker/internal/storage"
	"github.com/fatali-fataliyev/expense_tracker/logging"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		logging.Logger.Errorf("application stopped: %v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("failed to load configuration:", err)
		return err
	}

	if err := logging.Init(cfg.LogLevel, cfg.Env, cfg.LogDir); err != nil {
		fmt.Println("failed to initialize logger:", err)
		return err
	}

	logging.Logger.Info("application starting...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Logger.Errorf("failed to close storage: %v", err)
		}
	}()
	logging.Logger.Infof("storage ready: %s", store.GetStorageType())
	if cfg.IsProduction() && cfg.StorageDriver == config.DriverMemory {
		logging.Logger.Warn("in-memory storage in production, all data is lost on restart")
	}

	hasher, err := auth.NewPasswordHasher(cfg.BcryptCost)
	if err != nil {
		return err
	}
	codec, err := auth.NewTokenCodec([]byte(cfg.JWTSecret), cfg.JWTTTL, time.Now)
	if err != nil {
		return err
	}

	tracker := expense.NewExpenseTracker(store, expense.Options{
		Hasher:   hasher,
		Codec:    codec,
		Location: cfg.Location(),
	})

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.NewRouter(api.NewApi(tracker)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logging.Logger.Infof("Starting server on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logging.Logger.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
