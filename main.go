package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recipe-restful/auth"
	"recipe-restful/config"
	"recipe-restful/controllers"
	"recipe-restful/database"
	grpcserver "recipe-restful/grpc_server"
	"recipe-restful/models"
	"recipe-restful/registry"
	"recipe-restful/repositories"
	"recipe-restful/services"
	"recipe-restful/storage"

	"go.uber.org/zap"
)

func newLogger(level string) *zap.Logger {
	var logger *zap.Logger
	var err error
	switch level {
	case "debug":
		logger, err = zap.NewDevelopment()
	default:
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(fmt.Errorf("failed to build logger: %w", err))
	}
	return logger
}

func main() {
	// Initialize configs
	config.InitConfig()
	cfg := config.AppConfig

	logger := newLogger(cfg.LogLevel)
	defer logger.Sync() // Make sure the buffer is flushed before the program exits

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Server exited with error", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	auth.SetSigningKey([]byte(cfg.JwtSecret))
	auth.SetTokenOptions(cfg.ServiceName, cfg.TokenTTL)

	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := database.WaitForDB(ctx, db, cfg.DBWaitAttempts, cfg.DBWaitInterval, logger); err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}

	store := repositories.NewStore(db)
	userService := services.NewUserService(store.Users)
	if err := seedSuperuser(ctx, userService, cfg, logger); err != nil {
		return err
	}

	files, err := storage.NewFileStorage(cfg.MediaRoot)
	if err != nil {
		return err
	}
	recipeService := services.NewRecipeService(store, files)
	tagService := services.NewAttributeService[models.Tag](store.Tags, "tag")
	ingredientService := services.NewAttributeService[models.Ingredient](store.Ingredients, "ingredient")

	authFilter := auth.AuthFilter(store.Users)
	container := controllers.NewContainer(
		controllers.ContainerOptions{Logger: logger, MediaRoot: files.Root(), MediaURL: cfg.MediaURL},
		controllers.NewUserController(userService, authFilter, logger),
		controllers.NewRecipeController(recipeService, authFilter, cfg.MediaURL, logger),
		controllers.NewTagController(tagService, authFilter, logger),
		controllers.NewIngredientController(ingredientService, authFilter, logger),
		controllers.NewHealthController(sqlDB, logger),
	)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           container,
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcListener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("failed to listen on gRPC port %d: %w", cfg.GRPCPort, err)
	}
	grpcServer := grpcserver.NewServer(cfg.ServiceName, logger)

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	go grpcServer.WatchDatabase(watchCtx, sqlDB.PingContext, 10*time.Second)

	errCh := make(chan error, 2)
	go func() {
		logger.Info("HTTP server listening", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()
	go func() {
		if err := grpcServer.Serve(grpcListener); err != nil {
			errCh <- fmt.Errorf("gRPC server: %w", err)
		}
	}()

	if cfg.Consul.Enabled {
		deregister, err := registerWithConsul(cfg, logger)
		defer deregister()
		if err != nil {
			logger.Error("Consul registration failed, continuing without it", zap.Error(err))
		}
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	grpcServer.GracefulStop()
	return runErr
}

func seedSuperuser(ctx context.Context, users services.UserService, cfg config.Config, logger *zap.Logger) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}
	admin, created, err := users.EnsureSuperuser(ctx, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		return err
	}
	if created {
		logger.Info("Created superuser", zap.String("email", admin.Email))
	}
	return nil
}

func registerWithConsul(cfg config.Config, logger *zap.Logger) (func(), error) {
	sugar := logger.Sugar()
	reg, err := registry.NewConsulRegistry(cfg.Consul.Address, sugar)
	if err != nil {
		return func() {}, err
	}
	return registry.RegisterSelf(reg, registry.SelfRegistration{
		ServiceName: cfg.ServiceName,
		Host:        cfg.Consul.CheckHost,
		HTTPPort:    cfg.HTTPPort,
		GRPCPort:    cfg.GRPCPort,
		HealthPath:  "/healthz",
	}, sugar)
}
