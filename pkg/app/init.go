package app

import (
	"context"
	"fmt"
	"log/slog"

	"redfish-modelgen/pkg/config"
	"redfish-modelgen/pkg/database"
	"redfish-modelgen/pkg/logging"

	"github.com/joho/godotenv"
)

// AppContext holds the shared application context and dependencies
type AppContext struct {
	Config           config.Config
	MongoDB          *database.MongoDB
	Redis            *database.Redis
	TelemetryManager *logging.TelemetryManager
	shutdownFuncs    []func(context.Context) error
}

// Requirements selects which backing services a command needs
type Requirements struct {
	MongoDB bool
}

// LoadDotEnv loads a .env file into the environment if one exists
func LoadDotEnv(paths ...string) {
	if err := godotenv.Load(paths...); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}
}

// InitializeApp sets up logging and connects the services a command requires.
// Redis is connected whenever a URL is configured.
func InitializeApp(ctx context.Context, cfg config.Config, req Requirements) (*AppContext, error) {
	telemetryManager := logging.NewTelemetryManager(cfg.Telemetry)
	if err := telemetryManager.Initialize(ctx); err != nil {
		// Continue without telemetry rather than failing
		slog.Warn("Failed to initialize telemetry", "error", err)
	}

	appCtx := &AppContext{
		Config:           cfg,
		TelemetryManager: telemetryManager,
	}
	appCtx.shutdownFuncs = append(appCtx.shutdownFuncs, telemetryManager.Shutdown)

	tracing := cfg.Telemetry.EnableTelemetry

	if req.MongoDB {
		mongodb, err := database.NewMongoDB(ctx, cfg.Mongo, tracing)
		if err != nil {
			appCtx.Shutdown(ctx)
			return nil, err
		}
		appCtx.MongoDB = mongodb
		appCtx.shutdownFuncs = append(appCtx.shutdownFuncs, mongodb.Close)
	}

	if cfg.Redis.URL != "" {
		redis, err := database.NewRedis(ctx, cfg.Redis.URL, tracing)
		if err != nil {
			appCtx.Shutdown(ctx)
			return nil, fmt.Errorf("redis is configured but unavailable: %w", err)
		}
		appCtx.Redis = redis
		appCtx.shutdownFuncs = append(appCtx.shutdownFuncs, func(ctx context.Context) error {
			return redis.Close()
		})
	}

	return appCtx, nil
}

// Shutdown releases dependencies in reverse order of acquisition
func (a *AppContext) Shutdown(ctx context.Context) {
	for i := len(a.shutdownFuncs) - 1; i >= 0; i-- {
		if err := a.shutdownFuncs[i](ctx); err != nil {
			slog.Error("Error during shutdown", "error", err)
		}
	}
	a.shutdownFuncs = nil
}
