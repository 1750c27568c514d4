// Package setup bootstraps the dependencies shared by every command.
package setup

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/redditdl/userfinder/internal/finder"
	"github.com/redditdl/userfinder/internal/finder/cache"
	"github.com/redditdl/userfinder/internal/panel"
	"github.com/redditdl/userfinder/internal/reddit"
	"github.com/redditdl/userfinder/internal/redis"
	"github.com/redditdl/userfinder/internal/settings"
	"github.com/redditdl/userfinder/internal/setup/config"
	"github.com/redditdl/userfinder/internal/setup/telemetry"
	"github.com/redditdl/userfinder/internal/update"
	"go.uber.org/zap"
)

// Version is the running version. Release builds set it through -ldflags.
var Version = "dev"

// App bundles all core dependencies and services needed by the application.
type App struct {
	Config       *config.Config        // Application configuration
	ConfigDir    string                // Directory the config file was loaded from
	Logger       *zap.Logger           // Main application logger
	LogManager   *telemetry.Manager    // Log management system
	Reddit       *reddit.Client        // Content source client
	Cache        finder.PostCountCache // Post count cache, nil when disabled
	RedisManager *redis.Manager        // Redis connections, nil unless the redis cache is used
	Store        *settings.Store       // Settings database
	Settings     *settings.Settings    // Typed settings on top of Store
	Updates      *update.Checker       // Release checker
}

// InitializeApp loads the configuration and bootstraps all dependencies
// in the order they depend on each other.
func InitializeApp(ctx context.Context) (*App, error) {
	cfg, configDir, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	return InitializeWithConfig(ctx, cfg, configDir)
}

// InitializeWithConfig bootstraps all dependencies from an already loaded configuration.
func InitializeWithConfig(_ context.Context, cfg *config.Config, configDir string) (*App, error) {
	// Logging system is initialized first to capture setup issues
	logManager := telemetry.NewManager(&cfg.Debug).WithConsole(os.Stderr)

	logger, err := logManager.GetLogger()
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:     cfg,
		ConfigDir:  configDir,
		Logger:     logger,
		LogManager: logManager,
	}

	// Reddit client gets its own log file as it is the noisiest component
	app.Reddit = reddit.NewClient(reddit.Options{
		BaseURL:       cfg.Reddit.BaseURL,
		UserAgent:     cfg.Reddit.UserAgent,
		Timeout:       cfg.Reddit.RequestTimeoutDuration(),
		MaxConcurrent: cfg.Reddit.MaxConcurrent,
		Retry:         cfg.Retry.Options(),
	}, logManager.GetComponentLogger("reddit"))

	if err := app.initCache(); err != nil {
		app.Cleanup()
		return nil, err
	}

	app.Store, err = settings.Open(cfg.Settings.Path, logger)
	if err != nil {
		app.Cleanup()
		return nil, err
	}
	app.Settings = settings.New(app.Store, logger)

	app.Updates = update.NewChecker(cfg.Update.APIURL, cfg.Update.Repository, logger).
		WithRetryOptions(cfg.Retry.Options())

	logger.Info("Application initialized",
		zap.String("version", Version),
		zap.String("configDir", configDir),
		zap.String("cache", cfg.Cache.Backend),
		zap.String("sessionDir", logManager.GetCurrentSessionDir()))

	return app, nil
}

// initCache creates the configured post count cache.
func (s *App) initCache() error {
	switch s.Config.Cache.Backend {
	case config.CacheBackendRedis:
		s.RedisManager = redis.NewManager(&s.Config.Redis, s.Logger)

		client, err := s.RedisManager.GetClient(redis.CacheDBIndex)
		if err != nil {
			return fmt.Errorf("failed to connect to redis cache: %w", err)
		}
		s.Cache = cache.NewRedis(client, s.Config.Cache.TTL(), s.Logger)
	case config.CacheBackendMemory:
		s.Cache = cache.NewMemory(s.Config.Cache.Size, s.Config.Cache.TTL(), s.Logger)
	case config.CacheBackendNone:
		s.Logger.Info("Post count cache disabled")
	}
	return nil
}

// FinderOptions returns the worker options from configuration and settings.
func (s *App) FinderOptions() finder.Options {
	opts := finder.DefaultOptions()
	opts.EnrichKarma = s.Config.Finder.EnrichKarma
	opts.MaxConcurrentSubreddits = s.Config.Finder.MaxConcurrentSubreddits
	opts.MaxConcurrentKarma = s.Config.Finder.MaxConcurrentKarma
	opts.ContentLimit = s.Config.Reddit.ContentLimit
	opts.TimeWindow = s.Settings.TopTimeWindow()
	opts.PostLimit = s.Settings.PostLimit()
	opts.FilterByScore = s.Settings.FilterByScore()
	opts.ScoreLimit = s.Settings.ScoreLimit()
	return opts
}

// NewPanel creates a discovery panel reporting to shell.
func (s *App) NewPanel(ctx context.Context, shell panel.Shell) *panel.Panel {
	return panel.New(ctx, panel.Config{
		Settings:  s.Settings,
		Source:    s.Reddit,
		Cache:     s.Cache,
		Options:   s.FinderOptions(),
		Shell:     shell,
		QueueSize: s.Config.Finder.QueueSize,
	}, s.Logger)
}

// Cleanup shuts down all components in reverse initialization order.
// Logs but does not fail on cleanup errors so every component gets a cleanup attempt.
func (s *App) Cleanup() {
	if s.Store != nil {
		if err := s.Store.Close(); err != nil {
			s.Logger.Error("Failed to close settings store", zap.Error(err))
		}
	}

	// Close Redis connections last as other components might need it during cleanup
	if s.RedisManager != nil {
		s.RedisManager.Close()
	}

	// Sync buffered logs before shutdown
	if err := s.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	if err := s.LogManager.Close(); err != nil {
		log.Printf("Failed to close log files: %v", err)
	}
}
