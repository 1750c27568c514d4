package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/redditdl/userfinder/pkg/utils"
)

var (
	ErrConfigFileNotFound    = errors.New("could not find config file in any config path")
	ErrConfigVersionMissing  = errors.New("config file is missing version field")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
	ErrConfigInvalid         = errors.New("config file is invalid")
)

// RepositoryVersion is the repository version tag for config file references.
const RepositoryVersion = "v1.0.0"

// CurrentVersion is the current version of the config file.
const CurrentVersion = 1

// FileName is the name of the config file looked up in each search path.
const FileName = "userfinder.toml"

// Cache backends.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
	CacheBackendNone   = "none"
)

// Config represents the entire application configuration.
type Config struct {
	// Version of the config file.
	Version  int      `koanf:"version"`
	Debug    Debug    `koanf:"debug"`
	Reddit   Reddit   `koanf:"reddit"`
	Retry    Retry    `koanf:"retry"`
	Finder   Finder   `koanf:"finder"`
	Cache    Cache    `koanf:"cache"`
	Redis    Redis    `koanf:"redis"`
	Settings Settings `koanf:"settings"`
	Update   Update   `koanf:"update"`
}

// Debug contains debug-related configuration.
type Debug struct {
	// Log level (debug, info, warn, error).
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`
	// Directory session logs are written to.
	LogDir string `koanf:"log_dir"`
	// Maximum log sessions to keep.
	MaxLogsToKeep int `koanf:"max_logs_to_keep" validate:"min=1"`
	// Maximum lines per log file.
	MaxLogLines int `koanf:"max_log_lines" validate:"min=100"`
}

// Reddit contains the content source configuration.
type Reddit struct {
	// Base URL of the Reddit site.
	BaseURL string `koanf:"base_url" validate:"url"`
	// User agent sent with every request.
	UserAgent string `koanf:"user_agent" validate:"required"`
	// Request timeout in milliseconds.
	RequestTimeout int `koanf:"request_timeout" validate:"min=1000"`
	// Maximum concurrent requests.
	MaxConcurrent int64 `koanf:"max_concurrent" validate:"min=1,max=32"`
	// Number of recent submissions shown in a user preview.
	ContentLimit int `koanf:"content_limit" validate:"min=1,max=100"`
}

// Retry contains retry configuration.
type Retry struct {
	// Maximum retry attempts.
	MaxRetries uint64 `koanf:"max_retries" validate:"max=10"`
	// Initial retry delay in milliseconds.
	Delay int `koanf:"delay" validate:"min=1"`
	// Maximum retry delay in milliseconds.
	MaxDelay int `koanf:"max_delay" validate:"gtefield=Delay"`
	// Maximum total time spent retrying in milliseconds.
	MaxElapsed int `koanf:"max_elapsed" validate:"gtefield=MaxDelay"`
}

// Finder contains discovery worker configuration.
type Finder struct {
	// Fetch karma of every discovered user before reporting them.
	EnrichKarma bool `koanf:"enrich_karma"`
	// Maximum subreddits scanned at the same time.
	MaxConcurrentSubreddits int `koanf:"max_concurrent_subreddits" validate:"min=1,max=16"`
	// Maximum concurrent karma lookups.
	MaxConcurrentKarma int `koanf:"max_concurrent_karma" validate:"min=1,max=16"`
	// Capacity of the panel event queue.
	QueueSize int `koanf:"queue_size" validate:"min=1"`
}

// Cache contains post count cache configuration.
type Cache struct {
	// Cache backend (memory, redis, none).
	Backend string `koanf:"backend" validate:"oneof=memory redis none"`
	// Post count lifetime in minutes.
	PostCountTTL int `koanf:"post_count_ttl" validate:"min=1"`
	// Maximum users kept by the memory backend.
	Size int `koanf:"size" validate:"min=1"`
}

// Redis contains Redis connection configuration.
type Redis struct {
	// Redis hostname.
	Host string `koanf:"host" validate:"required_if=Enabled true"`
	// Redis port.
	Port int `koanf:"port" validate:"min=0,max=65535"`
	// Redis username.
	Username string `koanf:"username"`
	// Redis password.
	Password string `koanf:"password"`
	// Set when the redis cache backend is selected.
	Enabled bool `koanf:"-"`
}

// Settings contains the user settings database configuration.
type Settings struct {
	// Path of the settings database. Relative paths are resolved against the config directory.
	Path string `koanf:"path" validate:"required"`
}

// Update contains release check configuration.
type Update struct {
	// Check for a new release on startup.
	CheckOnStartup bool `koanf:"check_on_startup"`
	// GitHub API base URL.
	APIURL string `koanf:"api_url" validate:"url"`
	// Repository releases are published in (owner/name).
	Repository string `koanf:"repository" validate:"required,contains=/"`
}

// RequestTimeoutDuration returns the request timeout as a duration.
func (r Reddit) RequestTimeoutDuration() time.Duration {
	return time.Duration(r.RequestTimeout) * time.Millisecond
}

// Options converts the retry configuration.
func (r Retry) Options() utils.RetryOptions {
	return utils.RetryOptions{
		MaxElapsedTime:  time.Duration(r.MaxElapsed) * time.Millisecond,
		InitialInterval: time.Duration(r.Delay) * time.Millisecond,
		MaxInterval:     time.Duration(r.MaxDelay) * time.Millisecond,
		MaxRetries:      r.MaxRetries,
	}
}

// TTL returns the post count lifetime as a duration.
func (c Cache) TTL() time.Duration {
	return time.Duration(c.PostCountTTL) * time.Minute
}

// Address returns the Redis address in host:port form.
func (r Redis) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// SearchPaths returns the directories searched for the config file, in order.
func SearchPaths() ([]string, error) {
	// Get user's home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	return []string{
		".userfinder",
		homeDir + "/.userfinder/config",
		"/etc/userfinder/config",
		"config",
		".",
	}, nil
}

// LoadConfig loads the configuration from the first search path holding a config file.
// Returns the config along with the used config directory.
func LoadConfig() (*Config, string, error) {
	paths, err := SearchPaths()
	if err != nil {
		return nil, "", err
	}
	return LoadConfigFrom(paths)
}

// LoadConfigFrom loads the configuration from the first of the given directories
// holding a config file.
func LoadConfigFrom(configPaths []string) (*Config, string, error) {
	k := koanf.New(".")

	var usedConfigPath string
	for _, path := range configPaths {
		configPath := filepath.Join(path, FileName)
		if _, err := os.Stat(configPath); err != nil {
			continue
		}

		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, "", fmt.Errorf("error loading %s: %w", configPath, err)
		}

		usedConfigPath = path
		break
	}

	if usedConfigPath == "" {
		return nil, "", fmt.Errorf("%w: %s", ErrConfigFileNotFound, FileName)
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, "", fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := checkConfigVersion(config.Version, CurrentVersion); err != nil {
		return nil, "", err
	}

	config.applyDefaults(usedConfigPath)

	if err := config.Validate(); err != nil {
		return nil, "", err
	}

	return &config, usedConfigPath, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	config := &Config{Version: CurrentVersion}
	config.applyDefaults(".")
	return config
}

// applyDefaults fills unset values.
func (c *Config) applyDefaults(configDir string) {
	setDefault(&c.Debug.LogLevel, "info")
	setDefault(&c.Debug.LogDir, filepath.Join(configDir, "logs"))
	setDefault(&c.Debug.MaxLogsToKeep, 10)
	setDefault(&c.Debug.MaxLogLines, 100000)

	setDefault(&c.Reddit.BaseURL, "https://www.reddit.com")
	setDefault(&c.Reddit.UserAgent, "userfinder/1.0 (+https://github.com/redditdl/userfinder)")
	setDefault(&c.Reddit.RequestTimeout, 30000)
	setDefault(&c.Reddit.MaxConcurrent, 4)
	setDefault(&c.Reddit.ContentLimit, 25)

	setDefault(&c.Retry.MaxRetries, 3)
	setDefault(&c.Retry.Delay, 2000)
	setDefault(&c.Retry.MaxDelay, 10000)
	setDefault(&c.Retry.MaxElapsed, 60000)

	setDefault(&c.Finder.MaxConcurrentSubreddits, 3)
	setDefault(&c.Finder.MaxConcurrentKarma, 4)
	setDefault(&c.Finder.QueueSize, 256)

	setDefault(&c.Cache.Backend, CacheBackendMemory)
	setDefault(&c.Cache.PostCountTTL, 360)
	setDefault(&c.Cache.Size, 1024)

	setDefault(&c.Redis.Port, 6379)
	c.Redis.Enabled = c.Cache.Backend == CacheBackendRedis

	setDefault(&c.Settings.Path, "settings.db")
	if !filepath.IsAbs(c.Settings.Path) {
		c.Settings.Path = filepath.Join(configDir, c.Settings.Path)
	}

	setDefault(&c.Update.APIURL, "https://api.github.com")
	setDefault(&c.Update.Repository, "redditdl/userfinder")
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			first := validationErrors[0]
			return fmt.Errorf("%w: %s fails %q (%d problems)",
				ErrConfigInvalid, first.Namespace(), first.Tag(), len(validationErrors))
		}
		return fmt.Errorf("%w: %w", ErrConfigInvalid, err)
	}
	return nil
}

// checkConfigVersion checks if the config file version is correct.
func checkConfigVersion(current, expected int) error {
	if current == 0 {
		return fmt.Errorf("%w: %s", ErrConfigVersionMissing, FileName)
	}

	if current != expected {
		return fmt.Errorf(
			"%w: %s (got: %d, expected: %d)\n"+
				"Please update your config file from: https://github.com/redditdl/userfinder/tree/%s/config/%s",
			ErrConfigVersionMismatch,
			FileName,
			current,
			expected,
			RepositoryVersion,
			FileName,
		)
	}

	return nil
}

func setDefault[T comparable](field *T, value T) {
	var zero T
	if *field == zero {
		*field = value
	}
}
