// Package telemetry sets up the session log files of the application.
package telemetry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redditdl/userfinder/internal/setup/config"
	"github.com/redditdl/userfinder/internal/setup/telemetry/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	sessionLayout = "2006-01-02_15-04-05"
	latestLink    = "latest"
)

// Manager handles the creation and management of log files and directories.
// It maintains timestamped session logs and a "latest" symlink for easy access.
type Manager struct {
	mu                sync.Mutex
	files             []*logger.File
	instanceID        string // Unique identifier for this program instance
	currentSessionDir string // Path to the current session's log directory
	logDir            string // Base directory for all logs
	level             string // Logging level (debug, info, warn, error)
	maxLogsToKeep     int    // Maximum number of log sessions to retain
	maxLogLines       int    // Maximum number of lines to keep in each log file
	console           zapcore.WriteSyncer
}

// NewManager creates a new Manager instance.
func NewManager(debugCfg *config.Debug) *Manager {
	return &Manager{
		instanceID:    uuid.New().String(),
		logDir:        debugCfg.LogDir,
		level:         debugCfg.LogLevel,
		maxLogsToKeep: debugCfg.MaxLogsToKeep,
		maxLogLines:   debugCfg.MaxLogLines,
	}
}

// WithConsole mirrors warnings and errors to the given writer.
func (lm *Manager) WithConsole(ws zapcore.WriteSyncer) *Manager {
	lm.console = ws
	return lm
}

// GetLogger initializes the session directory and the main application logger.
func (lm *Manager) GetLogger() (*zap.Logger, error) {
	if err := lm.setupLogDirectories(); err != nil {
		return nil, err
	}

	mainLogger, err := lm.initLogger(filepath.Join(lm.currentSessionDir, "main.log"), lm.console)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize main logger: %w", err)
	}

	return mainLogger.With(zap.String("instance_id", lm.instanceID)), nil
}

// GetComponentLogger creates a logger writing to its own file in the session directory.
// Falls back to a no-op logger if the file cannot be opened.
func (lm *Manager) GetComponentLogger(name string) *zap.Logger {
	sessionDir := lm.getOrCreateSessionDir()

	componentLogger, err := lm.initLogger(filepath.Join(sessionDir, name+".log"), nil)
	if err != nil {
		return zap.NewNop()
	}

	return componentLogger
}

// GetCurrentSessionDir returns the current session directory.
func (lm *Manager) GetCurrentSessionDir() string {
	return lm.getOrCreateSessionDir()
}

// GetInstanceID returns the unique instance identifier for this program run.
func (lm *Manager) GetInstanceID() string {
	return lm.instanceID
}

// Close flushes and closes every log file opened by the manager.
func (lm *Manager) Close() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	var errs []error
	for _, file := range lm.files {
		if err := file.Sync(); err != nil {
			errs = append(errs, err)
		}
		if err := file.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	lm.files = nil

	return errors.Join(errs...)
}

// setupLogDirectories ensures the base directory exists, rotates old logs
// and creates a new session directory.
func (lm *Manager) setupLogDirectories() error {
	if err := os.MkdirAll(lm.logDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	// Clean up old log sessions
	if err := lm.rotateLogSessions(); err != nil {
		return fmt.Errorf("failed to rotate log sessions: %w", err)
	}

	// Create new session directory with timestamp
	sessionDir := filepath.Join(lm.logDir, time.Now().Format(sessionLayout))
	if err := os.MkdirAll(sessionDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	lm.mu.Lock()
	lm.currentSessionDir = sessionDir
	lm.mu.Unlock()

	lm.updateLatestLink(sessionDir)
	return nil
}

// updateLatestLink points the latest symlink at the session directory.
// Platforms without symlink support simply go without it.
func (lm *Manager) updateLatestLink(sessionDir string) {
	link := filepath.Join(lm.logDir, latestLink)
	_ = os.Remove(link)
	_ = os.Symlink(filepath.Base(sessionDir), link)
}

// getOrCreateSessionDir returns the current session directory or creates a new one.
// Falls back to base log directory if creation fails.
func (lm *Manager) getOrCreateSessionDir() string {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if lm.currentSessionDir != "" {
		return lm.currentSessionDir
	}

	sessionDir := filepath.Join(lm.logDir, time.Now().Format(sessionLayout))
	if err := os.MkdirAll(sessionDir, os.ModePerm); err != nil {
		return lm.logDir
	}

	lm.currentSessionDir = sessionDir
	return sessionDir
}

// initLogger creates a zap logger writing to the given file and, when set,
// warnings and above to the console.
func (lm *Manager) initLogger(path string, console zapcore.WriteSyncer) (*zap.Logger, error) {
	zapLevel, err := zapcore.ParseLevel(lm.level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	file, err := logger.OpenFile(path, lm.maxLogLines)
	if err != nil {
		return nil, err
	}

	lm.mu.Lock()
	lm.files = append(lm.files, file)
	lm.mu.Unlock()

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(file), zapLevel),
	}

	if console != nil {
		consoleConfig := zap.NewDevelopmentEncoderConfig()
		consoleConfig.TimeKey = ""
		consoleConfig.CallerKey = ""
		consoleConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(consoleConfig),
			zapcore.Lock(console),
			zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
				return lvl >= zapcore.WarnLevel && lvl >= zapLevel
			}),
		))
	}

	return zap.New(
		zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	), nil
}

// rotateLogSessions removes the oldest sessions so that at most maxLogsToKeep
// remain once the new session is created.
func (lm *Manager) rotateLogSessions() error {
	sessions, err := filepath.Glob(filepath.Join(lm.logDir, "*"))
	if err != nil {
		return err
	}

	// Only timestamped directories are sessions
	kept := sessions[:0]
	for _, session := range sessions {
		if _, err := time.Parse(sessionLayout, filepath.Base(session)); err == nil {
			kept = append(kept, session)
		}
	}
	sessions = kept

	if len(sessions) < lm.maxLogsToKeep {
		return nil
	}

	// Layout sorts chronologically
	sort.Strings(sessions)

	toDelete := len(sessions) - lm.maxLogsToKeep + 1
	for i := range toDelete {
		if err := os.RemoveAll(sessions[i]); err != nil {
			return err
		}
	}

	return nil
}
