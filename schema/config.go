package schema

import (
	"errors"
	"os"
	"path/filepath"
	"time"
)

// DefaultHistoryDepth is the number of undo snapshots a session keeps.
const DefaultHistoryDepth = 20

// DefaultWatchStopGrace bounds how long a watch process may take to exit after SIGTERM.
const DefaultWatchStopGrace = 2 * time.Second

// SessionConfig defines defaults for document sessions and commits.
type SessionConfig struct {
	BuildRoot    string
	Executable   string
	HistoryDepth int
}

// WatchSettings controls the background folder watcher.
type WatchSettings struct {
	Enabled      bool
	Folder       string
	Preset       string
	TargetSizeMB float64
	Executable   string
}

// DefaultBuildRoot returns ~/pdfsuite/build.
func DefaultBuildRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "pdfsuite", "build"), nil
}

// NormalizeSessionConfig applies defaults and validates the config.
func NormalizeSessionConfig(cfg SessionConfig) (SessionConfig, error) {
	if cfg.BuildRoot == "" {
		root, err := DefaultBuildRoot()
		if err != nil {
			return SessionConfig{}, err
		}
		cfg.BuildRoot = root
	}
	if cfg.Executable == "" {
		exe, err := os.Executable()
		if err != nil || exe == "" {
			exe = "pdfsuite"
		}
		cfg.Executable = exe
	}
	if cfg.HistoryDepth == 0 {
		cfg.HistoryDepth = DefaultHistoryDepth
	}
	if cfg.HistoryDepth < 0 {
		return SessionConfig{}, errors.New("history depth must be positive")
	}
	return cfg, nil
}
