package appconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Load reads configuration from the provided path. If path is empty, uses DefaultConfigPath.
func Load(path string) (Config, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("config_version", cfg.ConfigVersion)
	v.SetDefault("build_root", cfg.BuildRoot)
	v.SetDefault("history_depth", cfg.HistoryDepth)
	v.SetDefault("tools.qpdf", cfg.Tools.Qpdf)
	v.SetDefault("tools.pdftk", cfg.Tools.Pdftk)
	v.SetDefault("tools.gs", cfg.Tools.GS)
	v.SetDefault("tools.pdftoppm", cfg.Tools.Pdftoppm)
	v.SetDefault("tools.self", cfg.Tools.Self)
	v.SetDefault("watch.enabled", cfg.Watch.Enabled)
	v.SetDefault("watch.folder", cfg.Watch.Folder)
	v.SetDefault("watch.preset", cfg.Watch.Preset)
	v.SetDefault("watch.target_size_mb", cfg.Watch.TargetSizeMB)
	v.SetDefault("watch.poll_interval_seconds", cfg.Watch.PollIntervalSeconds)
	v.SetDefault("watch.settle_seconds", cfg.Watch.SettleSeconds)
	v.SetDefault("watch.stop_grace_seconds", cfg.Watch.StopGraceSeconds)
	v.SetDefault("render.dpi", cfg.Render.DPI)
	v.SetDefault("doctor.tools", cfg.Doctor.Tools)

	configLoaded := false
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return Config{}, err
		}
	} else {
		configLoaded = true
	}

	if configLoaded {
		if !v.InConfig("config_version") {
			return Config{}, fmt.Errorf("config_version is required; expected %d", CurrentConfigVersion)
		}
		if v.GetInt("config_version") != CurrentConfigVersion {
			return Config{}, fmt.Errorf("unsupported config_version %d; expected %d", v.GetInt("config_version"), CurrentConfigVersion)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	expandConfigEnv(&cfg)
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	if strings.TrimSpace(cfg.BuildRoot) == "" {
		return fmt.Errorf("build_root must not be empty")
	}
	if cfg.HistoryDepth < 0 {
		return fmt.Errorf("history_depth must not be negative")
	}
	switch strings.ToLower(cfg.Watch.Preset) {
	case "email", "report", "poster":
	default:
		return fmt.Errorf("unsupported watch.preset %q", cfg.Watch.Preset)
	}
	if cfg.Watch.TargetSizeMB < 0 {
		return fmt.Errorf("watch.target_size_mb must not be negative")
	}
	if cfg.Watch.PollIntervalSeconds <= 0 {
		return fmt.Errorf("watch.poll_interval_seconds must be positive")
	}
	if cfg.Watch.SettleSeconds < 0 {
		return fmt.Errorf("watch.settle_seconds must not be negative")
	}
	if cfg.Render.DPI <= 0 {
		return fmt.Errorf("render.dpi must be positive")
	}
	return nil
}

func expandConfigEnv(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.BuildRoot = expandEnv(cfg.BuildRoot)
	cfg.Tools.Qpdf = expandEnv(cfg.Tools.Qpdf)
	cfg.Tools.Pdftk = expandEnv(cfg.Tools.Pdftk)
	cfg.Tools.GS = expandEnv(cfg.Tools.GS)
	cfg.Tools.Pdftoppm = expandEnv(cfg.Tools.Pdftoppm)
	cfg.Tools.Self = expandEnv(cfg.Tools.Self)
	cfg.Watch.Folder = expandEnv(cfg.Watch.Folder)
}

func expandEnv(value string) string {
	if value == "" {
		return value
	}
	return os.Expand(value, func(key string) string {
		if key == "" {
			return ""
		}
		if val, ok := lookupEnv(key); ok {
			return val
		}
		return "$" + key
	})
}

func lookupEnv(key string) (string, bool) {
	if val, ok := os.LookupEnv(key); ok {
		return val, true
	}
	switch key {
	case "UID":
		return fmt.Sprintf("%d", os.Getuid()), true
	case "GID":
		return fmt.Sprintf("%d", os.Getgid()), true
	}
	return "", false
}

// WriteDefault writes the default config to the target path.
func WriteDefault(path string, overwrite bool) (string, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
