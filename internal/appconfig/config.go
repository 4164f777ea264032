package appconfig

import (
	"os"
	"path/filepath"

	"pkt.systems/pdfsuite/schema"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int          `mapstructure:"config_version" yaml:"config_version"`
	BuildRoot     string       `mapstructure:"build_root" yaml:"build_root"`
	HistoryDepth  int          `mapstructure:"history_depth" yaml:"history_depth"`
	Tools         ToolsConfig  `mapstructure:"tools" yaml:"tools"`
	Watch         WatchConfig  `mapstructure:"watch" yaml:"watch"`
	Render        RenderConfig `mapstructure:"render" yaml:"render"`
	Doctor        DoctorConfig `mapstructure:"doctor" yaml:"doctor"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// ToolsConfig names the external binaries pdfsuite invokes.
type ToolsConfig struct {
	Qpdf     string `mapstructure:"qpdf" yaml:"qpdf"`
	Pdftk    string `mapstructure:"pdftk" yaml:"pdftk"`
	GS       string `mapstructure:"gs" yaml:"gs"`
	Pdftoppm string `mapstructure:"pdftoppm" yaml:"pdftoppm"`
	// Self is the pdfsuite executable used for synthesized commands. Empty
	// means the running binary.
	Self string `mapstructure:"self" yaml:"self"`
}

// WatchConfig controls the folder watcher.
type WatchConfig struct {
	Enabled             bool    `mapstructure:"enabled" yaml:"enabled"`
	Folder              string  `mapstructure:"folder" yaml:"folder"`
	Preset              string  `mapstructure:"preset" yaml:"preset"`
	TargetSizeMB        float64 `mapstructure:"target_size_mb" yaml:"target_size_mb"`
	PollIntervalSeconds float64 `mapstructure:"poll_interval_seconds" yaml:"poll_interval_seconds"`
	SettleSeconds       float64 `mapstructure:"settle_seconds" yaml:"settle_seconds"`
	StopGraceSeconds    float64 `mapstructure:"stop_grace_seconds" yaml:"stop_grace_seconds"`
}

// RenderConfig controls page rasterization.
type RenderConfig struct {
	DPI int `mapstructure:"dpi" yaml:"dpi"`
}

// DoctorConfig lists the tools the doctor command checks. An entry may name
// alternatives separated by "|".
type DoctorConfig struct {
	Tools []string `mapstructure:"tools" yaml:"tools"`
}

// DefaultDoctorTools is the tool set checked when none is configured.
var DefaultDoctorTools = []string{
	"qpdf", "pdfcpu", "gs", "ocrmypdf", "tesseract", "pdftk", "java", "pdfsig", "mat2", "diff-pdf|diffpdf",
}

// DefaultConfig returns defaults based on the current user.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	return Config{
		ConfigVersion: CurrentConfigVersion,
		BuildRoot:     filepath.Join(home, "pdfsuite", "build"),
		HistoryDepth:  schema.DefaultHistoryDepth,
		Tools: ToolsConfig{
			Qpdf:     "qpdf",
			Pdftk:    "pdftk",
			GS:       "gs",
			Pdftoppm: "pdftoppm",
		},
		Watch: WatchConfig{
			Enabled:             false,
			Folder:              filepath.Join(home, "PDF"),
			Preset:              "report",
			PollIntervalSeconds: 5,
			SettleSeconds:       2,
			StopGraceSeconds:    schema.DefaultWatchStopGrace.Seconds(),
		},
		Render: RenderConfig{
			DPI: 72,
		},
		Doctor: DoctorConfig{
			Tools: append([]string(nil), DefaultDoctorTools...),
		},
	}, nil
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".pdfsuite", "config.yaml"), nil
}

// SessionConfig derives the document session settings.
func (c Config) SessionConfig() schema.SessionConfig {
	return schema.SessionConfig{
		BuildRoot:    c.BuildRoot,
		Executable:   c.Tools.Self,
		HistoryDepth: c.HistoryDepth,
	}
}

// WatchSettings derives the background watch settings.
func (c Config) WatchSettings() schema.WatchSettings {
	return schema.WatchSettings{
		Enabled:      c.Watch.Enabled,
		Folder:       c.Watch.Folder,
		Preset:       c.Watch.Preset,
		TargetSizeMB: c.Watch.TargetSizeMB,
		Executable:   c.Tools.Self,
	}
}
