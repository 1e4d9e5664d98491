// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// AppName names the per-user data directory.
const AppName = "yt-beats"

// Config represents the application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Player    PlayerConfig    `yaml:"player"`
	Downloads DownloadsConfig `yaml:"downloads"`
	Search    SearchConfig    `yaml:"search"`
	Resolvers []string        `yaml:"resolvers" default:"[\"local\",\"collection\",\"stream\",\"search\"]" validate:"dive,oneof=local collection stream search"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr  string      `yaml:"addr" default:"127.0.0.1:8719" validate:"required"`
	Token string      `yaml:"token"`
	Hooks HooksConfig `yaml:"hooks"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStarted   []string `yaml:"on_started"`
	OnStopped   []string `yaml:"on_stopped"`
	OnCompleted []string `yaml:"on_download_completed"`
}

// PlayerConfig represents playback engine configuration.
type PlayerConfig struct {
	Binary            string `yaml:"binary"`
	YtdlPath          string `yaml:"ytdl_path"`
	RuntimeDir        string `yaml:"runtime_dir"`
	ConnectTimeoutMs  int    `yaml:"connect_timeout_ms" default:"3000" validate:"gte=100,lte=60000"`
	ConnectIntervalMs int    `yaml:"connect_interval_ms" default:"100" validate:"gte=10,lte=5000"`
	GraceWindowMs     int    `yaml:"grace_window_ms" default:"3000" validate:"gte=0,lte=30000"`
	InitialVolume     int    `yaml:"initial_volume" default:"100" validate:"gte=0,lte=100"`
	StatusPollMs      int    `yaml:"status_poll_ms" default:"1000" validate:"gte=100,lte=60000"`
	CallTimeoutMs     int    `yaml:"call_timeout_ms" default:"2000" validate:"gte=50,lte=60000"`
}

// DownloadsConfig represents download pipeline configuration.
type DownloadsConfig struct {
	Dir            string  `yaml:"dir"`
	PollIntervalMs int     `yaml:"poll_interval_ms" default:"500" validate:"gte=10,lte=60000"`
	AudioFormat    string  `yaml:"audio_format" default:"mp3" validate:"oneof=mp3 m4a opus vorbis flac wav aac best"`
	AudioQuality   string  `yaml:"audio_quality" default:"192K" validate:"required"`
	ConversionTool string  `yaml:"conversion_tool" default:"ffmpeg" validate:"required"`
	Retriever      string  `yaml:"retriever" default:"yt-dlp" validate:"required"`
	ProgressRateHz float64 `yaml:"progress_rate_hz" default:"4" validate:"gt=0,lte=100"`
	TimeoutSec     int     `yaml:"timeout_sec" default:"1800" validate:"gte=0"`
}

// SearchConfig represents catalog search configuration.
type SearchConfig struct {
	Limit      int `yaml:"limit" default:"10" validate:"gte=1,lte=50"`
	MaxRetries int `yaml:"max_retries" default:"3" validate:"gte=1,lte=10"`
	TimeoutSec int `yaml:"timeout_sec" default:"30" validate:"gte=1"`
}

// Load loads configuration from a YAML file.
// A missing file yields the defaults. Environment variables take precedence
// over file values.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse config file")
		}
	case os.IsNotExist(err):
		// defaults only
	default:
		return nil, errors.Wrap(err, "failed to read config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("YTBEATS_TOKEN"); v != "" {
		c.Server.Token = v
	}
	if v := os.Getenv("YTBEATS_DOWNLOAD_DIR"); v != "" {
		c.Downloads.Dir = v
	}
	if v := os.Getenv("YTBEATS_MPV_PATH"); v != "" {
		c.Player.Binary = v
	}
	if v := os.Getenv("YTBEATS_YTDLP_PATH"); v != "" {
		c.Player.YtdlPath = v
		c.Downloads.Retriever = v
	}
}

// resolvePaths fills the data-directory based defaults.
func (c *Config) resolvePaths() error {
	if c.Downloads.Dir != "" && c.Player.RuntimeDir != "" {
		return nil
	}
	dataDir, err := DefaultDataDir()
	if err != nil {
		return err
	}
	if c.Downloads.Dir == "" {
		c.Downloads.Dir = filepath.Join(dataDir, "downloads")
	}
	if c.Player.RuntimeDir == "" {
		c.Player.RuntimeDir = filepath.Join(dataDir, "run")
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}

// DefaultDataDir returns the platform-specific application data directory:
// %LOCALAPPDATA%\yt-beats on Windows, ~/.config/yt-beats elsewhere.
func DefaultDataDir() (string, error) {
	if runtime.GOOS == "windows" {
		if base := os.Getenv("LOCALAPPDATA"); base != "" {
			return filepath.Join(base, AppName), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(err, "failed to resolve home directory")
		}
		return filepath.Join(home, "AppData", "Local", AppName), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve home directory")
	}
	return filepath.Join(home, ".config", AppName), nil
}

// ConnectTimeout returns the player connect ceiling.
func (p PlayerConfig) ConnectTimeout() time.Duration {
	return time.Duration(p.ConnectTimeoutMs) * time.Millisecond
}

// ConnectInterval returns the player connect poll interval.
func (p PlayerConfig) ConnectInterval() time.Duration {
	return time.Duration(p.ConnectIntervalMs) * time.Millisecond
}

// GraceWindow returns the post-play window during which end-of-file events are ignored.
func (p PlayerConfig) GraceWindow() time.Duration {
	return time.Duration(p.GraceWindowMs) * time.Millisecond
}

// CallTimeout returns the ceiling for one player control round trip.
func (p PlayerConfig) CallTimeout() time.Duration {
	return time.Duration(p.CallTimeoutMs) * time.Millisecond
}

// StatusPoll returns the player status poll interval.
func (p PlayerConfig) StatusPoll() time.Duration {
	return time.Duration(p.StatusPollMs) * time.Millisecond
}

// PollInterval returns the download worker's dequeue timeout.
func (d DownloadsConfig) PollInterval() time.Duration {
	return time.Duration(d.PollIntervalMs) * time.Millisecond
}

// Timeout returns the per-download timeout, zero for none.
func (d DownloadsConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutSec) * time.Second
}

// Timeout returns the per-search timeout.
func (s SearchConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSec) * time.Second
}
