package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Output   OutputConfig   `toml:"output"`
	Catalog  CatalogConfig  `toml:"catalog"`
	YouTube  YouTubeConfig  `toml:"youtube"`
	FFmpeg   FFmpegConfig   `toml:"ffmpeg"`
	Database DatabaseConfig `toml:"database"`
	Log      LogConfig      `toml:"log"`
}

// OutputConfig contains the filesystem layout for converted songs.
//
// TempDir and CoverDir are relative to Dir.
type OutputConfig struct {
	Dir             string `toml:"dir"`
	Format          string `toml:"format"`
	CoverResolution int    `toml:"cover_resolution"`
	TempDir         string `toml:"temp_dir"`
	CoverDir        string `toml:"cover_dir"`
}

// CatalogConfig contains iTunes Search API settings.
type CatalogConfig struct {
	BaseURL           string `toml:"base_url"`
	Country           string `toml:"country"`
	Limit             int    `toml:"limit"`
	RequestsPerMinute int    `toml:"requests_per_minute"`
}

// YouTubeConfig contains yt-dlp settings.
type YouTubeConfig struct {
	YTDLPPath                string `toml:"ytdlp_path"`
	SearchLimit              int    `toml:"search_limit"`
	DurationToleranceSeconds int    `toml:"duration_tolerance_seconds"`
}

// DurationTolerance returns the configured tolerance as a [time.Duration].
func (c YouTubeConfig) DurationTolerance() time.Duration {
	return time.Duration(c.DurationToleranceSeconds) * time.Second
}

// FFmpegConfig contains transcoder binary paths and encoding settings.
type FFmpegConfig struct {
	FFmpegPath   string `toml:"ffmpeg_path"`
	FFprobePath  string `toml:"ffprobe_path"`
	AudioBitrate string `toml:"audio_bitrate"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks value ranges that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if c.Output.Dir == "" {
		return fmt.Errorf("%w: output.dir is empty", ErrInvalidConfig)
	}
	for key, dir := range map[string]string{"output.temp_dir": c.Output.TempDir, "output.cover_dir": c.Output.CoverDir} {
		if dir == "" {
			continue
		}
		if !filepath.IsLocal(dir) || filepath.Clean(dir) == "." || strings.HasPrefix(dir, "~") {
			return fmt.Errorf("%w: %s must be a subdirectory of output.dir, got %q", ErrInvalidConfig, key, dir)
		}
	}
	if c.Output.CoverResolution <= 0 {
		return fmt.Errorf("%w: output.cover_resolution must be positive", ErrInvalidConfig)
	}
	if c.YouTube.SearchLimit <= 0 {
		return fmt.Errorf("%w: youtube.search_limit must be positive", ErrInvalidConfig)
	}
	if c.YouTube.DurationToleranceSeconds < 0 {
		return fmt.Errorf("%w: youtube.duration_tolerance_seconds must not be negative", ErrInvalidConfig)
	}
	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
