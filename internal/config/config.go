// Package config loads the application configuration from defaults, an
// optional YAML file, and RECOLLECT_* environment variables, in that order
// of precedence.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/recollect/recollect/internal/logging"
)

// DefaultConfigPaths lists where a config file is searched, first hit wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config/config.yaml",
	"/etc/recollect/config.yaml",
}

// envPrefix is stripped from environment variables before mapping them to
// config paths, e.g. RECOLLECT_PLEX_TOKEN -> plex.token.
const envPrefix = "RECOLLECT_"

type Config struct {
	Suggest   SuggestConfig  `koanf:"suggest"`
	Plex      PlexConfig     `koanf:"plex"`
	Radarr    RadarrConfig   `koanf:"radarr"`
	TMDB      TMDBConfig     `koanf:"tmdb"`
	Refresh   RefreshConfig  `koanf:"refresh"`
	Snapshots SnapshotConfig `koanf:"snapshots"`
	Logging   logging.Config `koanf:"logging"`
}

// SuggestConfig configures the generative suggestion backend.
type SuggestConfig struct {
	BaseURL    string        `koanf:"base_url" validate:"required,url"`
	APIKey     string        `koanf:"api_key" validate:"required"`
	Model      string        `koanf:"model" validate:"required"`
	MaxResults int           `koanf:"max_results" validate:"min=1,max=50"`
	Timeout    time.Duration `koanf:"timeout"`
}

type PlexConfig struct {
	URL     string        `koanf:"url" validate:"required,url"`
	Token   string        `koanf:"token" validate:"required"`
	Library string        `koanf:"movie_library_name" validate:"required"`
	Timeout time.Duration `koanf:"timeout"`
}

type RadarrConfig struct {
	URL              string        `koanf:"url" validate:"required,url"`
	APIKey           string        `koanf:"api_key" validate:"required"`
	RootFolder       string        `koanf:"root_folder" validate:"required"`
	QualityProfileID int           `koanf:"quality_profile_id" validate:"min=1"`
	Timeout          time.Duration `koanf:"timeout"`
}

// TMDBConfig configures the fallback metadata search. An empty key disables
// the fallback; titles the acquisition manager cannot resolve are then
// skipped.
type TMDBConfig struct {
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`
}

type RefreshConfig struct {
	// AutoRun chains the collection refresher after a reconcile run.
	AutoRun bool `koanf:"auto_run"`
}

type SnapshotConfig struct {
	Dir string `koanf:"dir" validate:"required"`
}

func defaultConfig() *Config {
	return &Config{
		Suggest: SuggestConfig{
			BaseURL:    "https://api.openai.com",
			Model:      "gpt-5.2",
			MaxResults: 15,
			Timeout:    60 * time.Second,
		},
		Plex: PlexConfig{
			Library: "Movies",
			Timeout: 30 * time.Second,
		},
		Radarr: RadarrConfig{
			QualityProfileID: 1,
			Timeout:          30 * time.Second,
		},
		TMDB: TMDBConfig{
			Timeout: 30 * time.Second,
		},
		Snapshots: SnapshotConfig{
			Dir: "data",
		},
		Logging: logging.Config{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads configuration from defaults, the given file (or the first
// DefaultConfigPaths entry that exists when path is empty), then environment
// variables, and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envTransform maps RECOLLECT_PLEX_TOKEN -> plex.token. The first underscore
// separates the section; the rest keeps its underscores so keys like
// plex.movie_library_name stay addressable.
func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	section, rest, ok := strings.Cut(key, "_")
	if !ok {
		return key
	}
	return section + "." + rest
}
