package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Metadata providers
	TMDBAPIKey string
	RAWGAPIKey string

	// Pagination
	PageSize int

	// Backfill pacing
	BackfillDelay time.Duration // between candidates
	EpisodeDelay  time.Duration // between per-season lookups

	// Scheduled enrichment; empty disables the cron sweep
	EnrichSchedule string

	// Server
	ServerPort string

	// Paths
	DatabaseFile string // $CONFIG_DIR/watchdeck.db

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Setup viper FIRST to load .env file
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = viper.ReadInConfig()

	// Set defaults
	viper.SetDefault("PAGE_SIZE", 20)
	viper.SetDefault("BACKFILL_DELAY_MS", 500)
	viper.SetDefault("EPISODE_DELAY_MS", 300)
	viper.SetDefault("ENRICH_SCHEDULE", "0 4 * * *")
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")

	configDir := viper.GetString("CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "watchdeck")
	} else {
		absPath, err := filepath.Abs(configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for CONFIG_DIR: %w", err)
		}
		configDir = absPath
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	config := &Config{
		TMDBAPIKey: viper.GetString("TMDB_API_KEY"),
		RAWGAPIKey: viper.GetString("RAWG_API_KEY"),

		PageSize: viper.GetInt("PAGE_SIZE"),

		BackfillDelay: time.Duration(viper.GetInt("BACKFILL_DELAY_MS")) * time.Millisecond,
		EpisodeDelay:  time.Duration(viper.GetInt("EPISODE_DELAY_MS")) * time.Millisecond,

		EnrichSchedule: viper.GetString("ENRICH_SCHEDULE"),

		ServerPort: viper.GetString("SERVER_PORT"),

		DatabaseFile: filepath.Join(configDir, "watchdeck.db"),

		LogLevel: viper.GetString("LOG_LEVEL"),
	}

	// Validate required fields
	if config.TMDBAPIKey == "" {
		return nil, fmt.Errorf("TMDB_API_KEY is required")
	}
	if config.RAWGAPIKey == "" {
		return nil, fmt.Errorf("RAWG_API_KEY is required")
	}
	if config.PageSize <= 0 {
		return nil, fmt.Errorf("PAGE_SIZE must be positive")
	}

	return config, nil
}
