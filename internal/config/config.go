package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the full runtime configuration, sourced from the environment.
// A .env file in the working directory is honored when present.
type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN,required"`

	PlaylistStorePath string `env:"PLAYLIST_STORE_PATH" envDefault:"data/playlists.json"`
	FavoriteStorePath string `env:"FAVORITE_STORE_PATH" envDefault:"data/favorites.json"`
	StatsStorePath    string `env:"STATS_STORE_PATH" envDefault:"data/stats.json"`

	MaxQueueSize    int `env:"MAX_QUEUE_SIZE" envDefault:"100"`
	MaxPlaylistSize int `env:"MAX_PLAYLIST_SIZE" envDefault:"50"`
	HistorySize     int `env:"HISTORY_SIZE" envDefault:"50"`
	DefaultVolume   int `env:"DEFAULT_VOLUME" envDefault:"50"`

	// Advance guard: more than GuardBurst advance attempts inside
	// GuardWindow without a single successful playback tears the
	// session down instead of looping on a broken source.
	GuardBurst  int           `env:"ADVANCE_GUARD_BURST" envDefault:"5"`
	GuardWindow time.Duration `env:"ADVANCE_GUARD_WINDOW" envDefault:"30s"`

	SpotifyClientID     string `env:"SPOTIFY_CLIENT_ID"`
	SpotifyClientSecret string `env:"SPOTIFY_CLIENT_SECRET"`

	EnablePlaylists bool `env:"ENABLE_PLAYLISTS" envDefault:"true"`
	EnableFavorites bool `env:"ENABLE_FAVORITES" envDefault:"true"`
	EnableRadio     bool `env:"ENABLE_RADIO" envDefault:"true"`
	EnableTimers    bool `env:"ENABLE_TIMERS" envDefault:"true"`
	EnableMood      bool `env:"ENABLE_MOOD" envDefault:"true"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
	LogFile   string `env:"LOG_FILE"`
}

// SpotifyEnabled reports whether streaming-catalog credentials are present.
// Missing credentials disable the provider, they are never fatal.
func (c *Config) SpotifyEnabled() bool {
	return c.SpotifyClientID != "" && c.SpotifyClientSecret != ""
}

// Load reads configuration from a .env file (if any) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.MaxQueueSize < 1 {
		return nil, fmt.Errorf("MAX_QUEUE_SIZE must be positive, got %d", cfg.MaxQueueSize)
	}
	if cfg.MaxPlaylistSize < 1 {
		return nil, fmt.Errorf("MAX_PLAYLIST_SIZE must be positive, got %d", cfg.MaxPlaylistSize)
	}
	if cfg.DefaultVolume < 0 {
		cfg.DefaultVolume = 0
	}
	if cfg.DefaultVolume > 100 {
		cfg.DefaultVolume = 100
	}

	return &cfg, nil
}
