package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"skidoodle/now-playing/internal/spotify"
)

// Config holds the application configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Logging LoggingConfig `toml:"logging"`
	Spotify SpotifyConfig `toml:"spotify"`
	Stream  StreamConfig  `toml:"stream"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port           string   `toml:"port"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// SpotifyConfig contains Spotify credentials and upstream settings.
// Credentials should come from the environment or a secret store.
type SpotifyConfig struct {
	ClientID            string `toml:"client_id"`
	ClientSecret        string `toml:"client_secret"`
	RefreshToken        string `toml:"refresh_token"`
	TokenURL            string `toml:"token_url"`
	CurrentlyPlayingURL string `toml:"currently_playing_url"`
	Timeout             string `toml:"timeout"`
}

// StreamConfig contains the websocket feed settings.
type StreamConfig struct {
	Enabled  bool   `toml:"enabled"`
	Interval string `toml:"interval"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "3000",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Spotify: SpotifyConfig{
			TokenURL:            spotify.DefaultTokenURL,
			CurrentlyPlayingURL: spotify.DefaultCurrentlyPlayingURL,
			Timeout:             spotify.DefaultTimeout.String(),
		},
		Stream: StreamConfig{
			Enabled:  true,
			Interval: "5s",
		},
	}
}

// Load builds the configuration from defaults, an optional TOML file, a
// .env file and finally the process environment, in that order.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file found, using environment variables")
	}

	setString(&cfg.Spotify.ClientID, "SPOTIFY_CLIENT_ID")
	setString(&cfg.Spotify.ClientSecret, "SPOTIFY_CLIENT_SECRET")
	setString(&cfg.Spotify.RefreshToken, "SPOTIFY_REFRESH_TOKEN")
	setString(&cfg.Spotify.TokenURL, "SPOTIFY_TOKEN_URL")
	setString(&cfg.Spotify.CurrentlyPlayingURL, "SPOTIFY_CURRENTLY_PLAYING_URL")
	setString(&cfg.Spotify.Timeout, "UPSTREAM_TIMEOUT")
	setString(&cfg.Server.Port, "SERVER_PORT")
	setString(&cfg.Logging.Level, "LOG_LEVEL")
	setString(&cfg.Logging.Format, "LOG_FORMAT")
	setString(&cfg.Stream.Interval, "STREAM_INTERVAL")

	if allowedOrigins := os.Getenv("ALLOWED_ORIGINS"); allowedOrigins != "" {
		cfg.Server.AllowedOrigins = nil
		for _, origin := range strings.Split(allowedOrigins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.Server.AllowedOrigins = append(cfg.Server.AllowedOrigins, origin)
			}
		}
	}

	if v := os.Getenv("STREAM_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid STREAM_ENABLED %q: %w", v, err)
		}
		cfg.Stream.Enabled = enabled
	}

	if _, err := cfg.UpstreamTimeout(); err != nil {
		return nil, err
	}
	if _, err := cfg.StreamInterval(); err != nil {
		return nil, err
	}
	if _, err := cfg.LogLevel(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Credentials returns the Spotify secrets. They are not validated here; a
// missing secret fails each request instead of the process.
func (c *Config) Credentials() spotify.Credentials {
	return spotify.Credentials{
		ClientID:     c.Spotify.ClientID,
		ClientSecret: c.Spotify.ClientSecret,
		RefreshToken: c.Spotify.RefreshToken,
	}
}

// UpstreamTimeout bounds each outbound Spotify call.
func (c *Config) UpstreamTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Spotify.Timeout)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid upstream timeout %q", c.Spotify.Timeout)
	}
	return d, nil
}

// StreamInterval is the websocket poll period.
func (c *Config) StreamInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Stream.Interval)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid stream interval %q", c.Stream.Interval)
	}
	return d, nil
}

// LogLevel parses the configured logrus level.
func (c *Config) LogLevel() (logrus.Level, error) {
	level, err := logrus.ParseLevel(c.Logging.Level)
	if err != nil {
		return logrus.InfoLevel, fmt.Errorf("invalid log level %q: %w", c.Logging.Level, err)
	}
	return level, nil
}

// NewLogger creates the application logger.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	level, err := c.LogLevel()
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if strings.EqualFold(c.Logging.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}
