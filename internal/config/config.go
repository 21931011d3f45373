// Package config loads server settings from an optional YAML file and then
// lets the environment override them.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bstee615/go-sushi/internal/game"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Redis     RedisConfig     `yaml:"redis"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Historian HistorianConfig `yaml:"historian"`
	Game      game.Rules      `yaml:"game"`
	LogLevel  string          `yaml:"log_level"`
}

type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"` // empty accepts only same-origin upgrades
	SendBuffer     int      `yaml:"send_buffer"`     // per-connection outbound queue length
}

// RedisConfig is optional for the server: with no address the action log is off.
type RedisConfig struct {
	Addr  string `yaml:"addr"`
	DB    int    `yaml:"db"`
	Queue string `yaml:"queue"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type AuthConfig struct {
	TokenExpire    string `yaml:"token_expire"` // Go duration, "never" or empty
	PrivateKeyPath string `yaml:"private_key_path"`
	PublicKeyPath  string `yaml:"public_key_path"`
}

type HistorianConfig struct {
	BatchSize     int `yaml:"batch_size"`
	FlushInterval int `yaml:"flush_interval"` // seconds
	Inactivity    int `yaml:"inactivity"`     // seconds before a quiet game is marked abandoned
}

// FlushIntervalDuration returns the historian flush interval.
func (h HistorianConfig) FlushIntervalDuration() time.Duration {
	return time.Duration(h.FlushInterval) * time.Second
}

// InactivityDuration returns how long a game may stay quiet before the
// historian marks it abandoned.
func (h HistorianConfig) InactivityDuration() time.Duration {
	return time.Duration(h.Inactivity) * time.Second
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:       "0.0.0.0",
			Port:       8080,
			SendBuffer: 64,
		},
		Redis: RedisConfig{
			Queue: "sushi_actions",
		},
		Historian: HistorianConfig{
			BatchSize:     100,
			FlushInterval: 2,
			Inactivity:    600,
		},
		Game:     game.DefaultRules(),
		LogLevel: "info",
	}
}

// Load reads path over the defaults. An empty path skips the file.
// Environment overrides are applied last and the result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that would otherwise fail late.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Server.SendBuffer <= 0 {
		return fmt.Errorf("server.send_buffer must be positive")
	}
	if c.Historian.BatchSize <= 0 {
		return fmt.Errorf("historian.batch_size must be positive")
	}
	if c.Historian.FlushInterval <= 0 {
		return fmt.Errorf("historian.flush_interval must be positive")
	}
	if c.Historian.Inactivity <= 0 {
		return fmt.Errorf("historian.inactivity must be positive")
	}
	if err := c.Game.Validate(); err != nil {
		return fmt.Errorf("game: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Host = getEnv("HOST", cfg.Server.Host)
	cfg.Server.Port = getEnvInt("PORT", cfg.Server.Port)
	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.DB = getEnvInt("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.Queue = getEnv("HISTORIAN_QUEUE_NAME", cfg.Redis.Queue)
	cfg.Database.URL = getEnv("DATABASE_URL", cfg.Database.URL)
	cfg.Auth.TokenExpire = getEnv("TOKEN_EXPIRE_TIME", cfg.Auth.TokenExpire)
	cfg.Historian.BatchSize = getEnvInt("HISTORIAN_BATCH_SIZE", cfg.Historian.BatchSize)
	cfg.Historian.FlushInterval = getEnvInt("HISTORIAN_FLUSH_INTERVAL", cfg.Historian.FlushInterval)
	cfg.Historian.Inactivity = getEnvInt("GAME_INACTIVITY_TIMEOUT_SEC", cfg.Historian.Inactivity)
	cfg.Game.MaxPlayers = getEnvInt("GAME_MAX_PLAYERS", cfg.Game.MaxPlayers)
	cfg.Game.Rounds = getEnvInt("GAME_ROUNDS", cfg.Game.Rounds)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
}

// getEnv reads an environment variable or returns def.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt parses an environment variable as an integer, else returns def.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
