package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"ctchen222/mini-games/internal/validator"
)

// ErrMissingJWTSecret is returned by RequireJWTSecret when no secret is configured.
var ErrMissingJWTSecret = errors.New("jwt secret is not set: provide jwt.secret or JWT_SECRET")

type Config struct {
	LogLevel  string    `yaml:"log-level" env:"LOG_LEVEL" env-default:"info" validate:"oneof=debug info warn error"`
	HTTP      HTTP      `yaml:"http"`
	Redis     Redis     `yaml:"redis"`
	SQLite    SQLite    `yaml:"sqlite"`
	JWT       JWT       `yaml:"jwt"`
	Telemetry Telemetry `yaml:"telemetry"`
	Bot       Bot       `yaml:"bot"`
	Console   Console   `yaml:"console"`
}

type HTTP struct {
	Addr            string        `yaml:"addr" env:"HTTP_ADDR" env-default:":8080" validate:"required"`
	ShutdownTimeout time.Duration `yaml:"shutdown-timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

type Redis struct {
	Addr    string        `yaml:"addr" env:"REDIS_CONNSTRING" env-default:"localhost:6379" validate:"required"`
	GameTTL time.Duration `yaml:"game-ttl" env:"REDIS_GAME_TTL" env-default:"24h"`
}

type SQLite struct {
	Path string `yaml:"path" env:"SQLITE_PATH" env-default:"./master.db" validate:"required"`
}

type JWT struct {
	// Secret has no default; only the server needs it, see RequireJWTSecret.
	Secret string        `yaml:"secret" env:"JWT_SECRET" validate:"omitempty,min=16"`
	TTL    time.Duration `yaml:"ttl" env:"JWT_TTL" env-default:"72h"`
}

type Telemetry struct {
	Enabled        bool   `yaml:"enabled" env:"OTEL_ENABLED" env-default:"false"`
	CollectorAddr  string `yaml:"collector-addr" env:"OTEL_COLLECTOR_ADDR" env-default:"otel-collector:4317"`
	ServiceName    string `yaml:"service-name" env:"OTEL_SERVICE_NAME" env-default:"mini-games"`
	ServiceVersion string `yaml:"service-version" env-default:"v0.1.0"`
}

type Bot struct {
	Difficulty string `yaml:"difficulty" env:"BOT_DIFFICULTY" env-default:"hard" validate:"oneof=easy medium hard"`
	// Seed fixes the console bot's random tie-breaks; 0 draws from the shared source.
	Seed uint64 `yaml:"seed" env:"BOT_SEED" env-default:"0"`
}

type Console struct {
	HumanMark string `yaml:"human-mark" env:"CONSOLE_HUMAN_MARK" env-default:"X" validate:"oneof=X O"`
}

// Load reads the YAML file at path, then applies environment overrides.
// A missing file is not an error: defaults and environment are used instead.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	var err error
	if _, statErr := os.Stat(path); path == "" || errors.Is(statErr, fs.ErrNotExist) {
		err = cleanenv.ReadEnv(cfg)
	} else {
		err = cleanenv.ReadConfig(path, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to load config: %w", err)
	}

	if err := validator.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// RequireJWTSecret fails unless a token signing secret is configured.
func (c *Config) RequireJWTSecret() error {
	if c.JWT.Secret == "" {
		return ErrMissingJWTSecret
	}
	return nil
}

// MustLoad - load configuration or panic.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}
