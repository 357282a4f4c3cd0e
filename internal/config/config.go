package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverBadger = "badger"
)

// EnvConfigPath names the variable holding the YAML config file path.
const EnvConfigPath = "POKER_CONFIG_PATH"

var validate = validator.New()

// Config defines server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
	Realtime RealtimeConfig `yaml:"realtime"`
}

type ServerConfig struct {
	Host string `yaml:"host" env:"POKER_SERVER_HOST"`
	Port int    `yaml:"port" env:"POKER_SERVER_PORT" validate:"min=1,max=65535"`
}

// StorageConfig selects the backend the local store persists to. Path is a
// directory for file and badger, a database file for sqlite, and unused for
// memory. Watch reloads the store on external writes (file driver only).
type StorageConfig struct {
	Driver string `yaml:"driver" env:"POKER_STORAGE_DRIVER" validate:"oneof=memory file sqlite badger"`
	Path   string `yaml:"path" env:"POKER_STORAGE_PATH" validate:"required_unless=Driver memory"`
	Watch  bool   `yaml:"watch" env:"POKER_STORAGE_WATCH"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"POKER_LOG_LEVEL" validate:"oneof=debug info warn warning error"`
}

// RealtimeConfig tunes change notifications. Buffer bounds the per-connection
// queue of the websocket bridge.
type RealtimeConfig struct {
	EnforceFilters bool `yaml:"enforce_filters" env:"POKER_REALTIME_ENFORCE_FILTERS"`
	Buffer         int  `yaml:"buffer" env:"POKER_REALTIME_BUFFER" validate:"min=1"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Driver: DriverFile,
			Path:   "estimate-poker-data",
		},
		Log: LogConfig{
			Level: "info",
		},
		Realtime: RealtimeConfig{
			Buffer: 64,
		},
	}
}

// Load reads configuration from an optional YAML file, an optional .env file
// and environment variables, in increasing precedence. path overrides
// POKER_CONFIG_PATH when set.
func Load(path string) (Config, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("read .env file: %w", err)
	}

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
