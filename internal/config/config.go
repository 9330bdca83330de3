package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"

	AssignmentPolicyFirstMatch = "first_match"
	AssignmentPolicyRandom     = "random"

	// PathEnv overrides the config file location.
	PathEnv = "CONFIG_PATH"
)

// Config represents application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Logger     LoggerConfig     `yaml:"logger"`
	Storage    StorageConfig    `yaml:"storage"`
	Assignment AssignmentConfig `yaml:"assignment"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" env:"SERVER_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
}

type DatabaseConfig struct {
	Host            string        `yaml:"host" env:"DB_HOST"`
	Port            string        `yaml:"port" env:"DB_PORT"`
	User            string        `yaml:"user" env:"DB_USER"`
	Password        string        `yaml:"password" env:"DB_PASSWORD"`
	DBName          string        `yaml:"dbname" env:"DB_NAME"`
	SSLMode         string        `yaml:"sslmode" env:"DB_SSLMODE"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
}

// DSN builds the postgres connection URL.
func (c DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgresql",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%s", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": []string{c.SSLMode}}.Encode(),
	}
	return u.String()
}

// LoggerConfig represents logger configuration
type LoggerConfig struct {
	Level       string `yaml:"level" env:"LOG_LEVEL"`
	Encoding    string `yaml:"encoding" env:"LOG_ENCODING"`
	Development bool   `yaml:"development" env:"LOG_DEVELOPMENT"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Driver  string `yaml:"driver" env:"STORAGE_DRIVER"`
	Migrate bool   `yaml:"migrate" env:"STORAGE_MIGRATE"`
}

// AssignmentConfig tunes reviewer selection.
type AssignmentConfig struct {
	Policy       string `yaml:"policy" env:"ASSIGNMENT_POLICY"`
	MaxReviewers int    `yaml:"max_reviewers" env:"ASSIGNMENT_MAX_REVIEWERS"`
	Seed         int64  `yaml:"seed" env:"ASSIGNMENT_SEED"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            "5432",
			User:            "postgres",
			Password:        "postgres",
			DBName:          "pr_reviewer",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Logger: LoggerConfig{
			Level:    "info",
			Encoding: "json",
		},
		Storage: StorageConfig{
			Driver:  StorageDriverPostgres,
			Migrate: true,
		},
		Assignment: AssignmentConfig{
			Policy:       AssignmentPolicyFirstMatch,
			MaxReviewers: 2,
		},
	}
}

// LoadConfig loads configuration from file, then applies .env and
// environment overrides. A missing file is not an error: defaults and
// environment are enough to run.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if envPath := os.Getenv(PathEnv); envPath != "" {
		path = envPath
	}

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read env overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the application cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}

	switch c.Storage.Driver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	switch c.Assignment.Policy {
	case AssignmentPolicyFirstMatch, AssignmentPolicyRandom:
	default:
		return fmt.Errorf("unknown assignment policy %q", c.Assignment.Policy)
	}

	if c.Assignment.MaxReviewers < 0 {
		return fmt.Errorf("max_reviewers must not be negative, got %d", c.Assignment.MaxReviewers)
	}

	return nil
}
