package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration shared by the
// pipeline and web binaries. Precedence: environment variables (RETAIL_
// prefix) over config file over built-in defaults.
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Database DatabaseConfig `yaml:"database" envconfig:"DATABASE"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Pipeline PipelineConfig `yaml:"pipeline" envconfig:"PIPELINE"`
}

// ServerConfig contains HTTP server configuration for the query surface.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// DatabaseConfig contains PostgreSQL connection configuration for the gold
// layer. ConnectRetries and ConnectDelay bound the startup connection loop;
// after exhaustion the web process serves a degraded error payload instead
// of crashing.
type DatabaseConfig struct {
	Host           string        `yaml:"host" envconfig:"HOST"`
	Port           int           `yaml:"port" envconfig:"PORT"`
	User           string        `yaml:"user" envconfig:"USER"`
	Password       string        `yaml:"password" envconfig:"PASSWORD"`
	Name           string        `yaml:"name" envconfig:"NAME"`
	SSLMode        string        `yaml:"ssl_mode" envconfig:"SSL_MODE"`
	MaxConns       int           `yaml:"max_conns" envconfig:"MAX_CONNS"`
	ConnectRetries int           `yaml:"connect_retries" envconfig:"CONNECT_RETRIES"`
	ConnectDelay   time.Duration `yaml:"connect_delay" envconfig:"CONNECT_DELAY"`
}

// URL returns the connection string in the form pgx understands.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

// PathsConfig contains file system paths for the bronze and silver layers.
// Relative paths are resolved against DataDir.
type PathsConfig struct {
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR"`
	BronzeFile string `yaml:"bronze_file" envconfig:"BRONZE_FILE"`
	SilverFile string `yaml:"silver_file" envconfig:"SILVER_FILE"`
}

// PipelineConfig contains tunables for the transform stages.
type PipelineConfig struct {
	TopN         int    `yaml:"top_n" envconfig:"TOP_N"`
	CSVDelimiter string `yaml:"csv_delimiter" envconfig:"CSV_DELIMITER"`
}

// Default returns the built-in configuration defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/app.log",
		},
		Database: DatabaseConfig{
			Host:           "localhost",
			Port:           5432,
			User:           "user",
			Password:       "password",
			Name:           "retail",
			SSLMode:        "disable",
			MaxConns:       10,
			ConnectRetries: 5,
			ConnectDelay:   5 * time.Second,
		},
		Paths: PathsConfig{
			DataDir:    "data",
			BronzeFile: "bronze/online_retail_II.csv",
			SilverFile: "silver/online_retail_cleaned.parquet",
		},
		Pipeline: PipelineConfig{
			TopN:         20,
			CSVDelimiter: ",",
		},
	}
}

// Load loads configuration: defaults, overlaid by an optional YAML file
// (config.yaml, or RETAIL_CONFIG_FILE), overlaid by RETAIL_* environment
// variables.
func Load() (*Config, error) {
	cfg := Default()

	configFile := getConfigFilePath()
	if _, err := os.Stat(configFile); err == nil {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := envconfig.Process("RETAIL", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func getConfigFilePath() string {
	if path := os.Getenv("RETAIL_CONFIG_FILE"); path != "" {
		return path
	}
	return "config.yaml"
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Database.ConnectRetries < 1 {
		return fmt.Errorf("database connect_retries must be at least 1, got %d", c.Database.ConnectRetries)
	}
	if c.Pipeline.TopN < 1 {
		return fmt.Errorf("pipeline top_n must be at least 1, got %d", c.Pipeline.TopN)
	}
	if len(c.Pipeline.CSVDelimiter) != 1 {
		return fmt.Errorf("pipeline csv_delimiter must be a single character, got %q", c.Pipeline.CSVDelimiter)
	}
	return nil
}

// BronzePath returns the resolved path of the raw extract.
func (c *Config) BronzePath() string {
	return c.resolve(c.Paths.BronzeFile)
}

// SilverPath returns the resolved path of the intermediate parquet snapshot.
func (c *Config) SilverPath() string {
	return c.resolve(c.Paths.SilverFile)
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Paths.DataDir, path)
}

// EnsureDirectories creates the bronze and silver directories if missing.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{
		filepath.Dir(c.BronzePath()),
		filepath.Dir(c.SilverPath()),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
