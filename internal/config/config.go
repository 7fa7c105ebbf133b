// Package config loads service configuration.
//
// Values are layered, later sources overriding earlier ones:
//
//  1. built-in defaults suitable for local development
//  2. an optional YAML file (--config or EVENTDESK_CONFIG)
//  3. a .env file in the working directory, if present
//  4. environment variables
//  5. command-line flags
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Store kinds.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config is the full service configuration.
type Config struct {
	Environment string         `yaml:"environment"`
	Store       string         `yaml:"store"`
	LogLevel    string         `yaml:"log_level"`
	HTTP        HTTPConfig     `yaml:"http"`
	Database    DatabaseConfig `yaml:"database"`
	Redis       RedisConfig    `yaml:"redis"`
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Port         string        `yaml:"port"`
	WebDir       string        `yaml:"web_dir"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int32  `yaml:"max_conns"`
	MinConns int32  `yaml:"min_conns"`
}

// DSN builds a libpq-compatible connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// RedisConfig configures the change relay and scan history.
// An empty Addr disables Redis; the service then runs single-instance.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

// Enabled reports whether a Redis address was configured.
func (c RedisConfig) Enabled() bool { return c.Addr != "" }

// Default returns the local-development configuration.
func Default() Config {
	return Config{
		Environment: "development",
		Store:       StorePostgres,
		LogLevel:    "info",
		HTTP: HTTPConfig{
			Port:         "8080",
			WebDir:       "./web",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 0, // event streams are long-lived
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     "5432",
			User:     "postgres",
			Password: "postgres",
			Name:     "eventcheckin",
			SSLMode:  "disable",
			MaxConns: 20,
			MinConns: 2,
		},
		Redis: RedisConfig{
			Channel: "eventcheckin:changes",
		},
	}
}

// Load builds the configuration from defaults, file, environment and args.
// args excludes the program name.
func Load(args []string) (Config, error) {
	cfg := Default()

	flags := pflag.NewFlagSet("event-checkin", pflag.ContinueOnError)
	configPath := flags.String("config", os.Getenv("EVENTDESK_CONFIG"), "path to a YAML config file")
	port := flags.String("port", "", "HTTP listen port")
	store := flags.String("store", "", "record store: postgres or memory")
	logLevel := flags.String("log-level", "", "debug, info, warn or error")
	webDir := flags.String("web-dir", "", "directory of static console assets")
	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}

	if *configPath != "" {
		if err := loadFile(*configPath, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if flags.Changed("port") {
		cfg.HTTP.Port = *port
	}
	if flags.Changed("store") {
		cfg.Store = *store
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = *logLevel
	}
	if flags.Changed("web-dir") {
		cfg.HTTP.WebDir = *webDir
	}

	return cfg, cfg.Validate()
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Environment, "ENVIRONMENT")
	setString(&cfg.Store, "STORE")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.HTTP.Port, "PORT")
	setString(&cfg.HTTP.WebDir, "WEB_DIR")
	setString(&cfg.Database.Host, "DB_HOST")
	setString(&cfg.Database.Port, "DB_PORT")
	setString(&cfg.Database.User, "DB_USER")
	setString(&cfg.Database.Password, "DB_PASSWORD")
	setString(&cfg.Database.Name, "DB_NAME")
	setString(&cfg.Database.SSLMode, "DB_SSLMODE")
	setString(&cfg.Redis.Addr, "REDIS_URL")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setString(&cfg.Redis.Channel, "REDIS_CHANNEL")
	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REDIS_DB: %w", err)
		}
		cfg.Redis.DB = n
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate rejects configurations the service cannot start with.
func (c Config) Validate() error {
	switch c.Store {
	case StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("unknown store %q (want %s or %s)", c.Store, StorePostgres, StoreMemory)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.HTTP.Port == "" {
		return errors.New("http port is required")
	}
	return nil
}

// SlogLevel maps LogLevel onto a slog.Level.
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// IsDevelopment reports whether human-readable logs are preferred.
func (c Config) IsDevelopment() bool {
	return c.Environment == "" || c.Environment == "development"
}
