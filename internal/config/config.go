package config

import (
	"errors"
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const DefaultSecret = "default-secret"

var ErrDatabaseURLRequired = errors.New("database url is required")

type Config struct {
	Debug                  bool          `yaml:"debug" env:"DEBUG"`
	Host                   string        `yaml:"host" env:"HOST"`
	Port                   string        `yaml:"port" env:"PORT"`
	Secret                 string        `yaml:"secret" env:"SECRET"`
	BaseURL                string        `yaml:"base_url" env:"BASE_URL"`
	DatabaseURL            string        `yaml:"database_url" env:"DATABASE_URL"`
	MigrationSource        string        `yaml:"migration_source" env:"MIGRATION_SOURCE"`
	OtelCollectorUrl       string        `yaml:"otel_collector_url" env:"OTEL_COLLECTOR_URL"`
	AllowOrigins           []string      `yaml:"allow_origins" env:"ALLOW_ORIGINS"`
	AccessTokenExpiration  time.Duration `yaml:"access_token_expiration" env:"ACCESS_TOKEN_EXPIRATION"`
	RefreshTokenExpiration time.Duration `yaml:"refresh_token_expiration" env:"REFRESH_TOKEN_EXPIRATION"`
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return ErrDatabaseURLRequired
	}
	return nil
}

// Log buffers loader messages until the zap logger exists, since the logger
// itself is configured from the loaded config.
type Log struct {
	entries []entry
}

type entry struct {
	level   logLevel
	message string
	fields  []zap.Field
}

type logLevel int

const (
	levelInfo logLevel = iota
	levelWarn
)

func (l *Log) info(message string, fields ...zap.Field) {
	l.entries = append(l.entries, entry{level: levelInfo, message: message, fields: fields})
}

func (l *Log) warn(message string, fields ...zap.Field) {
	l.entries = append(l.entries, entry{level: levelWarn, message: message, fields: fields})
}

func (l *Log) FlushToZap(logger *zap.Logger) {
	for _, e := range l.entries {
		switch e.level {
		case levelWarn:
			logger.Warn(e.message, e.fields...)
		default:
			logger.Info(e.message, e.fields...)
		}
	}
	l.entries = nil
}

// Load resolves the configuration in increasing priority:
// defaults, config.yaml, .env file, environment variables, command line flags.
func Load() (Config, *Log) {
	cfgLog := &Log{}

	cfg := Config{
		Host:                   "localhost",
		Port:                   "8080",
		Secret:                 DefaultSecret,
		BaseURL:                "http://localhost:8080",
		MigrationSource:        "file://migrations",
		AllowOrigins:           []string{"http://localhost:5173"},
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
	}

	cfg = loadYamlFile(cfg, "config.yaml", cfgLog)
	cfg = loadEnvFile(cfg, cfgLog)
	cfg = loadEnv(cfg)
	cfg = loadFlags(cfg)

	return cfg, cfgLog
}

func loadYamlFile(cfg Config, path string, cfgLog *Log) Config {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			cfgLog.warn("Failed to read config file", zap.String("path", path), zap.Error(err))
		}
		return cfg
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		cfgLog.warn("Failed to parse config file, ignoring it", zap.String("path", path), zap.Error(err))
		return cfg
	}

	cfgLog.info("Loaded config file", zap.String("path", path))
	return cfg
}

func loadEnvFile(cfg Config, cfgLog *Log) Config {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			cfgLog.warn("Failed to load .env file", zap.Error(err))
		}
		return cfg
	}

	cfgLog.info("Loaded .env file")
	return cfg
}

func loadEnv(cfg Config) Config {
	if v, ok := os.LookupEnv("DEBUG"); ok {
		if debug, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = debug
		}
	}
	if v, ok := os.LookupEnv("HOST"); ok {
		cfg.Host = v
	}
	if v, ok := os.LookupEnv("PORT"); ok {
		cfg.Port = v
	}
	if v, ok := os.LookupEnv("SECRET"); ok {
		cfg.Secret = v
	}
	if v, ok := os.LookupEnv("BASE_URL"); ok {
		cfg.BaseURL = v
	}
	if v, ok := os.LookupEnv("DATABASE_URL"); ok {
		cfg.DatabaseURL = v
	}
	if v, ok := os.LookupEnv("MIGRATION_SOURCE"); ok {
		cfg.MigrationSource = v
	}
	if v, ok := os.LookupEnv("OTEL_COLLECTOR_URL"); ok {
		cfg.OtelCollectorUrl = v
	}
	if v, ok := os.LookupEnv("ALLOW_ORIGINS"); ok {
		cfg.AllowOrigins = splitAndTrim(v)
	}
	if v, ok := os.LookupEnv("ACCESS_TOKEN_EXPIRATION"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.AccessTokenExpiration = d
		}
	}
	if v, ok := os.LookupEnv("REFRESH_TOKEN_EXPIRATION"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RefreshTokenExpiration = d
		}
	}
	return cfg
}

func loadFlags(cfg Config) Config {
	if flag.Parsed() {
		return cfg
	}

	debug := flag.Bool("debug", cfg.Debug, "enable debug mode")
	host := flag.String("host", cfg.Host, "server host")
	port := flag.String("port", cfg.Port, "server port")
	secret := flag.String("secret", cfg.Secret, "jwt signing secret")
	databaseURL := flag.String("database-url", cfg.DatabaseURL, "postgres connection url")
	migrationSource := flag.String("migration-source", cfg.MigrationSource, "database migration source")
	flag.Parse()

	cfg.Debug = *debug
	cfg.Host = *host
	cfg.Port = *port
	cfg.Secret = *secret
	cfg.DatabaseURL = *databaseURL
	cfg.MigrationSource = *migrationSource

	return cfg
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
