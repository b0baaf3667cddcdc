package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers accepted by DIRECTUS_STORAGE.
const (
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageFile     = "file"
	StorageMemory   = "memory"
)

// Config captures environment driven configuration values for the governance service.
type Config struct {
	HTTPPort          int           `yaml:"http_port"`
	Storage           string        `yaml:"storage"`
	SQLiteDSN         string        `yaml:"sqlite_dsn"`
	PostgresURL       string        `yaml:"postgres_url"`
	DataDir           string        `yaml:"data_dir"`
	SessionSecret     string        `yaml:"session_secret"`
	SessionTTL        time.Duration `yaml:"session_ttl"`
	LoginRate         float64       `yaml:"login_rate"`
	LoginBurst        int           `yaml:"login_burst"`
	ExportCompression string        `yaml:"export_compression"`
	ExportRecipients  []string      `yaml:"export_recipients"`
	ImportIdentities  string        `yaml:"import_identities"`
	LogLevel          string        `yaml:"log_level"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		HTTPPort:          8080,
		Storage:           StorageSQLite,
		SQLiteDSN:         "directus.db",
		DataDir:           "data",
		SessionTTL:        12 * time.Hour,
		LoginRate:         1,
		LoginBurst:        5,
		ExportCompression: "none",
		LogLevel:          "info",
	}
}

// Load parses configuration values from the current process environment.
//
// When DIRECTUS_CONFIG_FILE names a YAML file its values replace the defaults,
// and environment variables override both. Missing and invalid entries are
// reported together.
func Load() (Config, error) {
	cfg := Defaults()

	if path := strings.TrimSpace(os.Getenv("DIRECTUS_CONFIG_FILE")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 4)

	if portValue := env("DIRECTUS_HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "DIRECTUS_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if storage := env("DIRECTUS_STORAGE"); storage != "" {
		cfg.Storage = strings.ToLower(storage)
	}
	switch cfg.Storage {
	case StorageSQLite, StoragePostgres, StorageFile, StorageMemory:
	default:
		invalid = append(invalid, "DIRECTUS_STORAGE")
	}

	if dsn := env("DIRECTUS_SQLITE_DSN"); dsn != "" {
		cfg.SQLiteDSN = dsn
	}
	if url := env("DIRECTUS_POSTGRES_URL"); url != "" {
		cfg.PostgresURL = url
	}
	if cfg.Storage == StoragePostgres && cfg.PostgresURL == "" {
		missing = append(missing, "DIRECTUS_POSTGRES_URL")
	}
	if dir := env("DIRECTUS_DATA_DIR"); dir != "" {
		cfg.DataDir = dir
	}

	if secret := env("DIRECTUS_SESSION_SECRET"); secret != "" {
		cfg.SessionSecret = secret
	}
	if cfg.SessionSecret == "" {
		missing = append(missing, "DIRECTUS_SESSION_SECRET")
	}

	if ttlValue := env("DIRECTUS_SESSION_TTL"); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "DIRECTUS_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if rateValue := env("DIRECTUS_LOGIN_RATE"); rateValue != "" {
		rate, err := strconv.ParseFloat(rateValue, 64)
		if err != nil || rate <= 0 {
			invalid = append(invalid, "DIRECTUS_LOGIN_RATE")
		} else {
			cfg.LoginRate = rate
		}
	}

	if burstValue := env("DIRECTUS_LOGIN_BURST"); burstValue != "" {
		burst, err := strconv.Atoi(burstValue)
		if err != nil || burst <= 0 {
			invalid = append(invalid, "DIRECTUS_LOGIN_BURST")
		} else {
			cfg.LoginBurst = burst
		}
	}

	if compression := env("DIRECTUS_EXPORT_COMPRESSION"); compression != "" {
		cfg.ExportCompression = strings.ToLower(compression)
	}
	switch cfg.ExportCompression {
	case "none", "zstd", "lz4":
	default:
		invalid = append(invalid, "DIRECTUS_EXPORT_COMPRESSION")
	}

	if recipients := env("DIRECTUS_EXPORT_RECIPIENTS"); recipients != "" {
		cfg.ExportRecipients = splitList(recipients)
	}

	if identities := env("DIRECTUS_IMPORT_IDENTITIES"); identities != "" {
		cfg.ImportIdentities = identities
	}

	if level := env("DIRECTUS_LOG_LEVEL"); level != "" {
		cfg.LogLevel = strings.ToLower(level)
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		invalid = append(invalid, "DIRECTUS_LOG_LEVEL")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("environment variables have invalid values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	if cfg.SessionTTL < 0 {
		return errors.New("parse config file: session_ttl must be positive")
	}
	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
