package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix    = "BINCOLLECT_"
	configEnvVar = "CONFIG_PATH"
)

// Loader загружает конфигурацию из разных источников
type Loader struct {
	k           *koanf.Koanf
	configPaths []string
	envPrefix   string
}

// NewLoader создаёт новый загрузчик конфигурации
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		k: koanf.New("."),
		configPaths: []string{
			"config.yaml",
			"config/config.yaml",
			"/etc/bincollect/config.yaml",
		},
		envPrefix: envPrefix,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// LoaderOption - опция для конфигурации загрузчика
type LoaderOption func(*Loader)

// WithConfigPaths устанавливает пути поиска конфигурации
func WithConfigPaths(paths ...string) LoaderOption {
	return func(l *Loader) {
		l.configPaths = paths
	}
}

// WithEnvPrefix устанавливает префикс переменных окружения
func WithEnvPrefix(prefix string) LoaderOption {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// Load загружает конфигурацию с приоритетом:
// 1. Defaults (самый низкий)
// 2. Config file (yaml)
// 3. Environment variables (самый высокий)
func (l *Loader) Load() (*Config, error) {
	if err := l.loadDefaults(); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Файл не обязателен
	if err := l.loadConfigFile(); err != nil {
		fmt.Printf("Warning: %v\n", err)
	}

	if err := l.loadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}

	var cfg Config
	if err := l.k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadDefaults загружает значения по умолчанию
func (l *Loader) loadDefaults() error {
	defaults := map[string]any{
		// App
		"app.name":        "bincollect-admin",
		"app.version":     "1.0.0",
		"app.environment": "development",
		"app.debug":       false,

		// HTTP
		"http.port":             8080,
		"http.read_timeout":     15 * time.Second,
		"http.write_timeout":    60 * time.Second,
		"http.idle_timeout":     2 * time.Minute,
		"http.shutdown_timeout": 15 * time.Second,

		// Log
		"log.level":       "info",
		"log.format":      "json",
		"log.output":      "stdout",
		"log.max_size":    100,
		"log.max_backups": 5,
		"log.max_age":     30,
		"log.compress":    true,

		// Database
		"database.host":               "localhost",
		"database.port":               5432,
		"database.database":           "bincollect",
		"database.username":           "bincollect",
		"database.password":           "",
		"database.ssl_mode":           "disable",
		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  time.Hour,
		"database.conn_max_idle_time": 15 * time.Minute,
		"database.auto_migrate":       true,

		// Cache
		"cache.enabled":     true,
		"cache.backend":     "memory",
		"cache.host":        "localhost",
		"cache.port":        6379,
		"cache.db":          0,
		"cache.default_ttl": 30 * time.Second,
		"cache.max_entries": 10000,

		// Metrics
		"metrics.enabled":   true,
		"metrics.path":      "/metrics",
		"metrics.namespace": "bincollect",
		"metrics.subsystem": "admin",

		// Tracing
		"tracing.enabled":      false,
		"tracing.endpoint":     "localhost:4317",
		"tracing.service_name": "bincollect-admin",
		"tracing.sample_rate":  1.0,

		// Audit
		"audit.enabled":      true,
		"audit.backend":      "file",
		"audit.file_path":    "logs/audit.log",
		"audit.buffer_size":  1000,
		"audit.flush_period": 5 * time.Second,

		// Session
		"session.cookie_name": "bincollect_admin",
		"session.secret":      "change-me-in-production",
		"session.max_age":     12 * time.Hour,
		"session.secure":      false,

		// Auth
		"auth.jwt_secret": "change-me-in-production",
		"auth.issuer":     "bincollect-admin",
		"auth.expiry":     15 * time.Minute,

		// Rate limit
		"rate_limit.enabled":  true,
		"rate_limit.backend":  "memory",
		"rate_limit.requests": 30,
		"rate_limit.window":   time.Minute,

		// Reports
		"reports.storage_root":   "data",
		"reports.producer":       "text",
		"reports.default_format": "pdf",
		"reports.recent_limit":   50,

		// Dashboard
		"dashboard.schema_variant": "",
		"dashboard.cache_ttl":      30 * time.Second,
	}

	return l.k.Load(confmap.Provider(defaults, "."), nil)
}

// loadConfigFile загружает конфигурацию из yaml файла
func (l *Loader) loadConfigFile() error {
	paths := l.configPaths
	if envPath := os.Getenv(configEnvVar); envPath != "" {
		paths = append([]string{envPath}, paths...)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := l.k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		return nil
	}

	return fmt.Errorf("no config file found in %v", paths)
}

// envKeyMappings - маппинг для ключей, в которых подчёркивание является
// частью имени поля, а не разделителем секций
var envKeyMappings = map[string]string{
	"database.ssl.mode":          "database.ssl_mode",
	"database.max.open.conns":    "database.max_open_conns",
	"database.max.idle.conns":    "database.max_idle_conns",
	"database.conn.max.lifetime": "database.conn_max_lifetime",
	"database.auto.migrate":      "database.auto_migrate",
	"log.file.path":              "log.file_path",
	"audit.file.path":            "audit.file_path",
	"audit.buffer.size":          "audit.buffer_size",
	"audit.flush.period":         "audit.flush_period",
	"session.cookie.name":        "session.cookie_name",
	"session.max.age":            "session.max_age",
	"auth.jwt.secret":            "auth.jwt_secret",
	"rate.limit.enabled":         "rate_limit.enabled",
	"rate.limit.backend":         "rate_limit.backend",
	"rate.limit.requests":        "rate_limit.requests",
	"rate.limit.window":          "rate_limit.window",
	"reports.storage.root":       "reports.storage_root",
	"reports.default.format":     "reports.default_format",
	"reports.recent.limit":       "reports.recent_limit",
	"dashboard.schema.variant":   "dashboard.schema_variant",
	"dashboard.cache.ttl":        "dashboard.cache_ttl",
}

// loadEnv загружает переменные окружения.
// BINCOLLECT_DATABASE_HOST -> database.host
func (l *Loader) loadEnv() error {
	return l.k.Load(env.Provider(l.envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, l.envPrefix))
		key = strings.ReplaceAll(key, "_", ".")
		if mapped, ok := envKeyMappings[key]; ok {
			return mapped
		}
		return key
	}), nil)
}

// MustLoad загружает конфигурацию или паникует
func MustLoad() *Config {
	cfg, err := NewLoader().Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}
