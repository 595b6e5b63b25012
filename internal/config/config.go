package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the runtime configuration of the chat store service.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Audit    AuditConfig    `yaml:"audit"`
	Tracing  TracingConfig  `yaml:"tracing"`
}

type ServerConfig struct {
	Port               string   `yaml:"port"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	DebugRoutes        bool     `yaml:"debug_routes"`
	Environment        string   `yaml:"environment"`
}

// DatabaseConfig selects the relational store. Driver is "sqlite" (file path or
// "file:" DSN) or "postgres" (libpq connection string).
type DatabaseConfig struct {
	Driver       string `yaml:"driver"`
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

type LoggingConfig struct {
	Mode string `yaml:"mode"`
}

type AuditConfig struct {
	AMQPURL    string `yaml:"amqp_url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
}

type TracingConfig struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	ServiceName  string `yaml:"service_name"`
}

// Default returns the configuration used when neither a file nor env overrides are present.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:        "8083",
			Environment: "local",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "./data/chat.db",
		},
		Logging: LoggingConfig{Mode: "development"},
		Audit: AuditConfig{
			Exchange:   "chat.audit",
			RoutingKey: "audit.chat-store",
		},
		Tracing: TracingConfig{ServiceName: "chat-store"},
	}
}

// Load builds the configuration: defaults, then the YAML file named by
// CHAT_STORE_CONFIG (if set), then environment overrides.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv("CHAT_STORE_CONFIG"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)
	cfg.applyDriverDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Server.Environment = getEnv("APP_ENV", cfg.Server.Environment)
	if origins := getEnv("CORS_ALLOWED_ORIGINS", ""); origins != "" {
		cfg.Server.CORSAllowedOrigins = splitList(origins)
	}
	if v, ok := os.LookupEnv("DEBUG_ROUTES"); ok {
		cfg.Server.DebugRoutes, _ = strconv.ParseBool(v)
	}

	cfg.Database.Driver = getEnv("DB_DRIVER", cfg.Database.Driver)
	cfg.Database.DSN = getEnv("DB_DSN", cfg.Database.DSN)
	if v, ok := os.LookupEnv("DB_MAX_OPEN_CONNS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Database.MaxOpenConns = n
		}
	}

	cfg.Logging.Mode = getEnv("LOG_MODE", cfg.Logging.Mode)
	cfg.Audit.AMQPURL = getEnv("AMQP_URL", cfg.Audit.AMQPURL)
	cfg.Audit.Exchange = getEnv("AMQP_EXCHANGE", cfg.Audit.Exchange)
	cfg.Audit.RoutingKey = getEnv("AUDIT_ROUTING_KEY", cfg.Audit.RoutingKey)
	cfg.Tracing.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Tracing.OTLPEndpoint)
	cfg.Tracing.ServiceName = getEnv("OTEL_SERVICE_NAME", cfg.Tracing.ServiceName)
}

// applyDriverDefaults pins SQLite to a single pooled connection unless told otherwise:
// every transaction then owns the database, which keeps teardown counts and deletes serialized.
func (c *Config) applyDriverDefaults() {
	if c.Database.MaxOpenConns > 0 {
		return
	}
	switch c.Database.Driver {
	case "sqlite":
		c.Database.MaxOpenConns = 1
	default:
		c.Database.MaxOpenConns = 10
	}
}

// Validate checks that required fields are present and consistent.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.driver: unsupported driver %q", c.Database.Driver)
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("database.dsn is required")
	}
	if c.Server.Port == "" {
		return errors.New("server.port is required")
	}
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
