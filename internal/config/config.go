package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the service
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Redis     RedisConfig     `yaml:"redis"`
	RabbitMQ  RabbitMQConfig  `yaml:"rabbitmq"`
	Mail      MailConfig      `yaml:"mail"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
	Lists     ListsConfig     `yaml:"lists"`
}

type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	// RateLimitPerMinute caps state-changing requests per agent. 0 disables it.
	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`
}

func (c ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type StorageConfig struct {
	Driver       string `yaml:"driver"`
	DatabaseURL  string `yaml:"database_url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// RedisConfig is optional; an empty URL leaves the lock on Postgres.
type RedisConfig struct {
	URL string `yaml:"url"`
}

type RabbitMQConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
}

type MailConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	From       string `yaml:"from"`
	Supervisor string `yaml:"supervisor"`
}

type ReconcileConfig struct {
	Enabled         bool `yaml:"enabled"`
	IntervalSeconds int  `yaml:"interval_seconds"`
	AutoRepair      bool `yaml:"auto_repair"`
	LockTTLSeconds  int  `yaml:"lock_ttl_seconds"`
	// GraceSeconds is how long a claim must sit untouched before the sweep
	// treats it as orphaned.
	GraceSeconds int `yaml:"grace_seconds"`
}

func (c ReconcileConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

func (c ReconcileConfig) Grace() time.Duration {
	return time.Duration(c.GraceSeconds) * time.Second
}

func (c ReconcileConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

type ListsConfig struct {
	FallbackName string `yaml:"fallback_name"`
}

// Load reads configuration from a YAML file. A missing file yields the
// defaults so the service can run from environment variables alone.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	case os.IsNotExist(err):
	default:
		return nil, err
	}

	cfg.setDefaults()
	return &cfg, nil
}

func (cfg *Config) setDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:5173"}
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DriverPostgres
	}
	if cfg.Storage.MaxOpenConns == 0 {
		cfg.Storage.MaxOpenConns = 25
	}
	if cfg.Mail.Port == 0 {
		cfg.Mail.Port = 587
	}
	if cfg.Reconcile.IntervalSeconds == 0 {
		cfg.Reconcile.IntervalSeconds = 300
	}
	if cfg.Reconcile.GraceSeconds == 0 {
		cfg.Reconcile.GraceSeconds = cfg.Reconcile.IntervalSeconds
	}
	if cfg.Reconcile.LockTTLSeconds == 0 {
		cfg.Reconcile.LockTTLSeconds = 120
	}
	if cfg.Lists.FallbackName == "" {
		cfg.Lists.FallbackName = "Released Contacts"
	}
}

// LoadFromEnv loads configuration with environment variable overrides
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Storage.DatabaseURL = dbURL
	}
	if driver := os.Getenv("STORAGE_DRIVER"); driver != "" {
		cfg.Storage.Driver = driver
	}
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cfg.Redis.URL = redisURL
	}
	if amqpURL := os.Getenv("RABBITMQ_URL"); amqpURL != "" {
		cfg.RabbitMQ.URL = amqpURL
		cfg.RabbitMQ.Enabled = true
	}
	if host := os.Getenv("MAIL_HOST"); host != "" {
		cfg.Mail.Host = host
		cfg.Mail.Enabled = true
	}
	if port, err := strconv.Atoi(os.Getenv("MAIL_PORT")); err == nil && port > 0 {
		cfg.Mail.Port = port
	}
	if user := os.Getenv("MAIL_USER"); user != "" {
		cfg.Mail.User = user
	}
	if pass := os.Getenv("MAIL_PASS"); pass != "" {
		cfg.Mail.Password = pass
	}
	if supervisor := os.Getenv("MAIL_SUPERVISOR"); supervisor != "" {
		cfg.Mail.Supervisor = supervisor
	}
	if port, err := strconv.Atoi(os.Getenv("PORT")); err == nil && port > 0 {
		cfg.Server.Port = port
	}

	return cfg, nil
}
