package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type Config struct {
	HTTP     HTTPConfig     `yaml:"http" envPrefix:"HTTP_"`
	Database DatabaseConfig `yaml:"database" envPrefix:"DATABASE_"`
	Redis    RedisConfig    `yaml:"redis" envPrefix:"REDIS_"`
	Kafka    KafkaConfig    `yaml:"kafka" envPrefix:"KAFKA_"`
	Search   SearchConfig   `yaml:"search" envPrefix:"SEARCH_"`
	Worker   WorkerConfig   `yaml:"worker" envPrefix:"WORKER_"`
	Log      LogConfig      `yaml:"log" envPrefix:"LOG_"`
}

type HTTPConfig struct {
	Address               string  `yaml:"address" env:"ADDRESS"`
	RequestTimeoutSeconds int     `yaml:"request_timeout_seconds" env:"REQUEST_TIMEOUT_SECONDS"`
	// RateLimitRPS is the per-client request budget; 0 disables limiting.
	RateLimitRPS          float64 `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS" validate:"min=0"`
	RateLimitBurst        int     `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST" validate:"min=0"`
}

func (h HTTPConfig) RequestTimeout() time.Duration {
	return time.Duration(h.RequestTimeoutSeconds) * time.Second
}

type DatabaseConfig struct {
	Host        string `yaml:"host" env:"HOST" validate:"required"`
	Port        int    `yaml:"port" env:"PORT" validate:"min=1,max=65535"`
	User        string `yaml:"user" env:"USER"`
	Password    string `yaml:"password" env:"PASSWORD"`
	Name        string `yaml:"name" env:"NAME" validate:"required"`
	SSLMode     string `yaml:"ssl_mode" env:"SSL_MODE"`
	AutoMigrate bool   `yaml:"auto_migrate" env:"AUTO_MIGRATE"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// MigrateURL is the pgx5:// URL golang-migrate expects.
func (d DatabaseConfig) MigrateURL() string {
	u := url.URL{
		Scheme:   "pgx5",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + strconv.Itoa(d.Port),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"ADDR"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`
}

type KafkaConfig struct {
	Brokers    []string `yaml:"brokers" env:"BROKERS" envSeparator:","`
	FaresTopic string   `yaml:"fares_topic" env:"FARES_TOPIC"`
	GroupID    string   `yaml:"group_id" env:"GROUP_ID"`
	// DeadLetter parks undecodable fare events on <fares_topic>.dlq.
	DeadLetter bool     `yaml:"dead_letter" env:"DEAD_LETTER"`
}

type SearchConfig struct {
	PageSize       int `yaml:"page_size" env:"PAGE_SIZE" validate:"max=500"`
	FacetsCacheTTL int `yaml:"facets_cache_ttl_seconds" env:"FACETS_CACHE_TTL_SECONDS" validate:"min=0"`
}

func (s SearchConfig) FacetsTTL() time.Duration {
	return time.Duration(s.FacetsCacheTTL) * time.Second
}

type WorkerConfig struct {
	FacetRefreshMinutes int `yaml:"facet_refresh_minutes" env:"FACET_REFRESH_MINUTES"`
}

type LogConfig struct {
	Env string `yaml:"env" env:"ENV"`
}

// LoadConfig reads the YAML file at path and then applies environment
// overrides such as DATABASE_HOST or SEARCH_PAGE_SIZE.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply env overrides: %w", err)
	}

	cfg.applyDefaults()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.HTTP.RequestTimeoutSeconds <= 0 {
		c.HTTP.RequestTimeoutSeconds = 10
	}
	if c.Search.PageSize <= 0 {
		c.Search.PageSize = 20
	}
	if c.Kafka.FaresTopic == "" {
		c.Kafka.FaresTopic = "fares.changed"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "farequote-worker"
	}
	if c.Worker.FacetRefreshMinutes <= 0 {
		c.Worker.FacetRefreshMinutes = 5
	}
	if c.Log.Env == "" {
		c.Log.Env = "development"
	}
}
