package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")
	v.AddConfigPath("/app/configs")

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Allow common env vars without APP_ prefix for Docker/VM deploys
	v.BindEnv("http.port", "HTTP_PORT", "APP_HTTP_PORT")
	v.BindEnv("database.url", "DATABASE_URL", "APP_DATABASE_URL")
	v.BindEnv("mongo.uri", "MONGO_URI", "APP_MONGO_URI")
	v.BindEnv("redis.url", "REDIS_URL", "APP_REDIS_URL")
	v.BindEnv("queue.url", "NATS_URL", "APP_QUEUE_URL")
	v.BindEnv("queue.brokers", "KAFKA_BROKERS", "APP_QUEUE_BROKERS")
	v.BindEnv("vault.token", "VAULT_TOKEN", "APP_VAULT_TOKEN")
	v.BindEnv("app.environment", "APP_ENVIRONMENT")
	v.BindEnv("logging.level", "LOG_LEVEL", "APP_LOGGING_LEVEL")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "sigec-insights")
	v.SetDefault("app.version", "v1.0.0")
	v.SetDefault("app.environment", "development")

	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 10*time.Second)
	v.SetDefault("http.write_timeout", 30*time.Second)
	v.SetDefault("http.idle_timeout", 60*time.Second)
	v.SetDefault("http.shutdown_timeout", 30*time.Second)

	v.SetDefault("source.backend", "mongo")
	v.SetDefault("source.fetch_timeout", 15*time.Second)

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "sigec")
	v.SetDefault("mongo.max_pool_size", 50)
	v.SetDefault("mongo.min_pool_size", 5)
	v.SetDefault("mongo.connect_timeout", 10*time.Second)
	v.SetDefault("mongo.socket_timeout", 30*time.Second)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.log_queries", false)

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)

	v.SetDefault("cache.driver", "local")
	v.SetDefault("cache.ttl", 60*time.Second)
	v.SetDefault("cache.cleanup_interval", time.Minute)
	v.SetDefault("cache.max_entries", 1024)

	v.SetDefault("queue.enabled", false)
	v.SetDefault("queue.driver", "nats")
	v.SetDefault("queue.url", "nats://localhost:4222")
	v.SetDefault("queue.brokers", []string{"localhost:9092"})
	v.SetDefault("queue.group_id", "sigec-insights")
	v.SetDefault("queue.max_reconnects", 10)
	v.SetDefault("queue.reconnect_wait", 2*time.Second)

	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "http://localhost:8200")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.mount", "secret")

	v.SetDefault("opentelemetry.enabled", false)
	v.SetDefault("opentelemetry.service_name", "sigec-insights")
	v.SetDefault("opentelemetry.endpoint", "localhost:4317")
	v.SetDefault("opentelemetry.protocol", "grpc")
	v.SetDefault("opentelemetry.insecure", true)
	v.SetDefault("opentelemetry.sample_ratio", 1.0)
	v.SetDefault("opentelemetry.timeout", 10*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("circuit_breaker.enabled", true)
	v.SetDefault("circuit_breaker.max_requests", 3)
	v.SetDefault("circuit_breaker.interval", 60*time.Second)
	v.SetDefault("circuit_breaker.timeout", 30*time.Second)
	v.SetDefault("circuit_breaker.failure_threshold", 5)
	v.SetDefault("circuit_breaker.retries", 2)
	v.SetDefault("circuit_breaker.retry_delay", 100*time.Millisecond)

	v.SetDefault("cors.enabled", true)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Accept", "X-Request-ID"})
	v.SetDefault("cors.expose_headers", []string{"Content-Length", "X-Run-ID"})
	v.SetDefault("cors.max_age", 86400)
	v.SetDefault("cors.credentials", false)

	v.SetDefault("analytics.window", "7d")
	v.SetDefault("analytics.top_n", 5)
	v.SetDefault("analytics.timezone", "UTC")
}

// Validate rejects values the server cannot start with.
func (c *Config) Validate() error {
	switch c.Source.Backend {
	case "mongo", "postgres", "memory":
	default:
		return fmt.Errorf("invalid source.backend %q", c.Source.Backend)
	}
	if c.Source.Backend == "postgres" && c.Database.URL == "" && !c.Vault.Enabled {
		return fmt.Errorf("database.url is required for the postgres backend")
	}

	switch c.Cache.Driver {
	case "redis", "local", "none", "":
	default:
		return fmt.Errorf("invalid cache.driver %q", c.Cache.Driver)
	}

	if c.Queue.Enabled {
		switch c.Queue.Driver {
		case "nats", "rabbitmq", "kafka":
		default:
			return fmt.Errorf("invalid queue.driver %q", c.Queue.Driver)
		}
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid logging.format %q", c.Logging.Format)
	}

	if c.Analytics.TopN <= 0 {
		return fmt.Errorf("analytics.top_n must be positive, got %d", c.Analytics.TopN)
	}
	return nil
}
