package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/wekeepgrowing/mailshield/pkg/config"
	"github.com/wekeepgrowing/mailshield/pkg/logger"
)

// ServiceName is the config file base name and the environment variable prefix.
const ServiceName = "mailshield"

type Config struct {
	Service   ServiceConfig   `mapstructure:"service"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Supabase  SupabaseConfig  `mapstructure:"supabase"`
	Stripe    StripeConfig    `mapstructure:"stripe"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Email     EmailConfig     `mapstructure:"email"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       logger.Config   `mapstructure:"log"`
	PlansFile string          `mapstructure:"plans_file"`
}

// secretKeys are commonly supplied only through the environment.
var secretKeys = []string{
	"database.password",
	"supabase.anon_key",
	"supabase.service_role_key",
	"supabase.jwt_secret",
	"stripe.secret_key",
	"stripe.webhook_secret",
	"redis.password",
	"email.api_key",
}

var defaults = map[string]interface{}{
	"service.name":                  ServiceName,
	"service.environment":           "development",
	"server.http.port":              8080,
	"server.grpc.port":              9090,
	"database.port":                 5432,
	"database.sslmode":              "require",
	"database.max_open_conns":       20,
	"database.max_idle_conns":       5,
	"database.conn_max_lifetime":    "30m",
	"database.conn_max_idle_time":   "5m",
	"redis.port":                    6379,
	"email.region":                  "us",
	"rate_limit.window":             "1m",
	"rate_limit.default_per_window": 60,
	"plans_file":                    "configs/plans.yaml",
	"log.level":                     "info",
	"log.format":                    "json",
}

// LoadConfig reads configs/<APP_ENV>/mailshield.yaml (or CONFIG_PATH) with
// MAILSHIELD_* environment overrides.
func LoadConfig() (*Config, error) {
	src, err := pkgconfig.Load(ServiceName, pkgconfig.Options{
		Defaults: defaults,
		BindEnv:  secretKeys,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var cfg Config
	if err := src.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", src.File(), err)
	}
	return &cfg, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Supabase.JWTSecret == "" {
		return fmt.Errorf("supabase.jwt_secret is required")
	}
	if c.Stripe.SecretKey == "" {
		return fmt.Errorf("stripe.secret_key is required")
	}
	if c.RateLimit.Window <= 0 {
		c.RateLimit.Window = time.Minute
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Service.Environment == "production"
}
