package api

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.temporal.io/sdk/client"

	orderdomain "github.com/Apurer/brix-market/internal/domains/orders/domain"
	"github.com/Apurer/brix-market/internal/platform/observability"
)

// Config carries environment-driven settings for the API, worker and tooling processes.
type Config struct {
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	Port        string `mapstructure:"port"`
	PostgresDSN string `mapstructure:"postgres_dsn"`

	TemporalAddress   string `mapstructure:"temporal_address"`
	TemporalNamespace string `mapstructure:"temporal_namespace"`
	TemporalDisabled  bool   `mapstructure:"temporal_disabled"`

	AuthJWTSecret string        `mapstructure:"auth_jwt_secret"`
	AuthJWTIssuer string        `mapstructure:"auth_jwt_issuer"`
	AuthTokenTTL  time.Duration `mapstructure:"auth_token_ttl"`

	OrderLeadDays int `mapstructure:"order_lead_days"`

	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`

	OTLPEndpoint string `mapstructure:"otel_exporter_otlp_endpoint"`
	OTLPInsecure bool   `mapstructure:"otel_exporter_otlp_insecure"`

	NotifyWebhookURL string `mapstructure:"notify_webhook_url"`

	SeedDemoData bool `mapstructure:"seed_demo_data"`
}

// devJWTSecret is only accepted outside production.
const devJWTSecret = "brix-market-dev-secret"

var configKeys = []string{
	"environment", "log_level", "port", "postgres_dsn",
	"temporal_address", "temporal_namespace", "temporal_disabled",
	"auth_jwt_secret", "auth_jwt_issuer", "auth_token_ttl",
	"order_lead_days", "rate_limit_rps", "rate_limit_burst",
	"otel_exporter_otlp_endpoint", "otel_exporter_otlp_insecure",
	"notify_webhook_url", "seed_demo_data",
}

// LoadConfig reads environment variables, applies defaults, and validates basic constraints.
func LoadConfig() (Config, error) {
	return loadConfig(viper.New())
}

func loadConfig(v *viper.Viper) (Config, error) {
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Unmarshal only sees keys viper knows about; bind each so plain env vars are picked up.
	for _, key := range configKeys {
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", key, err)
		}
	}
	// Demo accounts include an administrator, so seeding is opt-in for production.
	v.SetDefault("seed_demo_data", !Config{Environment: v.GetString("environment")}.IsProduction())
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.PostgresDSN = strings.TrimSpace(cfg.PostgresDSN)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("port", "8080")
	v.SetDefault("postgres_dsn", "")
	v.SetDefault("temporal_address", client.DefaultHostPort)
	v.SetDefault("temporal_namespace", client.DefaultNamespace)
	v.SetDefault("temporal_disabled", false)
	v.SetDefault("auth_jwt_secret", devJWTSecret)
	v.SetDefault("auth_jwt_issuer", "brix-market")
	v.SetDefault("auth_token_ttl", "24h")
	v.SetDefault("order_lead_days", orderdomain.DefaultLeadDays)
	v.SetDefault("rate_limit_rps", 20.0)
	v.SetDefault("rate_limit_burst", 40)
	v.SetDefault("otel_exporter_otlp_endpoint", "")
	v.SetDefault("otel_exporter_otlp_insecure", true)
	v.SetDefault("notify_webhook_url", "")
}

// Validate rejects settings the processes cannot run with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Port) == "" {
		errs = append(errs, errors.New("PORT must not be empty"))
	}
	if strings.TrimSpace(c.AuthJWTSecret) == "" {
		errs = append(errs, errors.New("AUTH_JWT_SECRET is required"))
	} else if c.IsProduction() && c.AuthJWTSecret == devJWTSecret {
		errs = append(errs, errors.New("AUTH_JWT_SECRET must be set in production"))
	}
	if c.AuthTokenTTL <= 0 {
		errs = append(errs, errors.New("AUTH_TOKEN_TTL must be a positive duration"))
	}
	if c.OrderLeadDays < 0 {
		errs = append(errs, errors.New("ORDER_LEAD_DAYS must not be negative"))
	}
	if c.RateLimitRPS < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS must not be negative"))
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_BURST must be a positive integer"))
	}
	if c.IsProduction() && c.SeedDemoData {
		errs = append(errs, errors.New("SEED_DEMO_DATA must be disabled in production"))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether the process runs in production.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}

// Observability returns the telemetry settings for a named process.
func (c Config) Observability(serviceName string) observability.Config {
	return observability.Config{
		ServiceName:  serviceName,
		Environment:  c.Environment,
		OTLPEndpoint: c.OTLPEndpoint,
		OTLPInsecure: c.OTLPInsecure,
		LogLevel:     c.LogLevel,
	}
}
