package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/corvinae/shopengine/internal/domain/pricing"
)

// Config holds the complete application configuration, loadable from
// environment variables (SHOP_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (SHOP_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	// StatementTimeout bounds every SQL statement server-side.
	StatementTimeout time.Duration `default:"5s" usage:"PostgreSQL statement timeout" flag:"statement-timeout"`
	Pricing          PricingConfig
	Hooks       HooksConfig
	Audit       AuditConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// PricingConfig carries the pricing knobs as decimal strings so the values
// survive config round-trips without float drift.
type PricingConfig struct {
	TaxRate           string `default:"0.08" usage:"Tax rate applied to the cart subtotal (e.g. 0.08)" flag:"tax-rate"`
	ShippingFee       string `default:"5.00" usage:"Flat shipping fee" flag:"shipping-fee"`
	FreeShippingAbove string `default:"100.00" usage:"Subtotal at which shipping is free; empty disables" flag:"free-shipping-above"`
}

// Parse converts the decimal strings into the engine's pricing inputs.
func (c PricingConfig) Parse() (taxRate decimal.Decimal, policy pricing.ShippingPolicy, err error) {
	taxRate, err = decimal.NewFromString(c.TaxRate)
	if err != nil {
		return taxRate, policy, errors.Wrap(err, "parse tax rate")
	}
	policy.FlatFee, err = decimal.NewFromString(c.ShippingFee)
	if err != nil {
		return taxRate, policy, errors.Wrap(err, "parse shipping fee")
	}
	if c.FreeShippingAbove != "" {
		policy.FreeAbove, err = decimal.NewFromString(c.FreeShippingAbove)
		if err != nil {
			return taxRate, policy, errors.Wrap(err, "parse free shipping threshold")
		}
	}
	return taxRate, policy, nil
}

// HooksConfig controls the domain-event dispatcher.
type HooksConfig struct {
	Timeout    time.Duration `default:"5s" usage:"Per-handler timeout for event hooks" flag:"hook-timeout"`
	Concurrent bool          `default:"false" usage:"Run hooks for one event concurrently" flag:"hook-concurrent"`
}

// AuditConfig controls the best-effort audit recorder.
type AuditConfig struct {
	Attempts int           `default:"3" usage:"Write attempts per audit entry" flag:"audit-attempts"`
	Backoff  time.Duration `default:"100ms" usage:"Delay between audit write attempts" flag:"audit-backoff"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "SHOP",
		Files:     []string{"config.yaml", "/etc/shopengine/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set SHOP_DATABASE_URL or DATABASE_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) that use standard names like DATABASE_URL and PORT
// to the application's SHOP_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
