package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"

	"github.com/xenking/duka-api/internal/mpesa"
)

// Config holds the complete application configuration, loadable from
// environment variables (DUKA_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string        `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string        `usage:"PostgreSQL connection URL (DUKA_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	JWTSecret   string        `usage:"HMAC secret for bearer tokens (DUKA_JWT_SECRET)" flag:"jwt-secret"`
	TokenTTL    time.Duration `default:"24h" usage:"Bearer token lifetime" flag:"token-ttl"`
	Mpesa       MpesaConfig
	Poller      PollerConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// MpesaConfig holds the Daraja API credentials and endpoints.
type MpesaConfig struct {
	ConsumerKey    string `usage:"Daraja consumer key" flag:"mpesa-consumer-key"`
	ConsumerSecret string `usage:"Daraja consumer secret" flag:"mpesa-consumer-secret"`
	Shortcode      string `usage:"Paybill business shortcode" flag:"mpesa-shortcode"`
	Passkey        string `usage:"STK push passkey" flag:"mpesa-passkey"`
	AuthURL        string `default:"https://sandbox.safaricom.co.ke/oauth/v1/generate?grant_type=client_credentials" usage:"OAuth token endpoint" flag:"mpesa-auth-url"`
	STKPushURL     string `default:"https://sandbox.safaricom.co.ke/mpesa/stkpush/v1/processrequest" usage:"STK push endpoint" flag:"mpesa-push-url"`
	STKQueryURL    string `default:"https://sandbox.safaricom.co.ke/mpesa/stkpushquery/v1/query" usage:"STK push status endpoint" flag:"mpesa-query-url"`
	CallbackURL    string `usage:"Public URL the provider posts results to" flag:"mpesa-callback-url"`
}

// clientConfig converts to the mpesa client's config type.
func (c MpesaConfig) clientConfig() mpesa.Config {
	return mpesa.Config{
		ConsumerKey:    c.ConsumerKey,
		ConsumerSecret: c.ConsumerSecret,
		Shortcode:      c.Shortcode,
		Passkey:        c.Passkey,
		AuthURL:        c.AuthURL,
		STKPushURL:     c.STKPushURL,
		STKQueryURL:    c.STKQueryURL,
		CallbackURL:    c.CallbackURL,
	}
}

// PollerConfig controls the background transaction reconciler.
type PollerConfig struct {
	Interval time.Duration `default:"1m" usage:"Pending transaction reconciliation interval" flag:"poll-interval"`
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
// files, and applies platform-specific defaults. Missing credentials fail
// here, before any connection is opened.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "DUKA",
		Files:     []string{"config.yaml", "/etc/duka/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set DUKA_DATABASE_URL or DATABASE_URL")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT secret is required: set DUKA_JWT_SECRET")
	}
	if err := cfg.Mpesa.clientConfig().Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's DUKA_-prefixed configuration.
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
