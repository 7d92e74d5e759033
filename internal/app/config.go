package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (SHOP_ prefix), flags, or YAML config files.
type Config struct {
	Addr       string `default:"0.0.0.0:8080" usage:"HTTP listen address"`
	CatalogURL string `usage:"Products JSON endpoint (SHOP_CATALOG_URL)" flag:"catalog-url"`
	Store      StoreConfig
	State      StateConfig
	Catalog    CatalogConfig
	Session    SessionConfig
	RateLimit  RateLimitConfig
	CORS       CORSConfig
	Graceful   GracefulConfig
}

// StoreConfig identifies the shop whose orders the server prepares.
type StoreConfig struct {
	Name           string `default:"Vitronics Hub" usage:"Store name shown on the page and in order messages"`
	WhatsAppNumber string `default:"254703182530" usage:"Destination WhatsApp number, digits only" flag:"whatsapp-number"`
	ContactLine    string `default:"📞 Call/WhatsApp for assistance: +254 703 182530" usage:"Assistance line appended to order messages" flag:"contact-line"`
	DeliveryFee    int64  `default:"100" usage:"Flat delivery fee in Ksh" flag:"delivery-fee"`
}

// StateConfig selects where cart state lives. Redis when RedisAddr is set,
// otherwise a JSON file at FilePath, otherwise process memory.
type StateConfig struct {
	RedisAddr string `usage:"Redis address for cart state (e.g. localhost:6379)" flag:"redis-addr"`
	FilePath  string `usage:"Path to a JSON state file when Redis is not used" flag:"state-file"`
}

// CatalogConfig controls catalog refresh behaviour.
type CatalogConfig struct {
	Refresh time.Duration `default:"5m" usage:"Interval between background catalog reloads" flag:"catalog-refresh"`
	Timeout time.Duration `default:"10s" usage:"Timeout for a single catalog fetch" flag:"catalog-timeout"`
}

// SessionConfig controls visitor session retention.
type SessionConfig struct {
	MaxIdle time.Duration `default:"12h" usage:"Drop in-memory sessions idle longer than this" flag:"session-max-idle"`
	Sweep   time.Duration `default:"15m" usage:"Interval between idle session sweeps" flag:"session-sweep"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"300" usage:"Max requests per window"`
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

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "SHOP",
		Files:     []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.CatalogURL == "" {
		return nil, errors.New("catalog URL is required: set SHOP_CATALOG_URL or CATALOG_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like CATALOG_URL and PORT to the
// application's SHOP_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.CatalogURL == "" {
		if v := os.Getenv("CATALOG_URL"); v != "" {
			c.CatalogURL = v
		}
	}
	if c.State.RedisAddr == "" {
		if v := os.Getenv("REDIS_ADDR"); v != "" {
			c.State.RedisAddr = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
