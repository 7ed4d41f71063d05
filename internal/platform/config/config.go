package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"yapisite/internal/i18n"
	strutil "yapisite/pkg/platform/strings"
)

// Unsupported locale-prefix policies.
const (
	UnsupportedPrefixPassthrough = "passthrough"
	UnsupportedPrefixRedirect    = "redirect"
	UnsupportedPrefixNotFound    = "notfound"
)

// ErrMisconfigured marks routing configuration that must stop startup.
var ErrMisconfigured = errors.New("routing misconfiguration")

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"YAPI_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"YAPI_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	LogFormat       string        `env:"YAPI_LOG_FORMAT" envDefault:"json"`
	LogLevel        string        `env:"YAPI_LOG_LEVEL" envDefault:"info"`
	StaticDir       string        `env:"YAPI_STATIC_DIR" envDefault:"./static"`
	UploadsDir      string        `env:"YAPI_UPLOADS_DIR" envDefault:"./uploads"`
	CORSOrigins     []string      `env:"YAPI_CORS_ORIGINS" envSeparator:","`

	Site     Site
	Locale   Locale
	Routing  Routing
	Session  Session
	Database Database
	Redis    RedisConfig
	Cache    Cache
	Tracing  Tracing
}

// Site holds the canonical host policy.
type Site struct {
	// CanonicalURL is scheme://host; empty disables host canonicalization.
	CanonicalURL        string `env:"SITE_CANONICAL_URL"`
	TrustForwardedProto bool   `env:"SITE_TRUST_FORWARDED_PROTO" envDefault:"false"`
}

// Locale holds the locale set and prefix policies.
type Locale struct {
	Default               string   `env:"LOCALE_DEFAULT" envDefault:"tr"`
	Supported             []string `env:"LOCALE_SUPPORTED" envSeparator:"," envDefault:"tr,en"`
	Fallback              []string `env:"LOCALE_FALLBACK" envSeparator:","`
	RedirectDefaultPrefix bool     `env:"LOCALE_REDIRECT_DEFAULT_PREFIX" envDefault:"false"`
	UnsupportedPrefix     string   `env:"LOCALE_UNSUPPORTED_PREFIX_POLICY" envDefault:"passthrough"`
}

// Routing holds the path prefixes used to classify requests.
type Routing struct {
	AdminPrefix   string   `env:"ROUTING_ADMIN_PREFIX" envDefault:"/admin"`
	LoginPath     string   `env:"ROUTING_LOGIN_PATH" envDefault:"/admin/login"`
	InfraPrefixes []string `env:"ROUTING_INFRA_PREFIXES" envSeparator:"," envDefault:"/api,/static,/uploads,/metrics,/healthz,/favicon.ico,/robots.txt,/sitemap.xml"`
	ReturnToParam string   `env:"ROUTING_RETURN_TO_PARAM" envDefault:"from"`
}

// Session holds token signing and admin bootstrap settings.
type Session struct {
	SigningKey    string        `env:"SESSION_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	Issuer        string        `env:"SESSION_ISSUER" envDefault:"yapisite"`
	TTL           time.Duration `env:"SESSION_TTL" envDefault:"12h"`
	CookieName    string        `env:"SESSION_COOKIE_NAME" envDefault:"yapi_session"`
	AdminEmail    string        `env:"ADMIN_EMAIL"`
	AdminHash     string        `env:"ADMIN_PASSWORD_HASH"`
	AdminRole     string        `env:"ADMIN_ROLE" envDefault:"admin"`
	LoginAttempts int           `env:"ADMIN_LOGIN_ATTEMPTS" envDefault:"5"`
	LoginWindow   time.Duration `env:"ADMIN_LOGIN_WINDOW" envDefault:"15m"`
}

// Database holds the Postgres connection settings. An empty URL selects in-memory stores.
type Database struct {
	URL             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DATABASE_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"DATABASE_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DATABASE_CONN_MAX_LIFETIME" envDefault:"30m"`
	Migrate         bool          `env:"DATABASE_MIGRATE" envDefault:"true"`
	SeedSample      bool          `env:"DATABASE_SEED_SAMPLE" envDefault:"false"`
}

// RedisConfig holds the Redis connection settings. An empty URL disables Redis.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// Cache holds the settings/category read-through cache policy.
type Cache struct {
	TTL       time.Duration `env:"CACHE_TTL" envDefault:"5m"`
	KeyPrefix string        `env:"CACHE_KEY_PREFIX" envDefault:"yapi:"`
}

// Tracing holds the optional OTLP exporter endpoint.
type Tracing struct {
	Endpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"yapisite"`
}

// Load reads an optional .env file, then the environment, then validates.
func Load() (Server, error) {
	// A missing .env file is the normal case outside local development.
	_ = godotenv.Load()

	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// normalize cleans list settings split from comma-separated variables.
func (c *Server) normalize() {
	c.CORSOrigins = strutil.Trimmed(c.CORSOrigins)
	c.Locale.Supported = strutil.Lowered(c.Locale.Supported)
	c.Locale.Fallback = strutil.Lowered(c.Locale.Fallback)
	c.Routing.InfraPrefixes = strutil.Paths(c.Routing.InfraPrefixes)
}

// Validate reports routing misconfiguration that would make per-request
// classification ambiguous. Every error wraps ErrMisconfigured.
func (c Server) Validate() error {
	var errs []error

	if c.Site.CanonicalURL != "" {
		u, err := url.Parse(c.Site.CanonicalURL)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("canonical url: %w", err))
		case u.Scheme != "http" && u.Scheme != "https":
			errs = append(errs, fmt.Errorf("canonical url %q: scheme must be http or https", c.Site.CanonicalURL))
		case u.Hostname() == "" || u.Port() != "":
			errs = append(errs, fmt.Errorf("canonical url %q: host required, port not allowed", c.Site.CanonicalURL))
		case u.Path != "" && u.Path != "/":
			errs = append(errs, fmt.Errorf("canonical url %q: path not allowed", c.Site.CanonicalURL))
		}
	}

	if _, err := c.LocaleSet(); err != nil {
		errs = append(errs, err)
	}

	switch c.Locale.UnsupportedPrefix {
	case UnsupportedPrefixPassthrough, UnsupportedPrefixRedirect, UnsupportedPrefixNotFound:
	default:
		errs = append(errs, fmt.Errorf("unknown unsupported-prefix policy %q", c.Locale.UnsupportedPrefix))
	}

	admin := c.Routing.AdminPrefix
	if !isPrefixPath(admin) || admin == "/" {
		errs = append(errs, fmt.Errorf("admin prefix %q must be an absolute path below /", admin))
	}
	if !underPrefix(c.Routing.LoginPath, admin) {
		errs = append(errs, fmt.Errorf("login path %q must be under admin prefix %q", c.Routing.LoginPath, admin))
	}
	for _, p := range c.Routing.InfraPrefixes {
		if !isPrefixPath(p) || p == "/" {
			errs = append(errs, fmt.Errorf("infrastructure prefix %q must be an absolute path below /", p))
			continue
		}
		if underPrefix(admin, p) || underPrefix(p, admin) {
			errs = append(errs, fmt.Errorf("infrastructure prefix %q overlaps admin prefix %q", p, admin))
		}
	}
	if c.Routing.ReturnToParam == "" {
		errs = append(errs, errors.New("return-to parameter name is required"))
	}

	if c.Session.SigningKey == "" {
		errs = append(errs, errors.New("session signing key is required"))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("session ttl must be positive"))
	}
	if c.Session.LoginAttempts <= 0 || c.Session.LoginWindow <= 0 {
		errs = append(errs, errors.New("login attempts and window must be positive"))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrMisconfigured, errors.Join(errs...))
}

// LocaleSet builds the validated locale set.
func (c Server) LocaleSet() (i18n.LocaleSet, error) {
	set, err := i18n.NewLocaleSet(c.Locale.Default, c.Locale.Supported)
	if err != nil {
		return i18n.LocaleSet{}, fmt.Errorf("locales: %w", err)
	}
	return set, nil
}

// FallbackChain returns the configured fallback locales; the resolver appends the default.
func (c Server) FallbackChain() []i18n.Locale {
	chain := make([]i18n.Locale, 0, len(c.Locale.Fallback))
	for _, code := range c.Locale.Fallback {
		if code = strings.ToLower(strings.TrimSpace(code)); code != "" {
			chain = append(chain, i18n.Locale(code))
		}
	}
	return chain
}

func isPrefixPath(p string) bool {
	return strings.HasPrefix(p, "/") && (p == "/" || !strings.HasSuffix(p, "/"))
}

func underPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
