// AngelaMos | 2026
// config.go

package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DevSecretKey signs sessions outside production when SECRET_KEY is unset.
const DevSecretKey = "dev-only-secret-key-change-me-before-deploying"

type Config struct {
	App        AppConfig        `koanf:"app"`
	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	Redis      RedisConfig      `koanf:"redis"`
	Session    SessionConfig    `koanf:"session"`
	Auth       AuthConfig       `koanf:"auth"`
	LoginLimit LoginLimitConfig `koanf:"login_limit"`
	RateLimit  RateLimitConfig  `koanf:"rate_limit"`
	CORS       CORSConfig       `koanf:"cors"`
	Mail       MailConfig       `koanf:"mail"`
	Events     EventsConfig     `koanf:"events"`
	Metrics    MetricsConfig    `koanf:"metrics"`
	Log        LogConfig        `koanf:"log"`
	Otel       OtelConfig       `koanf:"otel"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
	FrontendURL string `koanf:"frontend_url"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	TrustedProxies  []string      `koanf:"trusted_proxies"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
	ConnectTimeout  time.Duration `koanf:"connect_timeout"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

type RedisConfig struct {
	URL          string `koanf:"url"`
	PoolSize     int    `koanf:"pool_size"`
	MinIdleConns int    `koanf:"min_idle_conns"`
}

type SessionConfig struct {
	SecretKey    string        `koanf:"secret_key"`
	CookieName   string        `koanf:"cookie_name"`
	TTL          time.Duration `koanf:"ttl"`
	CookieSecure bool          `koanf:"cookie_secure"`
	SameSite     string        `koanf:"same_site"`
	Issuer       string        `koanf:"issuer"`
}

type AuthConfig struct {
	PasswordMinLength int           `koanf:"password_min_length"`
	PasswordStrict    bool          `koanf:"password_strict"`
	VerificationTTL   time.Duration `koanf:"verification_ttl"`
}

type LoginLimitConfig struct {
	Backend         string        `koanf:"backend"`
	MaxAttempts     int           `koanf:"max_attempts"`
	Window          time.Duration `koanf:"window"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
	Burst    int           `koanf:"burst"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

type MailConfig struct {
	Provider    string        `koanf:"provider"`
	APIKey      string        `koanf:"api_key"`
	FromEmail   string        `koanf:"from_email"`
	FromName    string        `koanf:"from_name"`
	AdminEmail  string        `koanf:"admin_email"`
	SendTimeout time.Duration `koanf:"send_timeout"`
	QueueSize   int           `koanf:"queue_size"`
	Workers     int           `koanf:"workers"`
	SMTP        SMTPConfig    `koanf:"smtp"`
}

type SMTPConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	UseTLS   bool   `koanf:"use_tls"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

type EventsConfig struct {
	NatsURL       string `koanf:"nats_url"`
	SubjectPrefix string `koanf:"subject_prefix"`
}

type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

var (
	cfg  *Config
	once sync.Once
)

func Load(configPath string) (*Config, error) {
	var loadErr error

	once.Do(func() {
		cfg, loadErr = load(configPath)
	})

	if loadErr != nil {
		return nil, loadErr
	}

	return cfg, nil
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.ProviderWithValue("", ".", envKeyValue), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	c := &Config{}
	if err := k.Unmarshal("", c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

func Get() *Config {
	if cfg == nil {
		panic("config not loaded: call Load() first")
	}
	return cfg
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":         "etudiantesolidaire-api",
		"app.version":      "1.0.0",
		"app.environment":  "development",
		"app.frontend_url": "http://localhost:5173",

		"server.host":             "0.0.0.0",
		"server.port":             5000,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",
		"server.trusted_proxies":  []string{},

		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",
		"database.connect_timeout":    "5s",
		"database.auto_migrate":       true,

		"redis.pool_size":      10,
		"redis.min_idle_conns": 2,

		"session.secret_key":    DevSecretKey,
		"session.cookie_name":   "es_session",
		"session.ttl":           "168h",
		"session.cookie_secure": false,
		"session.same_site":     "lax",
		"session.issuer":        "etudiantesolidaire",

		"auth.password_min_length": 8,
		"auth.password_strict":     true,
		"auth.verification_ttl":    "24h",

		"login_limit.backend":          "memory",
		"login_limit.max_attempts":     5,
		"login_limit.window":           "15m",
		"login_limit.cleanup_interval": "5m",

		"rate_limit.requests": 120,
		"rate_limit.window":   "1m",
		"rate_limit.burst":    30,

		"cors.allowed_origins": []string{
			"http://localhost:3000",
			"http://localhost:5173",
			"https://etudiantesolidaire.com",
			"https://www.etudiantesolidaire.com",
		},
		"cors.allowed_methods": []string{
			"GET",
			"POST",
			"PUT",
			"DELETE",
			"OPTIONS",
		},
		"cors.allowed_headers": []string{
			"Accept",
			"Content-Type",
			"X-CSRF-Token",
			"X-Request-ID",
		},
		"cors.allow_credentials": true,
		"cors.max_age":           300,

		"mail.provider":     "log",
		"mail.from_email":   "noreply@etudiantesolidaire.com",
		"mail.from_name":    "Étudiante Solidaire",
		"mail.admin_email":  "contact@etudiantesolidaire.com",
		"mail.send_timeout": "10s",
		"mail.queue_size":   100,
		"mail.workers":      2,
		"mail.smtp.host":    "smtp.gmail.com",
		"mail.smtp.port":    587,
		"mail.smtp.use_tls": true,

		"events.subject_prefix": "etudiantesolidaire",

		"metrics.enabled": true,
		"metrics.path":    "/metrics",

		"log.level":  "info",
		"log.format": "json",

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  0.1,
		"otel.service_name": "etudiantesolidaire-api",
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"DATABASE_URL":                "database.url",
	"AUTO_MIGRATE":                "database.auto_migrate",
	"REDIS_URL":                   "redis.url",
	"ENVIRONMENT":                 "app.environment",
	"FRONTEND_URL":                "app.frontend_url",
	"HOST":                        "server.host",
	"PORT":                        "server.port",
	"TRUSTED_PROXIES":             "server.trusted_proxies",
	"LOG_LEVEL":                   "log.level",
	"LOG_FORMAT":                  "log.format",
	"SECRET_KEY":                  "session.secret_key",
	"SESSION_TTL":                 "session.ttl",
	"SESSION_COOKIE_SECURE":       "session.cookie_secure",
	"SESSION_SAME_SITE":           "session.same_site",
	"PASSWORD_MIN_LENGTH":         "auth.password_min_length",
	"PASSWORD_STRICT":             "auth.password_strict",
	"LOGIN_LIMIT_BACKEND":         "login_limit.backend",
	"LOGIN_MAX_ATTEMPTS":          "login_limit.max_attempts",
	"LOGIN_WINDOW":                "login_limit.window",
	"RATE_LIMIT_REQUESTS":         "rate_limit.requests",
	"RATE_LIMIT_WINDOW":           "rate_limit.window",
	"RATE_LIMIT_BURST":            "rate_limit.burst",
	"CORS_ORIGINS":                "cors.allowed_origins",
	"MAIL_PROVIDER":               "mail.provider",
	"MAILERSEND_API_KEY":          "mail.api_key",
	"MAIL_DEFAULT_SENDER":         "mail.from_email",
	"MAIL_FROM_NAME":              "mail.from_name",
	"ADMIN_EMAIL":                 "mail.admin_email",
	"MAIL_SEND_TIMEOUT":           "mail.send_timeout",
	"MAIL_SERVER":                 "mail.smtp.host",
	"MAIL_PORT":                   "mail.smtp.port",
	"MAIL_USE_TLS":                "mail.smtp.use_tls",
	"MAIL_USERNAME":               "mail.smtp.username",
	"MAIL_PASSWORD":               "mail.smtp.password",
	"NATS_URL":                    "events.nats_url",
	"METRICS_ENABLED":             "metrics.enabled",
	"OTEL_ENDPOINT":               "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "otel.endpoint",
	"OTEL_SERVICE_NAME":           "otel.service_name",
	"OTEL_ENABLED":                "otel.enabled",
	"OTEL_INSECURE":               "otel.insecure",
	"OTEL_SAMPLE_RATE":            "otel.sample_rate",
}

var listKeys = map[string]struct{}{
	"cors.allowed_origins":   {},
	"server.trusted_proxies": {},
}

func envKeyReplacer(s string) string {
	if mapped, ok := envKeyMap[s]; ok {
		return mapped
	}
	return ""
}

func envKeyValue(key, value string) (string, any) {
	mapped := envKeyReplacer(key)
	if mapped == "" {
		return "", nil
	}

	if _, ok := listKeys[mapped]; ok {
		return mapped, splitList(value)
	}

	return mapped, value
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

//nolint:gocyclo // flat list of independent checks
func validate(c *Config) error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if len(c.Session.SecretKey) < 32 {
		return fmt.Errorf("SECRET_KEY must be at least 32 bytes")
	}

	switch c.Session.SameSite {
	case "lax", "strict", "none":
	default:
		return fmt.Errorf("session.same_site must be lax, strict or none")
	}

	if c.Auth.PasswordMinLength < 6 {
		return fmt.Errorf("PASSWORD_MIN_LENGTH must be at least 6")
	}

	switch c.LoginLimit.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("LOGIN_LIMIT_BACKEND must be memory or redis")
	}

	if c.LoginLimit.MaxAttempts < 1 {
		return fmt.Errorf("LOGIN_MAX_ATTEMPTS must be at least 1")
	}

	if c.LoginLimit.Window <= 0 {
		return fmt.Errorf("LOGIN_WINDOW must be positive")
	}

	switch c.Mail.Provider {
	case "mailersend":
		if c.Mail.APIKey == "" {
			return fmt.Errorf("MAILERSEND_API_KEY is required for the mailersend provider")
		}
	case "smtp":
		if c.Mail.SMTP.Host == "" {
			return fmt.Errorf("MAIL_SERVER is required for the smtp provider")
		}
	case "log":
	default:
		return fmt.Errorf("MAIL_PROVIDER must be mailersend, smtp or log")
	}

	if c.Mail.AdminEmail == "" {
		return fmt.Errorf("ADMIN_EMAIL is required")
	}

	if c.CORS.AllowCredentials {
		for _, origin := range c.CORS.AllowedOrigins {
			if origin == "*" {
				return fmt.Errorf(
					"CORS wildcard '*' cannot be used with AllowCredentials",
				)
			}
		}
	}

	if c.IsProduction() {
		if c.Session.SecretKey == DevSecretKey {
			return fmt.Errorf("SECRET_KEY must be set in production")
		}
		if !c.Session.CookieSecure {
			return fmt.Errorf("SESSION_COOKIE_SECURE must be true in production")
		}
		if c.Otel.Enabled && c.Otel.Insecure {
			return fmt.Errorf("OTEL_INSECURE must be false in production")
		}
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
