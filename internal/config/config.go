package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/xavierca1/mrk-crm/internal/infra/database"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	Port          string
	StorageDriver string
	Database      database.Config

	SecretKey    string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	CookieSecure bool
	CORSOrigins  []string

	RabbitMQURL string

	MailHost     string
	MailPort     int
	MailUser     string
	MailPassword string
	MailFrom     string

	MetaAppSecret    string
	WebhookRateLimit int
	// TrustedProxies are the addresses or CIDR ranges whose forwarding
	// headers name the client. Empty means the peer address is the client.
	TrustedProxies  []string
	LeadDedupWindow time.Duration

	AdminName     string
	AdminEmail    string
	AdminPassword string

	LogLevel slog.Level
}

// Load reads .env (when present) into the process environment and builds a
// validated Config. Variables already set in the environment win.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	var p parser
	cfg := &Config{
		Port:          String("PORT", "8080"),
		StorageDriver: String("STORAGE_DRIVER", StoragePostgres),
		Database: database.Config{
			Driver:          String("DATABASE_DRIVER", database.DriverPgx),
			URL:             String("DATABASE_URL", ""),
			MaxOpenConns:    p.integer("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    p.integer("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: p.duration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		SecretKey:        String("SECRET_KEY", ""),
		AccessTTL:        time.Duration(p.integer("ACCESS_TOKEN_EXPIRE_MINUTES", 60)) * time.Minute,
		RefreshTTL:       time.Duration(p.integer("REFRESH_TOKEN_EXPIRE_DAYS", 7)) * 24 * time.Hour,
		CookieSecure:     p.boolean("COOKIE_SECURE", false),
		CORSOrigins:      List("CORS_ORIGINS", []string{"http://localhost:5173"}),
		RabbitMQURL:      String("RABBITMQ_URL", ""),
		MailHost:         String("MAIL_HOST", ""),
		MailPort:         p.integer("MAIL_PORT", 587),
		MailUser:         String("MAIL_USER", ""),
		MailPassword:     String("MAIL_PASS", ""),
		MailFrom:         String("MAIL_FROM", ""),
		MetaAppSecret:    String("META_APP_SECRET", ""),
		WebhookRateLimit: p.integer("WEBHOOK_RATE_LIMIT", 60),
		TrustedProxies:   List("TRUSTED_PROXIES", nil),
		LeadDedupWindow:  p.duration("LEAD_DEDUP_WINDOW", 30*24*time.Hour),
		AdminName:        String("ADMIN_NAME", "Admin"),
		AdminEmail:       String("ADMIN_EMAIL", ""),
		AdminPassword:    String("ADMIN_PASSWORD", ""),
	}
	cfg.LogLevel = p.level("LOG_LEVEL", slog.LevelInfo)

	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	switch c.StorageDriver {
	case StorageMemory:
	case StoragePostgres:
		if c.Database.URL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for postgres storage"))
		}
		if c.Database.Driver != database.DriverPgx && c.Database.Driver != database.DriverPq {
			errs = append(errs, fmt.Errorf("DATABASE_DRIVER must be %s or %s", database.DriverPgx, database.DriverPq))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER must be %s or %s", StoragePostgres, StorageMemory))
	}
	if len(c.SecretKey) < 16 {
		errs = append(errs, errors.New("SECRET_KEY must have at least 16 characters"))
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		errs = append(errs, errors.New("token lifetimes must be positive"))
	}
	if c.WebhookRateLimit <= 0 {
		errs = append(errs, errors.New("WEBHOOK_RATE_LIMIT must be positive"))
	}
	for _, proxy := range c.TrustedProxies {
		if !validAddrOrPrefix(proxy) {
			errs = append(errs, fmt.Errorf("TRUSTED_PROXIES: %q is not an address or CIDR range", proxy))
		}
	}
	if c.LeadDedupWindow <= 0 {
		errs = append(errs, errors.New("LEAD_DEDUP_WINDOW must be positive"))
	}
	if c.MailHost != "" && c.MailFrom == "" {
		errs = append(errs, errors.New("MAIL_FROM is required when MAIL_HOST is set"))
	}
	return errors.Join(errs...)
}

func validAddrOrPrefix(s string) bool {
	if _, err := netip.ParsePrefix(s); err == nil {
		return true
	}
	_, err := netip.ParseAddr(s)
	return err == nil
}

func (c *Config) MailEnabled() bool { return c.MailHost != "" }

func (c *Config) EventsEnabled() bool { return c.RabbitMQURL != "" }

// String returns the variable or fallback when unset or empty.
func String(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

// List splits a comma separated variable, dropping empty items.
func List(key string, fallback []string) []string {
	raw := String(key, "")
	if raw == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func Int(key string, fallback int) (int, error) {
	raw := String(key, "")
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func Bool(key string, fallback bool) (bool, error) {
	raw := String(key, "")
	if raw == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

// Duration accepts Go duration strings ("720h") or a plain number of seconds.
func Duration(key string, fallback time.Duration) (time.Duration, error) {
	raw := String(key, "")
	if raw == "" {
		return fallback, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// parser collects parse errors so every bad variable is reported at once.
type parser struct {
	errs []error
}

func (p *parser) integer(key string, fallback int) int {
	n, err := Int(key, fallback)
	p.add(err)
	return n
}

func (p *parser) boolean(key string, fallback bool) bool {
	b, err := Bool(key, fallback)
	p.add(err)
	return b
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	d, err := Duration(key, fallback)
	p.add(err)
	return d
}

func (p *parser) level(key string, fallback slog.Level) slog.Level {
	raw := String(key, "")
	if raw == "" {
		return fallback
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(raw)); err != nil {
		p.add(fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return l
}

func (p *parser) add(err error) {
	if err != nil {
		p.errs = append(p.errs, err)
	}
}
