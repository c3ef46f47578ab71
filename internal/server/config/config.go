// Package config handles configuration for the Flippy server: defaults, an
// optional JSON file, environment variables (.env aware) and command-line
// flags, applied in that order and validated once at startup.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/flippy/internal/common"
	"github.com/dmitrijs2005/flippy/internal/flagx"
)

// Config holds runtime settings for the server.
//
// DB* fields describe the PostgreSQL connection; AI* fields the external
// chat-completions service used for flashcard generation; S3* fields the
// optional document archive (disabled while S3Bucket is empty).
type Config struct {
	HTTPAddr       string
	ClientOrigin   string
	RequestTimeout time.Duration
	LogLevel       string

	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	SessionTTL time.Duration
	BcryptCost int
	// AuthRatePerMinute limits credential-checking requests per client IP;
	// zero disables the limit.
	AuthRatePerMinute int
	// TrustedProxies lists the peers (CIDR or bare IP) whose
	// X-Forwarded-For / X-Real-IP headers are believed. Empty means the
	// socket address is always the client address.
	TrustedProxies []string

	AIServiceURL string
	AIToken      string
	AIModel      string
	AITimeout    time.Duration

	S3RootUser     string
	S3RootPassword string
	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
}

// MinBcryptCost is the lowest accepted password hashing cost.
const MinBcryptCost = 8

// LoadDefaults populates Config with development defaults. Database
// credentials are intentionally left empty.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":3001"
	c.ClientOrigin = "http://localhost:8000"
	c.RequestTimeout = 30 * time.Second
	c.LogLevel = "info"

	c.DBHost = "localhost"
	c.DBPort = 5432
	c.DBName = "flippy"
	c.DBSSLMode = "disable"

	c.SessionTTL = common.DefaultSessionTTL
	c.BcryptCost = 10
	c.AuthRatePerMinute = 30

	c.AIServiceURL = "https://router.huggingface.co/v1/chat/completions"
	c.AIModel = "Qwen/Qwen2.5-7B-Instruct:together"
	c.AITimeout = 60 * time.Second

	c.S3Region = "us-east-1"
}

// LoadConfig builds a Config from defaults, then the JSON file named by
// -c/-config, then the environment, then command-line flags, and validates
// the result.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, flagx.ConfigPath(args)); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	if err := parseEnv(cfg); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first missing or out-of-range setting.
func (c *Config) Validate() error {
	var errs []error

	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("http address is required"))
	} else if _, _, err := net.SplitHostPort(c.HTTPAddr); err != nil {
		errs = append(errs, fmt.Errorf("invalid http address %q: %w", c.HTTPAddr, err))
	}
	if c.DBHost == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.DBUser == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DBName == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if c.DBPort <= 0 || c.DBPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid DB_PORT %d", c.DBPort))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("session TTL must be positive"))
	}
	if c.BcryptCost < MinBcryptCost {
		errs = append(errs, fmt.Errorf("bcrypt cost must be at least %d", MinBcryptCost))
	}
	if c.AuthRatePerMinute < 0 {
		errs = append(errs, errors.New("auth rate limit cannot be negative"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	if _, err := c.TrustedProxyPrefixes(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// DSN returns a pgx connection URL for the configured database.
func (c *Config) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DBUser, c.DBPassword),
		Host:   net.JoinHostPort(c.DBHost, strconv.Itoa(c.DBPort)),
		Path:   "/" + c.DBName,
	}
	if c.DBSSLMode != "" {
		u.RawQuery = url.Values{"sslmode": []string{c.DBSSLMode}}.Encode()
	}
	return u.String()
}

// ArchiveEnabled reports whether uploaded documents go to object storage.
func (c *Config) ArchiveEnabled() bool {
	return c.S3Bucket != ""
}

// TrustedProxyPrefixes parses TrustedProxies. A bare address becomes a
// single-host prefix.
func (c *Config) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(c.TrustedProxies))
	for _, raw := range c.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.Contains(raw, "/") {
			p, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid trusted proxy %q: %w", raw, err)
			}
			out = append(out, p.Masked())
			continue
		}
		a, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", raw, err)
		}
		a = a.Unmap()
		out = append(out, netip.PrefixFrom(a, a.BitLen()))
	}
	return out, nil
}
