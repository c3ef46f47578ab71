package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays values from environment variables. A .env file in the
// working directory is loaded first when present; variables already set in
// the process environment take precedence over it.
func parseEnv(c *Config) error {
	_ = godotenv.Load()

	envString("PORT", func(v string) { c.HTTPAddr = ":" + v })
	envString("HTTP_ADDR", func(v string) { c.HTTPAddr = v })
	envString("CLIENT_ORIGIN", func(v string) { c.ClientOrigin = v })
	envString("LOG_LEVEL", func(v string) { c.LogLevel = v })
	envString("TRUSTED_PROXIES", func(v string) { c.TrustedProxies = strings.Split(v, ",") })

	envString("DB_HOST", func(v string) { c.DBHost = v })
	envString("DB_USER", func(v string) { c.DBUser = v })
	envString("DB_PASSWORD", func(v string) { c.DBPassword = v })
	envString("DB_NAME", func(v string) { c.DBName = v })
	envString("DB_SSLMODE", func(v string) { c.DBSSLMode = v })

	envString("API_SERVICE_URL", func(v string) { c.AIServiceURL = v })
	envString("HF_TOKEN", func(v string) { c.AIToken = v })
	envString("AI_MODEL", func(v string) { c.AIModel = v })

	envString("S3_ROOT_USER", func(v string) { c.S3RootUser = v })
	envString("S3_ROOT_PASSWORD", func(v string) { c.S3RootPassword = v })
	envString("S3_BUCKET", func(v string) { c.S3Bucket = v })
	envString("S3_REGION", func(v string) { c.S3Region = v })
	envString("S3_BASE_ENDPOINT", func(v string) { c.S3BaseEndpoint = v })

	if err := envInt("DB_PORT", &c.DBPort); err != nil {
		return err
	}
	if err := envInt("BCRYPT_COST", &c.BcryptCost); err != nil {
		return err
	}
	if err := envInt("AUTH_RATE_PER_MINUTE", &c.AuthRatePerMinute); err != nil {
		return err
	}
	if err := envDuration("SESSION_TTL", &c.SessionTTL); err != nil {
		return err
	}
	if err := envDuration("REQUEST_TIMEOUT", &c.RequestTimeout); err != nil {
		return err
	}
	return envDuration("AI_TIMEOUT", &c.AITimeout)
}

func envString(key string, set func(string)) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		set(v)
	}
}

func envInt(key string, dst *int) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func envDuration(key string, dst *time.Duration) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
