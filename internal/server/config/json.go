package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/flippy/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Pointer fields distinguish
// "absent" from zero values, so a partial file only overrides what it sets.
type JsonConfig struct {
	HTTPAddr       *string         `json:"http_addr"`
	ClientOrigin   *string         `json:"client_origin"`
	RequestTimeout *timex.Duration `json:"request_timeout"`
	LogLevel       *string         `json:"log_level"`

	DBHost     *string `json:"db_host"`
	DBPort     *int    `json:"db_port"`
	DBUser     *string `json:"db_user"`
	DBPassword *string `json:"db_password"`
	DBName     *string `json:"db_name"`
	DBSSLMode  *string `json:"db_sslmode"`

	SessionTTL *timex.Duration `json:"session_ttl"`
	BcryptCost *int            `json:"bcrypt_cost"`

	AuthRatePerMinute *int     `json:"auth_rate_per_minute"`
	TrustedProxies    []string `json:"trusted_proxies"`

	AIServiceURL *string         `json:"ai_service_url"`
	AIToken      *string         `json:"ai_token"`
	AIModel      *string         `json:"ai_model"`
	AITimeout    *timex.Duration `json:"ai_timeout"`

	S3RootUser     *string `json:"s3_root_user"`
	S3RootPassword *string `json:"s3_root_password"`
	S3Bucket       *string `json:"s3_bucket"`
	S3Region       *string `json:"s3_region"`
	S3BaseEndpoint *string `json:"s3_base_endpoint"`
}

// parseJson overlays values from the JSON file at path. An empty path is a
// no-op.
func parseJson(config *Config, path string) error {
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.ClientOrigin, c.ClientOrigin)
	setDuration(&config.RequestTimeout, c.RequestTimeout)
	setString(&config.LogLevel, c.LogLevel)

	setString(&config.DBHost, c.DBHost)
	setInt(&config.DBPort, c.DBPort)
	setString(&config.DBUser, c.DBUser)
	setString(&config.DBPassword, c.DBPassword)
	setString(&config.DBName, c.DBName)
	setString(&config.DBSSLMode, c.DBSSLMode)

	setDuration(&config.SessionTTL, c.SessionTTL)
	setInt(&config.BcryptCost, c.BcryptCost)
	setInt(&config.AuthRatePerMinute, c.AuthRatePerMinute)
	if c.TrustedProxies != nil {
		config.TrustedProxies = c.TrustedProxies
	}

	setString(&config.AIServiceURL, c.AIServiceURL)
	setString(&config.AIToken, c.AIToken)
	setString(&config.AIModel, c.AIModel)
	setDuration(&config.AITimeout, c.AITimeout)

	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
