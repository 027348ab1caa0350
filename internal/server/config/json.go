package config

import (
	"fmt"
	"os"

	"github.com/dmitrijs2005/ideaboard/internal/timex"
	"github.com/goccy/go-json"
)

// JsonConfig mirrors Config for JSON files. Durations accept either a Go
// duration string ("30m") or integer nanoseconds.
type JsonConfig struct {
	HTTPAddr                     string         `json:"http_addr"`
	HealthAddrGRPC               string         `json:"grpc_health_addr"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	CSRFSecretKey                string         `json:"csrf_secret_key"`
	CSRFEnabled                  bool           `json:"csrf_enabled"`
	HomeLocation                 string         `json:"home_location"`
	APILocation                  string         `json:"api_location"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	CookieSecure                 bool           `json:"cookie_secure"`
	LogLevel                     string         `json:"log_level"`
	LogFormat                    string         `json:"log_format"`
	RunMigrations                bool           `json:"run_migrations"`
}

// parseJson overlays the JSON file at path onto config. Keys missing from
// the file keep their current values.
func parseJson(config *Config, path string) error {
	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{
		HTTPAddr:                     config.HTTPAddr,
		HealthAddrGRPC:               config.HealthAddrGRPC,
		DatabaseDSN:                  config.DatabaseDSN,
		SecretKey:                    config.SecretKey,
		CSRFSecretKey:                config.CSRFSecretKey,
		CSRFEnabled:                  config.CSRFEnabled,
		HomeLocation:                 config.HomeLocation,
		APILocation:                  config.APILocation,
		AccessTokenValidityDuration:  timex.Duration{Duration: config.AccessTokenValidityDuration},
		RefreshTokenValidityDuration: timex.Duration{Duration: config.RefreshTokenValidityDuration},
		CookieSecure:                 config.CookieSecure,
		LogLevel:                     config.LogLevel,
		LogFormat:                    config.LogFormat,
		RunMigrations:                config.RunMigrations,
	}

	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	config.HTTPAddr = c.HTTPAddr
	config.HealthAddrGRPC = c.HealthAddrGRPC
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.CSRFSecretKey = c.CSRFSecretKey
	config.CSRFEnabled = c.CSRFEnabled
	config.HomeLocation = c.HomeLocation
	config.APILocation = c.APILocation
	config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	config.CookieSecure = c.CookieSecure
	config.LogLevel = c.LogLevel
	config.LogFormat = c.LogFormat
	config.RunMigrations = c.RunMigrations
	return nil
}
