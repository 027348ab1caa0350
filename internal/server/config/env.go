package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultDotenvFile = ".env"

// loadDotenv loads path into the process environment without overriding
// variables that are already set. With an empty path ./.env is loaded if
// it exists.
func loadDotenv(path string) error {
	if path == "" {
		err := godotenv.Load(defaultDotenvFile)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// parseEnv overlays environment variables onto config. lookup is
// os.LookupEnv outside of tests.
func parseEnv(config *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	str("HTTP_ADDR", &config.HTTPAddr)
	str("GRPC_HEALTH_ADDR", &config.HealthAddrGRPC)
	str("DATABASE_DSN", &config.DatabaseDSN)
	str("SECRET_KEY", &config.SecretKey)
	str("CSRF_SECRET_KEY", &config.CSRFSecretKey)
	str("HOME_LOCATION", &config.HomeLocation)
	str("API_LOCATION", &config.APILocation)
	str("LOG_LEVEL", &config.LogLevel)
	str("LOG_FORMAT", &config.LogFormat)

	var errs []error

	boolean := func(key string, dst *bool) {
		v, ok := lookup(key)
		if !ok {
			return
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = b
	}

	duration := func(key string, dst *time.Duration) {
		v, ok := lookup(key)
		if !ok {
			return
		}
		d, err := parseTTL(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = d
	}

	boolean("COOKIE_SECURE", &config.CookieSecure)
	boolean("CSRF_ENABLED", &config.CSRFEnabled)
	duration("ACCESS_TOKEN_TTL", &config.AccessTokenValidityDuration)
	duration("REFRESH_TOKEN_TTL", &config.RefreshTokenValidityDuration)

	return errors.Join(errs...)
}

// parseTTL accepts a Go duration ("30m") or a bare number of minutes.
func parseTTL(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Minute, nil
	}
	return time.ParseDuration(s)
}
