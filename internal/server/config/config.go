// Package config handles configuration for the server component:
// defaults, a JSON file overlay, dotenv and environment variables,
// and command-line flags, applied in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/ideaboard/internal/flagx"
)

// Config holds runtime settings for the ideaboard server.
//
// An empty DatabaseDSN selects the in-memory store. SecretKey signs bearer
// tokens and CSRFSecretKey signs CSRF tokens; neither has a default.
type Config struct {
	HTTPAddr                     string
	HealthAddrGRPC               string
	DatabaseDSN                  string
	SecretKey                    string
	CSRFSecretKey                string
	CSRFEnabled                  bool
	HomeLocation                 string
	APILocation                  string
	AccessTokenValidityDuration  time.Duration
	RefreshTokenValidityDuration time.Duration
	CookieSecure                 bool
	LogLevel                     string
	LogFormat                    string
	RunMigrations                bool
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8000"
	c.HealthAddrGRPC = ":50051"
	c.DatabaseDSN = ""
	c.CSRFEnabled = true
	c.HomeLocation = "http://localhost:3000"
	c.APILocation = "http://localhost:8000"
	c.AccessTokenValidityDuration = 30 * time.Minute
	c.RefreshTokenValidityDuration = 7 * 24 * time.Hour
	c.CookieSecure = false
	c.LogLevel = "info"
	c.LogFormat = "json"
	c.RunMigrations = true
}

// Secret returns the token signing key. It makes *Config an
// auth.SecretSource.
func (c *Config) Secret() []byte {
	return []byte(c.SecretKey)
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.SecretKey == "" {
		errs = append(errs, errors.New("secret key is empty"))
	}
	if c.CSRFEnabled && c.CSRFSecretKey == "" {
		errs = append(errs, errors.New("csrf secret key is empty"))
	}
	if !strings.HasPrefix(c.HomeLocation, "http://") && !strings.HasPrefix(c.HomeLocation, "https://") {
		errs = append(errs, fmt.Errorf("home location %q must be an http(s) origin", c.HomeLocation))
	}
	if c.AccessTokenValidityDuration <= 0 || c.RefreshTokenValidityDuration <= 0 {
		errs = append(errs, errors.New("token lifetimes must be positive"))
	} else if c.RefreshTokenValidityDuration <= c.AccessTokenValidityDuration {
		errs = append(errs, errors.New("refresh token lifetime must exceed access token lifetime"))
	}
	return errors.Join(errs...)
}

// LoadConfig builds a Config from defaults, then the JSON file named by
// -c/-config, then the dotenv file and environment, then flags. It panics
// when a named file cannot be read or a value cannot be parsed.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()

	if path := flagx.ConfigFileFlag(); path != "" {
		if err := parseJson(cfg, path); err != nil {
			panic(err)
		}
	}
	if err := loadDotenv(flagx.EnvFileFlag()); err != nil {
		panic(err)
	}
	if err := parseEnv(cfg, os.LookupEnv); err != nil {
		panic(err)
	}
	if err := parseFlags(cfg, os.Args[1:]); err != nil {
		panic(err)
	}
	return cfg
}
