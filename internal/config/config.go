// Package config loads runtime configuration from the environment.
// Nothing about the deployment is compiled in: the approved identity,
// the store DSN and the auth endpoint all arrive here.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config is the full runtime configuration of the crm binary.
type Config struct {
	// ApprovedEmail is the only identity the gate admits.
	ApprovedEmail string `env:"CRM_APPROVED_EMAIL,required"`

	// DatabaseDSN points at the PostgreSQL document store. Empty means
	// local-only mode: no remote sync, no built-in auth.
	DatabaseDSN string `env:"CRM_DATABASE_DSN"`

	// AuthURL/AuthAnonKey select the GoTrue provider when set;
	// otherwise the built-in provider backed by the database is used.
	AuthURL     string `env:"CRM_AUTH_URL"`
	AuthAnonKey string `env:"CRM_AUTH_ANON_KEY"`

	// SigningKey signs built-in provider sessions (HS256).
	SigningKey string        `env:"CRM_JWT_KEY"`
	AccessTTL  time.Duration `env:"CRM_ACCESS_TTL,default=15m"`

	// Sign-in throttling for the built-in provider.
	LimiterWindow   time.Duration `env:"CRM_LIMITER_WINDOW,default=10m"`
	LimiterMaxFails int           `env:"CRM_LIMITER_MAX_FAILS,default=5"`
	LimiterBlock    time.Duration `env:"CRM_LIMITER_BLOCK,default=15m"`

	// Local file locations; both default into the user config dir.
	MirrorPath string `env:"CRM_MIRROR_PATH"`
	TokenPath  string `env:"CRM_TOKEN_PATH"`
}

// Load reads .env (when present) and decodes the environment. envFile
// overrides the default .env location.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, err
		}
	} else {
		_ = godotenv.Load()
	}

	var c Config
	if err := envdecode.StrictDecode(&c); err != nil {
		return nil, err
	}

	if c.MirrorPath == "" || c.TokenPath == "" {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		if c.MirrorPath == "" {
			c.MirrorPath = filepath.Join(dir, "mirror.db")
		}
		if c.TokenPath == "" {
			c.TokenPath = filepath.Join(dir, "session.json")
		}
	}

	if c.DatabaseDSN != "" && c.AuthURL == "" && c.SigningKey == "" {
		return nil, errors.New("CRM_JWT_KEY is required for the built-in auth provider")
	}
	return &c, nil
}

// UsesGoTrue reports whether sign-in goes through the external auth
// endpoint instead of the built-in provider.
func (c *Config) UsesGoTrue() bool { return c.AuthURL != "" }

func configDir() (string, error) {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "crm"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "crm"), nil
}
