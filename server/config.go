package main

import (
	"flag"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds runtime settings for the kanbanlite server.
type Config struct {
	Addr           string        `env:"ADDR" yaml:"addr"`
	DatabaseDSN    string        `env:"DATABASE_URL" yaml:"database_dsn"`
	SessionCookie  string        `env:"SESSION_COOKIE_NAME" yaml:"session_cookie"`
	SessionTTL     time.Duration `env:"SESSION_TTL" yaml:"session_ttl"`
	InviteSecret   string        `env:"INVITE_SECRET" yaml:"invite_secret"`
	CookieSecure   bool          `env:"COOKIE_SECURE" yaml:"cookie_secure"`
	CookieSameSite string        `env:"COOKIE_SAMESITE" yaml:"cookie_samesite"`
}

func (c *Config) loadDefaults() {
	c.Addr = ":8080"
	c.DatabaseDSN = "postgres://postgres:postgres@db:5432/kanbanlite?sslmode=disable"
	c.SessionCookie = "kanbanlite_sess"
	c.SessionTTL = 14 * 24 * time.Hour
	c.InviteSecret = "dev-invite-secret"
	c.CookieSameSite = "lax"
}

// loadYAML overlays values from an optional YAML file. A missing file is not
// an error; a malformed one is.
func (c *Config) loadYAML(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, c)
}

// LoadConfig builds a Config by applying defaults, then overlaying an
// optional YAML file, .env/environment variables, and finally flags.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.loadDefaults()

	fs := flag.NewFlagSet("kanbanlite", flag.ContinueOnError)
	cfgPath := fs.String("config", getenv("CONFIG", "kanbanlite.yaml"), "path to YAML config")
	addr := fs.String("a", "", "address and port to listen on")
	dsn := fs.String("d", "", "database DSN")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := cfg.loadYAML(*cfgPath); err != nil {
		return nil, err
	}
	// .env is a dev convenience; absence is fine.
	_ = godotenv.Load()
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *dsn != "" {
		cfg.DatabaseDSN = *dsn
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}
