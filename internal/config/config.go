package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Env          string
	AppName      string
	Host         string
	Port         int
	DBDriver     string // sqlite | postgres
	DBDSN        string
	LogLevel     string
	LogFile      string
	TemplatesDir string // empty: templates embedded in the binary
	RateLimit    int    // requests per minute per IP
	CookieSecure bool
	SeedDemo     bool
}

// Addr is the listen address.
func (c Config) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

// Load reads an optional .env file and then the environment; env vars win.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // missing file is fine

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	cfg := Config{
		Env:          v.GetString("APP_ENV"),
		AppName:      v.GetString("APP_NAME"),
		Host:         v.GetString("HTTP_HOST"),
		Port:         v.GetInt("HTTP_PORT"),
		DBDriver:     strings.ToLower(v.GetString("DB_DRIVER")),
		DBDSN:        v.GetString("DB_DSN"),
		LogLevel:     v.GetString("LOG_LEVEL"),
		LogFile:      v.GetString("LOG_FILE"),
		TemplatesDir: v.GetString("TEMPLATES_DIR"),
		RateLimit:    v.GetInt("RATE_LIMIT_PER_MINUTE"),
		CookieSecure: v.GetBool("CSRF_COOKIE_SECURE"),
		SeedDemo:     v.GetBool("SEED_DEMO"),
	}
	return cfg, cfg.validate()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_NAME", "stockledger")
	v.SetDefault("HTTP_HOST", "0.0.0.0")
	v.SetDefault("HTTP_PORT", 8080)
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_DSN", "stockledger.db") // sqlite file in working dir
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("TEMPLATES_DIR", "")
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 60)
	v.SetDefault("CSRF_COOKIE_SECURE", false)
	v.SetDefault("SEED_DEMO", false)
}

func (c Config) validate() error {
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("config: DB_DRIVER must be sqlite or postgres, got %q", c.DBDriver)
	}
	if c.DBDSN == "" {
		return fmt.Errorf("config: DB_DSN is empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: HTTP_PORT out of range: %d", c.Port)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("config: RATE_LIMIT_PER_MINUTE must not be negative")
	}
	return nil
}
