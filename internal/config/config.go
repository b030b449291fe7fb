// Package config loads service settings from .env files and the environment.
package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/juju/errors"
	"github.com/spf13/viper"
)

const (
	KeyDBDriver    = "DB_DRIVER"
	KeyDBDSN       = "DB_DSN"
	KeyPort        = "APP_PORT"
	KeyLogLevel    = "LOG_LEVEL"
	KeyLogFormat   = "LOG_FORMAT"
	KeyGinMode     = "GIN_MODE"
	KeyAutoMigrate = "DB_AUTOMIGRATE"
)

// Config is the runtime configuration of the server.
type Config struct {
	DBDriver    string
	DBDSN       string
	Port        string
	LogLevel    string
	LogFormat   string
	GinMode     string
	AutoMigrate bool
}

// EnvFiles are tried in order; the server may be started from the repo root
// or from cmd/server.
var EnvFiles = []string{".env", "../.env", "../../.env"}

// Load reads .env files (missing ones are fine) and then the environment.
// The result is not validated until Override.
func Load() Config {
	if files := existing(EnvFiles); len(files) > 0 {
		_ = godotenv.Overload(files...)
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyDBDriver, "postgres")
	v.SetDefault(KeyPort, "8080")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "json")
	v.SetDefault(KeyGinMode, "release")
	v.SetDefault(KeyAutoMigrate, true)
	v.AutomaticEnv()
	return v
}

func FromViper(v *viper.Viper) Config {
	return Config{
		DBDriver:    v.GetString(KeyDBDriver),
		DBDSN:       v.GetString(KeyDBDSN),
		Port:        v.GetString(KeyPort),
		LogLevel:    v.GetString(KeyLogLevel),
		LogFormat:   v.GetString(KeyLogFormat),
		GinMode:     v.GetString(KeyGinMode),
		AutoMigrate: v.GetBool(KeyAutoMigrate),
	}
}

// Override replaces fields with the non-empty values given, e.g. from flags,
// and validates the result.
func (c *Config) Override(driver, dsn, port, logLevel string) error {
	if driver != "" {
		c.DBDriver = driver
	}
	if dsn != "" {
		c.DBDSN = dsn
	}
	if port != "" {
		c.Port = port
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	return c.Validate()
}

func (c Config) Validate() error {
	if c.DBDSN == "" {
		return errors.NotValidf("empty %s (check your .env)", KeyDBDSN)
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return errors.NotValidf("%s %q", KeyDBDriver, c.DBDriver)
	}
	if c.Port == "" {
		return errors.NotValidf("empty %s", KeyPort)
	}
	return nil
}

// Addr is the listen address for Port.
func (c Config) Addr() string {
	return ":" + c.Port
}

func existing(paths []string) []string {
	var out []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			out = append(out, p)
		}
	}
	return out
}
