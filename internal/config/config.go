package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config captures all runtime configuration derived from environment variables.
type Config struct {
	Port             string `koanf:"port" validate:"required"`
	DBDriver         string `koanf:"db_driver" validate:"oneof=postgres sqlite"`
	DBURL            string `koanf:"db_url" validate:"required"`
	DBAutoMigrate    bool   `koanf:"db_auto_migrate"`
	ReadTimeoutSecs  int    `koanf:"server_read_timeout" validate:"gt=0"`
	WriteTimeoutSecs int    `koanf:"server_write_timeout" validate:"gt=0"`
	IdleTimeoutSecs  int    `koanf:"server_idle_timeout" validate:"gt=0"`

	DBMaxConns        int `koanf:"db_max_conns" validate:"gt=0"`
	DBMinConns        int `koanf:"db_min_conns" validate:"gte=0,ltefield=DBMaxConns"`
	DBMaxIdleSecs     int `koanf:"db_max_conn_idle_secs" validate:"gte=0"`
	DBMaxLifeSecs     int `koanf:"db_max_conn_lifetime_secs" validate:"gte=0"`
	DBConnTimeoutSecs int `koanf:"db_conn_timeout_secs" validate:"gte=0"`
	DBStatementCache  int `koanf:"db_statement_cache_capacity" validate:"gte=0"`

	LogLevel  string `koanf:"log_level" validate:"oneof=trace debug info warn error"`
	LogFormat string `koanf:"log_format" validate:"oneof=console json"`
	LogFile   string `koanf:"log_file"`

	RateLimitRPS   float64 `koanf:"rate_limit_rps" validate:"gte=0"`
	RateLimitBurst int     `koanf:"rate_limit_burst" validate:"gte=0"`
}

// Defaults returns the configuration used for any variable left unset.
func Defaults() Config {
	return Config{
		Port:              "8080",
		DBDriver:          DriverPostgres,
		ReadTimeoutSecs:   15,
		WriteTimeoutSecs:  15,
		IdleTimeoutSecs:   60,
		DBMaxConns:        20,
		DBMinConns:        2,
		DBMaxIdleSecs:     300,
		DBMaxLifeSecs:     3600,
		DBConnTimeoutSecs: 10,
		DBStatementCache:  256,
		LogLevel:          "info",
		LogFormat:         "console",
	}
}

// Load reads configuration from environment variables, applying defaults and validation.
// Empty variables are treated as unset.
func Load() (Config, error) {
	k := koanf.New(".")
	provider := env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		if strings.TrimSpace(value) == "" {
			return "", nil
		}
		return strings.ToLower(key), value
	})
	if err := k.Load(provider, nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	cfg := Defaults()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decode environment: %w", err)
	}
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field against its rules and reports the first
// offending environment variable.
func (c Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		return strings.ToUpper(field.Tag.Get("koanf"))
	})

	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("validate config: %w", err)
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", fe.Field())
	case "oneof":
		return fmt.Errorf("%s must be one of [%s]", fe.Field(), fe.Param())
	case "gt":
		return fmt.Errorf("%s must be positive", fe.Field())
	case "gte":
		return fmt.Errorf("%s must be non-negative", fe.Field())
	case "ltefield":
		return fmt.Errorf("%s cannot exceed DB_MAX_CONNS", fe.Field())
	default:
		return fmt.Errorf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
