package pagerank

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

var validate = validator.New()

// Config holds PageRank parameters backed by Viper.
type Config struct {
	v *viper.Viper
}

type params struct {
	Alpha     float64 `validate:"gt=0,lt=1"`
	Tolerance float64 `validate:"gt=0"`
	MaxPushes int     `validate:"gte=0"`
	LogLevel  string  `validate:"oneof=trace debug info warn error fatal panic disabled"`
}

// NewConfig creates a configuration with defaults.
func NewConfig() *Config {
	v := viper.New()

	v.SetDefault("pagerank.alpha", 0.01)
	v.SetDefault("pagerank.tolerance", 0.01)
	v.SetDefault("pagerank.max_pushes", 0)
	v.SetDefault("algorithm.random_seed", int64(0))

	v.SetDefault("logging.level", "info")

	return &Config{v: v}
}

// LoadFromFile loads configuration from file
func (c *Config) LoadFromFile(path string) error {
	c.v.SetConfigFile(path)
	return c.v.ReadInConfig()
}

func (c *Config) Alpha() float64     { return c.v.GetFloat64("pagerank.alpha") }
func (c *Config) Tolerance() float64 { return c.v.GetFloat64("pagerank.tolerance") }
func (c *Config) RandomSeed() int64  { return c.v.GetInt64("algorithm.random_seed") }

// MaxPushes caps the pushes of a single query; 0 means unlimited.
func (c *Config) MaxPushes() int { return c.v.GetInt("pagerank.max_pushes") }

func (c *Config) LogLevel() string { return c.v.GetString("logging.level") }

// Set allows dynamic configuration changes
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// Validate checks the configured values.
func (c *Config) Validate() error {
	err := validate.Struct(params{
		Alpha:     c.Alpha(),
		Tolerance: c.Tolerance(),
		MaxPushes: c.MaxPushes(),
		LogLevel:  c.LogLevel(),
	})
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}
	e := validationErrs[0]
	if e.Field() == "Tolerance" {
		return fmt.Errorf("%w: got %v", ErrInvalidTolerance, e.Value())
	}
	return fmt.Errorf("%w: %s failed %s=%s, got %v", ErrInvalidConfig, e.Field(), e.Tag(), e.Param(), e.Value())
}

// CreateLogger creates a zerolog logger based on config
func (c *Config) CreateLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "15:04:05",
	}).Level(level).With().Timestamp().Str("service", "pagerank").Logger()
}
