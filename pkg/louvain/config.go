package louvain

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

var validate = validator.New()

// Config manages algorithm configuration using Viper
type Config struct {
	v *viper.Viper
}

// params is the validated snapshot of a Config.
type params struct {
	MaxIterations int    `validate:"gt=0"`
	MaxLevels     int    `validate:"gte=0"`
	LogLevel      string `validate:"oneof=trace debug info warn error fatal panic disabled"`
	TrackMoves    bool
	OutputFile    string `validate:"required_if=TrackMoves true"`
}

// NewConfig creates a new configuration with defaults
func NewConfig() *Config {
	v := viper.New()

	// Algorithm parameters
	v.SetDefault("algorithm.max_iterations", 100)
	v.SetDefault("algorithm.max_levels", 0)
	v.SetDefault("algorithm.random_seed", int64(0))

	// Logging parameters
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.enable_progress", false)

	// Analysis parameters
	v.SetDefault("analysis.track_moves", false)
	v.SetDefault("analysis.output_file", "")

	return &Config{v: v}
}

// LoadFromFile loads configuration from file
func (c *Config) LoadFromFile(path string) error {
	c.v.SetConfigFile(path)
	return c.v.ReadInConfig()
}

// Getters for algorithm parameters
func (c *Config) MaxIterations() int { return c.v.GetInt("algorithm.max_iterations") }
func (c *Config) MaxLevels() int     { return c.v.GetInt("algorithm.max_levels") }
func (c *Config) RandomSeed() int64  { return c.v.GetInt64("algorithm.random_seed") }

func (c *Config) LogLevel() string     { return c.v.GetString("logging.level") }
func (c *Config) EnableProgress() bool { return c.v.GetBool("logging.enable_progress") }

func (c *Config) EnableMoveTracking() bool   { return c.v.GetBool("analysis.track_moves") }
func (c *Config) TrackingOutputFile() string { return c.v.GetString("analysis.output_file") }

// Set allows dynamic configuration changes
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// Validate checks the configured values.
func (c *Config) Validate() error {
	p := params{
		MaxIterations: c.MaxIterations(),
		MaxLevels:     c.MaxLevels(),
		LogLevel:      c.LogLevel(),
		TrackMoves:    c.EnableMoveTracking(),
		OutputFile:    c.TrackingOutputFile(),
	}
	if err := validate.Struct(p); err != nil {
		return formatValidationError(err)
	}
	return nil
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
	}).Level(level).With().Timestamp().Str("service", "louvain").Logger()
}

func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}
	e := validationErrs[0]
	switch e.Tag() {
	case "gt":
		return fmt.Errorf("%w: %s must be greater than %s, got %v", ErrInvalidConfig, e.Field(), e.Param(), e.Value())
	case "gte":
		return fmt.Errorf("%w: %s must be at least %s, got %v", ErrInvalidConfig, e.Field(), e.Param(), e.Value())
	case "oneof":
		return fmt.Errorf("%w: %s must be one of [%s], got %q", ErrInvalidConfig, e.Field(), e.Param(), e.Value())
	case "required_if":
		return fmt.Errorf("%w: %s is required when move tracking is enabled", ErrInvalidConfig, e.Field())
	default:
		return fmt.Errorf("%w: %s failed %s validation", ErrInvalidConfig, e.Field(), e.Tag())
	}
}
