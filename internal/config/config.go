package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	apperrors "github.com/zzenonn/ratepart/internal/errors"
)

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds the application configuration
type Config struct {
	LogLevel       string `yaml:"log_level"`
	DatabaseDriver string `yaml:"database_driver"`
	DatabaseURL    string `yaml:"database_url"`
	// DatabaseURLParameter names an SSM parameter holding the database URL.
	// When set it takes precedence over DatabaseURL so credentials can stay
	// out of config files.
	DatabaseURLParameter string `yaml:"database_url_ssm_parameter"`
	RatingsTable         string `yaml:"ratings_table"`
	Quiet                bool   `yaml:"quiet"`
}

// flagKeys maps persistent flag names to their viper keys.
var flagKeys = map[string]string{
	"log-level":       "log_level",
	"database-driver": "database_driver",
	"database-url":    "database_url",
	"ratings-table":   "ratings_table",
	"quiet":           "quiet",
}

// RegisterFlags declares the persistent flags LoadConfig binds.
func RegisterFlags(rootCmd *cobra.Command) {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Path to config file (default ./config.yaml)")
	flags.String("log-level", "", "Log level (trace, debug, info, warn, error)")
	flags.String("database-driver", "", "Database driver (postgres or sqlite)")
	flags.String("database-url", "", "Database connection URL")
	flags.String("ratings-table", "", "Name of the main ratings table")
	flags.BoolP("quiet", "q", false, "Suppress progress bars")
}

// LoadConfig loads configuration from config.yaml, environment variables, or CLI flags
// Priority: CLI flags > Environment variables > .env > config.yaml > defaults
func LoadConfig(configPath string, rootCmd *cobra.Command) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	v := viper.New()
	if err := setupViper(v, configPath, rootCmd); err != nil {
		return nil, err
	}

	cfg := &Config{
		LogLevel:             v.GetString("log_level"),
		DatabaseDriver:       strings.ToLower(v.GetString("database_driver")),
		DatabaseURL:          v.GetString("database_url"),
		DatabaseURLParameter: v.GetString("database_url_ssm_parameter"),
		RatingsTable:         v.GetString("ratings_table"),
		Quiet:                v.GetBool("quiet"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that have no usable default.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("%w: %q", apperrors.ErrUnsupportedDriver, c.DatabaseDriver)
	}
	if c.DatabaseURL == "" && c.DatabaseURLParameter == "" {
		return apperrors.ConfigNotSetError("database_url")
	}
	if c.RatingsTable == "" {
		return apperrors.ConfigNotSetError("ratings_table")
	}
	return nil
}

// setupViper configures Viper with defaults, paths, and bindings
func setupViper(v *viper.Viper, configPath string, rootCmd *cobra.Command) error {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if configPath != "" {
		v.SetConfigFile(configPath)
	}

	setDefaults(v)
	v.AutomaticEnv()

	if rootCmd != nil {
		for flag, key := range flagKeys {
			f := rootCmd.PersistentFlags().Lookup(flag)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("failed to bind flag %s: %w", flag, err)
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("database_driver", DriverPostgres)
	v.SetDefault("database_url", "")
	v.SetDefault("database_url_ssm_parameter", "")
	v.SetDefault("ratings_table", "ratings")
	v.SetDefault("quiet", false)
}

func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error reading .env file: %w", err)
	}
	return nil
}

// LoadAWSConfig loads AWS SDK configuration. It is only called when an S3
// source or an SSM parameter is actually used.
func LoadAWSConfig(ctx context.Context) (aws.Config, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return aws.Config{}, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}
	return cfg, nil
}
