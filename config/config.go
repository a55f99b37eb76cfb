package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	OCR      OCRConfig
	Match    MatchConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port          string `mapstructure:"port"`
	Environment   string `mapstructure:"environment"`
	MaxUploadSize int64  `mapstructure:"max_upload_size"`
}

// DatabaseConfig holds Postgres connection settings
type DatabaseConfig struct {
	DSN         string `mapstructure:"dsn"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
	SeedDemo    bool   `mapstructure:"seed_demo"`
}

// AuthConfig holds JWT and session settings
type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	AccessTTL  time.Duration `mapstructure:"access_ttl"`
	RefreshTTL time.Duration `mapstructure:"refresh_ttl"`
}

// OCRConfig holds recognition settings
type OCRConfig struct {
	Language string `mapstructure:"language"`
}

// MatchConfig holds catalog matching thresholds
type MatchConfig struct {
	BrandThreshold        float64 `mapstructure:"brand_threshold"`
	GenericThreshold      float64 `mapstructure:"generic_threshold"`
	ManufacturerThreshold float64 `mapstructure:"manufacturer_threshold"`
	ManufacturerWeight    float64 `mapstructure:"manufacturer_weight"`
	FuzzyThreshold        int     `mapstructure:"fuzzy_threshold"`
	FuzzyPageSize         int     `mapstructure:"fuzzy_page_size"`
	KeepBest              bool    `mapstructure:"keep_best"`
	DefaultLimit          int     `mapstructure:"default_limit"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	// Pick up a local .env first so viper sees its variables.
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/medscan/")

	v.SetEnvPrefix("MEDSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; env vars and defaults cover everything.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8081")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.max_upload_size", int64(5*1024*1024))

	// Every key needs a default so viper binds its env var during Unmarshal.
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.seed_demo", false)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.access_ttl", "24h")
	v.SetDefault("auth.refresh_ttl", "720h") // 30 days

	v.SetDefault("ocr.language", "eng")

	v.SetDefault("match.brand_threshold", 0.7)
	v.SetDefault("match.generic_threshold", 0.7)
	v.SetDefault("match.manufacturer_threshold", 0.8)
	v.SetDefault("match.manufacturer_weight", 0.8)
	v.SetDefault("match.fuzzy_threshold", 70)
	v.SetDefault("match.fuzzy_page_size", 100)
	v.SetDefault("match.keep_best", false)
	v.SetDefault("match.default_limit", 10)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Database.DSN == "" {
		return fmt.Errorf("database DSN is required (set MEDSCAN_DATABASE_DSN)")
	}

	if config.Server.Environment == "production" && config.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required in production (set MEDSCAN_AUTH_JWT_SECRET)")
	}

	if config.Match.FuzzyThreshold < 0 || config.Match.FuzzyThreshold > 100 {
		return fmt.Errorf("fuzzy threshold must be in [0,100], got: %d", config.Match.FuzzyThreshold)
	}

	for name, val := range map[string]float64{
		"brand_threshold":        config.Match.BrandThreshold,
		"generic_threshold":      config.Match.GenericThreshold,
		"manufacturer_threshold": config.Match.ManufacturerThreshold,
		"manufacturer_weight":    config.Match.ManufacturerWeight,
	} {
		if val < 0 || val > 1 {
			return fmt.Errorf("match.%s must be in [0,1], got: %v", name, val)
		}
	}

	return nil
}
