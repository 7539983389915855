package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string          `mapstructure:"environment"`
	LogLevel    string          `mapstructure:"log_level"`
	Server      ServerConfig    `mapstructure:"server"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Cache       CacheConfig     `mapstructure:"cache"`
	Cleanup     CleanupConfig   `mapstructure:"cleanup"`
	Valuation   ValuationConfig `mapstructure:"valuation"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CacheConfig struct {
	ResultTTL string `mapstructure:"result_ttl"`
}

type CleanupConfig struct {
	ObservationRetentionDays int `mapstructure:"observation_retention_days"`
	CleanupIntervalMinutes   int `mapstructure:"cleanup_interval_minutes"`
}

// ValuationConfig exposes the model options, including the modified-Metcalfe
// exponents, which are tuning constants rather than fitted values.
type ValuationConfig struct {
	EnableTopologyAnalysis bool    `mapstructure:"enable_topology_analysis"`
	EnableNetworkEffects   bool    `mapstructure:"enable_network_effects"`
	EnableMLPrediction     bool    `mapstructure:"enable_ml_prediction"`
	EnableHealthMetrics    bool    `mapstructure:"enable_health_metrics"`
	PolynomialDegree       int     `mapstructure:"polynomial_degree"`
	PredictionHorizon      int     `mapstructure:"prediction_horizon"`
	LookbackWindow         int     `mapstructure:"lookback_window"`
	AddressExponent        float64 `mapstructure:"address_exponent"`
	DensityExponent        float64 `mapstructure:"density_exponent"`
	VolumeExponent         float64 `mapstructure:"volume_exponent"`
	RidgeAlpha             float64 `mapstructure:"ridge_alpha"`
	Seed                   int64   `mapstructure:"seed"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Missing config file is fine; defaults and environment variables
		// carry the configuration.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)

	if config.Cache.ResultTTL != "" {
		if _, err := time.ParseDuration(config.Cache.ResultTTL); err != nil {
			return nil, fmt.Errorf("invalid cache result_ttl duration: %w", err)
		}
	}
	if config.Database.ConnMaxLifetime != "" {
		if _, err := time.ParseDuration(config.Database.ConnMaxLifetime); err != nil {
			return nil, fmt.Errorf("invalid database conn_max_lifetime duration: %w", err)
		}
	}
	if config.Valuation.PredictionHorizon <= 0 {
		return nil, fmt.Errorf("valuation prediction_horizon must be positive, got %d", config.Valuation.PredictionHorizon)
	}
	if config.Valuation.PolynomialDegree <= 0 {
		return nil, fmt.Errorf("valuation polynomial_degree must be positive, got %d", config.Valuation.PolynomialDegree)
	}

	return &config, nil
}

// ResultTTL returns the parsed cache TTL.
func (c *CacheConfig) ResultTTLDuration() time.Duration {
	d, err := time.ParseDuration(c.ResultTTL)
	if err != nil || d <= 0 {
		return 15 * time.Minute
	}
	return d
}

func setDefaults() {
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "netvalue")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.conn_max_lifetime", "300s")

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("cache.result_ttl", "15m")

	viper.SetDefault("cleanup.observation_retention_days", 730)
	viper.SetDefault("cleanup.cleanup_interval_minutes", 60)

	viper.SetDefault("valuation.enable_topology_analysis", true)
	viper.SetDefault("valuation.enable_network_effects", true)
	viper.SetDefault("valuation.enable_ml_prediction", true)
	viper.SetDefault("valuation.enable_health_metrics", true)
	viper.SetDefault("valuation.polynomial_degree", 3)
	viper.SetDefault("valuation.prediction_horizon", 24)
	viper.SetDefault("valuation.lookback_window", 100)
	viper.SetDefault("valuation.address_exponent", 1.8)
	viper.SetDefault("valuation.density_exponent", 0.5)
	viper.SetDefault("valuation.volume_exponent", 0.3)
	viper.SetDefault("valuation.ridge_alpha", 1.0)
	viper.SetDefault("valuation.seed", 42)
}
