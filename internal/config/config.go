// Package config handles application configuration loading and validation using Viper.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Impact      ImpactConfig      `mapstructure:"impact"`
	Pickups     PickupsConfig     `mapstructure:"pickups"`
	Leaderboard LeaderboardConfig `mapstructure:"leaderboard"`
	Scheduler   SchedulerConfig   `mapstructure:"scheduler"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// ServerConfig contains HTTP server configuration for the dashboard API.
type ServerConfig struct {
	Port        int    `mapstructure:"port"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig contains database connection settings for PostgreSQL and Redis.
type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig contains PostgreSQL connection and pool settings.
type PostgresConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Database        string `mapstructure:"database"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MigrationsPath  string `mapstructure:"migrations_path"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// ImpactConfig contains eco-impact valuation settings.
type ImpactConfig struct {
	FormulaFile      string `mapstructure:"formula_file"`       // optional YAML overriding built-in formulas
	DefaultBaseValue int    `mapstructure:"default_base_value"` // base score for unknown device types
}

// PickupsConfig contains pickup scheduling settings.
type PickupsConfig struct {
	DefaultRadiusKm float64 `mapstructure:"default_radius_km"`
	MaxMatches      int     `mapstructure:"max_matches"`
}

// LeaderboardConfig contains leaderboard cache and paging settings.
type LeaderboardConfig struct {
	CacheTTL int `mapstructure:"cache_ttl"` // seconds
	PageSize int `mapstructure:"page_size"`
	MaxPage  int `mapstructure:"max_page"`
}

// SchedulerConfig contains cron sweep settings.
type SchedulerConfig struct {
	Enabled             bool   `mapstructure:"enabled"`
	BadgeEvaluationTime string `mapstructure:"badge_evaluation_time"` // cron expression
	ChallengeSweepTime  string `mapstructure:"challenge_sweep_time"`  // cron expression
	Timezone            string `mapstructure:"timezone"`
}

// LoggingConfig contains application logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// Load reads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/ecocycle/")
	}

	setDefaults(v)

	// Bind specific environment variables (explicit bindings for 12-factor app compliance)
	_ = v.BindEnv("server.port", "SERVER_PORT")
	_ = v.BindEnv("server.environment", "SERVER_ENVIRONMENT")

	_ = v.BindEnv("database.postgres.host", "POSTGRES_HOST")
	_ = v.BindEnv("database.postgres.port", "POSTGRES_PORT")
	_ = v.BindEnv("database.postgres.database", "POSTGRES_DB")
	_ = v.BindEnv("database.postgres.user", "POSTGRES_USER")
	_ = v.BindEnv("database.postgres.password", "POSTGRES_PASSWORD")
	_ = v.BindEnv("database.postgres.ssl_mode", "POSTGRES_SSL_MODE")
	_ = v.BindEnv("database.postgres.migrations_path", "POSTGRES_MIGRATIONS_PATH")
	_ = v.BindEnv("database.postgres.max_open_conns", "POSTGRES_MAX_OPEN_CONNS")
	_ = v.BindEnv("database.postgres.max_idle_conns", "POSTGRES_MAX_IDLE_CONNS")
	_ = v.BindEnv("database.postgres.conn_max_lifetime", "POSTGRES_CONN_MAX_LIFETIME")

	_ = v.BindEnv("database.redis.host", "REDIS_HOST")
	_ = v.BindEnv("database.redis.port", "REDIS_PORT")
	_ = v.BindEnv("database.redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("database.redis.db", "REDIS_DB")
	_ = v.BindEnv("database.redis.pool_size", "REDIS_POOL_SIZE")

	_ = v.BindEnv("impact.formula_file", "IMPACT_FORMULA_FILE")
	_ = v.BindEnv("impact.default_base_value", "IMPACT_DEFAULT_BASE_VALUE")

	_ = v.BindEnv("pickups.default_radius_km", "PICKUPS_DEFAULT_RADIUS_KM")
	_ = v.BindEnv("pickups.max_matches", "PICKUPS_MAX_MATCHES")

	_ = v.BindEnv("leaderboard.cache_ttl", "LEADERBOARD_CACHE_TTL")
	_ = v.BindEnv("leaderboard.page_size", "LEADERBOARD_PAGE_SIZE")

	_ = v.BindEnv("scheduler.enabled", "SCHEDULER_ENABLED")
	_ = v.BindEnv("scheduler.badge_evaluation_time", "SCHEDULER_BADGE_EVALUATION_TIME")
	_ = v.BindEnv("scheduler.challenge_sweep_time", "SCHEDULER_CHALLENGE_SWEEP_TIME")
	_ = v.BindEnv("scheduler.timezone", "SCHEDULER_TIMEZONE")

	_ = v.BindEnv("logging.level", "LOG_LEVEL")
	_ = v.BindEnv("logging.format", "LOG_FORMAT")
	_ = v.BindEnv("logging.output", "LOG_OUTPUT")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.environment", "development")
	v.SetDefault("impact.default_base_value", 100)
	v.SetDefault("pickups.default_radius_km", 25.0)
	v.SetDefault("pickups.max_matches", 20)
	v.SetDefault("leaderboard.cache_ttl", 60)
	v.SetDefault("leaderboard.page_size", 20)
	v.SetDefault("leaderboard.max_page", 500)
	v.SetDefault("scheduler.timezone", "UTC")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if c.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if c.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}
	if c.Database.Redis.Host == "" {
		return fmt.Errorf("database.redis.host is required")
	}
	if c.Impact.DefaultBaseValue <= 0 {
		return fmt.Errorf("impact.default_base_value must be positive")
	}
	if c.Leaderboard.PageSize <= 0 {
		return fmt.Errorf("leaderboard.page_size must be positive")
	}
	return nil
}

// GetLocation returns the scheduler timezone location.
func (c *SchedulerConfig) GetLocation() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}
