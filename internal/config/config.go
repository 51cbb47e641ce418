package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the application.
type Config struct {
	Server     ServerConfig
	DB         DBConfig
	Redis      RedisConfig
	Log        LogConfig
	Points     PointsConfig
	Redemption RedemptionConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port            string `envconfig:"SERVER_PORT" default:"3000"`
	ShutdownTimeout int    `envconfig:"SHUTDOWN_TIMEOUT" default:"30"` // seconds
}

// DBConfig holds database-related configuration.
// WARNING: Default password is for local development only.
// In production, always set DB_PASSWORD via environment variable.
// In production, set DB_SSLMODE to "require" or "verify-full".
type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD" default:"postgres"` // CHANGE IN PRODUCTION
	Name     string `envconfig:"DB_NAME" default:"rewards_db"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"` // Use "require" in production
	MaxConns int    `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns int    `envconfig:"DB_MIN_CONNS" default:"5"`
}

// DSN returns the plain PostgreSQL connection string without pool
// parameters. Single-connection consumers (migrations via database/sql)
// must use this one: plain pgx sends unknown keys to the server as
// startup parameters, which Postgres rejects.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// PoolDSN returns the connection string with pgxpool sizing parameters.
// Only pgxpool understands the pool_* keys.
func (c DBConfig) PoolDSN() string {
	return fmt.Sprintf("%s&pool_max_conns=%d&pool_min_conns=%d",
		c.DSN(), c.MaxConns, c.MinConns)
}

// RedisConfig holds the optional Redis cache configuration.
// An empty URL disables caching entirely.
type RedisConfig struct {
	URL string `envconfig:"REDIS_URL" default:""`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Pretty bool   `envconfig:"LOG_PRETTY" default:"false"`
}

// PointsConfig holds the point amounts awarded per event type.
// These are business configuration, not logic.
type PointsConfig struct {
	WelcomeBonus  int `envconfig:"POINTS_WELCOME_BONUS" default:"10"`
	DailyLogin    int `envconfig:"POINTS_DAILY_LOGIN" default:"1"`
	PostCreated   int `envconfig:"POINTS_POST_CREATED" default:"5"`
	PostLiked     int `envconfig:"POINTS_POST_LIKED" default:"2"`
	CommentPosted int `envconfig:"POINTS_COMMENT_POSTED" default:"3"`
	Follow        int `envconfig:"POINTS_FOLLOW" default:"5"`
	Followed      int `envconfig:"POINTS_FOLLOWED" default:"10"`
	CheckIn       int `envconfig:"POINTS_CHECK_IN" default:"10"`
}

// RedemptionConfig holds redemption workflow tuning.
type RedemptionConfig struct {
	TTLDays      int `envconfig:"REDEMPTION_TTL_DAYS" default:"30"`
	CodeLength   int `envconfig:"REDEMPTION_CODE_LENGTH" default:"8"`
	CodeAttempts int `envconfig:"REDEMPTION_CODE_ATTEMPTS" default:"5"`
	FeaturedTTL  int `envconfig:"FEATURED_CACHE_TTL" default:"60"` // seconds
}

// Load parses environment variables into the Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
