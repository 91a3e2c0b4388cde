package config

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Server   ServerConfig   `env:",prefix=SERVER_"`
	Postgres PostgresConfig `env:",prefix=POSTGRES_"`
	Redis    RedisConfig    `env:",prefix=REDIS_"`
	JWT      JWTConfig      `env:",prefix=JWT_"`
	Session  SessionConfig  `env:",prefix=SESSION_"`
	Graph    GraphConfig    `env:",prefix=GRAPH_"`
	Security SecurityConfig `env:",prefix="`
	CORS     CORSConfig     `env:",prefix=CORS_"`
	Log      LogConfig      `env:",prefix=LOG_"`
	Env      string         `env:"ENV,default=development"`
}

type ServerConfig struct {
	Port         string   `env:"PORT,default=8080"`
	Host         string   `env:"HOST,default=0.0.0.0"`
	ReadTimeout  Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout Duration `env:"WRITE_TIMEOUT,default=30s"`
}

type PostgresConfig struct {
	Host        string `env:"HOST,default=localhost"`
	Port        string `env:"PORT,default=5432"`
	User        string `env:"USER,default=page_manager"`
	Password    string `env:"PASSWORD,default=page_manager_password"`
	DBName      string `env:"DB,default=page_manager_db"`
	SSLMode     string `env:"SSLMODE,default=disable"`
	AutoMigrate bool   `env:"AUTO_MIGRATE,default=true"`
}

type RedisConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=6379"`
	Password string `env:"PASSWORD,default="`
	DB       int    `env:"DB,default=0"`
}

type JWTConfig struct {
	Secret        string   `env:"SECRET,required"`
	SessionExpiry Duration `env:"SESSION_EXPIRY,default=24h"`
}

// SessionConfig controls the browser cookie carrying the session token.
type SessionConfig struct {
	CookieName   string `env:"COOKIE_NAME,default=fbpm_session"`
	CookieSecure bool   `env:"COOKIE_SECURE,default=false"`
}

// GraphConfig points the client at the Facebook Graph API.
type GraphConfig struct {
	BaseURL    string   `env:"BASE_URL,default=https://graph.facebook.com"`
	APIVersion string   `env:"API_VERSION,default=v18.0"`
	ClientTTL  Duration `env:"CLIENT_TTL,default=1h"`
	Timeout    Duration `env:"TIMEOUT,default=30s"`
}

type SecurityConfig struct {
	BCryptCost        int      `env:"BCRYPT_COST,default=12"`
	RateLimitRequests int      `env:"RATE_LIMIT_REQUESTS,default=10"`
	RateLimitWindow   Duration `env:"RATE_LIMIT_WINDOW,default=1m"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS,default=http://localhost:3000"`
	AllowedMethods []string `env:"ALLOWED_METHODS,default=GET,POST,OPTIONS"`
	AllowedHeaders []string `env:"ALLOWED_HEADERS,default=Content-Type,Authorization"`
}

// LogConfig enables an optional rotating log file next to console output.
type LogConfig struct {
	File       string `env:"FILE,default="`
	MaxSizeMB  int    `env:"MAX_SIZE_MB,default=100"`
	MaxBackups int    `env:"MAX_BACKUPS,default=5"`
	MaxAgeDays int    `env:"MAX_AGE_DAYS,default=30"`
}

// DSN returns PostgreSQL connection string
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// Address returns Redis connection address
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// VersionedURL returns the Graph API root including the version segment.
func (g GraphConfig) VersionedURL() string {
	if g.APIVersion == "" {
		return g.BaseURL
	}
	return fmt.Sprintf("%s/%s", g.BaseURL, g.APIVersion)
}

// Load loads configuration from a .env file (if present) and environment variables
func Load(ctx context.Context, envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read env file: %w", err)
	}

	var config Config

	if err := envconfig.Process(ctx, &config); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if len(config.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters long")
	}

	if config.Graph.ClientTTL.Duration <= 0 {
		return nil, fmt.Errorf("GRAPH_CLIENT_TTL must be positive")
	}

	return &config, nil
}
