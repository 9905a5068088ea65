package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const EnvProduction = "production"

type Config struct {
	Port          string `env:"PORT,            default=8000"`
	Env           string `env:"ENV,             default=development"`
	LogLevel      string `env:"LOG_LEVEL,       default=info"`
	CORSOrigin    string `env:"CORS_ORIGIN,     default=*"`
	MaxUploadSize string `env:"MAX_UPLOAD_SIZE, default=10M"`

	Mongo     MongoConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Media     MediaConfig
	RateLimit RateLimitConfig
}

type MongoConfig struct {
	URI      string        `env:"MONGO_URI,  default=mongodb://localhost:27017"`
	Database string        `env:"MONGO_DB,   default=videotube"`
	Timeout  time.Duration `env:"DB_TIMEOUT, default=10s"`
}

// RedisConfig is optional; an empty Addr disables the profile cache.
type RedisConfig struct {
	Addr            string        `env:"REDIS_ADDR"`
	DB              int           `env:"REDIS_DB,          default=0"`
	ProfileCacheTTL time.Duration `env:"PROFILE_CACHE_TTL, default=30s"`
}

type AuthConfig struct {
	AccessTokenSecret  string        `env:"ACCESS_TOKEN_SECRET,  required"`
	AccessTokenTTL     time.Duration `env:"ACCESS_TOKEN_TTL,     default=1h"`
	RefreshTokenSecret string        `env:"REFRESH_TOKEN_SECRET, required"`
	RefreshTokenTTL    time.Duration `env:"REFRESH_TOKEN_TTL,    default=240h"`
	PasswordHasher     string        `env:"PASSWORD_HASHER,      default=bcrypt"`
	// RevokeSessionsOnPasswordChange clears the stored refresh token when a
	// password changes, ending every other session of that user.
	RevokeSessionsOnPasswordChange bool `env:"REVOKE_SESSIONS_ON_PASSWORD_CHANGE, default=false"`
}

// MediaConfig addresses an S3-compatible bucket. Account is the bucket name.
type MediaConfig struct {
	Account   string        `env:"MEDIA_ACCOUNT,    default=videotube-media"`
	AccessKey string        `env:"MEDIA_ACCESS_KEY"`
	SecretKey string        `env:"MEDIA_SECRET_KEY"`
	Region    string        `env:"MEDIA_REGION,     default=us-east-1"`
	Endpoint  string        `env:"MEDIA_ENDPOINT"`
	PublicURL string        `env:"MEDIA_PUBLIC_URL"`
	Timeout   time.Duration `env:"MEDIA_TIMEOUT,    default=30s"`
}

type RateLimitConfig struct {
	RPS   float64 `env:"RATE_LIMIT_RPS,   default=5"`
	Burst int     `env:"RATE_LIMIT_BURST, default=10"`
}

// IsProduction reports whether cookies must be marked Secure.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if cfg.Auth.AccessTokenSecret == cfg.Auth.RefreshTokenSecret {
		return nil, fmt.Errorf("config: ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
	}
	return &cfg, nil
}
