package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

// Config is the runtime configuration, read from the environment and an
// optional .env file.
type Config struct {
	Port        string
	DatabaseURL string

	StorageDriver     string
	StorageRoot       string
	StoragePublicPath string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool
	MinioBucket    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	JWTSecret string
	JWKSURL   string

	LogLevel  string
	LogPretty bool

	SweepInterval time.Duration
	SweepGrace    time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("STORAGE_DRIVER", StorageLocal)
	v.SetDefault("STORAGE_ROOT", "storage/app/public")
	v.SetDefault("STORAGE_PUBLIC_PATH", "/storage")
	v.SetDefault("MINIO_ENDPOINT", "localhost:9000")
	v.SetDefault("MINIO_ACCESS_KEY", "minioadmin")
	v.SetDefault("MINIO_SECRET_KEY", "minioadmin")
	v.SetDefault("MINIO_USE_SSL", false)
	v.SetDefault("MINIO_BUCKET", "catalog")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", 15*time.Minute)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", false)
	v.SetDefault("SWEEP_INTERVAL", time.Hour)
	v.SetDefault("SWEEP_GRACE", time.Hour)
}

// Load reads envFiles (missing files are skipped) into the process
// environment, then builds a Config from it.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Port:              v.GetString("PORT"),
		DatabaseURL:       v.GetString("DATABASE_URL"),
		StorageDriver:     strings.ToLower(v.GetString("STORAGE_DRIVER")),
		StorageRoot:       v.GetString("STORAGE_ROOT"),
		StoragePublicPath: v.GetString("STORAGE_PUBLIC_PATH"),
		MinioEndpoint:     v.GetString("MINIO_ENDPOINT"),
		MinioAccessKey:    v.GetString("MINIO_ACCESS_KEY"),
		MinioSecretKey:    v.GetString("MINIO_SECRET_KEY"),
		MinioUseSSL:       v.GetBool("MINIO_USE_SSL"),
		MinioBucket:       v.GetString("MINIO_BUCKET"),
		RedisAddr:         v.GetString("REDIS_ADDR"),
		RedisPassword:     v.GetString("REDIS_PASSWORD"),
		RedisDB:           v.GetInt("REDIS_DB"),
		CacheTTL:          v.GetDuration("CACHE_TTL"),
		JWTSecret:         v.GetString("JWT_SECRET"),
		JWKSURL:           v.GetString("JWKS_URL"),
		LogLevel:          v.GetString("LOG_LEVEL"),
		LogPretty:         v.GetBool("LOG_PRETTY"),
		SweepInterval:     v.GetDuration("SWEEP_INTERVAL"),
		SweepGrace:        v.GetDuration("SWEEP_GRACE"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageLocal:
		if c.StorageRoot == "" {
			return errors.New("STORAGE_ROOT is required for the local storage driver")
		}
		if !strings.HasPrefix(c.StoragePublicPath, "/") {
			return errors.New("STORAGE_PUBLIC_PATH must start with /")
		}
	case StorageMinio:
		if c.MinioEndpoint == "" || c.MinioBucket == "" {
			return errors.New("MINIO_ENDPOINT and MINIO_BUCKET are required for the minio storage driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.CacheTTL < 0 || c.SweepInterval < 0 || c.SweepGrace < 0 {
		return errors.New("CACHE_TTL, SWEEP_INTERVAL and SWEEP_GRACE must not be negative")
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}
