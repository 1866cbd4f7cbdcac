package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Mongo      MongoConfig      `mapstructure:"mongo"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Cache      CacheConfig      `mapstructure:"cache"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Cloudinary CloudinaryConfig `mapstructure:"cloudinary"`
	Push       PushConfig       `mapstructure:"push"`
	CORS       CORSConfig       `mapstructure:"cors"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type MongoConfig struct {
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	// Transactions enables multi-document transactions for role transitions.
	// Requires a replica set; standalone servers fall back to compensation.
	Transactions bool `mapstructure:"transactions"`
}

type RedisConfig struct {
	// URL empty means the in-process cache is used.
	URL      string `mapstructure:"url"`
	PoolSize int    `mapstructure:"pool_size"`
}

type CacheConfig struct {
	AppointmentTTL time.Duration `mapstructure:"appointment_ttl"`
	ReviewTTL      time.Duration `mapstructure:"review_ttl"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
}

type CloudinaryConfig struct {
	CloudName string        `mapstructure:"cloud_name"`
	APIKey    string        `mapstructure:"api_key"`
	APISecret string        `mapstructure:"api_secret"`
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type PushConfig struct {
	URL       string        `mapstructure:"url"`
	ServerKey string        `mapstructure:"server_key"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads .env (if present), an optional config.yaml and CLINIC_* environment variables.
func Load() (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("CLINIC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "clinic")
	v.SetDefault("mongo.connect_timeout", "10s")
	v.SetDefault("mongo.transactions", false)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("cache.appointment_ttl", "1h")
	v.SetDefault("cache.review_ttl", "1h")

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "24h")

	v.SetDefault("cloudinary.base_url", "https://api.cloudinary.com/v1_1")
	v.SetDefault("cloudinary.timeout", "20s")

	v.SetDefault("push.url", "https://fcm.googleapis.com/fcm/send")
	v.SetDefault("push.timeout", "10s")

	v.SetDefault("cors.allowed_origins", []string{"*"})

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 50)
	v.SetDefault("rate_limit.burst", 100)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is not configured (CLINIC_JWT_SECRET)")
	}
	if c.Mongo.URI == "" || c.Mongo.Database == "" {
		return errors.New("mongo.uri and mongo.database are required")
	}
	if c.Cache.AppointmentTTL <= 0 {
		return fmt.Errorf("cache.appointment_ttl must be positive, got %s", c.Cache.AppointmentTTL)
	}
	if c.Cache.ReviewTTL <= 0 {
		return fmt.Errorf("cache.review_ttl must be positive, got %s", c.Cache.ReviewTTL)
	}
	return nil
}
