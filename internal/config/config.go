package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const defaultConfigPath = "config/config.yml"

type AppConfig struct {
	Port         string        `yaml:"port" env:"PORT" env-default:"8000"`
	GinMode      string        `yaml:"gin_mode" env:"GIN_MODE" env-default:"release"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"30s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	// AllowedOrigins feeds the CORS middleware.
	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:5173"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

type DatabaseConfig struct {
	// DSN is checked lazily by the connection manager, not at load time.
	DSN string `yaml:"dsn" env:"DATABASE_URL"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr" env:"REDIS_ADDR"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	StatsTTL time.Duration `yaml:"stats_ttl" env:"STATS_CACHE_TTL" env-default:"60s"`
}

type JWTConfig struct {
	Secret          string `yaml:"secret" env:"JWT_SECRET"`
	ExpirationHours int    `yaml:"expiration_hours" env:"JWT_EXPIRATION_HOURS" env-default:"24"`
}

type ModelConfig struct {
	ModelPath   string  `yaml:"model_path" env:"MODEL_PATH" env-default:"artifacts/diabetes_model.json"`
	ScalerPath  string  `yaml:"scaler_path" env:"SCALER_PATH" env-default:"artifacts/scaler.json"`
	ClassesPath string  `yaml:"classes_path" env:"CLASSES_PATH"`
	Accuracy    float64 `yaml:"accuracy" env:"MODEL_ACCURACY" env-default:"86.4"`
	Warmup      bool    `yaml:"warmup" env:"MODEL_WARMUP" env-default:"false"`
}

// S3Config is used when an artifact path has the s3:// scheme.
type S3Config struct {
	Region    string `yaml:"region" env:"S3_REGION" env-default:"us-east-1"`
	Endpoint  string `yaml:"endpoint" env:"S3_ENDPOINT"`
	AccessKey string `yaml:"access_key" env:"S3_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"S3_SECRET_KEY"`
}

type Config struct {
	App      AppConfig      `yaml:"app"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	JWT      JWTConfig      `yaml:"jwt"`
	Model    ModelConfig    `yaml:"model"`
	S3       S3Config       `yaml:"s3"`
}

// TokenTTL converts the configured expiration hours to a duration
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWT.ExpirationHours) * time.Hour
}

// Validate checks settings that must be present before the server starts
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.JWT.ExpirationHours <= 0 {
		return fmt.Errorf("JWT_EXPIRATION_HOURS must be positive, got %d", c.JWT.ExpirationHours)
	}
	if c.Model.Accuracy < 0 || c.Model.Accuracy > 100 {
		return fmt.Errorf("MODEL_ACCURACY must be a percentage, got %v", c.Model.Accuracy)
	}
	return nil
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// Load reads .env (if any), then config/config.yml (if any, CONFIG_PATH
// overrides), then the environment. Environment values win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return LoadFrom(env("CONFIG_PATH", defaultConfigPath))
}

// LoadFrom reads the YAML file at path when it exists, otherwise the environment only.
func LoadFrom(path string) (*Config, error) {
	var cfg Config

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("could not read config file at %s: %w", path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("read env: %w", err)
		}
	}

	cfg.App.AllowedOrigins = cleanOrigins(cfg.App.AllowedOrigins)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func cleanOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, o := range in {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
