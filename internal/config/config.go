package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName   string `mapstructure:"app_name"`
	Env       string `mapstructure:"app_env"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	ProvidersFile  string `mapstructure:"providers_file"`
	PublishersFile string `mapstructure:"publishers_file"`

	StoreType     string `mapstructure:"store_type"`
	BBoltPath     string `mapstructure:"bbolt_path"`
	PostgresDSN   string `mapstructure:"postgres_dsn"`
	DefaultAuthor string `mapstructure:"default_author"`

	ObjectStoreType   string `mapstructure:"object_store_type"`
	LocalStoragePath  string `mapstructure:"local_storage_path"`
	PublicBaseURL     string `mapstructure:"public_base_url"`
	S3Endpoint        string `mapstructure:"s3_endpoint"`
	S3Region          string `mapstructure:"s3_region"`
	S3Bucket          string `mapstructure:"s3_bucket"`
	S3AccessKeyID     string `mapstructure:"s3_access_key_id"`
	S3SecretAccessKey string `mapstructure:"s3_secret_access_key"`
	S3UsePathStyle    bool   `mapstructure:"s3_use_path_style"`

	ImageTimeoutSeconds int64         `mapstructure:"image_timeout_seconds"`
	ImageTimeout        time.Duration `mapstructure:"-"`
	ImageMaxBytes       int64         `mapstructure:"image_max_bytes"`
	ImageMaxDimension   int           `mapstructure:"image_max_dimension"`
	ImageJPEGQuality    int           `mapstructure:"image_jpeg_quality"`
	ImageMaxPixels      int           `mapstructure:"image_max_pixels"`

	SlugMaxAttempts int `mapstructure:"slug_max_attempts"`

	RewriterURL            string        `mapstructure:"rewriter_url"`
	RewriterTimeoutSeconds int64         `mapstructure:"rewriter_timeout_seconds"`
	RewriterTimeout        time.Duration `mapstructure:"-"`

	MetricsAddr string `mapstructure:"metrics_addr"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "samvad-news-importer")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("providers_file", "./configs/providers.yaml")
	v.SetDefault("publishers_file", "")
	v.SetDefault("store_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/articles.db")
	v.SetDefault("postgres_dsn", "")
	v.SetDefault("default_author", "Redação")
	v.SetDefault("object_store_type", "local")
	v.SetDefault("local_storage_path", "./data/media")
	v.SetDefault("public_base_url", "http://localhost:8080/media")
	v.SetDefault("s3_endpoint", "")
	v.SetDefault("s3_region", "")
	v.SetDefault("s3_bucket", "")
	v.SetDefault("s3_access_key_id", "")
	v.SetDefault("s3_secret_access_key", "")
	v.SetDefault("s3_use_path_style", false)
	v.SetDefault("image_timeout_seconds", 15)
	v.SetDefault("image_max_bytes", 10*1024*1024)
	v.SetDefault("image_max_dimension", 1920)
	v.SetDefault("image_jpeg_quality", 85)
	v.SetDefault("image_max_pixels", 40_000_000)
	v.SetDefault("slug_max_attempts", 20)
	v.SetDefault("rewriter_url", "")
	v.SetDefault("rewriter_timeout_seconds", 60)
	v.SetDefault("metrics_addr", "")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.ImageTimeout = time.Duration(cfg.ImageTimeoutSeconds) * time.Second
	cfg.RewriterTimeout = time.Duration(cfg.RewriterTimeoutSeconds) * time.Second
	cfg.StoreType = strings.ToLower(strings.TrimSpace(cfg.StoreType))
	cfg.ObjectStoreType = strings.ToLower(strings.TrimSpace(cfg.ObjectStoreType))

	return &cfg, nil
}

func (cfg *Config) validate() error {
	switch strings.ToLower(cfg.LogFormat) {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log_format %q (json or console)", cfg.LogFormat)
	}
	if cfg.ImageTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid image_timeout_seconds (must be positive seconds)")
	}
	if cfg.ImageMaxBytes <= 0 {
		return fmt.Errorf("invalid image_max_bytes (must be positive)")
	}
	if cfg.ImageMaxDimension <= 0 {
		return fmt.Errorf("invalid image_max_dimension (must be positive pixels)")
	}
	if cfg.ImageMaxPixels <= 0 {
		return fmt.Errorf("invalid image_max_pixels (must be positive)")
	}
	if cfg.ImageJPEGQuality < 1 || cfg.ImageJPEGQuality > 100 {
		return fmt.Errorf("invalid image_jpeg_quality (must be 1-100)")
	}
	if cfg.SlugMaxAttempts <= 0 {
		return fmt.Errorf("invalid slug_max_attempts (must be positive)")
	}
	if cfg.RewriterTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid rewriter_timeout_seconds (must be positive seconds)")
	}
	return nil
}
