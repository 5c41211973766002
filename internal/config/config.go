package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	PublicDir    string
}

type StorageConfig struct {
	// Backend selects where uploads live: "local" (directory on disk) or
	// "s3" (any S3-compatible endpoint).
	Backend   string
	Dir       string
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

type UploadConfig struct {
	MaxFileSize int64
	MaxFiles    int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SessionConfig struct {
	// Store selects the session backend: "memory" (process-local, sessions
	// do not survive a restart) or "redis".
	Store  string
	Secret string
	TTL    time.Duration
	Redis  RedisConfig
}

type UserCredential struct {
	ID           string
	Username     string
	PasswordHash string
}

type AuthConfig struct {
	Enabled bool
	Users   []UserCredential
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Storage          StorageConfig
	Upload           UploadConfig
	Auth             AuthConfig
	Session          SessionConfig
	AllowCORSOrigins []string
}

// InsecureDefaultSecret is the built-in session signing secret. Deployments
// with auth enabled must override it.
const InsecureDefaultSecret = "imagedrop-insecure-default-secret"

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("IMAGEDROP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The original deployment configured the listen port via PORT.
	if err := v.BindEnv("http.port", "IMAGEDROP_HTTP_PORT", "PORT"); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *AppConfig) error {
	switch cfg.Storage.Backend {
	case "local":
		if cfg.Storage.Dir == "" {
			return fmt.Errorf("storage.dir required for the local backend")
		}
	case "s3":
		if cfg.Storage.Endpoint == "" || cfg.Storage.Bucket == "" {
			return fmt.Errorf("storage.endpoint and storage.bucket required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	if cfg.Session.Store != "memory" && cfg.Session.Store != "redis" {
		return fmt.Errorf("unknown session store %q", cfg.Session.Store)
	}

	if cfg.Auth.Enabled && len(cfg.Auth.Users) == 0 {
		return fmt.Errorf("auth.users must not be empty when auth is enabled")
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 3000)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "30s")
	v.SetDefault("http.idletimeout", "60s")
	v.SetDefault("http.publicdir", "web/public")

	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.dir", "uploads")
	v.SetDefault("storage.bucket", "imagedrop-uploads")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.usessl", false)

	v.SetDefault("upload.maxfilesize", 5*1024*1024)
	v.SetDefault("upload.maxfiles", 10)

	v.SetDefault("auth.enabled", false)

	v.SetDefault("session.store", "memory")
	v.SetDefault("session.secret", InsecureDefaultSecret)
	v.SetDefault("session.ttl", "24h")
	v.SetDefault("session.redis.addr", "127.0.0.1:6379")
	v.SetDefault("session.redis.db", 0)
}
