package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the process configuration, read from the environment and an optional
// .env file.
type Config struct {
	Port   string
	Env    string
	Domain string

	MongoURI      string
	MongoDatabase string

	RedisAddress    string
	RedisPassword   string
	RedisDB         int
	IssueLimitQueue string
	IssueDailyLimit int
	RevokedPrefix   string

	JWTSecret string
	TokenTTL  time.Duration

	BlobDriver         string
	GCSBucket          string
	GCSCredentialsFile string
	LocalBlobDir       string
	PublicBaseURL      string

	AllowedOrigins      []string
	BootstrapAdminEmail string
	RequestTimeout      time.Duration
	MaxUploadBytes      int64
}

func (c *Config) Production() bool {
	return c.Env == "production"
}

// Load reads the configuration. A missing .env file is not an error.
func Load() (*Config, bool, error) {
	envLoaded := godotenv.Load() == nil

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", "8080")
	v.SetDefault("GO_ENV", "development")
	v.SetDefault("MONGODB_DATABASE", "civicsync")
	v.SetDefault("REDIS_ADDRESS", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_QUEUE_FOR_ISSUE_LIMIT", "issue_limit")
	v.SetDefault("ISSUE_DAILY_LIMIT", 10)
	v.SetDefault("REDIS_REVOKED_TOKEN_PREFIX", "revoked_token")
	v.SetDefault("TOKEN_TTL", "72h")
	v.SetDefault("BLOB_DRIVER", "local")
	v.SetDefault("LOCAL_BLOB_DIR", "uploads")
	v.SetDefault("REQUEST_TIMEOUT", "10s")
	v.SetDefault("MAX_UPLOAD_BYTES", 5<<20)

	cfg := &Config{
		Port:                v.GetString("PORT"),
		Env:                 v.GetString("GO_ENV"),
		Domain:              v.GetString("DOMAIN"),
		MongoURI:            v.GetString("MONGODB_URI"),
		MongoDatabase:       v.GetString("MONGODB_DATABASE"),
		RedisAddress:        v.GetString("REDIS_ADDRESS"),
		RedisPassword:       v.GetString("REDIS_PASSWORD"),
		RedisDB:             v.GetInt("REDIS_DB"),
		IssueLimitQueue:     v.GetString("REDIS_QUEUE_FOR_ISSUE_LIMIT"),
		IssueDailyLimit:     v.GetInt("ISSUE_DAILY_LIMIT"),
		RevokedPrefix:       v.GetString("REDIS_REVOKED_TOKEN_PREFIX"),
		JWTSecret:           v.GetString("JWT_SECRET"),
		TokenTTL:            v.GetDuration("TOKEN_TTL"),
		BlobDriver:          strings.ToLower(v.GetString("BLOB_DRIVER")),
		GCSBucket:           v.GetString("GCS_BUCKET"),
		GCSCredentialsFile:  v.GetString("GCS_CREDENTIALS_FILE"),
		LocalBlobDir:        v.GetString("LOCAL_BLOB_DIR"),
		PublicBaseURL:       v.GetString("PUBLIC_BASE_URL"),
		AllowedOrigins:      splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		BootstrapAdminEmail: v.GetString("BOOTSTRAP_ADMIN_EMAIL"),
		RequestTimeout:      v.GetDuration("REQUEST_TIMEOUT"),
		MaxUploadBytes:      v.GetInt64("MAX_UPLOAD_BYTES"),
	}
	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = "http://localhost:" + cfg.Port
	}
	return cfg, envLoaded, cfg.validate()
}

func (c *Config) validate() error {
	switch {
	case c.MongoURI == "":
		return fmt.Errorf("please define the MONGODB_URI environment variable")
	case c.JWTSecret == "":
		return fmt.Errorf("please define the JWT_SECRET environment variable")
	case c.BlobDriver != "local" && c.BlobDriver != "gcs":
		return fmt.Errorf("BLOB_DRIVER must be local or gcs, got %q", c.BlobDriver)
	case c.BlobDriver == "gcs" && c.GCSBucket == "":
		return fmt.Errorf("please define the GCS_BUCKET environment variable")
	case c.TokenTTL <= 0:
		return fmt.Errorf("TOKEN_TTL must be positive")
	case c.IssueDailyLimit < 1:
		return fmt.Errorf("ISSUE_DAILY_LIMIT must be at least 1")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
