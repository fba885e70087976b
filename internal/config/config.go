package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const devJWTSecret = "dev-secret-change-in-production"

// Database drivers understood by the repository layer.
const (
	DriverMongo  = "mongo"
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Image store backends.
const (
	ImageStoreDisk = "disk"
	ImageStoreS3   = "s3"
)

var ErrInsecureSecret = errors.New("JWT_SECRET must be set in production environment")

type Config struct {
	Port string
	Env  string

	DatabaseDriver string
	DatabaseDSN    string
	MongoDatabase  string

	JWTSecret string
	JWTExpiry time.Duration

	ImageStore     string
	UploadDir      string
	MaxUploadBytes int64
	S3             S3Config

	RateLimitRequests int
	RateLimitWindow   time.Duration

	CORSOrigins []string
}

// S3Config holds the settings for an S3-compatible image bucket (AWS or MinIO).
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// IsDevelopment reports whether verbose error details may be returned to clients.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func Load() (Config, error) {
	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		DatabaseDriver: getEnv("DATABASE_DRIVER", DriverMongo),
		MongoDatabase:  getEnv("MONGO_DATABASE", "inventory-management"),
		JWTSecret:      getEnv("JWT_SECRET", devJWTSecret),
		ImageStore:     getEnv("IMAGE_STORE", ImageStoreDisk),
		UploadDir:      getEnv("UPLOAD_DIR", "uploads"),
		S3: S3Config{
			Bucket:    getEnv("S3_BUCKET", "stockpile"),
			Region:    getEnv("S3_REGION", "us-east-1"),
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
		},
	}
	cfg.DatabaseDSN = getEnv("DATABASE_DSN", defaultDSN(cfg.DatabaseDriver))
	cfg.CORSOrigins = getList("CORS_ALLOWED_ORIGINS", []string{"*"})

	var err error
	if cfg.JWTExpiry, err = getDuration("JWT_EXPIRY", time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitWindow, err = getDuration("RATE_LIMIT_WINDOW", 15*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitRequests, err = getInt("RATE_LIMIT_REQUESTS", 100); err != nil {
		return Config{}, err
	}
	maxUpload, err := getInt("MAX_UPLOAD_BYTES", 5<<20)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxUploadBytes = int64(maxUpload)

	switch cfg.DatabaseDriver {
	case DriverMongo, DriverMySQL, DriverSQLite:
	default:
		return Config{}, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}
	switch cfg.ImageStore {
	case ImageStoreDisk, ImageStoreS3:
	default:
		return Config{}, fmt.Errorf("unsupported IMAGE_STORE %q", cfg.ImageStore)
	}

	if cfg.Env == "production" && cfg.JWTSecret == devJWTSecret {
		return Config{}, ErrInsecureSecret
	}

	return cfg, nil
}

func defaultDSN(driver string) string {
	switch driver {
	case DriverMySQL:
		return "root:password@tcp(127.0.0.1:3306)/stockpile?parseTime=true"
	case DriverSQLite:
		return "stockpile.db"
	default:
		return "mongodb://127.0.0.1:27017"
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", key, v)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive duration", key, v)
	}
	return d, nil
}

// getList reads a comma-separated list, dropping empty items.
func getList(key string, fallback []string) []string {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
