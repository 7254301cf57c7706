package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Detector DetectorConfig
	Upload   UploadConfig
	Auth     AuthConfig
}

type ServerConfig struct {
	Port         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Path string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
	CacheTTL time.Duration
}

// DetectorConfig selects the detector variant once at startup. Mode is
// either "remote" (YOLO inference sidecar over HTTP) or "disabled".
type DetectorConfig struct {
	Mode         string
	ModelPath    string
	InferenceURL string
	Timeout      time.Duration
}

type UploadConfig struct {
	Dir               string
	MaxBytes          int
	AllowedExtensions []string
	DownloadTimeout   time.Duration
}

type AuthConfig struct {
	SessionTTL         time.Duration
	AnonymousCookieTTL time.Duration
}

func Load() (*Config, error) {
	// .env is optional in production
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "pothole_detection.db"),
		},
		Redis: RedisConfig{
			Enabled:  getBoolEnv("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
			CacheTTL: getDurationEnv("REDIS_CACHE_TTL", time.Minute),
		},
		Detector: DetectorConfig{
			Mode:         getEnv("DETECTOR_MODE", "disabled"),
			ModelPath:    getEnv("MODEL_PATH", "model/best.pt"),
			InferenceURL: getEnv("INFERENCE_URL", "http://localhost:8500/detect"),
			Timeout:      getDurationEnv("DETECTOR_TIMEOUT", 60*time.Second),
		},
		Upload: UploadConfig{
			Dir:               getEnv("UPLOAD_DIR", "uploads"),
			MaxBytes:          getIntEnv("UPLOAD_MAX_BYTES", 16*1024*1024),
			AllowedExtensions: getSliceEnv("UPLOAD_ALLOWED_EXTENSIONS", []string{"png", "jpg", "jpeg", "gif", "webp"}),
			DownloadTimeout:   getDurationEnv("DOWNLOAD_TIMEOUT", 30*time.Second),
		},
		Auth: AuthConfig{
			SessionTTL:         getDurationEnv("SESSION_TTL", 30*24*time.Hour),
			AnonymousCookieTTL: getDurationEnv("ANONYMOUS_COOKIE_TTL", 365*24*time.Hour),
		},
	}

	return cfg, nil
}

func (c *RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, strings.ToLower(p))
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
