package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr string
	Port       string
	GinMode    string

	DatabaseDriver string
	DatabasePath   string
	DatabaseDSN    string

	SessionSecret     string
	SuperRootUserName string
	SuperRootPassword string

	MediaRoot    string
	MediaURLPath string

	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3PublicURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool

	RateLimitPerMinute int
	PostsPerPage       int
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	port := envOrDefault("PORT", "8080")

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	return AppConfig{
		ListenAddr: listenAddr,
		Port:       port,
		GinMode:    envOrDefault("GIN_MODE", "release"),

		DatabaseDriver: strings.ToLower(envOrDefault("DATABASE_DRIVER", "sqlite")),
		DatabasePath:   envOrDefault("DATABASE_PATH", "newshub.db"),
		DatabaseDSN:    strings.TrimSpace(os.Getenv("DATABASE_DSN")),

		SessionSecret:     envOrDefault("SESSION_SECRET", "newshub-dev-secret"),
		SuperRootUserName: strings.TrimSpace(os.Getenv("SUPER_ROOT_USER_NAME")),
		SuperRootPassword: strings.TrimSpace(os.Getenv("SUPER_ROOT_PASSWORD")),

		MediaRoot:    envOrDefault("MEDIA_ROOT", "media"),
		MediaURLPath: envOrDefault("MEDIA_URL_PATH", "/media"),

		S3Endpoint:  strings.TrimSpace(os.Getenv("S3_ENDPOINT")),
		S3Region:    envOrDefault("S3_REGION", "us-east-1"),
		S3AccessKey: strings.TrimSpace(os.Getenv("S3_ACCESS_KEY")),
		S3SecretKey: strings.TrimSpace(os.Getenv("S3_SECRET_KEY")),
		S3Bucket:    envOrDefault("S3_BUCKET", "newshub-media"),
		S3PublicURL: strings.TrimSpace(os.Getenv("S3_PUBLIC_URL")),

		RedisAddr:     strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),

		LogLevel:      strings.ToLower(envOrDefault("LOG_LEVEL", "info")),
		LogPath:       strings.TrimSpace(os.Getenv("LOG_PATH")),
		LogMaxSizeMB:  envInt("LOG_MAX_SIZE_MB", 100),
		LogMaxBackups: envInt("LOG_MAX_BACKUPS", 3),
		LogMaxAgeDays: envInt("LOG_MAX_AGE_DAYS", 7),
		LogCompress:   envBool("LOG_COMPRESS", false),

		RateLimitPerMinute: envInt("RATE_LIMIT_PER_MINUTE", 20),
		PostsPerPage:       envInt("POSTS_PER_PAGE", 3),
	}
}

// S3Enabled reports whether object storage credentials are configured.
func (c AppConfig) S3Enabled() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func envBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}
