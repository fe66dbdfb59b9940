package config

import (
	"os"
	"strconv"
	"time"
)

type ImpactServiceConfig struct {
	Port          string
	ServiceURL    string
	PostgresCfg   PostgresConfig
	RabbitMQCfg   RabbitMQConfig
	RedisCfg      RedisConfig
	MinioCfg      MinioConfig
	GeminiAPICfg  GeminiAPIConfig
	ModerationCfg ModerationConfig
}

type MinioConfig struct {
	MinioURL         string
	MinioAccessKey   string
	MinioSecretKey   string
	MinioLocation    string
	MinioSecure      string
	MinioResourceURL string
}

type PostgresConfig struct {
	DBname   string
	Username string
	Password string
	Host     string
	Port     string
}

type RabbitMQConfig struct {
	Username string
	Password string
	Host     string
	Port     string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type GeminiAPIConfig struct {
	APIKey    string
	FlashName string
	ProName   string
}

// ModerationConfig is the decision-engine surface. AIThreshold is the image
// authenticity probability at or above which a submission is treated as
// synthetic. RequireHuman and AutoVerify gate automatic finalization; Alternate
// is a test-mode toggle that alternates approve/reject for unflagged posts.
type ModerationConfig struct {
	AIThreshold   float64
	RequireHuman  bool
	AutoVerify    bool
	Alternate     bool
	FinalizeDelay time.Duration
}

func New() *ImpactServiceConfig {
	return &ImpactServiceConfig{
		Port:       getEnvOrDefault("PORT", "8787"),
		ServiceURL: getEnvOrDefault("SERVICE_URL", "http://localhost:8787"),
		PostgresCfg: PostgresConfig{
			DBname:   getEnvOrDefault("POSTGRES_DB", "impactx"),
			Username: getEnvOrDefault("POSTGRES_USER", "postgres"),
			Password: getEnvOrDefault("POSTGRES_PASSWORD", "postgres"),
			Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
			Port:     getEnvOrDefault("POSTGRES_PORT", "5432"),
		},
		RabbitMQCfg: RabbitMQConfig{
			Username: getEnvOrDefault("RABBITMQ_USER", "admin"),
			Password: getEnvOrDefault("RABBITMQ_PWD", "admin"),
			Host:     getEnvOrDefault("RABBITMQ_HOST", "localhost"),
			Port:     getEnvOrDefault("RABBITMQ_PORT", "5672"),
		},
		RedisCfg: RedisConfig{
			Host:     getEnvOrDefault("REDIS_HOST", "localhost"),
			Port:     getEnvOrDefault("REDIS_PORT", "6379"),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       0,
		},
		MinioCfg: MinioConfig{
			MinioURL:         getEnvOrDefault("MINIO_ENDPOINT", "http://localhost:9407"),
			MinioAccessKey:   getEnvOrDefault("MINIO_ACCESS_KEY", "minio"),
			MinioSecretKey:   getEnvOrDefault("MINIO_SECRET_KEY", "minio123"),
			MinioLocation:    getEnvOrDefault("MINIO_LOCATION", "us-east-1"),
			MinioSecure:      getEnvOrDefault("MINIO_SECURE", "false"),
			MinioResourceURL: getEnvOrDefault("MINIO_RESOURCE_URL", "http://localhost:9407/"),
		},
		GeminiAPICfg: GeminiAPIConfig{
			APIKey:    getEnvOrDefault("GEMINI_KEY", ""),
			FlashName: getEnvOrDefault("GEMINI_FLASH_MODEL", "gemini-2.5-flash"),
			ProName:   getEnvOrDefault("GEMINI_PRO_MODEL", "gemini-2.5-pro"),
		},
		ModerationCfg: ModerationConfig{
			AIThreshold:   getEnvFloatInRange("MODERATION_AI_THRESHOLD", 0.5, 0, 1),
			RequireHuman:  getEnvBool("MODERATION_REQUIRE_HUMAN", false),
			AutoVerify:    getEnvBool("MODERATION_AUTO_VERIFY", true),
			Alternate:     getEnvBool("MODERATION_ALTERNATE", false),
			FinalizeDelay: time.Duration(getEnvInt("FINALIZE_DELAY_MS", 2000)) * time.Millisecond,
		},
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvFloatInRange falls back to the default when the value is missing,
// malformed, or outside the open interval (lo, hi).
func getEnvFloatInRange(key string, defaultValue, lo, hi float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil && f > lo && f < hi {
			return f
		}
	}
	return defaultValue
}
