package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Redis    RedisConfig
	Database DatabaseConfig
	Sync     SyncConfig
	Deploy   DeployConfig
	Firebase FirebaseConfig
	App      AppConfig
}

type ServerConfig struct {
	Port         string
	AllowOrigins []string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type DatabaseConfig struct {
	DSN string
}

// SyncConfig controls the periodic cache/durable-tier reconciliation worker.
type SyncConfig struct {
	Interval time.Duration
}

type DeployConfig struct {
	CloudflareAccountID string
	CloudflareAPIToken  string
	NetlifyAPIToken     string
	S3Bucket            string
	S3Region            string
	S3AccessKeyID       string
	S3SecretAccessKey   string
}

type FirebaseConfig struct {
	CredentialsPath string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			AllowOrigins: []string{getEnv("CORS_ORIGIN", "*")},
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Database: DatabaseConfig{
			DSN: getEnv("DB_DSN", ""),
		},
		Sync: SyncConfig{
			Interval: time.Duration(getEnvAsInt("SYNC_INTERVAL_SECONDS", 300)) * time.Second,
		},
		Deploy: DeployConfig{
			CloudflareAccountID: getEnv("CLOUDFLARE_ACCOUNT_ID", ""),
			CloudflareAPIToken:  getEnv("CLOUDFLARE_API_TOKEN", ""),
			NetlifyAPIToken:     getEnv("NETLIFY_AUTH_TOKEN", ""),
			S3Bucket:            getEnv("DEPLOY_S3_BUCKET", ""),
			S3Region:            getEnv("DEPLOY_S3_REGION", "us-east-1"),
			S3AccessKeyID:       getEnv("DEPLOY_S3_ACCESS_KEY_ID", ""),
			S3SecretAccessKey:   getEnv("DEPLOY_S3_SECRET_ACCESS_KEY", ""),
		},
		Firebase: FirebaseConfig{
			CredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Redis.Addr == "" {
		return fmt.Errorf("REDIS_ADDR is required")
	}

	if c.Sync.Interval <= 0 {
		return fmt.Errorf("SYNC_INTERVAL_SECONDS must be positive")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}
