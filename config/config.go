package config

import (
	"log"
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
)

var loadEnvOnce sync.Once

func loadEnv() {
	loadEnvOnce.Do(func() {
		if err := godotenv.Load(); err != nil {
			log.Printf("Warning: .env file not found, falling back to environment variables")
		}
	})
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

type ServerConfig struct {
	Addr string
}

func GetServerConfig() *ServerConfig {
	loadEnv()
	return &ServerConfig{
		Addr: envOr("SERVER_ADDR", ":8080"),
	}
}

type RedisConfig struct {
	Addr    string
	DB      int
	Channel string
}

// GetRedisConfig returns the Redis settings for the status publisher. An
// empty Addr disables it.
func GetRedisConfig() *RedisConfig {
	loadEnv()
	return &RedisConfig{
		Addr:    os.Getenv("REDIS_ADDR"),
		DB:      envIntOr("REDIS_DB", 0),
		Channel: envOr("REDIS_STATUS_CHANNEL", "docstream:status"),
	}
}

type PostgresConfig struct {
	DSN string
}

// GetPostgresConfig returns the Postgres DSN. Empty means use the
// in-memory store.
func GetPostgresConfig() *PostgresConfig {
	loadEnv()
	return &PostgresConfig{
		DSN: os.Getenv("POSTGRES_DSN"),
	}
}

type MinioConfig struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	UseSSL     bool
	Region     string
	BucketName string
}

// GetMinioConfig returns object-storage settings for upload archival. An
// empty Endpoint disables archival.
func GetMinioConfig() *MinioConfig {
	loadEnv()
	return &MinioConfig{
		Endpoint:   os.Getenv("MINIO_ENDPOINT"),
		AccessKey:  os.Getenv("MINIO_ACCESS_KEY"),
		SecretKey:  os.Getenv("MINIO_SECRET_KEY"),
		UseSSL:     os.Getenv("MINIO_USE_SSL") == "true",
		Region:     os.Getenv("MINIO_REGION"),
		BucketName: envOr("MINIO_BUCKET_NAME", "docstream"),
	}
}

type OllamaConfig struct {
	Endpoint   string
	Model      string
	EmbedModel string
}

func GetOllamaConfig() *OllamaConfig {
	loadEnv()
	return &OllamaConfig{
		Endpoint:   envOr("OLLAMA_ENDPOINT", "http://localhost:11434"),
		Model:      envOr("OLLAMA_MODEL", "llama3.2-vision"),
		EmbedModel: os.Getenv("OLLAMA_EMBED_MODEL"),
	}
}
