package config

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env  string
	Port int

	DBURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// image store (cloudinary-style upload API)
	ImageCloudName string
	ImageAPIKey    string
	ImageAPISecret string

	// payment gateway
	PaymentSecretKey string

	OTLPEndpoint string

	AllowedOrigins []string
}

func Load() Config {
	// .env is optional; real deployments use the environment directly
	_ = godotenv.Load()

	return Config{
		Env:              getEnv("APP_ENV", "dev"),
		Port:             getEnvInt("PORT", 8080),
		DBURL:            buildDBURL(),
		RedisAddr:        getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getEnvInt("REDIS_DB", 0),
		ImageCloudName:   getEnv("IMAGE_CLOUD_NAME", ""),
		ImageAPIKey:      getEnv("IMAGE_API_KEY", ""),
		ImageAPISecret:   getEnv("IMAGE_API_SECRET", ""),
		PaymentSecretKey: getEnv("PAYMENT_SECRET_KEY", ""),
		OTLPEndpoint:     getEnv("OTLP_ENDPOINT", ""),
		AllowedOrigins:   []string{getEnv("CORS_ORIGIN", "http://localhost:3000")},
	}
}

func buildDBURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "brocante")
	pass := getEnv("DB_PASSWORD", "brocante")
	name := getEnv("DB_NAME", "brocante")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			return fallback
		}

		return num
	}

	return fallback
}
