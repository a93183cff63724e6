package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort  string
	BaseURL     string
	DatabaseDSN string

	TokenSigningSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	EmailVerifyTTL     time.Duration
	ResetTokenTTL      time.Duration

	MinPasswordLength int

	RateLimitMax    int
	RateLimitWindow time.Duration

	MailProvider  string // "kafka" or "smtp"
	VerifyBaseURL string
	ResetBaseURL  string
	KafkaBroker   string
	KafkaTopic    string
	KafkaUsername string
	KafkaPassword string

	GmailUser        string
	GmailAppPassword string
	MailFrom         string
	MailFromName     string
	MailSubject      string

	CloudinaryURL string
}

func LoadConfig() (Config, error) {
	if os.Getenv("ENV") != "prod" {
		if err := godotenv.Overload(); err != nil {
			log.Println("Warning: env file not found or could not be loaded:", err)
		}
	}

	secret := os.Getenv("TOKEN_SIGNING_SECRET")
	if secret == "" {
		return Config{}, errors.New("TOKEN_SIGNING_SECRET is required")
	}

	cfg := Config{
		ServerPort:  getEnv("SERVER_PORT", ":3000"),
		BaseURL:     getEnv("BASE_URL", "*"),
		DatabaseDSN: os.Getenv("DATABASE_DSN"),

		TokenSigningSecret: secret,
		AccessTokenTTL:     getDuration("ACCESS_TOKEN_TTL", 30*time.Minute),
		RefreshTokenTTL:    getDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		EmailVerifyTTL:     getDuration("EMAIL_VERIFY_TTL", 24*time.Hour),
		ResetTokenTTL:      getDuration("RESET_TOKEN_TTL", 30*time.Minute),

		MinPasswordLength: getInt("MIN_PASSWORD_LENGTH", 8),

		RateLimitMax:    getInt("RATE_LIMIT_MAX", 60),
		RateLimitWindow: getDuration("RATE_LIMIT_WINDOW", time.Minute),

		MailProvider:  getEnv("MAIL_PROVIDER", "kafka"),
		VerifyBaseURL: getEnv("VERIFY_BASE_URL", "http://localhost:3000/api/auth/verify-email"),
		ResetBaseURL:  getEnv("RESET_BASE_URL", "http://localhost:3000/reset-password"),
		KafkaBroker:   os.Getenv("KAFKA_BROKER"),
		KafkaTopic:    os.Getenv("KAFKA_TOPIC"),
		KafkaUsername: os.Getenv("KAFKA_USERNAME"),
		KafkaPassword: os.Getenv("KAFKA_PASSWORD"),

		GmailUser:        os.Getenv("GMAIL_USER"),
		GmailAppPassword: os.Getenv("GMAIL_APP_PASSWORD"),
		MailFrom:         os.Getenv("MAIL_FROM"),
		MailFromName:     getEnv("MAIL_FROM_NAME", "Contactbook"),
		MailSubject:      getEnv("MAIL_SUBJECT", "Verify your email"),

		CloudinaryURL: os.Getenv("CLOUDINARY_URL"),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("invalid duration in %s: %q, using default %s", key, v, fallback)
		return fallback
	}
	return d
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("invalid number in %s: %q, using default %d", key, v, fallback)
		return fallback
	}
	return n
}
