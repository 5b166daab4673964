package config

import (
	"os"
	"strconv"
	"time"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

// DefaultSweepLookback must exceed the sweep interval plus its timeout, or a
// post left unclaimed by one sweep falls out of every later window.
const DefaultSweepLookback = time.Hour

type Sweep struct {
	Schedule    string
	Lookahead   time.Duration
	Lookback    time.Duration
	Timeout     time.Duration
	Concurrency int
}

type Publishing struct {
	WebhookURL    string
	WebhookSecret string
	Timeout       time.Duration
}

type Caption struct {
	APIURL  string
	APIKey  string
	Model   string
	Timeout time.Duration
}

type Config struct {
	Port               string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string
	PostgresURI        string
	RedisURI           string
	FrontendURL        string
	R2                 R2
	Sweep              Sweep
	Publishing         Publishing
	Caption            Caption
	SecretKey          string
	CookieName         string
	CronSecret         string
}

func LoadConfig() *Config {
	return &Config{
		Port:               getEnv("PORT", "3000"),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURI:  getEnv("GOOGLE_REDIRECT_URI", "http://localhost:3000/login/callback"),
		PostgresURI:        getEnv("POSTGRES_URI", ""),
		RedisURI:           getEnv("REDIS_URI", ""),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:5173"),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
		Sweep: Sweep{
			Schedule:    getEnv("SWEEP_SCHEDULE", "@every 5m"),
			Lookahead:   getEnvDuration("SWEEP_LOOKAHEAD", 5*time.Minute),
			Lookback:    getEnvDuration("SWEEP_LOOKBACK", DefaultSweepLookback),
			Timeout:     getEnvDuration("SWEEP_TIMEOUT", 4*time.Minute),
			Concurrency: getEnvInt("SWEEP_CONCURRENCY", 10),
		},
		Publishing: Publishing{
			WebhookURL:    getEnv("PUBLISH_WEBHOOK_URL", ""),
			WebhookSecret: getEnv("PUBLISH_WEBHOOK_SECRET", ""),
			Timeout:       getEnvDuration("PUBLISH_TIMEOUT", 60*time.Second),
		},
		Caption: Caption{
			APIURL:  getEnv("CAPTION_API_URL", ""),
			APIKey:  getEnv("CAPTION_API_KEY", ""),
			Model:   getEnv("CAPTION_MODEL", ""),
			Timeout: getEnvDuration("CAPTION_TIMEOUT", 30*time.Second),
		},
		SecretKey:  getEnv("SECRET_KEY", ""),
		CookieName: getEnv("COOKIE_NAME", "postpilot_session"),
		CronSecret: getEnv("CRON_SECRET", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}
