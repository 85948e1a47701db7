package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the grading API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseURL            string
	RedisURL               string
	JWTSecret              string
	JWTTokenTTL            time.Duration
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	HistoryCacheTTL        time.Duration
	InsightsCacheTTL       time.Duration
	AssessmentStageDelay   time.Duration
	AssessmentRunTimeout   time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("SCRIPTSURE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "ScriptSure Grading API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("jwt.token_ttl", "24h")
	v.SetDefault("cloudinary.folder", "scriptsure/handwriting")
	v.SetDefault("history.cache_ttl", "5m")
	v.SetDefault("insights.cache_ttl", "1m")
	v.SetDefault("assessment.stage_delay", "800ms")
	v.SetDefault("assessment.run_timeout", "30s")

	historyTTL, err := parseDuration(v, "history.cache_ttl", 5*time.Minute)
	if err != nil {
		return Config{}, err
	}

	insightsTTL, err := parseDuration(v, "insights.cache_ttl", time.Minute)
	if err != nil {
		return Config{}, err
	}

	tokenTTL, err := parseDuration(v, "jwt.token_ttl", 24*time.Hour)
	if err != nil {
		return Config{}, err
	}

	stageDelay, err := parseDuration(v, "assessment.stage_delay", 800*time.Millisecond)
	if err != nil {
		return Config{}, err
	}

	runTimeout, err := parseDuration(v, "assessment.run_timeout", 30*time.Second)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		JWTSecret:              v.GetString("jwt.secret"),
		JWTTokenTTL:            tokenTTL,
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		HistoryCacheTTL:        historyTTL,
		InsightsCacheTTL:       insightsTTL,
		AssessmentStageDelay:   stageDelay,
		AssessmentRunTimeout:   runTimeout,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string, fallback time.Duration) (time.Duration, error) {
	raw := v.GetString(key)
	if raw == "" {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return parsed, nil
}
