package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                 string
	AppEnv                  string
	AppPort                 string
	PublicBaseURL           string
	DatabaseURL             string
	RedisURL                string
	NATSURL                 string
	ChannelBase             string
	AIProvider              string
	AnthropicAPIKey         string
	AnthropicModel          string
	OpenAIAPIKey            string
	OpenAIModel             string
	AITimeout               time.Duration
	TwilioAccountSID        string
	TwilioAuthToken         string
	TwilioWhatsAppNumber    string
	TwilioValidateSignature bool
	CloudinaryCloudName     string
	CloudinaryAPIKey        string
	CloudinaryAPISecret     string
	CloudinaryFolder        string
	ProgressCacheTTL        time.Duration
	PracticeLockTTL         time.Duration
	SeedEnabled             bool
	SeedToken               string
	LogLevel                string
	LogFile                 string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// TwilioConfigured reports whether messaging credentials are present.
func (c Config) TwilioConfigured() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != ""
}

// CloudinaryConfigured reports whether recording archival is available.
func (c Config) CloudinaryConfigured() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("HEYCOACH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Hey Coach API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "3000")
	v.SetDefault("public_base_url", "http://localhost:3000")
	v.SetDefault("database.url", "sqlite://heycoach.db")
	v.SetDefault("channel_base", "heycoach")
	v.SetDefault("ai.provider", "anthropic")
	v.SetDefault("ai.timeout", "60s")
	v.SetDefault("anthropic.model", "claude-3-5-sonnet-20241022")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("twilio.whatsapp_number", "whatsapp:+14155238886")
	v.SetDefault("twilio.validate_signature", false)
	v.SetDefault("cloudinary.folder", "heycoach/recordings")
	v.SetDefault("progress.cache_ttl", "5m")
	v.SetDefault("practice.lock_ttl", "2m")
	v.SetDefault("seed.enabled", false)
	v.SetDefault("log.level", "info")

	aiTimeout, err := parseDuration(v, "ai.timeout", "60s")
	if err != nil {
		return Config{}, fmt.Errorf("invalid ai timeout: %w", err)
	}

	cacheTTL, err := parseDuration(v, "progress.cache_ttl", "5m")
	if err != nil {
		return Config{}, fmt.Errorf("invalid progress cache ttl: %w", err)
	}

	lockTTL, err := parseDuration(v, "practice.lock_ttl", "2m")
	if err != nil {
		return Config{}, fmt.Errorf("invalid practice lock ttl: %w", err)
	}

	cfg := Config{
		AppName:                 v.GetString("app.name"),
		AppEnv:                  v.GetString("app.env"),
		AppPort:                 v.GetString("app.port"),
		PublicBaseURL:           strings.TrimRight(v.GetString("public_base_url"), "/"),
		DatabaseURL:             v.GetString("database.url"),
		RedisURL:                v.GetString("redis.url"),
		NATSURL:                 v.GetString("nats.url"),
		ChannelBase:             v.GetString("channel_base"),
		AIProvider:              strings.ToLower(v.GetString("ai.provider")),
		AnthropicAPIKey:         v.GetString("anthropic.api_key"),
		AnthropicModel:          v.GetString("anthropic.model"),
		OpenAIAPIKey:            v.GetString("openai.api_key"),
		OpenAIModel:             v.GetString("openai.model"),
		AITimeout:               aiTimeout,
		TwilioAccountSID:        v.GetString("twilio.account_sid"),
		TwilioAuthToken:         v.GetString("twilio.auth_token"),
		TwilioWhatsAppNumber:    v.GetString("twilio.whatsapp_number"),
		TwilioValidateSignature: v.GetBool("twilio.validate_signature"),
		CloudinaryCloudName:     v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:        v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:     v.GetString("cloudinary.api_secret"),
		CloudinaryFolder:        v.GetString("cloudinary.folder"),
		ProgressCacheTTL:        cacheTTL,
		PracticeLockTTL:         lockTTL,
		SeedEnabled:             v.GetBool("seed.enabled"),
		SeedToken:               v.GetString("seed.token"),
		LogLevel:                strings.ToLower(v.GetString("log.level")),
		LogFile:                 v.GetString("log.file"),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("database url must be provided")
	}

	switch cfg.AIProvider {
	case "anthropic", "openai":
	default:
		return Config{}, fmt.Errorf("unsupported ai provider %q", cfg.AIProvider)
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key, fallback string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		raw = fallback
	}
	return time.ParseDuration(raw)
}
