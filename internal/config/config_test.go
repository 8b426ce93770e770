package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HEYCOACH_DATABASE_URL", "sqlite://test.db")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "Hey Coach API", cfg.AppName)
	require.Equal(t, ":3000", cfg.HTTPAddress())
	require.Equal(t, "anthropic", cfg.AIProvider)
	require.Equal(t, 60*time.Second, cfg.AITimeout)
	require.Equal(t, 5*time.Minute, cfg.ProgressCacheTTL)
	require.Equal(t, "whatsapp:+14155238886", cfg.TwilioWhatsAppNumber)
	require.False(t, cfg.TwilioConfigured())
	require.False(t, cfg.CloudinaryConfigured())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HEYCOACH_DATABASE_URL", "postgres://localhost/heycoach")
	t.Setenv("HEYCOACH_APP_PORT", ":9090")
	t.Setenv("HEYCOACH_AI_PROVIDER", "OpenAI")
	t.Setenv("HEYCOACH_AI_TIMEOUT", "15s")
	t.Setenv("HEYCOACH_TWILIO_ACCOUNT_SID", "AC123")
	t.Setenv("HEYCOACH_TWILIO_AUTH_TOKEN", "token")
	t.Setenv("HEYCOACH_PUBLIC_BASE_URL", "https://coach.example.com/")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddress())
	require.Equal(t, "openai", cfg.AIProvider)
	require.Equal(t, 15*time.Second, cfg.AITimeout)
	require.True(t, cfg.TwilioConfigured())
	require.Equal(t, "https://coach.example.com", cfg.PublicBaseURL)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("HEYCOACH_DATABASE_URL", "sqlite://test.db")
	t.Setenv("HEYCOACH_PROGRESS_CACHE_TTL", "soon")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("HEYCOACH_PROGRESS_CACHE_TTL", "1m")
	t.Setenv("HEYCOACH_AI_PROVIDER", "gemini")
	_, err = Load()
	require.Error(t, err)
}
