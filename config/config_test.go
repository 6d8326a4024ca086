package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV_FILE", "")
	t.Setenv("LEAD_API_BASE_URL", "http://api.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "http://api.test", cfg.LeadAPIBaseURL)
	assert.Equal(t, 20, cfg.PageSize)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "local", cfg.AuthProvider)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV_FILE", "")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("PAGE_SIZE", "50")
	t.Setenv("TIMEZONE", "Asia/Kolkata")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, 50, cfg.PageSize)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", loc.String())
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"zero page size", "PAGE_SIZE", "0"},
		{"unknown auth provider", "AUTH_PROVIDER", "ldap"},
		{"unknown timezone", "TIMEZONE", "Mars/Olympus"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ENV_FILE", "")
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
