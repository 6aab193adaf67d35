package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://project.supabase.co/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, "https://project.supabase.co", cfg.Storage.SupabaseURL)
	assert.Equal(t, "audio_recordings", cfg.Storage.Bucket)
	assert.Equal(t, "openai", cfg.STT.Backend)
	assert.Equal(t, int64(25<<20), cfg.STT.MaxUploadBytes)
	assert.Equal(t, 5*time.Minute, cfg.STT.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Notes.CacheTTL)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "port", key: "SERVER_PORT", val: "eighty"},
		{name: "stt timeout", key: "STT_TIMEOUT", val: "soon"},
		{name: "upload limit", key: "STT_MAX_UPLOAD_BYTES", val: "lots"},
		{name: "cache ttl", key: "NOTES_CACHE_TTL", val: "1 minute"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database: DatabaseConfig{URL: "postgres://localhost/notes"},
			Storage:  StorageConfig{SupabaseURL: "https://x.supabase.co", SupabaseKey: "key"},
			STT:      STTConfig{Backend: "openai", OpenAIKey: "sk-test", MaxUploadBytes: 1024},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{
			name:    "missing openai key",
			mutate:  func(c *Config) { c.STT.OpenAIKey = "" },
			wantErr: "OPENAI_API_KEY",
		},
		{
			name: "local backend needs no key",
			mutate: func(c *Config) {
				c.STT.Backend = "local"
				c.STT.OpenAIKey = ""
			},
		},
		{
			name: "reports every missing var",
			mutate: func(c *Config) {
				c.Database.URL = ""
				c.Storage.SupabaseURL = ""
				c.Storage.SupabaseKey = ""
			},
			wantErr: "DATABASE_URL, SUPABASE_URL, SUPABASE_SERVICE_KEY",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.STT.Backend = "carrier-pigeon" },
			wantErr: "unknown STT_BACKEND",
		},
		{
			name:    "non-positive upload limit",
			mutate:  func(c *Config) { c.STT.MaxUploadBytes = 0 },
			wantErr: "STT_MAX_UPLOAD_BYTES",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadClient(t *testing.T) {
	t.Setenv("NOTES_SERVER_URL", "http://notes.internal:9000/")
	t.Setenv("NOTES_CLIENT_TIMEOUT", "45s")

	cfg, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, "http://notes.internal:9000", cfg.ServerURL)
	assert.Equal(t, 45*time.Second, cfg.Timeout)
}
