package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DB_TYPE", "")
	t.Setenv("TOKEN_DURATION", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("BOOTSTRAP_ADMIN_EMAIL", "")
	t.Setenv("BOOTSTRAP_ADMIN_NAME", "")

	cfg := Load()

	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %v, want 8080", cfg.ServerPort)
	}
	if cfg.DatabaseType != "sqlite" {
		t.Errorf("DatabaseType = %v, want sqlite", cfg.DatabaseType)
	}
	if cfg.TokenDuration != 12*time.Hour {
		t.Errorf("TokenDuration = %v, want 12h", cfg.TokenDuration)
	}
	if len(cfg.CORSAllowedOrigins) != 1 {
		t.Errorf("CORSAllowedOrigins = %v, want one default origin", cfg.CORSAllowedOrigins)
	}
	if cfg.AdminEmail != "" || cfg.AdminName != "Administrator" {
		t.Errorf("bootstrap admin = %q/%q, want disabled with default name", cfg.AdminEmail, cfg.AdminName)
	}
	if cfg.Timezone == nil {
		t.Error("Timezone should never be nil")
	}
}

func TestLoadOverrides(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		check func(*Config) bool
	}{
		{
			name:  "port",
			key:   "PORT",
			value: "9090",
			check: func(c *Config) bool { return c.ServerPort == "9090" },
		},
		{
			name:  "valid duration",
			key:   "SESSION_IDLE_TIMEOUT",
			value: "30m",
			check: func(c *Config) bool { return c.SessionIdleTimeout == 30*time.Minute },
		},
		{
			name:  "invalid duration falls back",
			key:   "SESSION_IDLE_TIMEOUT",
			value: "soon",
			check: func(c *Config) bool { return c.SessionIdleTimeout == 2*time.Hour },
		},
		{
			name:  "origin list is trimmed",
			key:   "CORS_ALLOWED_ORIGINS",
			value: " https://a.example , https://b.example ,",
			check: func(c *Config) bool {
				return len(c.CORSAllowedOrigins) == 2 && c.CORSAllowedOrigins[1] == "https://b.example"
			},
		},
		{
			name:  "invalid rate limit falls back",
			key:   "LOGIN_RATE_LIMIT",
			value: "-3",
			check: func(c *Config) bool { return c.LoginRateLimit == 10 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if cfg := Load(); !tt.check(cfg) {
				t.Errorf("%s=%q not applied as expected", tt.key, tt.value)
			}
		})
	}
}
