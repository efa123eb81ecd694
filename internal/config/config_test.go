package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := &Config{}
	cfg.MongoDB.URI = "mongodb://localhost:27017"
	cfg.MongoDB.Database = "rafflehub"
	cfg.JWT.Secret = "jwt-secret"
	cfg.Paystack.Secret = "sk_test_secret"
	cfg.Frontend.BaseURL = "https://raffles.example.com"
	return cfg
}

func TestValidateComplete(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate() error = %v, want nil", err)
	}
}

func TestValidateReportsEachMissingKey(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"mongo uri", func(c *Config) { c.MongoDB.URI = "" }, "MONGO_URI"},
		{"mongo database", func(c *Config) { c.MongoDB.Database = "" }, "MONGODB_DATABASE"},
		{"jwt secret", func(c *Config) { c.JWT.Secret = "" }, "JWT_SECRET"},
		{"paystack secret", func(c *Config) { c.Paystack.Secret = "" }, "PAYSTACK_SECRET"},
		{"frontend url", func(c *Config) { c.Frontend.BaseURL = "" }, "FRONTEND_URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %q, want it to name %s", err, tt.want)
			}
		})
	}
}

func TestValidateReportsAllMissingKeysAtOnce(t *testing.T) {
	err := (&Config{}).Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error")
	}
	for _, key := range []string{"MONGO_URI", "MONGODB_DATABASE", "JWT_SECRET", "PAYSTACK_SECRET", "FRONTEND_URL"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("Validate() = %q, missing %s", err, key)
		}
	}
}
