package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	MongoDB  MongoDBConfig
	JWT      JWTConfig
	Paystack PaystackConfig
	Frontend FrontendConfig
	LogLevel string
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	AllowedHosts []string
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string
	Database string
}

// JWTConfig holds session-token configuration
type JWTConfig struct {
	Secret    string
	ExpiresIn int // seconds
}

// PaystackConfig holds payment-gateway configuration. Secret signs webhook
// payloads and authenticates verification calls.
type PaystackConfig struct {
	BaseURL string
	Secret  string
	MockAPI bool
}

// FrontendConfig holds the externally reachable frontend base URL used to
// build ticket QR target links.
type FrontendConfig struct {
	BaseURL string
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()
	bindEnvAliases()

	// Config file is optional; environment variables alone are enough.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate reports every missing required setting at once so a misconfigured
// deployment fails startup with a complete diagnostic instead of a partial run.
func (c *Config) Validate() error {
	var missing []string
	if c.MongoDB.URI == "" {
		missing = append(missing, "MONGO_URI")
	}
	if c.MongoDB.Database == "" {
		missing = append(missing, "MONGODB_DATABASE")
	}
	if c.JWT.Secret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if c.Paystack.Secret == "" {
		missing = append(missing, "PAYSTACK_SECRET")
	}
	if c.Frontend.BaseURL == "" {
		missing = append(missing, "FRONTEND_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// setDefaults sets default values for configuration
func setDefaults() {
	viper.SetDefault("Server.Port", "5000")
	viper.SetDefault("Server.AllowedHosts", []string{"localhost:3000"})
	viper.SetDefault("MongoDB.Database", "rafflehub")
	viper.SetDefault("JWT.ExpiresIn", 60*60) // 1 hour
	viper.SetDefault("Paystack.BaseURL", "https://api.paystack.co")
	viper.SetDefault("Paystack.MockAPI", false)
	viper.SetDefault("LogLevel", "info")
}

// bindEnvAliases maps the conventional deployment variable names onto the
// nested config keys.
func bindEnvAliases() {
	_ = viper.BindEnv("Server.Port", "PORT")
	_ = viper.BindEnv("MongoDB.URI", "MONGO_URI", "MONGODB_URI")
	_ = viper.BindEnv("MongoDB.Database", "MONGODB_DATABASE")
	_ = viper.BindEnv("JWT.Secret", "JWT_SECRET")
	_ = viper.BindEnv("JWT.ExpiresIn", "JWT_EXPIRES_IN")
	_ = viper.BindEnv("Paystack.Secret", "PAYSTACK_SECRET")
	_ = viper.BindEnv("Paystack.BaseURL", "PAYSTACK_BASE_URL")
	_ = viper.BindEnv("Paystack.MockAPI", "PAYSTACK_MOCK_API")
	_ = viper.BindEnv("Frontend.BaseURL", "FRONTEND_URL")
	_ = viper.BindEnv("LogLevel", "LOG_LEVEL")
}
