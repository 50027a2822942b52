package config

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds all service configuration.
type Config struct {
	HTTPAddress string
	DatabaseURL string

	// RedisAddress enables the redis workspace cache when set; empty falls
	// back to the in-process cache.
	RedisAddress  string
	RedisPassword string

	// AuthSecret signs the bearer tokens the principal middleware accepts.
	AuthSecret string

	VisitWorkers   int
	VisitQueueSize int
}

// LoadConfig loads configuration from files and environment variables.
func LoadConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvPrefix("DOCKTREE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envMappings := map[string]string{
		"HTTPAddress":    "HTTP_ADDRESS",
		"DatabaseURL":    "DATABASE_URL",
		"RedisAddress":   "REDIS_ADDRESS",
		"RedisPassword":  "REDIS_PASSWORD",
		"AuthSecret":     "AUTH_SECRET",
		"VisitWorkers":   "VISIT_WORKERS",
		"VisitQueueSize": "VISIT_QUEUE_SIZE",
	}

	for configKey, envVar := range envMappings {
		if err := v.BindEnv(configKey, "DOCKTREE_"+envVar); err != nil {
			log.Warn().Err(err).Msgf("Failed to bind environment variable %s for %s", envVar, configKey)
		}
	}

	v.SetConfigName("docktree")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("$HOME/.docktree")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Debug().Msg("Config file not found, using environment variables and defaults")
	} else {
		log.Info().Msgf("Using config file: %s", v.ConfigFileUsed())
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTPAddress", ":8080")
	v.SetDefault("VisitWorkers", 2)
	v.SetDefault("VisitQueueSize", 256)
}

func validateConfig(config *Config) error {
	var missing []string

	if config.DatabaseURL == "" {
		missing = append(missing, "DOCKTREE_DATABASE_URL")
	}
	if config.AuthSecret == "" {
		missing = append(missing, "DOCKTREE_AUTH_SECRET")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return nil
}
