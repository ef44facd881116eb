/**
 * @description
 * This package handles the configuration management for the service. It uses the
 * Viper library to read configuration from environment variables, providing a
 * centralized and straightforward way to manage application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the transactor service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort            string `mapstructure:"SERVER_PORT"`
	DatabaseURL           string `mapstructure:"DATABASE_URL"`
	RedisURL              string `mapstructure:"REDIS_URL"`
	RedisIdempotencyPfx   string `mapstructure:"REDIS_IDEMPOTENCY_PREFIX"`
	RabbitMQURL           string `mapstructure:"RABBITMQ_URL"`
	GatewayPostURL        string `mapstructure:"GATEWAY_POST_URL"`
	GatewayUsername       string `mapstructure:"GATEWAY_USERNAME"`
	GatewayPassword       string `mapstructure:"GATEWAY_PASSWORD"`
	MerchantJWTSecret     string `mapstructure:"MERCHANT_JWT_SECRET"`
	IdempotencyTTLMinutes int    `mapstructure:"IDEMPOTENCY_TTL_MINUTES"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("REDIS_IDEMPOTENCY_PREFIX", "transactor:idempotency")
	viper.SetDefault("IDEMPOTENCY_TTL_MINUTES", 1440)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT", "SERVER_PORT", "PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_IDEMPOTENCY_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("GATEWAY_POST_URL", "GATEWAY_POST_URL", "NMI_POST_URL")
	_ = viper.BindEnv("GATEWAY_USERNAME", "GATEWAY_USERNAME", "NMI_USERNAME")
	_ = viper.BindEnv("GATEWAY_PASSWORD", "GATEWAY_PASSWORD", "NMI_PASSWORD")
	_ = viper.BindEnv("MERCHANT_JWT_SECRET")
	_ = viper.BindEnv("IDEMPOTENCY_TTL_MINUTES")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		// If the config file is not found, we can ignore the error.
		// For other errors, we should return them.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return Config{}, err
	}
	return config, nil
}
