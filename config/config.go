package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPPort    int    `mapstructure:"http_port"`
	GRPCPort    int    `mapstructure:"grpc_port"`
	LogLevel    string `mapstructure:"log_level"`
	ServiceName string `mapstructure:"service_name"` // Used as JWT issuer and Consul service name

	DatabaseDriver string        `mapstructure:"database_driver"` // mysql, postgres or sqlite
	DatabaseURL    string        `mapstructure:"database_url"`
	DBWaitAttempts int           `mapstructure:"db_wait_attempts"`
	DBWaitInterval time.Duration `mapstructure:"db_wait_interval"`

	JwtSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`

	MediaRoot string `mapstructure:"media_root"`
	MediaURL  string `mapstructure:"media_url"`

	// Superuser created at startup when both are set.
	AdminEmail    string `mapstructure:"admin_email"`
	AdminPassword string `mapstructure:"admin_password"`

	Consul ConsulConfig `mapstructure:"consul"`
}

type ConsulConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	CheckHost string `mapstructure:"check_host"` // Host Consul should hit for health checks
}

var AppConfig Config

// InitConfig loads config.yaml (if any), applies RECIPE_* environment
// overrides and fills AppConfig. It panics on unreadable or undecodable config.
func InitConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetEnvPrefix("RECIPE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Println("Config file not found, using defaults and environment variables.")
		} else {
			panic(fmt.Errorf("fatal error reading config file: %w", err))
		}
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		panic(fmt.Errorf("unable to decode config into struct: %w", err))
	}
}

func setDefaults() {
	viper.SetDefault("http_port", 8080)
	viper.SetDefault("grpc_port", 50051)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("service_name", "recipe-api")

	viper.SetDefault("database_driver", "sqlite")
	viper.SetDefault("database_url", "recipe.db")
	viper.SetDefault("db_wait_attempts", 30)
	viper.SetDefault("db_wait_interval", time.Second)

	viper.SetDefault("jwt_secret", "default-very-insecure-secret-key") // CHANGE THIS IN PRODUCTION
	viper.SetDefault("token_ttl", 24*time.Hour)

	viper.SetDefault("media_root", "./media")
	viper.SetDefault("media_url", "/media/")

	viper.SetDefault("admin_email", "")
	viper.SetDefault("admin_password", "")

	viper.SetDefault("consul.enabled", false)
	viper.SetDefault("consul.address", "127.0.0.1:8500")
	viper.SetDefault("consul.check_host", "localhost")
}
