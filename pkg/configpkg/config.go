// Package configpkg provides parsing functionality for environment variables.
package configpkg

import (
	"time"

	"github.com/spf13/viper"
)

// Notification queue backends.
const (
	QueueMemory = "memory"
	QueueRedis  = "redis"
)

// Config stores all configuration of the application.
//
// The values are read by viper fron a config file or environement variables.
type Config struct {
	DBDriver            string        `mapstructure:"DB_DRIVER"`
	DBSource            string        `mapstructure:"DB_SOURCE"`
	MigrationURL        string        `mapstructure:"MIGRATION_URL"`
	ServerAddress       string        `mapstructure:"SERVER_ADDRESS"`
	TokenType           string        `mapstructure:"TOKEN_TYPE"`
	TokenSymmetricKey   string        `mapstructure:"TOKEN_SYMMETRIC_KEY"`
	Environement        string        `mapstructure:"GO_ENV"`
	TransferTimeout     time.Duration `mapstructure:"TRANSFER_TIMEOUT"`
	NotificationQueue   string        `mapstructure:"NOTIFICATION_QUEUE"`
	NotificationBuffer  int           `mapstructure:"NOTIFICATION_BUFFER"`
	NotificationWorkers int           `mapstructure:"NOTIFICATION_WORKERS"`
	RedisAddress        string        `mapstructure:"REDIS_ADDRESS"`
}

// Load read configuration from file or environment variables.
func Load(path string) (Config, error) {
	var c Config

	v := viper.New()

	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("MIGRATION_URL", "file://configs/db/migration")
	v.SetDefault("SERVER_ADDRESS", "0.0.0.0:8080")
	v.SetDefault("GO_ENV", "production")
	v.SetDefault("TOKEN_TYPE", "paseto")
	v.SetDefault("TRANSFER_TIMEOUT", 5*time.Second)
	v.SetDefault("NOTIFICATION_QUEUE", QueueMemory)
	v.SetDefault("NOTIFICATION_BUFFER", 1024)
	v.SetDefault("NOTIFICATION_WORKERS", 2)

	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		return c, err
	}

	err = v.Unmarshal(&c)
	if err != nil {
		return c, err
	}

	return c, nil
}
