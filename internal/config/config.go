package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	JWTSecret   string `mapstructure:"JWT_SECRET"`
	FrontendURL string `mapstructure:"FRONTEND_URL"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	// Chat policy knobs.
	// ChatDeleteSummary controls whether purging a conversation also
	// removes its summary row, or leaves the conversation discoverable.
	ChatDeleteSummary bool `mapstructure:"CHAT_DELETE_SUMMARY"`
	// ChatPendingTimeout is how long an unconfirmed message may sit in
	// the optimistic buffer before it is offered for retry/discard.
	ChatPendingTimeout time.Duration `mapstructure:"CHAT_PENDING_TIMEOUT"`
}

var AppConfig *Config

func LoadConfig() {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.SetDefault("CHAT_DELETE_SUMMARY", false)
	viper.SetDefault("CHAT_PENDING_TIMEOUT", 30*time.Second)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Unable to decode config: %v", err)
	}
}
