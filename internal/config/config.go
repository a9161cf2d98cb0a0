package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ServerPort       string        `mapstructure:"SERVER_PORT"`
	RedisAddr        string        `mapstructure:"REDIS_ADDR"`
	RedisPassword    string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB          int           `mapstructure:"REDIS_DB"`
	SessionSecret    string        `mapstructure:"SESSION_SECRET"`
	MapZoom          int           `mapstructure:"MAP_ZOOM"`
	SessionIdleTTL   time.Duration `mapstructure:"SESSION_IDLE_TTL"`
	CORSAllowOrigins string        `mapstructure:"CORS_ALLOW_ORIGINS"`
	MaxSessions      int           `mapstructure:"MAX_SESSIONS"`
	SessionCreateMax int           `mapstructure:"SESSION_CREATE_PER_MINUTE"`
}

func Load() Config {
	viper.AutomaticEnv()
	viper.SetDefault("SERVER_PORT", ":8080")
	// empty address runs without Redis fan-out
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("SESSION_SECRET", "dev-secret-change-me")
	viper.SetDefault("MAP_ZOOM", 13)
	viper.SetDefault("SESSION_IDLE_TTL", "2h")
	viper.SetDefault("CORS_ALLOW_ORIGINS", "*")
	viper.SetDefault("MAX_SESSIONS", 10000)
	// per client IP; zero disables the limiter
	viper.SetDefault("SESSION_CREATE_PER_MINUTE", 30)

	var cfg Config
	_ = viper.Unmarshal(&cfg)
	return cfg
}
