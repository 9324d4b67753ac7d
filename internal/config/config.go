// Package config loads the service configuration from config.yaml and APP_*
// environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/OpenClique85/openclique-sub010/internal/dispatch"
	"github.com/OpenClique85/openclique-sub010/internal/opsstream"
	"github.com/OpenClique85/openclique-sub010/internal/repository"

	"github.com/spf13/viper"
)

const (
	DefaultPath  = "./"
	configName   = "config"
	configFormat = "yaml"
	envPrefix    = "APP"
)

type Config struct {
	Database repository.Config `mapstructure:"database"`
	Server   ServerConfig      `mapstructure:"server"`

	TelegramAuth  TelegramAuthConfig  `mapstructure:"telegramAuth"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Dispatch      dispatch.Config     `mapstructure:"dispatch"`

	LogLevel string `mapstructure:"logLevel"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

type TelegramAuthConfig struct {
	TelegramBotToken string `mapstructure:"telegramBotToken"`
	// DebugMode skips init data signature checks. Never enable in production.
	DebugMode bool `mapstructure:"debugMode"`
}

type RedisConfig struct {
	Enabled          bool `mapstructure:"enabled"`
	opsstream.Config `mapstructure:",squash"`
}

type NotificationsConfig struct {
	// TelegramChatID is the ops chat lifecycle notifications are mirrored
	// to. Zero disables the relay.
	TelegramChatID int64 `mapstructure:"telegramChatID"`
	WebSocket      bool  `mapstructure:"webSocket"`
}

// Load reads config.yaml from dir. Every key can be overridden by an
// environment variable such as APP_DATABASE_HOST.
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(configName)
	v.AddConfigPath(dir)
	v.SetConfigType(configFormat)

	v.AutomaticEnv()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8888")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.stream", "openclique:ops_events")
	v.SetDefault("redis.maxLen", 10000)
	v.SetDefault("notifications.webSocket", true)
	v.SetDefault("dispatch.concurrency", 4)
	v.SetDefault("logLevel", "info")
}
