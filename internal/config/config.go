package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode           string        `mapstructure:"mode"`
	DataDir        string        `mapstructure:"data_dir"`
	ServerURL      string        `mapstructure:"server_url"`
	StatusInterval time.Duration `mapstructure:"status_interval"`
	DiagPort       int           `mapstructure:"diag_port"`
	MPVSocket      string        `mapstructure:"mpv_socket"`
	PairInterval   time.Duration `mapstructure:"pair_interval"`
	DiscoverWait   time.Duration `mapstructure:"discover_wait"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("server_url", "")
	v.SetDefault("status_interval", "1s")
	v.SetDefault("diag_port", 8090)
	v.SetDefault("mpv_socket", "/tmp/mpv-player.sock")
	v.SetDefault("pair_interval", "2s")
	v.SetDefault("discover_wait", "5s")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}
	return home + "/.openkara-player"
}
