package config

import (
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env      string         `yaml:"env" env-default:"prod"`
	Listen   ListenConfig   `yaml:"listen"`
	Provider ProviderConfig `yaml:"provider"`
	Sampling SamplingConfig `yaml:"sampling"`
	Display  DisplayConfig  `yaml:"display"`
	Journal  JournalConfig  `yaml:"journal"`
	Log      LogConfig      `yaml:"log"`
}

// ListenConfig describes the delivery front end. Immutable after startup.
type ListenConfig struct {
	Host         string    `yaml:"host" env-default:"0.0.0.0"`
	Port         int       `yaml:"port" env-default:"8000"`
	TLS          TLSConfig `yaml:"tls"`
	OpenFirewall bool      `yaml:"open_firewall" env-default:"false"`
}

// TLSConfig enables the secure listener when Port is set. Mode decides what
// happens when secure startup fails: "require" makes it fatal, "prefer"
// degrades to plain-only serving.
type TLSConfig struct {
	Port     int    `yaml:"port"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
	Mode     string `yaml:"mode" env-default:"require"`
}

func (t TLSConfig) Enabled() bool {
	return t.Port > 0
}

func (t TLSConfig) BestEffort() bool {
	return t.Mode == "prefer"
}

type ProviderConfig struct {
	Adapter string        `yaml:"adapter" env-default:"lhm"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout" env-default:"10s"`
}

type SamplingConfig struct {
	// Timeout bounds each provider call so a hung sensor read cannot stall
	// future cycles.
	Timeout time.Duration `yaml:"timeout" env-default:"5s"`
}

type DisplayConfig struct {
	Path string `yaml:"path" env-default:"config/display.yaml"`
}

type JournalConfig struct {
	Enabled bool          `yaml:"enabled" env-default:"true"`
	Path    string        `yaml:"path" env-default:"/var/lib/hwmon/journal.db"`
	MaxAge  time.Duration `yaml:"max_age" env-default:"24h"`
}

type LogConfig struct {
	Level  string `yaml:"level" env-default:"info"`
	Format string `yaml:"format" env-default:"json"`
}

func MustLoad(configPath string) *Config {
	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}

	if configPath == "" {
		configPath = "config/config.yaml"
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file not found: " + configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("failed to read config: " + err.Error())
	}

	return &cfg
}
