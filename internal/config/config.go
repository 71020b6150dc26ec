package config

import "time"

type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Export  ExportConfig  `mapstructure:"export"`
	Chrome  ChromeConfig  `mapstructure:"chrome"`
	Log     LogConfig     `mapstructure:"log"`
	Session SessionConfig `mapstructure:"session"`
}

type AppConfig struct {
	Environment string `mapstructure:"environment"`
}

// Development reports whether programming errors should panic.
func (a AppConfig) Development() bool {
	return a.Environment == "" || a.Environment == "development"
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type StorageConfig struct {
	Dir   string `mapstructure:"dir"`
	Key   string `mapstructure:"key"`
	Watch bool   `mapstructure:"watch"`
}

type ExportConfig struct {
	BaseName string        `mapstructure:"base_name"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Scale    float64       `mapstructure:"scale"`
	History  int           `mapstructure:"history"`
}

type ChromeConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type SessionConfig struct {
	DisplayName string `mapstructure:"display_name"`
	Email       string `mapstructure:"email"`
}
