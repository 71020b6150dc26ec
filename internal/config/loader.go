package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads config.yaml (if any), a .env file (if any) and the environment.
// Environment variables win: storage.dir is STORAGE_DIR.
func Load(paths ...string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"./configs", "."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Chrome.Path == "" {
		cfg.Chrome.Path = os.Getenv("CHROME_PATH")
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.environment", "development")
	v.SetDefault("server.port", "3000")
	v.SetDefault("storage.dir", defaultDataDir())
	v.SetDefault("storage.key", "data")
	v.SetDefault("storage.watch", true)
	v.SetDefault("export.base_name", "cvalley")
	v.SetDefault("export.timeout", 60*time.Second)
	v.SetDefault("export.scale", 2.0)
	v.SetDefault("export.history", 50)
	v.SetDefault("chrome.path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "")
	v.SetDefault("session.display_name", "")
	v.SetDefault("session.email", "")
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "cvalley")
	}
	return filepath.Join(".", "resume-data")
}

func loadEnvFile() {
	for _, path := range []string{".env", "../.env", "../../.env"} {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func validateConfig(cfg *Config) error {
	switch cfg.App.Environment {
	case "development", "production":
	default:
		return fmt.Errorf("app.environment must be development or production, got %q", cfg.App.Environment)
	}
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Storage.Dir == "" {
		return errors.New("storage.dir is required")
	}
	if cfg.Storage.Key == "" || strings.ContainsAny(cfg.Storage.Key, `/\`) {
		return fmt.Errorf("storage.key %q must be a plain slot name", cfg.Storage.Key)
	}
	if strings.TrimSpace(cfg.Export.BaseName) == "" {
		return errors.New("export.base_name is required")
	}
	if cfg.Export.Timeout <= 0 {
		return errors.New("export.timeout must be positive")
	}
	if cfg.Export.Scale <= 0 {
		return errors.New("export.scale must be positive")
	}
	switch cfg.Log.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", cfg.Log.Format)
	}
	if cfg.Export.History < 1 {
		return errors.New("export.history must be at least 1")
	}
	return nil
}
