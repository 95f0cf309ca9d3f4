// Package config loads runtime settings from the environment and batch
// definitions from YAML files.
package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "PETROVRP"

// Store backends.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StorePostgres = "postgres"
)

// Settings are the process-level knobs shared by the CLI and the API server.
type Settings struct {
	Store         string
	OutputDir     string
	DatabaseURL   string
	RedisURL      string
	Port          string
	LogLevel      string
	Parallelism   int
	RateLimit     float64
	RateBurst     int
	WebhookURLs   []string
	WebhookSecret string
	AuthMode      string
	AuthSecret    string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store", StoreMemory)
	v.SetDefault("output_dir", "instances")
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("parallelism", 4)
	v.SetDefault("rate_limit", 5.0)
	v.SetDefault("rate_burst", 10)
	// bound so AutomaticEnv picks them up through Get
	v.SetDefault("database_url", "")
	v.SetDefault("redis_url", "")
	v.SetDefault("webhook_urls", "")
	v.SetDefault("webhook_secret", "")
	v.SetDefault("auth_mode", "none")
	v.SetDefault("auth_hmac_secret", "")
}

// LoadSettings reads .env (when present) and PETROVRP_* variables.
// loadedEnv reports whether a .env file was found.
func LoadSettings() (s Settings, loadedEnv bool, err error) {
	loadedEnv = godotenv.Load() == nil
	s, err = settingsFrom(newViper())
	return s, loadedEnv, err
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func settingsFrom(v *viper.Viper) (Settings, error) {
	s := Settings{
		Store:         strings.ToLower(v.GetString("store")),
		OutputDir:     v.GetString("output_dir"),
		DatabaseURL:   v.GetString("database_url"),
		RedisURL:      v.GetString("redis_url"),
		Port:          v.GetString("port"),
		LogLevel:      v.GetString("log_level"),
		Parallelism:   v.GetInt("parallelism"),
		RateLimit:     v.GetFloat64("rate_limit"),
		RateBurst:     v.GetInt("rate_burst"),
		WebhookURLs:   splitList(v.GetString("webhook_urls")),
		WebhookSecret: v.GetString("webhook_secret"),
		AuthMode:      strings.ToLower(v.GetString("auth_mode")),
		AuthSecret:    v.GetString("auth_hmac_secret"),
	}
	switch s.Store {
	case StoreMemory, StoreFile:
	case StorePostgres:
		if s.DatabaseURL == "" {
			return s, fmt.Errorf("config: %s_STORE=postgres requires %s_DATABASE_URL", envPrefix, envPrefix)
		}
	default:
		return s, fmt.Errorf("config: unknown store %q", s.Store)
	}
	if s.Parallelism < 1 {
		s.Parallelism = 1
	}
	return s, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
