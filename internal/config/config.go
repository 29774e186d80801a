// Copyright (c) 2025, the TradeLite contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the main configuration structure
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Cache    CacheConfig    `toml:"cache"`
	Database DatabaseConfig `toml:"database"`
	Supabase SupabaseConfig `toml:"supabase"`
	AI       AIConfig       `toml:"ai"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	ListenAddr  string   `toml:"listen_addr" env:"TRADELITE__LISTEN_ADDR"`
	CORSOrigins []string `toml:"cors_origins" env:"TRADELITE__CORS_ORIGINS"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type  string      `toml:"type" env:"CACHE_TYPE"`
	Redis RedisConfig `toml:"redis"`
}

// RedisConfig holds Redis-specific configuration
type RedisConfig struct {
	URL  string `toml:"url" env:"REDIS_URL"`
	Host string `toml:"host" env:"REDIS_HOST"`
	Port int    `toml:"port" env:"REDIS_PORT"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Type     string `toml:"type" env:"TRADELITE__DB_TYPE"`
	Path     string `toml:"path" env:"TRADELITE__DB_PATH"`
	Host     string `toml:"host" env:"TRADELITE__DB_HOST"`
	Port     int    `toml:"port" env:"TRADELITE__DB_PORT"`
	User     string `toml:"user" env:"TRADELITE__DB_USER"`
	Password string `toml:"password" env:"TRADELITE__DB_PASSWORD"`
	Name     string `toml:"name" env:"TRADELITE__DB_NAME"`
}

// SupabaseConfig holds Supabase auth delegation settings. When both URL and
// Key are set, authentication is delegated to the Supabase GoTrue API;
// otherwise built-in authentication is used.
type SupabaseConfig struct {
	URL string `toml:"url" env:"SUPABASE_URL"`
	Key string `toml:"key" env:"SUPABASE_KEY"`
}

// AIConfig holds API keys for the feedback provider chain. Either key may be
// empty; the template fallback needs no credentials.
type AIConfig struct {
	DeepSeekAPIKey string `toml:"deepseek_api_key" env:"DEEPSEEK_API_KEY"`
	OpenAIAPIKey   string `toml:"openai_api_key" env:"OPENAI_API_KEY"`
}

// defaultCORSOrigins are the frontend origins allowed when none are configured.
var defaultCORSOrigins = []string{
	"http://localhost:3000",
	"https://tradelite.vercel.app",
	"https://tradelite-pro.vercel.app",
}

// New returns a configuration populated with defaults and environment
// overrides, without reading a config file.
func New() *Config {
	config := &Config{
		Server: ServerConfig{
			ListenAddr: "0.0.0.0:8000",
		},
		Database: DatabaseConfig{
			Type: "sqlite",
			Path: "./data/tradelite.db",
		},
	}
	loadEnvOverrides(config)
	applyDefaults(config)
	return config
}

// LoadConfig loads the configuration from a TOML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config := &Config{}
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error decoding config file: %w", err)
	}

	// Override with environment variables if they exist
	loadEnvOverrides(config)
	applyDefaults(config)

	return config, nil
}

// HasRequiredEnvVars reports whether enough configuration is present in the
// environment to run without a config file.
func HasRequiredEnvVars() bool {
	return os.Getenv("TRADELITE__LISTEN_ADDR") != ""
}

func applyDefaults(config *Config) {
	if config.Server.ListenAddr == "" {
		config.Server.ListenAddr = "0.0.0.0:8000"
	}
	if len(config.Server.CORSOrigins) == 0 {
		config.Server.CORSOrigins = defaultCORSOrigins
	}
	if config.Database.Type == "" {
		config.Database.Type = "sqlite"
	}
	if config.Database.Type == "sqlite" && config.Database.Path == "" {
		config.Database.Path = "./data/tradelite.db"
	}
}

// loadEnvOverrides checks for environment variables and overrides config values
func loadEnvOverrides(config *Config) {
	// Server
	if env := os.Getenv("TRADELITE__LISTEN_ADDR"); env != "" {
		config.Server.ListenAddr = env
	}
	if env := os.Getenv("TRADELITE__CORS_ORIGINS"); env != "" {
		origins := strings.Split(env, ",")
		config.Server.CORSOrigins = config.Server.CORSOrigins[:0]
		for _, o := range origins {
			if o = strings.TrimSpace(o); o != "" {
				config.Server.CORSOrigins = append(config.Server.CORSOrigins, o)
			}
		}
	}

	// Cache
	if env := os.Getenv("CACHE_TYPE"); env != "" {
		config.Cache.Type = env
	}
	if env := os.Getenv("REDIS_URL"); env != "" {
		config.Cache.Redis.URL = env
	}
	if env := os.Getenv("REDIS_HOST"); env != "" {
		config.Cache.Redis.Host = env
	}
	if env := os.Getenv("REDIS_PORT"); env != "" {
		if port, err := strconv.Atoi(env); err == nil {
			config.Cache.Redis.Port = port
		}
	}

	// Database
	if env := os.Getenv("TRADELITE__DB_TYPE"); env != "" {
		config.Database.Type = env
	}
	if env := os.Getenv("TRADELITE__DB_PATH"); env != "" {
		config.Database.Path = env
	}
	if env := os.Getenv("TRADELITE__DB_HOST"); env != "" {
		config.Database.Host = env
	}
	if env := os.Getenv("TRADELITE__DB_PORT"); env != "" {
		if port, err := strconv.Atoi(env); err == nil {
			config.Database.Port = port
		}
	}
	if env := os.Getenv("TRADELITE__DB_USER"); env != "" {
		config.Database.User = env
	}
	if env := os.Getenv("TRADELITE__DB_PASSWORD"); env != "" {
		config.Database.Password = env
	}
	if env := os.Getenv("TRADELITE__DB_NAME"); env != "" {
		config.Database.Name = env
	}

	// Supabase
	if env := os.Getenv("SUPABASE_URL"); env != "" {
		config.Supabase.URL = env
	}
	if env := os.Getenv("SUPABASE_KEY"); env != "" {
		config.Supabase.Key = env
	}

	// AI providers
	if env := os.Getenv("DEEPSEEK_API_KEY"); env != "" {
		config.AI.DeepSeekAPIKey = env
	}
	if env := os.Getenv("OPENAI_API_KEY"); env != "" {
		config.AI.OpenAIAPIKey = env
	}
}
