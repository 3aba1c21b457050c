package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures the credential-broker HTTP server
type ServerConfig struct {
	Port int `yaml:"port"`
}

// MongoConfig configures the catalog store connection
type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

// SpeechConfig configures the external speech-and-language service
type SpeechConfig struct {
	URL          string `yaml:"url"`
	Instructions string `yaml:"instructions"`
}

// AuditConfig configures the local voice-event audit store
type AuditConfig struct {
	Path string `yaml:"path"`
}

// Config is the full application configuration
type Config struct {
	Server ServerConfig `yaml:"server"`
	Mongo  MongoConfig  `yaml:"mongo"`
	Speech SpeechConfig `yaml:"speech"`
	Audit  AuditConfig  `yaml:"audit"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Server: ServerConfig{Port: 8080},
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "tabletalk",
		},
		Speech: SpeechConfig{
			URL: "wss://localhost:9090/realtime",
			Instructions: "You are taking a restaurant order. Confirm each item back to the guest, " +
				"ask the required follow-up questions from the menu, and report detected items as structured events.",
		},
		Audit: AuditConfig{Path: "data/voice-audit.db"},
	}
}

// Load reads configuration from an optional yaml file, then applies
// environment overrides. A missing file is not an error; defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// fall through to env overrides
		case err != nil:
			return cfg, fmt.Errorf("read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	applyEnv(&cfg)

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return cfg, fmt.Errorf("invalid server port %d", cfg.Server.Port)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		cfg.Mongo.URI = v
	}
	if v := os.Getenv("MONGO_DATABASE"); v != "" {
		cfg.Mongo.Database = v
	}
	if v := os.Getenv("SPEECH_SERVICE_URL"); v != "" {
		cfg.Speech.URL = v
	}
	if v := os.Getenv("AUDIT_DB_PATH"); v != "" {
		cfg.Audit.Path = v
	}
}
