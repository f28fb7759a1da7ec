// Package config provides configuration loading for the redakt service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the service.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	AI      AIConfig      `yaml:"ai"`
	Chunker ChunkerConfig `yaml:"chunker"`
	Watch   WatchConfig   `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig holds the data directory. The vector store and the
// audit database both live under it.
type StorageConfig struct {
	DataDir  string `yaml:"data_dir"`
	InMemory bool   `yaml:"in_memory"`
}

// AIConfig holds settings for the OpenAI-compatible model services.
type AIConfig struct {
	EmbeddingHost     string `yaml:"embedding_host"`
	ChatHost          string `yaml:"chat_host"`
	EmbeddingModel    string `yaml:"embedding_model"`
	RecognizerModel   string `yaml:"recognizer_model"`
	GeneratorModel    string `yaml:"generator_model"`
	DisableRecognizer bool   `yaml:"disable_recognizer"`
}

// ChunkerConfig holds chunk sizing, in characters.
type ChunkerConfig struct {
	TargetSize  int `yaml:"target_size"`
	OverlapSize int `yaml:"overlap_size"`
}

// WatchConfig holds drop-directory ingestion settings.
type WatchConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Directory string `yaml:"directory"`
}

// Load reads and parses the config file at path, expands paths relative
// to the config file, and applies defaults. An empty path returns the
// default configuration.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	ApplyDefaults(&cfg)

	configDir := "."
	if path != "" {
		configDir = filepath.Dir(path)
	}
	cfg.Storage.DataDir = expandPath(cfg.Storage.DataDir, configDir)
	if cfg.Watch.Directory != "" {
		cfg.Watch.Directory = expandPath(cfg.Watch.Directory, configDir)
	}

	return &cfg, nil
}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8311
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "./data"
	}
	if cfg.AI.EmbeddingHost == "" {
		cfg.AI.EmbeddingHost = "http://localhost:11434/v1"
	}
	if cfg.AI.ChatHost == "" {
		cfg.AI.ChatHost = cfg.AI.EmbeddingHost
	}
	if cfg.AI.EmbeddingModel == "" {
		cfg.AI.EmbeddingModel = "nomic-embed-text"
	}
	if cfg.AI.RecognizerModel == "" {
		cfg.AI.RecognizerModel = "qwen2.5:3b"
	}
	if cfg.AI.GeneratorModel == "" {
		cfg.AI.GeneratorModel = "mistral-nemo:12b-instruct-2407-q4_K_M"
	}
	if cfg.Chunker.TargetSize == 0 {
		cfg.Chunker.TargetSize = 500
	}
	if cfg.Chunker.OverlapSize == 0 {
		cfg.Chunker.OverlapSize = 50
	}
	if cfg.Watch.Directory == "" {
		cfg.Watch.Directory = "./inbox"
	}
}

// expandPath converts a path to absolute. Paths starting with "./" are
// relative to configDir; other relative paths are relative to the home
// directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
