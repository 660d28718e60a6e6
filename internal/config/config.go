// Package config provides configuration loading and structs for the resumatch server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug       bool              `yaml:"debug"`
	Server      ServerConfig      `yaml:"server"`
	Storage     StorageConfig     `yaml:"storage"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	LLM         LLMConfig         `yaml:"llm"`
	ObjectStore ObjectStoreConfig `yaml:"objectstore"`
	Ingest      IngestConfig      `yaml:"ingest"`
	Search      SearchConfig      `yaml:"search"`
	Watch       WatchConfig       `yaml:"watch"`
	Events      EventsConfig      `yaml:"events"`
}

// WatchConfig holds inbox directory watch settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to false when unset
// so that processed/ or archive/ subfolders next to an inbox are not re-ingested.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return false
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
}

// StorageConfig holds paths of the two persisted artifacts.
type StorageConfig struct {
	StorePath    string `yaml:"store_path"`
	URLIndexPath string `yaml:"url_index_path"`
}

// EmbeddingConfig holds embedder settings.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"` // onnx | mock
	ModelPath  string `yaml:"model_path"`
	ModelName  string `yaml:"model_name"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
	Workers    int    `yaml:"workers"`
}

// LLMConfig holds language-model provider settings.
type LLMConfig struct {
	Provider          string        `yaml:"provider"` // gemini | openai
	BaseURL           string        `yaml:"base_url"`
	Model             string        `yaml:"model"`
	AnswerModel       string        `yaml:"answer_model"`
	APIKeyEnv         string        `yaml:"api_key_env"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
}

// APIKey resolves the API key from the configured environment variable.
func (c *LLMConfig) APIKey() string {
	if c.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.APIKeyEnv)
}

// ObjectStoreConfig holds durable object storage settings.
type ObjectStoreConfig struct {
	Type          string `yaml:"type"` // s3 | disk
	Bucket        string `yaml:"bucket"`
	Region        string `yaml:"region"`
	Endpoint      string `yaml:"endpoint"`
	PublicBaseURL string `yaml:"public_base_url"`
	Prefix        string `yaml:"prefix"`
	Dir           string `yaml:"dir"`
	AccessKeyEnv  string `yaml:"access_key_env"`
	SecretKeyEnv  string `yaml:"secret_key_env"`
	UsePathStyle  bool   `yaml:"use_path_style"`
}

// Credentials resolves the static access key pair from the environment.
// Both values are empty when the env var names are not configured.
func (c *ObjectStoreConfig) Credentials() (accessKey, secretKey string) {
	if c.AccessKeyEnv != "" {
		accessKey = os.Getenv(c.AccessKeyEnv)
	}
	if c.SecretKeyEnv != "" {
		secretKey = os.Getenv(c.SecretKeyEnv)
	}
	return accessKey, secretKey
}

// IngestConfig holds ingestion pipeline settings.
type IngestConfig struct {
	MaxConcurrent int      `yaml:"max_concurrent"`
	MaxFileBytes  int64    `yaml:"max_file_bytes"`
	Extensions    []string `yaml:"extensions"`
}

// SearchConfig holds retrieval settings.
type SearchConfig struct {
	TopK int `yaml:"top_k"`
}

// EventsConfig holds the optional AMQP publisher settings. An empty URL disables events.
type EventsConfig struct {
	AMQPURL    string `yaml:"amqp_url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.StorePath = expandPath(cfg.Storage.StorePath, configDir)
	cfg.Storage.URLIndexPath = expandPath(cfg.Storage.URLIndexPath, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	if cfg.ObjectStore.Dir != "" {
		cfg.ObjectStore.Dir = expandPath(cfg.ObjectStore.Dir, configDir)
	}
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// Save writes the config to path. Used for persisting watch directory add/remove.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
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
