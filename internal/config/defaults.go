package config

import "time"

// DefaultMaxConcurrent is the ingestion admission gate capacity.
const DefaultMaxConcurrent = 10

// DefaultTopK is the number of chunks retrieved per query.
const DefaultTopK = 15

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 5 * time.Minute
	}
	if cfg.Server.MaxUploadBytes == 0 {
		cfg.Server.MaxUploadBytes = 64 << 20
	}
	if cfg.Storage.StorePath == "" {
		cfg.Storage.StorePath = "/usr/local/var/resumatch/data/processed_resume_data.json"
	}
	if cfg.Storage.URLIndexPath == "" {
		cfg.Storage.URLIndexPath = "/usr/local/var/resumatch/data/resume_url_map.json"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "onnx"
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "/usr/local/var/resumatch/data/models/all-MiniLM-L6-v2.onnx"
	}
	if cfg.Embedding.ModelName == "" {
		cfg.Embedding.ModelName = "all-MiniLM-L6-v2"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "gemini"
	}
	if cfg.LLM.Model == "" {
		switch cfg.LLM.Provider {
		case "openai":
			cfg.LLM.Model = "gpt-4o-mini"
		default:
			cfg.LLM.Model = "gemini-2.5-flash"
		}
	}
	if cfg.LLM.AnswerModel == "" {
		cfg.LLM.AnswerModel = cfg.LLM.Model
	}
	if cfg.LLM.APIKeyEnv == "" {
		switch cfg.LLM.Provider {
		case "openai":
			cfg.LLM.APIKeyEnv = "OPENAI_API_KEY"
		default:
			cfg.LLM.APIKeyEnv = "GOOGLE_API_KEY"
		}
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 2 * time.Minute
	}
	if cfg.ObjectStore.Type == "" {
		cfg.ObjectStore.Type = "disk"
	}
	if cfg.ObjectStore.Prefix == "" {
		cfg.ObjectStore.Prefix = "resumes"
	}
	if cfg.ObjectStore.Type == "disk" && cfg.ObjectStore.Dir == "" {
		cfg.ObjectStore.Dir = "/usr/local/var/resumatch/data/files"
	}
	if cfg.ObjectStore.Region == "" {
		cfg.ObjectStore.Region = "auto"
	}
	if cfg.ObjectStore.AccessKeyEnv == "" {
		cfg.ObjectStore.AccessKeyEnv = "R2_ACCESS_KEY"
	}
	if cfg.ObjectStore.SecretKeyEnv == "" {
		cfg.ObjectStore.SecretKeyEnv = "R2_SECRET_KEY"
	}
	if cfg.Ingest.MaxConcurrent == 0 {
		cfg.Ingest.MaxConcurrent = DefaultMaxConcurrent
	}
	if cfg.Ingest.MaxFileBytes == 0 {
		cfg.Ingest.MaxFileBytes = 20 << 20
	}
	if cfg.Ingest.Extensions == nil {
		cfg.Ingest.Extensions = []string{".pdf", ".docx", ".txt", ".md", ".odt", ".rtf"}
	}
	if cfg.Search.TopK == 0 {
		cfg.Search.TopK = DefaultTopK
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = cfg.Ingest.Extensions
	}
	if cfg.Events.Exchange == "" {
		cfg.Events.Exchange = "resumatch.ingest"
	}
	if cfg.Events.RoutingKey == "" {
		cfg.Events.RoutingKey = "batch.completed"
	}
}
