package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Named defaults for the tunable pipeline settings. The words-per-token
// ratio and fusion weights are empirical values carried over from tuning;
// override them in the config file rather than editing these.
const (
	DefaultChunkSize      = 1024
	DefaultChunkOverlap   = 200
	DefaultTopK           = 5
	DefaultWordsPerToken  = 1.3
	DefaultDocumentWeight = 1.2
	DefaultWebWeight      = 1.0
)

type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	Key     string `yaml:"key"`
	Model   string `yaml:"model"`
}

type DatabaseConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Key     string `yaml:"key"`
	Debug   bool   `yaml:"debug"`
}

type RAGConfig struct {
	ChunkSize     int     `yaml:"chunk_size"`
	ChunkOverlap  int     `yaml:"chunk_overlap"`
	TopK          int     `yaml:"top_k"`
	WordsPerToken float64 `yaml:"words_per_token"`
	EncryptionKey string  `yaml:"encryption_key"`
}

type FusionConfig struct {
	DocumentWeight float64 `yaml:"document_weight"`
	WebWeight      float64 `yaml:"web_weight"`
}

type WebSearchConfig struct {
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
}

type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	EmbedLLM  LLMConfig       `yaml:"embed_llm"`
	Database  DatabaseConfig  `yaml:"database"`
	RAG       RAGConfig       `yaml:"rag"`
	Fusion    FusionConfig    `yaml:"fusion"`
	WebSearch WebSearchConfig `yaml:"web_search"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills unset numeric settings with the named defaults.
func (c *Config) ApplyDefaults() {
	if c.RAG.ChunkSize == 0 {
		c.RAG.ChunkSize = DefaultChunkSize
	}
	if c.RAG.ChunkOverlap == 0 {
		c.RAG.ChunkOverlap = DefaultChunkOverlap
	}
	if c.RAG.TopK == 0 {
		c.RAG.TopK = DefaultTopK
	}
	if c.RAG.WordsPerToken == 0 {
		c.RAG.WordsPerToken = DefaultWordsPerToken
	}
	if c.Fusion.DocumentWeight == 0 {
		c.Fusion.DocumentWeight = DefaultDocumentWeight
	}
	if c.Fusion.WebWeight == 0 {
		c.Fusion.WebWeight = DefaultWebWeight
	}
}
