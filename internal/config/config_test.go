package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	yaml := `
llm:
  base_url: https://openrouter.ai/api
  key: Bearer test
  model: test-model
embed_llm:
  base_url: http://localhost:11434
  model: nomic-embed-text
rag:
  chunk_size: 512
  chunk_overlap: 64
fusion:
  document_weight: 1.5
web_search:
  provider: serpapi
  api_key: abc
`
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LLM.Model != "test-model" {
		t.Errorf("unexpected llm model %q", cfg.LLM.Model)
	}
	if cfg.RAG.ChunkSize != 512 || cfg.RAG.ChunkOverlap != 64 {
		t.Errorf("unexpected rag settings %+v", cfg.RAG)
	}
	if cfg.Fusion.DocumentWeight != 1.5 {
		t.Errorf("expected overridden document weight, got %f", cfg.Fusion.DocumentWeight)
	}
	if cfg.WebSearch.APIKey != "abc" {
		t.Errorf("unexpected web search key %q", cfg.WebSearch.APIKey)
	}
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("llm:\n  model: m\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RAG.ChunkSize != DefaultChunkSize {
		t.Errorf("expected default chunk size, got %d", cfg.RAG.ChunkSize)
	}
	if cfg.RAG.ChunkOverlap != DefaultChunkOverlap {
		t.Errorf("expected default overlap, got %d", cfg.RAG.ChunkOverlap)
	}
	if cfg.RAG.WordsPerToken != DefaultWordsPerToken {
		t.Errorf("expected default words-per-token, got %f", cfg.RAG.WordsPerToken)
	}
	if cfg.Fusion.DocumentWeight != DefaultDocumentWeight || cfg.Fusion.WebWeight != DefaultWebWeight {
		t.Errorf("expected default fusion weights, got %+v", cfg.Fusion)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
