package pipeline

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"evidence-rag/internal/chunker"
	"evidence-rag/internal/config"
	"evidence-rag/internal/embedding"
	"evidence-rag/internal/helper"
	"evidence-rag/internal/models"
	"evidence-rag/internal/parser"
)

// Indexer is the vector index collaborator consumed at ingestion time.
type Indexer interface {
	Index(ctx context.Context, chunks []models.TextChunk, vectors [][]float32) error
}

// Ingestor prepares documents for retrieval: load, chunk, embed, index.
type Ingestor struct {
	chunker  *chunker.Chunker
	embedder embeddings.Embedder
	indexer  Indexer
	cfg      config.RAGConfig
}

func NewIngestor(c *chunker.Chunker, embedder embeddings.Embedder, indexer Indexer, cfg config.RAGConfig) *Ingestor {
	return &Ingestor{chunker: c, embedder: embedder, indexer: indexer, cfg: cfg}
}

// IngestFile loads one file and indexes its chunks. The document ID
// defaults to the file stem. Returns the document ID used.
func (in *Ingestor) IngestFile(ctx context.Context, filePath string) (string, error) {
	doc, err := parser.Load(filePath)
	if err != nil {
		return "", err
	}
	docID := strings.TrimSuffix(doc.Filename, filepath.Ext(doc.Filename))
	if err := in.ingest(ctx, doc.Content, docID, doc.Filename); err != nil {
		return "", err
	}
	log.Info().Str("file", filePath).Str("document_id", docID).Msg("Ingested file")
	return docID, nil
}

// IngestDirectory ingests every supported file directly under dir.
func (in *Ingestor) IngestDirectory(ctx context.Context, dir string) ([]string, error) {
	docs, err := parser.LoadDirectory(dir)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, doc := range docs {
		docID := strings.TrimSuffix(doc.Filename, filepath.Ext(doc.Filename))
		if err := in.ingest(ctx, doc.Content, docID, doc.Filename); err != nil {
			return ids, err
		}
		ids = append(ids, docID)
	}
	log.Info().Str("dir", dir).Int("documents", len(ids)).Msg("Ingested directory")
	return ids, nil
}

// IngestText indexes raw text that did not come from a file, under a
// generated document ID.
func (in *Ingestor) IngestText(ctx context.Context, content, source string) (string, error) {
	docID, err := helper.GenerateUUID()
	if err != nil {
		return "", err
	}
	if err := in.ingest(ctx, content, docID, source); err != nil {
		return "", err
	}
	return docID, nil
}

// PreviewFile loads and chunks a file without embedding or indexing it.
func (in *Ingestor) PreviewFile(filePath string) ([]models.TextChunk, error) {
	doc, err := parser.Load(filePath)
	if err != nil {
		return nil, err
	}
	docID := strings.TrimSuffix(doc.Filename, filepath.Ext(doc.Filename))
	return in.chunker.ChunkFixed(doc.Content, in.cfg.ChunkSize, in.cfg.ChunkOverlap, docID, doc.Filename)
}

func (in *Ingestor) ingest(ctx context.Context, content, docID, source string) error {
	chunks, err := in.chunker.ChunkFixed(content, in.cfg.ChunkSize, in.cfg.ChunkOverlap, docID, source)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		log.Info().Str("document_id", docID).Msg("No chunks generated from content")
		return nil
	}

	vectors, err := embedding.EmbedChunks(ctx, in.embedder, chunks)
	if err != nil {
		return err
	}
	return in.indexer.Index(ctx, chunks, vectors)
}
