package chromemdb

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"evidence-rag/internal/models"
)

const compress = false

// Store encapsulates the chromem-go database operations used by the
// pipeline: indexing text chunks and similarity search over them.
type Store struct {
	db            *chromem.DB
	collection    *chromem.Collection
	dbPath        string
	encryptionKey string
	filePath      string
}

// NewStore initializes a persistent (or in-memory) vector store and
// opens the named collection.
func NewStore(dbPath, collectionName string, inMemory bool, encryptionKey string) (*Store, error) {
	var db *chromem.DB
	var err error
	if inMemory {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(dbPath, compress)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %v", err)
		}
	}

	collection, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %v", err)
	}

	return &Store{
		db:            db,
		collection:    collection,
		dbPath:        dbPath,
		encryptionKey: encryptionKey,
		filePath:      dbPath + "/" + collectionName + ".chromem",
	}, nil
}

// Index adds embedded chunks to the collection. Chunks and embeddings
// must be index-aligned.
func (s *Store) Index(ctx context.Context, chunks []models.TextChunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk/vector count mismatch: %d vs %d", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}

	docs := make([]chromem.Document, 0, len(chunks))
	for i, c := range chunks {
		docs = append(docs, chromem.Document{
			ID:        c.ChunkID,
			Content:   c.Content,
			Metadata:  flattenMetadata(c),
			Embedding: vectors[i],
		})
	}

	log.Info().Int("chunks", len(docs)).Msg("Adding chunks to vector database")
	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %v", err)
	}
	return nil
}

// Retrieve performs a similarity search with a pre-embedded query and
// maps results onto document hits for the fusion engine.
func (s *Store) Retrieve(ctx context.Context, queryEmbedding []float32, topK int) ([]models.DocumentHit, error) {
	if len(queryEmbedding) == 0 {
		return nil, fmt.Errorf("query embedding must be provided")
	}
	if count := s.collection.Count(); count < topK {
		topK = count
	}
	if topK <= 0 {
		return nil, nil
	}

	results, err := s.collection.QueryEmbedding(ctx, queryEmbedding, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %v", err)
	}

	hits := make([]models.DocumentHit, 0, len(results))
	for _, r := range results {
		md := make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			md[k] = v
		}
		hits = append(hits, models.DocumentHit{
			Content:  r.Content,
			Score:    float64(r.Similarity),
			Source:   r.Metadata["source"],
			Metadata: md,
		})
	}
	return hits, nil
}

// Count returns the number of indexed chunks.
func (s *Store) Count() int {
	return s.collection.Count()
}

// DeleteCollection drops the current collection.
func (s *Store) DeleteCollection() error {
	if err := s.db.DeleteCollection(s.collection.Name); err != nil {
		return fmt.Errorf("failed to drop collection: %v", err)
	}
	return nil
}

// Export writes the collection to an encrypted file. Only meaningful for
// in-memory stores.
func (s *Store) Export(ctx context.Context) error {
	if s.encryptionKey == "" {
		return fmt.Errorf("encryption key is required")
	}
	log.Debug().Str("file", s.filePath).Msg("Exporting collection")
	if err := s.db.ExportToFile(s.filePath, compress, s.encryptionKey, s.collection.Name); err != nil {
		return fmt.Errorf("failed to export database: %v", err)
	}
	return nil
}

// Import loads a previously exported collection.
func (s *Store) Import(ctx context.Context) error {
	if err := s.db.ImportFromFile(s.filePath, s.encryptionKey); err != nil {
		return fmt.Errorf("failed to import database: %v", err)
	}
	return nil
}

// flattenMetadata converts chunk metadata to the string map chromem
// stores alongside each document.
func flattenMetadata(c models.TextChunk) map[string]string {
	md := make(map[string]string, len(c.Metadata)+1)
	md["source"] = c.Source
	for k, v := range c.Metadata {
		switch val := v.(type) {
		case string:
			md[k] = val
		case int:
			md[k] = strconv.Itoa(val)
		default:
			md[k] = fmt.Sprintf("%v", val)
		}
	}
	return md
}
