package pipeline

import (
	"context"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/uptrace/bun"

	"evidence-rag/internal/chromemdb"
	"evidence-rag/internal/db"
	"evidence-rag/internal/models"
)

// VectorRetriever retrieves document passages from the embedded chromem
// index, embedding the query first.
type VectorRetriever struct {
	embedder embeddings.Embedder
	store    *chromemdb.Store
}

func NewVectorRetriever(embedder embeddings.Embedder, store *chromemdb.Store) *VectorRetriever {
	return &VectorRetriever{embedder: embedder, store: store}
}

func (r *VectorRetriever) Retrieve(ctx context.Context, query string, topK int) ([]models.DocumentHit, error) {
	queryEmbedding, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	return r.store.Retrieve(ctx, queryEmbedding, topK)
}

// HasDocuments reports whether anything has been indexed.
func (r *VectorRetriever) HasDocuments() bool {
	return r.store.Count() > 0
}

// DBRetriever retrieves document passages from the Postgres/pgvector
// chunk store.
type DBRetriever struct {
	embedder embeddings.Embedder
	db       *bun.DB
}

func NewDBRetriever(embedder embeddings.Embedder, database *bun.DB) *DBRetriever {
	return &DBRetriever{embedder: embedder, db: database}
}

func (r *DBRetriever) Retrieve(ctx context.Context, query string, topK int) ([]models.DocumentHit, error) {
	queryEmbedding, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	return db.SearchChunks(ctx, r.db, queryEmbedding, topK)
}
