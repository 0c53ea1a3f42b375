package db

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"evidence-rag/internal/config"
	"evidence-rag/internal/models"
)

// ChunkRecord is one indexed text chunk with its embedding, stored in a
// pgvector column.
type ChunkRecord struct {
	bun.BaseModel `bun:"table:chunks,alias:c"`
	ID            int64     `bun:"id,pk,autoincrement"`
	ChunkID       string    `bun:"chunk_id,notnull"`
	DocumentID    string    `bun:"document_id,notnull"`
	Content       string    `bun:"content,notnull"`
	Embedding     []float32 `bun:"embedding,notnull,type:vector(768)"`
	Source        string    `bun:"source"`
	ChunkIndex    int       `bun:"chunk_index"`
	Distance      float64   `bun:"distance,scanonly"`
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	dsn := cfg.URL + "?sslmode=disable"
	return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn), pgdriver.WithPassword(cfg.Key))), nil
}

func InitDB(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*ChunkRecord)(nil)).IfNotExists().Exec(ctx)
	return err
}

// StoreChunks inserts embedded chunks in one batch. Chunks and vectors
// must be index-aligned.
func StoreChunks(ctx context.Context, db *bun.DB, chunks []models.TextChunk, vectors [][]float32) error {
	if len(chunks) == 0 {
		return nil
	}
	records := make([]ChunkRecord, len(chunks))
	for i, c := range chunks {
		idx, _ := c.Metadata["chunk_index"].(int)
		docID, _ := c.Metadata["document_id"].(string)
		records[i] = ChunkRecord{
			ChunkID:    c.ChunkID,
			DocumentID: docID,
			Content:    c.Content,
			Embedding:  vectors[i],
			Source:     c.Source,
			ChunkIndex: idx,
		}
	}
	_, err := db.NewInsert().Model(&records).Exec(ctx)
	return err
}

// SearchChunks runs a nearest-neighbour search over the embedding column
// and maps rows onto document hits. The distance is folded into a
// similarity score in (0,1].
func SearchChunks(ctx context.Context, db *bun.DB, queryEmbedding []float32, limit int) ([]models.DocumentHit, error) {
	var records []ChunkRecord
	err := db.NewSelect().
		Model(&records).
		ColumnExpr("c.*").
		ColumnExpr("embedding <-> ? AS distance", queryEmbedding).
		OrderExpr("embedding <-> ?", queryEmbedding).
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	hits := make([]models.DocumentHit, 0, len(records))
	for _, r := range records {
		hits = append(hits, models.DocumentHit{
			Content: r.Content,
			Score:   1.0 / (1.0 + r.Distance),
			Source:  r.Source,
			Metadata: map[string]any{
				"document_id": r.DocumentID,
				"chunk_id":    r.ChunkID,
				"chunk_index": r.ChunkIndex,
				"source":      r.Source,
			},
		})
	}
	return hits, nil
}

// CountChunks returns the number of stored chunks.
func CountChunks(ctx context.Context, db *bun.DB) (int, error) {
	return db.NewSelect().Model((*ChunkRecord)(nil)).Count(ctx)
}

// Indexer adapts the chunk store to the ingestion pipeline.
type Indexer struct {
	db *bun.DB
}

func NewIndexer(database *bun.DB) *Indexer {
	return &Indexer{db: database}
}

func (i *Indexer) Index(ctx context.Context, chunks []models.TextChunk, vectors [][]float32) error {
	return StoreChunks(ctx, i.db, chunks, vectors)
}

// DropChunks drops the chunks table.
func DropChunks(ctx context.Context, db *bun.DB) error {
	_, err := db.NewDropTable().Model((*ChunkRecord)(nil)).IfExists().Exec(ctx)
	return err
}
