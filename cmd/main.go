package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"evidence-rag/internal/answer"
	"evidence-rag/internal/chromemdb"
	"evidence-rag/internal/chunker"
	"evidence-rag/internal/config"
	"evidence-rag/internal/db"
	"evidence-rag/internal/embedding"
	"evidence-rag/internal/fusion"
	"evidence-rag/internal/helper"
	"evidence-rag/internal/llmservice"
	"evidence-rag/internal/pipeline"
	"evidence-rag/internal/router"
	"evidence-rag/internal/websearch"
)

const (
	configFilePath = "./configs/config.yaml"
	dbPath         = "./storage/chromem"
	collectionName = "evidence"
	inMemory       = false
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	filePath := flag.String("file", "", "Path to a document file to ingest")
	dirPath := flag.String("dir", "", "Path to a directory of documents to ingest")
	query := flag.String("query", "", "Query to be answered")
	topK := flag.Int("top-k", 0, "Number of passages to retrieve per source")
	dryRun := flag.Bool("dry-run", false, "Chunk only, do not embed or index")
	flag.Parse()

	cfg, err := config.LoadConfig(configFilePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	ctx := context.Background()

	switch {
	case *filePath != "":
		ingestFile(ctx, cfg, *filePath, *dryRun)
	case *dirPath != "":
		ingestDirectory(ctx, cfg, *dirPath)
	case *query != "":
		runQuery(ctx, cfg, *query, *topK)
	default:
		log.Fatal().Msg("Please provide a document via -file, a directory via -dir, or a question via -query")
	}
}

func ingestFile(ctx context.Context, cfg *config.Config, filePath string, dryRun bool) {
	if dryRun {
		dryRunChunks(cfg, filePath)
		return
	}

	ingestor, err := buildIngestor(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error building ingestor")
	}

	docID, err := ingestor.IngestFile(ctx, filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error ingesting file")
	}
	log.Info().Str("document_id", docID).Msg("Done")
}

func ingestDirectory(ctx context.Context, cfg *config.Config, dir string) {
	ingestor, err := buildIngestor(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error building ingestor")
	}

	ids, err := ingestor.IngestDirectory(ctx, dir)
	if err != nil {
		log.Fatal().Err(err).Msg("Error ingesting directory")
	}
	log.Info().Int("documents", len(ids)).Msg("Done")
}

// dryRunChunks loads and chunks the file and prints the result without
// touching the embedder or the index.
func dryRunChunks(cfg *config.Config, filePath string) {
	c := chunker.New(cfg.RAG.WordsPerToken)
	ingestor := pipeline.NewIngestor(c, nil, nil, cfg.RAG)
	chunks, err := ingestor.PreviewFile(filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error chunking file")
	}
	log.Info().Int("chunks", len(chunks)).Msg("Chunked document")
	helper.PrettyPrint(chunks)
}

func runQuery(ctx context.Context, cfg *config.Config, query string, topK int) {
	embedder, err := embedding.NewOllamaEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	retriever, hasDocs, err := buildRetriever(ctx, cfg, embedder)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing document retriever")
	}

	orch := pipeline.NewOrchestrator(
		router.New(),
		retriever,
		websearch.New(cfg.WebSearch),
		fusion.New(cfg.Fusion.DocumentWeight, cfg.Fusion.WebWeight),
		answer.New(llmservice.New(&cfg.LLM)),
		cfg.RAG.TopK,
	)

	resp := orch.RunQuery(ctx, query, pipeline.QueryOptions{HasDocuments: hasDocs, TopK: topK})

	log.Info().
		Bool("use_documents", resp.Decision.UseDocuments).
		Bool("use_web", resp.Decision.UseWeb).
		Str("reason", resp.Decision.Reason).
		Msg("Routing decision")

	log.Info().Msg("Query: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", query)

	log.Info().Msg("Answer: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", resp.Answer.Answer)

	log.Info().Msg("Sources: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", resp.Answer.SourcesText)

	if resp.Answer.Degraded {
		log.Warn().Str("reason", resp.Answer.FallbackReason).Msg("Answer produced by fallback")
	}
}

func buildIngestor(cfg *config.Config) (*pipeline.Ingestor, error) {
	embedder, err := embedding.NewOllamaEmbedder(&cfg.EmbedLLM)
	if err != nil {
		return nil, err
	}

	indexer, err := buildIndexer(cfg)
	if err != nil {
		return nil, err
	}

	return pipeline.NewIngestor(chunker.New(cfg.RAG.WordsPerToken), embedder, indexer, cfg.RAG), nil
}

func buildIndexer(cfg *config.Config) (pipeline.Indexer, error) {
	if cfg.Database.Enabled {
		sqldb, err := db.ConnectDB(&cfg.Database)
		if err != nil {
			return nil, err
		}
		database := db.NewDB(sqldb, cfg.Database.Debug)
		if err := db.InitDB(context.Background(), database); err != nil {
			return nil, err
		}
		return db.NewIndexer(database), nil
	}

	if err := os.MkdirAll(dbPath, 0o755); err != nil {
		return nil, err
	}
	return chromemdb.NewStore(dbPath, collectionName, inMemory, cfg.RAG.EncryptionKey)
}

func buildRetriever(ctx context.Context, cfg *config.Config, embedder embeddings.Embedder) (pipeline.DocumentRetriever, bool, error) {
	if cfg.Database.Enabled {
		sqldb, err := db.ConnectDB(&cfg.Database)
		if err != nil {
			return nil, false, err
		}
		database := db.NewDB(sqldb, cfg.Database.Debug)
		count, err := db.CountChunks(ctx, database)
		if err != nil {
			return nil, false, err
		}
		return pipeline.NewDBRetriever(embedder, database), count > 0, nil
	}

	store, err := chromemdb.NewStore(dbPath, collectionName, inMemory, cfg.RAG.EncryptionKey)
	if err != nil {
		return nil, false, err
	}
	retriever := pipeline.NewVectorRetriever(embedder, store)
	return retriever, retriever.HasDocuments(), nil
}
