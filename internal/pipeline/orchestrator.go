// Package pipeline wires the evidence pipeline: routing, retrieval,
// fusion, and answer synthesis for one query, plus document ingestion.
package pipeline

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"evidence-rag/internal/answer"
	"evidence-rag/internal/config"
	"evidence-rag/internal/fusion"
	"evidence-rag/internal/models"
	"evidence-rag/internal/router"
)

// DocumentRetriever is the document index collaborator.
type DocumentRetriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]models.DocumentHit, error)
}

// WebSearcher is the web search collaborator.
type WebSearcher interface {
	Search(ctx context.Context, query string, topK int) ([]models.WebHit, error)
}

// SourceStatus reports what happened to one evidence source during a
// query. A failed source degrades to zero evidence rather than failing
// the pipeline.
type SourceStatus struct {
	Requested bool   `json:"requested"`
	Count     int    `json:"count"`
	Failed    bool   `json:"failed"`
	Error     string `json:"error,omitempty"`
}

// QueryResponse is the structured result of one pipeline run.
type QueryResponse struct {
	Decision  models.RoutingDecision `json:"decision"`
	Documents SourceStatus           `json:"documents"`
	Web       SourceStatus           `json:"web"`
	Evidence  []models.Citation      `json:"evidence"`
	Answer    models.AnswerResult    `json:"answer"`
}

// QueryOptions carries per-query context.
type QueryOptions struct {
	HasDocuments bool
	TopK         int
}

// Orchestrator runs queries through route → retrieve → fuse → answer.
// All components are injected; the orchestrator itself holds no mutable
// state and is safe for concurrent queries.
type Orchestrator struct {
	router      *router.Router
	docs        DocumentRetriever
	web         WebSearcher
	fusion      *fusion.Engine
	synthesizer *answer.Synthesizer
	topK        int
}

func NewOrchestrator(r *router.Router, docs DocumentRetriever, web WebSearcher, f *fusion.Engine, s *answer.Synthesizer, topK int) *Orchestrator {
	if topK <= 0 {
		topK = config.DefaultTopK
	}
	return &Orchestrator{
		router:      r,
		docs:        docs,
		web:         web,
		fusion:      f,
		synthesizer: s,
		topK:        topK,
	}
}

// RunQuery executes the pipeline for one query. The two retrieval calls
// are independent and issued concurrently; a failed source is replaced
// by an empty result list so the caller always receives some answer.
func (o *Orchestrator) RunQuery(ctx context.Context, query string, opts QueryOptions) QueryResponse {
	decision := o.router.Decide(query, router.Context{HasDocuments: opts.HasDocuments})

	topK := opts.TopK
	if topK <= 0 {
		topK = o.topK
	}

	var (
		wg        sync.WaitGroup
		docHits   []models.DocumentHit
		webHits   []models.WebHit
		docStatus = SourceStatus{Requested: decision.UseDocuments && o.docs != nil}
		webStatus = SourceStatus{Requested: decision.UseWeb && o.web != nil}
	)

	if docStatus.Requested {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hits, err := o.docs.Retrieve(ctx, query, topK)
			if err != nil {
				log.Warn().Err(err).Msg("Document retrieval failed, continuing without it")
				docStatus.Failed = true
				docStatus.Error = err.Error()
				return
			}
			docHits = hits
			docStatus.Count = len(hits)
		}()
	}

	if webStatus.Requested {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hits, err := o.web.Search(ctx, query, topK)
			if err != nil {
				log.Warn().Err(err).Msg("Web retrieval failed, continuing without it")
				webStatus.Failed = true
				webStatus.Error = err.Error()
				return
			}
			webHits = hits
			webStatus.Count = len(hits)
		}()
	}

	wg.Wait()

	fused := o.fusion.Fuse(docHits, webHits)
	result := o.synthesizer.GenerateAnswer(ctx, fused, query)

	return QueryResponse{
		Decision:  decision,
		Documents: docStatus,
		Web:       webStatus,
		Evidence:  fused.Evidence,
		Answer:    result,
	}
}
