// Package fusion merges ranked evidence from the document index and the
// web search provider into one deduplicated, confidence-ranked list.
package fusion

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"evidence-rag/internal/config"
	"evidence-rag/internal/models"
)

// Default raw scores applied when a hit carries none.
const (
	DefaultDocumentScore = 0.6
	DefaultWebScore      = 0.5
)

const promptCitationLimit = 10

// Engine fuses retrieval results. The priority weights are fixed at
// construction; documents are weighted above web to reflect higher trust
// in curated internal content. Safe for concurrent use.
type Engine struct {
	documentWeight float64
	webWeight      float64
}

// New creates an Engine. Weights <= 0 fall back to the defaults.
func New(documentWeight, webWeight float64) *Engine {
	if documentWeight <= 0 {
		documentWeight = config.DefaultDocumentWeight
	}
	if webWeight <= 0 {
		webWeight = config.DefaultWebWeight
	}
	return &Engine{documentWeight: documentWeight, webWeight: webWeight}
}

// Fuse merges document and web hits into a ranked citation list plus a
// synthesis prompt. Document hits are processed first so that they win
// ties against duplicate web snippets. Empty or nil inputs yield empty
// evidence, never an error.
func (e *Engine) Fuse(docHits []models.DocumentHit, webHits []models.WebHit) models.FusedEvidence {
	var merged []models.Citation
	seen := make(map[string]struct{})

	for _, d := range docHits {
		snippet := normalizeSnippet(d.Content)
		key := dedupKey(snippet)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		score := d.Score
		if score <= 0 {
			score = DefaultDocumentScore
		}
		merged = append(merged, models.Citation{
			Claim:      snippet,
			SourceType: models.SourceTypeDocument,
			Source:     documentSource(d),
			URL:        metadataString(d.Metadata, "original_path"),
			Confidence: clamp(score * e.documentWeight),
		})
	}

	for _, w := range webHits {
		snippet := normalizeSnippet(w.Snippet)
		if snippet == "" {
			snippet = normalizeSnippet(w.Title)
		}
		key := dedupKey(snippet)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		score := w.Confidence
		if score <= 0 {
			score = DefaultWebScore
		}
		source := w.Title
		if source == "" {
			source = w.URL
		}
		merged = append(merged, models.Citation{
			Claim:      snippet,
			SourceType: models.SourceTypeWeb,
			Source:     source,
			URL:        w.URL,
			Confidence: clamp(score * e.webWeight),
		})
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Confidence > merged[j].Confidence
	})

	log.Debug().
		Int("document_hits", len(docHits)).
		Int("web_hits", len(webHits)).
		Int("evidence", len(merged)).
		Msg("Fused evidence")

	return models.FusedEvidence{
		Evidence:      merged,
		SummaryPrompt: buildSummaryPrompt(merged),
	}
}

// normalizeSnippet collapses whitespace runs, trims, and caps the length.
func normalizeSnippet(text string) string {
	s := strings.Join(strings.Fields(text), " ")
	if len(s) > models.SnippetMaxChars {
		s = s[:models.SnippetMaxChars]
	}
	return s
}

func dedupKey(snippet string) string {
	if len(snippet) > models.DedupKeyChars {
		return snippet[:models.DedupKeyChars]
	}
	return snippet
}

func documentSource(d models.DocumentHit) string {
	if d.Source != "" {
		return d.Source
	}
	if s := metadataString(d.Metadata, "source"); s != "" {
		return s
	}
	return "internal"
}

func metadataString(md map[string]any, key string) string {
	if md == nil {
		return ""
	}
	if v, ok := md[key].(string); ok {
		return v
	}
	return ""
}

func clamp(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	if v < 0 {
		return 0
	}
	return v
}

func buildSummaryPrompt(citations []models.Citation) string {
	lines := []string{models.FusionPromptHeader}
	for i, c := range citations {
		if i == promptCitationLimit {
			break
		}
		claim := c.Claim
		if len(claim) > models.PromptClaimChars {
			claim = claim[:models.PromptClaimChars]
		}
		lines = append(lines, fmt.Sprintf("[%d] (%s) %s -- source: %s", i+1, c.SourceType, claim, c.Source))
	}
	lines = append(lines, "\n"+models.FusionPromptFooter)
	return strings.Join(lines, "\n")
}
