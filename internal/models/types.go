package models

// SourceType identifies where a piece of evidence came from.
type SourceType string

const (
	SourceTypeDocument SourceType = "document"
	SourceTypeWeb      SourceType = "web"
)

// TextChunk is a bounded span of a document produced at ingestion time.
// Chunks from one pass over one document carry contiguous indices from 0
// and never have empty content.
type TextChunk struct {
	Content  string
	ChunkID  string
	Source   string
	Metadata map[string]any
}

// RoutingDecision is the router's verdict on which evidence sources to
// consult for a query. Reason is human-readable and never parsed.
type RoutingDecision struct {
	UseDocuments bool   `json:"use_documents"`
	UseWeb       bool   `json:"use_web"`
	Reason       string `json:"reason"`
}

// Citation is one unit of evidence after fusion. Confidence is always a
// finite value in [0,1]. Immutable once created.
type Citation struct {
	Claim      string     `json:"claim"`
	SourceType SourceType `json:"source_type"`
	Source     string     `json:"source"`
	URL        string     `json:"url,omitempty"`
	Confidence float64    `json:"confidence"`
}

// FusedEvidence is the ranked, deduplicated evidence for one query plus
// the prompt the synthesizer may feed to the LLM. Ordering is by
// descending confidence and must be preserved downstream.
type FusedEvidence struct {
	Evidence      []Citation
	SummaryPrompt string
}

// AnswerResult is the externally visible outcome of one query. Degraded
// is set when the non-LLM fallback produced the answer.
type AnswerResult struct {
	Answer         string     `json:"answer"`
	Citations      []Citation `json:"citations"`
	SourcesText    string     `json:"sources_text"`
	Degraded       bool       `json:"degraded"`
	FallbackReason string     `json:"fallback_reason,omitempty"`
}

// DocumentHit is one ranked passage from the document index.
// Score and Metadata are optional; fusion applies documented defaults.
type DocumentHit struct {
	Content  string
	Score    float64
	Source   string
	Metadata map[string]any
}

// WebHit is one ranked result from the web search provider.
type WebHit struct {
	Title      string
	URL        string
	Snippet    string
	Confidence float64
}
