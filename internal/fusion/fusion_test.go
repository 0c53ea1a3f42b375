package fusion

import (
	"strings"
	"testing"

	"evidence-rag/internal/models"
)

func TestFuse_DeduplicatesAcrossSources(t *testing.T) {
	e := New(1.2, 1.0)

	docHits := []models.DocumentHit{
		{Content: "The fleet operated at 87% capacity during Q3.", Score: 0.9, Source: "ops-report.pdf"},
		{Content: "Warehouse throughput doubled after the move.", Score: 0.7, Source: "ops-report.pdf"},
	}
	webHits := []models.WebHit{
		{Title: "Industry digest", URL: "https://example.com/digest", Snippet: "The fleet operated at 87% capacity during Q3.", Confidence: 0.95},
	}

	fused := e.Fuse(docHits, webHits)
	if len(fused.Evidence) != 2 {
		t.Fatalf("expected 2 citations after dedup, got %d", len(fused.Evidence))
	}
	for _, c := range fused.Evidence {
		if c.SourceType != models.SourceTypeDocument {
			t.Errorf("expected the document version to win the duplicate, got %s", c.SourceType)
		}
	}
}

func TestFuse_SortsByDescendingConfidence(t *testing.T) {
	e := New(1.2, 1.0)

	docHits := []models.DocumentHit{
		{Content: "Low-scored internal passage.", Score: 0.3, Source: "a.txt"},
	}
	webHits := []models.WebHit{
		{Title: "High-confidence hit", URL: "https://example.com/a", Snippet: "A strong external snippet.", Confidence: 0.9},
	}

	fused := e.Fuse(docHits, webHits)
	if len(fused.Evidence) != 2 {
		t.Fatalf("expected 2 citations, got %d", len(fused.Evidence))
	}
	if fused.Evidence[0].SourceType != models.SourceTypeWeb {
		t.Errorf("expected the web citation first, got %s", fused.Evidence[0].SourceType)
	}
	for i := 1; i < len(fused.Evidence); i++ {
		if fused.Evidence[i].Confidence > fused.Evidence[i-1].Confidence {
			t.Error("evidence is not sorted by descending confidence")
		}
	}
}

func TestFuse_ConfidenceClamped(t *testing.T) {
	e := New(1.2, 1.0)

	fused := e.Fuse([]models.DocumentHit{
		{Content: "Very confident passage.", Score: 0.95, Source: "a.txt"},
	}, nil)

	c := fused.Evidence[0].Confidence
	if c < 0 || c > 1 {
		t.Errorf("confidence %f out of [0,1]", c)
	}
	if c != 1.0 {
		t.Errorf("expected 0.95*1.2 to clamp to 1.0, got %f", c)
	}
}

func TestFuse_DefaultScores(t *testing.T) {
	e := New(1.2, 1.0)

	fused := e.Fuse(
		[]models.DocumentHit{{Content: "Unscored document passage.", Source: "a.txt"}},
		[]models.WebHit{{Title: "Unscored hit", URL: "https://example.com", Snippet: "Unscored web snippet."}},
	)

	if got := fused.Evidence[0].Confidence; got != 0.6*1.2 {
		t.Errorf("expected document default 0.72, got %f", got)
	}
	if got := fused.Evidence[1].Confidence; got != 0.5 {
		t.Errorf("expected web default 0.5, got %f", got)
	}
}

func TestFuse_EmptyInputs(t *testing.T) {
	e := New(0, 0)

	fused := e.Fuse(nil, nil)
	if len(fused.Evidence) != 0 {
		t.Errorf("expected empty evidence, got %d", len(fused.Evidence))
	}
	if fused.SummaryPrompt == "" {
		t.Error("expected a prompt scaffold even without evidence")
	}
}

func TestFuse_IdempotentOnRankedInput(t *testing.T) {
	e := New(1.2, 1.0)

	docHits := []models.DocumentHit{
		{Content: "Alpha evidence line.", Score: 0.8, Source: "a.txt"},
		{Content: "Beta evidence line.", Score: 0.5, Source: "b.txt"},
		{Content: "Gamma evidence line.", Score: 0.2, Source: "c.txt"},
	}

	first := e.Fuse(docHits, nil)
	second := e.Fuse(docHits, nil)
	if len(first.Evidence) != len(second.Evidence) {
		t.Fatal("expected identical evidence counts")
	}
	for i := range first.Evidence {
		if first.Evidence[i] != second.Evidence[i] {
			t.Errorf("citation %d differs between runs", i)
		}
	}
	for i := 1; i < len(first.Evidence); i++ {
		if first.Evidence[i].Confidence > first.Evidence[i-1].Confidence {
			t.Error("ranked input was reordered")
		}
	}
}

func TestFuse_NormalizesWhitespaceAndCapsLength(t *testing.T) {
	e := New(1.2, 1.0)

	long := strings.Repeat("word  \t\n ", 200)
	fused := e.Fuse([]models.DocumentHit{{Content: long, Score: 0.5, Source: "a.txt"}}, nil)

	claim := fused.Evidence[0].Claim
	if strings.Contains(claim, "  ") || strings.Contains(claim, "\n") {
		t.Error("expected whitespace runs to collapse")
	}
	if len(claim) > models.SnippetMaxChars {
		t.Errorf("claim length %d exceeds cap", len(claim))
	}
}

func TestFuse_WebFallbacks(t *testing.T) {
	e := New(1.2, 1.0)

	fused := e.Fuse(nil, []models.WebHit{
		{URL: "https://example.com/only-url", Confidence: 0.4},
	})

	c := fused.Evidence[0]
	if c.Source != "https://example.com/only-url" {
		t.Errorf("expected URL as source fallback, got %q", c.Source)
	}
	if c.Claim != "" {
		t.Errorf("expected empty claim when neither snippet nor title exist, got %q", c.Claim)
	}
}

func TestBuildSummaryPrompt_LimitsCitations(t *testing.T) {
	e := New(1.2, 1.0)

	var docHits []models.DocumentHit
	for i := 0; i < 15; i++ {
		docHits = append(docHits, models.DocumentHit{
			Content: strings.Repeat("x", i+1) + " distinct passage",
			Score:   0.5,
			Source:  "a.txt",
		})
	}

	fused := e.Fuse(docHits, nil)
	if got := strings.Count(fused.SummaryPrompt, "-- source:"); got != 10 {
		t.Errorf("expected 10 rendered citations, got %d", got)
	}
	if !strings.HasPrefix(fused.SummaryPrompt, models.FusionPromptHeader) {
		t.Error("prompt missing instruction header")
	}
	if !strings.Contains(fused.SummaryPrompt, models.FusionPromptFooter) {
		t.Error("prompt missing closing instruction")
	}
}
