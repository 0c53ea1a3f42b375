package answer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"evidence-rag/internal/models"
)

type fakeGenerator struct {
	reply      string
	err        error
	lastSystem string
	lastUser   string
}

func (f *fakeGenerator) Chat(_ context.Context, system, user string) (string, error) {
	f.lastSystem = system
	f.lastUser = user
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func evidence(n int) models.FusedEvidence {
	var citations []models.Citation
	for i := 0; i < n; i++ {
		citations = append(citations, models.Citation{
			Claim:      "claim " + strings.Repeat("x", i+1),
			SourceType: models.SourceTypeDocument,
			Source:     "doc.txt",
			Confidence: 0.9,
		})
	}
	return models.FusedEvidence{Evidence: citations}
}

func TestGenerateAnswer_Success(t *testing.T) {
	gen := &fakeGenerator{reply: "Grounded answer [1]."}
	s := New(gen)

	res := s.GenerateAnswer(context.Background(), evidence(2), "what happened?")
	if res.Answer != "Grounded answer [1]." {
		t.Errorf("unexpected answer %q", res.Answer)
	}
	if res.Degraded {
		t.Error("successful generation must not be marked degraded")
	}
	if len(res.Citations) != 2 {
		t.Errorf("expected citations to pass through, got %d", len(res.Citations))
	}
	if !strings.Contains(gen.lastUser, "what happened?") {
		t.Error("prompt missing the user question")
	}
	if gen.lastSystem != models.AnswerSystemPrompt {
		t.Errorf("unexpected system prompt %q", gen.lastSystem)
	}
}

func TestGenerateAnswer_FallbackOnError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("provider unavailable")}
	s := New(gen)

	fused := evidence(5)
	res := s.GenerateAnswer(context.Background(), fused, "query")

	want := fused.Evidence[0].Claim + " " + fused.Evidence[1].Claim + " " + fused.Evidence[2].Claim
	if res.Answer != want {
		t.Errorf("expected space-joined top-3 claims, got %q", res.Answer)
	}
	if !res.Degraded {
		t.Error("fallback result must be marked degraded")
	}
	if res.FallbackReason == "" {
		t.Error("expected a fallback reason")
	}
	if got := strings.Count(res.SourcesText, "\n") + 1; got != 5 {
		t.Errorf("expected sourcesText to list all 5 citations, got %d lines", got)
	}
}

func TestGenerateAnswer_FallbackWithoutGenerator(t *testing.T) {
	s := New(nil)

	res := s.GenerateAnswer(context.Background(), evidence(1), "query")
	if !res.Degraded {
		t.Error("expected degraded result without a generator")
	}
	if res.Answer == "" {
		t.Error("expected a non-empty fallback answer")
	}
}

func TestGenerateAnswer_EmptyEvidence(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("down")}
	s := New(gen)

	res := s.GenerateAnswer(context.Background(), models.FusedEvidence{}, "query")
	if res.Answer != "" {
		t.Errorf("expected empty fallback answer without evidence, got %q", res.Answer)
	}
	if res.SourcesText != "" {
		t.Errorf("expected empty sources text, got %q", res.SourcesText)
	}
	if !res.Degraded {
		t.Error("expected degraded flag")
	}
}

func TestSynthesize_UsesSummaryPrompt(t *testing.T) {
	gen := &fakeGenerator{reply: "Summary answer."}
	s := New(gen)

	fused := evidence(2)
	fused.SummaryPrompt = "You have evidence from multiple sources."
	res := s.Synthesize(context.Background(), fused)

	if res.Answer != "Summary answer." {
		t.Errorf("unexpected answer %q", res.Answer)
	}
	if gen.lastUser != fused.SummaryPrompt {
		t.Errorf("expected the summary prompt to be sent verbatim, got %q", gen.lastUser)
	}
	if gen.lastSystem != models.FusionSystemPrompt {
		t.Errorf("unexpected system prompt %q", gen.lastSystem)
	}
}

func TestSynthesize_EmptyPromptSkipsGenerator(t *testing.T) {
	gen := &fakeGenerator{reply: "should not be used"}
	s := New(gen)

	res := s.Synthesize(context.Background(), evidence(1))
	if res.Answer != "" {
		t.Errorf("expected no answer without a summary prompt, got %q", res.Answer)
	}
	if gen.lastUser != "" {
		t.Error("generator must not be invoked without a summary prompt")
	}
}

func TestSynthesize_FallbackOnError(t *testing.T) {
	s := New(&fakeGenerator{err: errors.New("timeout")})

	fused := evidence(4)
	fused.SummaryPrompt = "prompt"
	res := s.Synthesize(context.Background(), fused)

	want := fused.Evidence[0].Claim + " " + fused.Evidence[1].Claim + " " + fused.Evidence[2].Claim
	if res.Answer != want {
		t.Errorf("expected space-joined top-3 claims, got %q", res.Answer)
	}
	if !res.Degraded {
		t.Error("fallback result must be marked degraded")
	}
}

func TestBuildPrompt_LimitsCitations(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	s := New(gen)

	s.GenerateAnswer(context.Background(), evidence(20), "query")
	if got := strings.Count(gen.lastUser, "(source:"); got != 15 {
		t.Errorf("expected 15 citations in the prompt, got %d", got)
	}
}

func TestFormatCitations_SourceFallbacks(t *testing.T) {
	s := New(&fakeGenerator{reply: "ok"})

	fused := models.FusedEvidence{Evidence: []models.Citation{
		{SourceType: models.SourceTypeWeb, URL: "https://example.com"},
		{SourceType: models.SourceTypeWeb},
	}}
	res := s.GenerateAnswer(context.Background(), fused, "q")

	lines := strings.Split(res.SourcesText, "\n")
	if lines[0] != "[1] https://example.com (web)" {
		t.Errorf("expected URL fallback, got %q", lines[0])
	}
	if lines[1] != "[2] unknown (web)" {
		t.Errorf("expected unknown fallback, got %q", lines[1])
	}
}
