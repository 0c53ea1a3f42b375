// Package answer turns fused evidence plus the original query into a
// final cited answer, with a deterministic fallback when generation fails.
package answer

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"evidence-rag/internal/models"
)

const (
	promptCitationLimit   = 15
	fallbackCitationLimit = 3
)

// Generator is the text-generation collaborator. Implementations make a
// single attempt; the synthesizer handles failure.
type Generator interface {
	Chat(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Synthesizer produces the final answer. Stateless and safe for
// concurrent use.
type Synthesizer struct {
	generator Generator
}

func New(generator Generator) *Synthesizer {
	return &Synthesizer{generator: generator}
}

// GenerateAnswer builds a citation-grounded prompt, invokes the
// generator, and falls back to concatenating the top claims when the
// call fails. It never returns an error: generation failure degrades to
// the fallback answer, flagged on the result.
func (s *Synthesizer) GenerateAnswer(ctx context.Context, fused models.FusedEvidence, userQuery string) models.AnswerResult {
	citations := fused.Evidence
	sourcesText := formatCitations(citations)

	prompt := buildPrompt(citations, userQuery)

	if s.generator != nil {
		resp, err := s.generator.Chat(ctx, models.AnswerSystemPrompt, prompt)
		if err == nil {
			return models.AnswerResult{
				Answer:      resp,
				Citations:   citations,
				SourcesText: sourcesText,
			}
		}
		log.Error().Err(err).Msg("Answer generation failed, using fallback")
		return fallbackResult(citations, sourcesText, err.Error())
	}

	return fallbackResult(citations, sourcesText, "no generator configured")
}

// Synthesize answers directly from the fusion engine's summary prompt
// instead of building a question-centric one. Degrades the same way as
// GenerateAnswer.
func (s *Synthesizer) Synthesize(ctx context.Context, fused models.FusedEvidence) models.AnswerResult {
	citations := fused.Evidence
	sourcesText := formatCitations(citations)

	if fused.SummaryPrompt == "" {
		return models.AnswerResult{Citations: citations, SourcesText: sourcesText}
	}
	if s.generator != nil {
		resp, err := s.generator.Chat(ctx, models.FusionSystemPrompt, fused.SummaryPrompt)
		if err == nil {
			return models.AnswerResult{
				Answer:      resp,
				Citations:   citations,
				SourcesText: sourcesText,
			}
		}
		log.Error().Err(err).Msg("Evidence synthesis failed, using fallback")
		return fallbackResult(citations, sourcesText, err.Error())
	}
	return fallbackResult(citations, sourcesText, "no generator configured")
}

func buildPrompt(citations []models.Citation, userQuery string) string {
	lines := []string{
		models.AnswerPromptHeader,
		fmt.Sprintf("User question: %s", userQuery),
		"Evidence:",
	}
	for i, c := range citations {
		if i == promptCitationLimit {
			break
		}
		lines = append(lines, fmt.Sprintf("[%d] %s (source: %s)", i+1, c.Claim, c.Source))
	}
	lines = append(lines, "\n"+models.AnswerPromptFooter)
	return strings.Join(lines, "\n")
}

// fallbackResult concatenates the claims of the top citations so a user
// always receives some answer.
func fallbackResult(citations []models.Citation, sourcesText, reason string) models.AnswerResult {
	var claims []string
	for i, c := range citations {
		if i == fallbackCitationLimit {
			break
		}
		claims = append(claims, c.Claim)
	}
	return models.AnswerResult{
		Answer:         strings.Join(claims, " "),
		Citations:      citations,
		SourcesText:    sourcesText,
		Degraded:       true,
		FallbackReason: reason,
	}
}

func formatCitations(citations []models.Citation) string {
	var lines []string
	for i, c := range citations {
		src := c.Source
		if src == "" {
			src = c.URL
		}
		if src == "" {
			src = "unknown"
		}
		lines = append(lines, fmt.Sprintf("[%d] %s (%s)", i+1, src, c.SourceType))
	}
	return strings.Join(lines, "\n")
}
