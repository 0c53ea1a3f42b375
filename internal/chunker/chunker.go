// Package chunker splits raw document text into bounded, overlapping,
// boundary-aware segments with positional metadata.
package chunker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"evidence-rag/internal/config"
	"evidence-rag/internal/models"
)

// ErrOverlapTooLarge reports an invalid fixed-size chunking configuration.
// It is never silently corrected.
var ErrOverlapTooLarge = errors.New("chunk overlap must be less than chunk size")

// Strategy selects one of the interchangeable segmentation strategies.
type Strategy string

const (
	StrategyFixed    Strategy = "fixed"
	StrategySections Strategy = "sections"
	StrategyTokens   Strategy = "tokens"
)

// StrategyConfig carries the parameters for one chunking pass.
type StrategyConfig struct {
	Strategy     Strategy
	ChunkSize    int
	ChunkOverlap int
	MaxTokens    int
}

// Chunker performs deterministic text segmentation. It holds no mutable
// state and is safe for concurrent use.
type Chunker struct {
	wordsPerToken float64
}

// New creates a Chunker. wordsPerToken is the empirical words-per-token
// estimate used by the token strategy; values <= 0 fall back to the default.
func New(wordsPerToken float64) *Chunker {
	if wordsPerToken <= 0 {
		wordsPerToken = config.DefaultWordsPerToken
	}
	return &Chunker{wordsPerToken: wordsPerToken}
}

// Chunk dispatches to the configured strategy.
func (c *Chunker) Chunk(text string, cfg StrategyConfig, documentID, source string) ([]models.TextChunk, error) {
	switch cfg.Strategy {
	case StrategySections:
		return c.ChunkBySections(text, documentID, source), nil
	case StrategyTokens:
		return c.ChunkByTokens(text, cfg.MaxTokens, documentID, source), nil
	case StrategyFixed, "":
		return c.ChunkFixed(text, cfg.ChunkSize, cfg.ChunkOverlap, documentID, source)
	default:
		return nil, fmt.Errorf("unsupported chunking strategy: %s", cfg.Strategy)
	}
}

// ChunkFixed walks the text in windows of chunkSize characters. A window
// that does not reach the end of the text is shrunk to end just after the
// last sentence terminator or newline inside it, provided that boundary
// lies strictly after the window start. Consecutive windows overlap by
// chunkOverlap characters.
func (c *Chunker) ChunkFixed(text string, chunkSize, chunkOverlap int, documentID, source string) ([]models.TextChunk, error) {
	if chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("%w: size=%d overlap=%d", ErrOverlapTooLarge, chunkSize, chunkOverlap)
	}

	var chunks []models.TextChunk
	start := 0
	counter := 0

	for start < len(text) {
		end := min(start+chunkSize, len(text))

		if end < len(text) {
			window := text[start:end]
			lastPeriod := strings.LastIndex(window, ".")
			lastNewline := strings.LastIndex(window, "\n")
			boundary := max(lastPeriod, lastNewline)
			if boundary > 0 {
				end = start + boundary + 1
			}
		}

		content := strings.TrimSpace(text[start:end])
		if content != "" {
			chunks = append(chunks, models.TextChunk{
				Content: content,
				ChunkID: fmt.Sprintf("%s_chunk_%d", documentID, counter),
				Source:  source,
				Metadata: map[string]any{
					"document_id":    documentID,
					"source":         source,
					"chunk_index":    counter,
					"start_position": start,
					"end_position":   end,
				},
			})
			counter++
		}

		next := end - chunkOverlap
		// Boundary backtracking can shrink the window below the overlap;
		// advance to the window end so the walk always makes progress.
		if next <= start {
			next = end
		}
		start = next
	}

	log.Debug().Int("chunks", len(chunks)).Str("source", source).Msg("Created fixed-size chunks")
	return chunks, nil
}

// ChunkBySections splits on blank-line-delimited paragraphs. The chunk
// index follows the original paragraph position, so skipped empty
// paragraphs leave gaps in the section numbering.
func (c *Chunker) ChunkBySections(text, documentID, source string) []models.TextChunk {
	var chunks []models.TextChunk

	paragraphs := strings.Split(text, "\n\n")
	for idx, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		chunks = append(chunks, models.TextChunk{
			Content: para,
			ChunkID: fmt.Sprintf("%s_section_%d", documentID, idx),
			Source:  source,
			Metadata: map[string]any{
				"document_id": documentID,
				"source":      source,
				"chunk_index": idx,
			},
		})
	}

	log.Debug().Int("chunks", len(chunks)).Str("source", source).Msg("Created section chunks")
	return chunks
}

// ChunkByTokens accumulates whitespace-delimited words and emits a chunk
// once the estimated token count reaches maxTokens. The estimate divides
// maxTokens by the configured words-per-token ratio. A trailing partial
// accumulation is flushed even when under threshold.
func (c *Chunker) ChunkByTokens(text string, maxTokens int, documentID, source string) []models.TextChunk {
	var chunks []models.TextChunk
	var chunkWords []string
	counter := 0
	threshold := float64(maxTokens) / c.wordsPerToken

	flush := func() {
		if len(chunkWords) == 0 {
			return
		}
		chunks = append(chunks, models.TextChunk{
			Content: strings.Join(chunkWords, " "),
			ChunkID: fmt.Sprintf("%s_token_chunk_%d", documentID, counter),
			Source:  source,
			Metadata: map[string]any{
				"document_id": documentID,
				"source":      source,
				"chunk_index": counter,
				"word_count":  len(chunkWords),
			},
		})
		counter++
		chunkWords = nil
	}

	for _, word := range strings.Fields(text) {
		chunkWords = append(chunkWords, word)
		if float64(len(chunkWords)) >= threshold {
			flush()
		}
	}
	flush()

	log.Debug().Int("chunks", len(chunks)).Str("source", source).Msg("Created token-based chunks")
	return chunks
}
