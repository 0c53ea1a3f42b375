package llmservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"evidence-rag/internal/config"
)

// Client talks to an OpenAI-compatible completion endpoint. It makes a
// single attempt per call; callers own timeouts and degradation.
type Client struct {
	cfg *config.LLMConfig
}

func New(cfg *config.LLMConfig) *Client {
	return &Client{cfg: cfg}
}

// Chat sends a system+user message pair and returns the first choice.
func (c *Client) Chat(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []llms.MessageContent{
		{
			Role:  schema.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextContent{Text: systemPrompt}},
		},
		{
			Role:  schema.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: userPrompt}},
		},
	}
	return c.generate(ctx, messages)
}

// Complete sends a bare prompt without a system message.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	messages := []llms.MessageContent{
		{
			Role:  schema.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: prompt}},
		},
	}
	return c.generate(ctx, messages)
}

func (c *Client) generate(ctx context.Context, messages []llms.MessageContent) (string, error) {
	log.Debug().Str("model", c.cfg.Model).Msg("Generating content")
	llm, err := openai.New(
		openai.WithBaseURL(c.cfg.BaseURL),
		openai.WithToken(strings.TrimPrefix(c.cfg.Key, "Bearer ")),
		openai.WithModel(c.cfg.Model),
	)
	if err != nil {
		return "", err
	}

	resp, err := llm.GenerateContent(ctx, messages)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}
	return resp.Choices[0].Content, nil
}
