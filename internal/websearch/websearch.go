// Package websearch queries a public search provider and normalizes the
// hits for the fusion engine.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"evidence-rag/internal/config"
	"evidence-rag/internal/models"
)

const (
	defaultSerpAPIBase = "https://serpapi.com/search"
	duckduckgoBase     = "https://duckduckgo.com/html/"
	userAgent          = "evidence-rag-bot/1.0"

	providerConfidence = 0.8
	fallbackConfidence = 0.5
)

// Client wraps the configured search provider with a scrape fallback for
// unconfigured setups. Single attempt per provider, no retries.
type Client struct {
	cfg         config.WebSearchConfig
	httpClient  *http.Client
	fallbackURL string
}

func New(cfg config.WebSearchConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultSerpAPIBase
	}
	return &Client{
		cfg:         cfg,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		fallbackURL: duckduckgoBase,
	}
}

// Search returns up to topK normalized web hits. When the configured
// provider yields nothing (no key, an error, or an empty result set) the
// scrape fallback is tried before giving up.
func (c *Client) Search(ctx context.Context, query string, topK int) ([]models.WebHit, error) {
	if c.cfg.APIKey != "" {
		hits, err := c.searchSerpAPI(ctx, query, topK)
		if err != nil {
			log.Warn().Err(err).Msg("Provider search failed, trying fallback")
		} else if len(hits) > 0 {
			return hits, nil
		}
	}
	return c.searchDuckDuckGo(ctx, query, topK)
}

func (c *Client) searchSerpAPI(ctx context.Context, query string, topK int) ([]models.WebHit, error) {
	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", query)
	params.Set("num", strconv.Itoa(topK))
	params.Set("api_key", c.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("search request failed: %d, %s", resp.StatusCode, string(body))
	}

	var payload struct {
		OrganicResults []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"organic_results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	var hits []models.WebHit
	for i, item := range payload.OrganicResults {
		if i == topK {
			break
		}
		title := item.Title
		if title == "" {
			title = item.Link
		}
		hits = append(hits, models.WebHit{
			Title:      title,
			URL:        item.Link,
			Snippet:    item.Snippet,
			Confidence: providerConfidence,
		})
	}
	return hits, nil
}

// searchDuckDuckGo scrapes the HTML result page. Minimal parsing, not
// meant for heavy production use.
func (c *Client) searchDuckDuckGo(ctx context.Context, query string, topK int) ([]models.WebHit, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.fallbackURL+"?q="+url.QueryEscape(query), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fallback search failed: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return parseResultPage(string(body), topK), nil
}

func parseResultPage(page string, topK int) []models.WebHit {
	var hits []models.WebHit
	parts := strings.Split(page, `<a rel="nofollow" class="result__a"`)
	for _, p := range parts[1:] {
		if len(hits) == topK {
			break
		}
		var link, title string
		if _, after, ok := strings.Cut(p, `href="`); ok {
			link, _, _ = strings.Cut(after, `"`)
		}
		if _, after, ok := strings.Cut(p, ">"); ok {
			title, _, _ = strings.Cut(after, "<")
		}
		title = strings.TrimSpace(title)
		if title == "" {
			title = link
		}
		if link == "" && title == "" {
			continue
		}
		hits = append(hits, models.WebHit{
			Title:      title,
			URL:        link,
			Confidence: fallbackConfidence,
		})
	}
	return hits
}
