package document

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"orchestration-agent/internal/pkg/logger"
	"orchestration-agent/pkg/correlation"

	gocache "github.com/patrickmn/go-cache"
)

// Fetcher is what the orchestrator needs from the document service.
type Fetcher interface {
	FetchContext(ctx context.Context, id string) (Context, error)
	FetchFull(ctx context.Context, id string) (Full, error)
}

type textResponse struct {
	Chunks []struct {
		Text string `json:"text"`
	} `json:"chunks"`
	Mode  string `json:"mode"`
	Title string `json:"title"`
}

func (r textResponse) texts() []string {
	out := make([]string, 0, len(r.Chunks))
	for _, c := range r.Chunks {
		out = append(out, c.Text)
	}
	return out
}

type Client struct {
	BaseURL string
	Client  *http.Client
	cache   *gocache.Cache
	logger  logger.ILogger
}

var _ Fetcher = &Client{}

// NewClient talks to the document service at baseURL. A zero cacheTTL disables context caching.
func NewClient(baseURL string, timeout, cacheTTL time.Duration, log logger.ILogger) *Client {
	c := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
		logger:  log,
	}
	if cacheTTL > 0 {
		c.cache = gocache.New(cacheTTL, 2*cacheTTL)
	}
	return c
}

func (c *Client) FetchContext(ctx context.Context, raw string) (Context, error) {
	if c.cache != nil {
		if cached, ok := c.cache.Get(raw); ok {
			return cached.(Context), nil
		}
	}

	id, err := ParseID(raw)
	if err != nil {
		return Context{}, err
	}

	resp, err := c.getText(ctx, id, false)
	if err != nil {
		return Context{}, fmt.Errorf("fetch context %s: %w", raw, err)
	}

	first := ""
	if len(resp.Chunks) > 0 {
		first = resp.Chunks[0].Text
	}

	title := strings.TrimSpace(resp.Title)
	if title == "" {
		title = deriveTitle(id, first)
	}

	docCtx := Context{ID: raw, Title: title, Excerpt: deriveExcerpt(first)}
	if c.cache != nil {
		c.cache.SetDefault(raw, docCtx)
	}
	return docCtx, nil
}

func (c *Client) FetchFull(ctx context.Context, raw string) (Full, error) {
	id, err := ParseID(raw)
	if err != nil {
		return Full{}, err
	}

	resp, err := c.getText(ctx, id, true)
	if err == nil {
		texts := resp.texts()
		mode := SourceMode(resp.Mode)
		if mode == "" {
			mode = SourceFull
		}
		return Full{
			ID:         raw,
			Title:      c.titleFor(raw, resp, id),
			Text:       orNoContent(strings.Join(texts, "\n\n")),
			SourceMode: mode,
			ChunkCount: len(texts),
		}, nil
	}

	c.logger.Warn("DOCUMENTS", "Full chunk fetch failed, retrying without full_chunks", map[string]interface{}{
		"document_id": raw,
		"error":       err.Error(),
	})

	resp, err = c.getText(ctx, id, false)
	if err != nil {
		return Full{}, fmt.Errorf("fetch full %s: %w", raw, err)
	}

	text := ""
	if len(resp.Chunks) > 0 {
		text = resp.Chunks[0].Text
	}
	return Full{
		ID:         raw,
		Title:      c.titleFor(raw, resp, id),
		Text:       orNoContent(text),
		SourceMode: SourceFallback,
		ChunkCount: min(len(resp.Chunks), 1),
	}, nil
}

func orNoContent(text string) string {
	if strings.TrimSpace(text) == "" {
		return NoContent
	}
	return text
}

// titleFor keeps the title consistent with the one used during planning.
func (c *Client) titleFor(raw string, resp textResponse, id ID) string {
	if t := strings.TrimSpace(resp.Title); t != "" {
		return t
	}
	if c.cache != nil {
		if cached, ok := c.cache.Get(raw); ok {
			return cached.(Context).Title
		}
	}
	first := ""
	if len(resp.Chunks) > 0 {
		first = resp.Chunks[0].Text
	}
	return deriveTitle(id, first)
}

func (c *Client) getText(ctx context.Context, id ID, fullChunks bool) (textResponse, error) {
	endpoint := fmt.Sprintf("%s/api/v1/documents/%s/%s/%s/text",
		c.BaseURL,
		url.PathEscape(id.UserID),
		url.PathEscape(id.ProjectID),
		url.PathEscape(id.DocID),
	)
	if fullChunks {
		endpoint += "?full_chunks=true"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return textResponse{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	correlation.Apply(ctx, req)

	resp, err := c.Client.Do(req)
	if err != nil {
		return textResponse{}, fmt.Errorf("document service request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return textResponse{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return textResponse{}, fmt.Errorf("document service error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var out textResponse
	if err := json.Unmarshal(bodyBytes, &out); err != nil {
		return textResponse{}, fmt.Errorf("unmarshal response: %w", err)
	}
	return out, nil
}
