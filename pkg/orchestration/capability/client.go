package capability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"orchestration-agent/pkg/correlation"
)

const (
	SearchAgentID     = "search-agent"
	ExtractionAgentID = "extraction-agent"
	GenerationAgentID = "generation-agent"

	noSearchResults     = "No search results found"
	noExtractionResults = "No extraction results"
	noGenerationResults = "No generation results"
)

// Client calls the capability agents through the orchestration wrapper.
type Client struct {
	BaseURL string
	Client  *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

type searchRequest struct {
	Query   string `json:"query"`
	AgentID string `json:"agent_id"`
}

type processRequest struct {
	AgentID     string   `json:"agentId"`
	Prompt      string   `json:"prompt"`
	DocumentIDs []string `json:"documentIds"`
	ExecutionID string   `json:"executionId,omitempty"`
	FullDoc     *bool    `json:"fullDoc,omitempty"`
}

func (c *Client) Search(ctx context.Context, query string) (string, error) {
	body, err := c.post(ctx, "/api/v1/agents/search", searchRequest{Query: query, AgentID: SearchAgentID})
	if err != nil {
		return "", err
	}
	return field(body, "results", noSearchResults)
}

func (c *Client) Extract(ctx context.Context, documentIDs []string, query string) (string, error) {
	body, err := c.post(ctx, "/api/v1/agents/process", processRequest{
		AgentID:     ExtractionAgentID,
		Prompt:      query,
		DocumentIDs: documentIDs,
		ExecutionID: correlation.ExecutionID(ctx),
	})
	if err != nil {
		return "", err
	}
	return field(body, "response", noExtractionResults)
}

func (c *Client) Generate(ctx context.Context, documentIDs []string, query string, fullDoc bool) (string, error) {
	body, err := c.post(ctx, "/api/v1/agents/process", processRequest{
		AgentID:     GenerationAgentID,
		Prompt:      query,
		DocumentIDs: documentIDs,
		ExecutionID: correlation.ExecutionID(ctx),
		FullDoc:     &fullDoc,
	})
	if err != nil {
		return "", err
	}
	return field(body, "response", noGenerationResults)
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) (map[string]json.RawMessage, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	correlation.Apply(ctx, req)

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wrapper request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}

	var out map[string]json.RawMessage
	if err := json.Unmarshal(bodyBytes, &out); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return out, nil
}

// field returns body[key] as text. Non-string values are passed on as JSON.
func field(body map[string]json.RawMessage, key, missing string) (string, error) {
	raw, ok := body[key]
	if !ok || string(raw) == "null" {
		return missing, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	return string(raw), nil
}
