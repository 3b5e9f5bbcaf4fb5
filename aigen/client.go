package aigen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/reminders_backend/workflow"
)

const (
	anthropicBaseURL = "https://api.anthropic.com/v1/messages"
	anthropicVersion = "2023-06-01"
	defaultModel     = "claude-sonnet-4-20250514"

	systemPrompt = "You write short payment reminder emails on behalf of small businesses. " +
		"You never use threatening, legal or coercive language. " +
		"You always respond with a single JSON object containing \"subject\" and \"body\" keys and nothing else."
)

// Client calls the Anthropic Messages API to draft reminder copy. It
// implements workflow.Generator; retries and moderation live in the workflow
// layer, so each call here is a single attempt.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

type reminderPayload struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func NewClient(apiKey string) *Client {
	model := os.Getenv("ANTHROPIC_MODEL")
	if model == "" {
		model = defaultModel
	}
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: anthropicBaseURL,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

// FromEnv returns a client if ANTHROPIC_API_KEY is set, nil otherwise.
// A nil generator makes the workflow layer go straight to fallback templates.
func FromEnv() *Client {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil
	}
	return NewClient(apiKey)
}

func (c *Client) GenerateReminder(ctx context.Context, req workflow.GenerationRequest) (string, string, error) {
	if c.apiKey == "" {
		return "", "", errors.New("ANTHROPIC_API_KEY not set")
	}

	apiReq := anthropicRequest{
		Model:     c.model,
		MaxTokens: 1024,
		System:    systemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: workflow.BuildPrompt(req)},
		},
	}
	body, err := json.Marshal(apiReq)
	if err != nil {
		return "", "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("anthropic API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", "", fmt.Errorf("decode response: %w", err)
	}
	if len(apiResp.Content) == 0 {
		return "", "", errors.New("empty response content")
	}

	return parseReminder(apiResp.Content[0].Text)
}

// parseReminder extracts the subject/body JSON object from the model output,
// handling markdown code fences.
func parseReminder(text string) (string, string, error) {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```") {
		if idx := strings.Index(cleaned, "\n"); idx >= 0 {
			cleaned = cleaned[idx+1:]
		}
		if idx := strings.LastIndex(cleaned, "```"); idx >= 0 {
			cleaned = cleaned[:idx]
		}
		cleaned = strings.TrimSpace(cleaned)
	}

	// Tolerate prose around the object.
	if start := strings.Index(cleaned, "{"); start > 0 {
		if end := strings.LastIndex(cleaned, "}"); end > start {
			cleaned = cleaned[start : end+1]
		}
	}

	var payload reminderPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return "", "", fmt.Errorf("parse reminder JSON: %w", err)
	}
	if payload.Subject == "" || payload.Body == "" {
		return "", "", errors.New("reminder JSON missing subject or body")
	}
	return payload.Subject, payload.Body, nil
}
