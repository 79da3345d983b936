// Package llm is a thin client for an OpenAI-compatible chat-completions
// endpoint. It performs no retries; failures are reported through the
// fault taxonomy and the caller decides what the user sees.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"wander/pkg/fault"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"

	// maxErrorBody caps how much of an upstream error body is carried
	// into the error message shown to the user.
	maxErrorBody = 512
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Config struct {
	Endpoint string
	Model    string
}

type Client struct {
	endpoint string
	model    string
	key      func() string
	http     *http.Client
	log      *slog.Logger
}

// NewClient builds a client. key is consulted on every call so a
// credential set mid-session takes effect without rebuilding anything.
func NewClient(cfg Config, httpClient *http.Client, key func() string, log *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		key:      key,
		http:     httpClient,
		log:      log,
	}
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends system + history + user and returns the assistant text.
func (c *Client) Complete(ctx context.Context, system string, history []Message, userText string) (string, error) {
	msgs := make([]Message, 0, len(history)+2)
	msgs = append(msgs, Message{Role: RoleSystem, Content: system})
	msgs = append(msgs, history...)
	msgs = append(msgs, Message{Role: RoleUser, Content: userText})
	return c.complete(ctx, msgs)
}

func (c *Client) complete(ctx context.Context, msgs []Message) (string, error) {
	key := c.key()
	if key == "" {
		return "", fault.ErrCredentialMissing
	}

	payload, err := json.Marshal(chatRequest{Model: c.model, Messages: msgs})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", fault.ErrNetworkUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %v", fault.ErrNetworkUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warn("chat completion rejected", "status", resp.StatusCode)
		return "", fault.Upstream(resp.StatusCode, truncate(string(body), maxErrorBody))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fault.Malformed("chat completion is not valid JSON")
	}
	if len(parsed.Choices) == 0 {
		return "", fault.Malformed("chat completion has no choices")
	}
	content := parsed.Choices[0].Message.Content
	if content == "" {
		return "", fault.Malformed("chat completion has empty message content")
	}
	return content, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
