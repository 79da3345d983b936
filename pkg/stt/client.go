// Package stt is the client for the speech transcription endpoint. The
// endpoint sits behind a proxy that has been observed to answer with
// HTML when misrouted, so every response body is classified before it
// is parsed. Callers in offline mode must not invoke this package at
// all; they substitute a placeholder instead.
package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"wander/pkg/fault"
)

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

// envelope covers both the success ({text}) and failure ({error})
// response shapes. Pointers distinguish an absent field from an empty
// transcription.
type envelope struct {
	Text  *string         `json:"text"`
	Error json.RawMessage `json:"error"`
}

// Transcribe uploads a WAV blob as a multipart form and returns the
// recognized text.
func (c *Client) Transcribe(ctx context.Context, wavBlob []byte, filename string) (string, error) {
	key := c.key()
	if key == "" {
		return "", fault.ErrCredentialMissing
	}

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	part, err := mw.CreateFormFile("audio", filename)
	if err != nil {
		return "", fmt.Errorf("build form: %w", err)
	}
	if _, err := part.Write(wavBlob); err != nil {
		return "", fmt.Errorf("build form: %w", err)
	}
	if err := mw.WriteField("model", c.model); err != nil {
		return "", fmt.Errorf("build form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("build form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &form)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
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

	switch ClassifyBody(body) {
	case BodyHTML:
		c.log.Warn("transcription endpoint answered with HTML", "status", resp.StatusCode)
		return "", fault.Malformed("transcription endpoint returned an HTML page; the endpoint is misconfigured or not deployed")
	case BodyJSON:
		var env envelope
		if err := json.Unmarshal(body, &env); err != nil {
			return "", fault.Malformed("transcription response is not a JSON object")
		}
		if len(env.Error) > 0 && string(env.Error) != "null" {
			return "", fault.Upstream(resp.StatusCode, errorText(env.Error))
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return "", fault.Upstream(resp.StatusCode, string(body))
		}
		if env.Text == nil {
			return "", fault.Malformed("transcription response has no text field")
		}
		return *env.Text, nil
	default:
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return "", fault.Upstream(resp.StatusCode, string(body))
		}
		return "", fault.Malformed("transcription response body is neither JSON nor HTML")
	}
}

// errorText flattens the error envelope, which is either a bare string
// or an object with a message field.
func errorText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}
	return string(raw)
}
