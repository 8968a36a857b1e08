// internal/openai/client.go
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mcp-meal-scan/internal/models"
)

// ErrNoChoices is returned when the service answers without any completion.
var ErrNoChoices = errors.New("no choices in response")

type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type TextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type ImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type ImageContent struct {
	Type     string   `json:"type"`
	ImageURL ImageURL `json:"image_url"`
}

type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// APIError is a non-2xx answer from the completions endpoint.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}

// Transient reports whether repeating the same request may succeed.
func (e *APIError) Transient() bool {
	switch {
	case e.StatusCode == http.StatusRequestTimeout, e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= 500:
		return true
	}
	return false
}

// TransportError wraps a failure to reach the endpoint at all.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "failed to send request: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Transient is true unless the caller cancelled the request.
func (e *TransportError) Transient() bool {
	return !errors.Is(e.Err, context.Canceled)
}

// Client talks to an OpenAI-compatible chat/completions endpoint.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

func NewClient(apiKey, model, baseURL string, timeout time.Duration) *Client {
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Name identifies the provider in logs and tool responses.
func (c *Client) Name() string {
	return "openai/" + c.model
}

// Describe sends the prompt and the image as one user turn and returns the text
// of the first choice. An empty string means the model answered with no content.
func (c *Client) Describe(ctx context.Context, req models.VisionRequest) (string, error) {
	if req.Image == nil {
		return "", errors.New("vision request without image")
	}

	reqBody := ChatRequest{
		Model: c.model,
		Messages: []Message{
			{
				Role: "user",
				Content: []any{
					TextContent{
						Type: "text",
						Text: req.Prompt,
					},
					ImageContent{
						Type: "image_url",
						ImageURL: ImageURL{
							URL:    req.Image.DataURL(),
							Detail: req.Detail,
						},
					},
				},
			},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", ErrNoChoices
	}

	content := chatResp.Choices[0].Message.Content
	if content == nil {
		return "", nil
	}
	return *content, nil
}
