package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/recommend"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/httpclient"
)

// OpenAIProvider implements recommend.Provider against any OpenAI-compatible
// chat completions endpoint, behind a circuit breaker.
type OpenAIProvider struct {
	client  *httpclient.CircuitBreakerClient
	baseURL string
	apiKey  string
	model   string
}

// NewOpenAIProvider creates a provider posting to baseURL + "/chat/completions".
func NewOpenAIProvider(client *httpclient.CircuitBreakerClient, baseURL, apiKey, model string) *OpenAIProvider {
	return &OpenAIProvider{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Name identifies the provider.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Complete posts prompt as a single user message.
func (p *OpenAIProvider) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:     p.model,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", recommend.ErrProviderUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %v", recommend.ErrProviderUnavailable, httpclient.ParseResponseError(resp, p.Name()))
	}
	defer func() { _ = resp.Body.Close() }()

	var parsed chatResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: decode chat response: %v", recommend.ErrProviderUnavailable, err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: openai returned no choices", recommend.ErrProviderUnavailable)
	}
	return parsed.Choices[0].Message.Content, nil
}
