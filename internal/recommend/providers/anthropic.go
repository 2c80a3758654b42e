// Package providers implements recommend.Provider for the supported
// completion APIs.
package providers

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/recommend"
)

const maxTokens = 2048

// AnthropicProvider implements recommend.Provider using Anthropic's Messages API.
type AnthropicProvider struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicProvider creates a new Anthropic provider. Extra options are
// passed to the SDK client.
func NewAnthropicProvider(apiKey, model string, opts ...option.RequestOption) *AnthropicProvider {
	client := anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &AnthropicProvider{
		client: &client,
		model:  model,
	}
}

// Name identifies the provider.
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// Complete sends prompt as a single user message and returns the first text block.
func (p *AnthropicProvider) Complete(ctx context.Context, prompt string) (string, error) {
	message, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: anthropic messages: %v", recommend.ErrProviderUnavailable, err)
	}

	for _, block := range message.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("%w: anthropic returned no text", recommend.ErrProviderUnavailable)
}
