// Package llm adapts hosted language models to ports.Oracle.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/sromero1905/scrapping-link/internal/config"
	"github.com/sromero1905/scrapping-link/internal/ports"
)

const defaultAnthropicModel = "claude-sonnet-4-20250514"

// AnthropicOracle completes prompts with the Messages API.
type AnthropicOracle struct {
	client anthropic.Client
	model  string
}

var _ ports.Oracle = (*AnthropicOracle)(nil)

// NewAnthropicOracle builds the client; timeout bounds every request.
func NewAnthropicOracle(cfg config.AnthropicConfig, timeout time.Duration) *AnthropicOracle {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(2),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}

	model := cfg.Model
	if model == "" {
		model = defaultAnthropicModel
	}
	return &AnthropicOracle{
		client: anthropic.NewClient(opts...),
		model:  model,
	}
}

// Complete sends prompt as a single user turn and joins the text blocks of the reply.
func (o *AnthropicOracle) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	msg, err := o.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(o.model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", ErrEmptyCompletion
	}
	return b.String(), nil
}
