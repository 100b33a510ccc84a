// Package anthropic implements models.AIProvider using the official
// anthropic-sdk-go Messages API.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/retainhq/churnscope/internal/config"
	"github.com/retainhq/churnscope/pkg/models"
)

const maxTokens = 8192

// Provider implements models.AIProvider using Anthropic.
type Provider struct {
	cfg    config.AnthropicConfig
	client sdk.Client
}

func NewProvider(cfg config.AnthropicConfig) *Provider {
	return &Provider{
		cfg:    cfg,
		client: sdk.NewClient(option.WithAPIKey(cfg.APIKey)),
	}
}

func (p *Provider) Name() string { return "anthropic" }

// AnalyzeChurn sends one message with the CSV content as a second text block
// and returns the concatenated response text.
func (p *Provider) AnalyzeChurn(ctx context.Context, req models.ChurnRequest) (string, error) {
	if p.cfg.APIKey == "" {
		return "", fmt.Errorf("ANTHROPIC_API_KEY not found in environment variables")
	}

	msg, err := p.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(p.cfg.Model),
		MaxTokens: maxTokens,
		System: []sdk.TextBlockParam{
			{Text: req.SystemPrompt},
		},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(
				sdk.NewTextBlock(req.UserMessage),
				sdk.NewTextBlock("CSV data:\n"+string(req.FileContent)),
			),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic: create message: %w", err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return text.String(), nil
}

var _ models.AIProvider = (*Provider)(nil)
