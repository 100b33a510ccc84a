package ai

import (
	"fmt"

	"github.com/retainhq/churnscope/internal/ai/anthropic"
	"github.com/retainhq/churnscope/internal/ai/gemini"
	"github.com/retainhq/churnscope/internal/ai/openai"
	"github.com/retainhq/churnscope/internal/config"
	"github.com/retainhq/churnscope/pkg/models"
)

// NewProvider constructs the appropriate AI provider based on config.
// Called once at server startup. Missing credentials are not checked here:
// they surface as a failed analysis when the provider is invoked.
func NewProvider(cfg config.AIConfig) (models.AIProvider, error) {
	switch cfg.Provider {
	case "gemini":
		return gemini.NewProvider(cfg.Gemini), nil
	case "openai":
		return openai.NewProvider(cfg.OpenAI), nil
	case "anthropic":
		return anthropic.NewProvider(cfg.Anthropic), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q: must be one of gemini, openai, anthropic", cfg.Provider)
	}
}
