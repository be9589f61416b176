package grok

import (
	"github.com/BaSui01/uniai/llm"
	"github.com/BaSui01/uniai/llm/providers"
	"github.com/BaSui01/uniai/llm/providers/openaicompat"
)

// GrokProvider 实现 xAI Grok LLM 提供者.
type GrokProvider struct {
	*openaicompat.Provider
}

// NewGrokProvider 创建新的 Grok 提供者实例.
func NewGrokProvider(cfg providers.GrokConfig, deps providers.Deps) *GrokProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.x.ai"
	}

	return &GrokProvider{
		Provider: openaicompat.New(openaicompat.Config{
			ProviderName: llm.ProviderXAI,
			Keys:         cfg.Keys,
			BaseURL:      cfg.BaseURL,
			DefaultModel: providers.ChooseModel(cfg.Model, "grok-4-fast-non-reasoning", ""),
			Temperature:  llm.Closed(0, 2),
			TopP:         llm.Closed(0, 1),
		}, deps),
	}
}
