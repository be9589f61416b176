package kimi

import (
	"github.com/BaSui01/uniai/llm"
	"github.com/BaSui01/uniai/llm/providers"
	"github.com/BaSui01/uniai/llm/providers/openaicompat"
)

// KimiProvider 实现 Moonshot Kimi LLM 提供者.
type KimiProvider struct {
	*openaicompat.Provider
}

// NewKimiProvider 创建新的 Kimi 提供者实例.
func NewKimiProvider(cfg providers.KimiConfig, deps providers.Deps) *KimiProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.moonshot.cn"
	}
	noTools := false

	return &KimiProvider{
		Provider: openaicompat.New(openaicompat.Config{
			ProviderName:  llm.ProviderMoonShot,
			Keys:          cfg.Keys,
			BaseURL:       cfg.BaseURL,
			DefaultModel:  providers.ChooseModel(cfg.Model, "moonshot-v1-8k", ""),
			Temperature:   llm.Closed(0, 1),
			TopP:          llm.Closed(0, 1),
			SupportsTools: &noTools,
		}, deps),
	}
}
