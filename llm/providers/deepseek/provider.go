package deepseek

import (
	"github.com/BaSui01/uniai/llm"
	"github.com/BaSui01/uniai/llm/providers"
	"github.com/BaSui01/uniai/llm/providers/openaicompat"
)

// DeepSeekProvider 实现 DeepSeek LLM 提供者.
// DeepSeek 使用 OpenAI 兼容的 API 格式.
type DeepSeekProvider struct {
	*openaicompat.Provider
}

// NewDeepSeekProvider 创建新的 DeepSeek 提供者实例.
func NewDeepSeekProvider(cfg providers.DeepSeekConfig, deps providers.Deps) *DeepSeekProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.deepseek.com"
	}

	return &DeepSeekProvider{
		Provider: openaicompat.New(openaicompat.Config{
			ProviderName: llm.ProviderDeepSeek,
			Keys:         cfg.Keys,
			BaseURL:      cfg.BaseURL,
			DefaultModel: providers.ChooseModel(cfg.Model, "deepseek-chat", ""),
			EndpointPath: "/chat/completions",
			Temperature:  llm.Closed(0, 2),
			TopP:         llm.Closed(0, 1),
			StreamUsage:  true,
		}, deps),
	}
}
