package doubao

import (
	"github.com/BaSui01/uniai/llm"
	"github.com/BaSui01/uniai/llm/providers"
	"github.com/BaSui01/uniai/llm/providers/openaicompat"
)

// DoubaoProvider 实现字节跳动豆包 (火山方舟) 提供者.
type DoubaoProvider struct {
	*openaicompat.Provider
}

// NewDoubaoProvider 创建新的豆包提供者实例.
func NewDoubaoProvider(cfg providers.DoubaoConfig, deps providers.Deps) *DoubaoProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://ark.cn-beijing.volces.com"
	}
	noTools := false

	return &DoubaoProvider{
		Provider: openaicompat.New(openaicompat.Config{
			ProviderName:  llm.ProviderArk,
			Keys:          cfg.Keys,
			BaseURL:       cfg.BaseURL,
			EndpointPath:  "/api/v3/chat/completions",
			DefaultModel:  providers.ChooseModel(cfg.Model, "doubao-seed-1-6-250615", ""),
			Temperature:   llm.Closed(0, 2),
			TopP:          llm.Closed(0, 1),
			SupportsTools: &noTools,
		}, deps),
	}
}
