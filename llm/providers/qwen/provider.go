package qwen

import (
	"github.com/BaSui01/uniai/llm"
	"github.com/BaSui01/uniai/llm/providers"
	"github.com/BaSui01/uniai/llm/providers/openaicompat"
)

const (
	// DefaultEmbedModel 通义 Embedding 默认模型.
	DefaultEmbedModel = "text-embedding-v3"
	// DefaultDimensions text-embedding-v3 默认维度.
	DefaultDimensions = 1024
)

// QwenProvider 实现阿里云通义千问 (DashScope 兼容模式) 提供者.
type QwenProvider struct {
	*openaicompat.Provider
}

// NewQwenProvider 创建新的 Qwen 提供者实例.
func NewQwenProvider(cfg providers.QwenConfig, deps providers.Deps) *QwenProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://dashscope.aliyuncs.com"
	}
	noTools := false

	return &QwenProvider{
		Provider: openaicompat.New(openaicompat.Config{
			ProviderName:      llm.ProviderAliYun,
			Keys:              cfg.Keys,
			BaseURL:           cfg.BaseURL,
			EndpointPath:      "/compatible-mode/v1/chat/completions",
			EmbeddingPath:     "/compatible-mode/v1/embeddings",
			DefaultModel:      providers.ChooseModel(cfg.Model, "qwen-turbo", ""),
			DefaultEmbedModel: providers.ChooseModel(cfg.EmbedModel, DefaultEmbedModel, ""),
			DefaultDimensions: DefaultDimensions,
			// temperature 取值 [0,2)
			Temperature:   &llm.Bound{Low: 0, High: 2, HighOpen: true, LowTo: 0, HighTo: 1.9},
			TopP:          &llm.Bound{Low: 0, High: 1, LowOpen: true, LowTo: 0.1, HighTo: 1},
			SupportsTools: &noTools,
			StreamUsage:   true,
		}, deps),
	}
}
