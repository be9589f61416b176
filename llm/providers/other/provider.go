package other

import (
	"github.com/BaSui01/uniai/llm"
	"github.com/BaSui01/uniai/llm/providers"
	"github.com/BaSui01/uniai/llm/providers/openaicompat"
)

// DefaultDimensions 自部署 Embedding 服务默认维度.
const DefaultDimensions = 1024

// OtherProvider 对接任意自部署的 OpenAI 兼容服务（vLLM、Ollama、LocalAI 等）.
type OtherProvider struct {
	*openaicompat.Provider
}

// NewOtherProvider 创建新的自部署服务提供者实例.
// BaseURL 为空时调用返回 MissingCredential.
func NewOtherProvider(cfg providers.OtherConfig, deps providers.Deps) *OtherProvider {
	return &OtherProvider{
		Provider: openaicompat.New(openaicompat.Config{
			ProviderName:      llm.ProviderOther,
			Keys:              cfg.Keys,
			KeyOptional:       true,
			BaseURL:           cfg.BaseURL,
			EmbeddingPath:     "/v1/embeddings",
			DefaultModel:      cfg.Model,
			DefaultEmbedModel: cfg.EmbedModel,
			DefaultDimensions: DefaultDimensions,
		}, deps),
	}
}
