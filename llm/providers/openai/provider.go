package openai

import (
	"strings"

	"github.com/BaSui01/uniai/llm"
	"github.com/BaSui01/uniai/llm/providers"
	"github.com/BaSui01/uniai/llm/providers/openaicompat"
)

const (
	// DefaultBaseURL OpenAI 官方地址.
	DefaultBaseURL = "https://api.openai.com"
	// DefaultModel 未指定模型时使用.
	DefaultModel = "gpt-4.1"
	// DefaultEmbedModel 未指定 Embedding 模型时使用.
	DefaultEmbedModel = "text-embedding-ada-002"
	// DefaultDimensions text-embedding-3 系列的默认维度.
	DefaultDimensions = 1536
)

// OpenAIProvider 实现 OpenAI 提供者.
// Chat Completions 与 Embedding 均委托嵌入的 openaicompat.Provider.
type OpenAIProvider struct {
	*openaicompat.Provider
}

// NewOpenAIProvider 创建新的 OpenAI 提供者实例.
func NewOpenAIProvider(cfg providers.OpenAIConfig, deps providers.Deps) *OpenAIProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &OpenAIProvider{
		Provider: openaicompat.New(openaicompat.Config{
			ProviderName:      llm.ProviderOpenAI,
			Keys:              cfg.Keys,
			BaseURL:           cfg.BaseURL,
			EmbeddingPath:     "/v1/embeddings",
			DefaultModel:      providers.ChooseModel(cfg.Model, DefaultModel, ""),
			DefaultEmbedModel: providers.ChooseModel(cfg.EmbedModel, DefaultEmbedModel, ""),
			DefaultDimensions: DefaultDimensions,
			Temperature:       llm.Closed(0, 1),
			TopP:              llm.Closed(0, 1),
			MaxTokensField:    "max_completion_tokens",
			StreamUsage:       true,
			EmbedHook:         embedHook,
		}, deps),
	}
}

// embedHook ada-002 不接受 dimensions 参数.
func embedHook(_ llm.EmbedOption, body *providers.OpenAICompatEmbeddingRequest) {
	if strings.HasSuffix(body.Model, "ada-002") {
		body.Dimensions = 0
	}
}
