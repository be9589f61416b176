package glm

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/BaSui01/uniai/llm"
	"github.com/BaSui01/uniai/llm/providers"
	"github.com/BaSui01/uniai/llm/providers/openaicompat"
	"github.com/BaSui01/uniai/llm/tokencache"
)

const (
	// DefaultBaseURL 智谱开放平台地址.
	DefaultBaseURL = "https://open.bigmodel.cn"
	// DefaultModel 未指定模型时使用.
	DefaultModel = "glm-3-turbo"
	// DefaultEmbedModel 未指定 Embedding 模型时使用.
	DefaultEmbedModel = "embedding-2"
	// DefaultDimensions Embedding 默认维度.
	DefaultDimensions = 1024

	// tokenTTL 签发的 JWT 有效期，缓存提前一分钟失效.
	tokenTTL = time.Hour
)

// VisionModels 接受图片输入的模型，其它模型的图片会被丢弃.
var VisionModels = []string{"glm-4v", "glm-4v-plus", "glm-4v-flash"}

// GLMProvider 实现智谱 GLM 提供者.
// GLM 使用 OpenAI 兼容的 API 格式.
type GLMProvider struct {
	*openaicompat.Provider
}

// NewGLMProvider 创建新的 GLM 提供者实例.
func NewGLMProvider(cfg providers.GLMConfig, deps providers.Deps) *GLMProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	deps = deps.WithDefaults()

	c := openaicompat.Config{
		ProviderName:      llm.ProviderGLM,
		Keys:              cfg.Keys,
		BaseURL:           cfg.BaseURL,
		EndpointPath:      "/api/paas/v4/chat/completions",
		EmbeddingPath:     "/api/paas/v4/embeddings",
		DefaultModel:      providers.ChooseModel(cfg.Model, DefaultModel, ""),
		DefaultEmbedModel: providers.ChooseModel(cfg.EmbedModel, DefaultEmbedModel, ""),
		DefaultDimensions: DefaultDimensions,
		// temperature (0,1]，top_p (0,1)
		Temperature:  &llm.Bound{Low: 0, High: 1, LowOpen: true, LowTo: 0.1, HighTo: 1},
		TopP:         &llm.Bound{Low: 0, High: 1, LowOpen: true, HighOpen: true, LowTo: 0.1, HighTo: 0.9},
		VisionModels: VisionModels,
		SkipEmpty:    true,
		RequestHook: func(_ llm.ChatOption, body *providers.OpenAICompatRequest) {
			body.RequestID = uuid.NewString()
		},
	}
	if cfg.JWT {
		signer := &tokenSigner{cache: deps.Tokens, now: time.Now}
		c.Auth = signer.Token
	}
	return &GLMProvider{Provider: openaicompat.New(c, deps)}
}

// tokenSigner 把 id.secret 形式的 API Key 签名为短期 JWT，并按 id 缓存.
type tokenSigner struct {
	cache *tokencache.Cache
	now   func() time.Time
}

// Token 返回 key 对应的 JWT；非 id.secret 形式的 key 原样返回.
func (s *tokenSigner) Token(ctx context.Context, key string) (string, error) {
	id, secret, ok := strings.Cut(key, ".")
	if !ok || id == "" || secret == "" {
		return key, nil
	}
	return s.cache.Token(ctx, "glm_jwt_"+id, func(context.Context) (string, time.Duration, error) {
		token, err := Sign(id, secret, s.now(), tokenTTL)
		if err != nil {
			return "", 0, llm.NewError(llm.ErrMissingCredential, llm.ProviderGLM, "sign api key: %v", err)
		}
		return token, tokenTTL - time.Minute, nil
	})
}

// Sign 按智谱鉴权格式签名：HS256，头部带 sign_type=SIGN，时间戳单位为毫秒.
func Sign(id, secret string, now time.Time, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"api_key":   id,
		"exp":       now.Add(ttl).UnixMilli(),
		"timestamp": now.UnixMilli(),
	})
	token.Header["sign_type"] = "SIGN"
	return token.SignedString([]byte(secret))
}
