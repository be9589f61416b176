// =============================================================================
// UniAI OpenAI-Compatible Provider Base
// =============================================================================
// Shared implementation for all OpenAI-compatible vendors.
// OpenAI, DeepSeek, Qwen, GLM, Grok, Doubao, Kimi, iFlyTek and self-hosted
// endpoints embed this and only override what differs (name, base URL,
// default model, clamping ranges, auth and request hooks).
// =============================================================================

package openaicompat

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/BaSui01/uniai/llm"
	"github.com/BaSui01/uniai/llm/providers"
	"github.com/BaSui01/uniai/llm/streaming"
)

// Config holds the configuration for an OpenAI-compatible provider.
type Config struct {
	// ProviderName is the unique tag for this provider (e.g. "deepseek", "aliyun").
	ProviderName llm.Provider

	// Keys are the API keys; one is picked at random per call.
	Keys []string

	// KeyOptional allows calls without any key (self-hosted endpoints).
	KeyOptional bool

	// BaseURL is the base URL for the provider's API (e.g. "https://api.deepseek.com").
	BaseURL string

	// EndpointPath is the chat completions endpoint path. Defaults to "/v1/chat/completions".
	EndpointPath string

	// EmbeddingPath is the embeddings endpoint path. Empty disables embedding.
	EmbeddingPath string

	// DefaultModel is the chat model used when the call does not name one.
	DefaultModel string

	// DefaultEmbedModel is the embedding model used when the call does not name one.
	DefaultEmbedModel string

	// DefaultDimensions is sent when the call does not request dimensions. Zero omits the field.
	DefaultDimensions int

	// Temperature and TopP clamp sampling parameters. Nil passes values through.
	Temperature *llm.Bound
	TopP        *llm.Bound

	// MaxTokensField selects "max_tokens" (default) or "max_completion_tokens".
	MaxTokensField string

	// SupportsTools indicates whether this provider supports native function calling.
	// Defaults to true if not set.
	SupportsTools *bool

	// VisionModels lists the models that accept images. Nil means every model does;
	// images sent to other models are dropped.
	VisionModels []string

	// StreamUsage requests stream_options.include_usage so the last chunk carries usage.
	StreamUsage bool

	// SkipEmpty emits stream snapshots only when they carry content or tool calls.
	SkipEmpty bool

	// BuildHeaders is an optional function to set custom headers on each request.
	// If nil, "Authorization: Bearer <token>" is used when a token is present.
	BuildHeaders func(h http.Header, token string)

	// Auth converts the selected key into the credential actually sent (e.g. GLM JWT).
	Auth func(ctx context.Context, key string) (string, error)

	// RequestHook modifies the chat request body before sending.
	RequestHook func(opt llm.ChatOption, body *providers.OpenAICompatRequest)

	// EmbedHook modifies the embedding request body before sending.
	EmbedHook func(opt llm.EmbedOption, body *providers.OpenAICompatEmbeddingRequest)

	// CheckBody reports vendor errors carried in an HTTP 200 body or stream event.
	CheckBody func(r gjson.Result) error
}

// Provider is the base implementation for all OpenAI-compatible providers.
// Embed this in your provider struct and override what differs.
type Provider struct {
	Cfg    Config
	Deps   providers.Deps
	Logger *zap.Logger
}

// New creates a new OpenAI-compatible provider with the given config.
func New(cfg Config, deps providers.Deps) *Provider {
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/v1/chat/completions"
	}
	deps = deps.WithDefaults()
	return &Provider{
		Cfg:    cfg,
		Deps:   deps,
		Logger: deps.Logger.With(zap.String("provider", string(cfg.ProviderName))),
	}
}

// Name returns the provider tag.
func (p *Provider) Name() llm.Provider { return p.Cfg.ProviderName }

// SupportsNativeFunctionCalling returns whether this provider supports tool calling.
func (p *Provider) SupportsNativeFunctionCalling() bool {
	if p.Cfg.SupportsTools != nil {
		return *p.Cfg.SupportsTools
	}
	return true
}

// SupportsEmbedding reports whether an embeddings endpoint is configured.
func (p *Provider) SupportsEmbedding() bool { return p.Cfg.EmbeddingPath != "" }

// credential picks a key and converts it with Auth. It fails before any network call.
func (p *Provider) credential(ctx context.Context) (string, error) {
	if p.Cfg.BaseURL == "" {
		return "", llm.NewError(llm.ErrMissingCredential, p.Name(), "base URL is not set in config")
	}
	key := llm.PickKey(p.Cfg.Keys)
	if key == "" {
		if p.Cfg.KeyOptional {
			return "", nil
		}
		return "", providers.MissingKey(p.Name())
	}
	if p.Cfg.Auth != nil {
		return p.Cfg.Auth(ctx, key)
	}
	return key, nil
}

func (p *Provider) headers(token string) http.Header {
	h := http.Header{}
	if p.Cfg.BuildHeaders != nil {
		p.Cfg.BuildHeaders(h, token)
		return h
	}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func (p *Provider) endpoint(path string) string { return providers.Endpoint(p.Cfg.BaseURL, path) }

// Chat performs a non-streaming chat completion.
func (p *Provider) Chat(ctx context.Context, msgs []llm.ChatMessage, opt llm.ChatOption) (*llm.ChatResponse, error) {
	token, err := p.credential(ctx)
	if err != nil {
		return nil, err
	}
	body, err := p.BuildRequest(ctx, msgs, opt, false)
	if err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if err := p.Deps.Client.PostJSON(ctx, p.Name(), p.endpoint(p.Cfg.EndpointPath), p.headers(token), body, &raw); err != nil {
		return nil, err
	}
	if p.Cfg.CheckBody != nil {
		if err := p.Cfg.CheckBody(gjson.ParseBytes(raw)); err != nil {
			return nil, err
		}
	}
	return providers.ParseOpenAIResponse(p.Name(), raw, body.Model)
}

// ChatStream performs a streaming chat completion via SSE.
func (p *Provider) ChatStream(ctx context.Context, msgs []llm.ChatMessage, opt llm.ChatOption) (*llm.Stream, error) {
	token, err := p.credential(ctx)
	if err != nil {
		return nil, err
	}
	body, err := p.BuildRequest(ctx, msgs, opt, true)
	if err != nil {
		return nil, err
	}

	rc, err := p.Deps.Client.PostStream(ctx, p.Name(), p.endpoint(p.Cfg.EndpointPath), p.headers(token), body)
	if err != nil {
		return nil, err
	}
	base := llm.ChatResponse{Model: body.Model, Object: "chat.completion.chunk"}
	return streaming.Pipe(ctx, p.Name(), rc, streaming.NewSSEDecoder(rc), p.ExtractDelta, base, p.Logger), nil
}

// Embedding creates one vector per input through the embeddings endpoint.
func (p *Provider) Embedding(ctx context.Context, input []string, opt llm.EmbedOption) (*llm.EmbeddingResponse, error) {
	if !p.SupportsEmbedding() {
		return nil, llm.NewError(llm.ErrUnsupportedProvider, p.Name(), "embedding is not supported")
	}
	if len(input) == 0 {
		return nil, llm.NewError(llm.ErrEmptyInput, p.Name(), "embedding input is empty")
	}
	token, err := p.credential(ctx)
	if err != nil {
		return nil, err
	}

	body := providers.OpenAICompatEmbeddingRequest{
		Model:      providers.ChooseModel(opt.Model, p.Cfg.DefaultEmbedModel, ""),
		Input:      input,
		Dimensions: opt.Dimensions,
	}
	if body.Dimensions == 0 {
		body.Dimensions = p.Cfg.DefaultDimensions
	}
	if p.Cfg.EmbedHook != nil {
		p.Cfg.EmbedHook(opt, &body)
	}

	p.Logger.Debug("embedding request", zap.String("model", body.Model), zap.Int("inputs", len(input)))
	var raw json.RawMessage
	if err := p.Deps.Client.PostJSON(ctx, p.Name(), p.endpoint(p.Cfg.EmbeddingPath), p.headers(token), body, &raw); err != nil {
		return nil, err
	}
	return providers.ParseOpenAIEmbedding(p.Name(), raw, body.Model, len(input))
}
