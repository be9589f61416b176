package providers

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/BaSui01/uniai/llm"
	"github.com/BaSui01/uniai/llm/format"
	"github.com/BaSui01/uniai/llm/streaming"
	"github.com/BaSui01/uniai/llm/tokencache"
	"github.com/BaSui01/uniai/llm/transport"
)

// Deps 所有适配器共享的运行时依赖，由 factory 构造后注入。
type Deps struct {
	Client *transport.Client
	Media  *format.Resolver
	Tokens *tokencache.Cache
	Logger *zap.Logger
}

// WithDefaults 为未设置的依赖填充默认实现。
func (d Deps) WithDefaults() Deps {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Client == nil {
		d.Client = transport.NewWithHTTPClient(nil, d.Logger)
	}
	if d.Media == nil {
		d.Media = format.NewResolver(d.Client, format.WithLogger(d.Logger))
	}
	if d.Tokens == nil {
		d.Tokens = tokencache.New(nil, tokencache.WithLogger(d.Logger))
	}
	return d
}

// ChooseModel 按优先级选择模型：请求 > 配置 > 内置默认。
func ChooseModel(requested, configured, fallback string) string {
	if requested != "" {
		return requested
	}
	if configured != "" {
		return configured
	}
	return fallback
}

// Endpoint 拼接基础地址与路径。
func Endpoint(baseURL, path string) string {
	return strings.TrimRight(baseURL, "/") + path
}

// MissingKey 未配置密钥时的标准错误。
func MissingKey(provider llm.Provider) error {
	return llm.NewError(llm.ErrMissingCredential, provider, "API key is not set in config")
}

// OpenAI 兼容 API 通用类型
// 这些类型被 OpenAI、DeepSeek、Qwen、GLM、Doubao、Grok、iFlyTek 等兼容 OpenAI 的服务商共用.

// OpenAICompatMessage 表示 OpenAI 兼容的消息格式.
// Content 为纯文本 string 或多模态 []ContentPart.
type OpenAICompatMessage struct {
	Role       string `json:"role"`
	Content    any    `json:"content"`
	Name       string `json:"name,omitempty"`
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// ContentPart 多模态消息片段.
type ContentPart struct {
	Type       string      `json:"type"`
	Text       string      `json:"text,omitempty"`
	ImageURL   *ImageURL   `json:"image_url,omitempty"`
	InputAudio *InputAudio `json:"input_audio,omitempty"`
}

// ImageURL 图片地址或 data URI.
type ImageURL struct {
	URL string `json:"url"`
}

// InputAudio base64 音频.
type InputAudio struct {
	Data   string `json:"data"`
	Format string `json:"format"`
}

// StreamOptions 流式选项.
type StreamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

// OpenAICompatRequest 表示 OpenAI 兼容的聊天完成请求.
// 采样参数使用指针，未设置时不发送.
type OpenAICompatRequest struct {
	Model               string                `json:"model"`
	Messages            []OpenAICompatMessage `json:"messages"`
	Stream              bool                  `json:"stream"`
	StreamOptions       *StreamOptions        `json:"stream_options,omitempty"`
	Temperature         *float64              `json:"temperature,omitempty"`
	TopP                *float64              `json:"top_p,omitempty"`
	TopK                int                   `json:"top_k,omitempty"`
	MaxTokens           int                   `json:"max_tokens,omitempty"`
	MaxCompletionTokens int                   `json:"max_completion_tokens,omitempty"`
	Tools               []llm.Tool            `json:"tools,omitempty"`
	ToolChoice          any                   `json:"tool_choice,omitempty"`
	RequestID           string                `json:"request_id,omitempty"`
	User                string                `json:"user,omitempty"`
}

// OpenAICompatEmbeddingRequest 表示 OpenAI 兼容的 Embedding 请求.
type OpenAICompatEmbeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

// BodyError 检查 200 响应体中的错误字段。
// 覆盖 {"error": {...}} 与 {"error_code": n, "error_msg": ""} 两种写法。
func BodyError(provider llm.Provider, r gjson.Result) error {
	if e := r.Get("error"); e.Exists() && e.Type != gjson.Null {
		msg := e.Get("message").String()
		if msg == "" {
			msg = e.String()
		}
		return vendorError(provider, msg)
	}
	if code := r.Get("error_code"); code.Exists() && code.Int() != 0 {
		return vendorError(provider, fmt.Sprintf("%s (code: %d)", r.Get("error_msg").String(), code.Int()))
	}
	return nil
}

func vendorError(provider llm.Provider, msg string) error {
	code := llm.ErrVendor
	if transport.IsBlocked(msg) {
		code = llm.ErrContentBlocked
	}
	return &llm.Error{Code: code, Message: msg, Provider: string(provider)}
}

// ParseOpenAIResponse 把一次完整的 OpenAI 兼容响应映射为统一响应。
// 缺失的用量与工具调用字段按零值处理。
func ParseOpenAIResponse(provider llm.Provider, data []byte, model string) (*llm.ChatResponse, error) {
	r, err := streaming.Parse(provider, data)
	if err != nil {
		return nil, err
	}
	if err := BodyError(provider, r); err != nil {
		return nil, err
	}
	msg := r.Get("choices.0.message")
	resp := &llm.ChatResponse{
		Content: msg.Get("content").String(),
		Tools:   streaming.RawList(msg.Get("tool_calls")),
		Model:   ChooseModel(r.Get("model").String(), model, ""),
		Object:  ChooseModel(r.Get("object").String(), "chat.completion", ""),
	}
	if reason := r.Get("choices.0.finish_reason").String(); reason == "content_filter" || reason == "sensitive" {
		return nil, llm.NewError(llm.ErrContentBlocked, provider, "Content blocked, reason: %s", reason)
	}
	streaming.ApplyUsage(resp, r.Get("usage.prompt_tokens"), r.Get("usage.completion_tokens"), r.Get("usage.total_tokens"))
	return resp, nil
}

// ParseOpenAIEmbedding 把 OpenAI 兼容的 Embedding 响应映射为统一响应，按 index 排序。
func ParseOpenAIEmbedding(provider llm.Provider, data []byte, model string, inputs int) (*llm.EmbeddingResponse, error) {
	r, err := streaming.Parse(provider, data)
	if err != nil {
		return nil, err
	}
	if err := BodyError(provider, r); err != nil {
		return nil, err
	}
	items := r.Get("data").Array()
	out := &llm.EmbeddingResponse{
		Embedding:    make([][]float64, len(items)),
		Model:        ChooseModel(r.Get("model").String(), model, ""),
		Object:       "embedding",
		PromptTokens: int(r.Get("usage.prompt_tokens").Int()),
		TotalTokens:  int(r.Get("usage.total_tokens").Int()),
	}
	for i, it := range items {
		idx := i
		if v := it.Get("index"); v.Exists() {
			idx = int(v.Int())
		}
		if idx < 0 || idx >= len(items) {
			return nil, llm.NewError(llm.ErrVendor, provider, "embedding index %d out of range", idx)
		}
		if out.Embedding[idx] != nil {
			return nil, llm.NewError(llm.ErrVendor, provider, "duplicate embedding index %d", idx)
		}
		var vec []float64
		if err := json.Unmarshal([]byte(it.Get("embedding").Raw), &vec); err != nil {
			return nil, llm.TransportError(provider, fmt.Errorf("decode embedding: %w", err))
		}
		if vec == nil {
			vec = []float64{}
		}
		out.Embedding[idx] = vec
	}
	if len(out.Embedding) != inputs {
		return nil, llm.NewError(llm.ErrVendor, provider, "expected %d embeddings, got %d", inputs, len(out.Embedding))
	}
	return out, nil
}
