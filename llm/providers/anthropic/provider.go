package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/BaSui01/uniai/llm"
	"github.com/BaSui01/uniai/llm/format"
	"github.com/BaSui01/uniai/llm/providers"
	"github.com/BaSui01/uniai/llm/streaming"
)

const (
	// DefaultBaseURL Anthropic 官方地址.
	DefaultBaseURL = "https://api.anthropic.com"
	// DefaultModel 未指定模型时使用.
	DefaultModel = "claude-sonnet-4-0"
	// DefaultVersion anthropic-version 请求头.
	DefaultVersion = "2023-06-01"
	// DefaultMaxTokens Messages API 要求 max_tokens 必填.
	DefaultMaxTokens = 4096

	audioPlaceholder = "[Audio input provided but not supported by Claude API]"
)

var (
	temperatureBound = llm.Closed(0, 1)
	topBound         = llm.Closed(0, 1)
	imagePolicy      = format.ImagePolicy("image/png", "image/jpeg", "image/png", "image/gif", "image/webp")
)

// ClaudeProvider 实现 Anthropic Claude 提供者.
// Messages API 与 OpenAI 格式差异较大，独立实现请求构造与流式解析.
type ClaudeProvider struct {
	cfg    providers.AnthropicConfig
	deps   providers.Deps
	logger *zap.Logger
}

// NewClaudeProvider 创建新的 Claude 提供者实例.
func NewClaudeProvider(cfg providers.AnthropicConfig, deps providers.Deps) *ClaudeProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}
	deps = deps.WithDefaults()
	return &ClaudeProvider{
		cfg:    cfg,
		deps:   deps,
		logger: deps.Logger.With(zap.String("provider", string(llm.ProviderAnthropic))),
	}
}

func (p *ClaudeProvider) Name() llm.Provider { return llm.ProviderAnthropic }

func (p *ClaudeProvider) SupportsNativeFunctionCalling() bool { return true }

// Messages API 请求体
type messagesRequest struct {
	Model       string         `json:"model"`
	MaxTokens   int            `json:"max_tokens"`
	Messages    []claudeMsg    `json:"messages"`
	System      string         `json:"system,omitempty"`
	Stream      bool           `json:"stream,omitempty"`
	Temperature *float64       `json:"temperature,omitempty"`
	TopP        *float64       `json:"top_p,omitempty"`
	Tools       []any          `json:"tools,omitempty"`
	ToolChoice  map[string]any `json:"tool_choice,omitempty"`
}

type claudeMsg struct {
	Role    string `json:"role"`
	Content any    `json:"content"` // string 或 []contentBlock
}

type contentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type toolSpec struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	InputSchema any    `json:"input_schema"`
}

func (p *ClaudeProvider) headers(key string) http.Header {
	h := http.Header{}
	h.Set("x-api-key", key)
	h.Set("anthropic-version", p.cfg.Version)
	return h
}

// buildRequest 构造 Messages API 请求体.
func (p *ClaudeProvider) buildRequest(ctx context.Context, msgs []llm.ChatMessage, opt llm.ChatOption, stream bool) (*messagesRequest, error) {
	if err := format.CheckMessages(p.Name(), msgs); err != nil {
		return nil, err
	}
	system, rest := format.SplitSystem(msgs)
	converted, err := p.convertMessages(ctx, rest)
	if err != nil {
		return nil, err
	}
	if len(converted) == 0 {
		return nil, llm.NewError(llm.ErrEmptyInput, p.Name(), "no usable content in messages")
	}

	body := &messagesRequest{
		Model:       providers.ChooseModel(opt.Model, p.cfg.Model, DefaultModel),
		MaxTokens:   opt.MaxLength,
		Messages:    converted,
		System:      system,
		Stream:      stream,
		Temperature: temperatureBound.Apply(opt.Temperature),
		TopP:        topBound.Apply(opt.Top),
		Tools:       convertTools(opt.Tools),
		ToolChoice:  convertToolChoice(opt.ToolChoice),
	}
	if body.MaxTokens <= 0 {
		body.MaxTokens = DefaultMaxTokens
	}
	return body, nil
}

// convertMessages 把统一消息映射为 Claude 消息，tool 结果作为 user 文本回传.
func (p *ClaudeProvider) convertMessages(ctx context.Context, msgs []llm.ChatMessage) ([]claudeMsg, error) {
	out := make([]claudeMsg, 0, len(msgs))
	for _, m := range msgs {
		if !m.HasPayload() {
			continue
		}
		role := "user"
		if m.Role == llm.RoleAssistant {
			role = "assistant"
		}
		if m.Role == llm.RoleTool {
			out = append(out, claudeMsg{Role: "user", Content: "Tool result: " + m.Text()})
			continue
		}

		texts := m.Content.Values()
		if m.Img.Empty() && m.Audio.Empty() && len(texts) <= 1 {
			out = append(out, claudeMsg{Role: role, Content: m.Text()})
			continue
		}

		blocks := make([]contentBlock, 0, len(texts)+len(m.Img))
		for _, t := range texts {
			blocks = append(blocks, contentBlock{Type: "text", Text: t})
		}
		images, err := p.deps.Media.ResolveAll(ctx, p.Name(), m.Img.Values(), imagePolicy)
		if err != nil {
			return nil, err
		}
		for _, img := range images {
			blocks = append(blocks, contentBlock{
				Type:   "image",
				Source: &imageSource{Type: "base64", MediaType: img.MIME, Data: img.Data},
			})
		}
		if !m.Audio.Empty() {
			blocks = append(blocks, contentBlock{Type: "text", Text: audioPlaceholder})
		}
		if len(blocks) == 0 {
			continue
		}
		out = append(out, claudeMsg{Role: role, Content: blocks})
	}
	return out, nil
}

// convertTools OpenAI function 定义转为 input_schema 形式，其它类型原样透传.
func convertTools(tools []llm.Tool) []any {
	if len(tools) == 0 {
		return nil
	}
	out := make([]any, 0, len(tools))
	for _, t := range tools {
		fn, ok := t.Function()
		if !ok {
			out = append(out, map[string]any(t))
			continue
		}
		schema := fn.Parameters
		if schema == nil {
			schema = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		out = append(out, toolSpec{Name: fn.Name, Description: fn.Description, InputSchema: schema})
	}
	return out
}

// convertToolChoice none 不发送，required 对应 any，指定函数对应 tool.
func convertToolChoice(choice any) map[string]any {
	switch c := choice.(type) {
	case nil:
		return nil
	case string:
		switch c {
		case "", "none":
			return nil
		case "required":
			return map[string]any{"type": "any"}
		default:
			return map[string]any{"type": "auto"}
		}
	}
	data, err := json.Marshal(choice)
	if err != nil {
		return nil
	}
	r := gjson.ParseBytes(data)
	if r.Get("type").String() == "function" {
		if name := r.Get("function.name").String(); name != "" {
			return map[string]any{"type": "tool", "name": name}
		}
	}
	return map[string]any{"type": "auto"}
}

// Chat 发送非流式请求.
func (p *ClaudeProvider) Chat(ctx context.Context, msgs []llm.ChatMessage, opt llm.ChatOption) (*llm.ChatResponse, error) {
	key := llm.PickKey(p.cfg.Keys)
	if key == "" {
		return nil, providers.MissingKey(p.Name())
	}
	body, err := p.buildRequest(ctx, msgs, opt, false)
	if err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if err := p.deps.Client.PostJSON(ctx, p.Name(), providers.Endpoint(p.cfg.BaseURL, "/v1/messages"), p.headers(key), body, &raw); err != nil {
		return nil, err
	}
	return parseResponse(raw, body.Model)
}

func parseResponse(data []byte, model string) (*llm.ChatResponse, error) {
	r, err := streaming.Parse(llm.ProviderAnthropic, data)
	if err != nil {
		return nil, err
	}
	if err := providers.BodyError(llm.ProviderAnthropic, r); err != nil {
		return nil, err
	}
	if r.Get("stop_reason").String() == "refusal" {
		return nil, llm.NewError(llm.ErrContentBlocked, llm.ProviderAnthropic, "Content blocked, reason: refusal")
	}

	resp := &llm.ChatResponse{Model: model, Object: "chat.completion"}
	if m := r.Get("model").String(); m != "" {
		resp.Model = m
	}
	var text strings.Builder
	for _, block := range r.Get("content").Array() {
		switch block.Get("type").String() {
		case "text":
			text.WriteString(block.Get("text").String())
		case "tool_use":
			resp.Tools = append(resp.Tools, toolCall(nil, block.Get("id").String(), block.Get("name").String(), block.Get("input").Raw))
		}
	}
	resp.Content = text.String()
	resp.PromptTokens = int(r.Get("usage.input_tokens").Int())
	resp.CompletionTokens = int(r.Get("usage.output_tokens").Int())
	resp.TotalTokens = resp.PromptTokens + resp.CompletionTokens
	return resp, nil
}

// toolCall 以 OpenAI tool_calls 形式表示一次工具调用；index 非 nil 时为流式增量.
func toolCall(index *int, id, name, arguments string) json.RawMessage {
	call := map[string]any{
		"function": map[string]any{"name": name, "arguments": arguments},
	}
	if index != nil {
		call["index"] = *index
	}
	if id != "" {
		call["id"] = id
		call["type"] = "function"
	}
	data, _ := json.Marshal(call)
	return data
}

// ChatStream 发送流式请求，Claude SSE 事件被归一化为统一快照.
func (p *ClaudeProvider) ChatStream(ctx context.Context, msgs []llm.ChatMessage, opt llm.ChatOption) (*llm.Stream, error) {
	key := llm.PickKey(p.cfg.Keys)
	if key == "" {
		return nil, providers.MissingKey(p.Name())
	}
	body, err := p.buildRequest(ctx, msgs, opt, true)
	if err != nil {
		return nil, err
	}

	rc, err := p.deps.Client.PostStream(ctx, p.Name(), providers.Endpoint(p.cfg.BaseURL, "/v1/messages"), p.headers(key), body)
	if err != nil {
		return nil, err
	}
	base := llm.ChatResponse{Model: body.Model, Object: "chat.completion.chunk"}
	return streaming.Pipe(ctx, p.Name(), rc, streaming.NewSSEDecoder(rc), newExtractor(), base, p.logger), nil
}

// newExtractor 每个流独立的事件状态：内容块序号到工具调用序号的映射.
func newExtractor() streaming.Extractor {
	toolIndex := map[int64]int{}
	return func(ev streaming.Event, snap *llm.ChatResponse) (bool, error) {
		r, err := streaming.Parse(llm.ProviderAnthropic, ev.Data)
		if err != nil {
			return false, err
		}
		switch r.Get("type").String() {
		case "error":
			if err := providers.BodyError(llm.ProviderAnthropic, r); err != nil {
				return false, err
			}
			return false, llm.NewError(llm.ErrVendor, llm.ProviderAnthropic, "stream error: %s", r.Raw)

		case "message_start":
			if m := r.Get("message.model").String(); m != "" {
				snap.Model = m
			}
			snap.PromptTokens = int(r.Get("message.usage.input_tokens").Int())
			snap.TotalTokens = snap.PromptTokens + snap.CompletionTokens
			return false, nil

		case "content_block_start":
			block := r.Get("content_block")
			if block.Get("type").String() != "tool_use" {
				return false, nil
			}
			idx := len(toolIndex)
			toolIndex[r.Get("index").Int()] = idx
			snap.Tools = append(snap.Tools, toolCall(&idx, block.Get("id").String(), block.Get("name").String(), ""))
			return true, nil

		case "content_block_delta":
			delta := r.Get("delta")
			switch delta.Get("type").String() {
			case "text_delta":
				snap.Content = delta.Get("text").String()
				return snap.Content != "", nil
			case "input_json_delta":
				idx, ok := toolIndex[r.Get("index").Int()]
				if !ok {
					return false, nil
				}
				snap.Tools = append(snap.Tools, toolCall(&idx, "", "", delta.Get("partial_json").String()))
				return true, nil
			}
			return false, nil

		case "message_delta":
			if r.Get("delta.stop_reason").String() == "refusal" {
				return false, llm.NewError(llm.ErrContentBlocked, llm.ProviderAnthropic, "Content blocked, reason: refusal")
			}
			usage := r.Get("usage")
			if !usage.Exists() {
				return false, nil
			}
			if in := usage.Get("input_tokens"); in.Exists() {
				snap.PromptTokens = int(in.Int())
			}
			snap.CompletionTokens = int(usage.Get("output_tokens").Int())
			snap.TotalTokens = snap.PromptTokens + snap.CompletionTokens
			return true, nil
		}
		// ping / content_block_stop / message_stop
		return false, nil
	}
}
