package llm

import (
	"context"
	"encoding/json"
	"strings"
)

// Provider 模型服务商标签，用于在调度器中选择适配器。
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderDeepSeek  Provider = "deepseek"
	ProviderIFlyTek   Provider = "iflytek"
	ProviderBaidu     Provider = "baidu"
	ProviderGoogle    Provider = "google"
	ProviderGLM       Provider = "glm"
	ProviderMoonShot  Provider = "moonshot"
	ProviderAliYun    Provider = "aliyun"
	ProviderXAI       Provider = "xai"
	ProviderArk       Provider = "ark" // 火山方舟
	ProviderOther     Provider = "other"
)

// ChatProviders 返回全部对话服务商，顺序固定。
func ChatProviders() []Provider {
	return []Provider{
		ProviderOpenAI, ProviderAnthropic, ProviderDeepSeek, ProviderIFlyTek,
		ProviderBaidu, ProviderGoogle, ProviderGLM, ProviderMoonShot,
		ProviderAliYun, ProviderXAI, ProviderArk, ProviderOther,
	}
}

// EmbedProviders 返回支持 Embedding 的服务商。
func EmbedProviders() []Provider {
	return []Provider{ProviderOpenAI, ProviderGoogle, ProviderGLM, ProviderAliYun, ProviderOther}
}

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// DefaultMessage 调用方未提供任何消息时使用的提示语。
const DefaultMessage = "Hi, who are you? Answer in 10 words!"

// Strings 兼容 JSON 中的 string 与 string[] 两种写法。
type Strings []string

// UnmarshalJSON 接受字符串、字符串数组或 null。
func (s *Strings) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*s = nil
		return nil
	}
	if strings.HasPrefix(trimmed, "\"") {
		var one string
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*s = Strings{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = Strings(many)
	return nil
}

// Join 以 sep 连接非空片段。
func (s Strings) Join(sep string) string {
	parts := make([]string, 0, len(s))
	for _, v := range s {
		if strings.TrimSpace(v) != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, sep)
}

// Values 返回去除空白项后的条目。
func (s Strings) Values() []string {
	out := make([]string, 0, len(s))
	for _, v := range s {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Empty 所有片段均为空白时返回 true。
func (s Strings) Empty() bool { return len(s.Values()) == 0 }

// ChatMessage 统一的对话消息。
type ChatMessage struct {
	Role        Role    `json:"role"`
	Content     Strings `json:"content,omitempty"`
	Name        string  `json:"name,omitempty"`
	Img         Strings `json:"img,omitempty"`
	Audio       Strings `json:"audio,omitempty"`
	AudioFormat string  `json:"audioFormat,omitempty"`
	Tool        string  `json:"tool,omitempty"` // tool 消息所响应的调用 ID
}

// Text 返回合并后的文本内容。
func (m ChatMessage) Text() string { return m.Content.Join("\n") }

// HasPayload 消息携带文本、图片或音频任意一项时返回 true。
func (m ChatMessage) HasPayload() bool {
	return !m.Content.Empty() || !m.Img.Empty() || !m.Audio.Empty()
}

// Prompt 将单条文本包装为一条 user 消息。
func Prompt(text string) []ChatMessage {
	return []ChatMessage{{Role: RoleUser, Content: Strings{text}}}
}

// Tool 透传的工具定义，形如 {"type": "function", "function": {...}}。
type Tool map[string]any

// FunctionSpec OpenAI 风格的函数定义。
type FunctionSpec struct {
	Name        string
	Description string
	Parameters  any
}

// Type 返回工具类型。
func (t Tool) Type() string {
	v, _ := t["type"].(string)
	return v
}

// Function 读取 function 字段，非函数工具返回 false。
func (t Tool) Function() (FunctionSpec, bool) {
	fn, ok := t["function"].(map[string]any)
	if !ok {
		return FunctionSpec{}, false
	}
	spec := FunctionSpec{Parameters: fn["parameters"]}
	spec.Name, _ = fn["name"].(string)
	spec.Description, _ = fn["description"].(string)
	return spec, spec.Name != ""
}

// ChatOption 对话选项。Top 与 Temperature 为 nil 时不下发给服务商。
type ChatOption struct {
	Stream      bool     `json:"stream,omitempty"`
	Provider    Provider `json:"provider,omitempty"`
	Model       string   `json:"model,omitempty"`
	Top         *float64 `json:"top,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	MaxLength   int      `json:"maxLength,omitempty"`
	Tools       []Tool   `json:"tools,omitempty"`
	ToolChoice  any      `json:"toolChoice,omitempty"` // none/auto/required 或 {"type":"function",...}
}

// EmbedOption Embedding 选项。
type EmbedOption struct {
	Provider   Provider `json:"provider,omitempty"`
	Model      string   `json:"model,omitempty"`
	Dimensions int      `json:"dimensions,omitempty"`
}

// Float 返回 v 的指针，便于构造 ChatOption。
func Float(v float64) *float64 { return &v }

// ChatResponse 统一的对话结果。流式调用中每个快照都是一个 ChatResponse，
// Content 仅包含本次事件的增量文本。
type ChatResponse struct {
	Content          string            `json:"content"`
	Tools            []json.RawMessage `json:"tools,omitempty"`
	PromptTokens     int               `json:"promptTokens"`
	CompletionTokens int               `json:"completionTokens"`
	TotalTokens      int               `json:"totalTokens"`
	Model            string            `json:"model"`
	Object           string            `json:"object"`
}

// HasUsage 是否携带了用量信息。
func (r *ChatResponse) HasUsage() bool {
	return r.PromptTokens > 0 || r.CompletionTokens > 0 || r.TotalTokens > 0
}

// EmbeddingResponse 统一的向量结果，Embedding 与输入一一对应。
type EmbeddingResponse struct {
	Embedding    [][]float64 `json:"embedding"`
	Model        string      `json:"model"`
	Object       string      `json:"object"`
	PromptTokens int         `json:"promptTokens"`
	TotalTokens  int         `json:"totalTokens"`
}

// ChatProvider 对话适配器。
type ChatProvider interface {
	Name() Provider
	Chat(ctx context.Context, messages []ChatMessage, opt ChatOption) (*ChatResponse, error)
	ChatStream(ctx context.Context, messages []ChatMessage, opt ChatOption) (*Stream, error)
}

// Embedder 向量适配器，并非所有服务商都实现。
type Embedder interface {
	Embedding(ctx context.Context, input []string, opt EmbedOption) (*EmbeddingResponse, error)
}
