package providers

// BaseProviderConfig 所有 Provider 共享的基础配置字段。
// 通过嵌入此结构体，各 Provider 的 Config 自动获得 Keys、BaseURL、Model、EmbedModel 四个字段，
// 避免重复定义。Keys 配置多个时每次调用随机选取一个。
type BaseProviderConfig struct {
	Keys       []string `json:"keys" yaml:"keys" env:"KEYS"`
	BaseURL    string   `json:"base_url" yaml:"base_url" env:"BASE_URL"`
	Model      string   `json:"model,omitempty" yaml:"model,omitempty" env:"MODEL"`
	EmbedModel string   `json:"embed_model,omitempty" yaml:"embed_model,omitempty" env:"EMBED_MODEL"`
}

// OpenAIConfig OpenAI Provider 配置
type OpenAIConfig struct {
	BaseProviderConfig `yaml:",inline"`
}

// AnthropicConfig Anthropic Claude Provider 配置
type AnthropicConfig struct {
	BaseProviderConfig `yaml:",inline"`
	// Version anthropic-version 请求头，默认 2023-06-01
	Version string `json:"version,omitempty" yaml:"version,omitempty" env:"VERSION"`
}

// DeepSeekConfig DeepSeek Provider 配置
type DeepSeekConfig struct {
	BaseProviderConfig `yaml:",inline"`
}

// IFlyTekConfig 讯飞星火 Provider 配置。
// HTTP 接口以 APIPassword 作为 Bearer 凭证，AppID 与 APISecret 仅用于 WebSocket 接口，此处保留以便统一管理。
type IFlyTekConfig struct {
	BaseProviderConfig `yaml:",inline"`
	AppID              string `json:"app_id,omitempty" yaml:"app_id,omitempty" env:"APP_ID"`
	APISecret          string `json:"api_secret,omitempty" yaml:"api_secret,omitempty" env:"API_SECRET"`
	APIPassword        string `json:"api_password,omitempty" yaml:"api_password,omitempty" env:"API_PASSWORD"`
}

// Passwords 返回全部可用的 APIPassword：Keys 与 APIPassword 合并。
func (c IFlyTekConfig) Passwords() []string {
	out := append([]string(nil), c.Keys...)
	if c.APIPassword != "" {
		out = append(out, c.APIPassword)
	}
	return out
}

// BaiduConfig 百度文心 Provider 配置，Keys 为 API Key（client_id）。
type BaiduConfig struct {
	BaseProviderConfig `yaml:",inline"`
	SecretKey          string `json:"secret_key,omitempty" yaml:"secret_key,omitempty" env:"SECRET_KEY"`
}

// GeminiConfig Google Gemini Provider 配置
type GeminiConfig struct {
	BaseProviderConfig `yaml:",inline"`
}

// GLMConfig Zhipu AI GLM Provider 配置
type GLMConfig struct {
	BaseProviderConfig `yaml:",inline"`
	// JWT 为 true 时把 id.secret 形式的密钥签名为 JWT 后再使用
	JWT bool `json:"jwt,omitempty" yaml:"jwt,omitempty" env:"JWT"`
}

// KimiConfig Moonshot Kimi Provider 配置
type KimiConfig struct {
	BaseProviderConfig `yaml:",inline"`
}

// QwenConfig Alibaba Qwen Provider 配置
type QwenConfig struct {
	BaseProviderConfig `yaml:",inline"`
}

// GrokConfig xAI Grok Provider 配置
type GrokConfig struct {
	BaseProviderConfig `yaml:",inline"`
}

// DoubaoConfig ByteDance Doubao (火山方舟) Provider 配置
type DoubaoConfig struct {
	BaseProviderConfig `yaml:",inline"`
}

// OtherConfig 自部署的 OpenAI 兼容服务，BaseURL 必填，Keys 可为空。
type OtherConfig struct {
	BaseProviderConfig `yaml:",inline"`
}

// Config 全部服务商的配置，按服务商标签分组。
type Config struct {
	OpenAI    OpenAIConfig    `json:"openai" yaml:"openai" env:"OPENAI"`
	Anthropic AnthropicConfig `json:"anthropic" yaml:"anthropic" env:"ANTHROPIC"`
	DeepSeek  DeepSeekConfig  `json:"deepseek" yaml:"deepseek" env:"DEEPSEEK"`
	IFlyTek   IFlyTekConfig   `json:"iflytek" yaml:"iflytek" env:"IFLYTEK"`
	Baidu     BaiduConfig     `json:"baidu" yaml:"baidu" env:"BAIDU"`
	Google    GeminiConfig    `json:"google" yaml:"google" env:"GOOGLE"`
	GLM       GLMConfig       `json:"glm" yaml:"glm" env:"GLM"`
	MoonShot  KimiConfig      `json:"moonshot" yaml:"moonshot" env:"MOONSHOT"`
	AliYun    QwenConfig      `json:"aliyun" yaml:"aliyun" env:"ALIYUN"`
	XAI       GrokConfig      `json:"xai" yaml:"xai" env:"XAI"`
	Ark       DoubaoConfig    `json:"ark" yaml:"ark" env:"ARK"`
	Other     OtherConfig     `json:"other" yaml:"other" env:"OTHER"`
}
