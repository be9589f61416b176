package llm

// ProviderModels 一个服务商可用的模型清单（静态数据）。
type ProviderModels struct {
	Provider Provider `json:"provider"`
	Chat     []string `json:"chat,omitempty"`
	Embed    []string `json:"embed,omitempty"`
}

var chatModels = map[Provider][]string{
	ProviderOpenAI: {
		"gpt-3.5-turbo", "gpt-4", "gpt-4-turbo", "gpt-4o-mini", "gpt-4.1-mini", "gpt-4.1-nano",
		"gpt-4.1", "gpt-5", "gpt-5-mini", "gpt-5-nano", "chatgpt-4o-latest", "gpt-4o",
		"gpt-4o-audio-preview", "o1", "o1-mini", "o1-pro", "o3-mini",
	},
	ProviderAnthropic: {
		"claude-sonnet-4-5-20250929", "claude-opus-4-1", "claude-opus-4-0", "claude-sonnet-4-0",
		"claude-3-7-sonnet-latest", "claude-3-5-haiku-latest", "claude-3-haiku-20240307",
	},
	ProviderDeepSeek: {"deepseek-chat", "deepseek-reasoner"},
	ProviderIFlyTek:  {"lite", "generalv3", "pro-128k", "generalv3.5", "max-32k", "4.0Ultra"},
	ProviderBaidu: {
		"completions", "ernie-3.5-8k-preview", "ernie-3.5-128k", "ernie-4.0-8k-latest",
		"ernie-4.0-8k-preview", "completions_pro", "ernie-4.0-turbo-8k-latest",
		"ernie-4.0-turbo-8k-preview", "ernie-4.0-turbo-8k", "ernie-4.0-turbo-128k", "ernie_speed",
		"ernie-speed-128k", "ernie-speed-pro-128k", "ernie-lite-8k", "ernie-lite-pro-128k",
		"ernie-tiny-8k", "ernie-char-8k", "ernie-char-fiction-8k", "ernie-novel-8k",
	},
	ProviderGoogle: {
		"gemini-2.0-flash", "gemini-2.0-flash-lite", "gemini-2.5-pro", "gemini-2.5-flash",
		"gemini-2.5-flash-lite",
	},
	ProviderGLM: {
		"glm-3-turbo", "glm-4", "glm-4-air", "glm-4-airx", "glm-4-flash", "glm-4-flashx",
		"glm-4v", "glm-4v-plus", "glm-4-long", "glm-4-plus",
	},
	ProviderMoonShot: {
		"kimi-k2-0711-preview", "moonshot-v1-8k", "moonshot-v1-32k", "moonshot-v1-128k",
		"moonshot-v1-auto", "kimi-latest", "moonshot-v1-8k-vision-preview",
		"moonshot-v1-32k-vision-preview", "moonshot-v1-128k-vision-preview", "kimi-thinking-preview",
	},
	ProviderAliYun: {
		"qwen-max", "qwen-plus", "qwen-flash", "qwen-turbo", "qwq-plus", "qvq-max", "qvq-plus",
		"qwen-long", "qwen-coder-turbo", "qwen3-coder-plus", "qwen3-coder-flash", "qwen-math-plus",
		"qwen-vl-max", "qwen-vl-plus",
	},
	ProviderXAI: {
		"grok-code-fast-1", "grok-4-fast-reasoning", "grok-4-fast-non-reasoning", "grok-4-0709",
		"grok-3-mini", "grok-3", "grok-2-vision-1212us-east-1", "grok-2-vision-1212eu-west-1",
	},
	ProviderArk: {
		"doubao-seed-1-6-250615", "doubao-seed-1-6-vision-250815", "doubao-seed-1-6-flash-250828",
		"doubao-seed-1-6-thinking-250715", "deepseek-v3-1-250821",
	},
}

var embedModels = map[Provider][]string{
	ProviderOpenAI: {"text-embedding-ada-002", "text-embedding-3-large", "text-embedding-3-small"},
	ProviderGoogle: {"gemini-embedding-001"},
	ProviderGLM:    {"embedding-2", "embedding-3"},
	ProviderAliYun: {
		"text-embedding-v3", "text-embedding-v2", "text-embedding-v1",
		"text-embedding-async-v2", "text-embedding-async-v1",
	},
	ProviderOther: {
		"bge-m3", "text2vec-base-chinese", "text2vec-large-chinese",
		"text2vec-base-chinese-paraphrase", "text2vec-base-chinese-sentence",
		"text2vec-base-multilingual", "paraphrase-multilingual-MiniLM-L12-v2",
	},
}

// Models 返回全部服务商的模型清单，按 ChatProviders 顺序排列。
func Models() []ProviderModels {
	out := make([]ProviderModels, 0, len(chatModels))
	for _, p := range ChatProviders() {
		out = append(out, ProviderModels{
			Provider: p,
			Chat:     append([]string(nil), chatModels[p]...),
			Embed:    append([]string(nil), embedModels[p]...),
		})
	}
	return out
}

// ModelsOf 返回单个服务商的模型清单。
func ModelsOf(p Provider) (ProviderModels, bool) {
	chat, okChat := chatModels[p]
	embed, okEmbed := embedModels[p]
	if !okChat && !okEmbed && p != ProviderOther {
		return ProviderModels{}, false
	}
	return ProviderModels{
		Provider: p,
		Chat:     append([]string(nil), chat...),
		Embed:    append([]string(nil), embed...),
	}, true
}
