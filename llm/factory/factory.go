// Package factory provides a centralized factory for creating provider
// adapters by tag. It imports all provider sub-packages and maps tags to
// their constructors, breaking the import cycle that would occur if this
// logic lived in the llm package directly.
package factory

import (
	"go.uber.org/zap"

	"github.com/BaSui01/uniai/llm"
	"github.com/BaSui01/uniai/llm/providers"
	"github.com/BaSui01/uniai/llm/providers/anthropic"
	"github.com/BaSui01/uniai/llm/providers/baidu"
	"github.com/BaSui01/uniai/llm/providers/deepseek"
	"github.com/BaSui01/uniai/llm/providers/doubao"
	"github.com/BaSui01/uniai/llm/providers/gemini"
	"github.com/BaSui01/uniai/llm/providers/glm"
	"github.com/BaSui01/uniai/llm/providers/grok"
	"github.com/BaSui01/uniai/llm/providers/iflytek"
	"github.com/BaSui01/uniai/llm/providers/kimi"
	"github.com/BaSui01/uniai/llm/providers/openai"
	"github.com/BaSui01/uniai/llm/providers/other"
	"github.com/BaSui01/uniai/llm/providers/qwen"
)

// NewProvider creates the adapter for one provider tag.
// Unknown tags yield an UnsupportedProvider error.
func NewProvider(tag llm.Provider, cfg providers.Config, deps providers.Deps) (llm.ChatProvider, error) {
	switch tag {
	case llm.ProviderOpenAI:
		return openai.NewOpenAIProvider(cfg.OpenAI, deps), nil
	case llm.ProviderAnthropic:
		return anthropic.NewClaudeProvider(cfg.Anthropic, deps), nil
	case llm.ProviderDeepSeek:
		return deepseek.NewDeepSeekProvider(cfg.DeepSeek, deps), nil
	case llm.ProviderIFlyTek:
		return iflytek.NewIFlyTekProvider(cfg.IFlyTek, deps), nil
	case llm.ProviderBaidu:
		return baidu.NewBaiduProvider(cfg.Baidu, deps), nil
	case llm.ProviderGoogle:
		return gemini.NewGeminiProvider(cfg.Google, deps), nil
	case llm.ProviderGLM:
		return glm.NewGLMProvider(cfg.GLM, deps), nil
	case llm.ProviderMoonShot:
		return kimi.NewKimiProvider(cfg.MoonShot, deps), nil
	case llm.ProviderAliYun:
		return qwen.NewQwenProvider(cfg.AliYun, deps), nil
	case llm.ProviderXAI:
		return grok.NewGrokProvider(cfg.XAI, deps), nil
	case llm.ProviderArk:
		return doubao.NewDoubaoProvider(cfg.Ark, deps), nil
	case llm.ProviderOther:
		return other.NewOtherProvider(cfg.Other, deps), nil
	default:
		return nil, llm.NewError(llm.ErrUnsupportedProvider, tag, "unknown provider %q", tag)
	}
}

// Build creates an adapter for every known provider tag. Adapters without
// credentials are still registered; their calls fail with MissingCredential.
func Build(cfg providers.Config, deps providers.Deps) map[llm.Provider]llm.ChatProvider {
	deps = deps.WithDefaults()
	out := make(map[llm.Provider]llm.ChatProvider, len(llm.ChatProviders()))
	configured := 0
	for _, tag := range llm.ChatProviders() {
		p, err := NewProvider(tag, cfg, deps)
		if err != nil {
			deps.Logger.Warn("provider skipped", zap.String("provider", string(tag)), zap.Error(err))
			continue
		}
		out[tag] = p
		if Configured(tag, cfg) {
			configured++
		}
	}
	deps.Logger.Debug("provider registry built",
		zap.Int("providers", len(out)),
		zap.Int("configured", configured))
	return out
}

// Configured reports whether credentials for tag are present in cfg.
func Configured(tag llm.Provider, cfg providers.Config) bool {
	switch tag {
	case llm.ProviderOpenAI:
		return len(cfg.OpenAI.Keys) > 0
	case llm.ProviderAnthropic:
		return len(cfg.Anthropic.Keys) > 0
	case llm.ProviderDeepSeek:
		return len(cfg.DeepSeek.Keys) > 0
	case llm.ProviderIFlyTek:
		return len(cfg.IFlyTek.Passwords()) > 0
	case llm.ProviderBaidu:
		return len(cfg.Baidu.Keys) > 0 && cfg.Baidu.SecretKey != ""
	case llm.ProviderGoogle:
		return len(cfg.Google.Keys) > 0
	case llm.ProviderGLM:
		return len(cfg.GLM.Keys) > 0
	case llm.ProviderMoonShot:
		return len(cfg.MoonShot.Keys) > 0
	case llm.ProviderAliYun:
		return len(cfg.AliYun.Keys) > 0
	case llm.ProviderXAI:
		return len(cfg.XAI.Keys) > 0
	case llm.ProviderArk:
		return len(cfg.Ark.Keys) > 0
	case llm.ProviderOther:
		return cfg.Other.BaseURL != ""
	}
	return false
}
