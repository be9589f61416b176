// Package openaicompat provides a shared base implementation for all
// OpenAI-compatible providers.
//
// OpenAI, DeepSeek, Qwen, GLM, Grok, Doubao, Kimi, iFlyTek and self-hosted
// endpoints share the same API format (OpenAI Chat Completions). Instead of
// duplicating HTTP handling, SSE parsing, message conversion, and error mapping
// in each provider, they embed openaicompat.Provider and only override what differs:
//
//   - Provider tag, base URL and default model
//   - Clamping ranges for temperature and top_p
//   - Custom headers or auth (GLM JWT)
//   - Request hooks for provider-specific fields
//
// Usage:
//
//	p := openaicompat.New(openaicompat.Config{
//	    ProviderName: llm.ProviderDeepSeek,
//	    Keys:         cfg.Keys,
//	    BaseURL:      "https://api.deepseek.com",
//	    EndpointPath: "/chat/completions",
//	    DefaultModel: "deepseek-chat",
//	    Temperature:  llm.Closed(0, 2),
//	    TopP:         llm.Closed(0, 1),
//	}, deps)
package openaicompat
