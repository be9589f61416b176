// Copyright 2026 UniAI Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
# 概述

包 openai 提供 OpenAI 模型的 Provider 适配实现。该包基于 openaicompat
兼容层，是其余兼容 Provider 的参考实现。

# 核心结构体

  - OpenAIProvider：嵌入 openaicompat.Provider

# 定制行为

  - 默认 BaseURL: https://api.openai.com
  - 默认模型: gpt-4.1；默认 Embedding 模型: text-embedding-ada-002
  - 长度参数使用 max_completion_tokens
  - 流式请求携带 stream_options.include_usage，最后一个快照带用量
  - temperature 与 top_p 收敛到 [0,1]
  - ada-002 不发送 dimensions，其余 Embedding 模型默认 1536 维

# 支持能力

  - Chat Completions（同步与 SSE 流式）
  - 原生 Function Calling / Tool Use
  - 图片（URL 直传或 data URI）与音频输入
  - Embedding（/v1/embeddings）
*/
package openai
