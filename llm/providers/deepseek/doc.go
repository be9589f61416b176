// Copyright 2026 UniAI Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
# 概述

包 deepseek 提供 DeepSeek 模型的 Provider 适配实现。DeepSeek 使用
OpenAI 兼容的 API 格式，因此本包通过嵌入 openaicompat.Provider 复用
HTTP 处理、SSE 解析、消息转换等通用逻辑，仅定制差异部分。

# 定制行为

  - 默认 BaseURL: https://api.deepseek.com
  - 默认模型: deepseek-chat
  - Endpoint: /chat/completions（无 /v1 前缀）
  - temperature 收敛到 [0,2]，top_p 收敛到 [0,1]
  - 流式请求携带 include_usage

# 不支持能力

  Embedding 返回 UnsupportedProvider。
*/
package deepseek
