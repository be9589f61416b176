// Copyright 2026 UniAI Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
# 概述

包 qwen 提供阿里云通义千问的 Provider 适配实现，走 DashScope 的
OpenAI 兼容模式接口。

# 定制行为

  - 默认 BaseURL: https://dashscope.aliyuncs.com
  - Chat: /compatible-mode/v1/chat/completions，默认模型 qwen-turbo
  - Embedding: /compatible-mode/v1/embeddings，默认 text-embedding-v3，1024 维
  - temperature 取值 [0,2)，越界时落到 0 或 1.9
  - top_p 取值 (0,1]，小于等于 0 时落到 0.1
  - 流式请求携带 include_usage
*/
package qwen
