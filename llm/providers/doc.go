// Copyright 2026 UniAI Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
# 概述

包 providers 提供跨模型服务商的通用适配与辅助能力，是所有具体 Provider
实现的公共基础层。各服务商子包（openai、anthropic、gemini 等）依赖本包
完成依赖注入、OpenAI 兼容格式的序列化与响应映射。

# 核心类型

  - Deps：适配器共享依赖（HTTP 传输、媒体解析、令牌缓存、日志）
  - BaseProviderConfig：所有 Provider 共享的基础配置（Keys、BaseURL、Model、EmbedModel）
  - OpenAICompat* 系列：OpenAI 兼容 API 的通用请求结构体

# 核心函数

  - ParseOpenAIResponse / ParseOpenAIEmbedding：OpenAI 兼容响应到统一响应的映射
  - BodyError：识别 HTTP 200 响应体中的服务商错误
  - ChooseModel：按优先级选择模型（请求 > 配置 > 内置默认）
*/
package providers
