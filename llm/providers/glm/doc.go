// Copyright 2026 UniAI Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
# 概述

包 glm 提供智谱 AI GLM 系列模型的 Provider 适配实现，嵌入 openaicompat.Provider。

# 定制行为

  - 默认 BaseURL: https://open.bigmodel.cn
  - Chat: /api/paas/v4/chat/completions，默认模型 glm-3-turbo
  - Embedding: /api/paas/v4/embeddings，默认 embedding-2，1024 维
  - temperature 取值 (0,1]，top_p 取值 (0,1)，越界值分别落到 0.1 / 1 与 0.1 / 0.9
  - 每次请求携带随机 request_id
  - 非视觉模型（glm-4v、glm-4v-plus、glm-4v-flash 之外）丢弃图片
  - 流式输出只发出带内容或工具调用的快照

# 鉴权

配置 jwt: true 时，id.secret 形式的 API Key 会被签名为 HS256 JWT
（头部 sign_type=SIGN，payload 含 api_key、exp、timestamp，毫秒），
签名结果通过 tokencache 按 id 缓存，过期前一分钟重新签发。
*/
package glm
