// Copyright 2026 UniAI Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
包 kimi 提供月之暗面 Moonshot Kimi 的 Provider 适配实现，嵌入 openaicompat.Provider。

  - 默认 BaseURL: https://api.moonshot.cn，默认模型 moonshot-v1-8k
  - temperature 与 top_p 收敛到 [0,1]
  - 不转发 tools，不支持 Embedding
*/
package kimi
