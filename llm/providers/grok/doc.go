// Copyright 2026 UniAI Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
包 grok 提供 xAI Grok 模型的 Provider 适配实现，嵌入 openaicompat.Provider。

默认 BaseURL 为 https://api.x.ai，默认模型 grok-4-fast-non-reasoning；
temperature 收敛到 [0,2]，top_p 收敛到 [0,1]，支持原生 Function Calling。
*/
package grok
