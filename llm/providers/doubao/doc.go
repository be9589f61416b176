// Copyright 2026 UniAI Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
包 doubao 提供火山方舟（豆包）的 Provider 适配实现。

  - 默认 BaseURL: https://ark.cn-beijing.volces.com
  - Endpoint: /api/v3/chat/completions
  - 默认模型: doubao-seed-1-6-250615
*/
package doubao
