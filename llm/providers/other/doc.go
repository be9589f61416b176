// Copyright 2026 UniAI Authors. All rights reserved.
// Use of this source code is governed by the project license.

// Package other 对接自部署的 OpenAI 兼容服务。base_url 必填，API Key 可选，
// 不做参数收敛。
package other
