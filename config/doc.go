// Copyright 2026 UniAI Authors. All rights reserved.
// Use of this source code is governed by the project license.

// Package config 提供 UniAI 的配置管理功能。
//
// # 概述
//
// 配置按 默认值 → YAML 文件 → 环境变量 的顺序叠加。环境变量名由前缀
// （默认 UNIAI）与字段 env tag 以下划线拼接而成，例如
// UNIAI_PROVIDERS_OPENAI_KEYS=sk-1,sk-2。
//
// # 配置分组
//
//   - providers: 各服务商的密钥、基础地址、默认模型
//   - http: 响应头超时、代理、媒体下载上限
//   - token_cache: 访问令牌缓存驱动（memory / redis / sqlite）
//   - log / metrics / telemetry: 日志、Prometheus 指标与 OTLP 导出
package config
