// Copyright 2026 UniAI Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
# 概述

包 gemini 提供 Google Gemini 模型的 Provider 适配实现，对接
Generative Language API（v1beta）。

# 协议差异

  - 认证使用 key 查询参数
  - system 消息合并后放入 system_instruction，为空时不发送
  - 消息整理为严格交替的 user / model 轮次，最后一条总是 user，
    空白的用户文本以单个空格代替
  - 图片与音频以 inline_data 传递，无法识别类型的图片按 image/png 处理
  - 四类可配置的安全过滤全部设为 BLOCK_NONE
  - 流式接口 streamGenerateContent 返回 JSON 数组，逐元素解析

# 错误映射

  - promptFeedback.blockReason 与 SAFETY 等结束原因映射为 ContentBlocked
  - 没有 candidates 的响应映射为 VendorError

# Embedding

每条输入单独调用 embedContent，最多 8 个并发请求，结果保持输入顺序；
默认模型 gemini-embedding-001，输出维度 768。
*/
package gemini
