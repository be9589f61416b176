// Copyright 2026 UniAI Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
# 概述

包 anthropic 提供 Anthropic Claude 系列模型的 Provider 适配实现。
Claude API 与 OpenAI 格式有显著差异，本包负责将统一请求映射到
Anthropic Messages API（/v1/messages），并处理认证、消息格式、
流式响应及工具调用等方面的协议转换。

# 核心结构体

  - ClaudeProvider：独立实现 llm.ChatProvider（未嵌入 openaicompat）

# 协议差异

  - 认证使用 x-api-key 与 anthropic-version 请求头（非 Bearer Token）
  - system 消息从 messages 数组中提取，单独传递到 system 字段
  - tool 角色的消息转为 user 文本 "Tool result: ..."
  - 图片以 base64 source 传递，仅支持 jpeg / png / gif / webp
  - 音频不受支持，以占位文本代替
  - max_tokens 必填，未指定时为 4096
  - tool_choice: none 不发送，auto 对应 auto，required 对应 any，
    指定函数对应 {"type":"tool","name":...}

# 流式事件

  - message_start: 记录输入 token 数
  - content_block_start (tool_use): 输出工具调用首个增量
  - content_block_delta: text_delta 输出文本，input_json_delta 输出参数片段
  - message_delta: 更新输出 token 数并输出用量快照
  - error: 终止流并返回 VendorError

工具调用以 OpenAI tool_calls 形式表示，流式增量带 index，可由 llm.Collect 合并。
*/
package anthropic
