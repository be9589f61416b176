// Copyright 2026 UniAI Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
Package uniai 把各家大模型厂商的对话与向量接口统一为一套调用方式。

# 概述

UniAI 按服务商标签把 Chat、ChatStream、Embedding 分发给对应适配器。
适配器负责构造厂商请求、解析流式事件，并把结果归一为 llm.ChatResponse
快照或 llm.EmbeddingResponse。未指定服务商时默认使用 openai，
未提供消息时发送 llm.DefaultMessage。

	u, err := uniai.New(cfg, uniai.WithLogger(logger))
	if err != nil {
		return err
	}
	defer u.Close()

	s, err := u.ChatStream(ctx, llm.Prompt("hello"), llm.ChatOption{Provider: llm.ProviderGoogle})
	if err != nil {
		return err
	}
	defer s.Close()
	for {
		r, err := s.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		fmt.Print(r.Content)
	}

# 定制行为

  - WithHTTPClient 替换出站 HTTP 客户端
  - WithTokenStore 替换访问令牌缓存的存储
  - WithMetrics / WithTracerProvider 接入 Prometheus 与 OpenTelemetry
  - WithProvider 注册自定义适配器，或在测试中替换内置适配器

# 错误

所有错误原样返回给调用方，不做重试或切换服务商。
错误码见 llm.ErrorCode，可用 llm.CodeOf 判断类别。
*/
package uniai
