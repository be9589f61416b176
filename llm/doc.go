// 版权所有 2024 UniAI Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 llm 定义 UniAI 的统一数据模型：对话消息、对话选项、对话结果、
向量结果，以及流式输出通道与错误分类。

# 概述

各服务商在鉴权、消息结构、采样参数范围和流式协议上各不相同。
本包给出的类型是所有适配器共同的输入输出，调用方无需感知差异。

# 核心类型

  - [ChatMessage]：统一消息，Content/Img/Audio 均兼容 string 与 string[]
  - [ChatOption] / [EmbedOption]：调用选项，Top/Temperature 为可选指针
  - [ChatResponse] / [EmbeddingResponse]：统一结果
  - [Stream]：流式输出，每个元素是一份 JSON 编码的 ChatResponse 快照
  - [Error]：带 [ErrorCode] 的统一错误

# 流式语义

快照不是 diff：Content 只包含本次事件新增的文本，用量等字段是截至目前
已知的状态。[Stream.Close] 会同步关闭上游连接并等待解析协程退出，
[Stream.Done] 总是在最后触发。

# 采样参数

[Bound] 描述服务商接受的取值范围，越界值被静默收敛而不是报错。
*/
package llm
