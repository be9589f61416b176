// 版权所有 2024 UniAI Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 streaming 把服务商的原始响应流解码为统一的 ChatResponse 快照流。

# 概述

各服务商的流式协议分为两类：

  - SSE 承载 JSON：OpenAI 兼容接口、智谱、方舟、xAI、百度、阿里云、Anthropic
  - 增量 JSON 数组：Google Gemini

[Decoder] 负责把字节流切分为 [Event]，[Pipe] 负责驱动解码、调用各服务商的
[Extractor] 并把结果写入 llm.Stream。十余个适配器因此只需要各自提供一个
很小的字段映射函数。

# 错误与取消

解码失败以 TransportError 终止流；Extractor 返回的 VendorError /
ContentBlocked 原样透传。消费端关闭 llm.Stream 时，上游响应体被同步关闭，
阻塞中的读取随之返回，解析协程退出。
*/
package streaming
