// 版权所有 2024 UniAI Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 format 把统一的 ChatMessage 列表整理为各服务商需要的形状。

# 轮次整理

部分服务商（百度、Google）要求严格的 user/assistant 交替。[Alternate]
把连续的非 assistant 消息以换行合并为一个用户轮，遇到 assistant 时输出
一对 (user, assistant)，末尾未闭合的内容成为最后一个用户轮。system 消息
由 [SplitSystem] 单独抽出，不进入轮次序列。

# 媒体解析

[Resolver] 把图片或音频引用统一解析为 base64 数据，支持 data URI、
http(s) 地址、本地文件路径和裸 base64 四种写法。解析失败默认记录告警并
丢弃该附件，开启严格模式后返回 UnsupportedFormat 错误。
*/
package format
