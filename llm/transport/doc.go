/*
包 transport 提供适配器共享的 HTTP 传输层。

  - PostJSON / GetJSON：缓冲请求，非 2xx 响应通过 [MapHTTPError] 转为 llm.Error
  - PostStream：返回原始响应体，交给 streaming 包解析
  - Fetch：下载远程图片与音频，受 MaxMediaBytes 限制

客户端没有整体超时，流式响应的生命周期完全由请求上下文控制；
本层不做重试，也不会在日志中输出查询串里的密钥。
*/
package transport
