// Copyright 2026 UniAI Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
# 概述

包 baidu 提供百度文心（ERNIE）的 Provider 适配实现，对接千帆
wenxinworkshop 接口。

# 鉴权

Keys 为 API Key（client_id），SecretKey 为 client_secret。调用前通过
GET /oauth/2.0/token 换取 access_token，写入令牌缓存（键 baidu_access_token，
绝对过期时间为毫秒时间戳）。并发的缓存未命中各自换取一次令牌，不做合并。

# 定制行为

  - Chat: /rpc/2.0/ai_custom/v1/wenxinworkshop/chat/{model}?access_token=
  - 默认模型 completions（ERNIE 3.5）
  - 消息整理为严格交替的 user / assistant，system 单独传递，
    最后一条必须是非空的用户输入，否则返回 EmptyInput
  - temperature 取值 (0,1]，小于等于 0 时落到 0.1；top_p 收敛到 [0,1]
  - 不支持图片、音频、工具与 Embedding

# 错误映射

  - error_code / error_msg 映射为 VendorError
  - need_clear_history 映射为 ContentBlocked
*/
package baidu
