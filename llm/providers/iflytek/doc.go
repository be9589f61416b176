// Copyright 2026 UniAI Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
# 概述

包 iflytek 提供讯飞星火的 Provider 适配实现，使用星火的 OpenAI 兼容 HTTP 接口。

# 定制行为

  - 默认 BaseURL: https://spark-api-open.xf-yun.com，默认模型 lite
  - 以 APIPassword 作为 Bearer 凭证
  - temperature 取值 (0,1]，小于等于 0 时落到 0.1
  - top 映射为 top_k = round(top*6)，收敛到 1..6，不发送 top_p
  - 每次请求携带随机 user 字段
  - 响应体 code 非 0 时即使 HTTP 200 也视为 VendorError
*/
package iflytek
