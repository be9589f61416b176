// Copyright 2026 UniAI Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
包 metrics 提供基于 Prometheus 的调度层指标采集。

# 概述

Collector 通过 promauto.With 注册到调用方给定的 Registerer，
测试与多实例场景各自使用独立的 Registry，互不冲突。

# 主要能力

  - 请求指标：按 provider/operation/status 计数，耗时直方图；
    流式调用的耗时统计到流关闭为止。
  - Token 用量：按 provider 与 prompt/completion 分别累加。
  - 流式快照计数与访问令牌缓存命中率。
*/
package metrics
