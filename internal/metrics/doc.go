// Copyright (c) FlowGraph Authors.
// Licensed under the MIT License.

/*
包 metrics 提供基于 Prometheus 的指标采集能力，覆盖 DSL 解析、
DSL 生成、图校验、存储与缓存五个维度。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标，使用 promauto
自动注册机制，避免手动管理 Registry。所有指标按 namespace 隔离，
支持多维度 label 分组，便于 Grafana 等工具进行可视化与告警。

# 核心类型

  - Collector：指标收集器，持有 Counter、Histogram 等
    Prometheus 指标，按业务域分组管理。

# 主要能力

  - 解析指标：解析总数（按 success/lexical_error/syntax_error/
    unresolved_reference 分组）、解析耗时、成功解析的节点数分布。
  - 生成指标：生成总数与生成耗时。
  - 校验指标：校验总数（按 valid/invalid 分组）、
    错误总数（按错误码分组）。
  - 存储指标：操作总数（按 operation/status 分组）与操作耗时。
  - 缓存指标：命中与未命中计数。
*/
package metrics
