// Copyright (c) FlowGraph Authors.
// Licensed under the MIT License.

/*
包 cache 提供基于 Redis 的工作流缓存。

# 概述

本包封装 go-redis 客户端，按工作流 id 缓存完整的 JSON 交换文档，
为存储层提供读穿透加速。WorkflowCache 负责连接生命周期管理，
包括初始化、后台健康检查与优雅关闭。

# 核心类型

  - WorkflowCache：工作流缓存，提供 Get/Put/Invalidate 操作，
    Get 反序列化为 *workflow.Workflow，损坏条目被视为未命中并清除。
  - Config：缓存配置，包含地址、密码、连接池大小、默认 TTL
    与健康检查间隔等参数。

# 错误语义

未命中返回 ErrMiss 哨兵错误，调用方通过 IsMiss 判断。
*/
package cache
