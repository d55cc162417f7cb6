// Copyright (c) FlowGraph Authors.
// Licensed under the MIT License.

/*
Package workflow 提供工作流图数据模型。

# 概述

workflow 包定义了 FlowGraph 的核心聚合 Workflow：由类型化节点
（start、end、task、decision、sync）和类型化依赖边组成的有向图，
节点可选地归入用于并行泳道展示的 Track。本包只负责图的结构表示与
增删操作，不包含任何执行语义 —— 资源需求与超时均为惰性数据，
由外部执行器消费。

# 核心类型

  - Workflow            — 根聚合（节点、依赖、轨道的有序列表 + 元数据）
  - Node                — 标签联合节点（Type 决定 Task/Decision/Sync 配置）
  - Dependency          — 有向边（sequential / conditional / sync）
  - Condition           — 条件比较（key、11 种运算符、类型化右值）
  - Track               — 节点分组（仅用于展示，无执行语义）
  - ResourceRequirement — 资源需求声明（cpu / memory / gpu / custom）
  - Definition          — 以 id 为键的可序列化交换镜像
  - SerializerRegistry  — JSON / YAML 序列化器注册表

# 主要能力

  - 图变更：AddNode / RemoveNode（级联删除依赖与轨道成员）、
    AddDependency / RemoveDependency、AddTrack / RemoveTrack
  - 查询：按 id 或名称查找节点与轨道（重名取文档序首个）、
    Outgoing / Incoming 邻接查询、NodeIndex 索引构建
  - 深拷贝：Clone 产生完全独立的副本，供存储层隔离所有权
  - 序列化：ToJSON / ToYAML 及 FromJSON / FromYAML 交换格式转换
*/
package workflow
