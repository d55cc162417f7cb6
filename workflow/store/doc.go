// Copyright (c) FlowGraph Authors.
// Licensed under the MIT License.

/*
Package store 提供工作流的持久化存储。

# 概述

store 包围绕 Store 接口（Save / Get / List / Delete / Close）提供
两种实现：基于 sync.RWMutex 的内存存储 MemoryStore（测试与嵌入场景），
以及基于 gorm + 纯 Go SQLite 驱动的 SQLStore（持久化场景，工作流以
JSON 交换文档整体存取）。两种实现均保证所有权隔离：存入与取出的
对象都是深拷贝，调用方修改不会影响存储内部状态。

# 错误约定

未找到统一返回 ErrNotFound 哨兵错误，调用方通过 IsNotFound 判断。
*/
package store
