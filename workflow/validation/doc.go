// Package validation 提供工作流图的结构校验：
// 环检测（含路径重建）、孤立节点检测、起止节点完备性
// 以及引用完整性复查，校验器通过注册表组合运行，
// 缺陷以数据形式累积而非抛出异常。
package validation
