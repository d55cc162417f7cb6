// Package dsl 提供 FlowGraph 工作流描述语言的词法分析器、
// 递归下降解析器与文本生成器，
// 在 DSL 文本与 workflow 图模型之间双向转换。
package dsl
