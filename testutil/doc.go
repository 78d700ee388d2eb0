// Package testutil 提供各包测试共用的辅助函数。
//
// 子包 mocks 提供脚本化的 LLM 调用器、内存审计 Sink 和内存检查点
// 存储，均带错误注入能力，供恢复、审计、批处理的单元测试使用。
package testutil
