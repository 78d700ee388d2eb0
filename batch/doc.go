// Package batch 提供带检查点的批量生成调度。
//
// 每个批任务由若干独立单元组成，单元之间按并发上限并行，单元内部
// 步骤顺序执行。每完成一步立即落盘检查点，进程中途挂掉后用同一个
// batchID 续跑即可跳过已完成的步骤。检查点可以放本地文件，也可以
// 放 Redis 供多进程共享。
package batch
