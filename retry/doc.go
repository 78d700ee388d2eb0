// Package retry 以失败分类驱动的退避策略包裹单个生成尝试：
// 限流走 4s 起倍增、过载走 8s 起倍增、其余瞬态错误走线性退避。
package retry
