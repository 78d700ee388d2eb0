// Package mocks 提供测试用的 Mock 实现。
package mocks
