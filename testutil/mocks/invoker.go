// =============================================================================
// 🧪 脚本化 LLM 调用器
// =============================================================================
// 按预先排好的脚本逐次返回结果，用于恢复管线和重试控制的测试
//
// 使用方法:
//
//	inv := mocks.NewScriptedInvoker().
//	    WithMalformed(`{"a": 1}`).
//	    WithSuccess(map[string]any{"a": float64(1)}, `{"a": 1}`)
// =============================================================================
package mocks

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/3r453r/math-courses-sub001/llm"
	"github.com/3r453r/math-courses-sub001/types"
)

type scriptStep struct {
	value any
	raw   string
	err   error
	// malformed 为真时先尝试内部解析，失败再触发 RepairHook
	malformed bool
}

// ScriptedInvoker 实现 llm.Invoker，每次调用消费一个脚本步骤。
type ScriptedInvoker struct {
	mu    sync.Mutex
	steps []scriptStep

	// Calls 记录收到的全部请求，供断言用
	Calls []*llm.InvokeRequest
}

// NewScriptedInvoker 创建空脚本的调用器。
func NewScriptedInvoker() *ScriptedInvoker {
	return &ScriptedInvoker{}
}

// WithSuccess 追加一次直接成功的调用。
func (m *ScriptedInvoker) WithSuccess(value any, raw string) *ScriptedInvoker {
	m.steps = append(m.steps, scriptStep{value: value, raw: raw})
	return m
}

// WithMalformed 追加一次返回畸形文本的调用：内部解析按真实调用器的
// 路径走，解析失败时触发请求上的 RepairHook，钩子也救不回来就返回
// 带原始文本的 MALFORMED_OUTPUT 错误。
func (m *ScriptedInvoker) WithMalformed(raw string) *ScriptedInvoker {
	m.steps = append(m.steps, scriptStep{raw: raw, malformed: true})
	return m
}

// WithError 追加一次失败的调用，err 原样返回。
func (m *ScriptedInvoker) WithError(err error) *ScriptedInvoker {
	m.steps = append(m.steps, scriptStep{err: err})
	return m
}

// CallCount 返回已消费的调用次数。
func (m *ScriptedInvoker) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// Invoke 消费下一个脚本步骤。脚本耗尽时返回 TRANSIENT 错误。
func (m *ScriptedInvoker) Invoke(_ context.Context, req *llm.InvokeRequest) (*llm.InvokeResult, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	if len(m.steps) == 0 {
		m.mu.Unlock()
		return nil, types.NewError(types.ErrTransient, "scripted invoker exhausted")
	}
	step := m.steps[0]
	m.steps = m.steps[1:]
	m.mu.Unlock()

	if step.err != nil {
		return nil, step.err
	}

	if !step.malformed {
		return &llm.InvokeResult{Value: step.value, Raw: step.raw}, nil
	}

	var parsed any
	parseErr := json.Unmarshal([]byte(step.raw), &parsed)
	if parseErr == nil && parsed != nil {
		return &llm.InvokeResult{Value: parsed, Raw: step.raw}, nil
	}

	if req.RepairHook != nil {
		value, report := req.RepairHook(step.raw, parseErr)
		if report.Accepted() {
			return &llm.InvokeResult{Value: value, Raw: step.raw, HookReport: report}, nil
		}
	}

	return nil, types.NewError(types.ErrMalformedOutput, "model returned malformed output").
		WithRawText(step.raw)
}
