package llm

import (
	"encoding/json"
	"sort"
)

// Provider 标识一个生成模型提供商。
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGoogle    Provider = "google"
	ProviderDeepSeek  Provider = "deepseek"
	ProviderQwen      Provider = "qwen"
)

// Credentials 显式持有各提供商的密钥，替代进程级环境状态。
// 所有需要凭据的操作都以值传入，序列化与打印时密钥一律脱敏。
type Credentials struct {
	keys map[Provider]string
}

// NewCredentials 创建空凭据集合。
func NewCredentials() *Credentials {
	return &Credentials{keys: make(map[Provider]string)}
}

// With 登记一个提供商密钥并返回自身以便链式调用。空密钥不登记。
func (c *Credentials) With(p Provider, key string) *Credentials {
	if key != "" {
		c.keys[p] = key
	}
	return c
}

// Has 报告是否持有该提供商的凭据。
func (c *Credentials) Has(p Provider) bool {
	if c == nil {
		return false
	}
	_, ok := c.keys[p]
	return ok
}

// KeyFor 返回提供商密钥。
func (c *Credentials) KeyFor(p Provider) (string, bool) {
	if c == nil {
		return "", false
	}
	k, ok := c.keys[p]
	return k, ok
}

// Providers 返回持有凭据的提供商列表（排序稳定）。
func (c *Credentials) Providers() []Provider {
	if c == nil {
		return nil
	}
	out := make([]Provider, 0, len(c.keys))
	for p := range c.keys {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (c *Credentials) String() string {
	if c == nil || len(c.keys) == 0 {
		return "Credentials{}"
	}
	s := "Credentials{"
	for i, p := range c.Providers() {
		if i > 0 {
			s += ","
		}
		s += string(p) + ":***"
	}
	return s + "}"
}

// MarshalJSON 只输出脱敏后的占位，避免密钥进入日志或审计存储。
func (c *Credentials) MarshalJSON() ([]byte, error) {
	masked := make(map[Provider]string, len(c.keys))
	for p := range c.keys {
		masked[p] = "***"
	}
	return json.Marshal(masked)
}

// ModelChoice 是修复重打包用的候选模型，按每百万 token 输入成本升序排列。
type ModelChoice struct {
	Provider Provider `json:"provider"`
	Model    string   `json:"model"`
	CostUSD  float64  `json:"cost_usd_per_mtok"`
}

// RepackModels 是固定的成本升序偏好表，覆盖全部受支持提供商。
// 层 2 修复总是选取其中调用方持有凭据的最便宜模型。
var RepackModels = []ModelChoice{
	{Provider: ProviderDeepSeek, Model: "deepseek-chat", CostUSD: 0.14},
	{Provider: ProviderGoogle, Model: "gemini-2.0-flash", CostUSD: 0.15},
	{Provider: ProviderOpenAI, Model: "gpt-4o-mini", CostUSD: 0.15},
	{Provider: ProviderQwen, Model: "qwen-turbo", CostUSD: 0.30},
	{Provider: ProviderAnthropic, Model: "claude-3-5-haiku", CostUSD: 0.80},
}

// CheapestAvailable 返回凭据可用的最便宜修复模型。
func CheapestAvailable(creds *Credentials, choices []ModelChoice) (ModelChoice, bool) {
	for _, mc := range choices {
		if creds.Has(mc.Provider) {
			return mc, true
		}
	}
	return ModelChoice{}, false
}
