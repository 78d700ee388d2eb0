package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentials_Basics(t *testing.T) {
	creds := NewCredentials().
		With(ProviderOpenAI, "sk-abc").
		With(ProviderDeepSeek, "dk-xyz").
		With(ProviderGoogle, "") // 空密钥不登记

	assert.True(t, creds.Has(ProviderOpenAI))
	assert.True(t, creds.Has(ProviderDeepSeek))
	assert.False(t, creds.Has(ProviderGoogle))
	assert.False(t, creds.Has(ProviderAnthropic))

	key, ok := creds.KeyFor(ProviderOpenAI)
	require.True(t, ok)
	assert.Equal(t, "sk-abc", key)

	assert.Equal(t, []Provider{ProviderDeepSeek, ProviderOpenAI}, creds.Providers())
}

func TestCredentials_NilSafe(t *testing.T) {
	var creds *Credentials
	assert.False(t, creds.Has(ProviderOpenAI))
	_, ok := creds.KeyFor(ProviderOpenAI)
	assert.False(t, ok)
	assert.Nil(t, creds.Providers())
}

func TestCredentials_NeverLeakKeys(t *testing.T) {
	creds := NewCredentials().With(ProviderAnthropic, "sk-super-secret")

	s := creds.String()
	assert.NotContains(t, s, "sk-super-secret")
	assert.Contains(t, s, "anthropic:***")

	data, err := json.Marshal(creds)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "sk-super-secret")
	assert.Contains(t, string(data), `"anthropic":"***"`)
}

func TestCheapestAvailable(t *testing.T) {
	t.Run("picks cheapest credentialed", func(t *testing.T) {
		creds := NewCredentials().
			With(ProviderAnthropic, "a").
			With(ProviderOpenAI, "o")
		choice, ok := CheapestAvailable(creds, RepackModels)
		require.True(t, ok)
		assert.Equal(t, ProviderOpenAI, choice.Provider)
		assert.Equal(t, "gpt-4o-mini", choice.Model)
	})

	t.Run("deepseek beats everything when present", func(t *testing.T) {
		creds := NewCredentials().
			With(ProviderDeepSeek, "d").
			With(ProviderOpenAI, "o")
		choice, ok := CheapestAvailable(creds, RepackModels)
		require.True(t, ok)
		assert.Equal(t, "deepseek-chat", choice.Model)
	})

	t.Run("no credentials", func(t *testing.T) {
		_, ok := CheapestAvailable(NewCredentials(), RepackModels)
		assert.False(t, ok)
	})

	t.Run("nil credentials", func(t *testing.T) {
		_, ok := CheapestAvailable(nil, RepackModels)
		assert.False(t, ok)
	})
}

func TestRepackModels_CostAscending(t *testing.T) {
	for i := 1; i < len(RepackModels); i++ {
		assert.LessOrEqual(t, RepackModels[i-1].CostUSD, RepackModels[i].CostUSD,
			"preference table must stay cost ascending")
	}
}
