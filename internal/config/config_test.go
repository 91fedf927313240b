package config

import (
	"testing"
	"time"

	"github.com/santiagomed/devspark/internal/llm"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "gemini", cfg.Provider)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.RetryBaseDelay)
	assert.Equal(t, "templates", cfg.TemplatesDir)
}

func TestLoadFsReadsFileAndEnv(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("DEVSPARK_MAX_RETRIES", "5")

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/devspark/config.yaml", []byte(`
provider: openai
openai_model: gpt-4o
cache_ttl: 30m
retry_base_delay: 250ms
`), 0644))

	cfg, err := LoadFs(fs, "/etc/devspark")
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "gpt-4o", cfg.Model(llm.ProviderOpenAI))
	assert.Equal(t, 30*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryBaseDelay)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, "sk-test", cfg.APIKey(llm.ProviderOpenAI))
	assert.Equal(t, "", cfg.APIKey(llm.ProviderGemini))
}

func TestLoadFsWithoutFile(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "g-key")
	cfg, err := LoadFs(afero.NewMemMapFs(), "/nowhere")
	require.NoError(t, err)
	assert.Equal(t, "g-key", cfg.APIKey(llm.ProviderGemini))
	assert.Equal(t, "gemini-1.5-flash-latest", cfg.ClientConfig(llm.ProviderGemini).Model)
}

func TestClientConfigScopesOpenAIBaseURL(t *testing.T) {
	cfg := &Config{OpenAIBaseURL: "http://proxy.local/v1", OpenAIModel: "gpt-4o", GeminiModel: "gemini-test"}
	assert.Equal(t, "http://proxy.local/v1", cfg.ClientConfig(llm.ProviderOpenAI).BaseURL)
	assert.Empty(t, cfg.ClientConfig(llm.ProviderGemini).BaseURL)
}

func TestLoadFsRejectsNegativeRetries(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/cfg/config.yaml", []byte("max_retries: -1\n"), 0644))
	_, err := LoadFs(fs, "/cfg")
	assert.ErrorContains(t, err, "max_retries")
}

func TestWriteDefault(t *testing.T) {
	fs := afero.NewMemMapFs()
	path, err := WriteDefault(fs, "/home/u/.devspark")
	require.NoError(t, err)
	assert.Equal(t, "/home/u/.devspark/config.yaml", path)

	require.NoError(t, afero.WriteFile(fs, path, []byte("provider: openai\n"), 0644))
	_, err = WriteDefault(fs, "/home/u/.devspark")
	require.NoError(t, err)
	b, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, "provider: openai\n", string(b))
}
