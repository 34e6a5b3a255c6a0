package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampScrollCount(t *testing.T) {
	tests := []struct {
		in   int
		want int
		ok   bool
	}{
		{1, 1, true},
		{3, 3, true},
		{10, 10, true},
		{0, DefaultScrollCount, false},
		{11, DefaultScrollCount, false},
		{-4, DefaultScrollCount, false},
	}

	for _, tt := range tests {
		got, ok := ClampScrollCount(tt.in)
		assert.Equal(t, tt.want, got, "input %d", tt.in)
		assert.Equal(t, tt.ok, ok, "input %d", tt.in)
	}
}

func TestSaveAndLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.Scraping.Engine = EnginePlaywright
	cfg.Analysis.LLMProvider = ProviderAnthropic
	cfg.Reply.NewsFeeds = []string{"https://example.com/feed.xml"}
	require.NoError(t, cfg.SaveFile(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, EnginePlaywright, loaded.Scraping.Engine)
	assert.Equal(t, ProviderAnthropic, loaded.Analysis.LLMProvider)
	assert.Equal(t, []string{"https://example.com/feed.xml"}, loaded.Reply.NewsFeeds)
}

func TestLoadFileKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[scraping]\nheadless = true\n"), 0600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.True(t, cfg.Scraping.Headless)
	assert.Equal(t, 120, cfg.Scraping.LoginTimeoutSeconds)
	assert.Equal(t, "gpt-4o", cfg.Analysis.Model)
}

func TestApplyEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("ANTHROPIC_API_KEY=sk-ant-test\n"), 0600))
	t.Setenv("ANTHROPIC_API_KEY", "")
	os.Unsetenv("ANTHROPIC_API_KEY")

	cfg := Default()
	cfg.Analysis.LLMProvider = ProviderAnthropic
	cfg.ApplyEnv(envPath)

	assert.Equal(t, "sk-ant-test", cfg.Analysis.APIKey)
}

func TestApplyEnvKeepsConfiguredKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "from-env")

	cfg := Default()
	cfg.Analysis.APIKey = "from-file"
	cfg.ApplyEnv(filepath.Join(t.TempDir(), "missing.env"))

	assert.Equal(t, "from-file", cfg.Analysis.APIKey)
}

func TestResolveFiles(t *testing.T) {
	f := FilesConfig{DataFile: "/tmp/custom.json"}
	f.resolve("/cfg", "/cache")

	assert.Equal(t, "/tmp/custom.json", f.DataFile)
	assert.Equal(t, filepath.Join("/cache", "analysis_results.json"), f.ResultsFile)
	assert.Equal(t, filepath.Join("/cfg", "state.json"), f.SessionFile)
	assert.Equal(t, filepath.Join("/cache", "reply_screenshot.png"), f.ScreenshotFile)
	assert.Equal(t, filepath.Join("/cfg", "history.db"), f.HistoryDB)
}

func TestDurations(t *testing.T) {
	s := Default().Scraping
	assert.Equal(t, "2s", s.SettleDelay().String())
	assert.Equal(t, "2m0s", s.LoginTimeout().String())
}
