package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test_hydrateSections_withEnvAndSectionFiles verifies env expansion and
// per-section hydration without going through go-zero conf.Load.
func Test_hydrateSections_withEnvAndSectionFiles(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		t.Helper()
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
	write("llm.yaml", `
base_url: ${TRIO_LLM_BASE}
api_key: ${TRIO_LLM_KEY}
default_model: gemini-2.5-pro
timeout: 2s
`)
	write("router.yaml", `
cloud:
  enabled: true
  api_key: ${TRIO_CLOUD_KEY}
  poll_interval: 1s
  max_wait: 30s
local:
  binary: ${TRIO_AGENT_BIN}
`)
	write("workflow.yaml", `
journal_dir: runs
compare:
  cooldown: 0s
`)

	t.Setenv("TRIO_LLM_BASE", "https://llm.example/v1")
	t.Setenv("TRIO_LLM_KEY", "llm-key")
	t.Setenv("TRIO_CLOUD_KEY", "cloud-key")
	t.Setenv("TRIO_AGENT_BIN", "/opt/droidrun/bin/droidrun")
	t.Setenv("MOBILERUN_API_KEY", "")
	t.Setenv("USE_MOBILE_RUN", "")

	cfg := &Config{baseDir: dir}
	cfg.LLM.File = "llm.yaml"
	cfg.Router.File = "router.yaml"
	cfg.Workflow.File = "workflow.yaml"
	require.NoError(t, cfg.hydrateSections())

	require.True(t, cfg.LLM.Configured())
	assert.Equal(t, "https://llm.example/v1", cfg.LLM.Value.BaseURL)
	assert.Equal(t, "llm-key", cfg.LLM.Value.APIKey)
	assert.Equal(t, 2*time.Second, cfg.LLM.Value.Timeout)
	assert.Equal(t, filepath.Join(dir, "llm.yaml"), cfg.LLM.File)

	require.True(t, cfg.Router.Configured())
	assert.True(t, cfg.Router.Value.Cloud.Enabled)
	assert.Equal(t, "cloud-key", cfg.Router.Value.Cloud.APIKey)
	assert.Equal(t, time.Second, cfg.Router.Value.Cloud.PollInterval)
	assert.Equal(t, "/opt/droidrun/bin/droidrun", cfg.Router.Value.Local.Binary)

	require.True(t, cfg.Workflow.Configured())
	assert.Equal(t, filepath.Join(dir, "runs"), cfg.Workflow.Value.JournalDir)
	assert.Zero(t, cfg.Workflow.Value.Compare.Cooldown)
}

func Test_hydrateSections_missingFile(t *testing.T) {
	cfg := &Config{baseDir: t.TempDir()}
	cfg.Router.File = "router.yaml"
	err := cfg.hydrateSections()
	assert.ErrorContains(t, err, "load router config")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{Assistant: AssistantConf{MaxSessions: 1}, Tasks: TaskConf{QueueSize: 1, Retain: 1}}
	}

	cfg := valid()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "dev", cfg.Env)
	assert.False(t, cfg.IsTestEnv())

	cfg = valid()
	cfg.Env = "staging"
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Tasks.QueueSize = 0
	assert.ErrorContains(t, cfg.Validate(), "queueSize")

	cfg = valid()
	cfg.Tasks.Timeout = -1
	assert.ErrorContains(t, cfg.Validate(), "timeout")

	cfg = valid()
	cfg.Assistant.MaxSessions = 0
	assert.ErrorContains(t, cfg.Validate(), "maxSessions")
}
