package svc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityaadep2008/TrioAgent/internal/config"
	"github.com/adityaadep2008/TrioAgent/internal/svc"
	"github.com/adityaadep2008/TrioAgent/pkg/confkit"
	llmpkg "github.com/adityaadep2008/TrioAgent/pkg/llm"
)

// TestEnvironmentAwareLLMConfig verifies that the test environment pins the
// low-cost model without touching the loaded section.
func TestEnvironmentAwareLLMConfig(t *testing.T) {
	tests := []struct {
		name      string
		env       string
		model     string
		wantModel string
	}{
		{name: "test env forces lite model", env: "test", model: "gemini-2.5-pro", wantModel: "gemini-2.5-flash-lite"},
		{name: "dev env keeps configured model", env: "dev", model: "gemini-2.5-pro", wantModel: "gemini-2.5-pro"},
		{name: "prod env keeps configured model", env: "prod", model: "gemini-2.5-flash", wantModel: "gemini-2.5-flash"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			section := &llmpkg.Config{APIKey: "k", BaseURL: llmpkg.DefaultBaseURL, DefaultModel: tt.model}
			cfg := config.Config{Env: tt.env, LLM: confkit.Section[llmpkg.Config]{Value: section}}

			got := svc.LLMConfigFor(cfg)
			assert.Equal(t, tt.wantModel, got.DefaultModel)
			assert.Equal(t, tt.model, section.DefaultModel, "section must not be mutated")
		})
	}
}

func baseConfig() config.Config {
	return config.Config{
		Env:       "dev",
		Assistant: config.AssistantConf{Name: "Sanjeevani", MaxSessions: 8},
		Tasks:     config.TaskConf{QueueSize: 2, Retain: 8},
	}
}

func TestServiceContextWithoutLanguageModel(t *testing.T) {
	t.Setenv("NO_DOTENV", "1")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	sc := svc.NewServiceContext(baseConfig())
	defer sc.Stop()

	assert.Nil(t, sc.LLM)
	assert.Nil(t, sc.Assistant)
	require.NotNil(t, sc.Device)
	require.NotNil(t, sc.Workflows)
	require.NotNil(t, sc.Tasks)
	assert.Equal(t, 3, sc.WorkflowConfig.Travel.Days)
}

func TestServiceContextWithLanguageModel(t *testing.T) {
	t.Setenv("NO_DOTENV", "1")
	t.Setenv("GEMINI_API_KEY", "test-key")

	sc := svc.NewServiceContext(baseConfig())
	defer sc.Stop()

	require.NotNil(t, sc.LLM)
	require.NotNil(t, sc.Assistant)
	assert.Equal(t, "test-key", sc.LLMConfig.APIKey)
}
