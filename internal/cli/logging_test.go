package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adityaadep2008/TrioAgent/internal/config"
	"github.com/adityaadep2008/TrioAgent/pkg/confkit"
	routerpkg "github.com/adityaadep2008/TrioAgent/pkg/router"
	workflowpkg "github.com/adityaadep2008/TrioAgent/pkg/workflow"
)

func TestConfigSummaryLines(t *testing.T) {
	assert.Equal(t, []string{"Configuration: <nil>"}, ConfigSummaryLines(nil))

	router := &routerpkg.Config{Cloud: routerpkg.CloudConfig{Enabled: true, APIKey: "secret"}}
	cfg := &config.Config{
		Env:       "prod",
		Assistant: config.AssistantConf{Name: "Sanjeevani", MaxSessions: 256},
		Tasks:     config.TaskConf{QueueSize: 16, Retain: 512, Timeout: 1800},
		Router:    confkit.Section[routerpkg.Config]{File: "/etc/trio/router.yaml", Value: router},
		Workflow:  confkit.Section[workflowpkg.Config]{Value: &workflowpkg.Config{}},
	}
	lines := ConfigSummaryLines(cfg)
	assert.Contains(t, lines, "Environment: prod")
	assert.Contains(t, lines, "LLM config: not configured")
	assert.Contains(t, lines, "Router config: /etc/trio/router.yaml")
	assert.Contains(t, lines, "Workflow config: inline")
	assert.Contains(t, lines, "Device: cloud first, local fallback")
	assert.Contains(t, lines, "Cloud credential: configured")
	assert.Contains(t, lines, "Journal: disabled")
	for _, l := range lines {
		assert.NotContains(t, l, "secret")
	}
}
