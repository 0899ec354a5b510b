package cli

import (
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/adityaadep2008/TrioAgent/internal/config"
	"github.com/adityaadep2008/TrioAgent/pkg/confkit"
)

// ConfigSummaryLines returns human readable lines describing the loaded app config.
func ConfigSummaryLines(cfg *config.Config) []string {
	if cfg == nil {
		return []string{"Configuration: <nil>"}
	}

	lines := []string{
		fmt.Sprintf("Environment: %s", cfg.Env),
		fmt.Sprintf("Assistant: %s (max %d sessions)", cfg.Assistant.Name, cfg.Assistant.MaxSessions),
		fmt.Sprintf("Tasks (queue/retain/timeout): %d / %d / %ds", cfg.Tasks.QueueSize, cfg.Tasks.Retain, cfg.Tasks.Timeout),
		sectionLine("LLM config", cfg.LLM),
		sectionLine("Router config", cfg.Router),
		sectionLine("Workflow config", cfg.Workflow),
	}
	if r := cfg.Router.Value; r != nil {
		lines = append(lines,
			fmt.Sprintf("Device: %s", deviceMode(r.Cloud.Enabled)),
			fmt.Sprintf("Cloud credential: %s", presence(strings.TrimSpace(r.Cloud.APIKey) != "")),
		)
	}
	if w := cfg.Workflow.Value; w != nil {
		lines = append(lines, fmt.Sprintf("Journal: %s", orNone(w.JournalDir)))
	}

	return lines
}

// LogConfigSummary emits the configuration summary using logx.
func LogConfigSummary(cfg *config.Config) {
	lines := ConfigSummaryLines(cfg)
	if len(lines) == 0 {
		return
	}
	logx.Info("configuration summary")
	for _, line := range lines {
		logx.Infof("config • %s", line)
	}
}

func presence(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func deviceMode(cloud bool) string {
	if cloud {
		return "cloud first, local fallback"
	}
	return "local only"
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "disabled"
	}
	return s
}

func sectionLine[T any](name string, section confkit.Section[T]) string {
	switch {
	case strings.TrimSpace(section.File) != "":
		return fmt.Sprintf("%s: %s", name, section.File)
	case section.Value != nil:
		return fmt.Sprintf("%s: inline", name)
	default:
		return fmt.Sprintf("%s: not configured", name)
	}
}
