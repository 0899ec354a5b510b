package svc

import (
	"os"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/adityaadep2008/TrioAgent/internal/config"
	"github.com/adityaadep2008/TrioAgent/internal/worker"
	"github.com/adityaadep2008/TrioAgent/pkg/assistant"
	llmpkg "github.com/adityaadep2008/TrioAgent/pkg/llm"
	routerpkg "github.com/adityaadep2008/TrioAgent/pkg/router"
	workflowpkg "github.com/adityaadep2008/TrioAgent/pkg/workflow"
)

// testModel is the low-cost model used when Env is test.
const testModel = "gemini-2.5-flash-lite"

type ServiceContext struct {
	Config config.Config

	LLMConfig      *llmpkg.Config
	RouterConfig   *routerpkg.Config
	WorkflowConfig *workflowpkg.Config

	// LLM is nil when no API key is configured; chat is then unavailable
	// and trip plans carry no itinerary.
	LLM       *llmpkg.Client
	Device    *routerpkg.Exclusive
	Workflows *workflowpkg.Suite
	Assistant *assistant.Agent
	Tasks     *worker.Queue
}

func NewServiceContext(c config.Config) *ServiceContext {
	svc := &ServiceContext{
		Config:         c,
		LLMConfig:      LLMConfigFor(c),
		RouterConfig:   c.Router.Or(routerpkg.DefaultConfig),
		WorkflowConfig: c.Workflow.Or(workflowpkg.DefaultConfig),
	}

	if err := svc.LLMConfig.Validate(); err != nil {
		logx.Slowf("language model disabled: %v", err)
	} else {
		client, err := llmpkg.NewClient(svc.LLMConfig)
		logx.Must(err)
		svc.LLM = client
	}

	svc.Device = routerpkg.NewExclusive(routerpkg.New(svc.RouterConfig))
	var cm llmpkg.Completer
	if svc.LLM != nil {
		cm = svc.LLM
	}
	svc.Workflows = workflowpkg.New(svc.Device, cm, svc.WorkflowConfig, os.Stdout)

	if cm != nil {
		sessions, err := assistant.NewSessions(c.Assistant.MaxSessions)
		logx.Must(err)
		agent, err := assistant.NewAgent(cm, svc.Device, sessions,
			assistant.WithPersona(c.Assistant.Name, nil))
		logx.Must(err)
		svc.Assistant = agent
	}

	tasks, err := worker.NewQueue(svc.Workflows, c.Tasks.QueueSize, c.Tasks.Retain,
		time.Duration(c.Tasks.Timeout)*time.Second)
	logx.Must(err)
	svc.Tasks = tasks
	return svc
}

// LLMConfigFor returns the LLM section, or an env-only config when the
// section is absent. Test environments are pinned to the low-cost model.
func LLMConfigFor(c config.Config) *llmpkg.Config {
	cfg := c.LLM.Or(llmpkg.DefaultConfig).Clone()
	if c.IsTestEnv() {
		cfg.DefaultModel = testModel
	}
	return cfg
}

// Start launches background workers.
func (s *ServiceContext) Start() {
	s.Tasks.Start()
}

// Stop cancels the running mission and releases the LLM client.
func (s *ServiceContext) Stop() {
	s.Tasks.Stop()
	if s.LLM != nil {
		_ = s.LLM.Close()
	}
}
