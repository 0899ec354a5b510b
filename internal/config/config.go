package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/rest"

	"github.com/adityaadep2008/TrioAgent/pkg/confkit"
	llmpkg "github.com/adityaadep2008/TrioAgent/pkg/llm"
	routerpkg "github.com/adityaadep2008/TrioAgent/pkg/router"
	workflowpkg "github.com/adityaadep2008/TrioAgent/pkg/workflow"
)

type AssistantConf struct {
	Name        string `json:",default=Sanjeevani"`
	MaxSessions int    `json:",default=256"`
}

type TaskConf struct {
	// QueueSize bounds missions waiting for the device.
	QueueSize int `json:",default=16"`
	// Retain is how many finished task statuses stay queryable.
	Retain int `json:",default=512"`
	// Timeout caps one mission; 0 disables the cap.
	Timeout int `json:",default=1800"` // seconds
}

type Config struct {
	rest.RestConf
	// Env indicates the running environment: test | dev | prod
	Env       string        `json:",default=dev"`
	// Absent blocks still get their field defaults.
	Assistant AssistantConf
	Tasks     TaskConf

	LLM      confkit.Section[llmpkg.Config]      `json:",optional"`
	Router   confkit.Section[routerpkg.Config]   `json:",optional"`
	Workflow confkit.Section[workflowpkg.Config] `json:",optional"`

	mainPath string
	baseDir  string
}

func (c *Config) IsTestEnv() bool {
	return c.Env == "test"
}

func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

func Load(path string) (*Config, error) {
	confkit.LoadDotenvOnce()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path %s: %w", path, err)
	}

	var cfg Config
	if err := conf.Load(absPath, &cfg, conf.UseEnv()); err != nil {
		return nil, fmt.Errorf("load config %s: %w", absPath, err)
	}

	cfg.mainPath = absPath
	cfg.baseDir = filepath.Dir(absPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.hydrateSections(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Env)) {
	case "", "test", "dev", "prod":
		if strings.TrimSpace(c.Env) == "" {
			c.Env = "dev"
		}
	default:
		return errors.New("config: env must be one of test|dev|prod")
	}
	if c.Assistant.MaxSessions <= 0 {
		return errors.New("config: assistant.maxSessions must be positive")
	}
	if c.Tasks.QueueSize <= 0 {
		return errors.New("config: tasks.queueSize must be positive")
	}
	if c.Tasks.Retain <= 0 {
		return errors.New("config: tasks.retain must be positive")
	}
	if c.Tasks.Timeout < 0 {
		return errors.New("config: tasks.timeout cannot be negative")
	}
	return nil
}

func (c *Config) hydrateSections() error {
	base := c.baseDir

	if err := c.LLM.Hydrate(base, llmpkg.LoadConfig); err != nil {
		return fmt.Errorf("load llm config: %w", err)
	}
	if err := c.Router.Hydrate(base, routerpkg.LoadConfig); err != nil {
		return fmt.Errorf("load router config: %w", err)
	}
	if err := c.Workflow.Hydrate(base, workflowpkg.LoadConfig); err != nil {
		return fmt.Errorf("load workflow config: %w", err)
	}
	return nil
}

func (c *Config) MainPath() string {
	return c.mainPath
}

func (c *Config) BaseDir() string {
	return c.baseDir
}
