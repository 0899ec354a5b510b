package router

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/adityaadep2008/TrioAgent/pkg/confkit"
)

const (
	envUseCloud     = "USE_MOBILE_RUN"
	envCloudAPIKey  = "MOBILERUN_API_KEY"
	envCloudBaseURL = "MOBILERUN_BASE_URL"
	envDeviceSerial = "DEVICE_SERIAL"

	defaultProvider = "GoogleGenAI"
	defaultModel    = "models/gemini-2.5-flash"
	defaultDevice   = "pixel_8_pro"
)

// Config controls how goals reach the execution engine.
type Config struct {
	Cloud    CloudConfig       `yaml:"cloud"`
	Local    LocalConfig       `yaml:"local"`
	Provider string            `yaml:"provider"`
	Model    string            `yaml:"model"`
	Repair   bool              `yaml:"repair"`
	Apps     map[string]string `yaml:"apps"`
}

// CloudConfig configures the remote job API.
type CloudConfig struct {
	Enabled      bool          `yaml:"enabled"`
	APIKey       string        `yaml:"api_key"`
	BaseURL      string        `yaml:"base_url"`
	Device       string        `yaml:"device"`
	MaxRetries   int           `yaml:"max_retries"`
	PollInterval time.Duration `yaml:"-"`
	MaxWait      time.Duration `yaml:"-"`

	PollIntervalRaw string `yaml:"poll_interval"`
	MaxWaitRaw      string `yaml:"max_wait"`
}

// LocalConfig configures the per-instruction local agent process.
type LocalConfig struct {
	Binary       string   `yaml:"binary"`
	Args         []string `yaml:"args"`
	Env          []string `yaml:"env"`
	Dir          string   `yaml:"dir"`
	DeviceSerial string   `yaml:"device_serial"`
}

// LoadConfig reads router configuration from disk.
func LoadConfig(path string) (*Config, error) {
	confkit.LoadDotenvOnce()
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open router config: %w", err)
	}
	defer file.Close()
	return LoadConfigFromReader(file)
}

// LoadConfigFromReader constructs a Config from a reader.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	confkit.LoadDotenvOnce()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read router config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal router config: %w", err)
	}
	if err := cfg.prepare(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultConfig returns a config with defaults and environment overrides
// applied, for callers that run without a router.yaml.
func DefaultConfig() *Config {
	confkit.LoadDotenvOnce()
	cfg := &Config{}
	if err := cfg.prepare(); err != nil {
		// defaults always parse
		panic(err)
	}
	return cfg
}

func (c *Config) prepare() error {
	c.applyDefaults()
	c.applyEnvOverrides()
	if err := c.parseDurations(); err != nil {
		return err
	}
	return c.Validate()
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Provider) == "" {
		c.Provider = defaultProvider
	}
	if strings.TrimSpace(c.Model) == "" {
		c.Model = defaultModel
	}
	if strings.TrimSpace(c.Cloud.Device) == "" {
		c.Cloud.Device = defaultDevice
	}
	if strings.TrimSpace(c.Cloud.PollIntervalRaw) == "" {
		c.Cloud.PollIntervalRaw = "3s"
	}
	if strings.TrimSpace(c.Cloud.MaxWaitRaw) == "" {
		c.Cloud.MaxWaitRaw = "5m"
	}
	if c.Cloud.MaxRetries <= 0 {
		c.Cloud.MaxRetries = 2
	}
	if strings.TrimSpace(c.Local.Binary) == "" {
		c.Local.Binary = "droidrun"
	}
	if len(c.Local.Args) == 0 {
		c.Local.Args = []string{"run", "{instruction}", "--provider", "{provider}", "--model", "{model}"}
	}
}

func (c *Config) applyEnvOverrides() {
	c.Cloud.APIKey = expandAndOverride(c.Cloud.APIKey, envCloudAPIKey)
	c.Cloud.BaseURL = expandAndOverride(c.Cloud.BaseURL, envCloudBaseURL)
	c.Local.DeviceSerial = expandAndOverride(c.Local.DeviceSerial, envDeviceSerial)
	c.Local.Binary = os.ExpandEnv(c.Local.Binary)
	if v, ok := confkit.EnvBool(envUseCloud); ok {
		c.Cloud.Enabled = v
	}
	for name, id := range c.Apps {
		c.Apps[name] = strings.TrimSpace(id)
	}
}

func (c *Config) parseDurations() error {
	interval, err := time.ParseDuration(c.Cloud.PollIntervalRaw)
	if err != nil {
		return fmt.Errorf("router config: invalid cloud.poll_interval %q: %w", c.Cloud.PollIntervalRaw, err)
	}
	maxWait, err := time.ParseDuration(c.Cloud.MaxWaitRaw)
	if err != nil {
		return fmt.Errorf("router config: invalid cloud.max_wait %q: %w", c.Cloud.MaxWaitRaw, err)
	}
	c.Cloud.PollInterval = interval
	c.Cloud.MaxWait = maxWait
	return nil
}

// Validate ensures configuration sanity.
func (c *Config) Validate() error {
	if c.Cloud.PollInterval <= 0 {
		return errors.New("router config: cloud.poll_interval must be positive")
	}
	if c.Cloud.MaxWait < c.Cloud.PollInterval {
		return errors.New("router config: cloud.max_wait must not be shorter than poll_interval")
	}
	for name := range c.Apps {
		if strings.TrimSpace(name) == "" {
			return errors.New("router config: apps cannot contain empty names")
		}
	}
	return nil
}

func expandAndOverride(current, envKey string) string {
	current = strings.TrimSpace(os.ExpandEnv(current))
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		return v
	}
	return current
}
