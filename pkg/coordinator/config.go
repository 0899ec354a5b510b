package coordinator

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/adityaadep2008/TrioAgent/pkg/compare"
)

// Config controls the pacing of a coordination run.
type Config struct {
	// MaxCycles bounds the poll phase.
	MaxCycles      int            `yaml:"max_cycles"`
	MessagingApp   string         `yaml:"messaging_app"`
	ResearchDomain compare.Domain `yaml:"research_domain"`
	IdleInterval   time.Duration  `yaml:"-"`
	StepDelay      time.Duration  `yaml:"-"`
	OrderCooldown  time.Duration  `yaml:"-"`

	IdleIntervalRaw  string `yaml:"idle_interval"`
	StepDelayRaw     string `yaml:"step_delay"`
	OrderCooldownRaw string `yaml:"order_cooldown"`
}

// DefaultConfig mirrors the pacing used on real devices.
func DefaultConfig() Config {
	return Config{
		MaxCycles:      3,
		MessagingApp:   "WhatsApp",
		ResearchDomain: compare.DomainFood,
		IdleInterval:   10 * time.Second,
		StepDelay:      2 * time.Second,
		OrderCooldown:  5 * time.Second,
	}
}

// LoadConfig reads coordinator configuration from disk.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open coordinator config: %w", err)
	}
	defer file.Close()
	return LoadConfigFromReader(file)
}

// LoadConfigFromReader constructs a Config from a reader.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read coordinator config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal coordinator config: %w", err)
	}
	if err := cfg.Prepare(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Prepare fills defaults, parses durations and validates. Loaders that
// embed Config in a larger file call it after unmarshalling.
func (c *Config) Prepare() error {
	c.applyDefaults()
	if err := c.parseDurations(); err != nil {
		return err
	}
	return c.Validate()
}

func (c *Config) applyDefaults() {
	if c.MaxCycles == 0 {
		c.MaxCycles = 3
	}
	if strings.TrimSpace(c.MessagingApp) == "" {
		c.MessagingApp = "WhatsApp"
	}
	if strings.TrimSpace(string(c.ResearchDomain)) == "" {
		c.ResearchDomain = compare.DomainFood
	}
	if strings.TrimSpace(c.IdleIntervalRaw) == "" {
		c.IdleIntervalRaw = "10s"
	}
	if strings.TrimSpace(c.StepDelayRaw) == "" {
		c.StepDelayRaw = "2s"
	}
	if strings.TrimSpace(c.OrderCooldownRaw) == "" {
		c.OrderCooldownRaw = "5s"
	}
}

func (c *Config) parseDurations() error {
	var err error
	if c.IdleInterval, err = parseDuration("idle_interval", c.IdleIntervalRaw); err != nil {
		return err
	}
	if c.StepDelay, err = parseDuration("step_delay", c.StepDelayRaw); err != nil {
		return err
	}
	if c.OrderCooldown, err = parseDuration("order_cooldown", c.OrderCooldownRaw); err != nil {
		return err
	}
	return nil
}

func parseDuration(field, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("coordinator config: invalid %s %q: %w", field, raw, err)
	}
	return d, nil
}

// Validate ensures configuration sanity.
func (c *Config) Validate() error {
	if c.MaxCycles <= 0 {
		return errors.New("coordinator config: max_cycles must be positive")
	}
	if c.IdleInterval < 0 || c.StepDelay < 0 || c.OrderCooldown < 0 {
		return errors.New("coordinator config: durations cannot be negative")
	}
	if _, err := compare.Lookup(c.ResearchDomain); err != nil {
		return fmt.Errorf("coordinator config: %w", err)
	}
	return nil
}
