package workflow

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/adityaadep2008/TrioAgent/pkg/coordinator"
)

// Config defines the pacing and audit settings shared by every workflow.
type Config struct {
	// JournalDir enables per-run JSON reports when non-empty. Relative paths
	// resolve against the config file's directory.
	JournalDir string             `yaml:"journal_dir"`
	Compare    CompareConfig      `yaml:"compare"`
	Basket     BasketConfig       `yaml:"basket"`
	Travel     TravelConfig       `yaml:"travel"`
	Event      coordinator.Config `yaml:"event"`

	baseDir string
}

type CompareConfig struct {
	Cooldown      time.Duration `yaml:"-"`
	BaselineReset bool          `yaml:"baseline_reset"`

	CooldownRaw string `yaml:"cooldown"`
}

type BasketConfig struct {
	ItemCooldown     time.Duration `yaml:"-"`
	ProviderCooldown time.Duration `yaml:"-"`

	ItemCooldownRaw     string `yaml:"item_cooldown"`
	ProviderCooldownRaw string `yaml:"provider_cooldown"`
}

type TravelConfig struct {
	Days int `yaml:"days"`
}

// DefaultConfig returns the pacing used on a real handset, with journaling off.
func DefaultConfig() *Config {
	cfg := &Config{}
	if err := cfg.prepare(); err != nil {
		panic(err)
	}
	return cfg
}

// LoadConfig reads workflow configuration from disk.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open workflow config: %w", err)
	}
	defer file.Close()
	return LoadConfigFromReader(file, filepath.Dir(path))
}

// LoadConfigFromReader constructs a Config; baseDir anchors relative paths.
func LoadConfigFromReader(r io.Reader, baseDir string) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read workflow config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal workflow config: %w", err)
	}
	cfg.baseDir = baseDir
	if err := cfg.prepare(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) prepare() error {
	c.applyDefaults()
	if err := c.parseDurations(); err != nil {
		return err
	}
	c.JournalDir = c.resolvePath(c.JournalDir)
	if err := c.Event.Prepare(); err != nil {
		return fmt.Errorf("workflow config: event: %w", err)
	}
	return c.Validate()
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Compare.CooldownRaw) == "" {
		c.Compare.CooldownRaw = "2s"
	}
	if strings.TrimSpace(c.Basket.ItemCooldownRaw) == "" {
		c.Basket.ItemCooldownRaw = "2s"
	}
	if strings.TrimSpace(c.Basket.ProviderCooldownRaw) == "" {
		c.Basket.ProviderCooldownRaw = "3s"
	}
	if c.Travel.Days == 0 {
		c.Travel.Days = 3
	}
}

func (c *Config) parseDurations() error {
	var err error
	if c.Compare.Cooldown, err = parseDuration("compare.cooldown", c.Compare.CooldownRaw); err != nil {
		return err
	}
	if c.Basket.ItemCooldown, err = parseDuration("basket.item_cooldown", c.Basket.ItemCooldownRaw); err != nil {
		return err
	}
	c.Basket.ProviderCooldown, err = parseDuration("basket.provider_cooldown", c.Basket.ProviderCooldownRaw)
	return err
}

func parseDuration(field, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("workflow config: invalid %s %q: %w", field, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("workflow config: %s cannot be negative", field)
	}
	return d, nil
}

func (c *Config) resolvePath(path string) string {
	path = strings.TrimSpace(os.ExpandEnv(path))
	if path == "" || filepath.IsAbs(path) || c.baseDir == "" {
		return path
	}
	return filepath.Join(c.baseDir, path)
}

// Validate ensures configuration sanity.
func (c *Config) Validate() error {
	if c.Travel.Days < 1 || c.Travel.Days > 14 {
		return errors.New("workflow config: travel.days must be between 1 and 14")
	}
	return nil
}
