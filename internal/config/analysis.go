package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvAnalysisProposerTimeout   = "ADAUDIT_ANALYSIS_PROPOSER_TIMEOUT"
	EnvAnalysisSchedulerInterval = "ADAUDIT_ANALYSIS_SCHEDULER_INTERVAL"
	EnvAnalysisNegativeSlack     = "ADAUDIT_ANALYSIS_NEGATIVE_SUPERSET_SLACK"
)

// AnalysisConfig holds analysis pipeline and learning scheduler parameters.
type AnalysisConfig struct {
	ProposerTimeout       string `toml:"proposer_timeout"`
	SchedulerInterval     string `toml:"scheduler_interval"`
	NegativeSupersetSlack int    `toml:"negative_superset_slack"`
}

// ProposerTimeoutDuration returns ProposerTimeout as a time.Duration.
func (c *AnalysisConfig) ProposerTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ProposerTimeout)
	return d
}

// SchedulerIntervalDuration returns SchedulerInterval as a time.Duration.
func (c *AnalysisConfig) SchedulerIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.SchedulerInterval)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *AnalysisConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *AnalysisConfig) Merge(overlay *AnalysisConfig) {
	if overlay.ProposerTimeout != "" {
		c.ProposerTimeout = overlay.ProposerTimeout
	}
	if overlay.SchedulerInterval != "" {
		c.SchedulerInterval = overlay.SchedulerInterval
	}
	if overlay.NegativeSupersetSlack != 0 {
		c.NegativeSupersetSlack = overlay.NegativeSupersetSlack
	}
}

func (c *AnalysisConfig) loadDefaults() {
	if c.ProposerTimeout == "" {
		c.ProposerTimeout = "45s"
	}
	if c.SchedulerInterval == "" {
		c.SchedulerInterval = "10m"
	}
	if c.NegativeSupersetSlack == 0 {
		c.NegativeSupersetSlack = 5
	}
}

func (c *AnalysisConfig) loadEnv() {
	if v := os.Getenv(EnvAnalysisProposerTimeout); v != "" {
		c.ProposerTimeout = v
	}
	if v := os.Getenv(EnvAnalysisSchedulerInterval); v != "" {
		c.SchedulerInterval = v
	}
	if v := os.Getenv(EnvAnalysisNegativeSlack); v != "" {
		if slack, err := strconv.Atoi(v); err == nil {
			c.NegativeSupersetSlack = slack
		}
	}
}

func (c *AnalysisConfig) validate() error {
	if _, err := time.ParseDuration(c.ProposerTimeout); err != nil {
		return fmt.Errorf("invalid proposer_timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.SchedulerInterval); err != nil {
		return fmt.Errorf("invalid scheduler_interval: %w", err)
	}
	if c.NegativeSupersetSlack < 0 {
		return fmt.Errorf("invalid negative_superset_slack: %d", c.NegativeSupersetSlack)
	}
	return nil
}
