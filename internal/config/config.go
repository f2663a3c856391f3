package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config represents the full lockfleet configuration.
type Config struct {
	Audit    AuditConfig    `mapstructure:"audit"`
	Health   HealthConfig   `mapstructure:"health"`
	Paths    PathsConfig    `mapstructure:"paths"`
	Defaults DefaultsConfig `mapstructure:"defaults"`
}

// AuditConfig contains audit trail and evidence freshness settings.
type AuditConfig struct {
	// RequiredAuditDays is the evidence staleness threshold in days.
	RequiredAuditDays int `mapstructure:"required_audit_days"`
	// MaxEntries caps in-memory audit retention; negative disables it.
	MaxEntries int `mapstructure:"max_entries"`
	// Persist enables the JSONL audit sink under Paths.AuditDir.
	Persist bool `mapstructure:"persist"`
}

// HealthConfig contains health-check scoring weights and the active
// rollout phase.
type HealthConfig struct {
	Phase           int `mapstructure:"phase"`
	BaseScore       int `mapstructure:"base_score"`
	CriticalPenalty int `mapstructure:"critical_penalty"`
	WarningPenalty  int `mapstructure:"warning_penalty"`
	InfoPenalty     int `mapstructure:"info_penalty"`
}

// PathsConfig contains the output and evidence directories.
type PathsConfig struct {
	PolicyDir   string `mapstructure:"policy_dir"`
	AuditDir    string `mapstructure:"audit_dir"`
	SnapshotDir string `mapstructure:"snapshot_dir"`
	EvidenceDir string `mapstructure:"evidence_dir"`
}

// DefaultsConfig contains default rule generation settings.
type DefaultsConfig struct {
	TargetGroup     string `mapstructure:"target_group"`
	EnforcementMode string `mapstructure:"enforcement_mode"`
}

// Load loads configuration from file and environment.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(cfg)

	return cfg, nil
}

// applyDefaults sets default values for unset fields.
func applyDefaults(cfg *Config) {
	if cfg.Audit.RequiredAuditDays == 0 {
		cfg.Audit.RequiredAuditDays = 14
	}
	if cfg.Audit.MaxEntries == 0 {
		cfg.Audit.MaxEntries = 10000
	}

	if cfg.Health.Phase == 0 {
		cfg.Health.Phase = 1
	}
	if cfg.Health.BaseScore == 0 {
		cfg.Health.BaseScore = 100
	}
	if cfg.Health.CriticalPenalty == 0 {
		cfg.Health.CriticalPenalty = 20
	}
	if cfg.Health.WarningPenalty == 0 {
		cfg.Health.WarningPenalty = 5
	}
	if cfg.Health.InfoPenalty == 0 {
		cfg.Health.InfoPenalty = 1
	}

	if cfg.Paths.PolicyDir == "" {
		cfg.Paths.PolicyDir = "policies"
	}
	if cfg.Paths.AuditDir == "" {
		cfg.Paths.AuditDir = "audit"
	}
	if cfg.Paths.SnapshotDir == "" {
		cfg.Paths.SnapshotDir = "snapshots"
	}
	if cfg.Paths.EvidenceDir == "" {
		cfg.Paths.EvidenceDir = "evidence"
	}

	if cfg.Defaults.TargetGroup == "" {
		cfg.Defaults.TargetGroup = "Everyone"
	}
	if cfg.Defaults.EnforcementMode == "" {
		cfg.Defaults.EnforcementMode = "AuditOnly"
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Audit.RequiredAuditDays < 0 {
		return fmt.Errorf("required_audit_days must not be negative")
	}

	if c.Health.Phase < 1 || c.Health.Phase > 4 {
		return fmt.Errorf("invalid phase: %d (must be 1-4)", c.Health.Phase)
	}

	if c.Health.BaseScore <= 0 {
		return fmt.Errorf("base_score must be positive")
	}

	if c.Health.CriticalPenalty < 0 || c.Health.WarningPenalty < 0 || c.Health.InfoPenalty < 0 {
		return fmt.Errorf("penalty weights must not be negative")
	}

	validModes := map[string]bool{"AuditOnly": true, "Enabled": true, "NotConfigured": true}
	if !validModes[c.Defaults.EnforcementMode] {
		return fmt.Errorf("invalid enforcement_mode: %s (must be AuditOnly, Enabled, or NotConfigured)", c.Defaults.EnforcementMode)
	}

	return nil
}
