package sanction

import (
	"fmt"
	"time"
)

// Config is the engine policy. It is a plain value: build it once, hand it
// to the constructors, and never mutate it while evaluations are running.
type Config struct {
	// Enabled is the global kill switch. When false every evaluation is a no-op.
	Enabled bool `mapstructure:"enabled" json:"enabled"`

	// DryRun computes decisions without persisting or deleting anything.
	DryRun bool `mapstructure:"dry_run" json:"dry_run"`

	// LookbackDays is the offense window for same-section escalation.
	LookbackDays int `mapstructure:"lookback_days" json:"lookback_days"`

	// MaxAutoOffensesBeforeReview routes a case to a human at this many prior offenses.
	MaxAutoOffensesBeforeReview int `mapstructure:"max_auto_offenses_before_review" json:"max_auto_offenses_before_review"`

	// FirstOffenseSeverityCap clamps HIGH/CRITICAL first offenses on non-severe rules.
	FirstOffenseSeverityCap Severity `mapstructure:"first_offense_severity_cap" json:"first_offense_severity_cap"`

	// DeleteOnHighSeverity deletes the originating message at HIGH and above.
	DeleteOnHighSeverity bool `mapstructure:"delete_on_high_severity" json:"delete_on_high_severity"`

	// ExcludedChannelIDs are never evaluated.
	ExcludedChannelIDs []string `mapstructure:"excluded_channel_ids" json:"excluded_channel_ids"`

	// ViolationExpiry sets ExpiresAt on created violations. Zero or missing means no expiry.
	ViolationExpiry map[Severity]time.Duration `mapstructure:"-" json:"-"`
}

// DefaultConfig returns the default engine policy.
func DefaultConfig() Config {
	return Config{
		Enabled:                     true,
		DryRun:                      false,
		LookbackDays:                DefaultLookbackDays,
		MaxAutoOffensesBeforeReview: DefaultMaxAutoOffensesBeforeReview,
		FirstOffenseSeverityCap:     DefaultFirstOffenseSeverityCap,
		DeleteOnHighSeverity:        true,
		ViolationExpiry:             DefaultViolationExpiry(),
	}
}

// DefaultViolationExpiry returns the default expiry per severity.
// CRITICAL violations do not expire on their own.
func DefaultViolationExpiry() map[Severity]time.Duration {
	return map[Severity]time.Duration{
		SeverityLow:    7 * 24 * time.Hour,
		SeverityMedium: 30 * 24 * time.Hour,
		SeverityHigh:   90 * 24 * time.Hour,
	}
}

// Validate checks the configuration for values the engine cannot honor.
func (c Config) Validate() error {
	if c.LookbackDays <= 0 {
		return fmt.Errorf("%w: lookback_days must be positive, got %d", ErrInvalidConfig, c.LookbackDays)
	}
	if c.MaxAutoOffensesBeforeReview <= 0 {
		return fmt.Errorf("%w: max_auto_offenses_before_review must be positive, got %d", ErrInvalidConfig, c.MaxAutoOffensesBeforeReview)
	}
	if !c.FirstOffenseSeverityCap.Valid() {
		return fmt.Errorf("%w: first_offense_severity_cap is not a severity", ErrInvalidConfig)
	}
	for sev, d := range c.ViolationExpiry {
		if !sev.Valid() || d < 0 {
			return fmt.Errorf("%w: bad violation expiry %s=%s", ErrInvalidConfig, sev, d)
		}
	}
	return nil
}

// LookbackWindow returns the offense window as a duration.
func (c Config) LookbackWindow() time.Duration {
	return time.Duration(c.LookbackDays) * 24 * time.Hour
}

// IsChannelExcluded reports whether evaluations in channelID are skipped.
func (c Config) IsChannelExcluded(channelID string) bool {
	if channelID == "" {
		return false
	}
	for _, id := range c.ExcludedChannelIDs {
		if id == channelID {
			return true
		}
	}
	return false
}

// ExpiryFor returns the expiry instant for a violation of sev issued at issuedAt, or nil.
func (c Config) ExpiryFor(sev Severity, issuedAt time.Time) *time.Time {
	d, ok := c.ViolationExpiry[sev]
	if !ok || d <= 0 {
		return nil
	}
	t := issuedAt.Add(d)
	return &t
}
