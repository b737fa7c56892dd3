package escalation

import "github.com/heibot/sanction"

// Policy holds the first-offense cap and manual review threshold.
type Policy struct {
	FirstOffenseCap             sanction.Severity
	MaxAutoOffensesBeforeReview int
}

// NewPolicy builds a Policy from the engine configuration.
func NewPolicy(cfg sanction.Config) Policy {
	p := Policy{
		FirstOffenseCap:             cfg.FirstOffenseSeverityCap,
		MaxAutoOffensesBeforeReview: cfg.MaxAutoOffensesBeforeReview,
	}
	if !p.FirstOffenseCap.Valid() {
		p.FirstOffenseCap = sanction.DefaultFirstOffenseSeverityCap
	}
	if p.MaxAutoOffensesBeforeReview <= 0 {
		p.MaxAutoOffensesBeforeReview = sanction.DefaultMaxAutoOffensesBeforeReview
	}
	return p
}

// ApplyFirstOffenseCap dampens HIGH and CRITICAL automated first offenses
// down to the configured cap. Severe rules and repeat offenses pass through.
func (p Policy) ApplyFirstOffenseCap(sev sanction.Severity, offenseCount int, isSevere bool) sanction.Severity {
	if isSevere || offenseCount != 0 {
		return sev
	}
	if sev >= sanction.SeverityHigh && sev > p.FirstOffenseCap {
		return p.FirstOffenseCap
	}
	return sev
}

// ShouldFlagForManualReview reports whether the case must go to a human.
// CRITICAL is never applied automatically, even on a first offense.
func (p Policy) ShouldFlagForManualReview(offenseCount int, sev sanction.Severity) bool {
	return offenseCount >= p.MaxAutoOffensesBeforeReview || sev == sanction.SeverityCritical
}

// CapForReview lowers CRITICAL to HIGH on flagged cases; only a reviewer
// may confirm a CRITICAL action.
func (p Policy) CapForReview(sev sanction.Severity, flagged bool) sanction.Severity {
	if flagged && sev == sanction.SeverityCritical {
		return sanction.SeverityHigh
	}
	return sev
}
