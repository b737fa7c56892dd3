package sanction

import (
	"time"
)

// ModerationResult is the classifier output for a flagged message.
type ModerationResult struct {
	Categories []string `json:"categories"` // Rule identifiers, e.g. "101"
	Reason     string   `json:"reason"`     // Free-text explanation
}

// Violation is a persisted policy violation.
// It is immutable once created, apart from review fields and active expiry.
type Violation struct {
	ID              string               `json:"id"`
	UserID          string               `json:"user_id"`
	GuildID         string               `json:"guild_id"`
	Type            ViolationType        `json:"type"`
	Severity        Severity             `json:"severity"`
	PolicyViolated  string               `json:"policy_violated"` // Comma-joined rule ids
	Section         RuleSection          `json:"section"`         // Primary section of PolicyViolated
	Reason          string               `json:"reason"`
	ContentSnapshot string               `json:"content_snapshot,omitempty"`
	Restrictions    []FeatureRestriction `json:"restrictions"`
	IssuedBy        string               `json:"issued_by"` // "" or "0" means automated
	IssuedAt        time.Time            `json:"issued_at"`
	ExpiresAt       *time.Time           `json:"expires_at,omitempty"` // Passive expiry
	ExpiredAt       *time.Time           `json:"expired_at,omitempty"` // Set by a moderator
	ReviewedAt      *time.Time           `json:"reviewed_at,omitempty"`
	ReviewedBy      string               `json:"reviewed_by,omitempty"`
	ReviewOutcome   ReviewOutcome        `json:"review_outcome,omitempty"`
}

// NewViolation carries the fields needed to create a Violation.
type NewViolation struct {
	UserID          string
	GuildID         string
	Type            ViolationType
	Severity        Severity
	PolicyViolated  string
	Section         RuleSection
	Reason          string
	ContentSnapshot string
	Restrictions    []FeatureRestriction
	IssuedBy        string
	IssuedAt        time.Time
	ExpiresAt       *time.Time
}

// ReviewOutcome is the verdict a human reviewer records on a violation.
type ReviewOutcome string

const (
	ReviewUpheld     ReviewOutcome = "upheld"
	ReviewOverturned ReviewOutcome = "overturned"
	ReviewEscalated  ReviewOutcome = "escalated"
)

// Valid reports whether o is a known outcome.
func (o ReviewOutcome) Valid() bool {
	switch o {
	case ReviewUpheld, ReviewOverturned, ReviewEscalated:
		return true
	}
	return false
}

// Review is a reviewer's decision on an existing violation.
type Review struct {
	ReviewerID string
	Outcome    ReviewOutcome
	At         time.Time
}

// MappedViolation is the decision derived from a batch of rule ids.
// It is recomputed per evaluation and never persisted.
type MappedViolation struct {
	RuleIDs        []string      `json:"rule_ids"`
	Sections       []RuleSection `json:"sections"`
	PrimarySection RuleSection   `json:"primary_section"`
	Type           ViolationType `json:"type"`
	IsSevere       bool          `json:"is_severe"`
}

// PunishmentResult is the outcome of one evaluation.
type PunishmentResult struct {
	EvaluationID     string               `json:"evaluation_id"`
	Punished         bool                 `json:"punished"`
	FlaggedForReview bool                 `json:"flagged_for_review"`
	Violation        *Violation           `json:"violation"` // nil in dry-run
	OffenseCount     int                  `json:"offense_count"`
	Severity         Severity             `json:"severity,omitempty"`
	Restrictions     []FeatureRestriction `json:"restrictions"`
	MessageDeleted   bool                 `json:"message_deleted"` // Would be deleted, in dry-run
	DryRun           bool                 `json:"dry_run"`
	Skipped          bool                 `json:"skipped"` // Engine disabled or channel excluded
	Mapped           *MappedViolation     `json:"mapped,omitempty"`
	Error            string               `json:"error,omitempty"`
}

// AccountStandingData aggregates a user's active violations.
type AccountStandingData struct {
	Standing         Standing             `json:"standing"`
	ActiveViolations int                  `json:"active_violations"`
	TotalViolations  int                  `json:"total_violations"`
	Restrictions     []FeatureRestriction `json:"restrictions"`
	SeverityScore    float64              `json:"severity_score"`
	LastViolationAt  *time.Time           `json:"last_violation_at,omitempty"`
	NextExpirationAt *time.Time           `json:"next_expiration_at,omitempty"`
}
