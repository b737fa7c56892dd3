// Package store defines the violation store the sanction engine reads offense
// history from and writes new violations to.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/heibot/sanction"
)

// Store is the violation repository.
//
// Counting (ListActiveInSection) and creating (CreateViolation) are separate
// calls with no transaction between them. Two evaluations for the same user
// can read the same count before either write lands; callers that need
// stricter escalation serialize with a lock.Locker.
type Store interface {
	// CreateViolation persists a new violation and returns it with its id.
	CreateViolation(ctx context.Context, nv sanction.NewViolation) (*sanction.Violation, error)

	// GetViolation returns a single violation or sanction.ErrViolationNotFound.
	GetViolation(ctx context.Context, id string) (*sanction.Violation, error)

	// ListActiveInSection returns the user's unexpired violations in section
	// issued at or after since, newest first.
	ListActiveInSection(ctx context.Context, guildID, userID string, section sanction.RuleSection, since time.Time) ([]*sanction.Violation, error)

	// ListByUser returns the user's violations in a guild, newest first.
	ListByUser(ctx context.Context, guildID, userID string, includeExpired bool) ([]*sanction.Violation, error)

	// ExpireViolation marks a violation as expired by a moderator.
	ExpireViolation(ctx context.Context, id string, at time.Time) error

	// RecordReview stores a human review outcome on a violation.
	RecordReview(ctx context.Context, id string, review sanction.Review) error

	// Health check
	Ping(ctx context.Context) error
	Close() error
}

// ValidateNew checks the fields every store requires before insert.
func ValidateNew(nv sanction.NewViolation) error {
	switch {
	case strings.TrimSpace(nv.UserID) == "":
		return sanction.NewValidationError("user_id", "required")
	case strings.TrimSpace(nv.GuildID) == "":
		return sanction.NewValidationError("guild_id", "required")
	case !nv.Type.Valid():
		return sanction.NewValidationError("type", "unknown violation type "+string(nv.Type))
	case !nv.Severity.Valid():
		return sanction.NewValidationError("severity", "unknown severity")
	case nv.IssuedAt.IsZero():
		return sanction.NewValidationError("issued_at", "required")
	}
	for _, r := range nv.Restrictions {
		if !r.Valid() {
			return sanction.NewValidationError("restrictions", "unknown restriction "+string(r))
		}
	}
	return nil
}

// ValidateReview checks a review before it is recorded.
func ValidateReview(r sanction.Review) error {
	switch {
	case strings.TrimSpace(r.ReviewerID) == "":
		return sanction.NewValidationError("reviewer_id", "required")
	case !r.Outcome.Valid():
		return sanction.NewValidationError("outcome", "unknown review outcome "+string(r.Outcome))
	case r.At.IsZero():
		return sanction.NewValidationError("at", "required")
	}
	return nil
}

// IsActive reports whether v counts as active at now.
func IsActive(v *sanction.Violation, now time.Time) bool {
	if v == nil || v.ExpiredAt != nil {
		return false
	}
	return v.ExpiresAt == nil || v.ExpiresAt.After(now)
}
