package hooks

import (
	"time"

	"github.com/heibot/sanction"
)

// Target identifies the message and member an evaluation concerned.
type Target struct {
	GuildID   string `json:"guild_id"`
	ChannelID string `json:"channel_id,omitempty"`
	MessageID string `json:"message_id,omitempty"`
	UserID    string `json:"user_id"`
}

// PunishmentDecidedEvent is emitted when an evaluation punishes a user.
type PunishmentDecidedEvent struct {
	Target Target                     `json:"target"`
	Result *sanction.PunishmentResult `json:"result"`

	// Moderator-facing alert text
	Alert string `json:"alert"`

	EvaluationID string    `json:"evaluation_id"`
	Timestamp    time.Time `json:"timestamp"`
}

// ManualReviewRequiredEvent is emitted when a case needs a human decision.
type ManualReviewRequiredEvent struct {
	Target Target                     `json:"target"`
	Result *sanction.PunishmentResult `json:"result"`

	// Severity before the CRITICAL to HIGH review cap
	DecidedSeverity sanction.Severity `json:"decided_severity"`

	// Review priority (higher = more urgent)
	Priority int `json:"priority"`

	Alert        string    `json:"alert"`
	EvaluationID string    `json:"evaluation_id"`
	Timestamp    time.Time `json:"timestamp"`
}

// ReviewPriority ranks a review case. Severity dominates; repeat offenses
// break ties within a level.
func ReviewPriority(sev sanction.Severity, offenseCount int) int {
	if offenseCount < 0 {
		offenseCount = 0
	}
	if offenseCount > 99 {
		offenseCount = 99
	}
	return int(sev)*100 + offenseCount
}
