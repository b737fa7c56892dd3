// Package client provides the punishment orchestrator: it turns classifier
// output and a user's offense history into a PunishmentResult and, outside
// dry-run, applies it.
package client

import (
	"context"
	"log/slog"

	"github.com/heibot/sanction"
	"github.com/heibot/sanction/hooks"
	"github.com/heibot/sanction/lock"
	"github.com/heibot/sanction/store"
)

// MessageDeleter removes the message that triggered an evaluation.
type MessageDeleter interface {
	DeleteMessage(ctx context.Context, channelID, messageID string) error
}

// MessageDeleterFunc adapts a function to MessageDeleter.
type MessageDeleterFunc func(ctx context.Context, channelID, messageID string) error

// DeleteMessage calls f.
func (f MessageDeleterFunc) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return f(ctx, channelID, messageID)
}

// Options configures the client.
type Options struct {
	// Store is the violation store (required).
	Store store.Store

	// Config is the engine policy. Zero value means sanction.DefaultConfig().
	Config *sanction.Config

	// Hooks receives decisions. Defaults to hooks.NopHooks.
	Hooks hooks.Hooks

	// Deleter removes offending messages in live mode (optional).
	Deleter MessageDeleter

	// Locker serializes count+create per user and section (optional).
	// Without one, concurrent evaluations may under-escalate.
	Locker lock.Locker

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Clock defaults to the wall clock.
	Clock sanction.Clock
}

// EvaluateInput is one flagged message.
type EvaluateInput struct {
	GuildID   string `json:"guild_id"`
	ChannelID string `json:"channel_id,omitempty"`
	MessageID string `json:"message_id,omitempty"`
	UserID    string `json:"user_id"`

	// Content is stored as the violation's content snapshot.
	Content string `json:"content,omitempty"`

	// Moderation is the classifier output or a moderator's rule selection.
	Moderation sanction.ModerationResult `json:"moderation"`

	// IssuedBy is the moderator id for manual reports. Empty means automated.
	IssuedBy string `json:"issued_by,omitempty"`

	// MinSeverity raises the computed severity, for moderator escalations.
	MinSeverity sanction.Severity `json:"min_severity,omitempty"`

	// PriorOffenses replaces the stored same-section count, for replaying
	// decisions from an external history. Loose values are normalized.
	PriorOffenses *float64 `json:"prior_offenses,omitempty"`
}

// automated reports whether the evaluation came from the classifier.
func (in EvaluateInput) automated() bool {
	return in.IssuedBy == "" || in.IssuedBy == sanction.AutomatedIssuer
}

func (in EvaluateInput) target() hooks.Target {
	return hooks.Target{
		GuildID:   in.GuildID,
		ChannelID: in.ChannelID,
		MessageID: in.MessageID,
		UserID:    in.UserID,
	}
}
