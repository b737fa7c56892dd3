package discord

import (
	"context"
	"fmt"

	"github.com/heibot/sanction/hooks"
)

// Notifier posts engine decisions to the configured moderator channels.
type Notifier struct {
	platform *Platform
}

var _ hooks.Hooks = (*Notifier)(nil)

// NewNotifier returns hooks that forward alerts through p.
func NewNotifier(p *Platform) *Notifier {
	return &Notifier{platform: p}
}

// OnPunishmentDecided posts the decision alert to the alert channel.
func (n *Notifier) OnPunishmentDecided(ctx context.Context, e hooks.PunishmentDecidedEvent) error {
	ch := n.platform.config.AlertChannelID
	if ch == "" || e.Alert == "" {
		return nil
	}
	return n.platform.Send(ctx, ch, e.Alert)
}

// OnManualReviewRequired posts a review request to the review channel.
func (n *Notifier) OnManualReviewRequired(ctx context.Context, e hooks.ManualReviewRequiredEvent) error {
	ch := n.platform.config.reviewChannel()
	if ch == "" {
		return nil
	}
	content := fmt.Sprintf("**Manual review required** (priority %d, decided %s)\n%s", e.Priority, e.DecidedSeverity, e.Alert)
	return n.platform.Send(ctx, ch, content)
}
