package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/heibot/sanction"
	"github.com/heibot/sanction/utils"
)

// Session is the subset of *discordgo.Session the adapter calls.
type Session interface {
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Platform wraps a Discord session with retry and logging.
type Platform struct {
	session Session
	config  Config
	retryer *utils.Retryer
	logger  *slog.Logger
}

// NewSession opens a REST-only bot session for token. discordgo's own
// rate-limit sleeping is disabled so waits surface as retryable errors.
func NewSession(token string) (*discordgo.Session, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: discord token", sanction.ErrMissingConfig)
	}
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	s.ShouldRetryOnRateLimit = false
	return s, nil
}

// New creates a Platform around session. A nil logger uses slog.Default().
func New(session Session, cfg Config, logger *slog.Logger) *Platform {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "discord")

	rc := cfg.retryConfig()
	rc.OnRetry = func(attempt int, err error, delay time.Duration) {
		logger.Warn("retrying discord call", "attempt", attempt, "delay", delay, "err", err)
	}

	return &Platform{
		session: session,
		config:  cfg,
		retryer: utils.NewRetryer(rc),
		logger:  logger,
	}
}

// call runs fn with retries. A failure after the per-call timeout expired,
// while ctx itself is still live, wraps sanction.ErrTimeout and is retried.
func (p *Platform) call(ctx context.Context, fn func(ctx context.Context) error) error {
	return p.retryer.Do(ctx, func(parent context.Context) error {
		ctx := parent
		if p.config.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(parent, p.config.Timeout)
			defer cancel()
		}
		err := fn(ctx)
		if err != nil && parent.Err() == nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %s: %w", sanction.ErrTimeout, p.config.Timeout, err)
		}
		return err
	})
}

// DeleteMessage removes a message. An already deleted message returns an
// error satisfying sanction.IsNotFound.
func (p *Platform) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return p.call(ctx, func(ctx context.Context) error {
		err := p.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx))
		return translateError("delete_message", err)
	})
}

// Send posts content to channelID without pinging anyone. Content longer
// than Discord allows is truncated.
func (p *Platform) Send(ctx context.Context, channelID, content string) error {
	if channelID == "" {
		return sanction.NewValidationError("channel_id", "required")
	}
	msg := &discordgo.MessageSend{
		Content:         truncate(content, maxMessageRunes),
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	}
	return p.call(ctx, func(ctx context.Context) error {
		_, err := p.session.ChannelMessageSendComplex(channelID, msg, discordgo.WithContext(ctx))
		return translateError("send_message", err)
	})
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
