// Package discord adapts a Discord bot session to the engine: it deletes
// offending messages and posts alerts and review requests to moderator
// channels.
package discord

import (
	"time"

	"github.com/heibot/sanction/utils"
)

const platformName = "discord"

// maxMessageRunes is Discord's message content limit.
const maxMessageRunes = 2000

// Config holds the configuration for the Discord adapter.
type Config struct {
	// Token is the bot token, without the "Bot " prefix.
	Token string `mapstructure:"token"`

	// AlertChannelID receives every decision. Empty disables alerts.
	AlertChannelID string `mapstructure:"alert_channel_id"`

	// ReviewChannelID receives manual review requests. Defaults to AlertChannelID.
	ReviewChannelID string `mapstructure:"review_channel_id"`

	// Timeout bounds a single REST call.
	Timeout time.Duration `mapstructure:"timeout"`

	// MaxRetries for rate-limited or transient failures.
	MaxRetries int `mapstructure:"max_retries"`
}

// DefaultConfig returns the default Discord configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:    10 * time.Second,
		MaxRetries: 3,
	}
}

func (c Config) reviewChannel() string {
	if c.ReviewChannelID != "" {
		return c.ReviewChannelID
	}
	return c.AlertChannelID
}

func (c Config) retryConfig() utils.RetryConfig {
	rc := utils.DefaultRetryConfig()
	rc.MaxRetries = c.MaxRetries
	return rc
}
