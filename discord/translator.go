package discord

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/heibot/sanction"
)

// translateError converts discordgo errors into sanction.PlatformError so
// callers can use sanction.IsNotFound and sanction.IsRetryable.
func translateError(operation string, err error) error {
	if err == nil {
		return nil
	}

	var rl *discordgo.RateLimitError
	if errors.As(err, &rl) {
		pe := sanction.NewPlatformError(platformName, operation, "rate limited").
			WithStatusCode(http.StatusTooManyRequests).
			WithCause(fmt.Errorf("%w: %w", sanction.ErrRateLimited, err))
		if rl.RateLimit != nil && rl.TooManyRequests != nil {
			pe = pe.WithRetryAfter(rl.RetryAfter)
		}
		return pe
	}

	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) {
		msg := err.Error()
		code := 0
		if restErr.Message != nil {
			code = restErr.Message.Code
			if restErr.Message.Message != "" {
				msg = restErr.Message.Message
			}
		}
		pe := sanction.NewPlatformError(platformName, operation, msg).WithCode(code).WithCause(err)
		if restErr.Response != nil {
			pe = pe.WithStatusCode(restErr.Response.StatusCode)
			if restErr.Response.StatusCode == http.StatusTooManyRequests {
				pe = pe.WithCause(fmt.Errorf("%w: %w", sanction.ErrRateLimited, err))
			}
		}
		switch code {
		case discordgo.ErrCodeUnknownMessage, discordgo.ErrCodeUnknownChannel:
			pe = pe.WithCategory(sanction.ErrorCategoryNotFound)
		case discordgo.ErrCodeMissingPermissions, discordgo.ErrCodeMissingAccess:
			pe = pe.WithCategory(sanction.ErrorCategoryAuth)
		}
		return pe
	}

	pe := sanction.NewPlatformError(platformName, operation, err.Error()).WithCause(err)
	if sanction.IsNetworkError(err) {
		pe = pe.WithCategory(sanction.ErrorCategoryNetwork)
	}
	return pe
}
