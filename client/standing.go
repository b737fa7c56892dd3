package client

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/heibot/sanction"
	"github.com/heibot/sanction/standing"
)

// AccountStanding aggregates a member's violations, expired ones included in
// the total.
func (c *Client) AccountStanding(ctx context.Context, guildID, userID string) (sanction.AccountStandingData, error) {
	if guildID == "" || userID == "" {
		return sanction.AccountStandingData{}, sanction.NewValidationError("user_id", "guild and user are required")
	}

	vs, err := c.store.ListByUser(ctx, guildID, userID, true)
	if err != nil {
		storeErrorCount.WithLabelValues("list_user", string(sanction.GetErrorCategory(err))).Inc()
		return sanction.AccountStandingData{}, fmt.Errorf("load violations: %w", err)
	}
	return c.standing.Calculate(vs), nil
}

// AccountStandings looks up several members concurrently.
func (c *Client) AccountStandings(ctx context.Context, guildID string, userIDs []string) (map[string]sanction.AccountStandingData, error) {
	out := make([]sanction.AccountStandingData, len(userIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(DefaultBatchConcurrency)
	for i, uid := range userIDs {
		g.Go(func() error {
			data, err := c.AccountStanding(gctx, guildID, uid)
			if err != nil {
				return fmt.Errorf("%s: %w", uid, err)
			}
			out[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	m := make(map[string]sanction.AccountStandingData, len(userIDs))
	for i, uid := range userIDs {
		m[uid] = out[i]
	}
	return m, nil
}

// DescribeStanding returns the human-readable standing line for a member.
func (c *Client) DescribeStanding(ctx context.Context, guildID, userID string) (string, error) {
	data, err := c.AccountStanding(ctx, guildID, userID)
	if err != nil {
		return "", err
	}
	return standing.Describe(data), nil
}

// ExpireViolation lets a moderator lift a violation early.
func (c *Client) ExpireViolation(ctx context.Context, violationID, moderatorID string) error {
	if strings.TrimSpace(moderatorID) == "" {
		return sanction.NewValidationError("moderator_id", "required")
	}
	if err := c.store.ExpireViolation(ctx, violationID, c.clock.Now()); err != nil {
		return err
	}
	c.logger.Info("violation expired by moderator", "violation", violationID, "moderator", moderatorID)
	return nil
}

// RecordReview stores a reviewer's verdict on a violation.
func (c *Client) RecordReview(ctx context.Context, violationID, reviewerID string, outcome sanction.ReviewOutcome) error {
	review := sanction.Review{
		ReviewerID: reviewerID,
		Outcome:    outcome,
		At:         c.clock.Now(),
	}
	if err := c.store.RecordReview(ctx, violationID, review); err != nil {
		return err
	}
	c.logger.Info("violation reviewed", "violation", violationID, "reviewer", reviewerID, "outcome", outcome)

	// An overturned violation stops counting toward escalation and standing.
	if outcome == sanction.ReviewOverturned {
		if err := c.store.ExpireViolation(ctx, violationID, review.At); err != nil && !errors.Is(err, sanction.ErrAlreadyExpired) {
			return err
		}
	}
	return nil
}
