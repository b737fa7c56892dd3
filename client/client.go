package client

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/heibot/sanction"
	"github.com/heibot/sanction/escalation"
	"github.com/heibot/sanction/hooks"
	"github.com/heibot/sanction/lock"
	"github.com/heibot/sanction/standing"
	"github.com/heibot/sanction/store"
	"github.com/heibot/sanction/violation"
)

// maxSnapshotRunes bounds the stored content snapshot.
const maxSnapshotRunes = 2000

// errCouldNotMap is the result error for a batch with no usable rule id.
const errCouldNotMap = "could not map categories"

// Client is the punishment orchestrator.
type Client struct {
	store    store.Store
	hooks    hooks.Hooks
	deleter  MessageDeleter
	locker   lock.Locker
	logger   *slog.Logger
	clock    sanction.Clock
	cfg      sanction.Config
	policy   escalation.Policy
	standing *standing.Calculator
}

// New creates a new client.
func New(opts Options) (*Client, error) {
	if opts.Store == nil {
		return nil, sanction.ErrStoreNotConfigured
	}

	cfg := sanction.DefaultConfig()
	if opts.Config != nil {
		cfg = *opts.Config
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.ExcludedChannelIDs = append([]string(nil), cfg.ExcludedChannelIDs...)

	if opts.Hooks == nil {
		opts.Hooks = hooks.NopHooks{}
	}
	if opts.Locker == nil {
		opts.Locker = lock.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = sanction.SystemClock{}
	}

	return &Client{
		store:    opts.Store,
		hooks:    opts.Hooks,
		deleter:  opts.Deleter,
		locker:   opts.Locker,
		logger:   opts.Logger.With("component", "sanction"),
		clock:    opts.Clock,
		cfg:      cfg,
		policy:   escalation.NewPolicy(cfg),
		standing: standing.New(opts.Clock),
	}, nil
}

// Config returns the policy the client was built with.
func (c *Client) Config() sanction.Config {
	return c.cfg
}

// Ping checks the violation store.
func (c *Client) Ping(ctx context.Context) error {
	return c.store.Ping(ctx)
}

// Evaluate decides, and outside dry-run applies, the punishment for one
// flagged message. Operational failures are reported in the result's Error
// field; the returned error is only set for invalid input.
func (c *Client) Evaluate(ctx context.Context, in EvaluateInput) (*sanction.PunishmentResult, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return nil, sanction.NewValidationError("user_id", "required")
	}
	if strings.TrimSpace(in.GuildID) == "" {
		return nil, sanction.NewValidationError("guild_id", "required")
	}

	start := time.Now()
	res := &sanction.PunishmentResult{
		EvaluationID: uuid.NewString(),
		DryRun:       c.cfg.DryRun,
		Restrictions: []sanction.FeatureRestriction{},
	}
	logger := c.logger.With("evaluation", res.EvaluationID, "guild", in.GuildID, "user", in.UserID, "channel", in.ChannelID)

	outcome := c.evaluate(ctx, logger, in, res)
	evaluationCount.WithLabelValues(outcome).Inc()
	evaluationDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	return res, nil
}

func (c *Client) evaluate(ctx context.Context, logger *slog.Logger, in EvaluateInput, res *sanction.PunishmentResult) string {
	if !c.cfg.Enabled || c.cfg.IsChannelExcluded(in.ChannelID) {
		res.Skipped = true
		logger.Debug("evaluation skipped", "enabled", c.cfg.Enabled)
		return "skipped"
	}

	mapped, err := violation.MapBatch(in.Moderation.Categories)
	if err != nil {
		res.Error = errCouldNotMap
		logger.Warn("unmapped evaluation", "categories", in.Moderation.Categories, "err", err)
		return "unmapped"
	}
	res.Mapped = mapped

	unlock, err := c.locker.Lock(ctx, lock.Key(in.GuildID, in.UserID, mapped.PrimarySection))
	if err != nil {
		logger.Warn("evaluating without lock", "err", err)
		unlock = func() {}
	}
	defer unlock()

	now := c.clock.Now()
	var count int
	if in.PriorOffenses != nil {
		count = escalation.NormalizeOffenseCount(*in.PriorOffenses)
		logger.Debug("using supplied offense count", "supplied", *in.PriorOffenses, "count", count)
	} else {
		count = c.countOffenses(ctx, logger, in, mapped.PrimarySection, now)
	}

	sev := escalation.CalculateSeverity(count, mapped.IsSevere)
	sev = c.policy.ApplyFirstOffenseCap(sev, count, mapped.IsSevere)
	if in.MinSeverity.Valid() && in.MinSeverity > sev {
		sev = in.MinSeverity
	}
	flagged := c.policy.ShouldFlagForManualReview(count, sev)
	decided := sev
	sev = c.policy.CapForReview(sev, flagged)

	res.OffenseCount = count
	res.Severity = sev
	res.FlaggedForReview = flagged
	res.Restrictions = escalation.GetRestrictions(mapped.Type, sev)
	shouldDelete := c.cfg.DeleteOnHighSeverity && sev >= sanction.SeverityHigh && in.MessageID != "" && in.ChannelID != ""

	logger = logger.With("type", mapped.Type, "severity", sev, "offenses", count, "section", mapped.PrimarySection)
	decisionSeverityCount.WithLabelValues(string(mapped.Type), sev.String(), fmt.Sprint(c.cfg.DryRun)).Inc()
	if flagged {
		reviewFlagCount.Inc()
	}

	outcome := "punished"
	if c.cfg.DryRun {
		res.Punished = true
		res.MessageDeleted = shouldDelete
		logger.Info("dry run decision",
			"restrictions", res.Restrictions,
			"would_delete", shouldDelete,
			"flagged", flagged)
		outcome = "dry_run"
	} else {
		v, err := c.store.CreateViolation(ctx, c.newViolation(in, mapped, sev, res.Restrictions, now))
		if err != nil {
			storeErrorCount.WithLabelValues("create", string(sanction.GetErrorCategory(err))).Inc()
			logger.Error("failed to create violation", "err", err)
			res.Error = fmt.Sprintf("create violation: %v", err)
			return "store_error"
		}
		res.Punished = true
		res.Violation = v
		// Release before the platform call; the count/create pair is done.
		unlock()

		if shouldDelete {
			res.MessageDeleted = c.deleteMessage(ctx, logger, in)
		}
		logger.Info("punishment applied",
			"violation", v.ID,
			"restrictions", res.Restrictions,
			"deleted", res.MessageDeleted,
			"flagged", flagged)
	}

	c.fireHooks(ctx, logger, in, res, decided)
	return outcome
}

// countOffenses counts active same-section violations inside the lookback
// window. Store failures count as zero.
func (c *Client) countOffenses(ctx context.Context, logger *slog.Logger, in EvaluateInput, section sanction.RuleSection, now time.Time) int {
	since := now.Add(-c.cfg.LookbackWindow())

	vs, err := c.store.ListActiveInSection(ctx, in.GuildID, in.UserID, section, since)
	if err != nil {
		storeErrorCount.WithLabelValues("list", string(sanction.GetErrorCategory(err))).Inc()
		logger.Warn("failed to load offense history, counting zero", "err", err)
		return 0
	}

	count := 0
	for _, v := range vs {
		if v == nil || v.Section != section || v.IssuedAt.Before(since) || c.standing.IsExpired(v) {
			continue
		}
		count++
	}
	return count
}

func (c *Client) newViolation(in EvaluateInput, mapped *sanction.MappedViolation, sev sanction.Severity, restrictions []sanction.FeatureRestriction, now time.Time) sanction.NewViolation {
	reason := strings.TrimSpace(in.Moderation.Reason)
	issuedBy := in.IssuedBy
	if in.automated() {
		issuedBy = sanction.AutomatedIssuer
		if reason == "" {
			reason = sanction.AIDetectedMarker
		} else {
			reason = sanction.AIDetectedMarker + ": " + reason
		}
	}

	return sanction.NewViolation{
		UserID:          in.UserID,
		GuildID:         in.GuildID,
		Type:            mapped.Type,
		Severity:        sev,
		PolicyViolated:  violation.FormatPolicy(mapped.RuleIDs),
		Section:         mapped.PrimarySection,
		Reason:          reason,
		ContentSnapshot: truncateRunes(in.Content, maxSnapshotRunes),
		Restrictions:    restrictions,
		IssuedBy:        issuedBy,
		IssuedAt:        now,
		ExpiresAt:       c.cfg.ExpiryFor(sev, now),
	}
}

// deleteMessage removes the message. A message that is already gone counts as deleted.
func (c *Client) deleteMessage(ctx context.Context, logger *slog.Logger, in EvaluateInput) bool {
	if c.deleter == nil {
		logger.Debug("no message deleter configured")
		return false
	}

	err := c.deleter.DeleteMessage(ctx, in.ChannelID, in.MessageID)
	switch {
	case err == nil:
		messageDeleteCount.WithLabelValues("ok").Inc()
		return true
	case sanction.IsNotFound(err):
		messageDeleteCount.WithLabelValues("gone").Inc()
		logger.Info("message already deleted", "message", in.MessageID)
		return true
	default:
		messageDeleteCount.WithLabelValues(string(sanction.GetErrorCategory(err))).Inc()
		logger.Warn("failed to delete message", "message", in.MessageID, "err", err)
		return false
	}
}

func (c *Client) fireHooks(ctx context.Context, logger *slog.Logger, in EvaluateInput, res *sanction.PunishmentResult, decided sanction.Severity) {
	alert := FormatAlert(res, in)
	ts := c.clock.Now()

	err := c.hooks.OnPunishmentDecided(ctx, hooks.PunishmentDecidedEvent{
		Target:       in.target(),
		Result:       res,
		Alert:        alert,
		EvaluationID: res.EvaluationID,
		Timestamp:    ts,
	})
	if err != nil {
		hookErrorCount.WithLabelValues("punishment_decided").Inc()
		logger.Warn("punishment hook failed", "err", err)
	}

	if !res.FlaggedForReview {
		return
	}
	err = c.hooks.OnManualReviewRequired(ctx, hooks.ManualReviewRequiredEvent{
		Target:          in.target(),
		Result:          res,
		DecidedSeverity: decided,
		Priority:        hooks.ReviewPriority(decided, res.OffenseCount),
		Alert:           alert,
		EvaluationID:    res.EvaluationID,
		Timestamp:       ts,
	})
	if err != nil {
		hookErrorCount.WithLabelValues("manual_review_required").Inc()
		logger.Warn("manual review hook failed", "err", err)
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
