// Package hooks provides the notification interface for sanction decisions.
package hooks

import (
	"context"
	"errors"
)

// Hooks receives evaluation outcomes. Errors are logged by the caller and
// never change a decision.
type Hooks interface {
	// OnPunishmentDecided is called after a punishment is applied, or would
	// be applied in dry-run.
	OnPunishmentDecided(ctx context.Context, e PunishmentDecidedEvent) error

	// OnManualReviewRequired is called when a case is routed to a moderator.
	OnManualReviewRequired(ctx context.Context, e ManualReviewRequiredEvent) error
}

// NopHooks is a no-op implementation of Hooks.
type NopHooks struct{}

// OnPunishmentDecided does nothing.
func (NopHooks) OnPunishmentDecided(ctx context.Context, e PunishmentDecidedEvent) error {
	return nil
}

// OnManualReviewRequired does nothing.
func (NopHooks) OnManualReviewRequired(ctx context.Context, e ManualReviewRequiredEvent) error {
	return nil
}

var _ Hooks = NopHooks{}

// ChainHooks fans an event out to every hook in order. Every hook runs even
// if an earlier one fails; the errors are joined.
type ChainHooks []Hooks

// OnPunishmentDecided calls all hooks in order.
func (ch ChainHooks) OnPunishmentDecided(ctx context.Context, e PunishmentDecidedEvent) error {
	var errs []error
	for _, h := range ch {
		if err := h.OnPunishmentDecided(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OnManualReviewRequired calls all hooks in order.
func (ch ChainHooks) OnManualReviewRequired(ctx context.Context, e ManualReviewRequiredEvent) error {
	var errs []error
	for _, h := range ch {
		if err := h.OnManualReviewRequired(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FuncHooks allows using functions as hooks.
type FuncHooks struct {
	OnPunishmentDecidedFunc    func(ctx context.Context, e PunishmentDecidedEvent) error
	OnManualReviewRequiredFunc func(ctx context.Context, e ManualReviewRequiredEvent) error
}

// OnPunishmentDecided calls the function if set.
func (fh FuncHooks) OnPunishmentDecided(ctx context.Context, e PunishmentDecidedEvent) error {
	if fh.OnPunishmentDecidedFunc != nil {
		return fh.OnPunishmentDecidedFunc(ctx, e)
	}
	return nil
}

// OnManualReviewRequired calls the function if set.
func (fh FuncHooks) OnManualReviewRequired(ctx context.Context, e ManualReviewRequiredEvent) error {
	if fh.OnManualReviewRequiredFunc != nil {
		return fh.OnManualReviewRequiredFunc(ctx, e)
	}
	return nil
}
