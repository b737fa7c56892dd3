// Package memory provides an in-process violation store for tests, dry runs
// and single-instance deployments.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/heibot/sanction"
	"github.com/heibot/sanction/store"
	"github.com/heibot/sanction/utils"
)

// Store implements store.Store in memory.
type Store struct {
	mu         sync.RWMutex
	violations map[string]*sanction.Violation
	clock      sanction.Clock
	idGen      *utils.IDGenerator
}

var _ store.Store = (*Store)(nil)

// New creates an empty store. A nil clock uses the wall clock.
func New(clock sanction.Clock) *Store {
	if clock == nil {
		clock = sanction.SystemClock{}
	}
	return &Store{
		violations: make(map[string]*sanction.Violation),
		clock:      clock,
		idGen:      utils.NewIDGenerator(),
	}
}

// CreateViolation stores a copy of nv under a new id.
func (s *Store) CreateViolation(ctx context.Context, nv sanction.NewViolation) (*sanction.Violation, error) {
	if err := store.ValidateNew(nv); err != nil {
		return nil, err
	}

	v := &sanction.Violation{
		ID:              s.idGen.Generate(),
		UserID:          nv.UserID,
		GuildID:         nv.GuildID,
		Type:            nv.Type,
		Severity:        nv.Severity,
		PolicyViolated:  nv.PolicyViolated,
		Section:         nv.Section,
		Reason:          nv.Reason,
		ContentSnapshot: nv.ContentSnapshot,
		Restrictions:    append([]sanction.FeatureRestriction{}, nv.Restrictions...),
		IssuedBy:        nv.IssuedBy,
		IssuedAt:        nv.IssuedAt,
		ExpiresAt:       copyTime(nv.ExpiresAt),
	}

	s.mu.Lock()
	s.violations[v.ID] = v
	s.mu.Unlock()

	return clone(v), nil
}

// GetViolation returns a copy of the violation with id.
func (s *Store) GetViolation(ctx context.Context, id string) (*sanction.Violation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.violations[id]
	if !ok {
		return nil, sanction.ErrViolationNotFound
	}
	return clone(v), nil
}

// ListActiveInSection returns active violations in section issued since since.
func (s *Store) ListActiveInSection(ctx context.Context, guildID, userID string, section sanction.RuleSection, since time.Time) ([]*sanction.Violation, error) {
	now := s.clock.Now()
	return s.list(func(v *sanction.Violation) bool {
		return v.GuildID == guildID &&
			v.UserID == userID &&
			v.Section == section &&
			!v.IssuedAt.Before(since) &&
			store.IsActive(v, now)
	}), nil
}

// ListByUser returns the user's violations in guildID.
func (s *Store) ListByUser(ctx context.Context, guildID, userID string, includeExpired bool) ([]*sanction.Violation, error) {
	now := s.clock.Now()
	return s.list(func(v *sanction.Violation) bool {
		if v.GuildID != guildID || v.UserID != userID {
			return false
		}
		return includeExpired || store.IsActive(v, now)
	}), nil
}

func (s *Store) list(match func(*sanction.Violation) bool) []*sanction.Violation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*sanction.Violation, 0)
	for _, v := range s.violations {
		if match(v) {
			out = append(out, clone(v))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IssuedAt.Equal(out[j].IssuedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].IssuedAt.After(out[j].IssuedAt)
	})
	return out
}

// ExpireViolation sets ExpiredAt on an active violation.
func (s *Store) ExpireViolation(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.violations[id]
	if !ok {
		return sanction.ErrViolationNotFound
	}
	if v.ExpiredAt != nil {
		return sanction.ErrAlreadyExpired
	}
	v.ExpiredAt = &at
	return nil
}

// RecordReview stores the review fields on a violation.
func (s *Store) RecordReview(ctx context.Context, id string, review sanction.Review) error {
	if err := store.ValidateReview(review); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.violations[id]
	if !ok {
		return sanction.ErrViolationNotFound
	}
	at := review.At
	v.ReviewedAt = &at
	v.ReviewedBy = review.ReviewerID
	v.ReviewOutcome = review.Outcome
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

func clone(v *sanction.Violation) *sanction.Violation {
	c := *v
	c.Restrictions = append([]sanction.FeatureRestriction{}, v.Restrictions...)
	c.ExpiresAt = copyTime(v.ExpiresAt)
	c.ExpiredAt = copyTime(v.ExpiredAt)
	c.ReviewedAt = copyTime(v.ReviewedAt)
	return &c
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
