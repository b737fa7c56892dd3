package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heibot/sanction"
)

var now = time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)

func newViolation(user string, section sanction.RuleSection, issued time.Time) sanction.NewViolation {
	return sanction.NewViolation{
		UserID:         user,
		GuildID:        "g1",
		Type:           sanction.ViolationSpam,
		Severity:       sanction.SeverityLow,
		PolicyViolated: "301",
		Section:        section,
		Reason:         "AI-detected: spam",
		Restrictions:   []sanction.FeatureRestriction{sanction.RestrictRateLimit},
		IssuedBy:       sanction.AutomatedIssuer,
		IssuedAt:       issued,
	}
}

func TestCreateAndGet(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	s := New(sanction.FixedClock(now))

	v, err := s.CreateViolation(ctx, newViolation("u1", sanction.SectionSpam, now))
	require.NoError(t, err)
	assert.NotEmpty(v.ID)
	assert.Equal("u1", v.UserID)
	assert.Equal([]sanction.FeatureRestriction{sanction.RestrictRateLimit}, v.Restrictions)

	got, err := s.GetViolation(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(v, got)

	got.Restrictions[0] = sanction.RestrictVoiceSpeak
	again, err := s.GetViolation(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(sanction.RestrictRateLimit, again.Restrictions[0], "returned violations must be copies")

	_, err = s.GetViolation(ctx, "missing")
	assert.ErrorIs(err, sanction.ErrViolationNotFound)
}

func TestCreateViolation_Validation(t *testing.T) {
	s := New(nil)
	nv := newViolation("", sanction.SectionSpam, now)

	_, err := s.CreateViolation(context.Background(), nv)
	assert.True(t, sanction.IsValidationError(err))

	nv = newViolation("u1", sanction.SectionSpam, now)
	nv.Severity = 0
	_, err = s.CreateViolation(context.Background(), nv)
	assert.True(t, sanction.IsValidationError(err))
}

func TestListActiveInSection(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	s := New(sanction.FixedClock(now))

	inWindow, err := s.CreateViolation(ctx, newViolation("u1", sanction.SectionSpam, now.Add(-time.Hour)))
	require.NoError(t, err)

	// Outside the window
	_, err = s.CreateViolation(ctx, newViolation("u1", sanction.SectionSpam, now.Add(-48*time.Hour)))
	require.NoError(t, err)

	// Different section
	_, err = s.CreateViolation(ctx, newViolation("u1", sanction.SectionContent, now.Add(-time.Hour)))
	require.NoError(t, err)

	// Different user
	_, err = s.CreateViolation(ctx, newViolation("u2", sanction.SectionSpam, now.Add(-time.Hour)))
	require.NoError(t, err)

	// Passively expired
	expiring := newViolation("u1", sanction.SectionSpam, now.Add(-2*time.Hour))
	past := now.Add(-time.Minute)
	expiring.ExpiresAt = &past
	_, err = s.CreateViolation(ctx, expiring)
	require.NoError(t, err)

	// Moderator expired
	manual, err := s.CreateViolation(ctx, newViolation("u1", sanction.SectionSpam, now.Add(-3*time.Hour)))
	require.NoError(t, err)
	require.NoError(t, s.ExpireViolation(ctx, manual.ID, now))

	got, err := s.ListActiveInSection(ctx, "g1", "u1", sanction.SectionSpam, now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(inWindow.ID, got[0].ID)
}

func TestListByUser(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	s := New(sanction.FixedClock(now))

	older, err := s.CreateViolation(ctx, newViolation("u1", sanction.SectionSpam, now.Add(-48*time.Hour)))
	require.NoError(t, err)
	newer, err := s.CreateViolation(ctx, newViolation("u1", sanction.SectionContent, now.Add(-time.Hour)))
	require.NoError(t, err)
	require.NoError(t, s.ExpireViolation(ctx, older.ID, now))

	active, err := s.ListByUser(ctx, "g1", "u1", false)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(newer.ID, active[0].ID)

	all, err := s.ListByUser(ctx, "g1", "u1", true)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(newer.ID, all[0].ID, "newest first")
	assert.Equal(older.ID, all[1].ID)

	other, err := s.ListByUser(ctx, "g2", "u1", true)
	require.NoError(t, err)
	assert.Empty(other)
}

func TestExpireViolation(t *testing.T) {
	ctx := context.Background()
	s := New(sanction.FixedClock(now))

	v, err := s.CreateViolation(ctx, newViolation("u1", sanction.SectionSpam, now))
	require.NoError(t, err)

	require.NoError(t, s.ExpireViolation(ctx, v.ID, now))
	assert.ErrorIs(t, s.ExpireViolation(ctx, v.ID, now), sanction.ErrAlreadyExpired)
	assert.ErrorIs(t, s.ExpireViolation(ctx, "missing", now), sanction.ErrViolationNotFound)

	got, err := s.GetViolation(ctx, v.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ExpiredAt)
	assert.True(t, got.ExpiredAt.Equal(now))
}

func TestRecordReview(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	s := New(sanction.FixedClock(now))

	v, err := s.CreateViolation(ctx, newViolation("u1", sanction.SectionSpam, now))
	require.NoError(t, err)

	review := sanction.Review{ReviewerID: "mod1", Outcome: sanction.ReviewUpheld, At: now}
	require.NoError(t, s.RecordReview(ctx, v.ID, review))

	got, err := s.GetViolation(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal("mod1", got.ReviewedBy)
	assert.Equal(sanction.ReviewUpheld, got.ReviewOutcome)
	require.NotNil(t, got.ReviewedAt)

	err = s.RecordReview(ctx, v.ID, sanction.Review{ReviewerID: "mod1", Outcome: "maybe", At: now})
	assert.True(sanction.IsValidationError(err))
	assert.ErrorIs(s.RecordReview(ctx, "missing", review), sanction.ErrViolationNotFound)
}
