package sql

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heibot/sanction"
)

var now = time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	s := NewWithDB(db, DialectSQLite, WithClock(sanction.FixedClock(now)))
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func spamViolation(user string, issued time.Time) sanction.NewViolation {
	return sanction.NewViolation{
		UserID:          user,
		GuildID:         "g1",
		Type:            sanction.ViolationSpam,
		Severity:        sanction.SeverityMedium,
		PolicyViolated:  "301,302",
		Section:         sanction.SectionSpam,
		Reason:          "AI-detected: repeated links",
		ContentSnapshot: "buy now",
		Restrictions:    []sanction.FeatureRestriction{sanction.RestrictRateLimit, sanction.RestrictMessageLink},
		IssuedBy:        sanction.AutomatedIssuer,
		IssuedAt:        issued,
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Migrate(context.Background()))
}

func TestCreateAndGetViolation(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	s := newTestStore(t)

	expires := now.Add(30 * 24 * time.Hour)
	nv := spamViolation("u1", now)
	nv.ExpiresAt = &expires

	created, err := s.CreateViolation(ctx, nv)
	require.NoError(t, err)
	assert.NotEmpty(created.ID)

	got, err := s.GetViolation(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(created.ID, got.ID)
	assert.Equal("u1", got.UserID)
	assert.Equal(sanction.ViolationSpam, got.Type)
	assert.Equal(sanction.SeverityMedium, got.Severity)
	assert.Equal(sanction.SectionSpam, got.Section)
	assert.Equal("301,302", got.PolicyViolated)
	assert.Equal(nv.Restrictions, got.Restrictions)
	assert.True(got.IssuedAt.Equal(now))
	require.NotNil(t, got.ExpiresAt)
	assert.True(got.ExpiresAt.Equal(expires))
	assert.Nil(got.ExpiredAt)
	assert.Nil(got.ReviewedAt)

	_, err = s.GetViolation(ctx, "404")
	assert.ErrorIs(err, sanction.ErrViolationNotFound)
}

func TestCreateViolation_Invalid(t *testing.T) {
	s := newTestStore(t)
	nv := spamViolation("u1", now)
	nv.Type = "NOPE"

	_, err := s.CreateViolation(context.Background(), nv)
	assert.True(t, sanction.IsValidationError(err))
}

func TestListActiveInSection(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	s := newTestStore(t)

	recent, err := s.CreateViolation(ctx, spamViolation("u1", now.Add(-time.Hour)))
	require.NoError(t, err)

	_, err = s.CreateViolation(ctx, spamViolation("u1", now.Add(-72*time.Hour)))
	require.NoError(t, err)

	other := spamViolation("u1", now.Add(-time.Hour))
	other.Section = sanction.SectionContent
	_, err = s.CreateViolation(ctx, other)
	require.NoError(t, err)

	lapsed := spamViolation("u1", now.Add(-2*time.Hour))
	past := now.Add(-time.Minute)
	lapsed.ExpiresAt = &past
	_, err = s.CreateViolation(ctx, lapsed)
	require.NoError(t, err)

	revoked, err := s.CreateViolation(ctx, spamViolation("u1", now.Add(-3*time.Hour)))
	require.NoError(t, err)
	require.NoError(t, s.ExpireViolation(ctx, revoked.ID, now))

	got, err := s.ListActiveInSection(ctx, "g1", "u1", sanction.SectionSpam, now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(recent.ID, got[0].ID)
}

func TestListByUser(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	s := newTestStore(t)

	older, err := s.CreateViolation(ctx, spamViolation("u1", now.Add(-48*time.Hour)))
	require.NoError(t, err)
	newer, err := s.CreateViolation(ctx, spamViolation("u1", now.Add(-time.Hour)))
	require.NoError(t, err)
	_, err = s.CreateViolation(ctx, spamViolation("u2", now))
	require.NoError(t, err)
	require.NoError(t, s.ExpireViolation(ctx, older.ID, now))

	active, err := s.ListByUser(ctx, "g1", "u1", false)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(newer.ID, active[0].ID)

	all, err := s.ListByUser(ctx, "g1", "u1", true)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(newer.ID, all[0].ID)
	assert.NotNil(all[1].ExpiredAt)
}

func TestExpireViolation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	v, err := s.CreateViolation(ctx, spamViolation("u1", now))
	require.NoError(t, err)

	require.NoError(t, s.ExpireViolation(ctx, v.ID, now))
	assert.ErrorIs(t, s.ExpireViolation(ctx, v.ID, now), sanction.ErrAlreadyExpired)
	assert.ErrorIs(t, s.ExpireViolation(ctx, "missing", now), sanction.ErrViolationNotFound)
}

func TestRecordReview(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	s := newTestStore(t)

	v, err := s.CreateViolation(ctx, spamViolation("u1", now))
	require.NoError(t, err)

	review := sanction.Review{ReviewerID: "mod7", Outcome: sanction.ReviewOverturned, At: now}
	require.NoError(t, s.RecordReview(ctx, v.ID, review))

	got, err := s.GetViolation(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal("mod7", got.ReviewedBy)
	assert.Equal(sanction.ReviewOverturned, got.ReviewOutcome)
	require.NotNil(t, got.ReviewedAt)
	assert.True(got.ReviewedAt.Equal(now))

	assert.ErrorIs(s.RecordReview(ctx, "missing", review), sanction.ErrViolationNotFound)
}

func TestDialect_DriverName(t *testing.T) {
	tests := []struct {
		dialect Dialect
		driver  string
	}{
		{DialectSQLite, "sqlite3"},
		{DialectMySQL, "mysql"},
		{DialectTiDB, "mysql"},
		{DialectPostgres, "postgres"},
	}
	for _, tt := range tests {
		got, err := tt.dialect.driverName()
		require.NoError(t, err)
		assert.Equal(t, tt.driver, got)
	}

	_, err := Dialect("oracle").driverName()
	assert.ErrorIs(t, err, sanction.ErrInvalidConfig)
}

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements(sqliteSchema)
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[0], "CREATE TABLE")
	assert.Contains(t, stmts[1], "CREATE INDEX")
}
