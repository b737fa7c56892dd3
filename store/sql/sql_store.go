// Package sql provides the sqlx-backed violation store for SQLite, MySQL,
// TiDB and PostgreSQL.
package sql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/heibot/sanction"
	"github.com/heibot/sanction/store"
	"github.com/heibot/sanction/utils"
)

// Dialect represents the SQL dialect.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
	DialectTiDB     Dialect = "tidb"
)

// driverName returns the database/sql driver registered for the dialect.
func (d Dialect) driverName() (string, error) {
	switch d {
	case DialectSQLite:
		return "sqlite3", nil
	case DialectMySQL, DialectTiDB:
		return "mysql", nil
	case DialectPostgres:
		return "postgres", nil
	}
	return "", fmt.Errorf("%w: unsupported sql dialect %q", sanction.ErrInvalidConfig, string(d))
}

// Config holds the configuration for SQL store.
type Config struct {
	Dialect         Dialect       `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DefaultConfig returns the default SQL store configuration.
func DefaultConfig() Config {
	return Config{
		Dialect:         DialectSQLite,
		DSN:             "sanction.db",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// Store implements store.Store on a SQL database.
type Store struct {
	db      *sqlx.DB
	dialect Dialect
	clock   sanction.Clock
	idGen   *utils.IDGenerator
}

var _ store.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for passive expiry checks.
func WithClock(c sanction.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithIDGenerator sets the violation id generator.
func WithIDGenerator(g *utils.IDGenerator) Option {
	return func(s *Store) { s.idGen = g }
}

// New opens and pings a database.
func New(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	driver, err := cfg.Dialect.driverName()
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.Dialect == DialectSQLite {
		// SQLite serializes writers; a single connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewWithDB(db, cfg.Dialect, opts...), nil
}

// NewWithDB wraps an existing connection.
func NewWithDB(db *sqlx.DB, dialect Dialect, opts ...Option) *Store {
	s := &Store{
		db:      db,
		dialect: dialect,
		clock:   sanction.SystemClock{},
		idGen:   utils.NewIDGenerator(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB returns the underlying connection.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// violationRow is the table shape. Times are unix milliseconds.
type violationRow struct {
	ID               string         `db:"id"`
	UserID           string         `db:"user_id"`
	GuildID          string         `db:"guild_id"`
	Type             string         `db:"violation_type"`
	Severity         int            `db:"severity"`
	PolicyViolated   string         `db:"policy_violated"`
	Section          int            `db:"section"`
	Reason           string         `db:"reason"`
	ContentSnapshot  string         `db:"content_snapshot"`
	RestrictionsJSON string         `db:"restrictions_json"`
	IssuedBy         string         `db:"issued_by"`
	IssuedAt         int64          `db:"issued_at"`
	ExpiresAt        sql.NullInt64  `db:"expires_at"`
	ExpiredAt        sql.NullInt64  `db:"expired_at"`
	ReviewedAt       sql.NullInt64  `db:"reviewed_at"`
	ReviewedBy       sql.NullString `db:"reviewed_by"`
	ReviewOutcome    sql.NullString `db:"review_outcome"`
}

const violationColumns = `id, user_id, guild_id, violation_type, severity, policy_violated, section,
	reason, content_snapshot, restrictions_json, issued_by, issued_at, expires_at, expired_at,
	reviewed_at, reviewed_by, review_outcome`

func (r violationRow) toViolation() (*sanction.Violation, error) {
	v := &sanction.Violation{
		ID:              r.ID,
		UserID:          r.UserID,
		GuildID:         r.GuildID,
		Type:            sanction.ViolationType(r.Type),
		Severity:        sanction.Severity(r.Severity),
		PolicyViolated:  r.PolicyViolated,
		Section:         sanction.RuleSection(r.Section),
		Reason:          r.Reason,
		ContentSnapshot: r.ContentSnapshot,
		Restrictions:    []sanction.FeatureRestriction{},
		IssuedBy:        r.IssuedBy,
		IssuedAt:        time.UnixMilli(r.IssuedAt).UTC(),
		ExpiresAt:       fromMillis(r.ExpiresAt),
		ExpiredAt:       fromMillis(r.ExpiredAt),
		ReviewedAt:      fromMillis(r.ReviewedAt),
		ReviewedBy:      r.ReviewedBy.String,
		ReviewOutcome:   sanction.ReviewOutcome(r.ReviewOutcome.String),
	}
	if r.RestrictionsJSON != "" {
		if err := json.Unmarshal([]byte(r.RestrictionsJSON), &v.Restrictions); err != nil {
			return nil, fmt.Errorf("decode restrictions of %s: %w", r.ID, err)
		}
	}
	return v, nil
}

func toMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func fromMillis(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := time.UnixMilli(n.Int64).UTC()
	return &t
}

// CreateViolation inserts a new violation.
func (s *Store) CreateViolation(ctx context.Context, nv sanction.NewViolation) (*sanction.Violation, error) {
	if err := store.ValidateNew(nv); err != nil {
		return nil, err
	}

	restrictions := nv.Restrictions
	if restrictions == nil {
		restrictions = []sanction.FeatureRestriction{}
	}
	raw, err := json.Marshal(restrictions)
	if err != nil {
		return nil, fmt.Errorf("encode restrictions: %w", err)
	}

	row := violationRow{
		ID:               s.idGen.Generate(),
		UserID:           nv.UserID,
		GuildID:          nv.GuildID,
		Type:             string(nv.Type),
		Severity:         int(nv.Severity),
		PolicyViolated:   nv.PolicyViolated,
		Section:          int(nv.Section),
		Reason:           nv.Reason,
		ContentSnapshot:  nv.ContentSnapshot,
		RestrictionsJSON: string(raw),
		IssuedBy:         nv.IssuedBy,
		IssuedAt:         nv.IssuedAt.UnixMilli(),
		ExpiresAt:        toMillis(nv.ExpiresAt),
	}

	query := `INSERT INTO violations (id, user_id, guild_id, violation_type, severity, policy_violated, section,
		reason, content_snapshot, restrictions_json, issued_by, issued_at, expires_at)
		VALUES (:id, :user_id, :guild_id, :violation_type, :severity, :policy_violated, :section,
		:reason, :content_snapshot, :restrictions_json, :issued_by, :issued_at, :expires_at)`

	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		return nil, sanction.NewStoreError("create", "violations", err)
	}

	return row.toViolation()
}

// GetViolation gets a violation by id.
func (s *Store) GetViolation(ctx context.Context, id string) (*sanction.Violation, error) {
	query := s.db.Rebind(`SELECT ` + violationColumns + ` FROM violations WHERE id = ?`)

	var row violationRow
	err := s.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sanction.ErrViolationNotFound
	}
	if err != nil {
		return nil, sanction.NewStoreError("get", "violations", err)
	}
	return row.toViolation()
}

// ListActiveInSection lists active violations in a section since a point in time.
func (s *Store) ListActiveInSection(ctx context.Context, guildID, userID string, section sanction.RuleSection, since time.Time) ([]*sanction.Violation, error) {
	query := s.db.Rebind(`SELECT ` + violationColumns + ` FROM violations
		WHERE guild_id = ? AND user_id = ? AND section = ? AND issued_at >= ?
		AND expired_at IS NULL AND (expires_at IS NULL OR expires_at > ?)
		ORDER BY issued_at DESC, id DESC`)

	return s.selectViolations(ctx, "list_active", query,
		guildID, userID, int(section), since.UnixMilli(), s.clock.Now().UnixMilli())
}

// ListByUser lists a user's violations in a guild.
func (s *Store) ListByUser(ctx context.Context, guildID, userID string, includeExpired bool) ([]*sanction.Violation, error) {
	if includeExpired {
		query := s.db.Rebind(`SELECT ` + violationColumns + ` FROM violations
			WHERE guild_id = ? AND user_id = ?
			ORDER BY issued_at DESC, id DESC`)
		return s.selectViolations(ctx, "list", query, guildID, userID)
	}

	query := s.db.Rebind(`SELECT ` + violationColumns + ` FROM violations
		WHERE guild_id = ? AND user_id = ?
		AND expired_at IS NULL AND (expires_at IS NULL OR expires_at > ?)
		ORDER BY issued_at DESC, id DESC`)
	return s.selectViolations(ctx, "list", query, guildID, userID, s.clock.Now().UnixMilli())
}

func (s *Store) selectViolations(ctx context.Context, op, query string, args ...any) ([]*sanction.Violation, error) {
	var rows []violationRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, sanction.NewStoreError(op, "violations", err)
	}

	out := make([]*sanction.Violation, 0, len(rows))
	for _, r := range rows {
		v, err := r.toViolation()
		if err != nil {
			return nil, sanction.NewStoreError("scan", "violations", err)
		}
		out = append(out, v)
	}
	return out, nil
}

// ExpireViolation sets expired_at on an unexpired violation.
func (s *Store) ExpireViolation(ctx context.Context, id string, at time.Time) error {
	query := s.db.Rebind(`UPDATE violations SET expired_at = ? WHERE id = ? AND expired_at IS NULL`)
	result, err := s.db.ExecContext(ctx, query, at.UnixMilli(), id)
	if err != nil {
		return sanction.NewStoreError("update", "violations", err)
	}

	if affected, _ := result.RowsAffected(); affected > 0 {
		return nil
	}
	if _, err := s.GetViolation(ctx, id); err != nil {
		return err
	}
	return sanction.ErrAlreadyExpired
}

// RecordReview stores the review outcome.
func (s *Store) RecordReview(ctx context.Context, id string, review sanction.Review) error {
	if err := store.ValidateReview(review); err != nil {
		return err
	}

	query := s.db.Rebind(`UPDATE violations SET reviewed_at = ?, reviewed_by = ?, review_outcome = ? WHERE id = ?`)
	result, err := s.db.ExecContext(ctx, query, review.At.UnixMilli(), review.ReviewerID, string(review.Outcome), id)
	if err != nil {
		return sanction.NewStoreError("update", "violations", err)
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		// MySQL reports zero rows when values are unchanged.
		if _, err := s.GetViolation(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
