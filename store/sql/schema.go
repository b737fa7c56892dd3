package sql

import (
	"context"
	"fmt"
	"strings"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS violations (
	id                VARCHAR(32) PRIMARY KEY,
	user_id           VARCHAR(32) NOT NULL,
	guild_id          VARCHAR(32) NOT NULL,
	violation_type    VARCHAR(32) NOT NULL,
	severity          INTEGER NOT NULL,
	policy_violated   TEXT NOT NULL,
	section           INTEGER NOT NULL,
	reason            TEXT NOT NULL,
	content_snapshot  TEXT NOT NULL,
	restrictions_json TEXT NOT NULL,
	issued_by         VARCHAR(32) NOT NULL,
	issued_at         BIGINT NOT NULL,
	expires_at        BIGINT NULL,
	expired_at        BIGINT NULL,
	reviewed_at       BIGINT NULL,
	reviewed_by       VARCHAR(32) NULL,
	review_outcome    VARCHAR(16) NULL
);
CREATE INDEX IF NOT EXISTS idx_violations_user_section ON violations (guild_id, user_id, section, issued_at);
`

const postgresSchema = sqliteSchema

// MySQL has no CREATE INDEX IF NOT EXISTS, so the index is declared inline.
const mysqlSchema = `
CREATE TABLE IF NOT EXISTS violations (
	id                VARCHAR(32) NOT NULL PRIMARY KEY,
	user_id           VARCHAR(32) NOT NULL,
	guild_id          VARCHAR(32) NOT NULL,
	violation_type    VARCHAR(32) NOT NULL,
	severity          INT NOT NULL,
	policy_violated   TEXT NOT NULL,
	section           INT NOT NULL,
	reason            TEXT NOT NULL,
	content_snapshot  TEXT NOT NULL,
	restrictions_json TEXT NOT NULL,
	issued_by         VARCHAR(32) NOT NULL,
	issued_at         BIGINT NOT NULL,
	expires_at        BIGINT NULL,
	expired_at        BIGINT NULL,
	reviewed_at       BIGINT NULL,
	reviewed_by       VARCHAR(32) NULL,
	review_outcome    VARCHAR(16) NULL,
	INDEX idx_violations_user_section (guild_id, user_id, section, issued_at)
) DEFAULT CHARSET=utf8mb4
`

// Migrate creates the violations table and its index if missing.
func (s *Store) Migrate(ctx context.Context) error {
	var schema []string
	switch s.dialect {
	case DialectMySQL, DialectTiDB:
		schema = []string{mysqlSchema}
	case DialectPostgres:
		schema = splitStatements(postgresSchema)
	default:
		schema = splitStatements(sqliteSchema)
	}

	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s: %w", s.dialect, err)
		}
	}
	return nil
}

func splitStatements(schema string) []string {
	var out []string
	for _, stmt := range strings.Split(schema, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
