package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mehnda-chinji/internal/domain"
	"mehnda-chinji/internal/repository"
)

const (
	createLoginSessionsTable = `
CREATE TABLE IF NOT EXISTS login_sessions (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	user_agent TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	last_seen_at DATETIME NOT NULL,
	revoked_at DATETIME NULL
);
`
	createLoginSessionsIndex = `CREATE INDEX IF NOT EXISTS idx_login_sessions_user ON login_sessions(user_id);`
)

type LoginSessionRepository struct {
	db *sql.DB
}

func NewLoginSessionRepository(db *sql.DB) repository.LoginSessionRepository {
	return &LoginSessionRepository{db: db}
}

func (r *LoginSessionRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createLoginSessionsTable); err != nil {
		return fmt.Errorf("create login sessions table: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, createLoginSessionsIndex); err != nil {
		return fmt.Errorf("create login sessions index: %w", err)
	}
	return nil
}

func (r *LoginSessionRepository) Create(ctx context.Context, session *domain.LoginSession) error {
	now := time.Now().UTC()
	session.CreatedAt = now
	session.LastSeenAt = now

	_, err := r.db.ExecContext(ctx, `
INSERT INTO login_sessions (id, user_id, user_agent, created_at, last_seen_at)
VALUES (?, ?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		session.UserAgent,
		session.CreatedAt,
		session.LastSeenAt,
	)
	if err != nil {
		return fmt.Errorf("insert login session: %w", err)
	}
	return nil
}

func (r *LoginSessionRepository) Get(ctx context.Context, id string) (*domain.LoginSession, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, user_id, user_agent, created_at, last_seen_at, revoked_at
FROM login_sessions
WHERE id = ?`,
		id,
	)
	return scanLoginSession(row)
}

func (r *LoginSessionRepository) Touch(ctx context.Context, id string, seenAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE login_sessions SET last_seen_at = ? WHERE id = ?`, seenAt.UTC(), id)
	if err != nil {
		return fmt.Errorf("touch login session: %w", err)
	}
	return expectAffected(res, "login session")
}

func (r *LoginSessionRepository) Revoke(ctx context.Context, id string, revokedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE login_sessions SET revoked_at = ?
WHERE id = ? AND revoked_at IS NULL`,
		revokedAt.UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("revoke login session: %w", err)
	}
	return expectAffected(res, "login session")
}

func (r *LoginSessionRepository) ListByUser(ctx context.Context, userID string) ([]domain.LoginSession, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_id, user_agent, created_at, last_seen_at, revoked_at
FROM login_sessions
WHERE user_id = ? AND revoked_at IS NULL
ORDER BY last_seen_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list login sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.LoginSession
	for rows.Next() {
		s, err := scanLoginSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate login sessions: %w", err)
	}
	return sessions, nil
}

func (r *LoginSessionRepository) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM login_sessions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete login sessions: %w", err)
	}
	return nil
}

func scanLoginSession(row interface {
	Scan(dest ...any) error
}) (*domain.LoginSession, error) {
	var (
		s       domain.LoginSession
		revoked sql.NullTime
	)
	if err := row.Scan(&s.ID, &s.UserID, &s.UserAgent, &s.CreatedAt, &s.LastSeenAt, &revoked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("login session: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan login session: %w", err)
	}
	if revoked.Valid {
		t := revoked.Time
		s.RevokedAt = &t
	}
	return &s, nil
}
