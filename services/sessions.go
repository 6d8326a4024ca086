package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"leaddesk/backend/logger"
	"leaddesk/backend/models"
	"leaddesk/backend/security"
)

var (
	// ErrSessionNotFound is returned when a token has no live session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrTokenExpired is returned when creating a session from an already expired token.
	ErrTokenExpired = errors.New("token already expired")
)

// SessionStore keeps logged-in employees in sqlite. Bearer tokens are stored encrypted
// and found by their SHA-256 hash.
type SessionStore struct {
	db     *sqlx.DB
	cipher *security.Cipher
	ttl    time.Duration
	now    func() time.Time
	log    *logrus.Entry
}

// NewSessionStore creates a store. ttl bounds sessions whose token carries no exp claim.
func NewSessionStore(db *sqlx.DB, cipher *security.Cipher, ttl time.Duration) *SessionStore {
	return &SessionStore{
		db:     db,
		cipher: cipher,
		ttl:    ttl,
		now:    time.Now,
		log:    logger.For("sessions"),
	}
}

type sessionRow struct {
	models.Session
	EncryptedToken string       `db:"encrypted_token"`
	LastSeenAt     sql.NullTime `db:"last_seen_at"`
}

const sessionColumns = `id, employee_id, employee_name, role, encrypted_token, created_at, expires_at, last_seen_at`

// Create starts a session for a logged-in employee.
func (s *SessionStore) Create(emp models.Employee) (*models.Session, error) {
	now := s.now().UTC()
	expires := s.expiry(emp.Token, now)
	if !expires.After(now) {
		return nil, ErrTokenExpired
	}

	encrypted, err := s.cipher.Encrypt(emp.Token)
	if err != nil {
		return nil, fmt.Errorf("error encrypting token: %w", err)
	}

	session := &models.Session{
		ID:           uuid.NewString(),
		EmployeeID:   emp.ID,
		EmployeeName: emp.Name,
		Role:         emp.Role,
		Token:        emp.Token,
		CreatedAt:    now,
		ExpiresAt:    expires,
	}

	// a re-login with the same token replaces the old session
	_, err = s.db.Exec(`
		INSERT INTO sessions (id, token_hash, encrypted_token, employee_id, employee_name, role, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(token_hash) DO UPDATE SET
			id = excluded.id,
			encrypted_token = excluded.encrypted_token,
			employee_id = excluded.employee_id,
			employee_name = excluded.employee_name,
			role = excluded.role,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at
	`, session.ID, security.HashToken(emp.Token), encrypted, session.EmployeeID, session.EmployeeName,
		session.Role, session.CreatedAt, session.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}

	s.log.WithFields(logrus.Fields{"employee_id": emp.ID, "role": emp.Role}).Info("Session created")
	return session, nil
}

// expiry is the token's exp claim when it has one, otherwise now plus the store TTL.
// The signature is not checked; the lead API remains the authority on the token.
func (s *SessionStore) expiry(token string, now time.Time) time.Time {
	if exp, ok := security.TokenExpiry(token); ok {
		return exp
	}
	return now.Add(s.ttl)
}

// Lookup returns the live session for token.
func (s *SessionStore) Lookup(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}
	now := s.now().UTC()

	var row sessionRow
	err := s.db.GetContext(ctx, &row, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE token_hash = ? AND expires_at > ?
	`, security.HashToken(token), now)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	plain, err := s.cipher.Decrypt(row.EncryptedToken)
	if err != nil {
		return nil, fmt.Errorf("error decrypting session token: %w", err)
	}
	session := row.Session
	session.Token = plain

	if _, err := s.db.ExecContext(ctx, `UPDATE sessions SET last_seen_at = ? WHERE id = ?`, now, session.ID); err != nil {
		s.log.WithError(err).Warn("Failed to update session last_seen_at")
	}
	return &session, nil
}

// IsAuthenticated reports whether token belongs to a live session.
func (s *SessionStore) IsAuthenticated(ctx context.Context, token string) (models.Session, bool) {
	session, err := s.Lookup(ctx, token)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			s.log.WithError(err).Error("Session lookup failed")
		}
		return models.Session{}, false
	}
	return *session, true
}

// Delete ends the session for token.
func (s *SessionStore) Delete(token string) error {
	result, err := s.db.Exec(`DELETE FROM sessions WHERE token_hash = ?`, security.HashToken(token))
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// PurgeExpired removes expired sessions and returns how many were removed.
func (s *SessionStore) PurgeExpired() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM sessions WHERE expires_at <= ?`, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", err)
	}
	return result.RowsAffected()
}
