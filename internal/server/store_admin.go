package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// adminSessionTTL bounds how long an admin cookie stays valid.
const adminSessionTTL = 7 * 24 * time.Hour

// sessionTimeLayout is fixed width so expires_at compares as text.
const sessionTimeLayout = "2006-01-02T15:04:05.000Z"

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EnsureAdmin creates the first administrator when none exists yet and
// reports whether it did.
func (s *SQLiteStore) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM admins`).Scan(&count); err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return false, errors.New("admin email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("hashing password: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO admins (id, email, password_hash) VALUES (?, ?, ?)`,
		uuid.NewString(), email, string(hash),
	); err != nil {
		return false, fmt.Errorf("inserting admin: %w", err)
	}
	return true, nil
}

// Authenticate checks credentials and returns the matching admin.
// Unknown emails and wrong passwords both yield ErrNotFound.
func (s *SQLiteStore) Authenticate(ctx context.Context, email, password string) (adminSession, error) {
	var (
		admin adminSession
		hash  string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash FROM admins WHERE email = ?`, normalizeEmail(email),
	).Scan(&admin.AdminID, &admin.Email, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return adminSession{}, ErrNotFound
	}
	if err != nil {
		return adminSession{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return adminSession{}, ErrNotFound
	}
	return admin, nil
}

// CreateAdminSession opens a session for adminID. Expired sessions of
// every admin are purged on the way.
func (s *SQLiteStore) CreateAdminSession(ctx context.Context, adminID string) (adminSession, error) {
	now := time.Now().UTC()
	sess := adminSession{
		ID:        uuid.NewString(),
		AdminID:   adminID,
		ExpiresAt: now.Add(adminSessionTTL),
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM admin_sessions WHERE expires_at <= ?`, now.Format(sessionTimeLayout),
	); err != nil {
		return adminSession{}, fmt.Errorf("purging sessions: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO admin_sessions (id, admin_id, expires_at) VALUES (?, ?, ?)`,
		sess.ID, adminID, sess.ExpiresAt.Format(sessionTimeLayout),
	); err != nil {
		return adminSession{}, fmt.Errorf("inserting session: %w", err)
	}
	return sess, nil
}

func (s *SQLiteStore) DeleteAdminSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM admin_sessions WHERE id = ?`, sessionID)
	return err
}

// AdminFromSession resolves a live session; missing and expired ones
// yield errNoAdminSession.
func (s *SQLiteStore) AdminFromSession(ctx context.Context, sessionID string) (adminSession, error) {
	sess := adminSession{ID: sessionID}
	var expires string
	err := s.db.QueryRowContext(ctx, `
		SELECT a.id, a.email, s.expires_at
		FROM admin_sessions s
		JOIN admins a ON a.id = s.admin_id
		WHERE s.id = ?
	`, sessionID).Scan(&sess.AdminID, &sess.Email, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return adminSession{}, errNoAdminSession
	}
	if err != nil {
		return adminSession{}, err
	}
	sess.ExpiresAt = parseTime(expires)
	if !sess.ExpiresAt.After(time.Now()) {
		return adminSession{}, errNoAdminSession
	}
	return sess, nil
}
