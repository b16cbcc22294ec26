package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/journeyhub/journeyhub/internal/models"
	"github.com/journeyhub/journeyhub/internal/storage"
)

// CreateUser persists a new user to the database.
func (s *SQLiteStore) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.CreatedAt == 0 {
		u.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, is_guest, expire_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.IsGuest, nullableUnix(u.ExpireAt), u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	u := &models.User{}
	var expireAt sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, is_guest, expire_at, created_at FROM users WHERE id = ?`,
		userID).Scan(&u.ID, &u.Name, &u.Email, &u.IsGuest, &expireAt, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u.ExpireAt = unixPtr(expireAt)
	return u, nil
}

// DeleteUser removes a user record outright.
func (s *SQLiteStore) DeleteUser(ctx context.Context, userID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return requireRow(res)
}

// NameTakenInJourney checks the display name against everyone who is a
// member of, or pending in, the journey.
func (s *SQLiteStore) NameTakenInJourney(ctx context.Context, journeyID, name string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users u
		 JOIN journey_members m ON m.user_id = u.id
		 WHERE m.journey_id = ? AND m.status IN ('member', 'pending') AND u.name = ?`,
		journeyID, name).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check name uniqueness: %w", err)
	}
	return count > 0, nil
}
