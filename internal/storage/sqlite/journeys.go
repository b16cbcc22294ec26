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

const journeyColumns = `id, slug, name, leader_id, start_date, end_date, status,
	is_locked, is_input_locked, require_approval, password_hash,
	join_token_jti, join_token_expires_at, join_token_used, expire_at, created_at`

// CreateJourney persists a new journey to the database.
func (s *SQLiteStore) CreateJourney(ctx context.Context, j *models.Journey) error {
	if j.ID == "" {
		j.ID = uuid.New().String()
	}
	if j.CreatedAt == 0 {
		j.CreatedAt = time.Now().Unix()
	}
	if j.Status == "" {
		j.Status = models.JourneyActive
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO journeys (`+journeyColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, j.Slug, j.Name, j.LeaderID,
		nullableUnix(j.StartDate), nullableUnix(j.EndDate), string(j.Status),
		j.IsLocked, j.IsInputLocked, j.RequireApproval, j.PasswordHash,
		j.JoinTokenJTI, nullableUnix(j.JoinTokenExpiresAt), j.JoinTokenUsed,
		nullableUnix(j.ExpireAt), j.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert journey: %w", err)
	}
	return nil
}

// GetJourney retrieves a journey by ID.
func (s *SQLiteStore) GetJourney(ctx context.Context, journeyID string) (*models.Journey, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+journeyColumns+` FROM journeys WHERE id = ?`, journeyID)
	return scanJourney(row)
}

// GetJourneyByJoinTokenJTI retrieves the journey whose active join token
// carries the given jti. Consumption clears the jti, so only a live token
// resolves.
func (s *SQLiteStore) GetJourneyByJoinTokenJTI(ctx context.Context, jti string) (*models.Journey, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+journeyColumns+` FROM journeys WHERE join_token_jti = ? AND join_token_jti != ''`, jti)
	return scanJourney(row)
}

// SetJoinToken overwrites the journey's join-token state. Whatever token
// was live before is invalidated by the overwrite.
func (s *SQLiteStore) SetJoinToken(ctx context.Context, journeyID, jti string, expiresAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE journeys
		 SET join_token_jti = ?, join_token_expires_at = ?, join_token_used = 0
		 WHERE id = ?`,
		jti, expiresAt.Unix(), journeyID)
	if err != nil {
		return fmt.Errorf("failed to set join token: %w", err)
	}
	return requireRow(res)
}

// ConsumeJoinToken is the single find-and-modify that guards against two
// concurrent redemptions: the filter checks jti, unused, and unexpired,
// and the write burns the token, all in one statement. Exactly one of N
// racing callers can see rows affected = 1.
func (s *SQLiteStore) ConsumeJoinToken(ctx context.Context, journeyID, jti string, now time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE journeys
		 SET join_token_used = 1, join_token_jti = '', join_token_expires_at = NULL
		 WHERE id = ? AND join_token_jti = ? AND join_token_used = 0
		   AND join_token_expires_at > ?`,
		journeyID, jti, now.Unix())
	if err != nil {
		return false, fmt.Errorf("failed to consume join token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n == 1, nil
}

// SetRequireApproval toggles the approval gate.
func (s *SQLiteStore) SetRequireApproval(ctx context.Context, journeyID string, require bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE journeys SET require_approval = ? WHERE id = ?`, require, journeyID)
	if err != nil {
		return fmt.Errorf("failed to set require_approval: %w", err)
	}
	return requireRow(res)
}

// SetLocked toggles the invitation lock.
func (s *SQLiteStore) SetLocked(ctx context.Context, journeyID string, locked bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE journeys SET is_locked = ? WHERE id = ?`, locked, journeyID)
	if err != nil {
		return fmt.Errorf("failed to set is_locked: %w", err)
	}
	return requireRow(res)
}

// SetInputLocked toggles the expense-mutation lock.
func (s *SQLiteStore) SetInputLocked(ctx context.Context, journeyID string, locked bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE journeys SET is_input_locked = ? WHERE id = ?`, locked, journeyID)
	if err != nil {
		return fmt.Errorf("failed to set is_input_locked: %w", err)
	}
	return requireRow(res)
}

// SetStatus updates the journey's lifecycle status.
func (s *SQLiteStore) SetStatus(ctx context.Context, journeyID string, status models.JourneyStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE journeys SET status = ? WHERE id = ?`, string(status), journeyID)
	if err != nil {
		return fmt.Errorf("failed to set status: %w", err)
	}
	return requireRow(res)
}

// SetPasswordHash replaces the password gate; empty hash removes it.
func (s *SQLiteStore) SetPasswordHash(ctx context.Context, journeyID, hash string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE journeys SET password_hash = ? WHERE id = ?`, hash, journeyID)
	if err != nil {
		return fmt.Errorf("failed to set password hash: %w", err)
	}
	return requireRow(res)
}

// CascadeExpiry propagates a deletion timestamp to the journey, its
// expenses, and its guest members in one transaction. Registered members
// are never expired.
func (s *SQLiteStore) CascadeExpiry(ctx context.Context, journeyID string, expireAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	at := expireAt.Unix()

	res, err := tx.ExecContext(ctx,
		`UPDATE journeys SET expire_at = ? WHERE id = ?`, at, journeyID)
	if err != nil {
		return fmt.Errorf("failed to set journey expiry: %w", err)
	}
	if err := requireRow(res); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE expenses SET expire_at = ? WHERE journey_id = ?`, at, journeyID); err != nil {
		return fmt.Errorf("failed to cascade expiry to expenses: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET expire_at = ?
		 WHERE is_guest = 1 AND id IN (
		     SELECT user_id FROM journey_members
		     WHERE journey_id = ? AND status = 'member'
		 )`, at, journeyID); err != nil {
		return fmt.Errorf("failed to cascade expiry to guest members: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func scanJourney(row *sql.Row) (*models.Journey, error) {
	j := &models.Journey{}
	var status string
	var startDate, endDate, tokenExpires, expireAt sql.NullInt64
	err := row.Scan(
		&j.ID, &j.Slug, &j.Name, &j.LeaderID, &startDate, &endDate, &status,
		&j.IsLocked, &j.IsInputLocked, &j.RequireApproval, &j.PasswordHash,
		&j.JoinTokenJTI, &tokenExpires, &j.JoinTokenUsed, &expireAt, &j.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan journey: %w", err)
	}
	j.Status = models.JourneyStatus(status)
	j.StartDate = unixPtr(startDate)
	j.EndDate = unixPtr(endDate)
	j.JoinTokenExpiresAt = unixPtr(tokenExpires)
	j.ExpireAt = unixPtr(expireAt)
	return j, nil
}

// requireRow converts an UPDATE that matched nothing into ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
