package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/journeyhub/journeyhub/internal/journey"
	"github.com/journeyhub/journeyhub/internal/storage"
)

// AddMember inserts a membership row unless the pair already has one.
// ON CONFLICT DO NOTHING makes a duplicate insert a detectable no-op
// instead of an error, which is what the idempotent retry paths want.
func (s *SQLiteStore) AddMember(ctx context.Context, journeyID, userID string, status journey.MembershipStatus) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO journey_members (journey_id, user_id, status)
		 VALUES (?, ?, ?)
		 ON CONFLICT (journey_id, user_id) DO NOTHING`,
		journeyID, userID, string(status))
	if err != nil {
		return false, fmt.Errorf("failed to add member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n == 1, nil
}

// MembershipStatus returns the pair's status, or StatusNone when no row
// exists.
func (s *SQLiteStore) MembershipStatus(ctx context.Context, journeyID, userID string) (journey.MembershipStatus, error) {
	var status string
	err := s.db.QueryRowContext(ctx,
		`SELECT status FROM journey_members WHERE journey_id = ? AND user_id = ?`,
		journeyID, userID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return journey.StatusNone, nil
	}
	if err != nil {
		return journey.StatusNone, fmt.Errorf("failed to query membership: %w", err)
	}
	return journey.MembershipStatus(status), nil
}

// TransitionMember moves a membership between statuses with a conditional
// update; a pair not in the expected from status is left untouched and
// reported as false.
func (s *SQLiteStore) TransitionMember(ctx context.Context, journeyID, userID string, from, to journey.MembershipStatus) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE journey_members SET status = ?
		 WHERE journey_id = ? AND user_id = ? AND status = ?`,
		string(to), journeyID, userID, string(from))
	if err != nil {
		return false, fmt.Errorf("failed to transition member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n == 1, nil
}

// RemoveMember deletes the membership row.
func (s *SQLiteStore) RemoveMember(ctx context.Context, journeyID, userID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM journey_members WHERE journey_id = ? AND user_id = ?`,
		journeyID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	return requireRow(res)
}

// ListMemberships returns every membership row for the journey.
func (s *SQLiteStore) ListMemberships(ctx context.Context, journeyID string) ([]storage.Membership, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, status FROM journey_members WHERE journey_id = ? ORDER BY user_id`,
		journeyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	var memberships []storage.Membership
	for rows.Next() {
		var m storage.Membership
		var status string
		if err := rows.Scan(&m.UserID, &status); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		m.Status = journey.MembershipStatus(status)
		memberships = append(memberships, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate memberships: %w", err)
	}
	return memberships, nil
}
