package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/journeyhub/journeyhub/internal/models"
)

// CreateExpense persists a new expense to the database.
func (s *SQLiteStore) CreateExpense(ctx context.Context, e *models.Expense) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO expenses (id, journey_id, payer_id, title, amount, expire_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.JourneyID, e.PayerID, e.Title, e.Amount, nullableUnix(e.ExpireAt), e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}
	return nil
}

// ListExpensesByJourney returns the journey's expenses, newest first.
func (s *SQLiteStore) ListExpensesByJourney(ctx context.Context, journeyID string) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, journey_id, payer_id, title, amount, expire_at, created_at
		 FROM expenses WHERE journey_id = ? ORDER BY created_at DESC, id`,
		journeyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		e := &models.Expense{}
		var expireAt sql.NullInt64
		if err := rows.Scan(&e.ID, &e.JourneyID, &e.PayerID, &e.Title, &e.Amount, &expireAt, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		e.ExpireAt = unixPtr(expireAt)
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	return expenses, nil
}
