package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/journeyhub/journeyhub/internal/journey"
	"github.com/journeyhub/journeyhub/internal/models"
	"github.com/journeyhub/journeyhub/internal/storage"
)

// ExpenseService records and lists journey expenses. Expenses are the
// expiration cascade's dependents: a new expense inherits the journey's
// current deletion schedule so the sweep catches it either way.
type ExpenseService struct {
	store  storage.Store
	expiry *ExpirationService
}

// NewExpenseService creates an ExpenseService.
func NewExpenseService(store storage.Store, expiry *ExpirationService) *ExpenseService {
	return &ExpenseService{store: store, expiry: expiry}
}

// Record creates an expense paid by the caller. Only members can record,
// and an input-locked journey refuses mutation.
func (s *ExpenseService) Record(ctx context.Context, journeyID, callerID, title string, amount float64) (*models.Expense, error) {
	if title == "" {
		return nil, fmt.Errorf("expense title required")
	}
	if amount <= 0 {
		return nil, fmt.Errorf("expense amount must be positive")
	}

	j, err := s.store.GetJourney(ctx, journeyID)
	if err != nil {
		return nil, notFoundOr(err, "journey %s", journeyID)
	}
	if j.IsInputLocked {
		return nil, journey.Errf(journey.CodeInputLocked, "journey %s is not accepting expense changes", j.ID)
	}

	status, err := s.store.MembershipStatus(ctx, j.ID, callerID)
	if err != nil {
		return nil, err
	}
	if status != journey.StatusMember {
		return nil, journey.Errf(journey.CodeUnauthorized, "only members can record expenses")
	}

	e := &models.Expense{
		JourneyID: j.ID,
		PayerID:   callerID,
		Title:     title,
		Amount:    amount,
		ExpireAt:  j.ExpireAt,
	}
	if err := s.store.CreateExpense(ctx, e); err != nil {
		return nil, err
	}

	if s.expiry != nil {
		if err := s.expiry.RefreshOnActivity(ctx, j.ID); err != nil {
			slog.Warn("failed to refresh journey expiry on expense", "journey_id", j.ID, "error", err)
		}
	}

	slog.Info("expense recorded", "journey_id", j.ID, "expense_id", e.ID, "amount", amount)
	return e, nil
}

// List returns the journey's expenses. Members only.
func (s *ExpenseService) List(ctx context.Context, journeyID, callerID string) ([]*models.Expense, error) {
	if _, err := s.store.GetJourney(ctx, journeyID); err != nil {
		return nil, notFoundOr(err, "journey %s", journeyID)
	}
	status, err := s.store.MembershipStatus(ctx, journeyID, callerID)
	if err != nil {
		return nil, err
	}
	if status != journey.StatusMember {
		return nil, journey.Errf(journey.CodeUnauthorized, "only members can view expenses")
	}
	return s.store.ListExpensesByJourney(ctx, journeyID)
}
