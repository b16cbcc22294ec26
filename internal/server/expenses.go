package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/journeyhub/journeyhub/internal/models"
	"github.com/journeyhub/journeyhub/internal/service"
)

type expenseHandler struct {
	expenses *service.ExpenseService
}

type expenseResponse struct {
	ID        string     `json:"id"`
	JourneyID string     `json:"journeyId"`
	PayerID   string     `json:"payerId"`
	Title     string     `json:"title"`
	Amount    float64    `json:"amount"`
	ExpireAt  *time.Time `json:"expireAt,omitempty"`
	CreatedAt int64      `json:"createdAt"`
}

func toExpenseResponse(e *models.Expense) *expenseResponse {
	return &expenseResponse{
		ID:        e.ID,
		JourneyID: e.JourneyID,
		PayerID:   e.PayerID,
		Title:     e.Title,
		Amount:    e.Amount,
		ExpireAt:  e.ExpireAt,
		CreatedAt: e.CreatedAt,
	}
}

func (h *expenseHandler) record(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title  string  `json:"title"`
		Amount float64 `json:"amount"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Title == "" || req.Amount <= 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "BAD_REQUEST", Message: "title and positive amount required"})
		return
	}

	e, err := h.expenses.Record(r.Context(),
		chi.URLParam(r, "journeyID"), userID(r.Context()), req.Title, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toExpenseResponse(e))
}

func (h *expenseHandler) list(w http.ResponseWriter, r *http.Request) {
	expenses, err := h.expenses.List(r.Context(),
		chi.URLParam(r, "journeyID"), userID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]*expenseResponse, len(expenses))
	for i, e := range expenses {
		resp[i] = toExpenseResponse(e)
	}
	writeJSON(w, http.StatusOK, resp)
}
