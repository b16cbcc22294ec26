package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/journeyhub/journeyhub/internal/models"
	"github.com/journeyhub/journeyhub/internal/service"
)

type journeyHandler struct {
	journeys  *service.JourneyService
	admission *service.AdmissionService
}

type journeyResponse struct {
	ID              string     `json:"id"`
	Slug            string     `json:"slug"`
	Name            string     `json:"name"`
	LeaderID        string     `json:"leaderId"`
	Status          string     `json:"status"`
	StartDate       *time.Time `json:"startDate,omitempty"`
	EndDate         *time.Time `json:"endDate,omitempty"`
	IsLocked        bool       `json:"isLocked"`
	IsInputLocked   bool       `json:"isInputLocked"`
	RequireApproval bool       `json:"requireApproval"`
	HasPassword     bool       `json:"hasPassword"`
	ExpireAt        *time.Time `json:"expireAt,omitempty"`
	Members         []string   `json:"members,omitempty"`
	PendingMembers  []string   `json:"pendingMembers,omitempty"`
	RejectedMembers []string   `json:"rejectedMembers,omitempty"`
}

func toJourneyResponse(j *models.Journey) *journeyResponse {
	return &journeyResponse{
		ID:              j.ID,
		Slug:            j.Slug,
		Name:            j.Name,
		LeaderID:        j.LeaderID,
		Status:          string(j.Status),
		StartDate:       j.StartDate,
		EndDate:         j.EndDate,
		IsLocked:        j.IsLocked,
		IsInputLocked:   j.IsInputLocked,
		RequireApproval: j.RequireApproval,
		HasPassword:     j.HasPassword(),
		ExpireAt:        j.ExpireAt,
	}
}

func (h *journeyHandler) create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name            string     `json:"name"`
		StartDate       *time.Time `json:"startDate"`
		EndDate         *time.Time `json:"endDate"`
		RequireApproval bool       `json:"requireApproval"`
		Password        string     `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "BAD_REQUEST", Message: "name required"})
		return
	}

	j, err := h.journeys.Create(r.Context(), userID(r.Context()), service.CreateJourneyParams{
		Name:            req.Name,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		RequireApproval: req.RequireApproval,
		Password:        req.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toJourneyResponse(j))
}

func (h *journeyHandler) get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.journeys.Get(r.Context(), chi.URLParam(r, "journeyID"))
	if err != nil {
		writeError(w, err)
		return
	}
	resp := toJourneyResponse(detail.Journey)
	resp.Members = detail.Members
	resp.PendingMembers = detail.PendingMembers
	resp.RejectedMembers = detail.RejectedMembers
	writeJSON(w, http.StatusOK, resp)
}

func (h *journeyHandler) setApproval(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RequireApproval bool `json:"requireApproval"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	j, err := h.admission.SetRequireApproval(r.Context(),
		chi.URLParam(r, "journeyID"), userID(r.Context()), req.RequireApproval)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toJourneyResponse(j))
}

func (h *journeyHandler) setLocks(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IsLocked      *bool `json:"isLocked"`
		IsInputLocked *bool `json:"isInputLocked"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	journeyID := chi.URLParam(r, "journeyID")
	caller := userID(r.Context())

	var j *models.Journey
	var err error
	if req.IsLocked != nil {
		if j, err = h.admission.SetLocked(r.Context(), journeyID, caller, *req.IsLocked); err != nil {
			writeError(w, err)
			return
		}
	}
	if req.IsInputLocked != nil {
		if j, err = h.admission.SetInputLocked(r.Context(), journeyID, caller, *req.IsInputLocked); err != nil {
			writeError(w, err)
			return
		}
	}
	if j == nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "BAD_REQUEST", Message: "isLocked or isInputLocked required"})
		return
	}
	writeJSON(w, http.StatusOK, toJourneyResponse(j))
}

func (h *journeyHandler) setPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password *string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	password := ""
	if req.Password != nil {
		password = *req.Password
	}
	err := h.admission.SetPassword(r.Context(),
		chi.URLParam(r, "journeyID"), userID(r.Context()), password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
