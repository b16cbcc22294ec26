package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/journeyhub/journeyhub/internal/service"
)

type admissionHandler struct {
	admission  *service.AdmissionService
	sessionTTL time.Duration
}

func (h *admissionHandler) generateToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.admission.GenerateJoinToken(r.Context(),
		chi.URLParam(r, "journeyID"), userID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *admissionHandler) join(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Token == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "BAD_REQUEST", Message: "token required"})
		return
	}
	caller := userID(r.Context())
	if caller == "" && req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "BAD_REQUEST", Message: "name required for guest join"})
		return
	}

	result, err := h.admission.Redeem(r.Context(), req.Token, caller, req.Name, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	// The session cookie is what makes client retries idempotent: the
	// next attempt carries the identity this one resolved.
	http.SetCookie(w, &http.Cookie{
		Name:     "session",
		Value:    result.SessionToken,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"token":       result.SessionToken,
		"user":        map[string]any{"id": result.User.ID, "name": result.User.Name, "isGuest": result.User.IsGuest},
		"journeyId":   result.JourneyID,
		"journeySlug": result.JourneySlug,
		"isPending":   result.IsPending,
	})
}

func (h *admissionHandler) approve(w http.ResponseWriter, r *http.Request) {
	j, err := h.admission.Approve(r.Context(),
		chi.URLParam(r, "journeyID"), userID(r.Context()), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toJourneyResponse(j))
}

func (h *admissionHandler) reject(w http.ResponseWriter, r *http.Request) {
	j, err := h.admission.Reject(r.Context(),
		chi.URLParam(r, "journeyID"), userID(r.Context()), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toJourneyResponse(j))
}

func (h *admissionHandler) removeMember(w http.ResponseWriter, r *http.Request) {
	j, err := h.admission.RemoveMember(r.Context(),
		chi.URLParam(r, "journeyID"), userID(r.Context()), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toJourneyResponse(j))
}

func (h *admissionHandler) leave(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TZOffsetMinutes *int `json:"tzOffsetMinutes"`
	}
	// Body is optional for leave.
	_ = decodeLenient(r, &req)

	j, err := h.admission.Leave(r.Context(),
		chi.URLParam(r, "journeyID"), userID(r.Context()), req.TZOffsetMinutes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toJourneyResponse(j))
}
