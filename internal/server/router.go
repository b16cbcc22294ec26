package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/journeyhub/journeyhub/internal/auth"
	"github.com/journeyhub/journeyhub/internal/notify"
	"github.com/journeyhub/journeyhub/internal/service"
)

// RouterConfig holds the collaborators the router wires together.
type RouterConfig struct {
	Tokens     *auth.TokenManager
	Admission  *service.AdmissionService
	Journeys   *service.JourneyService
	Expenses   *service.ExpenseService
	Hub        *notify.Hub
	SessionTTL time.Duration

	RateLimitEnabled      bool
	JoinRequestsPerMinute int
}

// NewRouter creates the HTTP router with all routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogging)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	journeys := &journeyHandler{journeys: cfg.Journeys, admission: cfg.Admission}
	admission := &admissionHandler{admission: cfg.Admission, sessionTTL: cfg.SessionTTL}
	expenses := &expenseHandler{expenses: cfg.Expenses}
	events := &eventsHandler{hub: cfg.Hub}

	joinLimiter := noLimit
	if cfg.RateLimitEnabled {
		joinLimiter = rateLimit(cfg.JoinRequestsPerMinute, time.Minute)
	}

	// Redemption: unauthenticated for the guest path; a valid session on
	// a retry is picked up by optionalAuth.
	r.Group(func(r chi.Router) {
		r.Use(joinLimiter)
		r.With(optionalAuth(cfg.Tokens)).Post("/v1/join", admission.join)
	})

	r.Group(func(r chi.Router) {
		r.Use(requireAuth(cfg.Tokens))

		r.Post("/v1/journeys", journeys.create)
		r.Get("/v1/journeys/{journeyID}", journeys.get)
		r.Patch("/v1/journeys/{journeyID}/approval", journeys.setApproval)
		r.Patch("/v1/journeys/{journeyID}/locks", journeys.setLocks)
		r.Patch("/v1/journeys/{journeyID}/password", journeys.setPassword)

		r.With(joinLimiter).Post("/v1/journeys/{journeyID}/join-token", admission.generateToken)
		r.Post("/v1/journeys/{journeyID}/members/{userID}/approve", admission.approve)
		r.Post("/v1/journeys/{journeyID}/members/{userID}/reject", admission.reject)
		r.Delete("/v1/journeys/{journeyID}/members/{userID}", admission.removeMember)
		r.Post("/v1/journeys/{journeyID}/leave", admission.leave)

		r.Post("/v1/journeys/{journeyID}/expenses", expenses.record)
		r.Get("/v1/journeys/{journeyID}/expenses", expenses.list)

		r.Get("/v1/journeys/{journeyID}/events", events.stream)
	})

	return r
}

// rateLimit creates an IP-based rate limiter with logging, surfacing the
// limit as the TOO_MANY_REQUESTS domain code.
func rateLimit(requests int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		requests,
		window,
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			slog.Warn("rate limit exceeded",
				"ip", r.RemoteAddr,
				"path", r.URL.Path,
				"method", r.Method,
			)
			writeJSON(w, http.StatusTooManyRequests, errorBody{
				Code:    "TOO_MANY_REQUESTS",
				Message: "rate limit exceeded, please try again later",
			})
		}),
	)
}

// noLimit is a no-op middleware for when rate limiting is disabled.
func noLimit(next http.Handler) http.Handler {
	return next
}
