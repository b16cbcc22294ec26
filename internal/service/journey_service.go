package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/journeyhub/journeyhub/internal/auth"
	"github.com/journeyhub/journeyhub/internal/journey"
	"github.com/journeyhub/journeyhub/internal/models"
	"github.com/journeyhub/journeyhub/internal/storage"
)

// JourneyService handles journey creation and reads.
type JourneyService struct {
	store storage.Store
}

// NewJourneyService creates a JourneyService.
func NewJourneyService(store storage.Store) *JourneyService {
	return &JourneyService{store: store}
}

// CreateJourneyParams are the caller-supplied attributes of a new journey.
type CreateJourneyParams struct {
	Name            string
	StartDate       *time.Time
	EndDate         *time.Time
	RequireApproval bool
	Password        string
}

// Create persists a new journey with the caller as leader. The leader is
// immediately a member, and the slug is derived from the name plus a
// random suffix for global uniqueness.
func (s *JourneyService) Create(ctx context.Context, leaderID string, params CreateJourneyParams) (*models.Journey, error) {
	if strings.TrimSpace(params.Name) == "" {
		return nil, fmt.Errorf("journey name required")
	}
	if _, err := s.store.GetUser(ctx, leaderID); err != nil {
		return nil, notFoundOr(err, "user %s", leaderID)
	}

	hash := ""
	if params.Password != "" {
		var err error
		hash, err = auth.HashPassword(params.Password)
		if err != nil {
			return nil, err
		}
	}

	j := &models.Journey{
		Slug:            makeSlug(params.Name),
		Name:            params.Name,
		LeaderID:        leaderID,
		StartDate:       params.StartDate,
		EndDate:         params.EndDate,
		RequireApproval: params.RequireApproval,
		PasswordHash:    hash,
	}
	if err := s.store.CreateJourney(ctx, j); err != nil {
		return nil, err
	}
	if _, err := s.store.AddMember(ctx, j.ID, leaderID, journey.StatusMember); err != nil {
		return nil, err
	}

	slog.Info("journey created", "journey_id", j.ID, "slug", j.Slug, "leader_id", leaderID)
	return j, nil
}

// Detail bundles a journey with its membership sets for read surfaces.
type Detail struct {
	Journey         *models.Journey
	Members         []string
	PendingMembers  []string
	RejectedMembers []string
}

// Get returns the journey and its membership sets.
func (s *JourneyService) Get(ctx context.Context, journeyID string) (*Detail, error) {
	j, err := s.store.GetJourney(ctx, journeyID)
	if err != nil {
		return nil, notFoundOr(err, "journey %s", journeyID)
	}
	memberships, err := s.store.ListMemberships(ctx, journeyID)
	if err != nil {
		return nil, err
	}

	d := &Detail{Journey: j}
	for _, m := range memberships {
		switch m.Status {
		case journey.StatusMember:
			d.Members = append(d.Members, m.UserID)
		case journey.StatusPending:
			d.PendingMembers = append(d.PendingMembers, m.UserID)
		case journey.StatusRejected:
			d.RejectedMembers = append(d.RejectedMembers, m.UserID)
		}
	}
	return d, nil
}

// makeSlug lowercases the name, collapses everything non-alphanumeric
// into hyphens, and appends a random suffix for global uniqueness.
func makeSlug(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:6]
	if slug == "" {
		return suffix
	}
	return slug + "-" + suffix
}
