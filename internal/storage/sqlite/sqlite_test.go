package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/journeyhub/journeyhub/internal/journey"
	"github.com/journeyhub/journeyhub/internal/models"
	"github.com/journeyhub/journeyhub/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func createJourney(t *testing.T, store *SQLiteStore, leaderID string) *models.Journey {
	t.Helper()

	j := &models.Journey{
		Slug:     "trip-" + leaderID,
		Name:     "Trip",
		LeaderID: leaderID,
	}
	if err := store.CreateJourney(context.Background(), j); err != nil {
		t.Fatalf("CreateJourney failed: %v", err)
	}
	return j
}

func TestGetJourneyNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetJourney(context.Background(), "missing")
	if err != storage.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestConsumeJoinTokenHappyPath(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	j := createJourney(t, store, "leader")

	if err := store.SetJoinToken(ctx, j.ID, "jti-1", time.Now().Add(5*time.Minute)); err != nil {
		t.Fatalf("SetJoinToken failed: %v", err)
	}

	won, err := store.ConsumeJoinToken(ctx, j.ID, "jti-1", time.Now())
	if err != nil {
		t.Fatalf("ConsumeJoinToken failed: %v", err)
	}
	if !won {
		t.Fatal("expected to win the consume")
	}

	// Consumption clears the jti and marks the token used.
	got, err := store.GetJourney(ctx, j.ID)
	if err != nil {
		t.Fatalf("GetJourney failed: %v", err)
	}
	if got.JoinTokenJTI != "" {
		t.Errorf("jti not cleared: %q", got.JoinTokenJTI)
	}
	if !got.JoinTokenUsed {
		t.Error("join_token_used not set")
	}

	// A second consume of the same jti must lose.
	won, err = store.ConsumeJoinToken(ctx, j.ID, "jti-1", time.Now())
	if err != nil {
		t.Fatalf("second ConsumeJoinToken failed: %v", err)
	}
	if won {
		t.Fatal("consumed the same token twice")
	}
}

func TestConsumeJoinTokenExpired(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	j := createJourney(t, store, "leader")

	if err := store.SetJoinToken(ctx, j.ID, "jti-1", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("SetJoinToken failed: %v", err)
	}

	won, err := store.ConsumeJoinToken(ctx, j.ID, "jti-1", time.Now())
	if err != nil {
		t.Fatalf("ConsumeJoinToken failed: %v", err)
	}
	if won {
		t.Fatal("consumed an expired token")
	}
}

func TestConsumeJoinTokenAfterReissue(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	j := createJourney(t, store, "leader")

	if err := store.SetJoinToken(ctx, j.ID, "jti-1", time.Now().Add(5*time.Minute)); err != nil {
		t.Fatalf("SetJoinToken failed: %v", err)
	}
	// Reissue overwrites the first token.
	if err := store.SetJoinToken(ctx, j.ID, "jti-2", time.Now().Add(5*time.Minute)); err != nil {
		t.Fatalf("SetJoinToken failed: %v", err)
	}

	won, err := store.ConsumeJoinToken(ctx, j.ID, "jti-1", time.Now())
	if err != nil {
		t.Fatalf("ConsumeJoinToken failed: %v", err)
	}
	if won {
		t.Fatal("consumed an invalidated token")
	}

	won, err = store.ConsumeJoinToken(ctx, j.ID, "jti-2", time.Now())
	if err != nil {
		t.Fatalf("ConsumeJoinToken failed: %v", err)
	}
	if !won {
		t.Fatal("failed to consume the live token")
	}
}

func TestConsumeJoinTokenConcurrent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	j := createJourney(t, store, "leader")

	if err := store.SetJoinToken(ctx, j.ID, "jti-race", time.Now().Add(5*time.Minute)); err != nil {
		t.Fatalf("SetJoinToken failed: %v", err)
	}

	const attempts = 8
	var wg sync.WaitGroup
	wins := make(chan bool, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			won, err := store.ConsumeJoinToken(ctx, j.ID, "jti-race", time.Now())
			if err != nil {
				t.Errorf("ConsumeJoinToken failed: %v", err)
				return
			}
			wins <- won
		}()
	}
	wg.Wait()
	close(wins)

	winners := 0
	for won := range wins {
		if won {
			winners++
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly 1 winner, got %d", winners)
	}
}

func TestMembershipDisjointness(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	j := createJourney(t, store, "leader")

	inserted, err := store.AddMember(ctx, j.ID, "u1", journey.StatusPending)
	if err != nil || !inserted {
		t.Fatalf("AddMember failed: inserted=%v err=%v", inserted, err)
	}

	// A second insert for the same pair is a no-op, regardless of status.
	inserted, err = store.AddMember(ctx, j.ID, "u1", journey.StatusMember)
	if err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	if inserted {
		t.Fatal("duplicate membership row inserted")
	}

	status, err := store.MembershipStatus(ctx, j.ID, "u1")
	if err != nil {
		t.Fatalf("MembershipStatus failed: %v", err)
	}
	if status != journey.StatusPending {
		t.Errorf("status = %q, want pending", status)
	}
}

func TestTransitionMember(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	j := createJourney(t, store, "leader")

	if _, err := store.AddMember(ctx, j.ID, "u1", journey.StatusPending); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}

	moved, err := store.TransitionMember(ctx, j.ID, "u1", journey.StatusPending, journey.StatusMember)
	if err != nil || !moved {
		t.Fatalf("TransitionMember failed: moved=%v err=%v", moved, err)
	}

	// Not pending anymore; a second transition must report false.
	moved, err = store.TransitionMember(ctx, j.ID, "u1", journey.StatusPending, journey.StatusRejected)
	if err != nil {
		t.Fatalf("TransitionMember failed: %v", err)
	}
	if moved {
		t.Fatal("transitioned a pair that was not in the from status")
	}
}

func TestCascadeExpiryGuestsOnly(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	j := createJourney(t, store, "leader")

	leader := &models.User{ID: "leader", Name: "Lea"}
	member := &models.User{ID: "reg", Name: "Reg"}
	guest := &models.User{ID: "guest", Name: "Gus", IsGuest: true}
	for _, u := range []*models.User{leader, member, guest} {
		if err := store.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
		if _, err := store.AddMember(ctx, j.ID, u.ID, journey.StatusMember); err != nil {
			t.Fatalf("AddMember failed: %v", err)
		}
	}
	pendingGuest := &models.User{ID: "pending-guest", Name: "Pen", IsGuest: true}
	if err := store.CreateUser(ctx, pendingGuest); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if _, err := store.AddMember(ctx, j.ID, pendingGuest.ID, journey.StatusPending); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	if err := store.CreateExpense(ctx, &models.Expense{JourneyID: j.ID, PayerID: "reg", Title: "Dinner", Amount: 42}); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	expireAt := time.Now().Add(3 * time.Hour).Truncate(time.Second)
	if err := store.CascadeExpiry(ctx, j.ID, expireAt); err != nil {
		t.Fatalf("CascadeExpiry failed: %v", err)
	}

	got, err := store.GetJourney(ctx, j.ID)
	if err != nil {
		t.Fatalf("GetJourney failed: %v", err)
	}
	if got.ExpireAt == nil || !got.ExpireAt.Equal(expireAt) {
		t.Errorf("journey expire_at = %v, want %v", got.ExpireAt, expireAt)
	}

	expenses, err := store.ListExpensesByJourney(ctx, j.ID)
	if err != nil {
		t.Fatalf("ListExpensesByJourney failed: %v", err)
	}
	for _, e := range expenses {
		if e.ExpireAt == nil || !e.ExpireAt.Equal(expireAt) {
			t.Errorf("expense expire_at = %v, want %v", e.ExpireAt, expireAt)
		}
	}

	gotGuest, _ := store.GetUser(ctx, guest.ID)
	if gotGuest.ExpireAt == nil || !gotGuest.ExpireAt.Equal(expireAt) {
		t.Errorf("guest expire_at = %v, want %v", gotGuest.ExpireAt, expireAt)
	}
	gotMember, _ := store.GetUser(ctx, member.ID)
	if gotMember.ExpireAt != nil {
		t.Errorf("registered member expire_at = %v, want nil", gotMember.ExpireAt)
	}
	// Pending guests were never admitted; the sweep of the journey row
	// covers them.
	gotPending, _ := store.GetUser(ctx, pendingGuest.ID)
	if gotPending.ExpireAt != nil {
		t.Errorf("pending guest expire_at = %v, want nil", gotPending.ExpireAt)
	}
}

func TestNameTakenInJourney(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	j := createJourney(t, store, "leader")

	alice := &models.User{ID: "a", Name: "Alice", IsGuest: true}
	if err := store.CreateUser(ctx, alice); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if _, err := store.AddMember(ctx, j.ID, alice.ID, journey.StatusPending); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}

	taken, err := store.NameTakenInJourney(ctx, j.ID, "Alice")
	if err != nil {
		t.Fatalf("NameTakenInJourney failed: %v", err)
	}
	if !taken {
		t.Error("expected Alice to be taken (pending counts)")
	}

	taken, err = store.NameTakenInJourney(ctx, j.ID, "Bob")
	if err != nil {
		t.Fatalf("NameTakenInJourney failed: %v", err)
	}
	if taken {
		t.Error("Bob should be free")
	}
}
