package store

import (
	"context"
	"testing"

	"github.com/phenomenon0/saltbet-agent/pkg/elo"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetPartyUnknownDefaultsToInitialRating(t *testing.T) {
	s := newTestStore(t)

	party := s.GetParty(context.Background(), "Nobody")
	if party.Name != "Nobody" {
		t.Errorf("name = %q, want Nobody", party.Name)
	}
	if party.Rating != elo.InitialRating {
		t.Errorf("rating = %d, want %d", party.Rating, elo.InitialRating)
	}
}

func TestPutPartyRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.PutParty(ctx, Party{Name: "Kenji", Rating: 1337}); err != nil {
		t.Fatalf("PutParty failed: %v", err)
	}

	party := s.GetParty(ctx, "Kenji")
	if party.Rating != 1337 {
		t.Errorf("rating = %d, want 1337", party.Rating)
	}
}

func TestPutPartyUpsertLastWriteWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.PutParty(ctx, Party{Name: "Kenji", Rating: 1337}); err != nil {
		t.Fatalf("PutParty failed: %v", err)
	}
	if err := s.PutParty(ctx, Party{Name: "Kenji", Rating: 900}); err != nil {
		t.Fatalf("PutParty (second) failed: %v", err)
	}

	if got := s.GetParty(ctx, "Kenji").Rating; got != 900 {
		t.Errorf("rating = %d, want 900", got)
	}
}

func TestPartyNamesAreCaseSensitive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.PutParty(ctx, Party{Name: "kenji", Rating: 1200}); err != nil {
		t.Fatalf("PutParty failed: %v", err)
	}

	if got := s.GetParty(ctx, "Kenji").Rating; got != elo.InitialRating {
		t.Errorf("rating for different-cased name = %d, want initial", got)
	}
}

func TestPutSettledMatchRecordsKnownParties(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.PutParty(ctx, Party{Name: "A", Rating: 1016}); err != nil {
		t.Fatal(err)
	}
	if err := s.PutParty(ctx, Party{Name: "B", Rating: 984}); err != nil {
		t.Fatal(err)
	}

	s.PutSettledMatch(ctx, elo.FirstWins, "A", "B")

	count, err := s.SettlementCount(ctx)
	if err != nil {
		t.Fatalf("SettlementCount failed: %v", err)
	}
	if count != 1 {
		t.Errorf("settlement count = %d, want 1", count)
	}
}

func TestPutSettledMatchSkipsUnknownParty(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.PutParty(ctx, Party{Name: "A", Rating: 1016}); err != nil {
		t.Fatal(err)
	}

	// "Ghost" was never persisted; the write must be a silent no-op.
	s.PutSettledMatch(ctx, elo.SecondWins, "A", "Ghost")

	count, err := s.SettlementCount(ctx)
	if err != nil {
		t.Fatalf("SettlementCount failed: %v", err)
	}
	if count != 0 {
		t.Errorf("settlement count = %d, want 0", count)
	}
}

func TestTopParties(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, p := range []Party{
		{Name: "Mid", Rating: 1000},
		{Name: "Best", Rating: 1500},
		{Name: "Worst", Rating: 700},
	} {
		if err := s.PutParty(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	top, err := s.TopParties(ctx, 2)
	if err != nil {
		t.Fatalf("TopParties failed: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("len = %d, want 2", len(top))
	}
	if top[0].Name != "Best" || top[1].Name != "Mid" {
		t.Errorf("top parties = %v", top)
	}
}
