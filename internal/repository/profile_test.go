package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"naval-combat/internal/domain"
)

func TestProfileRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewProfileRepository(openTestDB(t), zerolog.Nop())
	id := uuid.New()

	p, err := repo.GetOrCreate(ctx, id)
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if p.RankPoints != 0 || p.Wins != 0 || len(p.EarnedMedalCodes) != 0 {
		t.Fatalf("new profile = %+v", p)
	}

	p.AddWin(160, testNow)
	p.AwardMedal(domain.MedalAdmiral)
	if err := repo.Upsert(ctx, p); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	// Saving again must not duplicate the medal.
	p.AddWin(100, testNow)
	if err := repo.Upsert(ctx, p); err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}

	got, err := repo.GetOrCreate(ctx, id)
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if got.RankPoints != 260 || got.Wins != 2 || got.CurrentStreak != 2 || got.MaxStreak != 2 {
		t.Fatalf("profile = %+v", got)
	}
	if len(got.EarnedMedalCodes) != 1 || got.EarnedMedalCodes[0] != domain.MedalAdmiral {
		t.Fatalf("medals = %v, want [ADMIRAL]", got.EarnedMedalCodes)
	}
}

func TestProfileRepositoryListTop(t *testing.T) {
	ctx := context.Background()
	repo := NewProfileRepository(openTestDB(t), zerolog.Nop())

	points := []int{50, 400, 120}
	ids := make([]uuid.UUID, len(points))
	for i, pts := range points {
		ids[i] = uuid.New()
		p := &domain.PlayerProfile{UserID: ids[i]}
		p.AddWin(pts, testNow)
		if err := repo.Upsert(ctx, p); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
	}

	top, err := repo.ListTop(ctx, 2)
	if err != nil {
		t.Fatalf("ListTop() error = %v", err)
	}
	if len(top) != 2 || top[0].UserID != ids[1] || top[1].UserID != ids[2] {
		t.Fatalf("ListTop() = %+v", top)
	}
}
