package service

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"naval-combat/internal/config"
	"naval-combat/internal/domain"
)

func TestSweepChargesExpiredAIMatches(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sweeper := NewTimeoutSweeper(h.svc, &config.Config{SweepInterval: 1e9}, zerolog.New(io.Discard))

	stale, human := h.seedAIMatch(t, domain.ModeClassic)
	h.advance(domain.TurnTimeLimit + 1e9)
	fresh, _ := h.seedAIMatch(t, domain.ModeClassic)

	n, err := sweeper.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if n != 1 {
		t.Fatalf("charged = %d, want 1", n)
	}
	if got := h.states.get(stale.ID).Player1Stats.ConsecutiveTimeouts; got != 1 {
		t.Fatalf("stale match timeouts = %d, want 1", got)
	}
	if got := h.states.get(fresh.ID).Player1Stats.ConsecutiveTimeouts; got != 0 {
		t.Fatalf("fresh match timeouts = %d, want 0", got)
	}
	_ = human
}

func TestSweepEndsAbandonedMatch(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sweeper := NewTimeoutSweeper(h.svc, &config.Config{SweepInterval: 1e9}, zerolog.New(io.Discard))

	m, human := h.seedAIMatch(t, domain.ModeClassic)
	m.Player1Stats.ConsecutiveTimeouts = domain.MaxConsecutiveTimeouts - 1
	_ = h.states.Save(ctx, m)

	h.advance(domain.TurnTimeLimit + 1e9)
	if _, err := sweeper.Sweep(ctx); err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if stored := h.matches.get(m.ID); stored.Status != domain.StatusFinished || stored.WinnerID.UUID != domain.AIPlayerID {
		t.Fatalf("durable match = %s, want finished by the AI", stored.Status)
	}
	if p := h.profiles.get(human); p.Losses != 1 {
		t.Fatalf("losses = %d, want 1", p.Losses)
	}
	if n, _ := sweeper.Sweep(ctx); n != 0 {
		t.Fatalf("finished match charged again: %d", n)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	h := newHarness(t)
	sweeper := NewTimeoutSweeper(h.svc, &config.Config{SweepInterval: 1e6}, zerolog.New(io.Discard))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()
	cancel()
	<-done
}

func TestProfileFailureKeepsWinAndSweepSettles(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sweeper := NewTimeoutSweeper(h.svc, &config.Config{SweepInterval: 1e9}, zerolog.New(io.Discard))
	m, human := h.seedAIMatch(t, domain.ModeClassic)

	if _, err := h.svc.Shoot(ctx, human, m.ID, 0, 0); err != nil {
		t.Fatalf("Shoot() error = %v", err)
	}
	h.profiles.failUpserts(errStoreDown)

	res, err := h.svc.Shoot(ctx, human, m.ID, 1, 0)
	if err != nil {
		t.Fatalf("winning Shoot() error = %v, want the result despite the profile store", err)
	}
	if !res.GameOver || res.WinnerID.UUID != human {
		t.Fatalf("winning shot = %+v, want game over for the human", res)
	}
	stored := h.matches.get(m.ID)
	if stored.Status != domain.StatusFinished || stored.Settled {
		t.Fatalf("durable match = %s settled %v, want finished and unsettled", stored.Status, stored.Settled)
	}
	if p := h.profiles.get(human); p.Wins != 0 {
		t.Fatalf("wins = %d before settlement, want 0", p.Wins)
	}

	// Still down: the sweep leaves the match for the next run.
	if _, err := sweeper.Sweep(ctx); err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if h.matches.get(m.ID).Settled {
		t.Fatal("match settled while the profile store is down")
	}

	h.profiles.failUpserts(nil)
	for range 2 {
		if _, err := sweeper.Sweep(ctx); err != nil {
			t.Fatalf("Sweep() error = %v", err)
		}
	}
	p := h.profiles.get(human)
	if p.Wins != 1 || p.RankPoints != 100+2*10 {
		t.Fatalf("profile = %+v, want one win worth 120 points", p)
	}
	if !h.matches.get(m.ID).Settled {
		t.Fatal("durable match is not marked settled after the sweep")
	}
	if h.ranking.invalidated != 1 {
		t.Fatalf("ranking invalidations = %d, want 1", h.ranking.invalidated)
	}
}

func TestSettleMatchSkipsLiveAndSettledMatches(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	m, human := h.seedAIMatch(t, domain.ModeClassic)

	if ok, err := h.svc.SettleMatch(ctx, m.ID); err != nil || ok {
		t.Fatalf("SettleMatch(live) = %v, %v, want nothing to do", ok, err)
	}
	if _, err := h.svc.SettleMatch(ctx, uuid.New()); !errors.Is(err, domain.ErrMatchNotFound) {
		t.Fatalf("SettleMatch(unknown) error = %v, want ErrMatchNotFound", err)
	}

	for _, x := range []int{0, 1} {
		if _, err := h.svc.Shoot(ctx, human, m.ID, x, 0); err != nil {
			t.Fatalf("Shoot(%d, 0) error = %v", x, err)
		}
	}
	if ok, err := h.svc.SettleMatch(ctx, m.ID); err != nil || ok {
		t.Fatalf("SettleMatch(settled) = %v, %v, want nothing to do", ok, err)
	}
	if p := h.profiles.get(human); p.Wins != 1 {
		t.Fatalf("wins = %d, want 1", p.Wins)
	}
}
