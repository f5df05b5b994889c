package service

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"naval-combat/internal/ai"
	"naval-combat/internal/domain"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// cloneMatch deep-copies m through the persistence form of its boards, so the
// fakes behave like real stores and never share state with the caller.
func cloneMatch(t *testing.T, m *domain.Match) *domain.Match {
	t.Helper()
	cp := *m
	var err error
	if cp.Player1Board, err = domain.RestoreBoard(m.Player1Board.State()); err != nil {
		t.Fatalf("clone board 1: %v", err)
	}
	if cp.Player2Board, err = domain.RestoreBoard(m.Player2Board.State()); err != nil {
		t.Fatalf("clone board 2: %v", err)
	}
	return &cp
}

type memMatches struct {
	t       *testing.T
	mu      sync.Mutex
	matches map[uuid.UUID]*domain.Match
	saves   int

	// activeDelay slows down the active-match lookup.
	activeDelay time.Duration
}

func newMemMatches(t *testing.T) *memMatches {
	return &memMatches{t: t, matches: make(map[uuid.UUID]*domain.Match)}
}

func (s *memMatches) GetByID(_ context.Context, id uuid.UUID) (*domain.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, nil
	}
	return cloneMatch(s.t, m), nil
}

func (s *memMatches) Save(_ context.Context, m *domain.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[m.ID] = cloneMatch(s.t, m)
	s.saves++
	return nil
}

func (s *memMatches) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.matches, id)
	return nil
}

func (s *memMatches) GetActiveMatchID(_ context.Context, playerID uuid.UUID) (uuid.UUID, bool, error) {
	time.Sleep(s.activeDelay)
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, m := range s.matches {
		if m.Status != domain.StatusFinished && (m.Player1ID == playerID || m.Player2ID == playerID) {
			return id, true, nil
		}
	}
	return uuid.Nil, false, nil
}

func (s *memMatches) ListActiveAIMatchIDs(_ context.Context) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uuid.UUID
	for id, m := range s.matches {
		if m.Status == domain.StatusInProgress && m.IsAIMatch() {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *memMatches) ListUnsettledMatchIDs(_ context.Context) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uuid.UUID
	for id, m := range s.matches {
		if m.Status == domain.StatusFinished && !m.Settled {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *memMatches) get(id uuid.UUID) *domain.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matches[id]
}

type memStates struct {
	t       *testing.T
	mu      sync.Mutex
	matches map[uuid.UUID]*domain.Match
	getErr  error
	saves   int
}

func newMemStates(t *testing.T) *memStates {
	return &memStates{t: t, matches: make(map[uuid.UUID]*domain.Match)}
}

func (s *memStates) Get(_ context.Context, id uuid.UUID) (*domain.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	m, ok := s.matches[id]
	if !ok {
		return nil, nil
	}
	return cloneMatch(s.t, m), nil
}

func (s *memStates) Save(_ context.Context, m *domain.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[m.ID] = cloneMatch(s.t, m)
	s.saves++
	return nil
}

func (s *memStates) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func (s *memStates) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.matches, id)
	return nil
}

func (s *memStates) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.matches[id]
	return ok, nil
}

func (s *memStates) get(id uuid.UUID) *domain.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matches[id]
}

type memProfiles struct {
	mu        sync.Mutex
	profiles  map[uuid.UUID]domain.PlayerProfile
	lists     int
	upsertErr error
}

func newMemProfiles() *memProfiles {
	return &memProfiles{profiles: make(map[uuid.UUID]domain.PlayerProfile)}
}

func (s *memProfiles) GetOrCreate(_ context.Context, userID uuid.UUID) (*domain.PlayerProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		p = domain.PlayerProfile{UserID: userID}
		s.profiles[userID] = p
	}
	p.EarnedMedalCodes = append([]string(nil), p.EarnedMedalCodes...)
	return &p, nil
}

func (s *memProfiles) Upsert(_ context.Context, p *domain.PlayerProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.profiles[p.UserID] = *p
	return nil
}

func (s *memProfiles) ListTop(_ context.Context, limit int) ([]domain.PlayerProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists++
	out := make([]domain.PlayerProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RankPoints > out[j].RankPoints })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memProfiles) failUpserts(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertErr = err
}

func (s *memProfiles) get(id uuid.UUID) domain.PlayerProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profiles[id]
}

type memRanking struct {
	mu          sync.Mutex
	limit       int
	entries     []domain.PlayerProfile
	cached      bool
	invalidated int
}

func (c *memRanking) Get(_ context.Context, limit int) ([]domain.PlayerProfile, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.cached || c.limit < limit {
		return nil, false, nil
	}
	return c.entries, true, nil
}

func (c *memRanking) Set(_ context.Context, limit int, profiles []domain.PlayerProfile) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.limit, c.entries, c.cached = limit, profiles, true
	return nil
}

func (c *memRanking) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cached = false
	c.invalidated++
	return nil
}

type harness struct {
	svc      *MatchService
	matches  *memMatches
	states   *memStates
	profiles *memProfiles
	ranking  *memRanking
	clock    *time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		matches:  newMemMatches(t),
		states:   newMemStates(t),
		profiles: newMemProfiles(),
		ranking:  &memRanking{},
	}
	now := t0
	h.clock = &now
	h.svc = NewMatchService(h.matches, h.states, h.profiles, h.ranking, zerolog.New(io.Discard))
	h.svc.now = func() time.Time { return *h.clock }
	h.svc.rng = rand.New(rand.NewSource(7))
	return h
}

func (h *harness) advance(d time.Duration) { *h.clock = h.clock.Add(d) }

// standardFleet lays the standard fleet out on rows 0 to 5, one ship per row.
func standardFleet() []domain.ShipPlacement {
	out := make([]domain.ShipPlacement, len(domain.StandardFleet))
	for i, s := range domain.StandardFleet {
		out[i] = domain.ShipPlacement{Name: s.Name, Size: s.Size, StartX: 0, StartY: i, Orientation: domain.Horizontal}
	}
	return out
}

// seedAIMatch stores an in-progress AI match in both stores. The human owns a
// submarine at (9, 9); the AI owns a two-cell ship at (0, 0) and (1, 0). The
// human holds the turn.
func (h *harness) seedAIMatch(t *testing.T, mode domain.GameMode) (*domain.Match, uuid.UUID) {
	t.Helper()
	human := uuid.New()
	m := domain.NewMatch(uuid.New(), human, domain.AIPlayerID, mode, domain.DifficultyBasic, *h.clock)

	sub, err := domain.NewShip(uuid.New(), "Submarine", 1, domain.Horizontal, domain.LayShip(9, 9, 1, domain.Horizontal))
	if err != nil {
		t.Fatalf("NewShip() error = %v", err)
	}
	boat, err := domain.NewShip(uuid.New(), "Patrol", 2, domain.Horizontal, domain.LayShip(0, 0, 2, domain.Horizontal))
	if err != nil {
		t.Fatalf("NewShip() error = %v", err)
	}
	if err := m.Player1Board.Place(sub); err != nil {
		t.Fatalf("Place() error = %v", err)
	}
	if err := m.Player2Board.Place(boat); err != nil {
		t.Fatalf("Place() error = %v", err)
	}
	for _, id := range []uuid.UUID{human, domain.AIPlayerID} {
		if err := m.SetPlayerReady(id, *h.clock, nil); err != nil {
			t.Fatalf("SetPlayerReady() error = %v", err)
		}
	}

	ctx := context.Background()
	if err := h.matches.Save(ctx, m); err != nil {
		t.Fatal(err)
	}
	if err := h.states.Save(ctx, m); err != nil {
		t.Fatal(err)
	}
	return m, human
}

// store overwrites m in both stores.
func (h *harness) store(t *testing.T, m *domain.Match) {
	t.Helper()
	ctx := context.Background()
	if err := h.matches.Save(ctx, m); err != nil {
		t.Fatal(err)
	}
	if err := h.states.Save(ctx, m); err != nil {
		t.Fatal(err)
	}
}

// watchedStrategy calls onChoose before every target. It fires at targets in
// order, or delegates to Strategy when one is set.
type watchedStrategy struct {
	ai.Strategy
	targets  []domain.Coordinate
	onChoose func()
}

func (s *watchedStrategy) Name() domain.Difficulty { return domain.DifficultyIntermediate }

func (s *watchedStrategy) ChooseTarget(board ai.Target) (domain.Coordinate, error) {
	if s.onChoose != nil {
		s.onChoose()
	}
	if s.Strategy != nil {
		return s.Strategy.ChooseTarget(board)
	}
	if len(s.targets) == 0 {
		return domain.Coordinate{}, ai.ErrNoTarget
	}
	c := s.targets[0]
	s.targets = s.targets[1:]
	return c, nil
}

var errStoreDown = errors.New("store down")
