package repository

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"naval-combat/internal/config"
	"naval-combat/internal/database"
	"naval-combat/internal/domain"
)

var testNow = time.UnixMilli(1_740_830_400_000).UTC()

func testConfig() *config.Config {
	return &config.Config{HotStoreTTL: time.Hour, RankingCacheTTL: 5 * time.Minute}
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "naval.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func place(t *testing.T, b *domain.Board, name string, x, y, size int, o domain.Orientation) {
	t.Helper()
	s, err := domain.NewShip(uuid.New(), name, size, o, domain.LayShip(x, y, size, o))
	if err != nil {
		t.Fatalf("NewShip() error = %v", err)
	}
	if err := b.Place(s); err != nil {
		t.Fatalf("Place() error = %v", err)
	}
}

// playedMatch returns an in-progress match with hits, misses, a sunk ship and
// a timeout on record.
func playedMatch(t *testing.T, p2 uuid.UUID) *domain.Match {
	t.Helper()
	p1 := uuid.New()
	m := domain.NewMatch(uuid.New(), p1, p2, domain.ModeDynamic, domain.DifficultyAdvanced, testNow)
	place(t, m.Player1Board, "Cruiser", 1, 1, 3, domain.Vertical)
	place(t, m.Player1Board, "Submarine", 7, 7, 1, domain.Horizontal)
	place(t, m.Player2Board, "Battleship", 2, 5, 4, domain.Horizontal)
	place(t, m.Player2Board, "Submarine", 9, 0, 1, domain.Horizontal)
	if err := m.SetPlayerReady(p1, testNow, nil); err != nil {
		t.Fatalf("SetPlayerReady() error = %v", err)
	}
	if err := m.SetPlayerReady(p2, testNow, nil); err != nil {
		t.Fatalf("SetPlayerReady() error = %v", err)
	}
	m.CurrentTurnPlayerID = p1

	at := testNow
	step := func() time.Time { at = at.Add(2 * time.Second); return at }
	mustShoot := func(p uuid.UUID, x, y int) {
		if _, err := m.Shoot(p, x, y, step()); err != nil {
			t.Fatalf("Shoot(%d,%d) error = %v", x, y, err)
		}
	}
	mustShoot(p1, 9, 0) // sinks the submarine
	mustShoot(p1, 3, 5)
	mustShoot(p1, 0, 0) // miss
	mustShoot(p2, 1, 2)
	mustShoot(p2, 5, 5) // miss
	m.ApplyTimeoutIfExpired(at.Add(domain.TurnTimeLimit + time.Second))
	return m
}

func assertSameMatch(t *testing.T, got, want *domain.Match) {
	t.Helper()
	if got.ID != want.ID || got.Player1ID != want.Player1ID || got.Player2ID != want.Player2ID {
		t.Fatalf("identity = %s/%s/%s, want %s/%s/%s", got.ID, got.Player1ID, got.Player2ID, want.ID, want.Player1ID, want.Player2ID)
	}
	if got.Mode != want.Mode || got.AIDifficulty != want.AIDifficulty || got.Status != want.Status {
		t.Fatalf("config = %s/%s/%s, want %s/%s/%s", got.Mode, got.AIDifficulty, got.Status, want.Mode, want.AIDifficulty, want.Status)
	}
	if got.CurrentTurnPlayerID != want.CurrentTurnPlayerID || got.TurnNumber != want.TurnNumber || got.HasMovedThisTurn != want.HasMovedThisTurn {
		t.Fatalf("turn = %s/%d/%v, want %s/%d/%v", got.CurrentTurnPlayerID, got.TurnNumber, got.HasMovedThisTurn,
			want.CurrentTurnPlayerID, want.TurnNumber, want.HasMovedThisTurn)
	}
	if got.WinnerID != want.WinnerID || got.Player1Ready != want.Player1Ready || got.Player2Ready != want.Player2Ready {
		t.Fatalf("winner/ready mismatch: got %v %v %v", got.WinnerID, got.Player1Ready, got.Player2Ready)
	}
	if got.Settled != want.Settled {
		t.Fatalf("settled = %v, want %v", got.Settled, want.Settled)
	}
	if got.Player1Stats != want.Player1Stats || got.Player2Stats != want.Player2Stats {
		t.Fatalf("stats = %+v %+v, want %+v %+v", got.Player1Stats, got.Player2Stats, want.Player1Stats, want.Player2Stats)
	}
	for _, ts := range []struct {
		name      string
		got, want time.Time
	}{
		{"created", got.CreatedAt, want.CreatedAt},
		{"started", got.StartedAt, want.StartedAt},
		{"last move", got.LastMoveAt, want.LastMoveAt},
		{"finished", got.FinishedAt, want.FinishedAt},
	} {
		if !ts.got.Equal(ts.want) {
			t.Fatalf("%s = %v, want %v", ts.name, ts.got, ts.want)
		}
	}
	assertSameBoard(t, got.Player1Board, want.Player1Board)
	assertSameBoard(t, got.Player2Board, want.Player2Board)
}

func assertSameBoard(t *testing.T, got, want *domain.Board) {
	t.Helper()
	for x := 0; x < domain.BoardSize; x++ {
		for y := 0; y < domain.BoardSize; y++ {
			if g, w := got.Cell(x, y), want.Cell(x, y); g != w {
				t.Fatalf("cell (%d, %d) = %v, want %v", x, y, g, w)
			}
		}
	}
	gs, ws := got.Ships(), want.Ships()
	if len(gs) != len(ws) {
		t.Fatalf("ships = %d, want %d", len(gs), len(ws))
	}
	for i := range ws {
		if gs[i].ID != ws[i].ID || gs[i].Name != ws[i].Name || gs[i].Orientation != ws[i].Orientation || gs[i].IsSunk() != ws[i].IsSunk() {
			t.Fatalf("ship %d = %+v, want %+v", i, gs[i], ws[i])
		}
		for j := range ws[i].Coordinates {
			if gs[i].Coordinates[j] != ws[i].Coordinates[j] {
				t.Fatalf("ship %d segment %d = %v, want %v", i, j, gs[i].Coordinates[j], ws[i].Coordinates[j])
			}
		}
	}
	gShots, wShots := got.Shots(), want.Shots()
	if len(gShots) != len(wShots) {
		t.Fatalf("shots = %d, want %d", len(gShots), len(wShots))
	}
	for i := range wShots {
		if gShots[i] != wShots[i] {
			t.Fatalf("shot %d = %+v, want %+v", i, gShots[i], wShots[i])
		}
	}
}
