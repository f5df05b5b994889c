package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"naval-combat/internal/domain"
)

// MatchRepository is the durable store for matches and the source of truth
// for history. Boards are stored as JSON with the full 10x10 grid.
type MatchRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewMatchRepository(sqlDB *sql.DB, logger zerolog.Logger) *MatchRepository {
	return &MatchRepository{
		db:     sqlDB,
		logger: logger,
	}
}

type storedShip struct {
	ID          uuid.UUID           `json:"id"`
	Name        string              `json:"name"`
	Size        int                 `json:"size"`
	Orientation domain.Orientation  `json:"orientation"`
	Coordinates []domain.Coordinate `json:"coordinates"`
}

type storedBoard struct {
	Grid  [domain.BoardSize][domain.BoardSize]domain.CellState `json:"grid"` // [x][y]
	Ships []storedShip                                         `json:"ships"`
	Shots []domain.Shot                                        `json:"shots"`
}

func encodeBoard(b *domain.Board) (string, error) {
	state := b.State()
	sb := storedBoard{Ships: make([]storedShip, len(state.Ships)), Shots: state.Shots}
	for x := 0; x < domain.BoardSize; x++ {
		for y := 0; y < domain.BoardSize; y++ {
			sb.Grid[x][y] = b.Cell(x, y)
		}
	}
	for i, s := range state.Ships {
		sb.Ships[i] = storedShip{ID: s.ID, Name: s.Name, Size: s.Size, Orientation: s.Orientation, Coordinates: s.Coordinates}
	}
	raw, err := json.Marshal(sb)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeBoard(raw string) (*domain.Board, error) {
	var sb storedBoard
	if err := json.Unmarshal([]byte(raw), &sb); err != nil {
		return nil, err
	}
	state := domain.BoardState{Shots: sb.Shots}
	for _, s := range sb.Ships {
		state.Ships = append(state.Ships, domain.Ship{ID: s.ID, Name: s.Name, Size: s.Size, Orientation: s.Orientation, Coordinates: s.Coordinates})
	}
	for x := 0; x < domain.BoardSize; x++ {
		for y := 0; y < domain.BoardSize; y++ {
			if c := sb.Grid[x][y]; c.Targeted() {
				state.Marks = append(state.Marks, domain.Shot{X: x, Y: y, Hit: c == domain.CellHit})
			}
		}
	}
	return domain.RestoreBoard(state)
}

const matchColumns = `id, player1_id, player2_id, mode, ai_difficulty, status, current_turn_player_id,
	winner_id, turn_number, has_moved_this_turn, player1_ready, player2_ready,
	player1_hits, player1_misses, player1_streak, player1_timeouts,
	player2_hits, player2_misses, player2_streak, player2_timeouts,
	player1_board, player2_board, created_at, started_at, last_move_at, finished_at, settled`

// GetByID returns nil without an error when the match does not exist.
func (r *MatchRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Match, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = ?`, id)

	var (
		m                     domain.Match
		player2               uuid.NullUUID
		difficulty            sql.NullString
		board1, board2        string
		started, last, finish sql.NullTime
	)
	err := row.Scan(
		&m.ID, &m.Player1ID, &player2, &m.Mode, &difficulty, &m.Status, &m.CurrentTurnPlayerID,
		&m.WinnerID, &m.TurnNumber, &m.HasMovedThisTurn, &m.Player1Ready, &m.Player2Ready,
		&m.Player1Stats.Hits, &m.Player1Stats.Misses, &m.Player1Stats.Streak, &m.Player1Stats.ConsecutiveTimeouts,
		&m.Player2Stats.Hits, &m.Player2Stats.Misses, &m.Player2Stats.Streak, &m.Player2Stats.ConsecutiveTimeouts,
		&board1, &board2, &m.CreatedAt, &started, &last, &finish, &m.Settled,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load match: %w", err)
	}

	if player2.Valid {
		m.Player2ID = player2.UUID
	} else {
		m.Player2ID = domain.AIPlayerID
	}
	m.AIDifficulty = domain.Difficulty(difficulty.String)
	m.CreatedAt = m.CreatedAt.UTC()
	m.StartedAt = fromNullTime(started)
	m.LastMoveAt = fromNullTime(last)
	m.FinishedAt = fromNullTime(finish)

	if m.Player1Board, err = decodeBoard(board1); err != nil {
		return nil, fmt.Errorf("failed to decode player1 board of match %s: %w", id, err)
	}
	if m.Player2Board, err = decodeBoard(board2); err != nil {
		return nil, fmt.Errorf("failed to decode player2 board of match %s: %w", id, err)
	}
	return &m, nil
}

// Save inserts the match or overwrites every column of an existing row.
func (r *MatchRepository) Save(ctx context.Context, m *domain.Match) error {
	board1, err := encodeBoard(m.Player1Board)
	if err != nil {
		return fmt.Errorf("failed to encode player1 board: %w", err)
	}
	board2, err := encodeBoard(m.Player2Board)
	if err != nil {
		return fmt.Errorf("failed to encode player2 board: %w", err)
	}

	var player2 uuid.NullUUID
	if !m.IsAIMatch() {
		player2 = uuid.NullUUID{UUID: m.Player2ID, Valid: true}
	}
	var difficulty sql.NullString
	if m.AIDifficulty != "" {
		difficulty = sql.NullString{String: string(m.AIDifficulty), Valid: true}
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO matches (`+matchColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			player1_id = excluded.player1_id,
			player2_id = excluded.player2_id,
			mode = excluded.mode,
			ai_difficulty = excluded.ai_difficulty,
			status = excluded.status,
			current_turn_player_id = excluded.current_turn_player_id,
			winner_id = excluded.winner_id,
			turn_number = excluded.turn_number,
			has_moved_this_turn = excluded.has_moved_this_turn,
			player1_ready = excluded.player1_ready,
			player2_ready = excluded.player2_ready,
			player1_hits = excluded.player1_hits,
			player1_misses = excluded.player1_misses,
			player1_streak = excluded.player1_streak,
			player1_timeouts = excluded.player1_timeouts,
			player2_hits = excluded.player2_hits,
			player2_misses = excluded.player2_misses,
			player2_streak = excluded.player2_streak,
			player2_timeouts = excluded.player2_timeouts,
			player1_board = excluded.player1_board,
			player2_board = excluded.player2_board,
			created_at = excluded.created_at,
			started_at = excluded.started_at,
			last_move_at = excluded.last_move_at,
			finished_at = excluded.finished_at,
			settled = excluded.settled`,
		m.ID, m.Player1ID, player2, string(m.Mode), difficulty, string(m.Status), m.CurrentTurnPlayerID,
		m.WinnerID, m.TurnNumber, m.HasMovedThisTurn, m.Player1Ready, m.Player2Ready,
		m.Player1Stats.Hits, m.Player1Stats.Misses, m.Player1Stats.Streak, m.Player1Stats.ConsecutiveTimeouts,
		m.Player2Stats.Hits, m.Player2Stats.Misses, m.Player2Stats.Streak, m.Player2Stats.ConsecutiveTimeouts,
		board1, board2, m.CreatedAt.UTC(), toNullTime(m.StartedAt), toNullTime(m.LastMoveAt), toNullTime(m.FinishedAt), m.Settled,
	)
	if err != nil {
		return fmt.Errorf("failed to save match: %w", err)
	}

	r.logger.Debug().Str("match_id", m.ID.String()).Str("status", string(m.Status)).Msg("match saved")
	return nil
}

func (r *MatchRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM matches WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete match: %w", err)
	}
	return nil
}

// GetActiveMatchID returns the id of an unfinished match the player is in.
func (r *MatchRepository) GetActiveMatchID(ctx context.Context, playerID uuid.UUID) (uuid.UUID, bool, error) {
	var id uuid.UUID
	err := r.db.QueryRowContext(ctx, `
		SELECT id FROM matches
		WHERE status != ? AND (player1_id = ? OR player2_id = ?)
		ORDER BY created_at DESC
		LIMIT 1`,
		string(domain.StatusFinished), playerID, playerID,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to find active match: %w", err)
	}
	return id, true, nil
}

// ListActiveAIMatchIDs returns in-progress matches played against the AI.
func (r *MatchRepository) ListActiveAIMatchIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id FROM matches
		WHERE status = ? AND player2_id IS NULL`,
		string(domain.StatusInProgress),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list active ai matches: %w", err)
	}
	defer rows.Close()

	return scanIDs(rows)
}

// ListUnsettledMatchIDs returns finished matches whose result has not reached
// the player profiles yet.
func (r *MatchRepository) ListUnsettledMatchIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id FROM matches
		WHERE status = ? AND settled = 0
		ORDER BY finished_at`,
		string(domain.StatusFinished),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list unsettled matches: %w", err)
	}
	defer rows.Close()

	return scanIDs(rows)
}

func scanIDs(rows *sql.Rows) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan match id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func toNullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func fromNullTime(t sql.NullTime) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time.UTC()
}
