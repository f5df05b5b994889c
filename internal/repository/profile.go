package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"naval-combat/internal/domain"
)

type ProfileRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewProfileRepository(sqlDB *sql.DB, logger zerolog.Logger) *ProfileRepository {
	return &ProfileRepository{
		db:     sqlDB,
		logger: logger,
	}
}

// GetOrCreate returns the player's profile, creating an empty one on first use.
func (r *ProfileRepository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*domain.PlayerProfile, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO player_profiles (user_id, updated_at) VALUES (?, ?)
		ON CONFLICT(user_id) DO NOTHING`,
		userID, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	p := &domain.PlayerProfile{UserID: userID}
	err = r.db.QueryRowContext(ctx, `
		SELECT rank_points, wins, losses, current_streak, max_streak, updated_at
		FROM player_profiles WHERE user_id = ?`, userID,
	).Scan(&p.RankPoints, &p.Wins, &p.Losses, &p.CurrentStreak, &p.MaxStreak, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile %s: %w", userID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	if p.EarnedMedalCodes, err = r.medals(ctx, userID); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *ProfileRepository) medals(ctx context.Context, userID uuid.UUID) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT medal_code FROM player_medals WHERE user_id = ? ORDER BY earned_at, medal_code`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load medals: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan medal: %w", err)
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

// Upsert writes the profile and any medal it does not hold yet in one
// transaction.
func (r *ProfileRepository) Upsert(ctx context.Context, p *domain.PlayerProfile) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	updatedAt := p.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO player_profiles (user_id, rank_points, wins, losses, current_streak, max_streak, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			rank_points = excluded.rank_points,
			wins = excluded.wins,
			losses = excluded.losses,
			current_streak = excluded.current_streak,
			max_streak = excluded.max_streak,
			updated_at = excluded.updated_at`,
		p.UserID, p.RankPoints, p.Wins, p.Losses, p.CurrentStreak, p.MaxStreak, updatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}

	for _, code := range p.EarnedMedalCodes {
		id, err := gonanoid.New()
		if err != nil {
			return fmt.Errorf("failed to generate nanoid: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO player_medals (id, user_id, medal_code, earned_at) VALUES (?, ?, ?, ?)
			ON CONFLICT(user_id, medal_code) DO NOTHING`,
			id, p.UserID, code, updatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to award medal %s: %w", code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit profile: %w", err)
	}

	r.logger.Debug().
		Str("user_id", p.UserID.String()).
		Int("rank_points", p.RankPoints).
		Int("wins", p.Wins).
		Int("losses", p.Losses).
		Msg("profile saved")
	return nil
}

// ListTop returns the best profiles by rank points, wins breaking ties.
func (r *ProfileRepository) ListTop(ctx context.Context, limit int) ([]domain.PlayerProfile, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, rank_points, wins, losses, current_streak, max_streak, updated_at
		FROM player_profiles
		ORDER BY rank_points DESC, wins DESC, user_id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list ranking: %w", err)
	}

	var out []domain.PlayerProfile
	for rows.Next() {
		var p domain.PlayerProfile
		if err := rows.Scan(&p.UserID, &p.RankPoints, &p.Wins, &p.Losses, &p.CurrentStreak, &p.MaxStreak, &p.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to list ranking: %w", err)
	}
	rows.Close()

	for i := range out {
		if out[i].EarnedMedalCodes, err = r.medals(ctx, out[i].UserID); err != nil {
			return nil, err
		}
	}
	return out, nil
}
