package server

import (
	"github.com/google/uuid"

	"naval-combat/internal/api"
	"naval-combat/internal/domain"
	"naval-combat/internal/service"
)

func winnerString(w uuid.NullUUID) string {
	if !w.Valid {
		return ""
	}
	return w.UUID.String()
}

func toShot(r domain.ShotResult) api.Shot {
	return api.Shot{X: r.X, Y: r.Y, Hit: r.Hit, Sunk: r.Sunk, ShipName: r.ShipName}
}

func toCoordinates(coords []domain.Coordinate) []api.Coordinate {
	out := make([]api.Coordinate, len(coords))
	for i, c := range coords {
		out[i] = api.Coordinate{X: c.X, Y: c.Y, Hit: c.Hit}
	}
	return out
}

func toTurnResponse(r *service.TurnResult) *api.TurnResponse {
	out := &api.TurnResponse{
		GameOver:            r.GameOver,
		Terminated:          r.Terminated,
		WinnerID:            winnerString(r.WinnerID),
		CurrentTurnPlayerID: r.CurrentTurnPlayerID.String(),
		TurnNumber:          r.TurnNumber,
	}
	if r.Shot != nil {
		shot := toShot(*r.Shot)
		out.Shot = &shot
	}
	if r.Moved != nil {
		out.Moved = toCoordinates(r.Moved)
	}
	for _, s := range r.AIShots {
		out.AIShots = append(out.AIShots, toShot(s))
	}
	return out
}

func toBoard(v service.BoardView) api.Board {
	b := api.Board{
		Grid:  make([][]string, domain.BoardSize),
		Ships: make([]api.Ship, 0, len(v.Ships)),
	}
	for y, row := range v.Grid {
		b.Grid[y] = make([]string, domain.BoardSize)
		for x, c := range row {
			b.Grid[y][x] = c.String()
		}
	}
	for _, s := range v.Ships {
		b.Ships = append(b.Ships, api.Ship{
			ID:          s.ID.String(),
			Name:        s.Name,
			Size:        s.Size,
			Orientation: string(s.Orientation),
			Sunk:        s.Sunk,
			Coordinates: toCoordinates(s.Coordinates),
		})
	}
	return b
}

func toMatchState(v *service.MatchView) *api.MatchState {
	out := &api.MatchState{
		MatchID:             v.MatchID.String(),
		Mode:                string(v.Mode),
		AIDifficulty:        string(v.AIDifficulty),
		Status:              string(v.Status),
		OpponentID:          v.OpponentID.String(),
		VsAI:                v.OpponentID == domain.AIPlayerID,
		CurrentTurnPlayerID: v.CurrentTurnPlayerID.String(),
		IsMyTurn:            v.IsMyTurn,
		HasMovedThisTurn:    v.HasMovedThisTurn,
		TurnNumber:          v.TurnNumber,
		WinnerID:            winnerString(v.WinnerID),
		MyBoard:             toBoard(v.MyBoard),
		OpponentBoard:       toBoard(v.OpponentBoard),
		Stats: api.MatchStats{
			MyHits:         v.Stats.MyHits,
			MyMisses:       v.Stats.MyMisses,
			MyStreak:       v.Stats.MyStreak,
			MyTimeouts:     v.Stats.MyTimeouts,
			OpponentHits:   v.Stats.OpponentHits,
			OpponentMisses: v.Stats.OpponentMisses,
			OpponentStreak: v.Stats.OpponentStreak,
		},
	}
	if !v.TurnDeadline.IsZero() {
		deadline := v.TurnDeadline
		out.TurnDeadline = &deadline
	}
	return out
}

func toProfile(p *domain.PlayerProfile) api.Profile {
	medals := p.EarnedMedalCodes
	if medals == nil {
		medals = []string{}
	}
	return api.Profile{
		UserID:        p.UserID.String(),
		RankPoints:    p.RankPoints,
		Wins:          p.Wins,
		Losses:        p.Losses,
		WinRate:       p.WinRate(),
		CurrentStreak: p.CurrentStreak,
		MaxStreak:     p.MaxStreak,
		Medals:        medals,
	}
}
