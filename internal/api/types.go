package api

import "time"

// ServicePath is the mount point of the match procedures.
const ServicePath = "/naval.v1.MatchService/"

const (
	ProcedureStartMatch    = ServicePath + "StartMatch"
	ProcedureSetupFleet    = ServicePath + "SetupFleet"
	ProcedureShoot         = ServicePath + "Shoot"
	ProcedureMoveShip      = ServicePath + "MoveShip"
	ProcedureCancelMatch   = ServicePath + "CancelMatch"
	ProcedureGetMatchState = ServicePath + "GetMatchState"
	ProcedureGetRanking    = ServicePath + "GetRanking"
	ProcedureGetProfile    = ServicePath + "GetProfile"
)

type StartMatchRequest struct {
	Mode         string `json:"mode"`
	AIDifficulty string `json:"aiDifficulty,omitempty"`
	OpponentID   string `json:"opponentId,omitempty"`
}

type StartMatchResponse struct {
	MatchID string `json:"matchId"`
}

type ShipPlacement struct {
	Name        string `json:"name"`
	Size        int    `json:"size"`
	StartX      int    `json:"startX"`
	StartY      int    `json:"startY"`
	Orientation string `json:"orientation"`
}

type SetupFleetRequest struct {
	MatchID string          `json:"matchId"`
	Ships   []ShipPlacement `json:"ships"`
}

type SetupFleetResponse struct {
	Status string `json:"status"`
}

type ShootRequest struct {
	MatchID string `json:"matchId"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
}

type MoveShipRequest struct {
	MatchID   string `json:"matchId"`
	ShipID    string `json:"shipId"`
	Direction string `json:"direction"`
}

type MatchRequest struct {
	MatchID string `json:"matchId"`
}

type Empty struct{}

type Coordinate struct {
	X   int  `json:"x"`
	Y   int  `json:"y"`
	Hit bool `json:"hit,omitempty"`
}

type Shot struct {
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Hit      bool   `json:"hit"`
	Sunk     bool   `json:"sunk,omitempty"`
	ShipName string `json:"shipName,omitempty"`
}

// TurnResponse answers both Shoot and MoveShip.
type TurnResponse struct {
	Shot                *Shot        `json:"shot,omitempty"`
	Moved               []Coordinate `json:"moved,omitempty"`
	AIShots             []Shot       `json:"aiShots,omitempty"`
	GameOver            bool         `json:"gameOver"`
	Terminated          bool         `json:"terminated,omitempty"`
	WinnerID            string       `json:"winnerId,omitempty"`
	CurrentTurnPlayerID string       `json:"currentTurnPlayerId"`
	TurnNumber          int          `json:"turnNumber"`
}

type Ship struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Size        int          `json:"size"`
	Orientation string       `json:"orientation"`
	Sunk        bool         `json:"sunk"`
	Coordinates []Coordinate `json:"coordinates"`
}

// Board rows are indexed by y, columns by x.
type Board struct {
	Grid  [][]string `json:"grid"`
	Ships []Ship     `json:"ships"`
}

type MatchStats struct {
	MyHits         int `json:"myHits"`
	MyMisses       int `json:"myMisses"`
	MyStreak       int `json:"myStreak"`
	MyTimeouts     int `json:"myTimeouts"`
	OpponentHits   int `json:"opponentHits"`
	OpponentMisses int `json:"opponentMisses"`
	OpponentStreak int `json:"opponentStreak"`
}

type MatchState struct {
	MatchID             string     `json:"matchId"`
	Mode                string     `json:"mode"`
	AIDifficulty        string     `json:"aiDifficulty,omitempty"`
	Status              string     `json:"status"`
	OpponentID          string     `json:"opponentId"`
	VsAI                bool       `json:"vsAi"`
	CurrentTurnPlayerID string     `json:"currentTurnPlayerId"`
	IsMyTurn            bool       `json:"isMyTurn"`
	HasMovedThisTurn    bool       `json:"hasMovedThisTurn"`
	TurnNumber          int        `json:"turnNumber"`
	TurnDeadline        *time.Time `json:"turnDeadline,omitempty"`
	WinnerID            string     `json:"winnerId,omitempty"`
	MyBoard             Board      `json:"myBoard"`
	OpponentBoard       Board      `json:"opponentBoard"`
	Stats               MatchStats `json:"stats"`
}

type RankingRequest struct {
	Limit int `json:"limit,omitempty"`
}

type Profile struct {
	UserID        string   `json:"userId"`
	RankPoints    int      `json:"rankPoints"`
	Wins          int      `json:"wins"`
	Losses        int      `json:"losses"`
	WinRate       float64  `json:"winRate"`
	CurrentStreak int      `json:"currentStreak"`
	MaxStreak     int      `json:"maxStreak"`
	Medals        []string `json:"medals"`
}

type RankingResponse struct {
	Players []Profile `json:"players"`
}
