package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

const MedalAdmiral = "ADMIRAL"

type PlayerProfile struct {
	UserID           uuid.UUID
	RankPoints       int
	Wins             int
	Losses           int
	CurrentStreak    int
	MaxStreak        int
	EarnedMedalCodes []string
	UpdatedAt        time.Time
}

func (p *PlayerProfile) WinRate() float64 {
	total := p.Wins + p.Losses
	if total == 0 {
		return 0
	}
	return float64(p.Wins) / float64(total)
}

func (p *PlayerProfile) AddWin(points int, now time.Time) {
	p.Wins++
	p.CurrentStreak++
	if p.CurrentStreak > p.MaxStreak {
		p.MaxStreak = p.CurrentStreak
	}
	p.RankPoints += points
	p.UpdatedAt = now
}

// AddLoss records a defeat. Points are still awarded for hits landed.
func (p *PlayerProfile) AddLoss(points int, now time.Time) {
	p.Losses++
	p.CurrentStreak = 0
	p.RankPoints += points
	p.UpdatedAt = now
}

// AwardMedal adds code once and reports whether it was new.
func (p *PlayerProfile) AwardMedal(code string) bool {
	if slices.Contains(p.EarnedMedalCodes, code) {
		return false
	}
	p.EarnedMedalCodes = append(p.EarnedMedalCodes, code)
	return true
}
