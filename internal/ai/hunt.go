package ai

import (
	"math/rand"

	"naval-combat/internal/domain"
)

// Intermediate hunts at random and, once it has a live hit, fires at the
// open neighbours of that hit until the ship sinks.
type Intermediate struct {
	rng *rand.Rand
}

func (s *Intermediate) Name() domain.Difficulty { return domain.DifficultyIntermediate }

func (s *Intermediate) ChooseTarget(board Target) (domain.Coordinate, error) {
	if cells := neighbours(board, liveHits(board)); len(cells) > 0 {
		return pick(s.rng, cells), nil
	}
	return (&Basic{rng: s.rng}).ChooseTarget(board)
}

func neighbours(board Target, hits []domain.Coordinate) []domain.Coordinate {
	seen := make(map[domain.Coordinate]bool)
	var out []domain.Coordinate
	for _, h := range hits {
		for _, d := range steps {
			c := domain.Coordinate{X: h.X + d[0], Y: h.Y + d[1]}
			if open(board, c.X, c.Y) && !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}

// Advanced follows the line formed by two or more adjacent live hits, falls
// back to their neighbours, and hunts on a checkerboard pattern otherwise.
// The smallest ship is a single cell, so the pattern only narrows the search
// and the remaining cells are still tried last.
type Advanced struct {
	rng *rand.Rand
}

func (s *Advanced) Name() domain.Difficulty { return domain.DifficultyAdvanced }

func (s *Advanced) ChooseTarget(board Target) (domain.Coordinate, error) {
	hits := liveHits(board)
	if cells := lineEnds(board, hits); len(cells) > 0 {
		return pick(s.rng, cells), nil
	}
	if cells := neighbours(board, hits); len(cells) > 0 {
		return pick(s.rng, cells), nil
	}

	var parity []domain.Coordinate
	for _, c := range untargeted(board) {
		if (c.X+c.Y)%2 == 0 {
			parity = append(parity, c)
		}
	}
	if len(parity) > 0 {
		return pick(s.rng, parity), nil
	}
	return (&Basic{rng: s.rng}).ChooseTarget(board)
}

// lineEnds finds runs of live hits and returns the open cells just past
// either end of each run.
func lineEnds(board Target, hits []domain.Coordinate) []domain.Coordinate {
	live := make(map[domain.Coordinate]bool, len(hits))
	for _, h := range hits {
		live[h] = true
	}

	seen := make(map[domain.Coordinate]bool)
	var out []domain.Coordinate
	add := func(c domain.Coordinate) {
		if open(board, c.X, c.Y) && !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	for _, h := range hits {
		for _, d := range [2][2]int{{1, 0}, {0, 1}} {
			next := domain.Coordinate{X: h.X + d[0], Y: h.Y + d[1]}
			if !live[next] {
				continue
			}
			start := h
			for live[domain.Coordinate{X: start.X - d[0], Y: start.Y - d[1]}] {
				start = domain.Coordinate{X: start.X - d[0], Y: start.Y - d[1]}
			}
			end := next
			for live[domain.Coordinate{X: end.X + d[0], Y: end.Y + d[1]}] {
				end = domain.Coordinate{X: end.X + d[0], Y: end.Y + d[1]}
			}
			add(domain.Coordinate{X: start.X - d[0], Y: start.Y - d[1]})
			add(domain.Coordinate{X: end.X + d[0], Y: end.Y + d[1]})
		}
	}
	return out
}
