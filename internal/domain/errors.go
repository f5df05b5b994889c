package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error categories. Every error produced by the engine matches exactly one of
// these through errors.Is.
var (
	ErrValidation            = errors.New("validation failed")
	ErrTurnViolation         = errors.New("turn violation")
	ErrTurnTimeout           = errors.New("turn timed out")
	ErrNotFound              = errors.New("resource not found")
	ErrConflict              = errors.New("conflict")
	ErrInactivityTermination = errors.New("match ended by inactivity")
)

var (
	ErrAlreadyTargeted = fmt.Errorf("cell already targeted: %w", ErrValidation)
	ErrDamagedShip     = fmt.Errorf("damaged ship cannot move: %w", ErrValidation)
	ErrAxisViolation   = fmt.Errorf("ship can only move along its own axis: %w", ErrValidation)
	ErrInvalidShip     = fmt.Errorf("invalid ship: %w", ErrValidation)

	ErrNotYourTurn    = fmt.Errorf("not your turn: %w", ErrTurnViolation)
	ErrNotInProgress  = fmt.Errorf("match not in progress: %w", ErrTurnViolation)
	ErrNotInSetup     = fmt.Errorf("match not in setup: %w", ErrTurnViolation)
	ErrMatchFinished  = fmt.Errorf("match already finished: %w", ErrTurnViolation)
	ErrAlreadyMoved   = fmt.Errorf("ship already moved this turn: %w", ErrTurnViolation)
	ErrMoveNotAllowed = fmt.Errorf("ship movement requires dynamic mode: %w", ErrTurnViolation)

	ErrMatchNotFound  = fmt.Errorf("match not found: %w", ErrNotFound)
	ErrShipNotFound   = fmt.Errorf("ship not found: %w", ErrNotFound)
	ErrNotParticipant = fmt.Errorf("player is not part of this match: %w", ErrNotFound)
)

type PlacementReason string

const (
	ReasonOutOfBounds  PlacementReason = "out_of_bounds"
	ReasonCollision    PlacementReason = "collision"
	ReasonFiredUpon    PlacementReason = "fired_upon"
	ReasonSizeMismatch PlacementReason = "size_mismatch"
)

// PlacementError rejects a ship placement or move at a specific cell.
type PlacementError struct {
	Reason PlacementReason
	X, Y   int
}

func (e *PlacementError) Error() string {
	return fmt.Sprintf("illegal placement at (%d, %d): %s", e.X, e.Y, e.Reason)
}

func (e *PlacementError) Unwrap() error { return ErrValidation }

// TurnTimeoutError is returned to the request that observed an expired turn.
// The turn has already been charged and switched when it is returned.
type TurnTimeoutError struct {
	PlayerID    uuid.UUID
	Consecutive int
	Terminated  bool
}

func (e *TurnTimeoutError) Error() string {
	if e.Terminated {
		return fmt.Sprintf("turn timed out for %s: match ended after %d consecutive timeouts", e.PlayerID, e.Consecutive)
	}
	return fmt.Sprintf("turn timed out for %s (%d consecutive)", e.PlayerID, e.Consecutive)
}

func (e *TurnTimeoutError) Is(target error) bool {
	if target == ErrTurnTimeout {
		return true
	}
	return e.Terminated && target == ErrInactivityTermination
}

// ActiveMatchError reports that a player already has an unfinished match.
type ActiveMatchError struct {
	PlayerID uuid.UUID
	MatchID  uuid.UUID
}

func (e *ActiveMatchError) Error() string {
	return fmt.Sprintf("player %s already has active match %s", e.PlayerID, e.MatchID)
}

func (e *ActiveMatchError) Unwrap() error { return ErrConflict }
