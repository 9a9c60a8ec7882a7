package game

import "errors"

// Error taxonomy for the game state machine.
var (
	ErrNotYourTurn      = errors.New("game: not your turn")
	ErrCardsNotOwned    = errors.New("game: cards not owned")
	ErrInvalidPlay      = errors.New("game: invalid play")
	ErrMustBeatPrevious = errors.New("game: play must beat the previous play")
	ErrGameOver         = errors.New("game: game is over")
	ErrCannotPass       = errors.New("game: cannot pass")
)
