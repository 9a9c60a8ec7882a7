package room

import "errors"

// Error taxonomy for room membership and lifecycle operations.
var (
	ErrRoomNotFound      = errors.New("room: not found")
	ErrRoomFull          = errors.New("room: full")
	ErrAlreadyJoined     = errors.New("room: player already joined")
	ErrGameNotReady      = errors.New("room: not enough players to start")
	ErrRestartNotAllowed = errors.New("room: restart not allowed")
)
