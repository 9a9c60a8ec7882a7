package room

import (
	"github.com/lox/doudizhu/game"
	"github.com/lox/doudizhu/protocol"
)

// Conn is the capability a room holds for a seated player: a non-blocking,
// fire-and-forget outbound message sink. It is never used to look back at
// connection internals.
type Conn interface {
	Send(msg *protocol.Message)
}

// Member is one seated player: identity plus the capability to reach them.
type Member struct {
	UserID      uint64
	DisplayName string
	Conn        Conn
}

// Room is a set of up to three seated players and an optional running game.
type Room struct {
	ID      string
	Members []Member
	Game    *game.State
}

func (r *Room) seatOf(userID uint64) (game.Seat, bool) {
	for i, m := range r.Members {
		if m.UserID == userID {
			return game.Seat(i), true
		}
	}
	return 0, false
}

func (r *Room) memberIndex(userID uint64) int {
	for i, m := range r.Members {
		if m.UserID == userID {
			return i
		}
	}
	return -1
}

func (r *Room) userIDForSeat(seat game.Seat) (uint64, bool) {
	if int(seat) < 0 || int(seat) >= len(r.Members) {
		return 0, false
	}
	return r.Members[seat].UserID, true
}

// Started reports whether the room currently has a running game.
func (r *Room) Started() bool {
	return r.Game != nil
}

// SeatView describes one seat in a snapshot, viewer-independent.
type SeatView struct {
	UserID      uint64
	DisplayName string
	HandSize    int
	IsLandlord  bool
	Out         bool
}

// LastPlayView mirrors the currently standing play in a snapshot.
type LastPlayView struct {
	PlayerID uint64
	Kind     string
	MainRank string
	Size     int
}

// Snapshot is one viewer's redacted projection of a room.
type Snapshot struct {
	RoomID   string
	Seats    []SeatView
	Turn     uint64
	LastPlay *LastPlayView
	YourHand []string
}

// snapshotFor builds the redacted view of r for viewerUserID. Caller must
// hold the manager lock.
func snapshotFor(r *Room, viewerUserID uint64) *Snapshot {
	if r.Game == nil {
		return nil
	}

	snap := &Snapshot{RoomID: r.ID}
	for seat, p := range r.Game.Players {
		snap.Seats = append(snap.Seats, SeatView{
			UserID:      p.UserID,
			DisplayName: r.Members[seat].DisplayName,
			HandSize:    len(p.Hand),
			IsLandlord:  game.Seat(seat) == r.Game.Landlord,
			Out:         p.Out,
		})
	}

	if turnUserID, ok := r.userIDForSeat(r.Game.Turn); ok {
		snap.Turn = turnUserID
	}

	if r.Game.Last != nil {
		if lastUserID, ok := r.userIDForSeat(r.Game.Last.Seat); ok {
			snap.LastPlay = &LastPlayView{
				PlayerID: lastUserID,
				Kind:     r.Game.Last.Play.Kind.String(),
				MainRank: r.Game.Last.Play.MainRank.String(),
				Size:     r.Game.Last.Play.Size,
			}
		}
	}

	if seat, ok := r.seatOf(viewerUserID); ok {
		hand := r.Game.Players[seat].Hand
		snap.YourHand = make([]string, len(hand))
		for i, c := range hand {
			snap.YourHand[i] = c.Code()
		}
	} else {
		snap.YourHand = []string{}
	}

	return snap
}

// Summary is one row of a lobby listing.
type Summary struct {
	RoomID      string
	PlayerCount int
	Started     bool
	CanJoin     bool
}
