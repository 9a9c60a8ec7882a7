// Package room implements the concurrent room manager: membership, seating,
// game lifecycle, and per-viewer snapshot projection for up to three-player
// Dou Dizhu games.
package room

import (
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/lox/doudizhu/cards"
	"github.com/lox/doudizhu/game"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const roomIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const roomIDLength = 6
const maxMembers = 3

// Manager owns every live room behind a single exclusive lock. All
// mutating operations and all snapshot reads are taken under that lock; a
// broadcast fan-out snapshots each recipient under the lock, then releases
// it before handing frames to the transport.
type Manager struct {
	logger zerolog.Logger

	mu    sync.Mutex
	rooms map[string]*Room
	rng   *rand.Rand
}

// NewManager constructs an empty manager, seeding its room-id generator from
// seed so room codes are reproducible in tests.
func NewManager(logger zerolog.Logger, seed int64) *Manager {
	return &Manager{
		logger: logger.With().Str("component", "room_manager").Logger(),
		rooms:  make(map[string]*Room),
		rng:    rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1|1)),
	}
}

// CreateRoom allocates a new empty room with a fresh id and returns it.
func (m *Manager) CreateRoom() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.freshRoomID()
	m.rooms[id] = &Room{ID: id}
	m.logger.Info().Str("room_id", id).Msg("room created")
	return id
}

func (m *Manager) freshRoomID() string {
	for {
		b := make([]byte, roomIDLength)
		for i := range b {
			b[i] = roomIDAlphabet[m.rng.IntN(len(roomIDAlphabet))]
		}
		id := string(b)
		if _, exists := m.rooms[id]; !exists {
			return id
		}
	}
}

// JoinRoom seats conn as userID/displayName in roomID, appending it in join
// order.
func (m *Manager) JoinRoom(roomID string, userID uint64, displayName string, conn Conn) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[roomID]
	if !ok {
		return ErrRoomNotFound
	}
	if r.memberIndex(userID) >= 0 {
		return ErrAlreadyJoined
	}
	if len(r.Members) >= maxMembers {
		return ErrRoomFull
	}

	r.Members = append(r.Members, Member{UserID: userID, DisplayName: displayName, Conn: conn})
	return nil
}

// StartIfReady starts a fresh deal once roomID has three seated members
//. A room with a game already running is a no-op
// success.
func (m *Manager) StartIfReady(roomID string, seed int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[roomID]
	if !ok {
		return ErrRoomNotFound
	}
	if r.Game != nil {
		return nil
	}
	if len(r.Members) < maxMembers {
		return ErrGameNotReady
	}

	var ids [3]uint64
	for i, mem := range r.Members {
		ids[i] = mem.UserID
	}
	r.Game = game.New(ids, seed)
	return nil
}

// RemoveResult reports the effect of RemoveConnection.
type RemoveResult struct {
	RoomDeleted     bool
	GameInterrupted bool
	PlayerCount     int
}

// RemoveConnection removes userID from roomID, interrupting any running
// game if membership drops below three, and deleting the room if it becomes
// empty. Unknown rooms are a silent no-op.
func (m *Manager) RemoveConnection(roomID string, userID uint64) (RemoveResult, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[roomID]
	if !ok {
		return RemoveResult{}, false
	}

	idx := r.memberIndex(userID)
	if idx < 0 {
		return RemoveResult{PlayerCount: len(r.Members)}, true
	}

	r.Members = append(r.Members[:idx], r.Members[idx+1:]...)

	result := RemoveResult{PlayerCount: len(r.Members)}
	if r.Game != nil && len(r.Members) < maxMembers {
		r.Game = nil
		result.GameInterrupted = true
	}

	if len(r.Members) == 0 {
		delete(m.rooms, roomID)
		result.RoomDeleted = true
	}

	return result, true
}

// ApplyResult reports the outcome of a successful ApplyPlay.
type ApplyResult struct {
	WinnerUserID *uint64
}

// ApplyPlay delegates a play attempt to the room's game state machine,
// returning its errors unchanged and translating the winning seat into the
// winner's user id.
func (m *Manager) ApplyPlay(roomID string, userID uint64, selected []cards.Card) (ApplyResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[roomID]
	if !ok {
		return ApplyResult{}, ErrRoomNotFound
	}
	seat, ok := r.seatOf(userID)
	if !ok {
		return ApplyResult{}, ErrRoomNotFound
	}
	if r.Game == nil {
		return ApplyResult{}, ErrGameNotReady
	}

	res, err := r.Game.ApplyPlay(seat, selected)
	if err != nil {
		return ApplyResult{}, err
	}

	out := ApplyResult{}
	if res.Winner != nil {
		if winnerID, ok := r.userIDForSeat(*res.Winner); ok {
			out.WinnerUserID = &winnerID
		}
	}
	return out, nil
}

// PassTurn delegates a pass to the room's game state machine.
func (m *Manager) PassTurn(roomID string, userID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[roomID]
	if !ok {
		return ErrRoomNotFound
	}
	seat, ok := r.seatOf(userID)
	if !ok {
		return ErrRoomNotFound
	}
	if r.Game == nil {
		return ErrGameNotReady
	}

	_, err := r.Game.Pass(seat)
	return err
}

// RestartGame replaces a finished game with a fresh deal on the same
// seating. Only offered once a seat has gone out.
func (m *Manager) RestartGame(roomID string, requesterID uint64, seed int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[roomID]
	if !ok {
		return ErrRoomNotFound
	}
	if len(r.Members) < maxMembers || r.Game == nil {
		return ErrGameNotReady
	}
	if _, seated := r.seatOf(requesterID); !seated {
		return ErrRestartNotAllowed
	}
	if !r.Game.AnyOut() {
		return ErrRestartNotAllowed
	}

	var ids [3]uint64
	for i, mem := range r.Members {
		ids[i] = mem.UserID
	}
	r.Game = game.New(ids, seed)
	return nil
}

// SnapshotFor returns viewerUserID's redacted view of roomID, or nil if the
// room is unknown or has no running game.
func (m *Manager) SnapshotFor(roomID string, viewerUserID uint64) *Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[roomID]
	if !ok {
		return nil
	}
	return snapshotFor(r, viewerUserID)
}

// Broadcast builds every member's tailored snapshot under the lock, then
// releases it and fans the deliver calls out concurrently, so network
// back-pressure on one recipient never blocks another room or another
// member of this one. deliver errors are collected but never abort
// a sibling's delivery; Broadcast itself never fails.
func (m *Manager) Broadcast(roomID string, deliver func(conn Conn, snap *Snapshot) error) {
	m.mu.Lock()
	r, ok := m.rooms[roomID]
	if !ok {
		m.mu.Unlock()
		return
	}

	type recipient struct {
		conn Conn
		snap *Snapshot
	}
	recipients := make([]recipient, len(r.Members))
	for i, mem := range r.Members {
		recipients[i] = recipient{conn: mem.Conn, snap: snapshotFor(r, mem.UserID)}
	}
	m.mu.Unlock()

	var g errgroup.Group
	for _, rec := range recipients {
		rec := rec
		g.Go(func() error {
			return deliver(rec.conn, rec.snap)
		})
	}
	if err := g.Wait(); err != nil {
		m.logger.Debug().Err(err).Str("room_id", roomID).Msg("broadcast delivery error")
	}
}

// RoomSummaries lists every room ordered by room id ascending.
func (m *Manager) RoomSummaries() []Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.rooms))
	for id := range m.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	summaries := make([]Summary, 0, len(ids))
	for _, id := range ids {
		r := m.rooms[id]
		summaries = append(summaries, Summary{
			RoomID:      id,
			PlayerCount: len(r.Members),
			Started:     r.Started(),
			CanJoin:     len(r.Members) < maxMembers,
		})
	}
	return summaries
}
