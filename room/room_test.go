package room

import (
	"sync"
	"testing"

	"github.com/lox/doudizhu/game"
	"github.com/lox/doudizhu/protocol"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	received []*protocol.Message
}

func (f *fakeConn) Send(msg *protocol.Message) {
	f.received = append(f.received, msg)
}

func newTestManager() *Manager {
	return NewManager(zerolog.Nop(), 1)
}

func TestCreateAndJoinRoom(t *testing.T) {
	t.Parallel()
	m := newTestManager()
	roomID := m.CreateRoom()
	require.Len(t, roomID, roomIDLength)

	require.NoError(t, m.JoinRoom(roomID, 10, "Player-10", &fakeConn{}))
	require.NoError(t, m.JoinRoom(roomID, 11, "Player-11", &fakeConn{}))

	err := m.JoinRoom(roomID, 10, "Player-10", &fakeConn{})
	require.ErrorIs(t, err, ErrAlreadyJoined)

	err = m.JoinRoom("NOSUCH", 12, "Player-12", &fakeConn{})
	require.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRoomCapacity(t *testing.T) {
	t.Parallel()
	m := newTestManager()
	roomID := m.CreateRoom()
	require.NoError(t, m.JoinRoom(roomID, 1, "Player-1", &fakeConn{}))
	require.NoError(t, m.JoinRoom(roomID, 2, "Player-2", &fakeConn{}))
	require.NoError(t, m.JoinRoom(roomID, 3, "Player-3", &fakeConn{}))

	err := m.JoinRoom(roomID, 4, "Player-4", &fakeConn{})
	require.ErrorIs(t, err, ErrRoomFull)
}

func seedRoom(t *testing.T, m *Manager, ids ...uint64) string {
	t.Helper()
	roomID := m.CreateRoom()
	for _, id := range ids {
		require.NoError(t, m.JoinRoom(roomID, id, "", &fakeConn{}))
	}
	return roomID
}

func TestStartIfReadyDealShape(t *testing.T) {
	t.Parallel()
	m := newTestManager()
	roomID := seedRoom(t, m, 10, 11, 12)

	require.NoError(t, m.StartIfReady(roomID, 101))

	snap := m.SnapshotFor(roomID, 10)
	require.NotNil(t, snap)

	sizes := map[uint64]int{}
	var landlordID uint64
	for _, seat := range snap.Seats {
		sizes[seat.UserID] = seat.HandSize
		if seat.IsLandlord {
			landlordID = seat.UserID
		}
	}
	require.Contains(t, []int{17, 20}, sizes[10])
	require.Equal(t, 20, sizes[landlordID])

	require.NoError(t, m.StartIfReady(roomID, 999)) // no-op, game already running
}

func TestStartIfReadyNotReady(t *testing.T) {
	t.Parallel()
	m := newTestManager()
	roomID := seedRoom(t, m, 10, 11)
	err := m.StartIfReady(roomID, 1)
	require.ErrorIs(t, err, ErrGameNotReady)
}

func TestApplyPlayErrorMapping(t *testing.T) {
	t.Parallel()
	m := newTestManager()
	roomID := seedRoom(t, m, 10, 11, 12)
	require.NoError(t, m.StartIfReady(roomID, 101))

	snap := m.SnapshotFor(roomID, 10)
	require.NotNil(t, snap)

	var turnID uint64
	for _, seat := range snap.Seats {
		if seat.UserID == snap.Turn {
			turnID = seat.UserID
		}
	}
	var otherID uint64
	for _, id := range []uint64{10, 11, 12} {
		if id != turnID {
			otherID = id
			break
		}
	}

	_, err := m.ApplyPlay(roomID, otherID, nil)
	require.ErrorIs(t, err, game.ErrNotYourTurn)

	err = m.PassTurn(roomID, turnID)
	require.ErrorIs(t, err, game.ErrCannotPass)
}

func TestRemoveConnectionInterruptsAndDeletes(t *testing.T) {
	t.Parallel()
	m := newTestManager()
	roomID := seedRoom(t, m, 10, 11, 12)
	require.NoError(t, m.StartIfReady(roomID, 5))

	res, ok := m.RemoveConnection(roomID, 11)
	require.True(t, ok)
	require.True(t, res.GameInterrupted)
	require.False(t, res.RoomDeleted)
	require.Equal(t, 2, res.PlayerCount)

	res, ok = m.RemoveConnection(roomID, 10)
	require.True(t, ok)
	require.False(t, res.GameInterrupted)
	require.Equal(t, 1, res.PlayerCount)

	res, ok = m.RemoveConnection(roomID, 12)
	require.True(t, ok)
	require.True(t, res.RoomDeleted)
	require.Equal(t, 0, res.PlayerCount)

	require.Nil(t, m.SnapshotFor(roomID, 10))
}

func TestRemoveConnectionUnknownRoomNoOp(t *testing.T) {
	t.Parallel()
	m := newTestManager()
	_, ok := m.RemoveConnection("NOSUCH", 1)
	require.False(t, ok)
}

func TestRestartGameRequiresFinishedRound(t *testing.T) {
	t.Parallel()
	m := newTestManager()
	roomID := seedRoom(t, m, 10, 11, 12)
	require.NoError(t, m.StartIfReady(roomID, 5))

	err := m.RestartGame(roomID, 10, 6)
	require.ErrorIs(t, err, ErrRestartNotAllowed)

	err = m.RestartGame(roomID, 999, 6)
	require.ErrorIs(t, err, ErrRestartNotAllowed)
}

func TestRoomSummariesOrderedByID(t *testing.T) {
	t.Parallel()
	m := newTestManager()
	roomID1 := m.CreateRoom()
	roomID2 := m.CreateRoom()
	require.NoError(t, m.JoinRoom(roomID1, 1, "", &fakeConn{}))

	summaries := m.RoomSummaries()
	require.Len(t, summaries, 2)
	require.True(t, summaries[0].RoomID < summaries[1].RoomID)

	for _, s := range summaries {
		if s.RoomID == roomID1 {
			require.Equal(t, 1, s.PlayerCount)
			require.True(t, s.CanJoin)
		} else {
			require.Equal(t, roomID2, s.RoomID)
			require.Equal(t, 0, s.PlayerCount)
		}
	}
}

func TestBroadcastDeliversTailoredSnapshots(t *testing.T) {
	t.Parallel()
	m := newTestManager()
	c10, c11, c12 := &fakeConn{}, &fakeConn{}, &fakeConn{}
	roomID := m.CreateRoom()
	require.NoError(t, m.JoinRoom(roomID, 10, "", c10))
	require.NoError(t, m.JoinRoom(roomID, 11, "", c11))
	require.NoError(t, m.JoinRoom(roomID, 12, "", c12))
	require.NoError(t, m.StartIfReady(roomID, 42))

	var mu sync.Mutex
	seen := map[int]int{}
	m.Broadcast(roomID, func(conn Conn, snap *Snapshot) error {
		require.NotNil(t, snap)
		mu.Lock()
		seen[len(snap.YourHand)]++
		mu.Unlock()
		msg, err := protocol.New(protocol.MessageTypeRoomState, nil)
		require.NoError(t, err)
		conn.Send(msg)
		return nil
	})

	require.Len(t, c10.received, 1)
	require.Len(t, c11.received, 1)
	require.Len(t, c12.received, 1)
	require.Equal(t, map[int]int{17: 2, 20: 1}, seen, "each member sees only their own hand")
}
