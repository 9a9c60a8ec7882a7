// Package server implements the transport shell around the core engine:
// websocket connection handling, client-intent dispatch, HTTP bootstrap,
// and graceful shutdown. It holds no game rules of its own; every mutation
// is delegated to room.Manager.
package server

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lox/doudizhu/cards"
	"github.com/lox/doudizhu/game"
	"github.com/lox/doudizhu/internal/display"
	"github.com/lox/doudizhu/protocol"
	"github.com/lox/doudizhu/room"
)

// Session owns one connection's server-side state: its assigned identity
// and the room it currently occupies, if any. A session is single-threaded
// from the read pump's perspective; all manager calls are safe for
// concurrent use across sessions regardless.
type Session struct {
	userID      uint64
	displayName string
	traceID     string

	conn    *Connection
	manager *room.Manager
	logger  zerolog.Logger

	roomID string // "" when not seated anywhere
}

// NewSession assigns userID a display name and binds it to conn and the
// shared room manager. traceID correlates this session's log lines across
// its lifetime.
func NewSession(userID uint64, conn *Connection, manager *room.Manager, logger zerolog.Logger) *Session {
	traceID := uuid.NewString()
	return &Session{
		userID:      userID,
		displayName: display.Name(userID),
		traceID:     traceID,
		conn:        conn,
		manager:     manager,
		logger:      logger.With().Str("component", "session").Str("trace_id", traceID).Uint64("user_id", userID).Logger(),
	}
}

// Welcome sends the initial identity greeting; call once, before Handle is
// ever invoked.
func (s *Session) Welcome() {
	s.send(protocol.MessageTypeWelcome, protocol.WelcomeData{UserID: s.userID, UserName: s.displayName})
}

// Handle dispatches one decoded inbound message.
func (s *Session) Handle(msg *protocol.Message) {
	switch msg.Type {
	case protocol.MessageTypeCreateRoom:
		s.handleCreateRoom()
	case protocol.MessageTypeJoinRoom:
		s.handleJoinRoom(msg.Data)
	case protocol.MessageTypeListRooms:
		s.sendRoomsList()
	case protocol.MessageTypePlay:
		s.handlePlay(msg.Data)
	case protocol.MessageTypePass:
		s.handlePass()
	case protocol.MessageTypeRestartGame:
		s.handleRestartGame()
	case protocol.MessageTypePing:
		s.send(protocol.MessageTypePong, nil)
	default:
		s.sendError("invalid message")
	}
}

// Close leaves whatever room the session occupies, exactly once, regardless
// of which exit path triggered it.
func (s *Session) Close() {
	s.leaveCurrentRoom()
}

func (s *Session) handleCreateRoom() {
	s.leaveCurrentRoom()

	roomID := s.manager.CreateRoom()
	if err := s.manager.JoinRoom(roomID, s.userID, s.displayName, s.conn); err != nil {
		s.sendError(err.Error())
		return
	}
	s.roomID = roomID
	s.logger.Info().Str("room_id", roomID).Msg("room created")
	s.send(protocol.MessageTypeRoomCreated, protocol.RoomCreatedData{RoomID: roomID})
	s.sendRoomsList()
}

func (s *Session) handleJoinRoom(data json.RawMessage) {
	var req protocol.JoinRoomData
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendError("invalid message")
		return
	}

	roomID := strings.ToUpper(strings.TrimSpace(req.RoomID))

	s.leaveCurrentRoom()

	if err := s.manager.JoinRoom(roomID, s.userID, s.displayName, s.conn); err != nil {
		s.sendError(err.Error())
		return
	}
	s.roomID = roomID

	// A room transitions from lobby to play the moment its third seat fills;
	// there is no separate "start" client intent.
	if err := s.manager.StartIfReady(roomID, time.Now().UnixNano()); err != nil && !errors.Is(err, room.ErrGameNotReady) {
		s.logger.Error().Err(err).Str("room_id", roomID).Msg("failed to start game")
	}

	summaries := s.manager.RoomSummaries()
	playerCount, started := 0, false
	for _, sum := range summaries {
		if sum.RoomID == roomID {
			playerCount, started = sum.PlayerCount, sum.Started
		}
	}

	s.send(protocol.MessageTypeJoined, protocol.JoinedData{
		RoomID:      roomID,
		You:         s.userID,
		YouName:     s.displayName,
		PlayerCount: playerCount,
		Started:     started,
	})
	s.sendRoomsList()
	s.broadcastRoomState(roomID)
}

func (s *Session) handlePlay(data json.RawMessage) {
	if s.roomID == "" {
		s.sendPlayRejected("not seated in a room")
		return
	}

	var req protocol.PlayData
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendPlayRejected("invalid message")
		return
	}

	selected := make([]cards.Card, 0, len(req.Cards))
	for _, code := range req.Cards {
		c, err := cards.ParseCard(code)
		if err != nil {
			s.sendPlayRejected("invalid card code")
			return
		}
		selected = append(selected, c)
	}

	roomID := s.roomID
	result, err := s.manager.ApplyPlay(roomID, s.userID, selected)
	if err != nil {
		s.sendPlayRejected(reasonFor(err))
		return
	}

	s.broadcastRoomState(roomID)
	if result.WinnerUserID != nil {
		s.manager.Broadcast(roomID, func(conn room.Conn, _ *room.Snapshot) error {
			msg, merr := protocol.New(protocol.MessageTypeGameOver, protocol.GameOverData{
				RoomID:   roomID,
				WinnerID: *result.WinnerUserID,
			})
			if merr != nil {
				return merr
			}
			conn.Send(msg)
			return nil
		})
	}
}

func (s *Session) handlePass() {
	if s.roomID == "" {
		s.sendPlayRejected("not seated in a room")
		return
	}

	roomID := s.roomID
	if err := s.manager.PassTurn(roomID, s.userID); err != nil {
		s.sendPlayRejected(reasonFor(err))
		return
	}
	s.broadcastRoomState(roomID)
}

func (s *Session) handleRestartGame() {
	if s.roomID == "" {
		s.sendError("not seated in a room")
		return
	}

	roomID := s.roomID
	seed := time.Now().UnixNano()
	if err := s.manager.RestartGame(roomID, s.userID, seed); err != nil {
		s.sendError(reasonFor(err))
		return
	}

	s.manager.Broadcast(roomID, func(conn room.Conn, _ *room.Snapshot) error {
		msg, merr := protocol.New(protocol.MessageTypeGameRestarted, protocol.GameRestartedData{RoomID: roomID})
		if merr != nil {
			return merr
		}
		conn.Send(msg)
		return nil
	})
	s.broadcastRoomState(roomID)
}

func (s *Session) leaveCurrentRoom() {
	if s.roomID == "" {
		return
	}
	roomID := s.roomID
	s.roomID = ""

	result, ok := s.manager.RemoveConnection(roomID, s.userID)
	if !ok || result.RoomDeleted {
		return
	}

	if result.GameInterrupted {
		s.manager.Broadcast(roomID, func(conn room.Conn, _ *room.Snapshot) error {
			msg, merr := protocol.New(protocol.MessageTypeRoomInterrupt, protocol.RoomInterruptedData{
				RoomID:      roomID,
				LeaverID:    s.userID,
				PlayerCount: result.PlayerCount,
			})
			if merr != nil {
				return merr
			}
			conn.Send(msg)
			return nil
		})
	}
	s.broadcastRoomState(roomID)
}

// broadcastRoomState fans RoomState out to every connection in roomID, each
// with its own viewer-tailored snapshot.
func (s *Session) broadcastRoomState(roomID string) {
	s.manager.Broadcast(roomID, func(conn room.Conn, snap *room.Snapshot) error {
		if snap == nil {
			return nil
		}
		msg, err := protocol.New(protocol.MessageTypeRoomState, snapshotToWire(snap))
		if err != nil {
			return err
		}
		conn.Send(msg)
		return nil
	})
}

func (s *Session) sendRoomsList() {
	summaries := s.manager.RoomSummaries()
	rooms := make([]protocol.RoomSummary, len(summaries))
	for i, sum := range summaries {
		rooms[i] = protocol.RoomSummary{
			RoomID:      sum.RoomID,
			PlayerCount: sum.PlayerCount,
			Started:     sum.Started,
			CanJoin:     sum.CanJoin,
		}
	}
	s.send(protocol.MessageTypeRoomsList, protocol.RoomsListData{Rooms: rooms})
}

func (s *Session) sendError(message string) {
	s.send(protocol.MessageTypeError, protocol.ErrorData{Message: message})
}

func (s *Session) sendPlayRejected(reason string) {
	s.send(protocol.MessageTypePlayRejected, protocol.PlayRejectedData{Reason: reason})
}

func (s *Session) send(msgType protocol.MessageType, data interface{}) {
	msg, err := protocol.New(msgType, data)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to build outbound message")
		return
	}
	s.conn.Send(msg)
}

// snapshotToWire translates a room.Snapshot into its wire representation.
func snapshotToWire(snap *room.Snapshot) protocol.RoomStateData {
	seats := make([]protocol.SeatView, len(snap.Seats))
	for i, seat := range snap.Seats {
		seats[i] = protocol.SeatView{
			UserID:      seat.UserID,
			DisplayName: seat.DisplayName,
			HandSize:    seat.HandSize,
			IsLandlord:  seat.IsLandlord,
			Out:         seat.Out,
		}
	}

	out := protocol.RoomStateData{
		RoomID:   snap.RoomID,
		Seats:    seats,
		Turn:     snap.Turn,
		YourHand: snap.YourHand,
	}
	if snap.LastPlay != nil {
		playerID := snap.LastPlay.PlayerID
		out.LastPlayer = &playerID
		out.LastPlay = &protocol.LastPlayView{
			PlayerID: snap.LastPlay.PlayerID,
			Kind:     snap.LastPlay.Kind,
			MainRank: snap.LastPlay.MainRank,
			Size:     snap.LastPlay.Size,
		}
	}
	return out
}

// reasonFor renders a room/game engine error as a client-facing reason
// string.
func reasonFor(err error) string {
	for _, sentinel := range []error{
		game.ErrNotYourTurn, game.ErrCardsNotOwned, game.ErrInvalidPlay,
		game.ErrMustBeatPrevious, game.ErrGameOver, game.ErrCannotPass,
		room.ErrRoomNotFound, room.ErrRoomFull, room.ErrAlreadyJoined,
		room.ErrGameNotReady, room.ErrRestartNotAllowed,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}
