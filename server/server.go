package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/lox/doudizhu/protocol"
	"github.com/lox/doudizhu/room"
)

// Server owns the HTTP/websocket bootstrap around a room.Manager: the
// upgrade route, the lobby and health endpoints, and per-connection session
// wiring.
type Server struct {
	manager  *room.Manager
	upgrader websocket.Upgrader
	mux      *http.ServeMux
	logger   zerolog.Logger
	clock    quartz.Clock

	httpServer *http.Server
	routesOnce sync.Once

	nextUserID atomic.Uint64

	mu       sync.Mutex
	sessions map[*Session]struct{}
}

// NewServer constructs a Server around manager. clock governs connection
// ping/pong timing; pass quartz.NewReal() in production and quartz.NewMock
// in tests.
func NewServer(logger zerolog.Logger, manager *room.Manager, clock quartz.Clock) *Server {
	return &Server{
		manager: manager,
		logger:  logger.With().Str("component", "server").Logger(),
		clock:   clock,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		mux:      http.NewServeMux(),
		sessions: make(map[*Session]struct{}),
	}
}

// Handler returns the HTTP handler serving /ws, /rooms, and /health.
func (s *Server) Handler() http.Handler {
	s.ensureRoutes()
	return s.mux
}

func (s *Server) ensureRoutes() {
	s.routesOnce.Do(func() {
		s.mux.HandleFunc("/ws", s.handleWebSocket)
		s.mux.HandleFunc("/rooms", s.handleRooms)
		s.mux.HandleFunc("/health", s.handleHealth)
	})
}

// Start listens on addr and serves until the listener fails or Shutdown is
// called.
func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(listener)
}

// Serve serves the routes on an existing listener.
func (s *Server) Serve(listener net.Listener) error {
	s.ensureRoutes()
	s.httpServer = &http.Server{Handler: s.mux}
	s.logger.Info().Str("addr", listener.Addr().String()).Msg("server starting")
	return s.httpServer.Serve(listener)
}

// Shutdown drains the HTTP server and closes every live session.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down")

	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.sessions))
	for sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
		sess.conn.Close()
	}

	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error().Err(err).Msg("error during shutdown")
		return err
	}
	s.logger.Info().Msg("shutdown complete")
	return nil
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	userID := s.nextUserID.Add(1)
	connLogger := s.logger.With().Uint64("user_id", userID).Logger()

	var session *Session
	conn := NewConnection(ws, connLogger, s.clock, func(msg *protocol.Message) {
		session.Handle(msg)
	})
	session = NewSession(userID, conn, s.manager, s.logger)

	s.mu.Lock()
	s.sessions[session] = struct{}{}
	s.mu.Unlock()

	session.Welcome()
	session.sendRoomsList()
	conn.Start()

	go func() {
		<-conn.Done()
		session.Close()
		s.mu.Lock()
		delete(s.sessions, session)
		s.mu.Unlock()
	}()
}

// handleRooms serves the lobby listing as JSON.
func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

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

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(rooms); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode rooms response")
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK\n"))
}
