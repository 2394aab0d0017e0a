package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Server upgrades HTTP connections to the live session feed.
type Server struct {
	manager      *Manager
	logger       *zap.Logger
	writeTimeout time.Duration
	pingInterval time.Duration
	upgrader     websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer builds ws server.
func NewServer(manager *Manager, writeTimeout, pingInterval time.Duration, logger *zap.Logger) *Server {
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		manager:      manager,
		logger:       logger,
		writeTimeout: writeTimeout,
		pingInterval: pingInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		ctx:    ctx,
		cancel: cancel,
	}
}

// HandleWS is HTTP handler for /ws/live. The optional elevator_id query
// parameter narrows the feed to one elevator.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	elevatorID := r.URL.Query().Get("elevator_id")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(s.ctx)
	connection := NewConnection(uuid.NewString(), elevatorID, conn, s.writeTimeout, s.pingInterval, s.logger, func(id string) {
		s.manager.Remove(id)
		cancel()
	})
	s.manager.Add(connection)

	go connection.Start(ctx)
	s.logger.Info("live feed subscriber connected",
		zap.String("connection_id", connection.ID()),
		zap.String("elevator_id", elevatorID),
	)
}

// Close disconnects every subscriber.
func (s *Server) Close() {
	s.cancel()
}
