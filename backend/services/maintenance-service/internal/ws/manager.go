package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"elevmaint/backend/services/maintenance-service/internal/models"
)

// Manager tracks live feed subscribers and fans out session events.
type Manager struct {
	mu          sync.RWMutex
	connections map[string]*Connection
	logger      *zap.Logger
}

// NewManager builds connection manager.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		connections: make(map[string]*Connection),
		logger:      logger,
	}
}

// Add registers new connection.
func (m *Manager) Add(conn *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connections[conn.ID()] = conn
}

// Remove removes connection.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.connections, id)
}

// Count returns the number of subscribers.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections)
}

// Publish delivers event to every subscriber of its elevator. It never blocks.
func (m *Manager) Publish(event models.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		m.logger.Error("failed to encode live event", zap.String("type", event.Type), zap.Error(err))
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, conn := range m.connections {
		if conn.Wants(event.ElevatorID) {
			conn.Send(payload)
		}
	}
}
