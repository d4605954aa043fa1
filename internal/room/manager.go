package room

import (
	"context"
	"sync"
)

// Manager owns the live rooms, one per classroom, and their tick loops.
type Manager struct {
	mu      sync.Mutex
	cfg     Config
	deps    Deps
	rooms   map[string]*Room
	cancels map[string]context.CancelFunc
	closed  bool
}

// NewManager builds a manager that spawns rooms with the shared config and
// collaborator set.
func NewManager(cfg Config, deps Deps) *Manager {
	return &Manager{
		cfg:     cfg,
		deps:    deps,
		rooms:   make(map[string]*Room),
		cancels: make(map[string]context.CancelFunc),
	}
}

// GetOrCreate returns the classroom's room, starting its simulation loop on
// first access.
func (m *Manager) GetOrCreate(classroomID string) *Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	if existing, ok := m.rooms[classroomID]; ok {
		return existing
	}
	r := New(classroomID, m.cfg, m.deps)
	ctx, cancel := context.WithCancel(context.Background())
	m.rooms[classroomID] = r
	m.cancels[classroomID] = cancel
	go r.Run(ctx)
	return r
}

// Lookup returns an existing room without creating one.
func (m *Manager) Lookup(classroomID string) (*Room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[classroomID]
	return r, ok
}

// Rooms snapshots the live room set for diagnostics.
func (m *Manager) Rooms() []*Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	return rooms
}

// Close stops every room's simulation loop. Sessions are closed by their
// transports.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	for id, cancel := range m.cancels {
		cancel()
		delete(m.cancels, id)
	}
}
