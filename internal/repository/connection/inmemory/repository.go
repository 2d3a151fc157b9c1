package inmemory

import (
	"sync"

	"golang.org/x/exp/maps"

	"github.com/watchroom/server/internal/repository/connection"
)

type entry struct {
	conn   *connection.Conn
	userId string
	rooms  map[string]struct{}
}

type repo struct {
	entries map[string]*entry
	mu      sync.RWMutex
}

func NewRepo() *repo {
	return &repo{
		entries: make(map[string]*entry),
	}
}

func (r *repo) Create(connId string, conn *connection.Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[connId]; ok {
		return connection.ErrAlreadyExists
	}

	r.entries[connId] = &entry{
		conn:  conn,
		rooms: make(map[string]struct{}),
	}

	return nil
}

// Remove deletes the entry and returns its user id and room set. A missing
// entry yields an empty snapshot.
func (r *repo) Remove(connId string) (string, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[connId]
	if !ok {
		return "", nil
	}

	delete(r.entries, connId)

	return e.userId, maps.Keys(e.rooms)
}

// AddRoom records room membership, creating the entry if the connect hook was
// missed.
func (r *repo) AddRoom(connId string, roomId string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[connId]
	if !ok {
		e = &entry{rooms: make(map[string]struct{})}
		r.entries[connId] = e
	}

	e.rooms[roomId] = struct{}{}
}

func (r *repo) RemoveRoom(connId string, roomId string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[connId]
	if !ok {
		return
	}

	delete(e.rooms, roomId)
}

func (r *repo) SetUserId(connId string, userId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[connId]
	if !ok {
		return connection.ErrNotFound
	}

	e.userId = userId

	return nil
}

func (r *repo) IsMember(connId string, roomId string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[connId]
	if !ok {
		return false
	}

	_, ok = e.rooms[roomId]

	return ok
}

func (r *repo) GetConn(connId string) (*connection.Conn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[connId]
	if !ok || e.conn == nil {
		return nil, connection.ErrNotFound
	}

	return e.conn, nil
}

func (r *repo) GetRoomConns(roomId string) []*connection.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*connection.Conn, 0)
	for _, e := range r.entries {
		if _, ok := e.rooms[roomId]; !ok || e.conn == nil {
			continue
		}
		conns = append(conns, e.conn)
	}

	return conns
}

func (r *repo) GetRoomConnsExcept(roomId string, exceptConnId string) []*connection.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*connection.Conn, 0)
	for connId, e := range r.entries {
		if connId == exceptConnId {
			continue
		}
		if _, ok := e.rooms[roomId]; !ok || e.conn == nil {
			continue
		}
		conns = append(conns, e.conn)
	}

	return conns
}

func (r *repo) CountConns() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}

func (r *repo) CountRoomConns(roomId string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, e := range r.entries {
		if _, ok := e.rooms[roomId]; ok {
			count++
		}
	}

	return count
}
