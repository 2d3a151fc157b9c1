package inmemory

import (
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/watchroom/server/internal/repository/presence"
)

type entry struct {
	name  *string
	image *string
	count int
}

type repo struct {
	rooms map[string]map[string]*entry
	mu    sync.RWMutex
}

func NewRepo() *repo {
	return &repo{
		rooms: make(map[string]map[string]*entry),
	}
}

// Increment adds one connection for the (room, user) pair. Metadata is kept
// from the first writer; duplicate joins never overwrite it, so a later join
// with omitted fields cannot blank out what other members already see.
func (r *repo) Increment(roomId string, userId string, name, image *string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomId]
	if !ok {
		room = make(map[string]*entry)
		r.rooms[roomId] = room
	}

	e, ok := room[userId]
	if !ok {
		room[userId] = &entry{name: name, image: image, count: 1}
		return
	}

	e.count++
}

// Decrement removes one connection for the (room, user) pair. A pair with no
// entry is a no-op, so the count can never go negative. The entry is deleted
// at zero and the room is deleted once its last entry goes.
func (r *repo) Decrement(roomId string, userId string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomId]
	if !ok {
		return
	}

	e, ok := room[userId]
	if !ok {
		return
	}

	e.count--
	if e.count > 0 {
		return
	}

	delete(room, userId)
	if len(room) == 0 {
		delete(r.rooms, roomId)
	}
}

// Snapshot returns the users present in the room, sorted by id.
func (r *repo) Snapshot(roomId string) []presence.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[roomId]
	if !ok {
		return []presence.User{}
	}

	userIds := maps.Keys(room)
	slices.Sort(userIds)

	users := make([]presence.User, 0, len(userIds))
	for _, userId := range userIds {
		e := room[userId]
		users = append(users, presence.User{
			Id:    userId,
			Name:  e.name,
			Image: e.image,
		})
	}

	return users
}

func (r *repo) CountRooms() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms)
}
