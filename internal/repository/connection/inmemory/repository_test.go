package inmemory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchroom/server/internal/repository/connection"
)

func TestRepo_Create(t *testing.T) {
	r := NewRepo()
	conn := connection.NewConn(nil)

	require.NoError(t, r.Create("c1", conn))
	assert.ErrorIs(t, r.Create("c1", conn), connection.ErrAlreadyExists)
	assert.Equal(t, 1, r.CountConns())
}

func TestRepo_Membership(t *testing.T) {
	r := NewRepo()
	require.NoError(t, r.Create("c1", connection.NewConn(nil)))

	assert.False(t, r.IsMember("c1", "r1"))

	r.AddRoom("c1", "r1")
	assert.True(t, r.IsMember("c1", "r1"))
	assert.False(t, r.IsMember("c1", "r2"))
	assert.False(t, r.IsMember("unknown", "r1"))

	r.RemoveRoom("c1", "r1")
	assert.False(t, r.IsMember("c1", "r1"))
}

func TestRepo_AddRoomCreatesMissingEntry(t *testing.T) {
	r := NewRepo()

	// connect hook missed: membership must still be recorded
	r.AddRoom("c1", "r1")
	assert.True(t, r.IsMember("c1", "r1"))

	// the defensive entry has no conn to send to
	assert.Empty(t, r.GetRoomConns("r1"))
	assert.Equal(t, 1, r.CountRoomConns("r1"))
}

func TestRepo_Remove(t *testing.T) {
	r := NewRepo()
	require.NoError(t, r.Create("c1", connection.NewConn(nil)))
	r.AddRoom("c1", "r1")
	r.AddRoom("c1", "r2")
	require.NoError(t, r.SetUserId("c1", "u1"))

	userId, rooms := r.Remove("c1")
	assert.Equal(t, "u1", userId)
	assert.ElementsMatch(t, []string{"r1", "r2"}, rooms)
	assert.Equal(t, 0, r.CountConns())

	// absent entry yields an empty snapshot
	userId, rooms = r.Remove("c1")
	assert.Empty(t, userId)
	assert.Empty(t, rooms)
}

func TestRepo_GetRoomConns(t *testing.T) {
	r := NewRepo()
	connA := connection.NewConn(nil)
	connB := connection.NewConn(nil)
	connC := connection.NewConn(nil)
	require.NoError(t, r.Create("a", connA))
	require.NoError(t, r.Create("b", connB))
	require.NoError(t, r.Create("c", connC))
	r.AddRoom("a", "r1")
	r.AddRoom("b", "r1")
	r.AddRoom("c", "r2")

	conns := r.GetRoomConns("r1")
	assert.ElementsMatch(t, []*connection.Conn{connA, connB}, conns)

	conns = r.GetRoomConnsExcept("r1", "a")
	assert.ElementsMatch(t, []*connection.Conn{connB}, conns)

	assert.Equal(t, 2, r.CountRoomConns("r1"))
	assert.Equal(t, 3, r.CountConns())
}

func TestRepo_SetUserId(t *testing.T) {
	r := NewRepo()
	assert.ErrorIs(t, r.SetUserId("c1", "u1"), connection.ErrNotFound)

	require.NoError(t, r.Create("c1", connection.NewConn(nil)))
	require.NoError(t, r.SetUserId("c1", "u1"))

	// later calls overwrite
	require.NoError(t, r.SetUserId("c1", "u2"))
	userId, _ := r.Remove("c1")
	assert.Equal(t, "u2", userId)
}
