package relay

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchroom/server/internal/repository/connection"
	connInmemory "github.com/watchroom/server/internal/repository/connection/inmemory"
	presenceInmemory "github.com/watchroom/server/internal/repository/presence/inmemory"
)

func newTestService() *service {
	return NewService(connInmemory.NewRepo(), presenceInmemory.NewRepo(), slog.Default())
}

func connect(t *testing.T, s *service, connId string) *connection.Conn {
	t.Helper()
	conn := connection.NewConn(nil)
	require.NoError(t, s.Connect(context.Background(), &ConnectParams{Conn: conn, ConnId: connId}))
	return conn
}

func strptr(s string) *string {
	return &s
}

func TestPresenceJoin(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	connA := connect(t, s, "a")
	connB := connect(t, s, "b")

	require.NoError(t, s.JoinRoom(ctx, &JoinRoomParams{ConnId: "a", RoomId: "r1"}))

	presenceResp, err := s.PresenceJoin(ctx, &PresenceJoinParams{
		ConnId: "a",
		RoomId: "r1",
		UserId: "u1",
		Name:   strptr("Alice"),
	})
	require.NoError(t, err)
	require.Len(t, presenceResp.Members, 1)
	assert.Equal(t, "u1", presenceResp.Members[0].Id)
	assert.ElementsMatch(t, []*connection.Conn{connA}, presenceResp.Conns)

	// second user joins without a prior join-room: presence-join also
	// establishes membership
	presenceResp, err = s.PresenceJoin(ctx, &PresenceJoinParams{
		ConnId: "b",
		RoomId: "r1",
		UserId: "u2",
	})
	require.NoError(t, err)
	require.Len(t, presenceResp.Members, 2)
	assert.ElementsMatch(t, []*connection.Conn{connA, connB}, presenceResp.Conns)
}

func TestMembershipGate(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	connect(t, s, "a")
	connect(t, s, "outsider")
	require.NoError(t, s.JoinRoom(ctx, &JoinRoomParams{ConnId: "a", RoomId: "r1"}))

	tests := []struct {
		name string
		call func() (int, error)
	}{
		{
			name: "sync-command",
			call: func() (int, error) {
				resp, err := s.SyncCommand(ctx, &SyncCommandParams{ConnId: "outsider", RoomId: "r1", Cmd: "play"})
				return len(resp.Conns), err
			},
		},
		{
			name: "change-video",
			call: func() (int, error) {
				resp, err := s.ChangeVideo(ctx, &ChangeVideoParams{ConnId: "outsider", RoomId: "r1", NewVideoId: "xyz"})
				return len(resp.Conns), err
			},
		},
		{
			name: "queue-updated",
			call: func() (int, error) {
				resp, err := s.QueueUpdated(ctx, &QueueUpdatedParams{ConnId: "outsider", RoomId: "r1", Item: QueueItem{VideoId: "v", Title: "t"}})
				return len(resp.Conns), err
			},
		},
		{
			name: "queue-removed",
			call: func() (int, error) {
				resp, err := s.QueueRemoved(ctx, &QueueRemovedParams{ConnId: "outsider", RoomId: "r1", ItemId: "v"})
				return len(resp.Conns), err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recipients, err := tt.call()
			assert.ErrorIs(t, err, ErrNotRoomMember)
			assert.Zero(t, recipients, "a gated miss must produce zero emissions")
		})
	}
}

func TestSyncCommandExcludesSender(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	connA := connect(t, s, "a")
	connB := connect(t, s, "b")
	require.NoError(t, s.JoinRoom(ctx, &JoinRoomParams{ConnId: "a", RoomId: "r1"}))
	require.NoError(t, s.JoinRoom(ctx, &JoinRoomParams{ConnId: "b", RoomId: "r1"}))

	syncResp, err := s.SyncCommand(ctx, &SyncCommandParams{
		ConnId:    "a",
		RoomId:    "r1",
		Cmd:       "play",
		Timestamp: 1000,
		SeekTime:  42,
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []*connection.Conn{connB}, syncResp.Conns)
	assert.NotContains(t, syncResp.Conns, connA, "sender must not receive its own command")
}

func TestChangeVideoIncludesSender(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	connA := connect(t, s, "a")
	connB := connect(t, s, "b")
	require.NoError(t, s.JoinRoom(ctx, &JoinRoomParams{ConnId: "a", RoomId: "r1"}))
	require.NoError(t, s.JoinRoom(ctx, &JoinRoomParams{ConnId: "b", RoomId: "r1"}))

	changeResp, err := s.ChangeVideo(ctx, &ChangeVideoParams{ConnId: "a", RoomId: "r1", NewVideoId: "xyz"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []*connection.Conn{connA, connB}, changeResp.Conns)
}

func TestLeaveRoom(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	connect(t, s, "a")
	connB := connect(t, s, "b")

	_, err := s.PresenceJoin(ctx, &PresenceJoinParams{ConnId: "a", RoomId: "r1", UserId: "u1"})
	require.NoError(t, err)
	_, err = s.PresenceJoin(ctx, &PresenceJoinParams{ConnId: "b", RoomId: "r1", UserId: "u2"})
	require.NoError(t, err)

	leaveResp, err := s.LeaveRoom(ctx, &LeaveRoomParams{ConnId: "a", RoomId: "r1", UserId: "u1"})
	require.NoError(t, err)
	require.Len(t, leaveResp.Members, 1)
	assert.Equal(t, "u2", leaveResp.Members[0].Id)
	assert.ElementsMatch(t, []*connection.Conn{connB}, leaveResp.Conns)

	// leaving again is a stale decrement: no-op
	leaveResp, err = s.LeaveRoom(ctx, &LeaveRoomParams{ConnId: "a", RoomId: "r1", UserId: "u1"})
	require.NoError(t, err)
	assert.Len(t, leaveResp.Members, 1)
}

func TestMultiTabPresence(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	connect(t, s, "tab1")
	connect(t, s, "tab2")

	_, err := s.PresenceJoin(ctx, &PresenceJoinParams{ConnId: "tab1", RoomId: "r1", UserId: "u1", Name: strptr("Alice")})
	require.NoError(t, err)
	joinResp, err := s.PresenceJoin(ctx, &PresenceJoinParams{ConnId: "tab2", RoomId: "r1", UserId: "u1"})
	require.NoError(t, err)

	require.Len(t, joinResp.Members, 1, "same user on two connections is one presence entry")
	require.NotNil(t, joinResp.Members[0].Name)
	assert.Equal(t, "Alice", *joinResp.Members[0].Name, "metadata from the first join must survive a duplicate join")
	assert.Len(t, joinResp.Conns, 2)

	// one tab disconnects, the user stays present
	disconnectResp, err := s.Disconnect(ctx, &DisconnectParams{ConnId: "tab2"})
	require.NoError(t, err)
	require.Len(t, disconnectResp.Rooms, 1)
	assert.Len(t, disconnectResp.Rooms[0].Members, 1)
}

func TestDisconnectCleanup(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	connect(t, s, "c")
	_, err := s.PresenceJoin(ctx, &PresenceJoinParams{ConnId: "c", RoomId: "r1", UserId: "u1"})
	require.NoError(t, err)
	_, err = s.PresenceJoin(ctx, &PresenceJoinParams{ConnId: "c", RoomId: "r2", UserId: "u1"})
	require.NoError(t, err)

	disconnectResp, err := s.Disconnect(ctx, &DisconnectParams{ConnId: "c"})
	require.NoError(t, err)
	require.Len(t, disconnectResp.Rooms, 2)
	for _, room := range disconnectResp.Rooms {
		assert.Empty(t, room.Members, "room %s must be empty after the sole user disconnects", room.RoomId)
	}

	// a second disconnect for the same id is an empty snapshot
	disconnectResp, err = s.Disconnect(ctx, &DisconnectParams{ConnId: "c"})
	require.NoError(t, err)
	assert.Empty(t, disconnectResp.Rooms)
}

func TestDisconnectWithoutPresence(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	connect(t, s, "c")
	require.NoError(t, s.JoinRoom(ctx, &JoinRoomParams{ConnId: "c", RoomId: "r1"}))

	// never announced presence: nothing to decrement, nothing to broadcast
	disconnectResp, err := s.Disconnect(ctx, &DisconnectParams{ConnId: "c"})
	require.NoError(t, err)
	assert.Empty(t, disconnectResp.Rooms)
}

func TestRoomStats(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	connect(t, s, "a")
	connect(t, s, "b")
	connect(t, s, "c")
	require.NoError(t, s.JoinRoom(ctx, &JoinRoomParams{ConnId: "a", RoomId: "r1"}))
	require.NoError(t, s.JoinRoom(ctx, &JoinRoomParams{ConnId: "b", RoomId: "r1"}))

	stats := s.RoomStats(ctx, "r1")
	assert.Equal(t, 2, stats.RoomSize)
	assert.Equal(t, 3, stats.ConnectedClients)
}
