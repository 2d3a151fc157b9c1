package relay

import (
	"context"

	"github.com/watchroom/server/internal/repository/connection"
	"github.com/watchroom/server/internal/repository/presence"
)

type ConnectParams struct {
	Conn   *connection.Conn
	ConnId string
}

func (s service) Connect(ctx context.Context, params *ConnectParams) error {
	if err := s.connRepo.Create(params.ConnId, params.Conn); err != nil {
		// connect is idempotent: a second create for a live connection is fine
		s.logger.DebugContext(ctx, "connection already registered", "error", err)
		return nil
	}

	return nil
}

type JoinRoomParams struct {
	ConnId string
	RoomId string
}

// JoinRoom records membership only. Presence is a separate, explicit channel
// announced via PresenceJoin; joining emits nothing.
func (s service) JoinRoom(ctx context.Context, params *JoinRoomParams) error {
	s.connRepo.AddRoom(params.ConnId, params.RoomId)

	s.logger.DebugContext(ctx, "joined room",
		"room_id", params.RoomId,
		"room_size", s.connRepo.CountRoomConns(params.RoomId),
	)

	return nil
}

type PresenceJoinParams struct {
	ConnId string
	RoomId string
	UserId string
	Name   *string
	Image  *string
}

type PresenceJoinResponse struct {
	Members []Member
	Conns   []*connection.Conn
}

func (s service) PresenceJoin(ctx context.Context, params *PresenceJoinParams) (PresenceJoinResponse, error) {
	s.connRepo.AddRoom(params.ConnId, params.RoomId)

	if err := s.connRepo.SetUserId(params.ConnId, params.UserId); err != nil {
		s.logger.InfoContext(ctx, "failed to set user id", "error", err)
		return PresenceJoinResponse{}, ErrConnNotFound
	}

	s.presenceRepo.Increment(params.RoomId, params.UserId, params.Name, params.Image)

	return PresenceJoinResponse{
		Members: s.roomMembers(params.RoomId),
		Conns:   s.connRepo.GetRoomConns(params.RoomId),
	}, nil
}

type LeaveRoomParams struct {
	ConnId string
	RoomId string
	UserId string
}

type LeaveRoomResponse struct {
	Members []Member
	Conns   []*connection.Conn
}

// LeaveRoom drops the sender's membership and decrements presence for the
// caller-supplied user id.
// TODO: decide whether UserId must match the id recorded by PresenceJoin; as
// relayed today a client can decrement another user's count.
func (s service) LeaveRoom(ctx context.Context, params *LeaveRoomParams) (LeaveRoomResponse, error) {
	s.connRepo.RemoveRoom(params.ConnId, params.RoomId)
	s.presenceRepo.Decrement(params.RoomId, params.UserId)

	return LeaveRoomResponse{
		Members: s.roomMembers(params.RoomId),
		Conns:   s.connRepo.GetRoomConns(params.RoomId),
	}, nil
}

type DisconnectParams struct {
	ConnId string
}

type RoomPresence struct {
	RoomId  string
	Members []Member
	Conns   []*connection.Conn
}

type DisconnectResponse struct {
	Rooms []RoomPresence
}

// Disconnect tears the connection entry down and, when the connection had an
// announced identity, decrements presence in every room it belonged to. The
// returned rooms carry the updated snapshots to re-broadcast.
func (s service) Disconnect(ctx context.Context, params *DisconnectParams) (DisconnectResponse, error) {
	userId, rooms := s.connRepo.Remove(params.ConnId)
	if userId == "" {
		return DisconnectResponse{}, nil
	}

	updated := make([]RoomPresence, 0, len(rooms))
	for _, roomId := range rooms {
		s.presenceRepo.Decrement(roomId, userId)

		updated = append(updated, RoomPresence{
			RoomId:  roomId,
			Members: s.roomMembers(roomId),
			Conns:   s.connRepo.GetRoomConns(roomId),
		})
	}

	return DisconnectResponse{Rooms: updated}, nil
}

type RoomStatsResponse struct {
	RoomSize         int `json:"room_size"`
	ConnectedClients int `json:"connected_clients"`
}

func (s service) RoomStats(ctx context.Context, roomId string) RoomStatsResponse {
	return RoomStatsResponse{
		RoomSize:         s.connRepo.CountRoomConns(roomId),
		ConnectedClients: s.connRepo.CountConns(),
	}
}

func (s service) roomMembers(roomId string) []Member {
	snapshot := s.presenceRepo.Snapshot(roomId)

	members := make([]Member, 0, len(snapshot))
	for _, user := range snapshot {
		members = append(members, memberFromPresence(user))
	}

	return members
}

func memberFromPresence(user presence.User) Member {
	return Member{
		Id:    user.Id,
		Name:  user.Name,
		Image: user.Image,
	}
}
