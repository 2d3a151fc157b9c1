package relay

import (
	"context"

	"github.com/watchroom/server/internal/repository/connection"
)

type SyncCommandParams struct {
	ConnId    string
	RoomId    string
	Cmd       string
	Timestamp int64
	SeekTime  float64
}

type SyncCommandResponse struct {
	Conns []*connection.Conn
}

// SyncCommand relays a play/pause command to everyone in the room but the
// sender. The sender applied the command locally already; echoing it back
// would make the client double-apply its own seek.
func (s service) SyncCommand(ctx context.Context, params *SyncCommandParams) (SyncCommandResponse, error) {
	if err := s.checkMembership(params.ConnId, params.RoomId); err != nil {
		return SyncCommandResponse{}, err
	}

	return SyncCommandResponse{
		Conns: s.connRepo.GetRoomConnsExcept(params.RoomId, params.ConnId),
	}, nil
}

type ChangeVideoParams struct {
	ConnId     string
	RoomId     string
	NewVideoId string
}

type ChangeVideoResponse struct {
	Conns []*connection.Conn
}

// ChangeVideo relays the new video id to the whole room, sender included: the
// sender's displayed video follows the broadcast path like everyone else's.
func (s service) ChangeVideo(ctx context.Context, params *ChangeVideoParams) (ChangeVideoResponse, error) {
	if err := s.checkMembership(params.ConnId, params.RoomId); err != nil {
		return ChangeVideoResponse{}, err
	}

	return ChangeVideoResponse{
		Conns: s.connRepo.GetRoomConns(params.RoomId),
	}, nil
}

type QueueUpdatedParams struct {
	ConnId string
	RoomId string
	Item   QueueItem
}

type QueueUpdatedResponse struct {
	Conns []*connection.Conn
}

func (s service) QueueUpdated(ctx context.Context, params *QueueUpdatedParams) (QueueUpdatedResponse, error) {
	if err := s.checkMembership(params.ConnId, params.RoomId); err != nil {
		return QueueUpdatedResponse{}, err
	}

	return QueueUpdatedResponse{
		Conns: s.connRepo.GetRoomConns(params.RoomId),
	}, nil
}

type QueueRemovedParams struct {
	ConnId string
	RoomId string
	ItemId string
}

type QueueRemovedResponse struct {
	Conns []*connection.Conn
}

func (s service) QueueRemoved(ctx context.Context, params *QueueRemovedParams) (QueueRemovedResponse, error) {
	if err := s.checkMembership(params.ConnId, params.RoomId); err != nil {
		return QueueRemovedResponse{}, err
	}

	return QueueRemovedResponse{
		Conns: s.connRepo.GetRoomConns(params.RoomId),
	}, nil
}
