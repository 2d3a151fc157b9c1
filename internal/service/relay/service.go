package relay

import (
	"context"
	"errors"
	"log/slog"

	"github.com/watchroom/server/internal/repository/connection"
	"github.com/watchroom/server/internal/repository/presence"
)

var (
	ErrNotRoomMember = errors.New("not a room member")
	ErrConnNotFound  = errors.New("connection not found")
)

type iConnRepo interface {
	Create(connId string, conn *connection.Conn) error
	Remove(connId string) (string, []string)
	AddRoom(connId string, roomId string)
	RemoveRoom(connId string, roomId string)
	SetUserId(connId string, userId string) error
	IsMember(connId string, roomId string) bool
	GetConn(connId string) (*connection.Conn, error)
	GetRoomConns(roomId string) []*connection.Conn
	GetRoomConnsExcept(roomId string, exceptConnId string) []*connection.Conn
	CountConns() int
	CountRoomConns(roomId string) int
}

type iPresenceRepo interface {
	Increment(roomId string, userId string, name, image *string)
	Decrement(roomId string, userId string)
	Snapshot(roomId string) []presence.User
}

type service struct {
	connRepo     iConnRepo
	presenceRepo iPresenceRepo
	logger       *slog.Logger
}

func NewService(connRepo iConnRepo, presenceRepo iPresenceRepo, logger *slog.Logger) *service {
	return &service{
		connRepo:     connRepo,
		presenceRepo: presenceRepo,
		logger:       logger,
	}
}

// checkMembership is the gate for room-scoped relayed events. Misses are
// reported to the caller, never to the sender.
func (s service) checkMembership(connId string, roomId string) error {
	if !s.connRepo.IsMember(connId, roomId) {
		return ErrNotRoomMember
	}

	return nil
}

// GetConn resolves the outbound side of a registered connection, for replies
// addressed to the sender alone.
func (s service) GetConn(ctx context.Context, connId string) (*connection.Conn, error) {
	conn, err := s.connRepo.GetConn(connId)
	if err != nil {
		s.logger.DebugContext(ctx, "failed to get conn", "error", err)
		return nil, ErrConnNotFound
	}

	return conn, nil
}
