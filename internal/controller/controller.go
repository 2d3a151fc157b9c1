package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/watchroom/server/internal/repository/connection"
	"github.com/watchroom/server/internal/service/relay"
	"github.com/watchroom/server/pkg/validator"
	"github.com/watchroom/server/pkg/wsrouter"
)

type iRelayService interface {
	Connect(context.Context, *relay.ConnectParams) error
	JoinRoom(context.Context, *relay.JoinRoomParams) error
	PresenceJoin(context.Context, *relay.PresenceJoinParams) (relay.PresenceJoinResponse, error)
	LeaveRoom(context.Context, *relay.LeaveRoomParams) (relay.LeaveRoomResponse, error)
	SyncCommand(context.Context, *relay.SyncCommandParams) (relay.SyncCommandResponse, error)
	ChangeVideo(context.Context, *relay.ChangeVideoParams) (relay.ChangeVideoResponse, error)
	QueueUpdated(context.Context, *relay.QueueUpdatedParams) (relay.QueueUpdatedResponse, error)
	QueueRemoved(context.Context, *relay.QueueRemovedParams) (relay.QueueRemovedResponse, error)
	Disconnect(context.Context, *relay.DisconnectParams) (relay.DisconnectResponse, error)
	RoomStats(ctx context.Context, roomId string) relay.RoomStatsResponse
	GetConn(ctx context.Context, connId string) (*connection.Conn, error)
}

type controller struct {
	relayService iRelayService
	upgrader     websocket.Upgrader
	validate     *validator.Validator
	wsmux        *wsrouter.WSRouter
	logger       *slog.Logger
}

func NewController(relayService iRelayService, allowedOrigin string, logger *slog.Logger) *controller {
	c := &controller{
		relayService: relayService,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "*" {
					return true
				}

				return r.Header.Get("Origin") == allowedOrigin
			},
		},
		validate: validator.New(),
		logger:   logger,
	}
	c.wsmux = c.getWSMux()

	return c
}
