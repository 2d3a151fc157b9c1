package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/watchroom/server/internal/service/relay"
	"github.com/watchroom/server/pkg/wsrouter"
)

func (c *controller) getWSMux() *wsrouter.WSRouter {
	mux := wsrouter.New()

	mux.Use(c.wsMessageIdWSMw())
	mux.Use(c.loggerWSMw())

	// membership and presence
	mux.Handle("join-room", typedHandler(c, c.handleJoinRoom))
	mux.Handle("presence-join", typedHandler(c, c.handlePresenceJoin))
	mux.Handle("leave-room", typedHandler(c, c.handleLeaveRoom))

	// playback sync
	mux.Handle("sync-ping", c.handleSyncPing)
	mux.Handle("sync-command", typedHandler(c, c.handleSyncCommand))
	mux.Handle("change-video", typedHandler(c, c.handleChangeVideo))

	// queue relay
	mux.Handle("queue-updated", typedHandler(c, c.handleQueueUpdated))
	mux.Handle("queue-removed", typedHandler(c, c.handleQueueRemoved))

	return mux
}

type JoinRoomInput struct {
	RoomId string `json:"roomId" validate:"required"`
}

func (c controller) handleJoinRoom(ctx context.Context, conn *websocket.Conn, input JoinRoomInput) error {
	connId := c.getConnIdFromCtx(ctx)

	if err := c.relayService.JoinRoom(ctx, &relay.JoinRoomParams{
		ConnId: connId,
		RoomId: input.RoomId,
	}); err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}

	return nil
}

type PresenceUserInput struct {
	Id    string  `json:"id" validate:"required"`
	Name  *string `json:"name"`
	Image *string `json:"image"`
}

type PresenceJoinInput struct {
	RoomId string             `json:"roomId" validate:"required"`
	User   *PresenceUserInput `json:"user" validate:"required"`
}

func (c controller) handlePresenceJoin(ctx context.Context, conn *websocket.Conn, input PresenceJoinInput) error {
	connId := c.getConnIdFromCtx(ctx)

	presenceJoinResp, err := c.relayService.PresenceJoin(ctx, &relay.PresenceJoinParams{
		ConnId: connId,
		RoomId: input.RoomId,
		UserId: input.User.Id,
		Name:   input.User.Name,
		Image:  input.User.Image,
	})
	if err != nil {
		return fmt.Errorf("failed to join presence: %w", err)
	}

	c.broadcast(ctx, presenceJoinResp.Conns, &Output{
		Type:    "room-presence",
		Payload: presenceJoinResp.Members,
	})

	return nil
}

type LeaveRoomInput struct {
	RoomId string `json:"roomId" validate:"required"`
	UserId string `json:"userId" validate:"required"`
}

func (c controller) handleLeaveRoom(ctx context.Context, conn *websocket.Conn, input LeaveRoomInput) error {
	connId := c.getConnIdFromCtx(ctx)

	leaveRoomResp, err := c.relayService.LeaveRoom(ctx, &relay.LeaveRoomParams{
		ConnId: connId,
		RoomId: input.RoomId,
		UserId: input.UserId,
	})
	if err != nil {
		return fmt.Errorf("failed to leave room: %w", err)
	}

	c.broadcast(ctx, leaveRoomResp.Conns, &Output{
		Type:    "room-presence",
		Payload: leaveRoomResp.Members,
	})

	return nil
}

// handleSyncPing answers the sender immediately with the server clock for
// client-side offset estimation. The client timestamp in the payload, when
// present, is ignored.
func (c controller) handleSyncPing(ctx context.Context, _ *websocket.Conn, _ json.RawMessage) error {
	connId := c.getConnIdFromCtx(ctx)

	conn, err := c.relayService.GetConn(ctx, connId)
	if err != nil {
		return fmt.Errorf("failed to get conn: %w", err)
	}

	if err := c.writeToConn(ctx, conn, &Output{
		Type:    "sync-pong",
		Payload: time.Now().UnixMilli(),
	}); err != nil {
		return fmt.Errorf("failed to write sync-pong: %w", err)
	}

	return nil
}

type SyncCommandInput struct {
	RoomId    string  `json:"roomId" validate:"required"`
	Cmd       string  `json:"cmd" validate:"required,oneof=play pause"`
	Timestamp int64   `json:"timestamp"`
	SeekTime  float64 `json:"seekTime"`
}

func (c controller) handleSyncCommand(ctx context.Context, conn *websocket.Conn, input SyncCommandInput) error {
	connId := c.getConnIdFromCtx(ctx)

	syncCommandResp, err := c.relayService.SyncCommand(ctx, &relay.SyncCommandParams{
		ConnId:    connId,
		RoomId:    input.RoomId,
		Cmd:       input.Cmd,
		Timestamp: input.Timestamp,
		SeekTime:  input.SeekTime,
	})
	if err != nil {
		return fmt.Errorf("failed to relay sync command: %w", err)
	}

	c.broadcast(ctx, syncCommandResp.Conns, &Output{
		Type: "sync-command",
		Payload: map[string]any{
			"cmd":       input.Cmd,
			"timestamp": input.Timestamp,
			"seekTime":  input.SeekTime,
		},
	})

	return nil
}

type ChangeVideoInput struct {
	RoomId     string `json:"roomId" validate:"required"`
	NewVideoId string `json:"newVideoId" validate:"required"`
}

func (c controller) handleChangeVideo(ctx context.Context, conn *websocket.Conn, input ChangeVideoInput) error {
	connId := c.getConnIdFromCtx(ctx)

	changeVideoResp, err := c.relayService.ChangeVideo(ctx, &relay.ChangeVideoParams{
		ConnId:     connId,
		RoomId:     input.RoomId,
		NewVideoId: input.NewVideoId,
	})
	if err != nil {
		return fmt.Errorf("failed to relay video change: %w", err)
	}

	c.broadcast(ctx, changeVideoResp.Conns, &Output{
		Type:    "video-changed",
		Payload: input.NewVideoId,
	})

	return nil
}

type QueueItemInput struct {
	VideoId   string  `json:"videoId" validate:"required"`
	Title     string  `json:"title" validate:"required"`
	Thumbnail *string `json:"thumbnail"`
}

type QueueUpdatedInput struct {
	RoomId string          `json:"roomId" validate:"required"`
	Item   *QueueItemInput `json:"item" validate:"required"`
}

func (c controller) handleQueueUpdated(ctx context.Context, conn *websocket.Conn, input QueueUpdatedInput) error {
	connId := c.getConnIdFromCtx(ctx)

	item := relay.QueueItem{
		VideoId:   input.Item.VideoId,
		Title:     input.Item.Title,
		Thumbnail: input.Item.Thumbnail,
	}

	queueUpdatedResp, err := c.relayService.QueueUpdated(ctx, &relay.QueueUpdatedParams{
		ConnId: connId,
		RoomId: input.RoomId,
		Item:   item,
	})
	if err != nil {
		return fmt.Errorf("failed to relay queue update: %w", err)
	}

	c.broadcast(ctx, queueUpdatedResp.Conns, &Output{
		Type:    "queue-updated",
		Payload: item,
	})

	return nil
}

type QueueRemovedInput struct {
	RoomId string `json:"roomId" validate:"required"`
	ItemId string `json:"itemId" validate:"required"`
}

func (c controller) handleQueueRemoved(ctx context.Context, conn *websocket.Conn, input QueueRemovedInput) error {
	connId := c.getConnIdFromCtx(ctx)

	queueRemovedResp, err := c.relayService.QueueRemoved(ctx, &relay.QueueRemovedParams{
		ConnId: connId,
		RoomId: input.RoomId,
		ItemId: input.ItemId,
	})
	if err != nil {
		return fmt.Errorf("failed to relay queue removal: %w", err)
	}

	c.broadcast(ctx, queueRemovedResp.Conns, &Output{
		Type:    "queue-removed",
		Payload: input.ItemId,
	})

	return nil
}
