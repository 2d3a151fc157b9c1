package controller

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/watchroom/server/internal/repository/connection"
	"github.com/watchroom/server/internal/service/relay"
	"github.com/watchroom/server/pkg/ctxlogger"
	"github.com/watchroom/server/pkg/wsrouter"
)

func (c controller) ws(w http.ResponseWriter, r *http.Request) {
	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}

	// all outbound writes go through the wrapped conn's writer goroutine
	wsConn := connection.NewConn(conn)
	defer wsConn.Close()

	connId := uuid.NewString()
	ctx := ctxlogger.AppendCtx(r.Context(), slog.String("conn_id", connId))

	if err := c.relayService.Connect(ctx, &relay.ConnectParams{
		Conn:   wsConn,
		ConnId: connId,
	}); err != nil {
		c.logger.WarnContext(ctx, "failed to register connection", "error", err)
		return
	}
	defer c.disconnect(ctx, connId)

	c.logger.InfoContext(ctx, "client connected")

	ctx = context.WithValue(ctx, connIdCtxKey, connId)

	if err := c.wsmux.ServeConn(ctx, conn); err != nil {
		c.logger.DebugContext(ctx, "connection closed", "error", err)
	}
}

// disconnect runs the presence teardown for a gone connection and re-announces
// presence in every room it contributed to.
func (c controller) disconnect(ctx context.Context, connId string) {
	disconnectResp, err := c.relayService.Disconnect(ctx, &relay.DisconnectParams{ConnId: connId})
	if err != nil {
		c.logger.WarnContext(ctx, "failed to disconnect", "error", err)
		return
	}

	for _, room := range disconnectResp.Rooms {
		c.broadcast(ctx, room.Conns, &Output{
			Type:    "room-presence",
			Payload: room.Members,
		})
	}

	c.logger.InfoContext(ctx, "client disconnected")
}

// typedHandler adapts a typed message handler to the wsrouter. Payloads that
// fail to decode or validate are dropped without a reply.
func typedHandler[T any](c *controller, handler func(context.Context, *websocket.Conn, T) error) wsrouter.HandlerFunc {
	return func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
		var input T
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &input); err != nil {
				c.logger.DebugContext(ctx, "failed to unmarshal payload", "error", err)
				return nil
			}
		}

		if validationErrors, ok := c.validate.Validate(input); !ok {
			c.logger.DebugContext(ctx, "invalid payload", "validation_errors", validationErrors)
			return nil
		}

		return handler(ctx, conn, input)
	}
}
