package controller

import (
	"context"
	"encoding/json"

	"github.com/watchroom/server/internal/repository/connection"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

func (c controller) writeToConn(ctx context.Context, conn *connection.Conn, output *Output) error {
	data, err := json.Marshal(output)
	if err != nil {
		return err
	}

	return conn.Send(data)
}

// broadcast marshals the output once and enqueues it on every recipient. One
// recipient's failure never aborts delivery to the rest.
func (c controller) broadcast(ctx context.Context, conns []*connection.Conn, output *Output) {
	data, err := json.Marshal(output)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to marshal output", "error", err, "type", output.Type)
		return
	}

	for _, conn := range conns {
		if err := conn.Send(data); err != nil {
			c.logger.DebugContext(ctx, "failed to send to conn", "error", err, "type", output.Type)
		}
	}
}
