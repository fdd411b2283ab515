package daemon

import (
	"context"

	"github.com/gorilla/websocket"

	"skypanel/metrics"
	"skypanel/model"
)

type authFrame struct {
	Event string   `json:"event"`
	Args  []string `json:"args"`
}

// DialConsole opens the node's exec websocket for a container and
// sends the single authentication frame. Every frame after that is
// opaque console bytes in both directions.
func (c *Client) DialConsole(ctx context.Context, node *model.Node, containerID string) (*websocket.Conn, error) {
	metrics.NodeRequests.WithLabelValues("console").Inc()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, "ws://"+node.Addr()+"/exec/"+containerID, nil)
	if err != nil {
		metrics.NodeRequestErrors.WithLabelValues("console").Inc()
		return nil, &UnreachableError{Node: node.ID, Err: err}
	}

	if err := conn.WriteJSON(authFrame{Event: "auth", Args: []string{node.APIKey}}); err != nil {
		conn.Close()
		metrics.NodeRequestErrors.WithLabelValues("console").Inc()
		return nil, &UnreachableError{Node: node.ID, Err: err}
	}
	return conn, nil
}
