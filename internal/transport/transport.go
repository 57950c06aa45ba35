// Package transport carries MCP JSON-RPC messages between the agent host
// and the mcp.Server: newline-delimited stdio, or HTTP via Fiber.
package transport

import (
	"context"

	"github.com/p-blackswan/telegram-mcp/internal/mcp"
	"github.com/p-blackswan/telegram-mcp/internal/metrics"
)

// Handler handles one raw JSON-RPC message. A nil response means no reply
// is due (notification). method is empty when the message did not parse.
type Handler interface {
	HandleMessage(ctx context.Context, raw []byte) (resp *mcp.Response, method string)
}

func recordRPC(m *metrics.Metrics, method, transport string) {
	if m == nil {
		return
	}
	if method == "" {
		method = "invalid"
	}
	m.RecordRPC(method, transport)
}
