package transport

import (
	"context"
	"encoding/json"

	"github.com/p-blackswan/telegram-mcp/internal/mcp"
)

// fakeHandler answers every request with its method name. Requests for
// "slow" signal started and then block until release is closed.
type fakeHandler struct {
	release chan struct{}
	started chan struct{}
}

func (f *fakeHandler) HandleMessage(ctx context.Context, raw []byte) (*mcp.Response, string) {
	var msg struct {
		ID     any    `json:"id"`
		Method string `json:"method"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		return mcp.NewErrorResponse(nil, mcp.ErrorCodeParseError, "Parse error", nil), ""
	}
	if msg.ID == nil {
		return nil, msg.Method
	}
	if msg.Method == "slow" && f.release != nil {
		if f.started != nil {
			f.started <- struct{}{}
		}
		select {
		case <-f.release:
		case <-ctx.Done():
		}
	}
	return &mcp.Response{
		JSONRPC: mcp.JSONRPCVersion,
		ID:      msg.ID,
		Result:  map[string]string{"method": msg.Method},
	}, msg.Method
}

// fakeTools is a minimal mcp.ToolHandler for end-to-end tests.
type fakeTools struct{}

func (fakeTools) ListTools(context.Context) []mcp.Tool {
	return []mcp.Tool{{Name: "echo", InputSchema: mcp.InputSchema{Type: "object"}}}
}

func (fakeTools) CallTool(_ context.Context, p mcp.ToolCallParams) mcp.ToolResponse {
	return mcp.TextResponse("called " + p.Name)
}
