package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
)

// Server routes JSON-RPC requests to the tool handler.
type Server struct {
	tools  ToolHandler
	info   ServerInfo
	logger zerolog.Logger
}

// NewServer creates a new MCP server around tools.
func NewServer(info ServerInfo, tools ToolHandler, logger zerolog.Logger) (*Server, error) {
	if tools == nil {
		return nil, fmt.Errorf("tool handler cannot be nil")
	}
	if info.Name == "" {
		return nil, fmt.Errorf("server name cannot be empty")
	}
	return &Server{
		tools:  tools,
		info:   info,
		logger: logger.With().Str("component", "mcp").Logger(),
	}, nil
}

// Initialize handles the MCP initialization handshake.
func (s *Server) Initialize(ctx context.Context) *InitializeResponse {
	return &InitializeResponse{
		ProtocolVersion: ProtocolVersion,
		Capabilities: map[string]any{
			"tools": map[string]bool{"listChanged": false},
		},
		ServerInfo: s.info,
	}
}

// Handle processes one request. It returns nil for notifications.
func (s *Server) Handle(ctx context.Context, req Request) *Response {
	if req.IsNotification() {
		s.logger.Debug().Str("method", req.Method).Msg("notification received")
		return nil
	}
	if req.JSONRPC != JSONRPCVersion {
		return NewErrorResponse(req.ID, ErrorCodeInvalidRequest, "Invalid Request",
			fmt.Sprintf("unsupported jsonrpc version %q", req.JSONRPC))
	}

	switch req.Method {
	case MethodInitialize:
		return s.result(req.ID, s.Initialize(ctx))
	case MethodPing:
		return s.result(req.ID, map[string]any{})
	case MethodToolsList:
		return s.result(req.ID, map[string][]Tool{"tools": s.tools.ListTools(ctx)})
	case MethodToolsCall:
		params, err := parseToolCallParams(req.Params)
		if err != nil {
			return NewErrorResponse(req.ID, ErrorCodeInvalidParams, "Invalid tool call parameters", err.Error())
		}
		return s.result(req.ID, s.tools.CallTool(ctx, params))
	default:
		return NewErrorResponse(req.ID, ErrorCodeMethodNotFound, fmt.Sprintf("Method %s not found", req.Method), nil)
	}
}

// HandleMessage decodes a raw JSON-RPC message and handles it. Malformed
// input yields a parse error carrying whatever id could be recovered.
func (s *Server) HandleMessage(ctx context.Context, raw []byte) (*Response, string) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(recoverID(raw), ErrorCodeParseError, "Parse error", err.Error()), ""
	}
	return s.Handle(ctx, req), req.Method
}

func (s *Server) result(id any, result any) *Response {
	return &Response{JSONRPC: JSONRPCVersion, ID: id, Result: result}
}

func parseToolCallParams(raw json.RawMessage) (ToolCallParams, error) {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return ToolCallParams{}, fmt.Errorf("params cannot be nil")
	}

	var p struct {
		Name      *string         `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return ToolCallParams{}, fmt.Errorf("params must be an object: %w", err)
	}
	if p.Name == nil {
		return ToolCallParams{}, fmt.Errorf("name parameter is required and must be a string")
	}

	params := ToolCallParams{Name: *p.Name}
	args := bytes.TrimSpace(p.Arguments)
	if len(args) == 0 || bytes.Equal(args, []byte("null")) {
		return params, nil
	}

	dec := json.NewDecoder(bytes.NewReader(args))
	dec.UseNumber()
	if err := dec.Decode(&params.Arguments); err != nil {
		return ToolCallParams{}, fmt.Errorf("arguments must be an object: %w", err)
	}
	return params, nil
}

// recoverID extracts "id" from a message that failed strict decoding.
func recoverID(raw []byte) any {
	var partial map[string]any
	if json.Unmarshal(raw, &partial) == nil {
		if id, ok := partial["id"]; ok && id != nil {
			return id
		}
	}
	return nil
}
