// Package mcp implements the Model Context Protocol surface of the adapter:
// JSON-RPC 2.0 envelopes, tool types and method routing.
package mcp

import (
	"context"
	"encoding/json"
)

// Constants for MCP protocol
const (
	ProtocolVersion = "2025-03-26"
	JSONRPCVersion  = "2.0"
)

// JSON-RPC 2.0 error codes
const (
	ErrorCodeParseError     = -32700
	ErrorCodeInvalidRequest = -32600
	ErrorCodeMethodNotFound = -32601
	ErrorCodeInvalidParams  = -32602
	ErrorCodeInternalError  = -32603
)

// Method names served by Server.
const (
	MethodInitialize = "initialize"
	MethodPing       = "ping"
	MethodToolsList  = "tools/list"
	MethodToolsCall  = "tools/call"
)

// ContentTypeText is the only content block type the adapter emits.
const ContentTypeText = "text"

type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type InitializeResponse struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ServerInfo      ServerInfo     `json:"serverInfo"`
}

// Request is a JSON-RPC 2.0 request or notification (ID == nil).
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	ID      any             `json:"id,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether no response is expected.
func (r Request) IsNotification() bool { return r.ID == nil }

type Response struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      any            `json:"id"`
	Result  any            `json:"result,omitempty"`
	Error   *ErrorResponse `json:"error,omitempty"`
}

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// NewErrorResponse builds a JSON-RPC error reply.
func NewErrorResponse(id any, code int, message string, data any) *Response {
	return &Response{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error:   &ErrorResponse{Code: code, Message: message, Data: data},
	}
}

// Tool-related types
type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"inputSchema"`
}

type InputSchema struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties,omitempty"`
	Required   []string       `json:"required,omitempty"`
}

type ToolCallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolResponse is the tool-call result envelope.
type ToolResponse struct {
	Content []ContentItem `json:"content"`
}

type ContentItem struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// TextResponse wraps text as the single content block of a ToolResponse.
func TextResponse(text string) ToolResponse {
	return ToolResponse{Content: []ContentItem{{Type: ContentTypeText, Text: text}}}
}

// ToolHandler lists and invokes tools. CallTool never fails at the
// protocol level: tool failures are reported inside the ToolResponse.
type ToolHandler interface {
	// ListTools returns all available tools.
	ListTools(ctx context.Context) []Tool
	// CallTool executes a tool. args is nil when the caller supplied none.
	CallTool(ctx context.Context, params ToolCallParams) ToolResponse
}
