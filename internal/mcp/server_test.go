package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTools records the last call and echoes the tool name.
type fakeTools struct {
	last *ToolCallParams
}

func (f *fakeTools) ListTools(_ context.Context) []Tool {
	return []Tool{{Name: "echo", Description: "fake", InputSchema: InputSchema{Type: "object"}}}
}

func (f *fakeTools) CallTool(_ context.Context, params ToolCallParams) ToolResponse {
	f.last = &params
	return TextResponse("called " + params.Name)
}

func newTestServer(t *testing.T) (*Server, *fakeTools) {
	t.Helper()
	tools := &fakeTools{}
	s, err := NewServer(ServerInfo{Name: "test", Version: "0.0.1"}, tools, zerolog.Nop())
	require.NoError(t, err)
	return s, tools
}

func roundTrip(t *testing.T, s *Server, msg string) map[string]any {
	t.Helper()
	resp, _ := s.HandleMessage(context.Background(), []byte(msg))
	require.NotNil(t, resp)
	b, err := json.Marshal(resp)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	return out
}

func TestNewServer_Validation(t *testing.T) {
	_, err := NewServer(ServerInfo{Name: "x"}, nil, zerolog.Nop())
	assert.Error(t, err)

	_, err = NewServer(ServerInfo{}, &fakeTools{}, zerolog.Nop())
	assert.Error(t, err)
}

func TestServer_Initialize(t *testing.T) {
	s, _ := newTestServer(t)
	out := roundTrip(t, s, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`)

	result := out["result"].(map[string]any)
	assert.Equal(t, ProtocolVersion, result["protocolVersion"])
	assert.Equal(t, "test", result["serverInfo"].(map[string]any)["name"])
	assert.Contains(t, result["capabilities"], "tools")
	assert.EqualValues(t, 1, out["id"])
}

func TestServer_Ping(t *testing.T) {
	s, _ := newTestServer(t)
	out := roundTrip(t, s, `{"jsonrpc":"2.0","id":"p1","method":"ping"}`)
	assert.Equal(t, "p1", out["id"])
	assert.Equal(t, map[string]any{}, out["result"])
}

func TestServer_ToolsList(t *testing.T) {
	s, _ := newTestServer(t)
	out := roundTrip(t, s, `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)

	tools := out["result"].(map[string]any)["tools"].([]any)
	require.Len(t, tools, 1)
	assert.Equal(t, "echo", tools[0].(map[string]any)["name"])
}

func TestServer_ToolsCall(t *testing.T) {
	s, tools := newTestServer(t)
	out := roundTrip(t, s, `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"echo","arguments":{"chat_id":"@c","message_id":45}}}`)

	content := out["result"].(map[string]any)["content"].([]any)
	require.Len(t, content, 1)
	assert.Equal(t, "called echo", content[0].(map[string]any)["text"])

	require.NotNil(t, tools.last)
	assert.Equal(t, "@c", tools.last.Arguments["chat_id"])
	assert.Equal(t, json.Number("45"), tools.last.Arguments["message_id"])
}

func TestServer_ToolsCall_NoArguments(t *testing.T) {
	s, tools := newTestServer(t)

	roundTrip(t, s, `{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"echo"}}`)
	require.NotNil(t, tools.last)
	assert.Nil(t, tools.last.Arguments)

	roundTrip(t, s, `{"jsonrpc":"2.0","id":5,"method":"tools/call","params":{"name":"echo","arguments":null}}`)
	assert.Nil(t, tools.last.Arguments)

	roundTrip(t, s, `{"jsonrpc":"2.0","id":6,"method":"tools/call","params":{"name":"echo","arguments":{}}}`)
	assert.NotNil(t, tools.last.Arguments)
	assert.Empty(t, tools.last.Arguments)
}

func TestServer_ToolsCall_InvalidParams(t *testing.T) {
	s, _ := newTestServer(t)

	cases := []string{
		`{"jsonrpc":"2.0","id":7,"method":"tools/call"}`,
		`{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{}}`,
		`{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":42}}`,
		`{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"echo","arguments":"x"}}`,
	}
	for _, msg := range cases {
		out := roundTrip(t, s, msg)
		errObj, ok := out["error"].(map[string]any)
		require.True(t, ok, msg)
		assert.EqualValues(t, ErrorCodeInvalidParams, errObj["code"], msg)
	}
}

func TestServer_MethodNotFound(t *testing.T) {
	s, _ := newTestServer(t)
	out := roundTrip(t, s, `{"jsonrpc":"2.0","id":8,"method":"resources/list"}`)
	errObj := out["error"].(map[string]any)
	assert.EqualValues(t, ErrorCodeMethodNotFound, errObj["code"])
	assert.Contains(t, errObj["message"], "resources/list")
}

func TestServer_InvalidVersion(t *testing.T) {
	s, _ := newTestServer(t)
	out := roundTrip(t, s, `{"jsonrpc":"1.0","id":9,"method":"ping"}`)
	assert.EqualValues(t, ErrorCodeInvalidRequest, out["error"].(map[string]any)["code"])
}

func TestServer_Notification(t *testing.T) {
	s, _ := newTestServer(t)
	resp, method := s.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`))
	assert.Nil(t, resp)
	assert.Equal(t, "notifications/initialized", method)
}

func TestServer_ParseError(t *testing.T) {
	s, _ := newTestServer(t)

	out := roundTrip(t, s, `{not json`)
	assert.EqualValues(t, ErrorCodeParseError, out["error"].(map[string]any)["code"])
	assert.Nil(t, out["id"])

	out = roundTrip(t, s, `{"jsonrpc":"2.0","id":11,"method":5}`)
	assert.EqualValues(t, ErrorCodeParseError, out["error"].(map[string]any)["code"])
	assert.EqualValues(t, 11, out["id"])
}
