package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/p-blackswan/telegram-mcp/internal/errors"
	"github.com/p-blackswan/telegram-mcp/internal/metrics"
)

const testToken = "12345:TESTTOKEN"

type capturedRequest struct {
	Path        string
	Method      string
	ContentType string
	Form        url.Values
}

func setupTestServer(t *testing.T, body string) (*Client, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.Path = r.URL.Path
		captured.Method = r.Method
		captured.ContentType = r.Header.Get("Content-Type")
		assert.NoError(t, r.ParseForm())
		captured.Form = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)

	client := NewClient(testToken,
		WithAPIBaseURL(server.URL),
		WithHTTPClient(server.Client()),
		WithLogger(zerolog.Nop()),
	)
	return client, captured
}

func TestClient_SendMessage_MinimalPayload(t *testing.T) {
	resp := `{"ok":true,"result":{"message_id":7,"text":"hi"}}`
	client, captured := setupTestServer(t, resp)

	out, err := client.SendMessage(context.Background(), "@chan", "hi", "")
	require.NoError(t, err)

	assert.Equal(t, "/bot"+testToken+"/sendMessage", captured.Path)
	assert.Equal(t, http.MethodPost, captured.Method)
	assert.Equal(t, "application/x-www-form-urlencoded", captured.ContentType)
	assert.Equal(t, url.Values{"chat_id": {"@chan"}, "text": {"hi"}}, captured.Form)
	assert.JSONEq(t, resp, string(out))
}

func TestClient_SendMessage_WithParseMode(t *testing.T) {
	client, captured := setupTestServer(t, `{"ok":true}`)

	_, err := client.SendMessage(context.Background(), "-100123", "*bold*", ParseModeMarkdownV2)
	require.NoError(t, err)
	assert.Equal(t, url.Values{
		"chat_id":    {"-100123"},
		"text":       {"*bold*"},
		"parse_mode": {"MarkdownV2"},
	}, captured.Form)
}

func TestClient_SetMessageReaction_IsBigOnly(t *testing.T) {
	client, captured := setupTestServer(t, `{"ok":true,"result":true}`)

	big := true
	_, err := client.SetMessageReaction(context.Background(), "123", 45, nil, &big)
	require.NoError(t, err)

	assert.Equal(t, "/bot"+testToken+"/setMessageReaction", captured.Path)
	assert.Equal(t, url.Values{
		"chat_id":    {"123"},
		"message_id": {"45"},
		"is_big":     {"True"},
	}, captured.Form)
}

func TestClient_SetMessageReaction_Full(t *testing.T) {
	client, captured := setupTestServer(t, `{"ok":true,"result":true}`)

	big := false
	_, err := client.SetMessageReaction(context.Background(), "@chan", 9001, EmojiReaction("🔥"), &big)
	require.NoError(t, err)

	assert.Equal(t, "9001", captured.Form.Get("message_id"))
	assert.Equal(t, "False", captured.Form.Get("is_big"))
	assert.JSONEq(t, `{"type":"emoji","emoji":"🔥"}`, captured.Form.Get("reaction"))
}

func TestClient_SetMessageReaction_NoOptionals(t *testing.T) {
	client, captured := setupTestServer(t, `{"ok":true,"result":true}`)

	_, err := client.SetMessageReaction(context.Background(), "1", 2, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, url.Values{"chat_id": {"1"}, "message_id": {"2"}}, captured.Form)
}

func TestClient_ErrorEnvelopePassedThrough(t *testing.T) {
	resp := `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, resp)
	}))
	defer server.Close()

	client := NewClient(testToken, WithAPIBaseURL(server.URL))
	out, err := client.SendMessage(context.Background(), "nope", "hi", "")
	require.NoError(t, err) // status is not inspected
	assert.JSONEq(t, resp, string(out))
}

func TestClient_NonJSONResponse(t *testing.T) {
	client, _ := setupTestServer(t, "<html>bad gateway</html>")

	_, err := client.SendMessage(context.Background(), "1", "hi", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, perrors.ErrInvalidResponse)
}

func TestClient_TransportErrorRedactsToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := server.URL
	server.Close() // connection refused from here on

	client := NewClient(testToken, WithAPIBaseURL(base))
	_, err := client.SendMessage(context.Background(), "1", "hi", "")
	require.Error(t, err)

	var apiErr *perrors.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "sendMessage", apiErr.Method)
	assert.NotContains(t, err.Error(), testToken)
	assert.Contains(t, err.Error(), "<redacted>")
}

func TestClient_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client := NewClient(testToken, WithAPIBaseURL(server.URL))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.SendMessage(ctx, "1", "hi", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_GetMe(t *testing.T) {
	client, captured := setupTestServer(t, `{"ok":true,"result":{"id":42,"is_bot":true,"first_name":"Ops","username":"ops_bot"}}`)

	me, err := client.GetMe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/bot"+testToken+"/getMe", captured.Path)
	assert.Equal(t, int64(42), me.ID)
	assert.Equal(t, "ops_bot", me.Username)
}

func TestClient_GetMe_NotOK(t *testing.T) {
	client, _ := setupTestServer(t, `{"ok":false,"error_code":401,"description":"Unauthorized"}`)

	_, err := client.GetMe(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unauthorized")
}

func TestClient_RecordsMetrics(t *testing.T) {
	m := metrics.New()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"ok":true}`)
	}))
	defer server.Close()

	client := NewClient(testToken, WithAPIBaseURL(server.URL), WithMetrics(m))
	_, err := client.SendMessage(context.Background(), "1", "hi", "")
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rr.Body.String(), `telegram_mcp_api_requests_total{method="sendMessage",outcome="ok"} 1`)
}

func TestNewClient_DefaultBaseURL(t *testing.T) {
	client := NewClient(testToken)
	assert.Equal(t, "https://api.telegram.org/bot"+testToken, client.baseURL)

	client = NewClient(testToken, WithAPIBaseURL("http://localhost:8081/"))
	assert.Equal(t, "http://localhost:8081/bot"+testToken, client.baseURL)
}

func TestReactionEmoji(t *testing.T) {
	assert.True(t, IsReactionEmoji("👍"))
	assert.True(t, IsReactionEmoji("❤‍🔥"))
	assert.False(t, IsReactionEmoji("🦀"))
	assert.False(t, IsReactionEmoji(""))

	seen := make(map[string]bool, len(ReactionEmoji))
	for _, e := range ReactionEmoji {
		assert.False(t, seen[e], "duplicate emoji %q", e)
		seen[e] = true
	}
}

func TestReactionType_JSON(t *testing.T) {
	b, err := json.Marshal(EmojiReaction("👌"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), `{"type":"emoji"`))
}
