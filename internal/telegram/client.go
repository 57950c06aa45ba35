// Package telegram is a thin client for the Telegram Bot API.
// Each method builds a form-encoded payload, POSTs it and hands back the
// JSON body untouched; success or failure is the Bot API's own envelope.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	perrors "github.com/p-blackswan/telegram-mcp/internal/errors"
	"github.com/p-blackswan/telegram-mcp/internal/metrics"
)

// DefaultAPIBaseURL is the public Bot API host.
const DefaultAPIBaseURL = "https://api.telegram.org"

const serviceName = "telegram"

// HTTPClient abstracts HTTP calls for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client wraps the Bot API methods exposed as tools.
type Client struct {
	token      string
	baseURL    string
	httpClient HTTPClient
	logger     zerolog.Logger
	metrics    *metrics.Metrics
}

// Option configures Client.
type Option func(*Client)

// WithAPIBaseURL points the client at another Bot API server.
func WithAPIBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimSuffix(u, "/") + "/bot" + c.token
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc HTTPClient) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds every request. Zero keeps the default of no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithLogger sets the logger; entries carry component=telegram.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l.With().Str("component", "telegram").Logger() }
}

// WithMetrics records API request outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a Bot API client for token (e.g. "12345:ABCDEF...").
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		token:      token,
		baseURL:    DefaultAPIBaseURL + "/bot" + token,
		httpClient: &http.Client{},
		logger:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SendMessage calls sendMessage. parseMode is omitted from the payload when empty.
func (c *Client) SendMessage(ctx context.Context, chatID, text string, parseMode ParseMode) (json.RawMessage, error) {
	form := url.Values{}
	form.Set("chat_id", chatID)
	form.Set("text", text)
	if parseMode != "" {
		form.Set("parse_mode", string(parseMode))
	}
	return c.call(ctx, "sendMessage", form)
}

// SetMessageReaction calls setMessageReaction. reaction and isBig are
// omitted from the payload when nil.
func (c *Client) SetMessageReaction(ctx context.Context, chatID string, messageID int64, reaction *ReactionType, isBig *bool) (json.RawMessage, error) {
	form := url.Values{}
	form.Set("chat_id", chatID)
	form.Set("message_id", strconv.FormatInt(messageID, 10))
	if reaction != nil {
		b, err := json.Marshal(reaction)
		if err != nil {
			return nil, fmt.Errorf("encoding reaction: %w", err)
		}
		form.Set("reaction", string(b))
	}
	if isBig != nil {
		form.Set("is_big", pyBool(*isBig))
	}
	return c.call(ctx, "setMessageReaction", form)
}

// GetMe calls getMe and decodes the bot identity. Used for readiness checks.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	raw, err := c.call(ctx, "getMe", url.Values{})
	if err != nil {
		return nil, err
	}
	var env Envelope[User]
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decoding getMe: %w", err)
	}
	if !env.OK {
		return nil, perrors.NewAPIError(serviceName, "getMe", fmt.Sprintf("error_code %d: %s", env.ErrorCode, env.Description), nil)
	}
	return &env.Result, nil
}

// pyBool renders b as "True"/"False". The Bot API documents lowercase
// booleans; the capitalized form is kept until the expected literal is confirmed.
func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// call POSTs form to method and returns the body if it is valid JSON.
// The HTTP status is not inspected.
func (c *Client) call(ctx context.Context, method string, form url.Values) (json.RawMessage, error) {
	endpoint := c.baseURL + "/" + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, perrors.NewAPIError(serviceName, method, "creating request", c.redact(err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("method", method).Strs("fields", fieldNames(form)).Msg("bot api request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(method, "transport_error")
		return nil, perrors.NewAPIError(serviceName, method, "request failed", c.redact(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.record(method, "transport_error")
		return nil, perrors.NewAPIError(serviceName, method, "reading response", c.redact(err))
	}

	if !json.Valid(body) {
		c.record(method, "invalid_response")
		return nil, fmt.Errorf("%s %s: %w (status %d)", serviceName, method, perrors.ErrInvalidResponse, resp.StatusCode)
	}

	c.record(method, "ok")
	c.logger.Debug().
		Str("method", method).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("bot api response")

	return json.RawMessage(body), nil
}

func (c *Client) record(method, outcome string) {
	if c.metrics != nil {
		c.metrics.RecordAPIRequest(method, outcome)
	}
}

// redact strips the bot token from err's message; net/http embeds the
// request URL, and with it the token, in transport errors.
func (c *Client) redact(err error) error {
	if err == nil || c.token == "" || !strings.Contains(err.Error(), c.token) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), c.token, "<redacted>"), err: err}
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

func fieldNames(form url.Values) []string {
	return slices.Sorted(maps.Keys(form))
}
