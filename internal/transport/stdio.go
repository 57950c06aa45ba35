package transport

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/p-blackswan/telegram-mcp/internal/mcp"
	"github.com/p-blackswan/telegram-mcp/internal/metrics"
	"github.com/p-blackswan/telegram-mcp/internal/requestid"
)

// maxMessageSize bounds a single stdin line. Longer lines are skipped and
// answered with a parse error.
const maxMessageSize = 4 << 20

var errLineTooLong = errors.New("message too long")

// Stdio serves JSON-RPC over a line-oriented reader/writer pair,
// normally os.Stdin and os.Stdout.
type Stdio struct {
	in      io.Reader
	out     io.Writer
	writeMu sync.Mutex
	logger  zerolog.Logger
	metrics *metrics.Metrics
	maxLine int
}

// NewStdio creates a stdio transport. m may be nil.
func NewStdio(in io.Reader, out io.Writer, m *metrics.Metrics, logger zerolog.Logger) *Stdio {
	return &Stdio{
		in:      in,
		out:     out,
		logger:  logger.With().Str("component", "stdio").Logger(),
		metrics: m,
		maxLine: maxMessageSize,
	}
}

// Serve reads messages until EOF or ctx is done. Each message is handled on
// its own goroutine so a slow Bot API call does not stall the reader;
// replies may therefore arrive out of order, matched by id. Serve waits for
// in-flight messages before returning.
func (t *Stdio) Serve(ctx context.Context, h Handler) error {
	t.logger.Info().Msg("stdio transport started")

	reader := bufio.NewReaderSize(t.in, 64*1024)

	lines := make(chan []byte)
	errCh := make(chan error, 1)

	go func() {
		defer close(lines)
		for {
			line, err := readLine(reader, t.maxLine)
			if errors.Is(err, errLineTooLong) {
				t.rejectOversized()
				continue
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					errCh <- err
				}
				return
			}
			line = bytes.TrimSpace(line)
			if len(line) == 0 {
				continue
			}
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info().Msg("stdio transport shutting down")
			return nil
		case msg, ok := <-lines:
			if !ok {
				select {
				case err := <-errCh:
					t.logger.Error().Err(err).Msg("error reading input")
					return fmt.Errorf("reading stdin: %w", err)
				default:
				}
				t.logger.Info().Msg("input closed, exiting")
				return nil
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				t.handle(ctx, h, msg)
			}()
		}
	}
}

func (t *Stdio) handle(ctx context.Context, h Handler, msg []byte) {
	ctx, reqID := requestid.New(ctx)
	resp, method := h.HandleMessage(ctx, msg)
	recordRPC(t.metrics, method, "stdio")

	if resp == nil {
		return
	}
	if err := t.write(resp); err != nil {
		t.logger.Error().Err(err).Str("request_id", reqID).Str("method", method).Msg("failed to write response")
	}
}

func (t *Stdio) rejectOversized() {
	t.logger.Warn().Int("limit", t.maxLine).Msg("dropping oversized message")
	recordRPC(t.metrics, "", "stdio")

	resp := mcp.NewErrorResponse(nil, mcp.ErrorCodeParseError, "Parse error",
		fmt.Sprintf("message exceeds %d bytes", t.maxLine))
	if err := t.write(resp); err != nil {
		t.logger.Error().Err(err).Msg("failed to write response")
	}
}

// readLine returns the next line, newline included. A line longer than max
// is consumed in full and reported as errLineTooLong. A final line without
// a newline is returned before io.EOF.
func readLine(r *bufio.Reader, max int) ([]byte, error) {
	var (
		line    []byte
		tooLong bool
	)
	for {
		chunk, err := r.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(chunk) > max {
				tooLong, line = true, nil
			} else {
				line = append(line, chunk...)
			}
		}

		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case err == nil:
		case errors.Is(err, io.EOF) && (len(line) > 0 || tooLong):
		default:
			return nil, err
		}

		if tooLong {
			return nil, errLineTooLong
		}
		return line, nil
	}
}

func (t *Stdio) write(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}
	b = append(b, '\n')

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	_, err = t.out.Write(b)
	return err
}
