// Package client is a small Unix-socket client for the media preprocessing
// daemon. One length-prefixed JSON frame per request and response.
package client

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/tendant/simple-media-preproc/pkg/mediaproc"
)

// Client invokes operations on a running daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// New creates a client for the daemon at socketPath
func New(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    60 * time.Second,
	}
}

// NewWithTimeout creates a client with a custom per-call timeout
func NewWithTimeout(socketPath string, timeout time.Duration) *Client {
	return &Client{socketPath: socketPath, timeout: timeout}
}

// Invoke sends one request and reads the outcome
func (c *Client) Invoke(ctx context.Context, req mediaproc.Request) (*mediaproc.Outcome, error) {
	dialer := net.Dialer{Timeout: c.timeout}
	conn, err := dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	} else {
		conn.SetDeadline(time.Now().Add(c.timeout))
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	if err := writeFrame(conn, payload); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	frame, err := readFrame(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var outcome mediaproc.Outcome
	if err := json.Unmarshal(frame, &outcome); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &outcome, nil
}

// Health checks daemon liveness
func (c *Client) Health(ctx context.Context) (*mediaproc.Outcome, error) {
	return c.Invoke(ctx, mediaproc.Request{Op: "health", Input: json.RawMessage("{}")})
}

func writeFrame(w io.Writer, payload []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

func readFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
