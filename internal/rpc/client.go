// SPDX-License-Identifier: MPL-2.0

package rpc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync/atomic"
	"time"
)

// Client calls a daemon over its socket. Each Call opens its own
// connection, so a Client is safe for concurrent use.
type Client struct {
	path   string
	dialer net.Dialer
	nextID atomic.Uint64
}

// NewClient returns a client for the socket at path.
func NewClient(path string) *Client {
	return &Client{path: path, dialer: net.Dialer{Timeout: 5 * time.Second}}
}

// Path is the socket the client dials.
func (c *Client) Path() string { return c.path }

// Call sends method with params and decodes the result into out (which may
// be nil). A daemon-side failure is returned as *Error; a failure to connect
// wraps ErrDaemonUnreachable. Calls have no deadline unless ctx has one,
// since bottle.run and recipe.apply block until programs exit.
func (c *Client) Call(ctx context.Context, method string, params, out any) error {
	conn, err := c.dialer.DialContext(ctx, "unix", c.path)
	if err != nil {
		return fmt.Errorf("%w: unable to connect to daemon at %s: %w", ErrDaemonUnreachable, c.path, err)
	}
	defer func() { _ = conn.Close() }()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	req := Request{ID: json.RawMessage(strconv.FormatUint(c.nextID.Add(1), 10)), Method: method}
	if params != nil {
		if req.Params, err = json.Marshal(params); err != nil {
			return fmt.Errorf("failed to marshal %s params: %w", method, err)
		}
	}
	if err := writeMessage(bufio.NewWriter(conn), req); err != nil {
		return c.ioError(ctx, "send request", err)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxMessageSize)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return c.ioError(ctx, "read response", err)
		}
		return errors.New("daemon closed connection without response")
	}

	var resp Response
	if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
		return fmt.Errorf("invalid response from daemon: %w", err)
	}
	if resp.Error != nil {
		return resp.Error
	}
	if out == nil {
		return nil
	}
	if len(resp.Result) == 0 {
		return errors.New("missing result field")
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return nil
}

func (c *Client) ioError(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", op, ctxErr)
	}
	// The socket deadline can fire a moment before the context's own timer.
	if deadline, ok := ctx.Deadline(); ok && !time.Now().Before(deadline) {
		return fmt.Errorf("%s: %w", op, context.DeadlineExceeded)
	}
	return fmt.Errorf("%s: %w", op, err)
}
