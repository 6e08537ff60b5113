package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"
)

// ClientTransport handles the communication layer for MCP clients.
type ClientTransport interface {
	// SendRequest sends a request and returns the matching response. For
	// notifications (requests without an ID) it returns immediately after
	// the write with an empty response.
	SendRequest(ctx context.Context, req *Request) (*Response, error)
	// Close closes the transport and releases any underlying resources.
	Close() error
}

// maxLineBytes bounds a single NDJSON message read from a peer.
const maxLineBytes = 16 * 1024 * 1024

// closeGrace is how long Close waits for the child to exit after stdin is
// closed before killing it.
const closeGrace = 3 * time.Second

// CommandTransport implements ClientTransport over the stdin/stdout of a
// spawned child process. Messages are newline-delimited JSON. Responses are
// correlated to in-flight requests by JSON-RPC id, so multiple calls may be
// outstanding at once.
type CommandTransport struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser

	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[int64]chan *Response

	done    chan struct{} // closed when the read loop exits
	readErr error         // set before done is closed

	exited    chan struct{} // closed when the process has been reaped
	closeOnce sync.Once
	closeErr  error
}

// NewCommandTransport spawns command with the given arguments and environment
// and wires its stdio as a duplex NDJSON channel. The environment entries are
// appended to the current process environment. Spawn failures are returned
// before any protocol traffic happens.
func NewCommandTransport(command string, args []string, env map[string]string) (*CommandTransport, error) {
	cmd := exec.Command(command, args...) // #nosec G204 -- command comes from user-managed server config
	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdout pipe: %w", err)
	}
	// MCP reserves stdout for protocol traffic; servers log on stderr.
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %q: %w", command, err)
	}

	t := newStreamTransport(stdout, stdin)
	t.cmd = cmd

	go func() {
		_ = cmd.Wait()
		close(t.exited)
	}()

	return t, nil
}

// newStreamTransport wires a transport over arbitrary streams. Used directly
// in tests; NewCommandTransport adds the process plumbing on top.
func newStreamTransport(r io.Reader, w io.WriteCloser) *CommandTransport {
	t := &CommandTransport{
		stdin:   w,
		pending: make(map[int64]chan *Response),
		done:    make(chan struct{}),
		exited:  make(chan struct{}),
	}
	go t.readLoop(r)
	return t
}

// SendRequest writes the request and, unless it is a notification, blocks
// until the matching response arrives, the context is canceled, or the
// transport shuts down.
func (t *CommandTransport) SendRequest(ctx context.Context, req *Request) (*Response, error) {
	var ch chan *Response
	if req.ID != nil {
		id, ok := idKey(req.ID)
		if !ok {
			return nil, fmt.Errorf("unsupported request id type %T", req.ID)
		}
		ch = make(chan *Response, 1)
		t.pendingMu.Lock()
		t.pending[id] = ch
		t.pendingMu.Unlock()
		defer func() {
			t.pendingMu.Lock()
			delete(t.pending, id)
			t.pendingMu.Unlock()
		}()
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	t.writeMu.Lock()
	_, err = t.stdin.Write(append(data, '\n'))
	t.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to write request: %w", err)
	}

	if ch == nil {
		return &Response{JSONRPC: JSONRPCVersion}, nil
	}

	select {
	case resp := <-ch:
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.done:
		if t.readErr != nil {
			return nil, fmt.Errorf("transport closed: %w", t.readErr)
		}
		return nil, io.ErrUnexpectedEOF
	}
}

// readLoop reads NDJSON messages from the peer and delivers responses to
// their waiting callers. Messages that are not responses to an in-flight
// request (server-initiated requests and notifications) are dropped; this
// client does not serve the reverse direction.
func (t *CommandTransport) readLoop(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var resp Response
		if err := json.Unmarshal(line, &resp); err != nil {
			continue // not a message we understand; skip the line
		}
		if resp.ID == nil || (resp.Result == nil && resp.Error == nil) {
			continue
		}

		id, ok := idKey(resp.ID)
		if !ok {
			continue
		}

		t.pendingMu.Lock()
		ch := t.pending[id]
		t.pendingMu.Unlock()
		if ch != nil {
			// The channel holds one response. A duplicate id from a
			// misbehaving server is dropped instead of wedging the loop.
			select {
			case ch <- &resp:
			default:
			}
		}
	}

	t.readErr = scanner.Err()
	close(t.done)
}

// Close requests a graceful shutdown: stdin is closed so a well-behaved
// server exits on EOF, and the process is killed if it lingers past the
// grace period. Close is idempotent and never blocks indefinitely.
func (t *CommandTransport) Close() error {
	t.closeOnce.Do(func() {
		t.writeMu.Lock()
		t.closeErr = t.stdin.Close()
		t.writeMu.Unlock()

		if t.cmd == nil {
			close(t.exited)
			return
		}

		select {
		case <-t.exited:
		case <-time.After(closeGrace):
			if t.cmd.Process != nil {
				_ = t.cmd.Process.Kill()
			}
			<-t.exited
		}
	})
	return t.closeErr
}

// idKey normalizes a JSON-RPC id to an int64 map key. JSON numbers decode as
// float64; string ids are accepted when they parse as integers.
func idKey(id any) (int64, bool) {
	switch v := id.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}
