package executor

import (
	"context"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vnykmshr/reqflow/pkg/scheduler"
)

const defaultHandshakeTimeout = 5 * time.Second

// WebSocket executes tasks over a WebSocket connection: it dials the target,
// writes the task body (if any) as one binary message and returns the first
// message received in reply.
type WebSocket struct {
	dialer *websocket.Dialer
}

// NewWebSocket creates a WebSocket executor. A nil dialer selects a default
// with a 5 second handshake timeout.
func NewWebSocket(dialer *websocket.Dialer) *WebSocket {
	if dialer == nil {
		dialer = &websocket.Dialer{HandshakeTimeout: defaultHandshakeTimeout}
	}
	return &WebSocket{dialer: dialer}
}

// Run implements the scheduler.Executor interface.
func (w *WebSocket) Run(ctx context.Context, task scheduler.Task, report scheduler.ProgressFunc) ([]byte, error) {
	conn, resp, err := w.dialer.DialContext(ctx, task.Target, nil)
	if err != nil {
		return nil, err
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	// gorilla reads don't take a context; closing the conn unblocks them
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-watchDone:
		}
	}()

	if len(task.Body) > 0 {
		if err := conn.WriteMessage(websocket.BinaryMessage, task.Body); err != nil {
			return nil, err
		}
		report(int64(len(task.Body)), int64(len(task.Body)), false)
	}

	_, payload, err := conn.ReadMessage()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	report(int64(len(payload)), int64(len(payload)), true)
	return payload, nil
}
