package executor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vnykmshr/reqflow/pkg/scheduler"
)

const (
	defaultChunkSize   = 32 * 1024
	defaultHTTPTimeout = 30 * time.Second
)

// HTTP executes tasks as HTTP requests. The request method defaults to GET,
// or POST when the task carries a body. Responses with status >= 400 fail
// the task.
type HTTP struct {
	client    *http.Client
	chunkSize int
}

// NewHTTP creates an HTTP executor. A nil client selects a default with a
// 30 second timeout.
func NewHTTP(client *http.Client) *HTTP {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &HTTP{client: client, chunkSize: defaultChunkSize}
}

// Run implements the scheduler.Executor interface.
func (h *HTTP) Run(ctx context.Context, task scheduler.Task, report scheduler.ProgressFunc) ([]byte, error) {
	method := task.Method
	var body io.Reader
	if len(task.Body) > 0 {
		if method == "" {
			method = http.MethodPost
		}
		body = &progressReader{
			r:      bytes.NewReader(task.Body),
			total:  int64(len(task.Body)),
			report: report,
		}
	}
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, task.Target, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.ContentLength = int64(len(task.Body))
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	// read in chunks so large downloads report as they go
	var payload bytes.Buffer
	chunk := make([]byte, h.chunkSize)
	var received int64
	for {
		n, err := resp.Body.Read(chunk)
		if n > 0 {
			payload.Write(chunk[:n])
			received += int64(n)
			report(received, resp.ContentLength, true)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	return payload.Bytes(), nil
}

// progressReader reports cumulative upload progress as the transport drains
// the request body.
type progressReader struct {
	r      io.Reader
	total  int64
	sent   int64
	report scheduler.ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		p.report(p.sent, p.total, false)
	}
	return n, err
}
