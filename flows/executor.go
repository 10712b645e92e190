package flows

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxResponseBytes = 1 << 20

var ErrUnsuccessfulStatus = errors.New("unsuccessful response status")

// Request is a single outgoing HTTP call made on behalf of a flow.
type Request struct {
	URL     string
	Method  string
	Headers map[string]string
	Body    string
}

// Response carries the raw bytes of a reply.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Executor is the HTTP execution collaborator. Implementations return an error for
// transport failures and for non-2xx replies.
type Executor interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, req *Request) (*Response, error)

func (f ExecutorFunc) Do(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// HTTPExecutor runs requests on an http.Client with a deadline per request.
type HTTPExecutor struct {
	client  *http.Client
	timeout time.Duration
}

// NewHTTPExecutor returns an executor bounded by timeout. A nil client uses a fresh
// http.Client.
func NewHTTPExecutor(client *http.Client, timeout time.Duration) *HTTPExecutor {
	if client == nil {
		client = &http.Client{}
	}
	if timeout <= 0 {
		timeout = DefaultTokenRequestTimeout
	}
	return &HTTPExecutor{client: client, timeout: timeout}
}

// Client exposes the underlying client for libraries that take one directly.
func (e *HTTPExecutor) Client() *http.Client {
	return e.client
}

func (e *HTTPExecutor) Do(ctx context.Context, req *Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, strings.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	httpResp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	resp := &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: body}
	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return resp, fmt.Errorf("%w: %d", ErrUnsuccessfulStatus, httpResp.StatusCode)
	}
	return resp, nil
}
