package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fystack/crown-clash/pkg/common/logger"
	"github.com/fystack/crown-clash/pkg/ratelimiter"
	"github.com/fystack/crown-clash/pkg/retry"
)

type Options struct {
	Auth        *AuthConfig
	Timeout     time.Duration
	RateLimiter *ratelimiter.RateLimiter
	// MaxRetries is the number of retries after the first attempt for
	// transport errors, 429 and 5xx replies. 0 sends each request once.
	MaxRetries uint64
	RetryDelay time.Duration
}

// Client is a JSON-RPC 2.0 client over HTTP POST.
type Client struct {
	httpClient *http.Client
	url        string
	opts       Options
	rpcID      atomic.Int64
}

func NewClient(url string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 100 * time.Millisecond
	}
	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		url:        strings.TrimSuffix(url, "/"),
		opts:       opts,
	}
}

func (c *Client) URL() string { return c.url }

// Call invokes method and decodes the result into out. RPC level errors are
// returned as *RPCError and never retried.
func (c *Client) Call(ctx context.Context, method string, params any, out any) error {
	var resp *RPCResponse
	op := func() error {
		var err error
		resp, err = c.call(ctx, method, params)
		var httpErr *HTTPError
		switch {
		case err == nil:
			return nil
		case errors.As(err, &httpErr) && !httpErr.Temporary():
			return retry.Permanent(err)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return retry.Permanent(err)
		}
		return err
	}

	var err error
	if c.opts.MaxRetries == 0 {
		err = retry.Constant(ctx, op, 0, 1)
	} else {
		err = retry.Exponential(ctx, op, retry.ExponentialConfig{
			InitialInterval: c.opts.RetryDelay,
			MaxRetries:      c.opts.MaxRetries,
			OnRetry: func(err error, next time.Duration) {
				logger.Warn("Retrying RPC call", "method", method, "url", c.url, "in", next, "error", err)
			},
		})
	}
	if err != nil {
		return err
	}
	if resp.Error != nil {
		return resp.Error
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	return nil
}

func (c *Client) call(ctx context.Context, method string, params any) (*RPCResponse, error) {
	if c.opts.RateLimiter != nil {
		if err := c.opts.RateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	body, err := json.Marshal(&RPCRequest{ID: c.rpcID.Add(1), JSONRPC: "2.0", Method: method, Params: params})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.opts.Auth.apply(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	logger.Debug("RPC request completed", "method", method, "elapsed", time.Since(start))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: c.url, Body: string(data)}
	}

	var rpcResp RPCResponse
	if err := json.Unmarshal(data, &rpcResp); err != nil {
		return nil, retry.Permanent(fmt.Errorf("unmarshal RPC response: %w", err))
	}
	return &rpcResp, nil
}
